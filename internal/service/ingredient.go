package service

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/types"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

const importBatchSize = 500

type IngredientService struct {
	db *gorm.DB
}

func NewIngredientService(db *gorm.DB) *IngredientService {
	return &IngredientService{db: db}
}

// List returns ingredients whose name starts with prefix, case-insensitively,
// ordered by name. An empty prefix lists everything.
func (s *IngredientService) List(ctx context.Context, prefix string) ([]types.IngredientView, error) {
	q := s.db.WithContext(ctx).Model(&models.Ingredient{})
	if prefix = strings.TrimSpace(prefix); prefix != "" {
		lower := strings.ToLower(prefix)
		if s.db.Dialector.Name() == "sqlite" {
			// sqlite folds ASCII only, so non-ASCII names also match as typed or capitalised
			q = q.Where("(LOWER(name) LIKE ? ESCAPE '\\' OR name LIKE ? ESCAPE '\\' OR name LIKE ? ESCAPE '\\')",
				likePrefix(lower), likePrefix(prefix), likePrefix(capitalize(lower)))
		} else {
			q = q.Where("LOWER(name) LIKE ? ESCAPE '\\'", likePrefix(lower))
		}
	}

	var ingredients []models.Ingredient
	if err := q.Order("name, measurement_unit").Find(&ingredients).Error; err != nil {
		return nil, fmt.Errorf("failed to list ingredients: %w", err)
	}

	out := make([]types.IngredientView, 0, len(ingredients))
	for i := range ingredients {
		out = append(out, ingredientView(&ingredients[i]))
	}
	return out, nil
}

func (s *IngredientService) Get(ctx context.Context, id uint) (*types.IngredientView, error) {
	var ing models.Ingredient
	if err := s.db.WithContext(ctx).First(&ing, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrIngredientNotFound
		}
		return nil, fmt.Errorf("failed to get ingredient: %w", err)
	}
	v := ingredientView(&ing)
	return &v, nil
}

// ImportCSV loads "name,measurement_unit" rows from path. A missing file is
// not an error and imports nothing; existing pairs are skipped. It returns
// the number of rows inserted.
func (s *IngredientService) ImportCSV(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			logging.L().Warn().Str("path", path).Msg("ingredient file not found, skipping import")
			return 0, nil
		}
		return 0, fmt.Errorf("failed to open ingredient file: %w", err)
	}
	defer f.Close()

	return s.Import(ctx, f)
}

// Import reads CSV rows from r and inserts them in batches.
func (s *IngredientService) Import(ctx context.Context, r io.Reader) (int, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true

	var (
		inserted int
		batch    = make([]models.Ingredient, 0, importBatchSize)
		line     int
	)
	flush := func() error {
		if len(batch) == 0 {
			return nil
		}
		res := s.db.WithContext(ctx).
			Clauses(clause.OnConflict{DoNothing: true}).
			Create(&batch)
		if res.Error != nil {
			return fmt.Errorf("failed to insert ingredients: %w", res.Error)
		}
		inserted += int(res.RowsAffected)
		batch = batch[:0]
		return nil
	}

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		line++
		if err != nil {
			return inserted, fmt.Errorf("failed to read ingredient file at line %d: %w", line, err)
		}
		if len(record) < 2 {
			continue
		}
		name, unit := strings.TrimSpace(record[0]), strings.TrimSpace(record[1])
		if name == "" || unit == "" || (line == 1 && strings.EqualFold(name, "name")) {
			continue
		}
		if len([]rune(name)) > models.MaxIngredientName || len([]rune(unit)) > models.MaxMeasurementUnit {
			logging.L().Warn().Int("line", line).Str("name", name).Msg("ingredient too long, skipped")
			continue
		}

		batch = append(batch, models.Ingredient{Name: name, MeasurementUnit: unit})
		if len(batch) == importBatchSize {
			if err := flush(); err != nil {
				return inserted, err
			}
		}
	}
	if err := flush(); err != nil {
		return inserted, err
	}

	metrics.IngredientsImported.Add(float64(inserted))
	logging.L().Info().Int("inserted", inserted).Msg("ingredient import finished")
	return inserted, nil
}

func likePrefix(s string) string {
	return escapeLike(s) + "%"
}

func capitalize(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

func escapeLike(s string) string {
	r := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return r.Replace(s)
}
