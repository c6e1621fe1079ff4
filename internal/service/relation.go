package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// RelationKind names one of the user -> target relations.
type RelationKind string

const (
	RelationFavorite     RelationKind = "favorite"
	RelationShoppingCart RelationKind = "shopping_cart"
	RelationSubscription RelationKind = "subscription"
)

// RelationSpec describes a relation table to a RelationGuard.
type RelationSpec[T any] struct {
	Kind         RelationKind
	SourceColumn string
	TargetColumn string
	// AllowSelf permits source == target
	AllowSelf bool
	// NewRow builds the row to insert
	NewRow func(source, target uint) *T
	// TargetExists returns a not-found error when the target is missing
	TargetExists func(tx *gorm.DB, target uint) error
}

// RelationGuard adds and removes (source, target) pairs of one relation
// table. The unique index on the pair is the authority; the existence
// pre-check only produces a friendlier error in the common case.
type RelationGuard[T any] struct {
	db   *gorm.DB
	spec RelationSpec[T]
}

func NewRelationGuard[T any](db *gorm.DB, spec RelationSpec[T]) *RelationGuard[T] {
	if spec.SourceColumn == "" {
		spec.SourceColumn = "user_id"
	}
	return &RelationGuard[T]{db: db, spec: spec}
}

// Kind returns the relation kind this guard manages.
func (g *RelationGuard[T]) Kind() RelationKind {
	return g.spec.Kind
}

// Add inserts the pair. Self-reference is rejected before anything else.
func (g *RelationGuard[T]) Add(ctx context.Context, source, target uint) (*T, error) {
	if !g.spec.AllowSelf && source == target {
		metrics.RecordRelationChange(string(g.spec.Kind), "add", ErrSelfRelation)
		return nil, ErrSelfRelation
	}

	var row *T
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := g.spec.TargetExists(tx, target); err != nil {
			return err
		}

		exists, err := g.exists(tx, source, target)
		if err != nil {
			return err
		}
		if exists {
			return &DuplicateRelationError{Relation: g.spec.Kind}
		}

		row = g.spec.NewRow(source, target)
		if err := tx.Omit(clause.Associations).Create(row).Error; err != nil {
			if isUniqueViolation(err) {
				// lost a race with a concurrent add
				return &DuplicateRelationError{Relation: g.spec.Kind}
			}
			if isCheckViolation(err) && !g.spec.AllowSelf {
				return ErrSelfRelation
			}
			if isForeignKeyViolation(err) {
				// the target was checked above, so the source user is gone
				return ErrUserNotFound
			}
			return fmt.Errorf("failed to add %s: %w", g.spec.Kind, err)
		}
		return nil
	})
	metrics.RecordRelationChange(string(g.spec.Kind), "add", err)
	if err != nil {
		return nil, err
	}
	return row, nil
}

// Remove deletes the pair. A missing pair is ErrRelationNotFound, so a
// repeated remove is reported rather than silently accepted.
func (g *RelationGuard[T]) Remove(ctx context.Context, source, target uint) error {
	err := g.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := g.spec.TargetExists(tx, target); err != nil {
			return err
		}

		res := tx.Where(g.pairCondition(), source, target).Delete(new(T))
		if res.Error != nil {
			return fmt.Errorf("failed to remove %s: %w", g.spec.Kind, res.Error)
		}
		if res.RowsAffected == 0 {
			return ErrRelationNotFound
		}
		return nil
	})
	metrics.RecordRelationChange(string(g.spec.Kind), "remove", err)
	return err
}

// Exists reports whether the pair is present.
func (g *RelationGuard[T]) Exists(ctx context.Context, source, target uint) (bool, error) {
	return g.exists(g.db.WithContext(ctx), source, target)
}

func (g *RelationGuard[T]) exists(tx *gorm.DB, source, target uint) (bool, error) {
	var count int64
	if err := tx.Model(new(T)).Where(g.pairCondition(), source, target).Count(&count).Error; err != nil {
		return false, fmt.Errorf("failed to check %s: %w", g.spec.Kind, err)
	}
	return count > 0, nil
}

// TargetsOf returns which of the candidate targets are related to source.
func (g *RelationGuard[T]) TargetsOf(ctx context.Context, source uint, candidates []uint) (map[uint]bool, error) {
	out := make(map[uint]bool, len(candidates))
	if source == 0 || len(candidates) == 0 {
		return out, nil
	}

	var ids []uint
	err := g.db.WithContext(ctx).Model(new(T)).
		Where(g.spec.SourceColumn+" = ? AND "+g.spec.TargetColumn+" IN ?", source, candidates).
		Pluck(g.spec.TargetColumn, &ids).Error
	if err != nil {
		return nil, fmt.Errorf("failed to load %s flags: %w", g.spec.Kind, err)
	}
	for _, id := range ids {
		out[id] = true
	}
	return out, nil
}

// SubQuery selects the target ids related to source, for use in IN filters.
func (g *RelationGuard[T]) SubQuery(tx *gorm.DB, source uint) *gorm.DB {
	return tx.Model(new(T)).Select(g.spec.TargetColumn).Where(g.spec.SourceColumn+" = ?", source)
}

func (g *RelationGuard[T]) pairCondition() string {
	return g.spec.SourceColumn + " = ? AND " + g.spec.TargetColumn + " = ?"
}

func recipeExists(tx *gorm.DB, id uint) error {
	return rowExists(tx, &models.Recipe{}, id, ErrRecipeNotFound)
}

func userExists(tx *gorm.DB, id uint) error {
	return rowExists(tx, &models.User{}, id, ErrUserNotFound)
}

func rowExists(tx *gorm.DB, model interface{}, id uint, notFound error) error {
	var count int64
	if err := tx.Model(model).Where("id = ?", id).Count(&count).Error; err != nil {
		return fmt.Errorf("failed to look up target: %w", err)
	}
	if count == 0 {
		return notFound
	}
	return nil
}

// NewFavoriteGuard manages users' favorite recipes.
func NewFavoriteGuard(db *gorm.DB) *RelationGuard[models.Favorite] {
	return NewRelationGuard(db, RelationSpec[models.Favorite]{
		Kind:         RelationFavorite,
		TargetColumn: "recipe_id",
		AllowSelf:    true,
		NewRow: func(source, target uint) *models.Favorite {
			return &models.Favorite{UserID: source, RecipeID: target}
		},
		TargetExists: recipeExists,
	})
}

// NewShoppingCartGuard manages users' shopping carts.
func NewShoppingCartGuard(db *gorm.DB) *RelationGuard[models.ShoppingCartEntry] {
	return NewRelationGuard(db, RelationSpec[models.ShoppingCartEntry]{
		Kind:         RelationShoppingCart,
		TargetColumn: "recipe_id",
		AllowSelf:    true,
		NewRow: func(source, target uint) *models.ShoppingCartEntry {
			return &models.ShoppingCartEntry{UserID: source, RecipeID: target}
		},
		TargetExists: recipeExists,
	})
}

// NewSubscriptionGuard manages who follows whom. Following yourself is rejected.
func NewSubscriptionGuard(db *gorm.DB) *RelationGuard[models.Subscription] {
	return NewRelationGuard(db, RelationSpec[models.Subscription]{
		Kind:         RelationSubscription,
		TargetColumn: "subscribed_to_id",
		AllowSelf:    false,
		NewRow: func(source, target uint) *models.Subscription {
			return &models.Subscription{UserID: source, SubscribedToID: target}
		},
		TargetExists: userExists,
	})
}

// IsDuplicateRelation reports whether err is a DuplicateRelationError.
func IsDuplicateRelation(err error) bool {
	var dup *DuplicateRelationError
	return errors.As(err, &dup)
}
