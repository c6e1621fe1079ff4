package service

import (
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

// Kind classifies an error for the transport layer.
type Kind int

const (
	KindInternal Kind = iota
	KindValidation
	KindNotFound
	KindConflict
	KindForbidden
	KindUnauthorized
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation_error"
	case KindNotFound:
		return "not_found"
	case KindConflict:
		return "conflict"
	case KindForbidden:
		return "forbidden"
	case KindUnauthorized:
		return "unauthorized"
	default:
		return "internal_error"
	}
}

// kindError is a sentinel with a fixed kind and field.
type kindError struct {
	kind  Kind
	field string
	msg   string
}

func (e *kindError) Error() string { return e.msg }
func (e *kindError) Kind() Kind    { return e.kind }
func (e *kindError) Field() string { return e.field }

var (
	ErrEmptyComposition   = &kindError{KindValidation, "ingredients", "recipe must contain at least one ingredient"}
	ErrSelfRelation       = &kindError{KindValidation, "subscribed_to", "cannot subscribe to yourself"}
	ErrRelationNotFound   = &kindError{KindNotFound, "", "relation does not exist"}
	ErrRecipeNotFound     = &kindError{KindNotFound, "", "recipe not found"}
	ErrUserNotFound       = &kindError{KindNotFound, "", "user not found"}
	ErrIngredientNotFound = &kindError{KindNotFound, "", "ingredient not found"}
	ErrShortLinkNotFound  = &kindError{KindNotFound, "", "short link not found"}
	ErrNotAuthor          = &kindError{KindForbidden, "", "only the author can modify this recipe"}
	ErrInvalidCredentials = &kindError{KindValidation, "", "invalid email or password"}
	ErrInvalidToken       = &kindError{KindUnauthorized, "", "invalid or expired token"}
	ErrShortLinkExhausted = errors.New("could not allocate a free short link")
)

// ValidationError is a field-scoped validation failure.
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}
func (e *ValidationError) Kind() Kind { return KindValidation }

// QuantityOutOfRangeError reports an ingredient amount outside the allowed bounds.
type QuantityOutOfRangeError struct {
	Index        int
	IngredientID uint
	Amount       int
}

func (e *QuantityOutOfRangeError) Error() string {
	return fmt.Sprintf("ingredient %d (position %d): amount %d must be between %d and %d",
		e.IngredientID, e.Index, e.Amount, models.MinIngredientAmount, models.MaxIngredientAmount)
}
func (e *QuantityOutOfRangeError) Kind() Kind    { return KindValidation }
func (e *QuantityOutOfRangeError) Field() string { return "ingredients" }
func (e *QuantityOutOfRangeError) Details() map[string]any {
	return map[string]any{"index": e.Index, "ingredient_id": e.IngredientID, "amount": e.Amount}
}

// UnknownIngredientError reports a composition entry naming a missing ingredient.
type UnknownIngredientError struct {
	Index int
	ID    uint
}

func (e *UnknownIngredientError) Error() string {
	return fmt.Sprintf("ingredient %d (position %d) does not exist", e.ID, e.Index)
}
func (e *UnknownIngredientError) Kind() Kind    { return KindNotFound }
func (e *UnknownIngredientError) Field() string { return "ingredients" }
func (e *UnknownIngredientError) Details() map[string]any {
	return map[string]any{"index": e.Index, "ingredient_id": e.ID}
}
func (e *UnknownIngredientError) Is(target error) bool {
	return target == ErrIngredientNotFound
}

// DuplicateIngredientError lists every ingredient id repeated in a composition.
type DuplicateIngredientError struct {
	IDs []uint
}

func (e *DuplicateIngredientError) Error() string {
	ids := make([]string, len(e.IDs))
	for i, id := range e.IDs {
		ids[i] = fmt.Sprint(id)
	}
	return fmt.Sprintf("duplicate ingredients: %s", strings.Join(ids, ", "))
}
func (e *DuplicateIngredientError) Kind() Kind    { return KindValidation }
func (e *DuplicateIngredientError) Field() string { return "ingredients" }
func (e *DuplicateIngredientError) Details() map[string]any {
	return map[string]any{"ingredient_ids": e.IDs}
}

// DuplicateRelationError reports an attempt to add an existing relation.
type DuplicateRelationError struct {
	Relation RelationKind
}

func (e *DuplicateRelationError) Error() string {
	switch e.Relation {
	case RelationFavorite:
		return "recipe is already in favorites"
	case RelationShoppingCart:
		return "recipe is already in the shopping cart"
	case RelationSubscription:
		return "already subscribed to this user"
	default:
		return "relation already exists"
	}
}
func (e *DuplicateRelationError) Kind() Kind { return KindConflict }
func (e *DuplicateRelationError) Details() map[string]any {
	return map[string]any{"relation": string(e.Relation)}
}

// ConflictError reports a unique field already taken.
type ConflictError struct {
	Field string
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("%s is already taken", e.Field)
}
func (e *ConflictError) Kind() Kind { return KindConflict }

// KindOf returns the kind of the first error in the chain that has one.
func KindOf(err error) Kind {
	var k interface{ Kind() Kind }
	if errors.As(err, &k) {
		return k.Kind()
	}
	return KindInternal
}

// isUniqueViolation recognises unique-constraint failures from any driver.
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") ||
		strings.Contains(msg, "duplicate key") ||
		strings.Contains(msg, "sqlstate 23505")
}

func isForeignKeyViolation(err error) bool {
	if errors.Is(err, gorm.ErrForeignKeyViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "foreign key constraint") || strings.Contains(msg, "sqlstate 23503")
}

func isCheckViolation(err error) bool {
	if errors.Is(err, gorm.ErrCheckConstraintViolated) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "check constraint") || strings.Contains(msg, "sqlstate 23514")
}
