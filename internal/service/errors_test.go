package service_test

import (
	"errors"
	"fmt"
	"testing"

	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/stretchr/testify/assert"
)

func TestKindOf(t *testing.T) {
	cases := []struct {
		err  error
		want service.Kind
	}{
		{service.ErrEmptyComposition, service.KindValidation},
		{&service.QuantityOutOfRangeError{Index: 0, IngredientID: 1, Amount: 0}, service.KindValidation},
		{&service.DuplicateIngredientError{IDs: []uint{1}}, service.KindValidation},
		{&service.UnknownIngredientError{Index: 0, ID: 5}, service.KindNotFound},
		{service.ErrRelationNotFound, service.KindNotFound},
		{&service.DuplicateRelationError{Relation: service.RelationFavorite}, service.KindConflict},
		{&service.ConflictError{Field: "email"}, service.KindConflict},
		{service.ErrNotAuthor, service.KindForbidden},
		{service.ErrInvalidToken, service.KindUnauthorized},
		{fmt.Errorf("wrapped: %w", service.ErrRecipeNotFound), service.KindNotFound},
		{errors.New("boom"), service.KindInternal},
		{service.ErrShortLinkExhausted, service.KindInternal},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, service.KindOf(tc.err), tc.err.Error())
	}
}

func TestKindString(t *testing.T) {
	assert.Equal(t, "validation_error", service.KindValidation.String())
	assert.Equal(t, "not_found", service.KindNotFound.String())
	assert.Equal(t, "conflict", service.KindConflict.String())
	assert.Equal(t, "internal_error", service.KindInternal.String())
}

func TestErrorMessages(t *testing.T) {
	dup := &service.DuplicateIngredientError{IDs: []uint{3, 9}}
	assert.Equal(t, "duplicate ingredients: 3, 9", dup.Error())
	assert.Equal(t, map[string]any{"ingredient_ids": []uint{3, 9}}, dup.Details())

	rangeErr := &service.QuantityOutOfRangeError{Index: 2, IngredientID: 4, Amount: 0}
	assert.Contains(t, rangeErr.Error(), "between 1 and 5000")

	assert.Equal(t, "recipe is already in the shopping cart",
		(&service.DuplicateRelationError{Relation: service.RelationShoppingCart}).Error())
}
