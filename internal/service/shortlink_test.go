package service_test

import (
	"bytes"
	"context"
	"regexp"
	"testing"

	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/service"
	"github.com/pageza/foodgram/backend/internal/testhelpers"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var shortLinkPattern = regexp.MustCompile(`^[a-zA-Z0-9]{6}$`)

func TestGenerateShortLink(t *testing.T) {
	a := service.NewShortLinkAllocator()
	for i := 0; i < 50; i++ {
		code, err := a.Generate()
		require.NoError(t, err)
		assert.Regexp(t, shortLinkPattern, code)
	}
}

func TestGenerateShortLinkRejectsBiasedBytes(t *testing.T) {
	a := &service.ShortLinkAllocator{
		Length: 6,
		Random: bytes.NewReader([]byte{248, 255, 0, 1, 2, 3, 4, 61}),
	}
	code, err := a.Generate()
	require.NoError(t, err)
	assert.Equal(t, "abcde9", code)
}

func TestGenerateShortLinkWrapsAlphabet(t *testing.T) {
	a := &service.ShortLinkAllocator{
		Length: 4,
		Random: bytes.NewReader([]byte{26, 52, 62, 247}),
	}
	code, err := a.Generate()
	require.NoError(t, err)
	assert.Equal(t, "A0a9", code)
}

func TestAllocateSequentialTokensAreDistinct(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	author := testhelpers.CreateUser(t, db, "chef")
	a := service.NewShortLinkAllocator()

	seen := map[string]bool{}
	for i := 0; i < 25; i++ {
		code, err := a.Allocate(context.Background(), db)
		require.NoError(t, err)
		assert.False(t, seen[code], "token %s handed out twice", code)
		seen[code] = true

		var count int64
		require.NoError(t, db.Model(&models.Recipe{}).Where("short_link = ?", code).Count(&count).Error)
		assert.Zero(t, count)

		// occupy the token so later allocations must avoid it
		recipe := testhelpers.CreateRecipe(t, db, author, "R")
		require.NoError(t, db.Model(recipe).Update("short_link", code).Error)
	}
}

func TestAllocateSkipsTakenToken(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	author := testhelpers.CreateUser(t, db, "chef")
	recipe := testhelpers.CreateRecipe(t, db, author, "Taken")
	require.NoError(t, db.Model(recipe).Update("short_link", "aaaaaa").Error)

	a := &service.ShortLinkAllocator{
		Length:      6,
		Random:      bytes.NewReader(append(bytes.Repeat([]byte{0}, 6), bytes.Repeat([]byte{1}, 6)...)),
		MaxAttempts: 5,
	}
	code, err := a.Allocate(context.Background(), db)
	require.NoError(t, err)
	assert.Equal(t, "bbbbbb", code)
}

func TestAllocateGivesUpAfterMaxAttempts(t *testing.T) {
	db := testhelpers.NewSQLiteDB(t)
	author := testhelpers.CreateUser(t, db, "chef")
	recipe := testhelpers.CreateRecipe(t, db, author, "Taken")
	require.NoError(t, db.Model(recipe).Update("short_link", "aaaaaa").Error)

	a := &service.ShortLinkAllocator{
		Length:      6,
		Random:      bytes.NewReader(make([]byte, 18)),
		MaxAttempts: 3,
	}
	_, err := a.Allocate(context.Background(), db)
	assert.ErrorIs(t, err, service.ErrShortLinkExhausted)
	assert.Equal(t, service.KindInternal, service.KindOf(err))
}

func TestShortLinkCache(t *testing.T) {
	cache, err := service.NewShortLinkCache(2)
	require.NoError(t, err)

	cache.Add("abc123", 1)
	cache.Add("def456", 2)
	id, ok := cache.Get("abc123")
	require.True(t, ok)
	assert.Equal(t, uint(1), id)

	// evicts the least recently used entry
	cache.Add("ghi789", 3)
	_, ok = cache.Get("def456")
	assert.False(t, ok)

	cache.Remove("abc123")
	_, ok = cache.Get("abc123")
	assert.False(t, ok)

	var nilCache *service.ShortLinkCache
	_, ok = nilCache.Get("x")
	assert.False(t, ok)
}
