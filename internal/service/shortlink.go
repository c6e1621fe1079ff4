package service

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"

	lru "github.com/hashicorp/golang-lru"
	"github.com/pageza/foodgram/backend/internal/metrics"
	"github.com/pageza/foodgram/backend/internal/models"
	"gorm.io/gorm"
)

const shortLinkAlphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// byte values at or above this bound are rejected so every character is
// equally likely
const shortLinkRejectAbove = 256 - 256%len(shortLinkAlphabet)

// ShortLinkAllocator produces short-link tokens that are free in the store.
type ShortLinkAllocator struct {
	Length      int
	Random      io.Reader
	MaxAttempts int
}

func NewShortLinkAllocator() *ShortLinkAllocator {
	return &ShortLinkAllocator{
		Length:      models.ShortLinkLength,
		Random:      rand.Reader,
		MaxAttempts: 32,
	}
}

// Generate returns a random alphanumeric token of Length characters.
func (a *ShortLinkAllocator) Generate() (string, error) {
	length := a.Length
	if length <= 0 {
		length = models.ShortLinkLength
	}
	random := a.Random
	if random == nil {
		random = rand.Reader
	}

	out := make([]byte, 0, length)
	buf := make([]byte, length)
	for len(out) < length {
		chunk := buf[:length-len(out)]
		if _, err := io.ReadFull(random, chunk); err != nil {
			return "", fmt.Errorf("failed to read random bytes: %w", err)
		}
		for _, b := range chunk {
			if int(b) >= shortLinkRejectAbove {
				continue
			}
			out = append(out, shortLinkAlphabet[int(b)%len(shortLinkAlphabet)])
		}
	}
	return string(out), nil
}

// Allocate generates candidates until one is absent from recipes.short_link,
// checked through tx. The unique index still has the final word; callers
// retry on a unique violation at insert time.
func (a *ShortLinkAllocator) Allocate(ctx context.Context, tx *gorm.DB) (string, error) {
	attempts := a.MaxAttempts
	if attempts <= 0 {
		attempts = 32
	}

	for i := 0; i < attempts; i++ {
		code, err := a.Generate()
		if err != nil {
			return "", err
		}

		var count int64
		if err := tx.WithContext(ctx).Model(&models.Recipe{}).Where("short_link = ?", code).Count(&count).Error; err != nil {
			return "", fmt.Errorf("failed to check short link: %w", err)
		}
		if count == 0 {
			return code, nil
		}
		metrics.ShortLinkCollisions.Inc()
	}
	return "", ErrShortLinkExhausted
}

// ShortLinkCache maps short-link codes to recipe ids for the redirect endpoint.
type ShortLinkCache struct {
	cache *lru.Cache
}

func NewShortLinkCache(size int) (*ShortLinkCache, error) {
	c, err := lru.New(size)
	if err != nil {
		return nil, fmt.Errorf("failed to create short link cache: %w", err)
	}
	return &ShortLinkCache{cache: c}, nil
}

func (c *ShortLinkCache) Get(code string) (uint, bool) {
	if c == nil {
		return 0, false
	}
	v, ok := c.cache.Get(code)
	metrics.RecordShortLinkLookup(ok)
	if !ok {
		return 0, false
	}
	return v.(uint), true
}

func (c *ShortLinkCache) Add(code string, recipeID uint) {
	if c == nil {
		return
	}
	c.cache.Add(code, recipeID)
}

func (c *ShortLinkCache) Remove(code string) {
	if c == nil {
		return
	}
	c.cache.Remove(code)
}
