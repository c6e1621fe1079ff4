package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/pageza/foodgram/backend/internal/logging"
	"github.com/pageza/foodgram/backend/internal/models"
	"github.com/pageza/foodgram/backend/internal/storage"
	"github.com/pageza/foodgram/backend/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const avatarPrefix = "avatars"

type UserService struct {
	db        *gorm.DB
	images    storage.ImageStore
	relations *RelationService
}

func NewUserService(db *gorm.DB, images storage.ImageStore, relations *RelationService) *UserService {
	if relations == nil {
		relations = NewRelationService(db)
	}
	return &UserService{db: db, images: images, relations: relations}
}

// Register creates a user with a bcrypt password hash.
func (s *UserService) Register(ctx context.Context, req *types.RegisterRequest) (*types.UserView, error) {
	email := strings.ToLower(strings.TrimSpace(req.Email))
	username := strings.TrimSpace(req.Username)

	var existing models.User
	err := s.db.WithContext(ctx).Where("email = ?", email).Or("username = ?", username).First(&existing).Error
	if err == nil {
		if existing.Email == email {
			return nil, &ConflictError{Field: "email"}
		}
		return nil, &ConflictError{Field: "username"}
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("failed to check existing user: %w", err)
	}

	hashedPassword, err := bcrypt.GenerateFromPassword([]byte(req.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, fmt.Errorf("failed to hash password: %w", err)
	}

	user := models.User{
		Email:        email,
		Username:     username,
		FirstName:    strings.TrimSpace(req.FirstName),
		LastName:     strings.TrimSpace(req.LastName),
		PasswordHash: string(hashedPassword),
	}
	if err := s.db.WithContext(ctx).Create(&user).Error; err != nil {
		if isUniqueViolation(err) {
			// concurrent registration won; report the field from the message when possible
			if strings.Contains(strings.ToLower(err.Error()), "username") {
				return nil, &ConflictError{Field: "username"}
			}
			return nil, &ConflictError{Field: "email"}
		}
		return nil, fmt.Errorf("failed to create user: %w", err)
	}

	logging.L().Info().Uint("user_id", user.ID).Msg("user registered")
	v := userView(&user, false)
	return &v, nil
}

// Get returns a user as seen by viewerID (0 for anonymous).
func (s *UserService) Get(ctx context.Context, id, viewerID uint) (*types.UserView, error) {
	user, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}
	subscribed, err := s.relations.Subscriptions.TargetsOf(ctx, viewerID, []uint{user.ID})
	if err != nil {
		return nil, err
	}
	v := userView(user, subscribed[user.ID])
	return &v, nil
}

// List returns users ordered by username.
func (s *UserService) List(ctx context.Context, page types.Page, viewerID uint) (*types.PageResult[types.UserView], error) {
	page = page.Normalize()
	q := s.db.WithContext(ctx).Model(&models.User{})

	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count users: %w", err)
	}

	var users []models.User
	if err := q.Session(&gorm.Session{}).Order("username").Offset(page.Offset()).Limit(page.Limit).Find(&users).Error; err != nil {
		return nil, fmt.Errorf("failed to list users: %w", err)
	}

	ids := make([]uint, len(users))
	for i := range users {
		ids[i] = users[i].ID
	}
	subscribed, err := s.relations.Subscriptions.TargetsOf(ctx, viewerID, ids)
	if err != nil {
		return nil, err
	}

	views := make([]types.UserView, 0, len(users))
	for i := range users {
		views = append(views, userView(&users[i], subscribed[users[i].ID]))
	}
	return &types.PageResult[types.UserView]{Count: count, Results: views}, nil
}

// SetAvatar stores a new avatar and deletes the previous one.
func (s *UserService) SetAvatar(ctx context.Context, userID uint, dataURI string) (string, error) {
	user, err := s.load(ctx, userID)
	if err != nil {
		return "", err
	}
	img, err := storage.DecodeDataURI(dataURI)
	if err != nil {
		return "", &ValidationError{Field: "avatar", Message: err.Error()}
	}

	url, err := s.images.Save(ctx, avatarPrefix, img)
	if err != nil {
		return "", fmt.Errorf("failed to store avatar: %w", err)
	}
	// Update writes the new value back into user
	old := user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", url).Error; err != nil {
		s.discard(ctx, url)
		return "", fmt.Errorf("failed to update avatar: %w", err)
	}
	s.discard(ctx, old)
	return url, nil
}

// ClearAvatar removes the user's avatar.
func (s *UserService) ClearAvatar(ctx context.Context, userID uint) error {
	user, err := s.load(ctx, userID)
	if err != nil {
		return err
	}
	old := user.Avatar
	if err := s.db.WithContext(ctx).Model(user).Update("avatar", "").Error; err != nil {
		return fmt.Errorf("failed to clear avatar: %w", err)
	}
	s.discard(ctx, old)
	return nil
}

// Subscriptions lists the authors userID follows, ordered by username, each
// with up to recipesLimit recent recipes (UnlimitedRecipes for all).
func (s *UserService) Subscriptions(ctx context.Context, userID uint, page types.Page, recipesLimit int) (*types.PageResult[types.SubscriptionView], error) {
	page = page.Normalize()
	q := s.db.WithContext(ctx).Model(&models.User{}).
		Joins("JOIN subscriptions ON subscriptions.subscribed_to_id = users.id").
		Where("subscriptions.user_id = ?", userID)

	var count int64
	if err := q.Session(&gorm.Session{}).Count(&count).Error; err != nil {
		return nil, fmt.Errorf("failed to count subscriptions: %w", err)
	}

	var authors []models.User
	if err := q.Session(&gorm.Session{}).
		Select("users.*").
		Order("users.username").
		Offset(page.Offset()).
		Limit(page.Limit).
		Find(&authors).Error; err != nil {
		return nil, fmt.Errorf("failed to list subscriptions: %w", err)
	}

	views, err := subscriptionViews(ctx, s.db, authors, recipesLimit)
	if err != nil {
		return nil, err
	}
	return &types.PageResult[types.SubscriptionView]{Count: count, Results: views}, nil
}

func (s *UserService) load(ctx context.Context, id uint) (*models.User, error) {
	var user models.User
	if err := s.db.WithContext(ctx).First(&user, id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

func (s *UserService) discard(ctx context.Context, url string) {
	if url == "" {
		return
	}
	if err := s.images.Delete(ctx, url); err != nil {
		logging.L().Warn().Err(err).Str("image", url).Msg("failed to delete avatar")
	}
}
