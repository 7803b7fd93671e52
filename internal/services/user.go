package services

import (
	"context"
	"errors"
	"strings"

	"github.com/bloghub/apiserver/internal/gravatar"
	"github.com/bloghub/apiserver/internal/store"
	"github.com/bloghub/apiserver/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"golang.org/x/crypto/bcrypt"
)

// UserRepository defines persistence operations for users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (types.User, error)
	GetByUsername(ctx context.Context, username string) (types.User, error)
	GetByUsernameOrEmail(ctx context.Context, username, email string) (types.User, error)
	List(ctx context.Context, limit int64) ([]types.User, error)
	ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]types.User, error)
	Create(ctx context.Context, user types.User) (types.User, error)
}

// UserService encapsulates account use-cases.
type UserService struct {
	repo UserRepository
}

func NewUserService(repo UserRepository) *UserService {
	return &UserService{repo: repo}
}

func (s *UserService) GetByID(ctx context.Context, id string) (types.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByUsername(ctx context.Context, username string) (types.User, error) {
	return s.repo.GetByUsername(ctx, username)
}

func (s *UserService) List(ctx context.Context) ([]types.User, error) {
	return s.repo.List(ctx, maxListLimit)
}

func (s *UserService) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]types.User, error) {
	return s.repo.ListByIDs(ctx, ids)
}

// SignUp creates an account. The email is normalized to lowercase and the
// password stored only as a bcrypt hash.
func (s *UserService) SignUp(ctx context.Context, username, email, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if username == "" || email == "" || password == "" {
		return types.User{}, ErrInvalidInput
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, err
	}

	return s.repo.Create(ctx, types.User{
		Username:     username,
		Email:        email,
		Avatar:       gravatar.URL(email),
		PasswordHash: string(hashed),
	})
}

// Authenticate verifies a username-or-email plus password pair.
func (s *UserService) Authenticate(ctx context.Context, username, email, password string) (types.User, error) {
	username = strings.TrimSpace(username)
	email = strings.ToLower(strings.TrimSpace(email))
	if (username == "" && email == "") || password == "" {
		return types.User{}, ErrInvalidInput
	}

	user, err := s.repo.GetByUsernameOrEmail(ctx, username, email)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return types.User{}, ErrInvalidCredentials
		}
		return types.User{}, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte(password)); err != nil {
		return types.User{}, ErrInvalidCredentials
	}

	return user, nil
}
