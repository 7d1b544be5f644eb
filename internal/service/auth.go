package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"strings"

	"carsapp-api/internal/model"
	"carsapp-api/internal/repository"
)

// RegisterInput is the data needed to create an account.
type RegisterInput struct {
	FirstName   string
	LastName    string
	Email       string
	PhoneNumber int64
	Username    string
	Password    string
}

// AuthService handles registration, login, logout and profile lookups.
type AuthService struct {
	users       repository.UserRepository
	tokens      *TokenService
	revocations *RevocationList
	hasher      PasswordHasher
}

// NewAuthService creates a new auth service.
func NewAuthService(
	users repository.UserRepository,
	tokens *TokenService,
	revocations *RevocationList,
	hasher PasswordHasher,
) *AuthService {
	return &AuthService{
		users:       users,
		tokens:      tokens,
		revocations: revocations,
		hasher:      hasher,
	}
}

// Register creates a user and issues a token for it.
func (s *AuthService) Register(ctx context.Context, in RegisterInput) (*model.User, string, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return nil, "", fmt.Errorf("%w: email and password are required", ErrInvalidInput)
	}

	_, err := s.users.FindByEmail(ctx, email)
	switch {
	case err == nil:
		return nil, "", ErrUserExists
	case !errors.Is(err, repository.ErrNotFound):
		return nil, "", fmt.Errorf("%w: find user: %w", ErrInternal, err)
	}

	stored, err := s.hasher.Hash(in.Password)
	if errors.Is(err, ErrInvalidInput) {
		return nil, "", err
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: hash password: %w", ErrInternal, err)
	}

	user := &model.User{
		FirstName:    in.FirstName,
		LastName:     in.LastName,
		Email:        email,
		PhoneNumber:  in.PhoneNumber,
		Username:     in.Username,
		Password:     stored,
		SellingCars:  []string{},
		FavoriteCars: []string{},
	}
	if err := s.users.Create(ctx, user); err != nil {
		if errors.Is(err, repository.ErrDuplicate) {
			return nil, "", ErrUserExists
		}
		return nil, "", fmt.Errorf("%w: create user: %w", ErrInternal, err)
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}

	log.Printf("[AuthService] Registered user_id=%s", user.ID)
	return user, token, nil
}

// Login checks credentials and issues a token. Unknown email and wrong
// password are both ErrInvalidCredentials.
func (s *AuthService) Login(ctx context.Context, email, password string) (*model.User, string, error) {
	user, err := s.users.FindByEmail(ctx, strings.TrimSpace(email))
	if errors.Is(err, repository.ErrNotFound) {
		return nil, "", ErrInvalidCredentials
	}
	if err != nil {
		return nil, "", fmt.Errorf("%w: find user: %w", ErrInternal, err)
	}

	if !s.hasher.Compare(user.Password, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.Issue(user.ID)
	if err != nil {
		return nil, "", err
	}
	return user, token, nil
}

// Logout revokes token. See RevocationList.Revoke for the error contract.
func (s *AuthService) Logout(ctx context.Context, token string) error {
	return s.revocations.Revoke(ctx, token)
}

// Profile returns the user behind the identity.
func (s *AuthService) Profile(ctx context.Context, id model.Identity) (*model.User, error) {
	return findUser(ctx, s.users, id.UserID)
}

// ListUsers returns every user.
func (s *AuthService) ListUsers(ctx context.Context) ([]*model.User, error) {
	users, err := s.users.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("%w: list users: %w", ErrInternal, err)
	}
	return users, nil
}

func findUser(ctx context.Context, users repository.UserRepository, id string) (*model.User, error) {
	user, err := users.FindByID(ctx, id)
	if errors.Is(err, repository.ErrNotFound) {
		return nil, ErrUserNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("%w: find user: %w", ErrInternal, err)
	}
	return user, nil
}
