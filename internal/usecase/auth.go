package usecase

import (
	"context"
	"errors"
	"strings"

	domainErrors "github.com/polkiloo/paycore/internal/domain/errors"
	"github.com/polkiloo/paycore/internal/domain/model"
	"github.com/polkiloo/paycore/internal/domain/repository"
	pkgAuth "github.com/polkiloo/paycore/internal/pkg/auth"
)

const minPasswordLength = 6

// AuthUseCase registers callers and issues their bearer tokens.
type AuthUseCase struct {
	users  repository.UserRepository
	hasher pkgAuth.PasswordHasher
	tokens pkgAuth.Strategy
}

// NewAuthUseCase constructs AuthUseCase.
func NewAuthUseCase(users repository.UserRepository, hasher pkgAuth.PasswordHasher, strategy pkgAuth.Strategy) *AuthUseCase {
	return &AuthUseCase{users: users, hasher: hasher, tokens: strategy}
}

// Register creates a caller and returns a token for it.
func (u *AuthUseCase) Register(ctx context.Context, login, password string) (*model.User, string, error) {
	login = normalizeLogin(login)
	verr := domainErrors.NewValidationError("invalid registration")
	if login == "" {
		verr.Add("login", "is required")
	}
	if len(password) < minPasswordLength {
		verr.Add("password", "must be at least 6 characters")
	}
	if !verr.Empty() {
		return nil, "", verr
	}

	hash, err := u.hasher.Hash(password)
	if err != nil {
		return nil, "", err
	}

	usr, err := u.users.Create(ctx, login, hash)
	if err != nil {
		if errors.Is(err, domainErrors.ErrAlreadyExists) {
			return nil, "", domainErrors.ErrAlreadyExists
		}
		return nil, "", &domainErrors.PersistenceError{Op: "create user", Cause: err}
	}

	token, err := u.tokens.IssueToken(usr.ID)
	if err != nil {
		return nil, "", err
	}
	return usr, token, nil
}

// Authenticate checks credentials and returns a fresh token.
func (u *AuthUseCase) Authenticate(ctx context.Context, login, password string) (*model.User, string, error) {
	login = normalizeLogin(login)
	if login == "" || password == "" {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	usr, err := u.users.GetByLogin(ctx, login)
	if err != nil {
		if errors.Is(err, domainErrors.ErrNotFound) {
			return nil, "", domainErrors.ErrInvalidCredentials
		}
		return nil, "", &domainErrors.PersistenceError{Op: "load user", Cause: err}
	}

	if err := u.hasher.Compare(usr.PasswordHash, password); err != nil {
		return nil, "", domainErrors.ErrInvalidCredentials
	}

	token, err := u.tokens.IssueToken(usr.ID)
	if err != nil {
		return nil, "", err
	}
	return usr, token, nil
}

// ParseToken resolves a bearer token to the caller id.
func (u *AuthUseCase) ParseToken(token string) (int64, error) {
	if token == "" {
		return 0, &domainErrors.AuthError{Reason: pkgAuth.ErrInvalidToken}
	}
	id, err := u.tokens.ParseToken(token)
	if err != nil {
		return 0, &domainErrors.AuthError{Reason: err}
	}
	return id, nil
}

func normalizeLogin(login string) string {
	return strings.ToLower(strings.TrimSpace(login))
}
