package test

import (
	"context"
	"fmt"
	"strings"

	pkgAuth "github.com/polkiloo/paycore/internal/pkg/auth"
)

const hashPrefix = "hash:"

var (
	_ pkgAuth.PasswordHasher = HasherStub{}
	_ pkgAuth.Strategy       = StrategyStub{}
)

// HasherStub stores passwords as "hash:<password>" unless overridden.
type HasherStub struct {
	HashFn    func(string) (string, error)
	CompareFn func(string, string) error
}

func (h HasherStub) Hash(password string) (string, error) {
	if h.HashFn != nil {
		return h.HashFn(password)
	}
	return hashPrefix + password, nil
}

func (h HasherStub) Compare(hash, password string) error {
	if h.CompareFn != nil {
		return h.CompareFn(hash, password)
	}
	if !strings.HasPrefix(hash, hashPrefix) || hash[len(hashPrefix):] != password {
		return pkgAuth.ErrPasswordMismatch
	}
	return nil
}

// Token renders the token StrategyStub issues for userID by default.
func Token(userID int64) string {
	return fmt.Sprintf("token-%d", userID)
}

// StrategyStub issues "token-<id>" tokens and parses them back.
type StrategyStub struct {
	IssueFn func(int64) (string, error)
	ParseFn func(string) (int64, error)
}

func (s StrategyStub) IssueToken(userID int64) (string, error) {
	if s.IssueFn != nil {
		return s.IssueFn(userID)
	}
	return Token(userID), nil
}

func (s StrategyStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	var id int64
	if _, err := fmt.Sscanf(token, "token-%d", &id); err != nil || id <= 0 {
		return 0, pkgAuth.ErrInvalidToken
	}
	return id, nil
}

func (s StrategyStub) Name() string { return "stub" }

// TokenParserStub returns ID or Err for every token.
type TokenParserStub struct {
	ID  int64
	Err error
}

func (s TokenParserStub) ParseToken(string) (int64, error) {
	if s.Err != nil {
		return 0, s.Err
	}
	return s.ID, nil
}

// AuthFacadeStub backs the auth handler; it issues Token(1) by default.
type AuthFacadeStub struct {
	RegisterFn     func(context.Context, string, string) (string, error)
	AuthenticateFn func(context.Context, string, string) (string, error)
	ParseFn        func(string) (int64, error)
}

func (s AuthFacadeStub) Register(ctx context.Context, login, password string) (string, error) {
	if s.RegisterFn != nil {
		return s.RegisterFn(ctx, login, password)
	}
	return Token(1), nil
}

func (s AuthFacadeStub) Authenticate(ctx context.Context, login, password string) (string, error) {
	if s.AuthenticateFn != nil {
		return s.AuthenticateFn(ctx, login, password)
	}
	return Token(1), nil
}

func (s AuthFacadeStub) ParseToken(token string) (int64, error) {
	if s.ParseFn != nil {
		return s.ParseFn(token)
	}
	return StrategyStub{}.ParseToken(token)
}
