// Package services contains the application services of the field client.
// This file defines the authentication service: the identity provider hands
// out a signed access token, the client extracts the user id from it and
// remembers both so the session survives restarts and offline periods.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/canvasser/internal/client/repositories/metadata"
	"github.com/dmitrijs2005/canvasser/internal/common"
	"github.com/dmitrijs2005/canvasser/internal/dbx"
	"github.com/golang-jwt/jwt/v5"
)

// TokenHolder receives the access token to send with remote calls.
type TokenHolder interface {
	SetAccessToken(token string)
}

// AuthService defines session operations for the CLI.
//
// Contract:
//   - Login: read the user id from token, persist the session, arm the client.
//   - Restore: reload the last session, if any.
//   - Logout: forget the session (annotations stay on disk, keyed by user).
type AuthService interface {
	Login(ctx context.Context, token string) (string, error)
	Restore(ctx context.Context) (string, error)
	Logout(ctx context.Context) error
}

// authService is the concrete AuthService backed by the local metadata table.
type authService struct {
	tokens TokenHolder
	db     *sql.DB
}

// NewAuthService constructs an AuthService bound to the given token holder and DB.
func NewAuthService(tokens TokenHolder, db *sql.DB) AuthService {
	return &authService{tokens: tokens, db: db}
}

func (a *authService) getMetadataRepo() metadata.Repository {
	return metadata.NewSQLiteRepository(a.db)
}

// UserIDFromToken extracts the user id claim ("UserID", falling back to "sub")
// without verifying the signature; the server does that on every call.
func UserIDFromToken(token string) (string, error) {
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(strings.TrimSpace(token), claims); err != nil {
		return "", fmt.Errorf("%w: %w", common.ErrInvalidToken, err)
	}
	for _, name := range []string{"UserID", "sub"} {
		if v, ok := claims[name].(string); ok && v != "" {
			return v, nil
		}
	}
	return "", fmt.Errorf("%w: no user id claim", common.ErrInvalidToken)
}

// Login stores the session in a single transaction and returns the user id.
func (a *authService) Login(ctx context.Context, token string) (string, error) {
	token = strings.TrimSpace(token)
	userID, err := UserIDFromToken(token)
	if err != nil {
		return "", err
	}

	err = dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Set(ctx, metadata.GlobalScope, metadata.KeyActiveUser, []byte(userID)); err != nil {
			return err
		}
		return repo.Set(ctx, metadata.GlobalScope, metadata.KeyAccessToken, []byte(token))
	})
	if err != nil {
		return "", fmt.Errorf("session saving error: %w", err)
	}

	a.tokens.SetAccessToken(token)
	return userID, nil
}

// Restore returns the saved user id and re-arms the client with the saved
// token. It returns common.ErrNoUser when no session was saved.
func (a *authService) Restore(ctx context.Context) (string, error) {
	repo := a.getMetadataRepo()

	user, err := repo.Get(ctx, metadata.GlobalScope, metadata.KeyActiveUser)
	if err != nil {
		return "", err
	}
	if len(user) == 0 {
		return "", common.ErrNoUser
	}
	token, err := repo.Get(ctx, metadata.GlobalScope, metadata.KeyAccessToken)
	if err != nil {
		return "", err
	}
	a.tokens.SetAccessToken(string(token))
	return string(user), nil
}

// Logout forgets the saved session.
func (a *authService) Logout(ctx context.Context) error {
	err := dbx.WithTx(ctx, a.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := metadata.NewSQLiteRepository(tx)
		if err := repo.Delete(ctx, metadata.GlobalScope, metadata.KeyActiveUser); err != nil {
			return err
		}
		return repo.Delete(ctx, metadata.GlobalScope, metadata.KeyAccessToken)
	})
	if err != nil {
		return err
	}
	a.tokens.SetAccessToken("")
	return nil
}
