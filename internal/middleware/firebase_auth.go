package middleware

import (
	"context"
	"fmt"

	"firebase.google.com/go/v4/auth"

	"github.com/anonto42/memomap/backend/internal/models"
)

// TokenVerifier is satisfied by *auth.Client.
type TokenVerifier interface {
	VerifyIDToken(ctx context.Context, idToken string) (*auth.Token, error)
}

// UserResolver maps a verified Firebase identity to a local user.
type UserResolver interface {
	LoginFirebase(ctx context.Context, uid, email, name string) (*models.User, error)
}

// FirebaseAuthenticator verifies Firebase ID tokens and resolves the local
// user behind them.
type FirebaseAuthenticator struct {
	verifier TokenVerifier
	users    UserResolver
}

func NewFirebaseAuthenticator(verifier TokenVerifier, users UserResolver) *FirebaseAuthenticator {
	return &FirebaseAuthenticator{verifier: verifier, users: users}
}

// Identity verifies idToken and returns the uid, email and display name it carries.
func (a *FirebaseAuthenticator) Identity(ctx context.Context, idToken string) (uid, email, name string, err error) {
	token, err := a.verifier.VerifyIDToken(ctx, idToken)
	if err != nil {
		return "", "", "", fmt.Errorf("invalid or expired ID token: %w", err)
	}
	email, _ = token.Claims["email"].(string)
	name, _ = token.Claims["name"].(string)
	return token.UID, email, name, nil
}

// Claims verifies idToken and returns claims for the matching local user,
// creating or linking the user on first sight.
func (a *FirebaseAuthenticator) Claims(ctx context.Context, idToken string) (*models.JwtCustomClaims, error) {
	uid, email, name, err := a.Identity(ctx, idToken)
	if err != nil {
		return nil, err
	}
	user, err := a.users.LoginFirebase(ctx, uid, email, name)
	if err != nil {
		return nil, err
	}
	return &models.JwtCustomClaims{UserID: user.ID, Email: user.Email}, nil
}
