package firebase

import (
	"context"
	"errors"
	"fmt"
	"os"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/auth"
	"go.uber.org/zap"
	"google.golang.org/api/option"
)

// ErrNotConfigured is returned when no credentials file is configured.
var ErrNotConfigured = errors.New("firebase credentials path not provided")

// Identity is what the auth handler needs from a verified ID token.
type Identity struct {
	UID           string
	Email         string
	EmailVerified bool
	Name          string
}

// TokenVerifier verifies Firebase ID tokens.
type TokenVerifier interface {
	Verify(ctx context.Context, idToken string) (*Identity, error)
}

// App holds the initialized Firebase auth client
type App struct {
	authClient *auth.Client
}

// InitFirebase initializes the Firebase application and authentication client.
func InitFirebase(ctx context.Context, credentialsPath string) (*App, error) {
	if credentialsPath == "" {
		return nil, ErrNotConfigured
	}

	if _, err := os.Stat(credentialsPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("firebase credentials file not found at %s", credentialsPath)
	}

	firebaseApp, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsPath))
	if err != nil {
		return nil, fmt.Errorf("error initializing firebase app: %w", err)
	}

	authClient, err := firebaseApp.Auth(ctx)
	if err != nil {
		return nil, fmt.Errorf("error getting firebase auth client: %w", err)
	}

	zap.L().Info("firebase auth client initialized")
	return &App{authClient: authClient}, nil
}

// Verify checks the ID token signature and expiry and extracts the identity claims.
func (a *App) Verify(ctx context.Context, idToken string) (*Identity, error) {
	token, err := a.authClient.VerifyIDToken(ctx, idToken)
	if err != nil {
		return nil, err
	}

	id := &Identity{UID: token.UID}
	if email, ok := token.Claims["email"].(string); ok {
		id.Email = email
	}
	if verified, ok := token.Claims["email_verified"].(bool); ok {
		id.EmailVerified = verified
	}
	if name, ok := token.Claims["name"].(string); ok {
		id.Name = name
	}
	return id, nil
}
