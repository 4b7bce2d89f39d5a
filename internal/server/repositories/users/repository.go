// Package users persists accounts and their preferences.
package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/investsync/internal/server/models"
)

type Repository interface {
	// Create inserts a user and fills in its ID. A taken email yields
	// common.ErrAlreadyExists.
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	// MergePreferences sets and removes top-level keys and returns the result.
	MergePreferences(ctx context.Context, id string, set models.Preferences, unset []string) (models.Preferences, error)
	ReplacePreferences(ctx context.Context, id string, prefs models.Preferences) error
}
