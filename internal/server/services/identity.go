package services

import (
	"context"
	"errors"
	"fmt"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/auth"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
)

// IdentityResolver turns a bearer token into the current user. It re-reads
// the user on every call.
type IdentityResolver struct {
	repomanager repomanager.RepositoryManager
	tokens      *auth.TokenIssuer
}

func NewIdentityResolver(m repomanager.RepositoryManager, tokens *auth.TokenIssuer) *IdentityResolver {
	return &IdentityResolver{repomanager: m, tokens: tokens}
}

// Resolve fails with common.ErrInvalidToken, common.ErrTokenMissingSubject
// or common.ErrUserNotFound.
func (r *IdentityResolver) Resolve(ctx context.Context, token string) (*models.User, error) {
	claims, err := r.tokens.Validate(token)
	if err != nil {
		return nil, common.ErrInvalidToken
	}
	if claims.UserID == "" {
		return nil, common.ErrTokenMissingSubject
	}

	user, err := r.repomanager.Users(r.repomanager.DB()).GetByID(ctx, claims.UserID)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, common.ErrUserNotFound
		}
		return nil, fmt.Errorf("error loading user: %w", err)
	}

	return user, nil
}
