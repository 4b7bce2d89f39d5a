package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
)

type PreferencesService struct {
	repomanager repomanager.RepositoryManager
}

func NewPreferencesService(m repomanager.RepositoryManager) *PreferencesService {
	return &PreferencesService{repomanager: m}
}

func (s *PreferencesService) Get(ctx context.Context, userID string) (models.Preferences, error) {
	user, err := s.repomanager.Users(s.repomanager.DB()).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return user.Preferences, nil
}

// Update shallow-merges patch into the stored preferences and returns the
// result. An empty patch returns the current preferences unchanged.
func (s *PreferencesService) Update(ctx context.Context, userID string, patch models.PreferencesPatch) (models.Preferences, error) {
	if len(patch.Fields) == 0 {
		return s.Get(ctx, userID)
	}

	set, unset, err := patch.Split()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrValidation, err)
	}

	return s.repomanager.Users(s.repomanager.DB()).MergePreferences(ctx, userID, set, unset)
}
