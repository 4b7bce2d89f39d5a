package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/dbx"
	"github.com/dmitrijs2005/investsync/internal/logging"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/reconcile"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
)

type SiteConfigService struct {
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         Clock
}

func NewSiteConfigService(m repomanager.RepositoryManager, log logging.Logger) *SiteConfigService {
	return &SiteConfigService{
		repomanager: m,
		log:         log.With("module", "configsites"),
		now:         SystemClock,
	}
}

func (s *SiteConfigService) List(ctx context.Context, userID string) ([]*models.SiteConfig, error) {
	return s.repomanager.ConfigSites(s.repomanager.DB()).List(ctx, userID)
}

func (s *SiteConfigService) upsert(ctx context.Context, db dbx.DBTX, userID string, in models.SiteConfigInput) (*models.SiteConfig, reconcile.Outcome, error) {
	if err := in.Validate(); err != nil {
		return nil, reconcile.Failed, err
	}

	site := in.ToSiteConfig(userID)
	site.UpdatedAt = s.now()

	_, created, err := s.repomanager.ConfigSites(db).Upsert(ctx, site)
	if err != nil {
		return nil, reconcile.Failed, err
	}
	return site, reconcile.FromUpsert(created), nil
}

// Create reconciles a site config by (name, urlPattern) and returns the
// stored row.
func (s *SiteConfigService) Create(ctx context.Context, userID string, in models.SiteConfigInput) (*models.SiteConfig, bool, error) {
	site, outcome, err := s.upsert(ctx, s.repomanager.DB(), userID, in)
	if err != nil {
		return nil, false, err
	}

	stored, err := s.repomanager.ConfigSites(s.repomanager.DB()).Get(ctx, userID, site.ID)
	if err != nil {
		return nil, false, err
	}
	return stored, outcome == reconcile.Updated, nil
}

func (s *SiteConfigService) reconcileAll(ctx context.Context, userID string, inputs []models.SiteConfigInput) (reconcile.Stats, error) {
	db := s.repomanager.DB()
	return reconcile.Run(ctx, s.log, "config_site", inputs,
		func(ctx context.Context, in models.SiteConfigInput) (reconcile.Outcome, error) {
			_, outcome, err := s.upsert(ctx, db, userID, in)
			return outcome, err
		})
}

func validateSitePatch(p models.SiteConfigPatch) error {
	if p.IsEmpty() {
		return fmt.Errorf("%w: no fields to update", common.ErrValidation)
	}
	for field, v := range map[string]*string{"name": p.Name, "urlPattern": p.URLPattern, "investment": p.Investment} {
		if v != nil && strings.TrimSpace(*v) == "" {
			return fmt.Errorf("%w: %s must not be empty", common.ErrValidation, field)
		}
	}
	return nil
}

// Update patches one config owned by userID. Renaming onto an existing
// natural key fails with common.ErrAlreadyExists.
func (s *SiteConfigService) Update(ctx context.Context, userID, id string, patch models.SiteConfigPatch) (*models.SiteConfig, error) {
	if err := validateSitePatch(patch); err != nil {
		return nil, err
	}

	var updated *models.SiteConfig
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.ConfigSites(tx)

		site, err := repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		patch.Apply(site)
		site.UpdatedAt = s.now()

		if err := repo.Update(ctx, site); err != nil {
			return err
		}
		updated = site
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *SiteConfigService) Delete(ctx context.Context, userID, id string) error {
	return s.repomanager.ConfigSites(s.repomanager.DB()).Delete(ctx, userID, id)
}
