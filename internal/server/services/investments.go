package services

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/dbx"
	"github.com/dmitrijs2005/investsync/internal/logging"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/reconcile"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
)

type InvestmentService struct {
	repomanager repomanager.RepositoryManager
	log         logging.Logger
	now         Clock
}

func NewInvestmentService(m repomanager.RepositoryManager, log logging.Logger) *InvestmentService {
	return &InvestmentService{
		repomanager: m,
		log:         log.With("module", "investments"),
		now:         SystemClock,
	}
}

// ValidatePage applies the list bounds: limit in 1..MaxPageSize, offset >= 0.
func ValidatePage(page models.Page) error {
	if page.Limit < 1 || page.Limit > common.MaxPageSize {
		return fmt.Errorf("%w: limit must be between 1 and %d", common.ErrValidation, common.MaxPageSize)
	}
	if page.Offset < 0 {
		return fmt.Errorf("%w: offset must not be negative", common.ErrValidation)
	}
	return nil
}

func (s *InvestmentService) List(ctx context.Context, userID string, filter models.InvestmentFilter, page models.Page) ([]*models.Investment, models.Pagination, error) {
	if err := ValidatePage(page); err != nil {
		return nil, models.Pagination{}, err
	}

	repo := s.repomanager.Investments(s.repomanager.DB())

	items, err := repo.List(ctx, userID, filter, page)
	if err != nil {
		return nil, models.Pagination{}, err
	}
	total, err := repo.Count(ctx, userID, filter)
	if err != nil {
		return nil, models.Pagination{}, err
	}

	return items, models.NewPagination(total, page, len(items)), nil
}

// upsert reconciles one record against its natural key.
func (s *InvestmentService) upsert(ctx context.Context, db dbx.DBTX, userID string, in models.InvestmentInput) (string, reconcile.Outcome, error) {
	if err := in.Validate(); err != nil {
		return "", reconcile.Failed, err
	}

	inv := in.ToInvestment(userID)
	inv.UpdatedAt = s.now()

	id, created, err := s.repomanager.Investments(db).Upsert(ctx, inv)
	if err != nil {
		return "", reconcile.Failed, err
	}
	return id, reconcile.FromUpsert(created), nil
}

// Create reconciles a single record. isUpdate reports that an existing
// record with the same natural key was overwritten.
func (s *InvestmentService) Create(ctx context.Context, userID string, in models.InvestmentInput) (id string, isUpdate bool, err error) {
	id, outcome, err := s.upsert(ctx, s.repomanager.DB(), userID, in)
	if err != nil {
		return "", false, err
	}
	return id, outcome == reconcile.Updated, nil
}

// Bulk reconciles records one by one; see reconcile.Run for the failure policy.
func (s *InvestmentService) Bulk(ctx context.Context, userID string, records []models.InvestmentInput) (reconcile.Stats, error) {
	return s.reconcileAll(ctx, userID, records)
}

func (s *InvestmentService) reconcileAll(ctx context.Context, userID string, records []models.InvestmentInput) (reconcile.Stats, error) {
	db := s.repomanager.DB()
	stats, err := reconcile.Run(ctx, s.log, "investment", records,
		func(ctx context.Context, in models.InvestmentInput) (reconcile.Outcome, error) {
			_, outcome, err := s.upsert(ctx, db, userID, in)
			return outcome, err
		})
	s.log.Debug(ctx, "investments reconciled", "user_id", userID, "created", stats.Created, "updated", stats.Updated, "failed", stats.Failed)
	return stats, err
}

// Update patches the amounts of one record owned by userID.
func (s *InvestmentService) Update(ctx context.Context, userID, id string, patch models.InvestmentPatch) (*models.Investment, error) {
	if patch.IsEmpty() {
		return nil, fmt.Errorf("%w: no fields to update", common.ErrValidation)
	}

	var updated *models.Investment
	err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
		repo := s.repomanager.Investments(tx)

		inv, err := repo.Get(ctx, userID, id)
		if err != nil {
			return err
		}
		patch.Apply(inv)
		inv.UpdatedAt = s.now()

		if err := repo.UpdateAmounts(ctx, inv); err != nil {
			return err
		}
		updated = inv
		return nil
	})
	if err != nil {
		return nil, err
	}

	return updated, nil
}

func (s *InvestmentService) Delete(ctx context.Context, userID, id string) error {
	return s.repomanager.Investments(s.repomanager.DB()).Delete(ctx, userID, id)
}

func (s *InvestmentService) DeleteAll(ctx context.Context, userID string) (int64, error) {
	n, err := s.repomanager.Investments(s.repomanager.DB()).DeleteAll(ctx, userID)
	if err != nil {
		return 0, err
	}
	s.log.Info(ctx, "investments deleted", "user_id", userID, "count", n)
	return n, nil
}
