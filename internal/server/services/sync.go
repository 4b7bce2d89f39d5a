package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/dbx"
	"github.com/dmitrijs2005/investsync/internal/logging"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/reconcile"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/investsync/internal/timex"
)

const (
	ExportVersion = "1.0"

	ImportModeMerge   = "merge"
	ImportModeReplace = "replace"
)

// SnapshotArchiver stores an export snapshot and returns a download URL.
type SnapshotArchiver interface {
	Archive(ctx context.Context, userID string, snapshot []byte) (string, error)
}

type SyncStatus struct {
	LastSync    *string `json:"lastSync"`
	RecordCount int     `json:"recordCount"`
	ConfigCount int     `json:"configCount"`
}

// PullResult carries everything changed since the requested instant.
// Deletions are not tracked, so both deleted lists are always empty.
type PullResult struct {
	Investments        []*models.Investment `json:"investments"`
	ConfigSites        []*models.SiteConfig `json:"configSites"`
	Preferences        models.Preferences   `json:"preferences"`
	DeletedInvestments []string             `json:"deletedInvestments"`
	DeletedConfigSites []string             `json:"deletedConfigSites"`
}

type PushRequest struct {
	Investments     []models.InvestmentInput `json:"investments"`
	ConfigSites     []models.SiteConfigInput `json:"configSites"`
	Preferences     models.Preferences       `json:"preferences"`
	ClientTimestamp string                   `json:"clientTimestamp"`
}

type BatchResult struct {
	Investments reconcile.Stats `json:"investments"`
	ConfigSites reconcile.Stats `json:"configSites"`
}

// Totals sums both record kinds.
func (r BatchResult) Totals() reconcile.Stats {
	var total reconcile.Stats
	total.Add(r.Investments)
	total.Add(r.ConfigSites)
	return total
}

type ExportUser struct {
	Email string `json:"email"`
}

type ExportData struct {
	Investments []*models.Investment `json:"investments"`
	ConfigSites []*models.SiteConfig `json:"configSites"`
	Preferences models.Preferences   `json:"preferences"`
}

type ExportSnapshot struct {
	Version    string     `json:"version"`
	ExportDate string     `json:"exportDate"`
	User       ExportUser `json:"user"`
	Data       ExportData `json:"data"`
	ArchiveURL string     `json:"archiveUrl,omitempty"`
}

// ImportData mirrors ExportData on input. Client identity fields (id, _id,
// user_id) are not part of the input shapes and are dropped on decode.
type ImportData struct {
	Investments []models.InvestmentInput `json:"investments"`
	ConfigSites []models.SiteConfigInput `json:"configSites"`
	Preferences models.Preferences       `json:"preferences"`
}

type ImportRequest struct {
	Data ImportData `json:"data"`
	Mode string     `json:"mode"`
}

type SyncService struct {
	repomanager repomanager.RepositoryManager
	investments *InvestmentService
	sites       *SiteConfigService
	archiver    SnapshotArchiver
	log         logging.Logger
	now         Clock
}

// NewSyncService wires the orchestrator. archiver may be nil, which disables
// archived exports.
func NewSyncService(m repomanager.RepositoryManager, investments *InvestmentService, sites *SiteConfigService, archiver SnapshotArchiver, log logging.Logger) *SyncService {
	return &SyncService{
		repomanager: m,
		investments: investments,
		sites:       sites,
		archiver:    archiver,
		log:         log.With("module", "sync"),
		now:         SystemClock,
	}
}

// Now is the server timestamp attached to sync responses.
func (s *SyncService) Now() time.Time {
	return s.now()
}

func (s *SyncService) Status(ctx context.Context, userID string) (*SyncStatus, error) {
	db := s.repomanager.DB()
	invRepo := s.repomanager.Investments(db)

	records, err := invRepo.Count(ctx, userID, models.InvestmentFilter{})
	if err != nil {
		return nil, err
	}
	configs, err := s.repomanager.ConfigSites(db).Count(ctx, userID)
	if err != nil {
		return nil, err
	}
	last, err := invRepo.LastUpdated(ctx, userID)
	if err != nil {
		return nil, err
	}

	status := &SyncStatus{RecordCount: records, ConfigCount: configs}
	if last != nil {
		iso := timex.ISO(*last)
		status.LastSync = &iso
	}
	return status, nil
}

// Pull returns records with updated_at >= since (epoch millis), or all
// records when since is nil, newest update first.
func (s *SyncService) Pull(ctx context.Context, user *models.User, since *int64) (*PullResult, error) {
	var sinceTime *time.Time
	if since != nil {
		t := timex.FromMillis(*since)
		sinceTime = &t
	}

	db := s.repomanager.DB()

	invs, err := s.repomanager.Investments(db).ListUpdatedSince(ctx, user.ID, sinceTime)
	if err != nil {
		return nil, err
	}
	sites, err := s.repomanager.ConfigSites(db).ListUpdatedSince(ctx, user.ID, sinceTime)
	if err != nil {
		return nil, err
	}

	prefs := user.Preferences
	if prefs == nil {
		prefs = models.Preferences{}
	}

	return &PullResult{
		Investments:        invs,
		ConfigSites:        sites,
		Preferences:        prefs,
		DeletedInvestments: []string{},
		DeletedConfigSites: []string{},
	}, nil
}

// Push upserts every pushed record (last write wins) and, when preferences
// are present, replaces them wholesale.
func (s *SyncService) Push(ctx context.Context, userID string, req PushRequest) (*BatchResult, error) {
	if strings.TrimSpace(req.ClientTimestamp) == "" {
		return nil, fmt.Errorf("%w: clientTimestamp is required", common.ErrValidation)
	}

	var (
		result BatchResult
		err    error
	)

	result.Investments, err = s.investments.reconcileAll(ctx, userID, req.Investments)
	if err != nil {
		return nil, err
	}
	result.ConfigSites, err = s.sites.reconcileAll(ctx, userID, req.ConfigSites)
	if err != nil {
		return nil, err
	}

	if req.Preferences != nil {
		if err := s.repomanager.Users(s.repomanager.DB()).ReplacePreferences(ctx, userID, req.Preferences); err != nil {
			return nil, err
		}
	}

	s.log.Info(ctx, "push applied", "user_id", userID, "client_timestamp", req.ClientTimestamp,
		"investments_created", result.Investments.Created, "investments_updated", result.Investments.Updated,
		"sites_created", result.ConfigSites.Created, "sites_updated", result.ConfigSites.Updated)

	return &result, nil
}

// Export snapshots every record of the user. With archive set, the snapshot
// is also uploaded and ArchiveURL points at it.
func (s *SyncService) Export(ctx context.Context, user *models.User, archive bool) (*ExportSnapshot, error) {
	if archive && s.archiver == nil {
		return nil, fmt.Errorf("%w: export archiving is not configured", common.ErrValidation)
	}

	db := s.repomanager.DB()

	invs, err := s.repomanager.Investments(db).ListUpdatedSince(ctx, user.ID, nil)
	if err != nil {
		return nil, err
	}
	sort.SliceStable(invs, func(i, j int) bool {
		if invs[i].Timestamp != invs[j].Timestamp {
			return invs[i].Timestamp > invs[j].Timestamp
		}
		return invs[i].ID < invs[j].ID
	})

	sites, err := s.repomanager.ConfigSites(db).List(ctx, user.ID)
	if err != nil {
		return nil, err
	}

	prefs := user.Preferences
	if prefs == nil {
		prefs = models.Preferences{}
	}

	snapshot := &ExportSnapshot{
		Version:    ExportVersion,
		ExportDate: timex.ISO(s.now()),
		User:       ExportUser{Email: user.Email},
		Data: ExportData{
			Investments: invs,
			ConfigSites: sites,
			Preferences: prefs,
		},
	}

	if archive {
		body, err := json.Marshal(snapshot)
		if err != nil {
			return nil, fmt.Errorf("encode snapshot: %w", err)
		}
		url, err := s.archiver.Archive(ctx, user.ID, body)
		if err != nil {
			return nil, fmt.Errorf("archive snapshot: %w", err)
		}
		snapshot.ArchiveURL = url
	}

	return snapshot, nil
}

// Import loads a snapshot. In merge mode records whose natural key already
// exists are skipped. In replace mode the user's investments and site
// configs are deleted in one transaction first; duplicates inside the
// payload are then skipped as well. Preferences, when present, replace the
// stored ones.
func (s *SyncService) Import(ctx context.Context, userID string, req ImportRequest) (*BatchResult, error) {
	mode := req.Mode
	if mode == "" {
		mode = ImportModeMerge
	}
	if mode != ImportModeMerge && mode != ImportModeReplace {
		return nil, fmt.Errorf("%w: unknown import mode %q", common.ErrValidation, req.Mode)
	}

	if mode == ImportModeReplace {
		err := s.repomanager.WithTx(ctx, func(ctx context.Context, tx dbx.DBTX) error {
			if _, err := s.repomanager.Investments(tx).DeleteAll(ctx, userID); err != nil {
				return err
			}
			_, err := s.repomanager.ConfigSites(tx).DeleteAll(ctx, userID)
			return err
		})
		if err != nil {
			return nil, err
		}
	}

	db := s.repomanager.DB()
	now := s.now()

	var (
		result BatchResult
		err    error
	)

	result.Investments, err = reconcile.Run(ctx, s.log, "import_investment", req.Data.Investments,
		func(ctx context.Context, in models.InvestmentInput) (reconcile.Outcome, error) {
			if err := in.Validate(); err != nil {
				return reconcile.Failed, err
			}
			inv := in.ToInvestment(userID)
			inv.UpdatedAt = now
			_, inserted, err := s.repomanager.Investments(db).InsertIfAbsent(ctx, inv)
			if err != nil {
				return reconcile.Failed, err
			}
			return reconcile.FromInsert(inserted), nil
		})
	if err != nil {
		return nil, err
	}

	result.ConfigSites, err = reconcile.Run(ctx, s.log, "import_config_site", req.Data.ConfigSites,
		func(ctx context.Context, in models.SiteConfigInput) (reconcile.Outcome, error) {
			if err := in.Validate(); err != nil {
				return reconcile.Failed, err
			}
			site := in.ToSiteConfig(userID)
			site.UpdatedAt = now
			_, inserted, err := s.repomanager.ConfigSites(db).InsertIfAbsent(ctx, site)
			if err != nil {
				return reconcile.Failed, err
			}
			return reconcile.FromInsert(inserted), nil
		})
	if err != nil {
		return nil, err
	}

	if req.Data.Preferences != nil {
		if err := s.repomanager.Users(db).ReplacePreferences(ctx, userID, req.Data.Preferences); err != nil {
			return nil, err
		}
	}

	s.log.Info(ctx, "import applied", "user_id", userID, "mode", mode,
		"investments_created", result.Investments.Created, "investments_skipped", result.Investments.Skipped,
		"sites_created", result.ConfigSites.Created, "sites_skipped", result.ConfigSites.Skipped)

	return &result, nil
}
