package configsites

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/dbx"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/google/uuid"
)

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

const siteColumns = `id, user_id, name, url_pattern, selectors, investment, created_at, updated_at`

func (r *PostgresRepository) Upsert(ctx context.Context, s *models.SiteConfig) (string, bool, error) {
	query :=
		`INSERT INTO config_sites (user_id, name, url_pattern, selectors, investment, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (user_id, name, url_pattern)
		 DO UPDATE SET selectors = EXCLUDED.selectors,
		               investment = EXCLUDED.investment,
		               updated_at = EXCLUDED.updated_at
		 RETURNING id, (xmax = 0) AS inserted`

	var (
		id      string
		created bool
	)
	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.Name, s.URLPattern, s.Selectors, s.Investment, s.UpdatedAt).Scan(&id, &created)
	if err != nil {
		return "", false, fmt.Errorf("db error: %w", err)
	}

	s.ID = id
	return id, created, nil
}

func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, s *models.SiteConfig) (string, bool, error) {
	query :=
		`INSERT INTO config_sites (user_id, name, url_pattern, selectors, investment, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (user_id, name, url_pattern) DO NOTHING
		 RETURNING id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		s.UserID, s.Name, s.URLPattern, s.Selectors, s.Investment, s.UpdatedAt).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("db error: %w", err)
	}

	s.ID = id
	return id, true, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.SiteConfig, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	row := r.db.QueryRowContext(ctx, `SELECT `+siteColumns+` FROM config_sites WHERE id = $1 AND user_id = $2`, id, userID)
	s, err := scanSite(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return s, nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.SiteConfig, error) {
	return r.query(ctx,
		`SELECT `+siteColumns+` FROM config_sites WHERE user_id = $1 ORDER BY created_at ASC, id ASC`, userID)
}

func (r *PostgresRepository) ListUpdatedSince(ctx context.Context, userID string, since *time.Time) ([]*models.SiteConfig, error) {
	if since == nil {
		return r.query(ctx,
			`SELECT `+siteColumns+` FROM config_sites WHERE user_id = $1 ORDER BY updated_at DESC, id ASC`, userID)
	}
	return r.query(ctx,
		`SELECT `+siteColumns+` FROM config_sites WHERE user_id = $1 AND updated_at >= $2 ORDER BY updated_at DESC, id ASC`,
		userID, *since)
}

func (r *PostgresRepository) Count(ctx context.Context, userID string) (int, error) {
	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM config_sites WHERE user_id = $1`, userID).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) Update(ctx context.Context, s *models.SiteConfig) error {
	if _, err := uuid.Parse(s.ID); err != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE config_sites
		 SET name = $3, url_pattern = $4, selectors = $5, investment = $6, updated_at = $7
		 WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query,
		s.ID, s.UserID, s.Name, s.URLPattern, s.Selectors, s.Investment, s.UpdatedAt)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return common.ErrAlreadyExists
		}
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM config_sites WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM config_sites WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.SiteConfig, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.SiteConfig{}
	for rows.Next() {
		s, err := scanSite(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanSite(s scanner) (*models.SiteConfig, error) {
	site := &models.SiteConfig{}
	err := s.Scan(&site.ID, &site.UserID, &site.Name, &site.URLPattern, &site.Selectors,
		&site.Investment, &site.CreatedAt, &site.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return site, nil
}
