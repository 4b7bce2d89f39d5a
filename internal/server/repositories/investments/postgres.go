package investments

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
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

const investmentColumns = `id, user_id, timestamp, entidad, monto_ars, monto_usd, created_at, updated_at`

func (r *PostgresRepository) Upsert(ctx context.Context, inv *models.Investment) (string, bool, error) {
	query :=
		`INSERT INTO investments (user_id, timestamp, entidad, monto_ars, monto_usd, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (user_id, timestamp, entidad)
		 DO UPDATE SET monto_ars = EXCLUDED.monto_ars,
		               monto_usd = EXCLUDED.monto_usd,
		               updated_at = EXCLUDED.updated_at
		 RETURNING id, (xmax = 0) AS inserted`

	var (
		id      string
		created bool
	)
	err := r.db.QueryRowContext(ctx, query,
		inv.UserID, inv.Timestamp, inv.Entidad, inv.MontoARS, inv.MontoUSD, inv.UpdatedAt).Scan(&id, &created)
	if err != nil {
		return "", false, fmt.Errorf("db error: %w", err)
	}

	inv.ID = id
	return id, created, nil
}

func (r *PostgresRepository) InsertIfAbsent(ctx context.Context, inv *models.Investment) (string, bool, error) {
	query :=
		`INSERT INTO investments (user_id, timestamp, entidad, monto_ars, monto_usd, created_at, updated_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $6)
		 ON CONFLICT (user_id, timestamp, entidad) DO NOTHING
		 RETURNING id`

	var id string
	err := r.db.QueryRowContext(ctx, query,
		inv.UserID, inv.Timestamp, inv.Entidad, inv.MontoARS, inv.MontoUSD, inv.UpdatedAt).Scan(&id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", false, nil
		}
		return "", false, fmt.Errorf("db error: %w", err)
	}

	inv.ID = id
	return id, true, nil
}

func (r *PostgresRepository) Get(ctx context.Context, userID, id string) (*models.Investment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	query := `SELECT ` + investmentColumns + ` FROM investments WHERE id = $1 AND user_id = $2`

	inv, err := scanInvestment(r.db.QueryRowContext(ctx, query, id, userID))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return inv, nil
}

// whereClause renders the filter starting at $1 = user id.
func whereClause(userID string, f models.InvestmentFilter) (string, []any) {
	conds := []string{"user_id = $1"}
	args := []any{userID}

	if f.Entity != "" {
		args = append(args, f.Entity)
		conds = append(conds, fmt.Sprintf("entidad = $%d", len(args)))
	}
	if f.DateFrom != nil {
		args = append(args, *f.DateFrom)
		conds = append(conds, fmt.Sprintf("timestamp >= $%d", len(args)))
	}
	if f.DateTo != nil {
		args = append(args, *f.DateTo)
		conds = append(conds, fmt.Sprintf("timestamp <= $%d", len(args)))
	}

	return " WHERE " + strings.Join(conds, " AND "), args
}

func (r *PostgresRepository) List(ctx context.Context, userID string, filter models.InvestmentFilter, page models.Page) ([]*models.Investment, error) {
	where, args := whereClause(userID, filter)

	query := `SELECT ` + investmentColumns + ` FROM investments` + where + ` ORDER BY timestamp DESC, id ASC`
	args = append(args, page.Limit)
	query += fmt.Sprintf(" LIMIT $%d", len(args))
	args = append(args, page.Offset)
	query += fmt.Sprintf(" OFFSET $%d", len(args))

	return r.query(ctx, query, args...)
}

func (r *PostgresRepository) Count(ctx context.Context, userID string, filter models.InvestmentFilter) (int, error) {
	where, args := whereClause(userID, filter)

	var n int
	if err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM investments`+where, args...).Scan(&n); err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) ListUpdatedSince(ctx context.Context, userID string, since *time.Time) ([]*models.Investment, error) {
	if since == nil {
		return r.query(ctx,
			`SELECT `+investmentColumns+` FROM investments WHERE user_id = $1 ORDER BY updated_at DESC, id ASC`, userID)
	}
	return r.query(ctx,
		`SELECT `+investmentColumns+` FROM investments WHERE user_id = $1 AND updated_at >= $2 ORDER BY updated_at DESC, id ASC`,
		userID, *since)
}

func (r *PostgresRepository) UpdateAmounts(ctx context.Context, inv *models.Investment) error {
	if _, err := uuid.Parse(inv.ID); err != nil {
		return common.ErrorNotFound
	}

	query :=
		`UPDATE investments
		 SET monto_ars = $3, monto_usd = $4, updated_at = $5
		 WHERE id = $1 AND user_id = $2`

	res, err := r.db.ExecContext(ctx, query, inv.ID, inv.UserID, inv.MontoARS, inv.MontoUSD, inv.UpdatedAt)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, id string) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `DELETE FROM investments WHERE id = $1 AND user_id = $2`, id, userID)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) DeleteAll(ctx context.Context, userID string) (int64, error) {
	res, err := r.db.ExecContext(ctx, `DELETE FROM investments WHERE user_id = $1`, userID)
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("db error: %w", err)
	}
	return n, nil
}

func (r *PostgresRepository) LastUpdated(ctx context.Context, userID string) (*time.Time, error) {
	var last sql.NullTime
	err := r.db.QueryRowContext(ctx, `SELECT MAX(updated_at) FROM investments WHERE user_id = $1`, userID).Scan(&last)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	if !last.Valid {
		return nil, nil
	}
	t := last.Time
	return &t, nil
}

func (r *PostgresRepository) query(ctx context.Context, query string, args ...any) ([]*models.Investment, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	result := []*models.Investment{}
	for rows.Next() {
		inv, err := scanInvestment(rows)
		if err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, inv)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}

	return result, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanInvestment(s scanner) (*models.Investment, error) {
	inv := &models.Investment{}
	err := s.Scan(&inv.ID, &inv.UserID, &inv.Timestamp, &inv.Entidad,
		&inv.MontoARS, &inv.MontoUSD, &inv.CreatedAt, &inv.UpdatedAt)
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func expectOne(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}
