package users

import (
	"context"
	"database/sql"
	"encoding/json"
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

const userColumns = `id, email, password_hash, display_name, preferences, created_at, last_login`

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query :=
		`INSERT INTO users (email, password_hash, display_name, preferences, created_at)
		 VALUES ($1, $2, $3, $4, $5)
		 RETURNING id`

	if user.Preferences == nil {
		user.Preferences = models.Preferences{}
	}

	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.PasswordHash, nullString(user.DisplayName), user.Preferences, user.CreatedAt).Scan(&user.ID)
	if err != nil {
		if dbx.IsUniqueViolation(err) {
			return nil, common.ErrAlreadyExists
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE email = $1`, email)
}

func (r *PostgresRepository) getOne(ctx context.Context, query string, arg any) (*models.User, error) {
	var (
		user        models.User
		displayName sql.NullString
		lastLogin   sql.NullTime
	)

	err := r.db.QueryRowContext(ctx, query, arg).Scan(
		&user.ID, &user.Email, &user.PasswordHash, &displayName, &user.Preferences, &user.CreatedAt, &lastLogin)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	if displayName.Valid {
		user.DisplayName = &displayName.String
	}
	if lastLogin.Valid {
		t := lastLogin.Time
		user.LastLogin = &t
	}

	return &user, nil
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	res, err := r.db.ExecContext(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
}

func (r *PostgresRepository) MergePreferences(ctx context.Context, id string, set models.Preferences, unset []string) (models.Preferences, error) {
	if _, err := uuid.Parse(id); err != nil {
		return nil, common.ErrorNotFound
	}

	setJSON, err := json.Marshal(set.Clone())
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}
	if unset == nil {
		unset = []string{}
	}
	unsetJSON, err := json.Marshal(unset)
	if err != nil {
		return nil, fmt.Errorf("encode preferences: %w", err)
	}

	query :=
		`UPDATE users
		 SET preferences = (COALESCE(preferences, '{}'::jsonb) || $2::jsonb)
		     - ARRAY(SELECT jsonb_array_elements_text($3::jsonb))
		 WHERE id = $1
		 RETURNING preferences`

	var prefs models.Preferences
	err = r.db.QueryRowContext(ctx, query, id, string(setJSON), string(unsetJSON)).Scan(&prefs)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}

	return prefs, nil
}

func (r *PostgresRepository) ReplacePreferences(ctx context.Context, id string, prefs models.Preferences) error {
	if _, err := uuid.Parse(id); err != nil {
		return common.ErrorNotFound
	}

	b, err := json.Marshal(prefs.Clone())
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}

	res, err := r.db.ExecContext(ctx, `UPDATE users SET preferences = $2::jsonb WHERE id = $1`, id, string(b))
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return expectOne(res)
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

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}
