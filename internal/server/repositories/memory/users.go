package memory

import (
	"context"
	"time"

	"github.com/dmitrijs2005/investsync/internal/common"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/users"
)

type UserRepository struct {
	s *Store
}

var _ users.Repository = (*UserRepository)(nil)

func NewUserRepository(s *Store) *UserRepository {
	return &UserRepository{s: s}
}

func (r *UserRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	if _, taken := r.s.emails[user.Email]; taken {
		return nil, common.ErrAlreadyExists
	}

	user.ID = r.s.newID()
	if user.Preferences == nil {
		user.Preferences = models.Preferences{}
	}
	r.s.users[user.ID] = copyUser(user)
	r.s.emails[user.Email] = user.ID

	return user, nil
}

func (r *UserRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(u), nil
}

func (r *UserRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	id, ok := r.s.emails[email]
	if !ok {
		return nil, common.ErrorNotFound
	}
	return copyUser(r.s.users[id]), nil
}

func (r *UserRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.LastLogin = &at
	return nil
}

func (r *UserRepository) MergePreferences(ctx context.Context, id string, set models.Preferences, unset []string) (models.Preferences, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return nil, common.ErrorNotFound
	}

	prefs := u.Preferences.Merge(set, unset)
	u.Preferences = prefs

	return prefs.Clone(), nil
}

func (r *UserRepository) ReplacePreferences(ctx context.Context, id string, prefs models.Preferences) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()

	u, ok := r.s.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	u.Preferences = prefs.Clone()
	return nil
}
