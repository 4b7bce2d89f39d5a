// Package memory is an in-process store used for development and tests. It
// enforces the same unique keys as the PostgreSQL schema; every operation
// runs under one mutex.
package memory

import (
	"sort"
	"sync"

	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/google/uuid"
)

type investmentKey struct {
	userID    string
	timestamp int64
	entidad   string
}

type siteKey struct {
	userID     string
	name       string
	urlPattern string
}

type Store struct {
	mu sync.Mutex

	users  map[string]*models.User
	emails map[string]string

	investments    map[string]*models.Investment
	investmentKeys map[investmentKey]string

	sites    map[string]*models.SiteConfig
	siteKeys map[siteKey]string

	newID func() string
}

func NewStore() *Store {
	return &Store{
		users:          map[string]*models.User{},
		emails:         map[string]string{},
		investments:    map[string]*models.Investment{},
		investmentKeys: map[investmentKey]string{},
		sites:          map[string]*models.SiteConfig{},
		siteKeys:       map[siteKey]string{},
		newID:          func() string { return uuid.NewString() },
	}
}

func keyOf(inv *models.Investment) investmentKey {
	return investmentKey{userID: inv.UserID, timestamp: inv.Timestamp, entidad: inv.Entidad}
}

func siteKeyOf(s *models.SiteConfig) siteKey {
	return siteKey{userID: s.UserID, name: s.Name, urlPattern: s.URLPattern}
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Preferences = u.Preferences.Clone()
	if u.DisplayName != nil {
		n := *u.DisplayName
		c.DisplayName = &n
	}
	if u.LastLogin != nil {
		t := *u.LastLogin
		c.LastLogin = &t
	}
	return &c
}

func copyInvestment(inv *models.Investment) *models.Investment {
	c := *inv
	return &c
}

func copySite(s *models.SiteConfig) *models.SiteConfig {
	c := *s
	if s.Selectors.ARS != nil {
		v := *s.Selectors.ARS
		c.Selectors.ARS = &v
	}
	if s.Selectors.USD != nil {
		v := *s.Selectors.USD
		c.Selectors.USD = &v
	}
	return &c
}

// sortByUpdatedDesc orders newest update first, id as tie-break.
func sortByUpdatedDesc[T any](items []T, updated func(T) int64, id func(T) string) {
	sort.Slice(items, func(i, j int) bool {
		ui, uj := updated(items[i]), updated(items[j])
		if ui != uj {
			return ui > uj
		}
		return id(items[i]) < id(items[j])
	})
}
