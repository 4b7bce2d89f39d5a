package services

import (
	"context"
	"testing"
	"time"

	"github.com/dmitrijs2005/investsync/internal/logging"
	"github.com/dmitrijs2005/investsync/internal/server/auth"
	"github.com/dmitrijs2005/investsync/internal/server/models"
	"github.com/dmitrijs2005/investsync/internal/server/repositories/repomanager"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

// fakeClock advances one millisecond per call.
type fakeClock struct {
	t time.Time
}

func (c *fakeClock) Now() time.Time {
	c.t = c.t.Add(time.Millisecond)
	return c.t
}

type testEnv struct {
	rm          repomanager.RepositoryManager
	clock       *fakeClock
	tokens      *auth.TokenIssuer
	users       *UserService
	identity    *IdentityResolver
	investments *InvestmentService
	sites       *SiteConfigService
	prefs       *PreferencesService
	sync        *SyncService
}

func newTestEnv(t *testing.T, archiver SnapshotArchiver) *testEnv {
	t.Helper()

	rm := repomanager.NewMemoryRepositoryManager()
	tokens, err := auth.NewTokenIssuer("test-secret", "HS256", time.Hour)
	require.NoError(t, err)
	log := logging.NewNop()
	clock := &fakeClock{t: time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)}

	env := &testEnv{
		rm:          rm,
		clock:       clock,
		tokens:      tokens,
		users:       NewUserService(rm, auth.NewPasswordHasher(bcrypt.MinCost), tokens, log),
		identity:    NewIdentityResolver(rm, tokens),
		investments: NewInvestmentService(rm, log),
		sites:       NewSiteConfigService(rm, log),
		prefs:       NewPreferencesService(rm),
	}
	env.sync = NewSyncService(rm, env.investments, env.sites, archiver, log)

	env.users.now = clock.Now
	env.investments.now = clock.Now
	env.sites.now = clock.Now
	env.sync.now = clock.Now

	return env
}

func (e *testEnv) register(t *testing.T, email string) *models.User {
	t.Helper()
	s, err := e.users.Register(context.Background(), email, "password123", nil)
	require.NoError(t, err)
	return s.User
}

func input(ts int64, entidad string, ars string) models.InvestmentInput {
	in := models.InvestmentInput{Timestamp: &ts, Entidad: entidad}
	if ars != "" {
		in.MontoARS = decimal.NewNullDecimal(decimal.RequireFromString(ars))
	}
	return in
}

func siteInput(name, pattern, investment string) models.SiteConfigInput {
	sel := ".saldo"
	return models.SiteConfigInput{
		Name:       name,
		URLPattern: pattern,
		Selectors:  &models.Selectors{ARS: &sel},
		Investment: investment,
	}
}
