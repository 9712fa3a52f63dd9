package guard

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/jonboulle/clockwork"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jivas-io/jvmanager/internal/models"
	"github.com/jivas-io/jvmanager/internal/sessions"
)

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

func newGuard(t *testing.T, values map[string]string) (*Guard, *sessions.MemoryStore) {
	t.Helper()
	store := sessions.NewMemoryStore()
	for k, v := range values {
		require.NoError(t, store.Set(k, v))
	}
	return New(store, WithClock(clockwork.NewFakeClockAt(fixedNow))), store
}

func expiryAt(offset time.Duration) string {
	return models.FormatExpiry(fixedNow.Add(offset))
}

func TestCheck_NoToken(t *testing.T) {
	paths := []string{"/", "/dashboard", "/actions", "/graph", "/login/extra"}

	for _, path := range paths {
		t.Run(path, func(t *testing.T) {
			g, _ := newGuard(t, nil)
			outcome := g.Check(path)
			assert.Equal(t, Redirect, outcome.Decision)
			assert.Equal(t, "/login", outcome.Location)
			assert.Equal(t, ReasonUnauthenticated, outcome.Reason)
		})
	}

	t.Run("login path", func(t *testing.T) {
		g, _ := newGuard(t, nil)
		outcome := g.Check("/login")
		assert.True(t, outcome.Proceeds())
		assert.Empty(t, outcome.Location)
	})

	t.Run("expiry without token", func(t *testing.T) {
		g, _ := newGuard(t, map[string]string{models.ExpiryKey: expiryAt(time.Hour)})
		assert.Equal(t, Redirect, g.Check("/dashboard").Decision)
	})
}

func TestCheck_TokenWithoutExpiry(t *testing.T) {
	for _, path := range []string{"/", "/dashboard", "/login"} {
		g, store := newGuard(t, map[string]string{models.TokenKey: "t1"})
		outcome := g.Check(path)
		assert.True(t, outcome.Proceeds(), path)
		assert.Equal(t, ReasonNoExpiry, outcome.Reason)

		token, ok := store.Get(models.TokenKey)
		assert.True(t, ok)
		assert.Equal(t, "t1", token)
	}
}

func TestCheck_MalformedExpiryIsValid(t *testing.T) {
	g, store := newGuard(t, map[string]string{
		models.TokenKey:  "t1",
		models.ExpiryKey: "not-a-number",
	})

	outcome := g.Check("/dashboard")
	assert.True(t, outcome.Proceeds())
	assert.Equal(t, ReasonNoExpiry, outcome.Reason)
	assert.Len(t, store.Snapshot(), 2)
}

func TestCheck_Expired(t *testing.T) {
	for _, offset := range []time.Duration{-time.Millisecond, -1000 * time.Millisecond, -24 * time.Hour} {
		g, store := newGuard(t, map[string]string{
			models.TokenKey:  "t1",
			models.ExpiryKey: expiryAt(offset),
			models.HostKey:   "http://localhost:8000",
		})

		outcome := g.Check("/dashboard")
		assert.Equal(t, Redirect, outcome.Decision)
		assert.Equal(t, "/login", outcome.Location)
		assert.Equal(t, ReasonExpired, outcome.Reason)

		assert.Equal(t, map[string]string{models.HostKey: "http://localhost:8000"}, store.Snapshot())
	}
}

func TestCheck_ExpiredOnLoginPath(t *testing.T) {
	g, store := newGuard(t, map[string]string{
		models.TokenKey:  "t1",
		models.ExpiryKey: expiryAt(-time.Second),
	})

	outcome := g.Check("/login")
	assert.True(t, outcome.Proceeds())
	assert.Equal(t, ReasonExpired, outcome.Reason)
	assert.Empty(t, store.Snapshot())
}

func TestCheck_NotExpired(t *testing.T) {
	for _, offset := range []time.Duration{0, time.Millisecond, 100000 * time.Millisecond} {
		values := map[string]string{
			models.TokenKey:  "t1",
			models.ExpiryKey: expiryAt(offset),
		}
		g, store := newGuard(t, values)

		outcome := g.Check("/dashboard")
		assert.True(t, outcome.Proceeds())
		assert.Equal(t, ReasonAuthenticated, outcome.Reason)
		assert.Equal(t, values, store.Snapshot())
	}
}

func TestCheck_Idempotent(t *testing.T) {
	g, store := newGuard(t, map[string]string{
		models.TokenKey:  "t1",
		models.ExpiryKey: expiryAt(-time.Second),
	})

	first := g.Check("/dashboard")
	afterFirst := store.Snapshot()
	second := g.Check("/dashboard")

	assert.Equal(t, ReasonExpired, first.Reason)
	// the first check cleared the credential, so the second sees no token
	assert.Equal(t, ReasonUnauthenticated, second.Reason)
	assert.Equal(t, first.Decision, second.Decision)
	assert.Equal(t, first.Location, second.Location)
	assert.Equal(t, afterFirst, store.Snapshot())
}

func TestCheck_ExpiresAsClockAdvances(t *testing.T) {
	store := sessions.NewMemoryStore()
	require.NoError(t, store.Set(models.TokenKey, "t1"))
	require.NoError(t, store.Set(models.ExpiryKey, models.FormatExpiry(fixedNow.Add(time.Minute))))

	clock := clockwork.NewFakeClockAt(fixedNow)
	g := New(store, WithClock(clock))

	assert.True(t, g.Check("/actions").Proceeds())

	clock.Advance(time.Minute)
	assert.True(t, g.Check("/actions").Proceeds(), "expiry equal to now is valid")

	clock.Advance(time.Millisecond)
	assert.Equal(t, Redirect, g.Check("/actions").Decision)
}

func TestCheck_CustomLoginPath(t *testing.T) {
	g := New(sessions.NewMemoryStore(), WithLoginPath("/signin"))
	assert.Equal(t, "/signin", g.Check("/dashboard").Location)
	assert.True(t, g.Check("/signin").Proceeds())
}

// Scenario: token t1 expired one second ago while visiting /dashboard.
func TestCheck_ExpiredDashboardScenario(t *testing.T) {
	g, store := newGuard(t, map[string]string{
		models.TokenKey:  "t1",
		models.ExpiryKey: expiryAt(-1000 * time.Millisecond),
	})

	outcome := g.Check("/dashboard")

	assert.Equal(t, Outcome{Decision: Redirect, Location: "/login", Reason: ReasonExpired}, outcome)
	_, hasToken := store.Get(models.TokenKey)
	_, hasExpiry := store.Get(models.ExpiryKey)
	assert.False(t, hasToken)
	assert.False(t, hasExpiry)
}

// Scenario: token t1 valid for another 100 seconds while visiting /dashboard.
func TestCheck_ValidDashboardScenario(t *testing.T) {
	values := map[string]string{
		models.TokenKey:  "t1",
		models.ExpiryKey: expiryAt(100000 * time.Millisecond),
	}
	g, store := newGuard(t, values)

	outcome := g.Check("/dashboard")

	assert.Equal(t, Outcome{Decision: Proceed, Reason: ReasonAuthenticated}, outcome)
	assert.Equal(t, values, store.Snapshot())
}

func TestOutcome_JSONRoundTrip(t *testing.T) {
	outcomes := []Outcome{
		{Decision: Proceed, Reason: ReasonAuthenticated},
		{Decision: Redirect, Location: "/login", Reason: ReasonExpired},
	}

	for _, outcome := range outcomes {
		data, err := json.Marshal(outcome)
		require.NoError(t, err)
		assert.Contains(t, string(data), `"decision":"`+outcome.Decision.String()+`"`)

		var decoded Outcome
		require.NoError(t, json.Unmarshal(data, &decoded))
		assert.Equal(t, outcome, decoded)
	}
}

func TestDecision_UnmarshalRejectsUnknown(t *testing.T) {
	var outcome Outcome
	err := json.Unmarshal([]byte(`{"decision":"maybe","reason":"expired"}`), &outcome)
	assert.Error(t, err)
}
