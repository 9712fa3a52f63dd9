// Package guard decides, without any network call, whether a navigation
// may proceed with the credential currently held in a session store.
package guard

import (
	"fmt"

	"github.com/jonboulle/clockwork"
	"github.com/sirupsen/logrus"

	"github.com/jivas-io/jvmanager/internal/models"
	"github.com/jivas-io/jvmanager/internal/sessions"
)

// DefaultLoginPath is the route every redirect points at unless
// WithLoginPath says otherwise.
const DefaultLoginPath = "/login"

// Decision says whether a navigation may continue.
type Decision int

const (
	Proceed Decision = iota
	Redirect
)

func (d Decision) String() string {
	switch d {
	case Proceed:
		return "proceed"
	case Redirect:
		return "redirect"
	default:
		return "unknown"
	}
}

func (d Decision) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Decision) UnmarshalText(text []byte) error {
	switch string(text) {
	case "proceed":
		*d = Proceed
	case "redirect":
		*d = Redirect
	default:
		return fmt.Errorf("unknown guard decision %q", text)
	}
	return nil
}

// Reason records which credential state produced an Outcome.
type Reason string

const (
	ReasonAuthenticated   Reason = "authenticated"
	ReasonNoExpiry        Reason = "no_expiry"
	ReasonUnauthenticated Reason = "unauthenticated"
	ReasonExpired         Reason = "expired"
)

// Outcome is the result of a guard check. Location is only set when
// Decision is Redirect.
type Outcome struct {
	Decision Decision `json:"decision"`
	Location string   `json:"location,omitempty"`
	Reason   Reason   `json:"reason"`
}

func (o Outcome) Proceeds() bool {
	return o.Decision == Proceed
}

// Guard checks the credential in Store on every navigation.
type Guard struct {
	store     sessions.Store
	clock     clockwork.Clock
	loginPath string
}

// Option configures a Guard.
type Option func(*Guard)

// WithClock replaces the clock expiry is compared against.
func WithClock(clock clockwork.Clock) Option {
	return func(g *Guard) {
		g.clock = clock
	}
}

func WithLoginPath(path string) Option {
	return func(g *Guard) {
		if len(path) > 0 {
			g.loginPath = path
		}
	}
}

// New returns a Guard over store using the real clock and DefaultLoginPath.
func New(store sessions.Store, opts ...Option) *Guard {
	g := &Guard{
		store:     store,
		clock:     clockwork.NewRealClock(),
		loginPath: DefaultLoginPath,
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

func (g *Guard) LoginPath() string {
	return g.loginPath
}

// Check evaluates the stored credential for a navigation to path. An expired
// credential is deleted from the store as a side effect; a failure to delete
// is logged and does not change the decision.
func (g *Guard) Check(path string) Outcome {
	cred := models.ReadCredential(g.store)

	if !cred.HasToken {
		return g.redirectUnlessLogin(path, ReasonUnauthenticated)
	}

	if !cred.HasExpiry {
		return Outcome{Decision: Proceed, Reason: ReasonNoExpiry}
	}

	if cred.IsExpiredAt(g.clock.Now()) {
		logrus.WithFields(logrus.Fields{
			"path":   path,
			"expiry": cred.Expiry.UTC(),
		}).Debugln("Stored credential has expired, clearing")

		if err := models.ClearCredential(g.store); err != nil {
			logrus.WithError(err).Warnln("Failed to clear expired credential")
		}

		return g.redirectUnlessLogin(path, ReasonExpired)
	}

	return Outcome{Decision: Proceed, Reason: ReasonAuthenticated}
}

func (g *Guard) redirectUnlessLogin(path string, reason Reason) Outcome {
	if path == g.loginPath {
		return Outcome{Decision: Proceed, Reason: reason}
	}
	return Outcome{
		Decision: Redirect,
		Location: g.loginPath,
		Reason:   reason,
	}
}
