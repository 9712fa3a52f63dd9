package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// Storage keys shared by every credential store. The names match the keys
// the browser console has always used so an exported store stays readable.
const (
	TokenKey  = "jivas-token"
	ExpiryKey = "jivas-token-exp"
	HostKey   = "jivas-host"
	AgentKey  = "jivas-agent"
	RootIDKey = "jivas-root-id"
)

// KeyValueStore is the minimal view of a credential store the helpers
// in this file need. sessions.Store satisfies it.
type KeyValueStore interface {
	Get(key string) (string, bool)
	Set(key string, value string) error
	Delete(key string) error
}

// Credential is the token/expiry pair read from a store. The two halves are
// loosely coupled: a token without a usable expiry is still a credential.
type Credential struct {
	Token     string
	Expiry    time.Time
	HasToken  bool
	HasExpiry bool
}

// ReadCredential never fails. A missing or malformed expiry is reported as
// HasExpiry == false.
func ReadCredential(store KeyValueStore) Credential {
	var cred Credential

	if token, ok := store.Get(TokenKey); ok && len(token) > 0 {
		cred.Token = token
		cred.HasToken = true
	}

	if raw, ok := store.Get(ExpiryKey); ok {
		if expiry, ok := ParseExpiry(raw); ok {
			cred.Expiry = expiry
			cred.HasExpiry = true
		}
	}

	return cred
}

// IsExpiredAt reports whether now is strictly after the expiry. A credential
// without an expiry never expires.
func (c Credential) IsExpiredAt(now time.Time) bool {
	if !c.HasExpiry {
		return false
	}
	return now.After(c.Expiry)
}

// ClearCredential removes the token and expiry. Other console keys such as
// the host and selected agent are kept.
// Both deletes are always attempted.
func ClearCredential(store KeyValueStore) error {
	return errors.Join(
		store.Delete(TokenKey),
		store.Delete(ExpiryKey),
	)
}

// WriteCredential persists a token and, when known, its expiry.
func WriteCredential(store KeyValueStore, token string, expiry *time.Time) error {
	if err := store.Set(TokenKey, token); err != nil {
		return err
	}
	if expiry == nil {
		return store.Delete(ExpiryKey)
	}
	return store.Set(ExpiryKey, FormatExpiry(*expiry))
}

// ParseExpiry reads an epoch-millisecond timestamp.
func ParseExpiry(raw string) (time.Time, bool) {
	raw = strings.TrimSpace(raw)
	if len(raw) == 0 {
		return time.Time{}, false
	}
	ms, err := strconv.ParseInt(raw, 10, 64)
	if err != nil {
		return time.Time{}, false
	}
	return time.UnixMilli(ms), true
}

// FormatExpiry renders a timestamp as epoch milliseconds.
func FormatExpiry(t time.Time) string {
	return strconv.FormatInt(t.UnixMilli(), 10)
}
