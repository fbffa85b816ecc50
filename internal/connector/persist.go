package connector

import (
	"encoding/json"
	"strings"
	"time"

	log "github.com/sirupsen/logrus"

	"github.com/solkit/connectord/internal/storage"
)

const (
	// sessionKey holds the current, versioned session record.
	sessionKey = "connector:session"
	// legacyKey held a bare wallet-name string in pre-1.0 deployments.
	legacyKey = "connector:wallet"

	schemaVersion = 1

	walletIDPrefix = "wallet-standard:"
)

// persistedSession is the durable record surviving page reloads / restarts.
type persistedSession struct {
	Version       int    `json:"version"`
	ConnectorID   string `json:"connector_id"`
	LastAccount   string `json:"last_account,omitempty"`
	AutoConnect   bool   `json:"auto_connect"`
	LastConnected int64  `json:"last_connected,omitempty"`
}

// WalletID derives the stable connector identifier for a wallet display name.
func WalletID(name string) string {
	slug := strings.ToLower(strings.TrimSpace(name))
	slug = strings.ReplaceAll(slug, " ", "-")
	return walletIDPrefix + slug
}

// walletNameMatchesID reports whether a registered wallet name resolves to id.
func walletNameMatchesID(name, id string) bool {
	return WalletID(name) == id
}

// loadSession reads and, if needed, migrates the persisted session. Storage
// failures degrade to "no persisted state" with a warning; they never
// propagate to the caller.
func loadSession(store storage.Store) *persistedSession {
	raw, ok, err := store.Get(sessionKey)
	if err != nil {
		log.WithError(err).Warn("failed to read persisted session, treating as absent")
		return nil
	}
	if ok {
		var session persistedSession
		if err := json.Unmarshal(raw, &session); err != nil || session.Version != schemaVersion {
			log.Warn("persisted session has unknown shape, discarding")
			return nil
		}
		return &session
	}

	return migrateLegacySession(store)
}

// migrateLegacySession converts a pre-1.0 record (a bare wallet-name string)
// into the current shape. The new record is written before the legacy key is
// deleted, so a crash between the two steps loses nothing.
func migrateLegacySession(store storage.Store) *persistedSession {
	raw, ok, err := store.Get(legacyKey)
	if err != nil {
		log.WithError(err).Warn("failed to read legacy session record")
		return nil
	}
	if !ok {
		return nil
	}

	name := strings.TrimSpace(string(raw))
	// Some legacy writers JSON-encoded the name.
	name = strings.Trim(name, `"`)
	if name == "" {
		_ = store.Delete(legacyKey)
		return nil
	}

	session := &persistedSession{
		Version:     schemaVersion,
		ConnectorID: WalletID(name),
		AutoConnect: true,
	}

	if err := saveSession(store, session); err != nil {
		log.WithError(err).Warn("failed to write migrated session, keeping legacy record")
		return session
	}
	if err := store.Delete(legacyKey); err != nil {
		log.WithError(err).Warn("failed to delete legacy session record")
	}

	log.WithField("connector_id", session.ConnectorID).Debug("migrated legacy session record")
	return session
}

// saveSession persists the session record.
func saveSession(store storage.Store, session *persistedSession) error {
	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return store.Set(sessionKey, raw)
}

// logPersistFailure records a failed session write. Persistence failures
// degrade the session to ephemeral; they never reach the caller.
func logPersistFailure(err error) {
	log.WithError(err).Warn("failed to persist session, continuing without persistence")
}

// clearSession removes the persisted session record.
func clearSession(store storage.Store) {
	if err := store.Delete(sessionKey); err != nil {
		log.WithError(err).Warn("failed to clear persisted session")
	}
}

// Session is the read-only view of the persisted record, for inspection
// tooling.
type Session struct {
	ConnectorID   string
	LastAccount   string
	AutoConnect   bool
	LastConnected time.Time
}

// InspectSession loads the persisted session from store, running the legacy
// migration if one is pending. The second return is false when no session is
// persisted.
func InspectSession(store storage.Store) (Session, bool) {
	session := loadSession(store)
	if session == nil {
		return Session{}, false
	}
	out := Session{
		ConnectorID: session.ConnectorID,
		LastAccount: session.LastAccount,
		AutoConnect: session.AutoConnect,
	}
	if session.LastConnected != 0 {
		out.LastConnected = time.Unix(session.LastConnected, 0)
	}
	return out, true
}

// ForgetSession removes the persisted session record.
func ForgetSession(store storage.Store) {
	clearSession(store)
	if err := store.Delete(legacyKey); err != nil {
		log.WithError(err).Warn("failed to clear legacy session record")
	}
}
