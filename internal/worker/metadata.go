package worker

import (
	"encoding/json"
	"log/slog"

	"github.com/voxfront/voxfront/internal/rtc"
	"github.com/voxfront/voxfront/internal/session"
)

// Fixed fallbacks used when session metadata is absent or incomplete.
const (
	defaultCustomerID = "demo"
	defaultUserName   = "there"
	defaultSessionID  = "unknown"
	defaultLanguage   = "en"
)

// sessionIdentity is the parsed, defaulted view of a participant's session
// metadata.
type sessionIdentity struct {
	CustomerID string
	UserName   string
	SessionID  string
	Language   string
}

// defaultIdentity returns the identity used when no participant carries
// parseable metadata.
func defaultIdentity() sessionIdentity {
	return sessionIdentity{
		CustomerID: defaultCustomerID,
		UserName:   defaultUserName,
		SessionID:  defaultSessionID,
		Language:   defaultLanguage,
	}
}

// identityFromParticipants scans candidates for the first participant whose
// metadata blob parses as session metadata. A malformed blob is logged and
// processing continues with the next candidate; absent keys fall back to
// the fixed defaults.
func identityFromParticipants(candidates []rtc.Participant) sessionIdentity {
	for _, p := range candidates {
		raw := p.Metadata()
		if raw == "" {
			continue
		}

		var meta session.Metadata
		if err := json.Unmarshal([]byte(raw), &meta); err != nil {
			slog.Warn("failed to parse participant metadata", "identity", p.Identity(), "err", err)
			continue
		}

		id := defaultIdentity()
		if meta.CustomerID != "" {
			id.CustomerID = meta.CustomerID
		}
		if meta.Name != "" {
			id.UserName = meta.Name
		}
		if meta.SessionID != "" {
			id.SessionID = meta.SessionID
		}
		if meta.Language != "" {
			id.Language = meta.Language
		}
		return id
	}
	return defaultIdentity()
}
