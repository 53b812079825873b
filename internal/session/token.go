package session

import (
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voxfront/voxfront/internal/config"
)

// defaultTokenTTL is the credential validity window when room.token_ttl is
// not configured.
const defaultTokenTTL = time.Hour

// videoGrant is the room-scoped permission block embedded in the credential,
// matching the room service's expected claim shape.
type videoGrant struct {
	RoomJoin     bool   `json:"roomJoin"`
	Room         string `json:"room"`
	CanPublish   bool   `json:"canPublish"`
	CanSubscribe bool   `json:"canSubscribe"`
}

// accessClaims is the full claim set of a room access credential.
type accessClaims struct {
	jwt.RegisteredClaims

	// Name is the participant's display name.
	Name string `json:"name,omitempty"`

	// Metadata is the opaque session metadata blob ([Metadata] as JSON).
	Metadata string `json:"metadata,omitempty"`

	// Video carries the room permissions.
	Video videoGrant `json:"video"`
}

// signToken builds and signs an HS256 room access credential. The identity
// is derived from the session id so that the worker can correlate the
// joining participant with its session record.
func (s *Service) signToken(roomName, sessionID, userName, metadata string) (string, error) {
	return signAccessToken(s.room, "user-"+sessionID, userName, metadata, roomName, s.now())
}

// AgentToken signs a room access credential for the agent participant itself.
// The agent carries no session metadata; its identity is derived from the
// room name.
func AgentToken(room config.RoomConfig, roomName string) (string, error) {
	return signAccessToken(room, "agent-"+roomName, "", "", roomName, time.Now())
}

func signAccessToken(room config.RoomConfig, identity, name, metadata, roomName string, now time.Time) (string, error) {
	ttl := defaultTokenTTL
	if room.TokenTTL > 0 {
		ttl = time.Duration(room.TokenTTL) * time.Second
	}

	claims := accessClaims{
		RegisteredClaims: jwt.RegisteredClaims{
			Issuer:    room.APIKey,
			Subject:   identity,
			NotBefore: jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
		Name:     name,
		Metadata: metadata,
		Video: videoGrant{
			RoomJoin:     true,
			Room:         roomName,
			CanPublish:   true,
			CanSubscribe: true,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(room.APISecret))
	if err != nil {
		return "", fmt.Errorf("sign access token: %w", err)
	}
	return signed, nil
}
