package session_test

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/voxfront/voxfront/internal/config"
	"github.com/voxfront/voxfront/internal/customer"
	"github.com/voxfront/voxfront/internal/persona"
	"github.com/voxfront/voxfront/internal/session"
)

var liveRoom = config.RoomConfig{
	URL:       "wss://rooms.example.com",
	APIKey:    "api-key",
	APISecret: "api-secret",
}

func testStore(t *testing.T) *customer.Store {
	t.Helper()
	reg := persona.NewRegistry()
	for _, p := range []persona.Persona{
		{ID: persona.DefaultID, Name: "Voxfront Demo", AgentName: "Lisa", AgentType: "lisa"},
		{ID: "dental", Name: "Bright Smile Dental", AgentName: "Sophie", AgentType: "dental"},
	} {
		if err := reg.Register(p); err != nil {
			t.Fatalf("Register: %v", err)
		}
	}
	return customer.NewStore(reg)
}

func TestCreate_DefaultsToDemoAndEnglish(t *testing.T) {
	t.Parallel()

	svc := session.NewService(config.RoomConfig{}, testStore(t))
	sess, err := svc.Create(context.Background(), session.CreateRequest{Name: "Marina"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if sess.CustomerName != "Voxfront Demo" {
		t.Errorf("CustomerName = %q; want the demo customer", sess.CustomerName)
	}
	if sess.Language != "en" {
		t.Errorf("Language = %q; want en", sess.Language)
	}
	if !strings.HasPrefix(sess.RoomName, "demo-") {
		t.Errorf("RoomName = %q; want demo- prefix", sess.RoomName)
	}
}

func TestCreate_UnknownCustomer(t *testing.T) {
	t.Parallel()

	svc := session.NewService(config.RoomConfig{}, testStore(t))
	_, err := svc.Create(context.Background(), session.CreateRequest{Name: "X", CustomerID: "ghost"})
	if !errors.Is(err, customer.ErrNotFound) {
		t.Fatalf("Create err = %v; want customer.ErrNotFound", err)
	}
}

func TestCreate_MockModeWhenUnconfigured(t *testing.T) {
	t.Parallel()

	svc := session.NewService(config.RoomConfig{}, testStore(t))
	sess, err := svc.Create(context.Background(), session.CreateRequest{Name: "Marina", CustomerID: "dental"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if sess.Mode != session.ModeMock {
		t.Errorf("Mode = %q; want mock", sess.Mode)
	}
	if sess.Token != "mock-token" {
		t.Errorf("Token = %q; want mock-token", sess.Token)
	}
	if sess.RoomURL != "wss://not-configured" {
		t.Errorf("RoomURL = %q", sess.RoomURL)
	}

	rec, err := svc.Get(sess.SessionID)
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if rec.Status != session.StatusMock {
		t.Errorf("Status = %q; want mock", rec.Status)
	}
}

func TestCreate_LiveMode(t *testing.T) {
	t.Parallel()

	svc := session.NewService(liveRoom, testStore(t))
	sess, err := svc.Create(context.Background(), session.CreateRequest{
		Name:       "Marina",
		CustomerID: "dental",
		Language:   "it",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if sess.Mode != session.ModeLive {
		t.Errorf("Mode = %q; want live", sess.Mode)
	}
	if sess.RoomURL != liveRoom.URL {
		t.Errorf("RoomURL = %q; want %q", sess.RoomURL, liveRoom.URL)
	}
	if !regexp.MustCompile(`^dental-[0-9a-f]{8}$`).MatchString(sess.RoomName) {
		t.Errorf("RoomName = %q; want dental-<8 hex>", sess.RoomName)
	}
	if sess.AgentName != "Sophie" || sess.AgentType != "dental" {
		t.Errorf("agent identity = %q/%q", sess.AgentName, sess.AgentType)
	}
	if sess.Language != "it" {
		t.Errorf("Language = %q; want it (echoed back)", sess.Language)
	}
}

func TestCreate_TokenClaims(t *testing.T) {
	t.Parallel()

	svc := session.NewService(liveRoom, testStore(t))
	sess, err := svc.Create(context.Background(), session.CreateRequest{
		Name:       "Marina",
		CustomerID: "dental",
		Language:   "it",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	type videoGrant struct {
		RoomJoin     bool   `json:"roomJoin"`
		Room         string `json:"room"`
		CanPublish   bool   `json:"canPublish"`
		CanSubscribe bool   `json:"canSubscribe"`
	}
	type claims struct {
		jwt.RegisteredClaims
		Name     string     `json:"name"`
		Metadata string     `json:"metadata"`
		Video    videoGrant `json:"video"`
	}

	var c claims
	tok, err := jwt.ParseWithClaims(sess.Token, &c, func(*jwt.Token) (any, error) {
		return []byte(liveRoom.APISecret), nil
	})
	if err != nil {
		t.Fatalf("ParseWithClaims: %v", err)
	}
	if !tok.Valid {
		t.Fatal("token should be valid")
	}

	if c.Issuer != liveRoom.APIKey {
		t.Errorf("iss = %q; want %q", c.Issuer, liveRoom.APIKey)
	}
	if c.Subject != "user-"+sess.SessionID {
		t.Errorf("sub = %q; want user-%s", c.Subject, sess.SessionID)
	}
	if !c.Video.RoomJoin || !c.Video.CanPublish || !c.Video.CanSubscribe {
		t.Errorf("video grant = %+v; want all permissions", c.Video)
	}
	if c.Video.Room != sess.RoomName {
		t.Errorf("video.room = %q; want %q", c.Video.Room, sess.RoomName)
	}

	var meta session.Metadata
	if err := json.Unmarshal([]byte(c.Metadata), &meta); err != nil {
		t.Fatalf("metadata blob: %v", err)
	}
	if meta.Name != "Marina" || meta.CustomerID != "dental" || meta.Language != "it" {
		t.Errorf("metadata = %+v", meta)
	}
	if meta.SessionID != sess.SessionID {
		t.Errorf("metadata session_id = %q; want %q", meta.SessionID, sess.SessionID)
	}
}

func TestCreate_TokenExpiry(t *testing.T) {
	t.Parallel()

	room := liveRoom
	room.TokenTTL = 120

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	svc := session.NewService(room, testStore(t), session.WithClock(func() time.Time { return now }))

	sess, err := svc.Create(context.Background(), session.CreateRequest{Name: "Marina", CustomerID: "dental"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	var c jwt.RegisteredClaims
	parser := jwt.NewParser(jwt.WithoutClaimsValidation())
	if _, _, err := parser.ParseUnverified(sess.Token, &c); err != nil {
		t.Fatalf("ParseUnverified: %v", err)
	}
	if got := c.ExpiresAt.Time.Sub(c.NotBefore.Time); got != 2*time.Minute {
		t.Errorf("token validity = %v; want 2m", got)
	}
}

func TestAnnouncements_LiveSessionsOnly(t *testing.T) {
	t.Parallel()

	liveSvc := session.NewService(liveRoom, testStore(t))
	sess, err := liveSvc.Create(context.Background(), session.CreateRequest{Name: "Marina", CustomerID: "dental"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	select {
	case got := <-liveSvc.Announcements():
		if got.SessionID != sess.SessionID {
			t.Errorf("announced %q; want %q", got.SessionID, sess.SessionID)
		}
	default:
		t.Fatal("live session should be announced")
	}

	mockSvc := session.NewService(config.RoomConfig{}, testStore(t))
	if _, err := mockSvc.Create(context.Background(), session.CreateRequest{Name: "Marina"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	select {
	case got := <-mockSvc.Announcements():
		t.Fatalf("mock session %q should not be announced", got.SessionID)
	default:
	}
}

func TestGet_Unknown(t *testing.T) {
	t.Parallel()

	svc := session.NewService(config.RoomConfig{}, testStore(t))
	if _, err := svc.Get("nope"); !errors.Is(err, session.ErrNotFound) {
		t.Fatalf("Get err = %v; want ErrNotFound", err)
	}
}

func TestEnd(t *testing.T) {
	t.Parallel()

	svc := session.NewService(config.RoomConfig{}, testStore(t))
	sess, err := svc.Create(context.Background(), session.CreateRequest{Name: "Marina"})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	rec := svc.End(sess.SessionID)
	if rec.Status != session.StatusEnded {
		t.Errorf("Status = %q; want ended", rec.Status)
	}
	if rec.EndedAt == "" {
		t.Error("EndedAt should be stamped")
	}

	// Ending an unknown session is tolerated.
	rec = svc.End("ghost")
	if rec.Status != session.StatusEnded {
		t.Errorf("Status = %q; want ended for unknown id too", rec.Status)
	}
}

func TestList_ChronologicalOrder(t *testing.T) {
	t.Parallel()

	now := time.Date(2026, 3, 14, 12, 0, 0, 0, time.UTC)
	svc := session.NewService(config.RoomConfig{}, testStore(t), session.WithClock(func() time.Time {
		now = now.Add(time.Second)
		return now
	}))

	for range 3 {
		if _, err := svc.Create(context.Background(), session.CreateRequest{Name: "Marina"}); err != nil {
			t.Fatalf("Create: %v", err)
		}
	}

	records := svc.List()
	if len(records) != 3 {
		t.Fatalf("List len = %d; want 3", len(records))
	}
	for i := 1; i < len(records); i++ {
		if records[i-1].CreatedAt > records[i].CreatedAt {
			t.Fatalf("List not chronological: %q before %q", records[i-1].CreatedAt, records[i].CreatedAt)
		}
	}
}

func TestAgentToken_SignedForRoom(t *testing.T) {
	t.Parallel()

	token, err := session.AgentToken(liveRoom, "dental-ab12cd34")
	if err != nil {
		t.Fatalf("AgentToken: %v", err)
	}

	type claims struct {
		jwt.RegisteredClaims
		Video struct {
			Room     string `json:"room"`
			RoomJoin bool   `json:"roomJoin"`
		} `json:"video"`
	}
	var c claims
	tok, err := jwt.ParseWithClaims(token, &c, func(*jwt.Token) (any, error) {
		return []byte(liveRoom.APISecret), nil
	})
	if err != nil {
		t.Fatalf("ParseWithClaims: %v", err)
	}
	if !tok.Valid {
		t.Fatal("agent token should be valid")
	}
	if c.Subject != "agent-dental-ab12cd34" {
		t.Errorf("sub = %q", c.Subject)
	}
	if c.Video.Room != "dental-ab12cd34" || !c.Video.RoomJoin {
		t.Errorf("video grant = %+v", c.Video)
	}
}
