package customer_test

import (
	"errors"
	"regexp"
	"testing"
	"time"

	"github.com/voxfront/voxfront/internal/customer"
	"github.com/voxfront/voxfront/internal/persona"
)

// seededStore builds a store holding the demo persona plus one named extra.
func seededStore(t *testing.T, extra ...persona.Persona) *customer.Store {
	t.Helper()
	reg := persona.NewRegistry()
	personas := append([]persona.Persona{{ID: persona.DefaultID, Name: "Demo"}}, extra...)
	for _, p := range personas {
		if err := reg.Register(p); err != nil {
			t.Fatalf("Register %s: %v", p.ID, err)
		}
	}
	return customer.NewStore(reg)
}

func TestNewStore_SeedsFromRegistry(t *testing.T) {
	t.Parallel()

	s := seededStore(t, persona.Persona{ID: "dental", Name: "Bright Smile Dental", Voice: "ara"})

	c, err := s.Get("dental")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if c.Name != "Bright Smile Dental" {
		t.Errorf("Name = %q", c.Name)
	}
	if !c.Active {
		t.Error("seeded customers should be active")
	}
	if _, err := time.Parse(time.RFC3339, c.CreatedAt); err != nil {
		t.Errorf("CreatedAt %q is not RFC 3339: %v", c.CreatedAt, err)
	}
}

func TestGet_Unknown(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	if _, err := s.Get("nope"); !errors.Is(err, customer.ErrNotFound) {
		t.Fatalf("Get err = %v; want ErrNotFound", err)
	}
}

func TestCreate_GeneratesID(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	created, err := s.Create(customer.Config{Name: "Acme Clinic", Active: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if !regexp.MustCompile(`^[0-9a-f]{8}$`).MatchString(created.ID) {
		t.Errorf("ID = %q; want 8 lowercase hex chars", created.ID)
	}
	if !created.Active {
		t.Error("created customers should be active")
	}
	if created.CreatedAt == "" {
		t.Error("CreatedAt should be stamped")
	}

	got, err := s.Get(created.ID)
	if err != nil {
		t.Fatalf("Get after Create: %v", err)
	}
	if got.Name != "Acme Clinic" {
		t.Errorf("Name = %q", got.Name)
	}
}

func TestCreate_AppliesPersonaDefaults(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	created, err := s.Create(customer.Config{Name: "Acme Clinic", Active: true})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.AgentName != persona.DefaultAgentName {
		t.Errorf("AgentName = %q; want %q", created.AgentName, persona.DefaultAgentName)
	}
	if created.AgentType != persona.DefaultAgentType {
		t.Errorf("AgentType = %q; want %q", created.AgentType, persona.DefaultAgentType)
	}
	if created.Voice != persona.DefaultVoice {
		t.Errorf("Voice = %q; want %q", created.Voice, persona.DefaultVoice)
	}
	if created.Language != "en" {
		t.Errorf("Language = %q; want en", created.Language)
	}
	if created.Greeting != persona.DefaultGreeting {
		t.Errorf("Greeting = %q; want %q", created.Greeting, persona.DefaultGreeting)
	}
	if created.Farewell != persona.DefaultFarewell {
		t.Errorf("Farewell = %q; want %q", created.Farewell, persona.DefaultFarewell)
	}
}

func TestCreate_KeepsExplicitFields(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	created, err := s.Create(customer.Config{
		Name:      "Acme Clinic",
		Voice:     "ara",
		CreatedAt: "2026-02-01T09:00:00Z",
	})
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if created.Voice != "ara" {
		t.Errorf("Voice = %q; explicit voice must survive defaulting", created.Voice)
	}
	if created.Active {
		t.Error("Active = true; the caller's inactive flag must be kept")
	}
	if created.CreatedAt != "2026-02-01T09:00:00Z" {
		t.Errorf("CreatedAt = %q; explicit timestamp must survive", created.CreatedAt)
	}
}

func TestCreate_SameID_Replaces(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	if _, err := s.Create(customer.Config{ID: "acme", Name: "First"}); err != nil {
		t.Fatalf("Create: %v", err)
	}
	if _, err := s.Create(customer.Config{ID: "acme", Name: "Second"}); err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := s.Get("acme")
	if err != nil {
		t.Fatalf("Get: %v", err)
	}
	if got.Name != "Second" {
		t.Errorf("Name = %q; want Second (silent replace)", got.Name)
	}
}

func TestUpdate_PartialFields(t *testing.T) {
	t.Parallel()

	s := seededStore(t, persona.Persona{ID: "dental", Name: "Bright Smile Dental", Voice: "ara"})

	voice := "rex"
	updated, err := s.Update("dental", customer.Updates{Voice: &voice})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Voice != "rex" {
		t.Errorf("Voice = %q; want rex", updated.Voice)
	}
	if updated.Name != "Bright Smile Dental" {
		t.Errorf("Name = %q; untouched fields must survive", updated.Name)
	}
}

func TestUpdate_Deactivate(t *testing.T) {
	t.Parallel()

	s := seededStore(t, persona.Persona{ID: "dental", Name: "Bright Smile Dental"})

	inactive := false
	if _, err := s.Update("dental", customer.Updates{Active: &inactive}); err != nil {
		t.Fatalf("Update: %v", err)
	}

	for _, c := range s.ListActive() {
		if c.ID == "dental" {
			t.Error("deactivated customer should not appear in ListActive")
		}
	}
	if len(s.ListAll()) != 2 {
		t.Errorf("ListAll len = %d; want 2", len(s.ListAll()))
	}
}

func TestUpdate_Unknown(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	name := "Nobody"
	if _, err := s.Update("nope", customer.Updates{Name: &name}); !errors.Is(err, customer.ErrNotFound) {
		t.Fatalf("Update err = %v; want ErrNotFound", err)
	}
}

func TestDelete(t *testing.T) {
	t.Parallel()

	s := seededStore(t, persona.Persona{ID: "dental", Name: "Bright Smile Dental"})

	removed, err := s.Delete("dental")
	if err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if !removed {
		t.Error("Delete should report removal")
	}
	if _, err := s.Get("dental"); !errors.Is(err, customer.ErrNotFound) {
		t.Error("deleted customer should be gone")
	}

	removed, err = s.Delete("dental")
	if err != nil {
		t.Fatalf("second Delete: %v", err)
	}
	if removed {
		t.Error("second Delete should report nothing removed")
	}
}

func TestDelete_DefaultProtected(t *testing.T) {
	t.Parallel()

	s := seededStore(t)
	_, err := s.Delete(persona.DefaultID)
	if !errors.Is(err, customer.ErrDefaultProtected) {
		t.Fatalf("Delete err = %v; want ErrDefaultProtected", err)
	}
	if _, err := s.Get(persona.DefaultID); err != nil {
		t.Error("default customer must survive the delete attempt")
	}
}

func TestListAll_SortedByID(t *testing.T) {
	t.Parallel()

	s := seededStore(t,
		persona.Persona{ID: "zeta", Name: "Zeta"},
		persona.Persona{ID: "alpha", Name: "Alpha"},
	)

	all := s.ListAll()
	for i := 1; i < len(all); i++ {
		if all[i-1].ID > all[i].ID {
			t.Fatalf("ListAll not sorted: %q before %q", all[i-1].ID, all[i].ID)
		}
	}
}
