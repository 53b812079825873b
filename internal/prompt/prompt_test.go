package prompt_test

import (
	"strings"
	"testing"

	"github.com/voxfront/voxfront/internal/persona"
	"github.com/voxfront/voxfront/internal/prompt"
)

var dental = persona.Persona{
	ID:              "dental",
	Name:            "Bright Smile Dental",
	AgentName:       "Sophie",
	SystemPrompt:    "You are Sophie, the friendly AI receptionist for Bright Smile Dental.",
	Greeting:        "Hi {user_name}! This is {agent_name} from Bright Smile Dental.",
	BusinessHours:   "Mon-Fri 8-6",
	BusinessAddress: "123 Smile Avenue",
	Services:        []string{"Cleanings", "Whitening"},
}

func TestSystemPrompt_English_NoLanguageRule(t *testing.T) {
	t.Parallel()

	got := prompt.SystemPrompt(dental, "en")
	if strings.Contains(got, "CRITICAL LANGUAGE RULE") {
		t.Error("English sessions must not carry a language-enforcement directive")
	}
	if !strings.HasPrefix(got, dental.SystemPrompt) {
		t.Errorf("prompt should start with the persona body; got %q", got)
	}
}

func TestSystemPrompt_NonEnglish_PrependsLanguageRule(t *testing.T) {
	t.Parallel()

	got := prompt.SystemPrompt(dental, "it")
	if !strings.HasPrefix(got, "CRITICAL LANGUAGE RULE") {
		t.Fatalf("prompt should start with the language rule; got %q", got)
	}
	if !strings.Contains(got, "ONLY in Italian") {
		t.Errorf("language rule should name Italian; got %q", got)
	}
	if !strings.Contains(got, dental.SystemPrompt) {
		t.Error("persona body missing")
	}
}

func TestSystemPrompt_BusinessFacts(t *testing.T) {
	t.Parallel()

	got := prompt.SystemPrompt(dental, "en")
	for _, want := range []string{
		"Services offered: Cleanings, Whitening.",
		"Business hours: Mon-Fri 8-6.",
		"Located at: 123 Smile Avenue.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("prompt missing %q", want)
		}
	}
}

func TestSystemPrompt_OmitsAbsentFacts(t *testing.T) {
	t.Parallel()

	bare := persona.Persona{ID: "x", Name: "X Corp", AgentName: "Lisa"}
	got := prompt.SystemPrompt(bare, "en")
	for _, absent := range []string{"Services offered", "Business hours", "Located at"} {
		if strings.Contains(got, absent) {
			t.Errorf("prompt should omit %q for a persona without that fact", absent)
		}
	}
}

func TestSystemPrompt_FallbackBody(t *testing.T) {
	t.Parallel()

	bare := persona.Persona{ID: "x", Name: "X Corp", AgentName: "Lisa"}
	got := prompt.SystemPrompt(bare, "en")
	if !strings.Contains(got, "You are Lisa, a helpful voice assistant for X Corp.") {
		t.Errorf("prompt = %q; want generic fallback body", got)
	}
}

func TestGreetingInstruction_English(t *testing.T) {
	t.Parallel()

	got := prompt.GreetingInstruction(dental, "Marina", "en")
	want := "Greet the user by saying: Hi Marina! This is Sophie from Bright Smile Dental."
	if got != want {
		t.Errorf("got %q\nwant %q", got, want)
	}
}

func TestGreetingInstruction_NonEnglish_TranslateAndGreet(t *testing.T) {
	t.Parallel()

	got := prompt.GreetingInstruction(dental, "Marina", "it")
	if !strings.HasPrefix(got, "Greet the user in Italian.") {
		t.Errorf("got %q; want translate-and-greet instruction", got)
	}
	if !strings.Contains(got, `"Hi Marina! This is Sophie from Bright Smile Dental."`) {
		t.Errorf("got %q; should quote the English greeting", got)
	}
}

func TestGreetingInstruction_UnknownLanguagePassesThrough(t *testing.T) {
	t.Parallel()

	got := prompt.GreetingInstruction(dental, "Marina", "xx")
	if !strings.Contains(got, "Greet the user in xx.") {
		t.Errorf("got %q; unknown codes should pass through", got)
	}
}

func TestFormat_EmptyUserName(t *testing.T) {
	t.Parallel()

	got := prompt.Format("Hello {user_name}! I'm {agent_name}.", "", "Lisa")
	if got != "Hello there! I'm Lisa." {
		t.Errorf("got %q", got)
	}
}

func TestLanguageName(t *testing.T) {
	t.Parallel()

	cases := map[string]string{"en": "English", "de": "German", "zz": "zz"}
	for code, want := range cases {
		if got := prompt.LanguageName(code); got != want {
			t.Errorf("LanguageName(%q) = %q; want %q", code, got, want)
		}
	}
}
