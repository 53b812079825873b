// Package prompt assembles the model instructions for a voice session.
//
// The speech-to-speech model receives two kinds of instruction text: the
// system prompt describing the persona (built once per session by
// [SystemPrompt]) and a greeting instruction dispatched after the remote
// participant joins (built by [GreetingInstruction]). Both are written in
// English; translation into the session language is performed by the model
// itself, steered by an explicit language-enforcement directive.
package prompt

import (
	"fmt"
	"strings"

	"github.com/voxfront/voxfront/internal/persona"
)

// DefaultLanguage is the language code that requires no enforcement
// directive and no greeting translation.
const DefaultLanguage = "en"

// languageNames maps supported language codes to their English names.
var languageNames = map[string]string{
	"en": "English", "it": "Italian", "es": "Spanish", "fr": "French",
	"de": "German", "pt": "Portuguese", "nl": "Dutch", "ja": "Japanese",
	"ko": "Korean", "zh": "Chinese", "ar": "Arabic", "hi": "Hindi",
	"ru": "Russian", "vi": "Vietnamese", "th": "Thai", "tr": "Turkish",
}

// LanguageName returns the English name for a language code. Unknown codes
// pass through unchanged so the model still receives a usable hint.
func LanguageName(code string) string {
	if name, ok := languageNames[code]; ok {
		return name
	}
	return code
}

// SystemPrompt builds the session system instructions for a persona.
//
// When language is not [DefaultLanguage], a strict language-enforcement
// directive is prepended. The persona's prompt body follows, then each
// present business fact (services, hours, address) as one short declarative
// sentence. Sections are separated by blank lines.
func SystemPrompt(p persona.Persona, language string) string {
	var parts []string

	if language != DefaultLanguage {
		name := LanguageName(language)
		parts = append(parts, fmt.Sprintf(
			"CRITICAL LANGUAGE RULE: You MUST speak and respond ONLY in %[1]s. "+
				"All your spoken output must be in %[1]s. "+
				"Never switch to English unless the user explicitly asks you to.", name))
	}

	if p.SystemPrompt != "" {
		parts = append(parts, p.SystemPrompt)
	} else {
		parts = append(parts, fmt.Sprintf("You are %s, a helpful voice assistant for %s.", p.AgentName, p.Name))
	}

	if len(p.Services) > 0 {
		parts = append(parts, fmt.Sprintf("Services offered: %s.", strings.Join(p.Services, ", ")))
	}
	if p.BusinessHours != "" {
		parts = append(parts, fmt.Sprintf("Business hours: %s.", p.BusinessHours))
	}
	if p.BusinessAddress != "" {
		parts = append(parts, fmt.Sprintf("Located at: %s.", p.BusinessAddress))
	}

	return strings.Join(parts, "\n\n")
}

// GreetingInstruction builds the instruction that makes the agent greet the
// user.
//
// For [DefaultLanguage] the instruction embeds the literal formatted greeting.
// For any other language it becomes a translate-and-greet instruction naming
// the target language — the model performs the translation, not this code.
func GreetingInstruction(p persona.Persona, userName, language string) string {
	greeting := Format(p.Greeting, userName, p.AgentName)
	if language == DefaultLanguage {
		return "Greet the user by saying: " + greeting
	}
	name := LanguageName(language)
	return fmt.Sprintf("Greet the user in %[1]s. Translate this greeting naturally into %[1]s: %q", name, greeting)
}

// Format substitutes the {user_name} and {agent_name} placeholders in a
// greeting or farewell template. An empty userName falls back to "there".
func Format(template, userName, agentName string) string {
	if userName == "" {
		userName = "there"
	}
	r := strings.NewReplacer("{user_name}", userName, "{agent_name}", agentName)
	return r.Replace(template)
}
