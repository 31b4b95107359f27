package content

import (
	"fmt"
	"strings"

	"github.com/toneforge/backend/internal/domain/content"
	"github.com/toneforge/backend/internal/infrastructure/ai"
	"golang.org/x/text/language"
)

// Languages the generator is instructed in. Requests in any other language
// match to the closest supported one, English being the fallback.
var supportedLanguages = []language.Tag{
	language.English,
	language.Turkish,
}

var languageMatcher = language.NewMatcher(supportedLanguages)

var languageNames = map[language.Tag]string{
	language.English: "English",
	language.Turkish: "Turkish",
}

// MatchLanguage resolves a requested language code to a supported tag and
// its English name. Empty and unknown codes fall back to English.
func MatchLanguage(code string) (language.Tag, string) {
	tag := language.English
	if code != "" {
		if parsed, err := language.Parse(code); err == nil {
			matched, _, _ := languageMatcher.Match(parsed)
			// Matcher may return extended tags; map back to the base
			base, _ := matched.Base()
			for _, supported := range supportedLanguages {
				if sb, _ := supported.Base(); sb == base {
					tag = supported
					break
				}
			}
		}
	}
	return tag, languageNames[tag]
}

// PromptInput carries everything the prompt is rendered from
type PromptInput struct {
	CustomerMessage string
	Tone            content.Tone
	Language        string
	Template        *content.Template
	BrandVoice      *content.BrandVoice
}

// PromptBuilder renders the chat messages for reply generation
type PromptBuilder struct{}

// NewPromptBuilder creates a prompt builder
func NewPromptBuilder() *PromptBuilder {
	return &PromptBuilder{}
}

const systemPrompt = "You are a customer support assistant. Draft a single reply " +
	"to the customer's message below. Output only the reply text with no preamble, " +
	"no sign-off placeholders you cannot fill, and no markdown."

// Build renders the sectioned generation prompt
func (b *PromptBuilder) Build(input PromptInput) []ai.ChatMessage {
	_, languageName := MatchLanguage(input.Language)

	var sections []string

	if input.BrandVoice != nil {
		var voice strings.Builder
		voice.WriteString("BRAND VOICE:\n")
		if input.BrandVoice.Description != "" {
			voice.WriteString(input.BrandVoice.Description)
			voice.WriteString("\n")
		}
		if input.BrandVoice.ToneNotes != "" {
			voice.WriteString(input.BrandVoice.ToneNotes)
		}
		sections = append(sections, strings.TrimSpace(voice.String()))
	}

	constraints := fmt.Sprintf("CONSTRAINTS:\n- %s\n- Write the reply in %s.",
		input.Tone.Guidelines(), languageName)
	sections = append(sections, constraints)

	if input.Template != nil {
		sections = append(sections, "TEMPLATE:\nBase the reply on this template, "+
			"filling any {{placeholders}} from the customer's message:\n"+input.Template.Body)
	}

	sections = append(sections, "CUSTOMER MESSAGE:\n"+input.CustomerMessage)

	return []ai.ChatMessage{
		{Role: "system", Content: systemPrompt},
		{Role: "user", Content: strings.Join(sections, "\n\n")},
	}
}
