package content

import (
	"strings"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

const maxCustomerMessageLength = 8000

// Tone selects the register of a generated reply
type Tone string

const (
	ToneFormal   Tone = "formal"
	ToneFriendly Tone = "friendly"
	ToneShort    Tone = "short"
)

// ParseTone normalizes a raw tone value, defaulting to friendly
func ParseTone(raw string) Tone {
	switch Tone(strings.ToLower(strings.TrimSpace(raw))) {
	case ToneFormal:
		return ToneFormal
	case ToneShort:
		return ToneShort
	default:
		return ToneFriendly
	}
}

// String returns the string representation of the tone
func (t Tone) String() string {
	return string(t)
}

// Guidelines returns the prompt constraints for the tone
func (t Tone) Guidelines() string {
	switch t {
	case ToneFormal:
		return "Use a professional, courteous register. Full sentences, no slang, no emojis."
	case ToneShort:
		return "Keep the reply under four sentences. Answer directly, drop pleasantries."
	default:
		return "Sound warm and approachable. Contractions are fine, light positivity, no emojis."
	}
}

// Reply is one generated support reply, stored for history and analytics
type Reply struct {
	shared.OrgAggregateRoot
	UserID          uuid.UUID
	CustomerMessage string
	DraftReply      string
	Tone            Tone
	Language        string
	Model           string
	TemplateID      *uuid.UUID
	BrandVoiceID    *uuid.UUID
}

// NewReply creates a reply record
func NewReply(orgID, userID uuid.UUID, customerMessage, draftReply string, tone Tone) (*Reply, error) {
	customerMessage = strings.TrimSpace(customerMessage)
	if customerMessage == "" {
		return nil, shared.NewDomainError("INVALID_REPLY", "Customer message cannot be empty")
	}
	if len(customerMessage) > maxCustomerMessageLength {
		return nil, shared.NewDomainError("INVALID_REPLY", "Customer message is too long")
	}

	return &Reply{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		UserID:           userID,
		CustomerMessage:  customerMessage,
		DraftReply:       draftReply,
		Tone:             tone,
	}, nil
}

// WithSources attaches the optional template and brand voice used
func (r *Reply) WithSources(templateID, brandVoiceID *uuid.UUID) *Reply {
	r.TemplateID = templateID
	r.BrandVoiceID = brandVoiceID
	return r
}

// WithGeneration records the model and language used for generation
func (r *Reply) WithGeneration(model, language string) *Reply {
	r.Model = model
	r.Language = language
	return r
}
