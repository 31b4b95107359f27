package dto

import (
	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/content"
)

// TemplateResponse represents a reply template
type TemplateResponse struct {
	ID       uuid.UUID `json:"id"`
	Name     string    `json:"name"`
	Body     string    `json:"body"`
	Language string    `json:"language,omitempty"`
	TimestampResponse
}

// FromTemplate maps a template aggregate to its response
func FromTemplate(t *content.Template) TemplateResponse {
	return TemplateResponse{
		ID:       t.ID,
		Name:     t.Name,
		Body:     t.Body,
		Language: t.Language,
		TimestampResponse: TimestampResponse{
			CreatedAt: t.CreatedAt,
			UpdatedAt: t.UpdatedAt,
		},
	}
}

// FromTemplates maps a slice of templates
func FromTemplates(templates []*content.Template) []TemplateResponse {
	out := make([]TemplateResponse, 0, len(templates))
	for _, t := range templates {
		out = append(out, FromTemplate(t))
	}
	return out
}

// BrandVoiceResponse represents a brand voice profile
type BrandVoiceResponse struct {
	ID          uuid.UUID `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	ToneNotes   string    `json:"tone_notes,omitempty"`
	TimestampResponse
}

// FromBrandVoice maps a brand voice aggregate to its response
func FromBrandVoice(v *content.BrandVoice) BrandVoiceResponse {
	return BrandVoiceResponse{
		ID:          v.ID,
		Name:        v.Name,
		Description: v.Description,
		ToneNotes:   v.ToneNotes,
		TimestampResponse: TimestampResponse{
			CreatedAt: v.CreatedAt,
			UpdatedAt: v.UpdatedAt,
		},
	}
}

// FromBrandVoices maps a slice of brand voices
func FromBrandVoices(voices []*content.BrandVoice) []BrandVoiceResponse {
	out := make([]BrandVoiceResponse, 0, len(voices))
	for _, v := range voices {
		out = append(out, FromBrandVoice(v))
	}
	return out
}

// ReplyResponse represents a generated reply
type ReplyResponse struct {
	ID              uuid.UUID  `json:"id"`
	CustomerMessage string     `json:"customer_message"`
	DraftReply      string     `json:"draft_reply"`
	Tone            string     `json:"tone"`
	Language        string     `json:"language,omitempty"`
	Model           string     `json:"model,omitempty"`
	TemplateID      *uuid.UUID `json:"template_id,omitempty"`
	BrandVoiceID    *uuid.UUID `json:"brand_voice_id,omitempty"`
	TimestampResponse
}

// FromReply maps a reply aggregate to its response
func FromReply(r *content.Reply) ReplyResponse {
	return ReplyResponse{
		ID:              r.ID,
		CustomerMessage: r.CustomerMessage,
		DraftReply:      r.DraftReply,
		Tone:            r.Tone.String(),
		Language:        r.Language,
		Model:           r.Model,
		TemplateID:      r.TemplateID,
		BrandVoiceID:    r.BrandVoiceID,
		TimestampResponse: TimestampResponse{
			CreatedAt: r.CreatedAt,
			UpdatedAt: r.UpdatedAt,
		},
	}
}

// FromReplies maps a slice of replies
func FromReplies(replies []*content.Reply) []ReplyResponse {
	out := make([]ReplyResponse, 0, len(replies))
	for _, r := range replies {
		out = append(out, FromReply(r))
	}
	return out
}
