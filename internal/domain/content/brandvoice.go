package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

const maxBrandVoiceNotesLength = 4000

// BrandVoice captures how an organization wants to sound. Its notes are
// injected verbatim into the generation prompt.
type BrandVoice struct {
	shared.OrgAggregateRoot
	Name        string
	Description string
	ToneNotes   string
}

// NewBrandVoice creates a brand voice for an organization
func NewBrandVoice(orgID uuid.UUID, name, description, toneNotes string) (*BrandVoice, error) {
	name = strings.TrimSpace(name)
	if err := validateBrandVoice(name, toneNotes); err != nil {
		return nil, err
	}

	return &BrandVoice{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Name:             name,
		Description:      strings.TrimSpace(description),
		ToneNotes:        strings.TrimSpace(toneNotes),
	}, nil
}

// UpdateContent replaces the brand voice fields
func (b *BrandVoice) UpdateContent(name, description, toneNotes string) error {
	name = strings.TrimSpace(name)
	if err := validateBrandVoice(name, toneNotes); err != nil {
		return err
	}
	b.Name = name
	b.Description = strings.TrimSpace(description)
	b.ToneNotes = strings.TrimSpace(toneNotes)
	b.UpdatedAt = time.Now()
	return nil
}

func validateBrandVoice(name, toneNotes string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_BRAND_VOICE", "Brand voice name cannot be empty")
	}
	if len(toneNotes) > maxBrandVoiceNotesLength {
		return shared.NewDomainError("INVALID_BRAND_VOICE", "Tone notes are too long")
	}
	return nil
}
