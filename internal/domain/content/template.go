package content

import (
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

const (
	maxTemplateNameLength = 120
	maxTemplateBodyLength = 10000
)

// Template is a reusable reply scaffold. The body may contain
// {{placeholder}} markers that the model is instructed to fill.
type Template struct {
	shared.OrgAggregateRoot
	Name     string
	Body     string
	Language string
}

// NewTemplate creates a template for an organization
func NewTemplate(orgID uuid.UUID, name, body, language string) (*Template, error) {
	name = strings.TrimSpace(name)
	body = strings.TrimSpace(body)
	if err := validateTemplate(name, body); err != nil {
		return nil, err
	}

	return &Template{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		Name:             name,
		Body:             body,
		Language:         strings.TrimSpace(language),
	}, nil
}

// UpdateContent replaces the template name and body
func (t *Template) UpdateContent(name, body, language string) error {
	name = strings.TrimSpace(name)
	body = strings.TrimSpace(body)
	if err := validateTemplate(name, body); err != nil {
		return err
	}
	t.Name = name
	t.Body = body
	t.Language = strings.TrimSpace(language)
	t.UpdatedAt = time.Now()
	return nil
}

func validateTemplate(name, body string) error {
	if name == "" {
		return shared.NewDomainError("INVALID_TEMPLATE", "Template name cannot be empty")
	}
	if len(name) > maxTemplateNameLength {
		return shared.NewDomainError("INVALID_TEMPLATE", "Template name is too long")
	}
	if body == "" {
		return shared.NewDomainError("INVALID_TEMPLATE", "Template body cannot be empty")
	}
	if len(body) > maxTemplateBodyLength {
		return shared.NewDomainError("INVALID_TEMPLATE", "Template body is too long")
	}
	return nil
}
