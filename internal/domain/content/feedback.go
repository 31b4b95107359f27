package content

import (
	"strings"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/shared"
)

const maxFeedbackNoteLength = 1000

// Feedback is a thumbs up/down on a generated reply
type Feedback struct {
	shared.OrgAggregateRoot
	ReplyID uuid.UUID
	UserID  uuid.UUID
	Helpful bool
	Note    string
}

// NewFeedback creates feedback for a reply
func NewFeedback(orgID, replyID, userID uuid.UUID, helpful bool, note string) (*Feedback, error) {
	if replyID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_FEEDBACK", "Reply ID cannot be empty")
	}
	note = strings.TrimSpace(note)
	if len(note) > maxFeedbackNoteLength {
		return nil, shared.NewDomainError("INVALID_FEEDBACK", "Feedback note is too long")
	}

	return &Feedback{
		OrgAggregateRoot: shared.NewOrgAggregateRoot(orgID),
		ReplyID:          replyID,
		UserID:           userID,
		Helpful:          helpful,
		Note:             note,
	}, nil
}
