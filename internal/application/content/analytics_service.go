package content

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/toneforge/backend/internal/domain/content"
	"github.com/toneforge/backend/internal/domain/shared"
	"go.uber.org/zap"
)

const insightsWindowDays = 7

// AnalyticsService aggregates reply volume and feedback insights
type AnalyticsService struct {
	replyRepo    content.ReplyRepository
	feedbackRepo content.FeedbackRepository
	clock        shared.Clock
	logger       *zap.Logger
}

// NewAnalyticsService creates an analytics service
func NewAnalyticsService(
	replyRepo content.ReplyRepository,
	feedbackRepo content.FeedbackRepository,
	clock shared.Clock,
	logger *zap.Logger,
) *AnalyticsService {
	if clock == nil {
		clock = shared.SystemClock{}
	}
	return &AnalyticsService{
		replyRepo:    replyRepo,
		feedbackRepo: feedbackRepo,
		clock:        clock,
		logger:       logger,
	}
}

// ReplyInsights summarizes the last week of reply generation
type ReplyInsights struct {
	WindowDays int                       `json:"window_days"`
	Total      int64                     `json:"total"`
	PerDay     []content.DailyReplyCount `json:"per_day"`
	PerTone    []content.ToneCount       `json:"per_tone"`
}

// Insights returns reply volume for the trailing seven days
func (s *AnalyticsService) Insights(ctx context.Context, orgID uuid.UUID) (*ReplyInsights, error) {
	since := s.clock.Now().UTC().AddDate(0, 0, -insightsWindowDays)

	total, err := s.replyRepo.CountSince(ctx, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to count replies: %w", err)
	}

	perDay, err := s.replyRepo.CountByDaySince(ctx, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate daily counts: %w", err)
	}

	perTone, err := s.replyRepo.CountByToneSince(ctx, orgID, since)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate tone counts: %w", err)
	}

	return &ReplyInsights{
		WindowDays: insightsWindowDays,
		Total:      total,
		PerDay:     perDay,
		PerTone:    perTone,
	}, nil
}

// FeedbackInput contains reply feedback data
type FeedbackInput struct {
	Helpful bool   `json:"helpful"`
	Note    string `json:"note" binding:"omitempty,max=1000"`
}

// RecordFeedback stores a helpfulness vote for a reply. The reply must
// belong to the caller's organization.
func (s *AnalyticsService) RecordFeedback(ctx context.Context, orgID, userID, replyID uuid.UUID, input FeedbackInput) (*content.Feedback, error) {
	if _, err := s.replyRepo.FindByID(ctx, orgID, replyID); err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, fmt.Errorf("failed to load reply: %w", err)
	}

	feedback, err := content.NewFeedback(orgID, replyID, userID, input.Helpful, input.Note)
	if err != nil {
		return nil, err
	}

	if err := s.feedbackRepo.Save(ctx, feedback); err != nil {
		return nil, fmt.Errorf("failed to save feedback: %w", err)
	}

	s.logger.Info("Reply feedback recorded",
		zap.String("org_id", orgID.String()),
		zap.String("reply_id", replyID.String()),
		zap.Bool("helpful", input.Helpful))
	return feedback, nil
}

// FeedbackInsights summarizes helpfulness feedback for an organization
type FeedbackInsights struct {
	Total       int64   `json:"total"`
	Helpful     int64   `json:"helpful"`
	HelpfulRate float64 `json:"helpful_rate"`
}

// FeedbackSummary returns aggregate feedback counts and the helpful rate
func (s *AnalyticsService) FeedbackSummary(ctx context.Context, orgID uuid.UUID) (*FeedbackInsights, error) {
	stats, err := s.feedbackRepo.StatsByOrg(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to aggregate feedback: %w", err)
	}

	insights := &FeedbackInsights{
		Total:   stats.Total,
		Helpful: stats.Helpful,
	}
	if stats.Total > 0 {
		insights.HelpfulRate = float64(stats.Helpful) / float64(stats.Total)
	}
	return insights, nil
}
