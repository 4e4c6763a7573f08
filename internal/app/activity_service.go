// internal/app/activity_service.go
package app

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"kairos_assistant_bot/internal/domain/activity"
	"kairos_assistant_bot/internal/domain/checkin"
	"kairos_assistant_bot/internal/domain/task"
)

const openTaskLimit = 10

// ActivityService turns check-in replies into classified activity log
// entries and closes out the answered prompt.
type ActivityService interface {
	// ProcessReply classifies rawText against the open tasks, persists the
	// activity log entry and marks the check-in completed. Classification
	// failures degrade to a neutral judgment; the reply is never lost.
	ProcessReply(ctx context.Context, c *checkin.CheckIn, rawText string) (*ActivityJudgment, error)
}

type ActivityServiceImpl struct {
	activityRepo activity.Repository
	checkInRepo  checkin.Repository
	taskRepo     task.Repository
	classifier   ActivityClassifier
	checkIns     CheckInService
	logger       *logrus.Entry
	now          func() time.Time
}

func NewActivityServiceImpl(
	ar activity.Repository,
	cr checkin.Repository,
	tr task.Repository,
	classifier ActivityClassifier,
	checkIns CheckInService,
	logger *logrus.Entry,
) *ActivityServiceImpl {
	return &ActivityServiceImpl{
		activityRepo: ar,
		checkInRepo:  cr,
		taskRepo:     tr,
		classifier:   classifier,
		checkIns:     checkIns,
		logger:       logger.WithField("service", "activity"),
		now:          time.Now,
	}
}

func (s *ActivityServiceImpl) ProcessReply(ctx context.Context, c *checkin.CheckIn, rawText string) (*ActivityJudgment, error) {
	openTasks, err := s.taskRepo.ListOpen(ctx, openTaskLimit)
	if err != nil {
		// Classification still works without the task list, it just cannot
		// match an aligned task.
		s.logger.WithError(err).Warn("failed to list open tasks for classification")
		openTasks = nil
	}

	judgment, err := s.classifier.Classify(ctx, rawText, openTasks)
	if err != nil {
		s.logger.WithError(err).WithField("check_in_id", c.ID).Warn("classification failed, recording neutral judgment")
		judgment = neutralJudgment(rawText)
	}

	entry := &activity.LogEntry{
		Timestamp:        s.now(),
		RawResponse:      sql.NullString{String: rawText, Valid: true},
		Summary:          judgment.Summary,
		ProductivityType: judgment.ProductivityType,
		AlignmentScore:   sql.NullInt64{Int64: int64(judgment.AlignmentScore), Valid: true},
		Category:         judgment.Category,
		Reasoning:        judgment.Reasoning,
		CheckInID:        c.ID,
	}
	if judgment.MatchedTaskID != nil {
		entry.MatchedTaskID = sql.NullInt64{Int64: *judgment.MatchedTaskID, Valid: true}
	}

	if err := s.activityRepo.Create(ctx, entry); err != nil {
		s.logger.WithError(err).WithField("check_in_id", c.ID).Error("failed to persist activity log entry")
		return nil, fmt.Errorf("persist activity entry for check-in %d: %w", c.ID, err)
	}

	if err := s.checkInRepo.MarkCompleted(ctx, c.ID, s.now()); err != nil {
		s.logger.WithError(err).WithField("check_in_id", c.ID).Error("failed to mark check-in completed")
		return nil, fmt.Errorf("complete check-in %d: %w", c.ID, err)
	}
	s.checkIns.ClearPending()

	s.logger.WithFields(logrus.Fields{
		"check_in_id":       c.ID,
		"productivity_type": judgment.ProductivityType,
		"alignment_score":   judgment.AlignmentScore,
	}).Info("check-in reply processed")
	return judgment, nil
}

// neutralJudgment is the stand-in used when classification is
// unavailable: the hour is assumed beneficial and the raw reply doubles
// as the summary.
func neutralJudgment(rawText string) *ActivityJudgment {
	summary := rawText
	if len(summary) > 100 {
		summary = summary[:100]
	}
	return &ActivityJudgment{
		Summary:          summary,
		ProductivityType: activity.TypeBeneficial,
		AlignmentScore:   5,
		Category:         "Unknown",
		Reasoning:        "Automatic classification was unavailable for this response.",
		Feedback:         "Logged! I couldn't fully analyze this one, but it's recorded.",
	}
}
