// internal/infra/gemini/classifier.go
package gemini

import (
	"context"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"

	"kairos_assistant_bot/internal/app"
	"kairos_assistant_bot/internal/domain/activity"
	"kairos_assistant_bot/internal/domain/task"
)

// ActivityClassifier judges hourly check-in replies against the open
// task list using the Gemini API.
type ActivityClassifier struct {
	client *Client
	logger *logrus.Entry
}

func NewActivityClassifier(client *Client, logger *logrus.Entry) *ActivityClassifier {
	return &ActivityClassifier{
		client: client,
		logger: logger.WithField("component", "activity_classifier"),
	}
}

func (c *ActivityClassifier) Classify(ctx context.Context, rawText string, openTasks []*task.Task) (*app.ActivityJudgment, error) {
	prompt := buildClassifyPrompt(rawText, openTasks)

	raw, err := c.client.GenerateText(ctx, prompt)
	if err != nil {
		c.logger.WithError(err).Warn("activity classification call failed")
		return nil, err
	}

	var judgment app.ActivityJudgment
	if err := extractJSON(raw, &judgment); err != nil {
		c.logger.WithError(err).WithField("raw", truncate(raw, 200)).Warn("activity classification returned unparseable output")
		return nil, err
	}

	switch judgment.ProductivityType {
	case activity.TypeAligned, activity.TypeBeneficial, activity.TypeWasted:
	default:
		judgment.ProductivityType = activity.TypeBeneficial
	}
	if judgment.AlignmentScore < 1 || judgment.AlignmentScore > 10 {
		judgment.AlignmentScore = 5
	}
	if judgment.Category == "" {
		judgment.Category = "Unknown"
	}
	if judgment.Summary == "" {
		judgment.Summary = truncate(rawText, 100)
	}

	return &judgment, nil
}

func buildClassifyPrompt(rawText string, openTasks []*task.Task) string {
	var tasks strings.Builder
	if len(openTasks) == 0 {
		tasks.WriteString("(no open tasks)")
	}
	for _, t := range openTasks {
		fmt.Fprintf(&tasks, "- [id %d] %s (%s, %s)\n", t.ID, t.Name, t.Category, t.Priority)
	}

	return fmt.Sprintf(`You are a productivity coach reviewing how someone spent the last hour.

THEIR REPORT:
%s

THEIR OPEN TASKS:
%s

Classify the hour. Respond with ONLY a valid JSON object, no markdown, no explanation:

{
  "activity_summary": "short neutral summary of what they did",
  "productivity_type": "aligned" | "beneficial" | "wasted",
  "matched_task_id": <id of the open task this advances, or null>,
  "alignment_score": <integer 1-10>,
  "category": "short category label, e.g. Work, Health, Leisure",
  "reasoning": "one sentence explaining the classification",
  "feedback": "one short encouraging or corrective sentence addressed to them"
}

RULES:
- "aligned" means the hour directly advanced one of their open tasks; set matched_task_id.
- "beneficial" means useful but not tied to an open task (rest, chores, exercise); matched_task_id is null.
- "wasted" means idle scrolling, procrastination, or similar; matched_task_id is null.
- alignment_score reflects how well the hour served their stated goals: 8-10 aligned, 4-7 beneficial, 1-3 wasted.`, rawText, tasks.String())
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n]
}
