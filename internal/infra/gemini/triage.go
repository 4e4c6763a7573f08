// internal/infra/gemini/triage.go
package gemini

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"

	"kairos_assistant_bot/internal/app"
	"kairos_assistant_bot/internal/domain/task"
)

// TaskTriager turns free-text task descriptions into structured task
// records using the Gemini API.
type TaskTriager struct {
	client *Client
	logger *logrus.Entry
	now    func() time.Time
}

func NewTaskTriager(client *Client, logger *logrus.Entry) *TaskTriager {
	return &TaskTriager{
		client: client,
		logger: logger.WithField("component", "task_triager"),
		now:    time.Now,
	}
}

func (t *TaskTriager) Triage(ctx context.Context, rawText string) (*app.TaskTriage, error) {
	prompt := buildTriagePrompt(rawText, t.now())

	raw, err := t.client.GenerateText(ctx, prompt)
	if err != nil {
		t.logger.WithError(err).Warn("task triage call failed")
		return nil, err
	}

	var triage app.TaskTriage
	if err := extractJSON(raw, &triage); err != nil {
		t.logger.WithError(err).WithField("raw", truncate(raw, 200)).Warn("task triage returned unparseable output")
		return nil, err
	}

	switch task.Priority(triage.Priority) {
	case task.PriorityHigh, task.PriorityMedium, task.PriorityLow:
	default:
		triage.Priority = string(task.PriorityMedium)
	}
	if triage.TaskName == "" {
		triage.TaskName = truncate(rawText, 100)
	}
	if triage.Category == "" {
		triage.Category = "Unknown"
	}
	if triage.AlignmentScore < 1 || triage.AlignmentScore > 10 {
		triage.AlignmentScore = 5
	}

	return &triage, nil
}

func buildTriagePrompt(rawText string, now time.Time) string {
	return fmt.Sprintf(`You are a personal assistant triaging a new task for someone's to-do list.

TODAY is %s (%s).

NEW TASK (verbatim from the user):
%s

Respond with ONLY a valid JSON object, no markdown, no explanation:

{
  "task_name": "concise imperative task name",
  "category": "short category label, e.g. Work, Health, Errands",
  "priority": "HIGH" | "MEDIUM" | "LOW",
  "due_date": "YYYY-MM-DD or null if no date was given",
  "due_time": "HH:MM (24h) or null if no time was given",
  "recurrence": "daily" | "weekly" | null,
  "scheduling_unclear": true if they implied timing but it cannot be resolved to a date,
  "reasoning": "one sentence on the priority choice",
  "alignment_score": <integer 1-10, how much this advances meaningful goals>,
  "pushback": "one sentence challenging a low-value task, or null",
  "suggested_alternative": "a higher-value alternative, or null",
  "clarification_needed": "a question to ask them, or null"
}

RULES:
- Resolve relative dates ("tomorrow", "next friday") against TODAY.
- priority HIGH for deadline-driven or high-stakes work, LOW for optional or trivial items.
- Only set pushback/suggested_alternative when alignment_score is 3 or below.`,
		now.Format("2006-01-02"), now.Weekday(), rawText)
}
