// internal/infra/vault/writer.go
package vault

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"kairos_assistant_bot/internal/domain/task"
)

const (
	todoHeader = "# 📋 TO-DO List\n\n" +
		"| ID | Task | Priority | Status | Category | Due Date | Due Time | Reasoning |\n" +
		"| :--- | :--- | :--- | :--- | :--- | :--- | :--- | :--- |\n"

	completedHeader = "# ✅ Recently Completed\n\n" +
		"| ID | Task | Completed At | Category | Priority |\n" +
		"| :--- | :--- | :--- | :--- | :--- |\n"
)

// Writer mirrors the task list into a markdown knowledge base directory.
// The mirror is cosmetic: the database stays the source of truth, so all
// write failures are logged and reported but never block task flow.
type Writer struct {
	todoPath      string
	completedPath string
	logger        *logrus.Entry
}

func NewWriter(vaultPath string, logger *logrus.Entry) (*Writer, error) {
	if _, err := os.Stat(vaultPath); err != nil {
		return nil, fmt.Errorf("vault path %q: %w", vaultPath, err)
	}

	dir := filepath.Join(vaultPath, "To Do")
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create vault subdirectory: %w", err)
	}

	return &Writer{
		todoPath:      filepath.Join(dir, "TO-DO List.md"),
		completedPath: filepath.Join(dir, "Completed Tasks.md"),
		logger:        logger.WithField("component", "vault_writer"),
	}, nil
}

// AppendTask appends one task row to the to-do file, creating it with a
// table header on first use.
func (w *Writer) AppendTask(t *task.Task) error {
	if _, err := os.Stat(w.todoPath); os.IsNotExist(err) {
		if err := os.WriteFile(w.todoPath, []byte(todoHeader), 0o644); err != nil {
			return fmt.Errorf("create to-do file: %w", err)
		}
	}

	f, err := os.OpenFile(w.todoPath, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return fmt.Errorf("open to-do file: %w", err)
	}
	defer f.Close()

	if _, err := f.WriteString(taskRow(t)); err != nil {
		return fmt.Errorf("append task row: %w", err)
	}
	return nil
}

// SyncAll rewrites both files from the given database views so the mirror
// matches the store after completions, edits, or recurrence rollovers.
func (w *Writer) SyncAll(active, completed []*task.Task) error {
	var todo strings.Builder
	todo.WriteString(todoHeader)
	for _, t := range active {
		todo.WriteString(taskRow(t))
	}
	if err := os.WriteFile(w.todoPath, []byte(todo.String()), 0o644); err != nil {
		return fmt.Errorf("rewrite to-do file: %w", err)
	}

	if len(completed) > 0 {
		var done strings.Builder
		done.WriteString(completedHeader)
		for _, t := range completed {
			done.WriteString(completedRow(t))
		}
		if err := os.WriteFile(w.completedPath, []byte(done.String()), 0o644); err != nil {
			return fmt.Errorf("rewrite completed file: %w", err)
		}
	}
	return nil
}

func taskRow(t *task.Task) string {
	name := escapePipes(t.Name)
	if t.Recurrence.Valid && t.Recurrence.String != "" {
		name += " 🔁"
	}
	reasoning := escapePipes(strings.ReplaceAll(t.Reasoning, "\n", " "))
	dateDisplay, timeDisplay := dueDisplay(t)

	return fmt.Sprintf("| %d | %s | %s | %s | %s | %s | %s | %s |\n",
		t.ID, name, t.Priority, t.Status, t.Category, dateDisplay, timeDisplay, reasoning)
}

func completedRow(t *task.Task) string {
	completedAt := "—"
	if t.CompletedAt.Valid {
		completedAt = t.CompletedAt.Time.Format("02-01-2006 15:04")
	}
	return fmt.Sprintf("| %d | %s | %s | %s | %s |\n",
		t.ID, escapePipes(t.Name), completedAt, t.Category, t.Priority)
}

// dueDisplay renders due dates as DD-MM-YYYY and times as 12-hour clock.
// Values that fail to parse pass through unchanged.
func dueDisplay(t *task.Task) (string, string) {
	if !t.IsScheduled || !t.DueDate.Valid || t.DueDate.String == "" {
		return "📅 Unscheduled", "—"
	}

	dateDisplay := t.DueDate.String
	if d, err := time.Parse("2006-01-02", t.DueDate.String); err == nil {
		dateDisplay = d.Format("02-01-2006")
	}

	timeDisplay := "—"
	if t.DueTime.Valid && t.DueTime.String != "" {
		timeDisplay = t.DueTime.String
		if parsed, err := time.Parse("15:04", t.DueTime.String); err == nil {
			timeDisplay = strings.TrimPrefix(parsed.Format("3:04 PM"), "0")
		}
	}

	return dateDisplay, timeDisplay
}

func escapePipes(s string) string {
	return strings.ReplaceAll(s, "|", "\\|")
}
