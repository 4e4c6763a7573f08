package vault

import (
	"database/sql"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"kairos_assistant_bot/internal/domain/task"
)

func testLogger() *logrus.Entry {
	l := logrus.New()
	l.SetLevel(logrus.PanicLevel)
	return logrus.NewEntry(l)
}

func newTestWriter(t *testing.T) (*Writer, string) {
	t.Helper()
	dir := t.TempDir()
	w, err := NewWriter(dir, testLogger())
	require.NoError(t, err)
	return w, dir
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	return string(data)
}

func TestNewWriterRejectsMissingPath(t *testing.T) {
	_, err := NewWriter(filepath.Join(t.TempDir(), "nope"), testLogger())
	assert.Error(t, err)
}

func TestAppendTaskCreatesFileWithHeader(t *testing.T) {
	w, dir := newTestWriter(t)

	err := w.AppendTask(&task.Task{
		ID:          1,
		Name:        "Write report",
		Category:    "Work",
		Priority:    task.PriorityHigh,
		Status:      task.StatusPending,
		DueDate:     sql.NullString{String: "2026-03-10", Valid: true},
		DueTime:     sql.NullString{String: "17:00", Valid: true},
		IsScheduled: true,
		Reasoning:   "Quarterly deadline",
	})
	require.NoError(t, err)

	content := readFile(t, filepath.Join(dir, "To Do", "TO-DO List.md"))
	assert.Contains(t, content, "# 📋 TO-DO List")
	assert.Contains(t, content, "| ID | Task | Priority | Status | Category | Due Date | Due Time | Reasoning |")
	assert.Contains(t, content, "| 1 | Write report | HIGH | Pending | Work | 10-03-2026 | 5:00 PM | Quarterly deadline |")
}

func TestAppendTaskEscapesPipes(t *testing.T) {
	w, dir := newTestWriter(t)

	require.NoError(t, w.AppendTask(&task.Task{
		ID:       2,
		Name:     "review a|b split",
		Category: "Work",
		Priority: task.PriorityLow,
		Status:   task.StatusPending,
	}))

	content := readFile(t, filepath.Join(dir, "To Do", "TO-DO List.md"))
	assert.Contains(t, content, `review a\|b split`)
}

func TestAppendTaskUnscheduledDisplay(t *testing.T) {
	w, dir := newTestWriter(t)

	require.NoError(t, w.AppendTask(&task.Task{
		ID:       3,
		Name:     "Call dentist",
		Category: "Health",
		Priority: task.PriorityMedium,
		Status:   task.StatusPending,
	}))

	content := readFile(t, filepath.Join(dir, "To Do", "TO-DO List.md"))
	assert.Contains(t, content, "| 📅 Unscheduled | — |")
}

func TestSyncAllRewritesBothFiles(t *testing.T) {
	w, dir := newTestWriter(t)

	// Pre-existing content must not survive a sync.
	require.NoError(t, w.AppendTask(&task.Task{ID: 9, Name: "Stale row", Status: task.StatusPending}))

	active := []*task.Task{
		{
			ID:         4,
			Name:       "Morning run",
			Category:   "Health",
			Priority:   task.PriorityMedium,
			Status:     task.StatusPending,
			Recurrence: sql.NullString{String: "daily", Valid: true},
		},
	}
	completed := []*task.Task{
		{
			ID:          5,
			Name:        "File taxes",
			Category:    "Finance",
			Priority:    task.PriorityHigh,
			Status:      task.StatusCompleted,
			CompletedAt: sql.NullTime{Time: time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC), Valid: true},
		},
	}
	require.NoError(t, w.SyncAll(active, completed))

	todo := readFile(t, filepath.Join(dir, "To Do", "TO-DO List.md"))
	assert.NotContains(t, todo, "Stale row")
	assert.Contains(t, todo, "Morning run 🔁")

	done := readFile(t, filepath.Join(dir, "To Do", "Completed Tasks.md"))
	assert.Contains(t, done, "# ✅ Recently Completed")
	assert.Contains(t, done, "| 5 | File taxes | 02-03-2026 14:30 | Finance | HIGH |")
}

func TestSyncAllSkipsCompletedFileWhenEmpty(t *testing.T) {
	w, dir := newTestWriter(t)

	require.NoError(t, w.SyncAll(nil, nil))

	_, err := os.Stat(filepath.Join(dir, "To Do", "Completed Tasks.md"))
	assert.True(t, os.IsNotExist(err))

	todo := readFile(t, filepath.Join(dir, "To Do", "TO-DO List.md"))
	assert.Contains(t, todo, "# 📋 TO-DO List")
}
