package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/Itish41/complytrack/initializers"
	model "github.com/Itish41/complytrack/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func runCLI(t *testing.T, args ...string) (int, string, string) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	code := run(args, &stdout, &stderr)
	return code, stdout.String(), stderr.String()
}

func TestBackupExitCodes(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "app.db")
	require.NoError(t, os.WriteFile(dbFile, []byte("data"), 0o644))

	tests := []struct {
		name     string
		url      string
		wantCode int
		wantFile bool
	}{
		{"missing url", "", 1, false},
		{"unsupported scheme", "ftp://example.com/db", 2, false},
		{"sqlite file", "sqlite:///" + dbFile, 0, true},
		{"sqlite file missing", "sqlite:///" + filepath.Join(t.TempDir(), "gone.db"), 3, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := filepath.Join(t.TempDir(), "backups")
			t.Setenv("DATABASE_URL", tt.url)
			t.Setenv("BACKUP_DIR", dir)
			t.Setenv("BACKUP_S3_BUCKET", "")

			code, stdout, stderr := runCLI(t, "backup")
			assert.Equal(t, tt.wantCode, code, stderr)

			entries, _ := os.ReadDir(dir)
			if !tt.wantFile {
				assert.Empty(t, entries)
				assert.Contains(t, stderr, "Error:")
				return
			}
			require.Len(t, entries, 1)
			assert.True(t, strings.HasPrefix(entries[0].Name(), "app_"))
			assert.True(t, strings.HasSuffix(entries[0].Name(), ".db"))
			assert.Equal(t, filepath.Join(dir, entries[0].Name()), strings.TrimSpace(stdout))
		})
	}
}

func TestMigrateAndNotify(t *testing.T) {
	dbFile := filepath.Join(t.TempDir(), "app.db")
	t.Setenv("DATABASE_URL", "sqlite:///"+dbFile)

	code, _, stderr := runCLI(t, "migrate", "up")
	require.Equal(t, 0, code, stderr)

	db, _, err := initializers.OpenDatabase("sqlite:///"+dbFile, false)
	require.NoError(t, err)
	company := &model.Company{Name: "Acme"}
	require.NoError(t, db.Create(company).Error)
	system := &model.AISystem{CompanyID: company.ID, Name: "Scorer"}
	require.NoError(t, db.Create(system).Error)
	due := time.Now().UTC().AddDate(0, 0, 2)
	reminder := 7
	require.NoError(t, db.Create(&model.ComplianceTask{
		CompanyID:          company.ID,
		AISystemID:         system.ID,
		Title:              "Risk log",
		Status:             model.TaskOpen,
		Severity:           model.SeverityMandatory,
		DueDate:            &due,
		ReminderDaysBefore: &reminder,
	}).Error)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	require.NoError(t, sqlDB.Close())

	code, stdout, stderr := runCLI(t, "notify", "generate")
	require.Equal(t, 0, code, stderr)
	var generated map[string]int
	require.NoError(t, json.Unmarshal([]byte(stdout), &generated))
	assert.Equal(t, 1, generated["queued"])

	code, stdout, stderr = runCLI(t, "notify", "send", "--company", "1")
	require.Equal(t, 0, code, stderr)
	var sent map[string]int
	require.NoError(t, json.Unmarshal([]byte(stdout), &sent))
	assert.Equal(t, 1, sent["sent"])

	code, stdout, stderr = runCLI(t, "report", "1")
	require.Equal(t, 0, code, stderr)
	assert.Contains(t, stdout, `"avg_compliance_pct": 0`)

	code, _, _ = runCLI(t, "report", "999")
	assert.Equal(t, 3, code)

	code, _, stderr = runCLI(t, "migrate", "down")
	assert.Equal(t, 3, code)
	assert.Contains(t, stderr, "only supported on postgres")
}

func TestNotifyRejectsBadCompany(t *testing.T) {
	t.Setenv("DATABASE_URL", "ftp://nowhere")
	code, _, _ := runCLI(t, "notify", "generate", "--company", "abc")
	assert.Equal(t, 3, code)

	code, _, _ = runCLI(t, "notify", "generate")
	assert.Equal(t, 2, code)
}
