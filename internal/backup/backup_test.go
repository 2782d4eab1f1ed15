package backup

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"github.com/julianstephens/abstain/internal/constants"
)

func setupTestDB(t *testing.T) string {
	tempDir := t.TempDir()
	dbPath := filepath.Join(tempDir, "abstain.db")

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to create test database: %v", err)
	}
	defer db.Close()

	_, err = db.Exec(`CREATE TABLE kv (key TEXT PRIMARY KEY, value BLOB NOT NULL, updated_at TEXT NOT NULL)`)
	if err != nil {
		t.Fatalf("failed to create kv table: %v", err)
	}
	setValue(t, db, "streak_record", `{"version":1}`)

	return dbPath
}

func setValue(t *testing.T, db *sql.DB, key, value string) {
	_, err := db.Exec("INSERT INTO kv (key, value, updated_at) VALUES (?, ?, 'now') ON CONFLICT(key) DO UPDATE SET value = excluded.value", key, []byte(value))
	if err != nil {
		t.Fatalf("failed to write %s: %v", key, err)
	}
}

func readValue(t *testing.T, dbPath, key string) string {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	defer db.Close()

	var value []byte
	if err := db.QueryRow("SELECT value FROM kv WHERE key = ?", key).Scan(&value); err != nil {
		t.Fatalf("failed to read %s: %v", key, err)
	}
	return string(value)
}

// newTestManager returns a manager whose clock advances one second per call
func newTestManager(dbPath string) *Manager {
	mgr := NewManager(dbPath)
	current := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.Local)
	mgr.now = func() time.Time {
		current = current.Add(time.Second)
		return current
	}
	return mgr
}

func TestCreateBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	if filepath.Dir(backupPath) != filepath.Join(filepath.Dir(dbPath), constants.BackupDirName) {
		t.Errorf("backup written outside backup dir: %s", backupPath)
	}
	if !strings.HasPrefix(filepath.Base(backupPath), constants.BackupFilePrefix) {
		t.Errorf("unexpected backup name: %s", backupPath)
	}
	if got := readValue(t, backupPath, "streak_record"); got != `{"version":1}` {
		t.Errorf("backup content = %q", got)
	}
}

func TestBackupWithNoDatabase(t *testing.T) {
	mgr := NewManager(filepath.Join(t.TempDir(), "missing.db"))
	if _, err := mgr.CreateBackup(); err == nil {
		t.Error("CreateBackup should fail when the database does not exist")
	}
}

func TestBackupRotation(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)

	for i := 0; i < constants.MaxBackups+5; i++ {
		if _, err := mgr.CreateBackup(); err != nil {
			t.Fatalf("CreateBackup %d failed: %v", i, err)
		}
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != constants.MaxBackups {
		t.Errorf("expected %d backups after rotation, got %d", constants.MaxBackups, len(backups))
	}
}

func TestListBackups(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)

	empty, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(empty) != 0 {
		t.Errorf("expected no backups, got %d", len(empty))
	}

	var created []string
	for i := 0; i < 3; i++ {
		path, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup failed: %v", err)
		}
		created = append(created, path)
	}

	// Unrelated files are ignored
	os.WriteFile(filepath.Join(mgr.GetBackupDir(), "notes.txt"), []byte("x"), 0600)
	os.WriteFile(filepath.Join(mgr.GetBackupDir(), constants.BackupFilePrefix+"garbage.db"), []byte("x"), 0600)

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	if len(backups) != 3 {
		t.Fatalf("expected 3 backups, got %d", len(backups))
	}
	for i, b := range backups {
		if want := created[len(created)-1-i]; b.Path != want {
			t.Errorf("backup %d = %s, want %s (newest first)", i, b.Path, want)
		}
		if b.Size == 0 {
			t.Errorf("backup %d has zero size", i)
		}
	}
}

func TestUniqueBackupFilenames(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := NewManager(dbPath)
	fixed := time.Date(2026, time.January, 2, 3, 4, 5, 0, time.Local)
	mgr.now = func() time.Time { return fixed }

	seen := make(map[string]bool)
	for i := 0; i < 3; i++ {
		path, err := mgr.CreateBackup()
		if err != nil {
			t.Fatalf("CreateBackup failed: %v", err)
		}
		if seen[path] {
			t.Fatalf("duplicate backup path: %s", path)
		}
		seen[path] = true
	}

	backups, err := mgr.ListBackups()
	if err != nil {
		t.Fatalf("ListBackups failed: %v", err)
	}
	want := filepath.Join(mgr.GetBackupDir(), fmt.Sprintf("%s%s-2%s", constants.BackupFilePrefix, fixed.Format(timestampFormat), constants.BackupFileSuffix))
	if backups[0].Path != want {
		t.Errorf("newest backup = %s, want %s", backups[0].Path, want)
	}
}

func TestRestoreBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)

	backupPath, err := mgr.CreateBackup()
	if err != nil {
		t.Fatalf("CreateBackup failed: %v", err)
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		t.Fatalf("failed to open database: %v", err)
	}
	setValue(t, db, "streak_record", `{"version":1,"changed":true}`)
	db.Close()

	safety, err := mgr.RestoreBackup(backupPath)
	if err != nil {
		t.Fatalf("RestoreBackup failed: %v", err)
	}
	if got := readValue(t, dbPath, "streak_record"); got != `{"version":1}` {
		t.Errorf("restored content = %q", got)
	}
	if safety == "" {
		t.Fatal("expected a pre-restore backup")
	}
	if got := readValue(t, safety, "streak_record"); got != `{"version":1,"changed":true}` {
		t.Errorf("pre-restore backup content = %q", got)
	}
}

func TestRestoreWithInvalidBackup(t *testing.T) {
	dbPath := setupTestDB(t)
	mgr := newTestManager(dbPath)

	t.Run("missing file", func(t *testing.T) {
		if _, err := mgr.RestoreBackup(filepath.Join(t.TempDir(), "nope.db")); err == nil {
			t.Error("RestoreBackup should fail for a missing file")
		}
	})

	t.Run("not sqlite", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "corrupt.db")
		os.WriteFile(path, []byte("this is not a database"), 0600)
		if _, err := mgr.RestoreBackup(path); err == nil {
			t.Error("RestoreBackup should fail for a corrupted file")
		}
	})

	t.Run("foreign database", func(t *testing.T) {
		path := filepath.Join(t.TempDir(), "other.db")
		db, err := sql.Open("sqlite", path)
		if err != nil {
			t.Fatalf("failed to create database: %v", err)
		}
		db.Exec("CREATE TABLE tasks (id INTEGER)")
		db.Close()

		if _, err := mgr.RestoreBackup(path); err == nil {
			t.Error("RestoreBackup should reject a database without a kv table")
		}
	})

	if got := readValue(t, dbPath, "streak_record"); got != `{"version":1}` {
		t.Errorf("database changed by failed restore: %q", got)
	}
}

func TestResolveBackup(t *testing.T) {
	mgr := NewManager("/data/abstain.db")

	if got := mgr.ResolveBackup("abstain-20260102-030405.db"); got != filepath.Join("/data", constants.BackupDirName, "abstain-20260102-030405.db") {
		t.Errorf("ResolveBackup(name) = %s", got)
	}
	if got := mgr.ResolveBackup("/elsewhere/x.db"); got != "/elsewhere/x.db" {
		t.Errorf("ResolveBackup(path) = %s", got)
	}
}
