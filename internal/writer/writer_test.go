package writer

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("failed to read %s: %v", path, err)
	}
	return string(data)
}

func TestDirWriter_CreateSkipUpdate(t *testing.T) {
	root := t.TempDir()
	w := NewDirWriter(root)
	full := filepath.Join(root, "Raindrop", "Dev", "Go", "Note.md")

	tests := []struct {
		name      string
		content   string
		overwrite bool
		want      Outcome
		onDisk    string
	}{
		{"create", "one", false, Created, "one"},
		{"skip existing", "two", false, Skipped, "one"},
		{"update existing", "three", true, Updated, "three"},
	}

	for _, tt := range tests {
		got, err := w.Write("Raindrop/Dev/Go/Note.md", tt.content, tt.overwrite)
		if err != nil {
			t.Fatalf("%s: Write failed: %v", tt.name, err)
		}
		if got != tt.want {
			t.Errorf("%s: outcome = %v, want %v", tt.name, got, tt.want)
		}
		if disk := readFile(t, full); disk != tt.onDisk {
			t.Errorf("%s: file contains %q, want %q", tt.name, disk, tt.onDisk)
		}
	}
}

func TestDirWriter_CreatesRootAndParents(t *testing.T) {
	root := filepath.Join(t.TempDir(), "vault")
	w := NewDirWriter(root)

	if err := w.EnsureDir("a//b/c/"); err != nil {
		t.Fatalf("EnsureDir failed: %v", err)
	}
	info, err := os.Stat(filepath.Join(root, "a", "b", "c"))
	if err != nil || !info.IsDir() {
		t.Fatalf("expected a/b/c to be a directory, err=%v", err)
	}

	if err := w.EnsureDir("a/b"); err != nil {
		t.Errorf("EnsureDir on existing directories failed: %v", err)
	}
}

func TestDirWriter_FileInTheWay(t *testing.T) {
	root := t.TempDir()
	if err := os.WriteFile(filepath.Join(root, "a"), []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	w := NewDirWriter(root)

	if err := w.EnsureDir("a/b"); !errors.Is(err, ErrNotDir) {
		t.Errorf("expected ErrNotDir, got %v", err)
	}
	if _, err := w.Write("a/b/note.md", "x", false); !errors.Is(err, ErrNotDir) {
		t.Errorf("expected ErrNotDir from Write, got %v", err)
	}
}

func TestDirWriter_EmptyPath(t *testing.T) {
	if _, err := NewDirWriter(t.TempDir()).Write("/", "x", false); err == nil {
		t.Error("expected error for empty path")
	}
}

func TestOutcome_String(t *testing.T) {
	for o, want := range map[Outcome]string{Created: "created", Updated: "updated", Skipped: "skipped", Outcome(9): "unknown"} {
		if got := o.String(); got != want {
			t.Errorf("Outcome(%d).String() = %q, want %q", o, got, want)
		}
	}
}
