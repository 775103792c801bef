package naming

import (
	"strings"
	"testing"
	"time"

	"github.com/nikbrunner/rainmd/internal/model"
)

func TestSanitizeFileName(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"My: Note?", "My Note"},
		{"a/b\\c", "abc"},
		{`quote"s <and> pipes|`, "quotes and pipes"},
		{"#tag %20 & {x} $y! @z 'q' `b` +=", "tag 20  x y z q b"},
		{"  spaced  ", "spaced"},
		{"", "Unnamed_Raindrop"},
		{"   ", "Unnamed_Raindrop"},
		{"???", "Unnamed_Raindrop"},
		{"Grüße aus Köln", "Grüße aus Köln"},
		{"..", "Unnamed_Raindrop"},
		{".", "Unnamed_Raindrop"},
		{" ... ", "Unnamed_Raindrop"},
		{"v1.2", "v1.2"},
		{"..hidden", "..hidden"},
	}

	for _, tt := range tests {
		if got := SanitizeFileName(tt.in); got != tt.want {
			t.Errorf("SanitizeFileName(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSanitizeFileName_Cap(t *testing.T) {
	got := SanitizeFileName(strings.Repeat("ä", 250))
	if n := len([]rune(got)); n != MaxNameLength {
		t.Errorf("expected %d characters, got %d", MaxNameLength, n)
	}
}

func TestGenerateFilename(t *testing.T) {
	tests := []struct {
		name     string
		r        model.Raindrop
		useTitle bool
		want     string
	}{
		{"title", model.Raindrop{ID: 42, Title: "My: Note?"}, true, "My Note"},
		{"id", model.Raindrop{ID: 42, Title: "My: Note?"}, false, "42"},
		{"untitled", model.Raindrop{ID: 42}, true, "Untitled"},
		{"illegal only", model.Raindrop{ID: 42, Title: "?!"}, true, "Unnamed_Raindrop"},
		{"dots only", model.Raindrop{ID: 42, Title: ".."}, true, "Unnamed_Raindrop"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := GenerateFilename(tt.r, tt.useTitle); got != tt.want {
				t.Errorf("GenerateFilename() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestFilename_Placeholders(t *testing.T) {
	r := model.Raindrop{
		ID:         7,
		Title:      "Go Tips",
		Created:    "2025-03-04T23:30:00.000Z",
		Collection: &model.CollectionRef{ID: 1, Title: "Dev/Go"},
	}

	tests := []struct {
		tmpl string
		want string
	}{
		{"{{date}} {{title}}", "2025-03-04 Go Tips"},
		{"{{TITLE}}-{{Id}}", "Go Tips-7"},
		{"{{collectionTitle}} - {{title}}", "DevGo - Go Tips"},
		{"{{unknown}} {{title}}", "unknown Go Tips"},
		{"", "Go Tips"},
	}

	for _, tt := range tests {
		if got := Filename(r, tt.tmpl, true); got != tt.want {
			t.Errorf("Filename(%q) = %q, want %q", tt.tmpl, got, tt.want)
		}
	}
}

func TestFilename_Fallbacks(t *testing.T) {
	r := model.Raindrop{ID: 9, Created: "not a date"}
	if got := Filename(r, "{{date}}|{{collectionTitle}}", true); got != "no_dateNo Collection" {
		t.Errorf("got %q, want %q", got, "no_dateNo Collection")
	}

	if got := Filename(model.Raindrop{ID: 9}, "???", true); got != "Unnamed_Raindrop_9" {
		t.Errorf("got %q, want %q", got, "Unnamed_Raindrop_9")
	}

	old := now
	now = func() time.Time { return time.UnixMilli(1700000000000) }
	defer func() { now = old }()

	if got := Filename(model.Raindrop{}, "???", true); got != "Unnamed_Raindrop_1700000000000" {
		t.Errorf("got %q, want %q", got, "Unnamed_Raindrop_1700000000000")
	}
}

func TestNormalizePath(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"", ""},
		{".", ""},
		{"/", ""},
		{"Raindrop//Reading/", "Raindrop/Reading"},
		{`Raindrop\Reading`, "Raindrop/Reading"},
		{"./a/../b", "b"},
	}

	for _, tt := range tests {
		if got := NormalizePath(tt.in); got != tt.want {
			t.Errorf("NormalizePath(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestTargetDirAndNotePath(t *testing.T) {
	dir := TargetDir("Raindrop/", []string{"Root", "Mid", "Leaf"})
	if dir != "Raindrop/Root/Mid/Leaf" {
		t.Errorf("TargetDir = %q", dir)
	}
	if got := TargetDir("", nil); got != "" {
		t.Errorf("TargetDir of nothing = %q, want empty", got)
	}
	if got := NotePath(dir, "Note"); got != "Raindrop/Root/Mid/Leaf/Note.md" {
		t.Errorf("NotePath = %q", got)
	}
	if got := NotePath("", "Note"); got != "Note.md" {
		t.Errorf("NotePath at root = %q", got)
	}
}

func TestTargetDir_DotSegmentsStayInsideBase(t *testing.T) {
	tests := []struct {
		segments []string
		want     string
	}{
		{[]string{".."}, "Raindrop/Imports/Unnamed_Raindrop"},
		{[]string{"."}, "Raindrop/Imports/Unnamed_Raindrop"},
		{[]string{"Root", "..", ".."}, "Raindrop/Imports/Root/Unnamed_Raindrop/Unnamed_Raindrop"},
	}

	for _, tt := range tests {
		if got := TargetDir("Raindrop/Imports", tt.segments); got != tt.want {
			t.Errorf("TargetDir(%q) = %q, want %q", tt.segments, got, tt.want)
		}
	}
}
