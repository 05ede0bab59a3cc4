package logtail

import (
	"fmt"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func writeLog(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "postboard.log")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to create test log file: %v", err)
	}
	return path
}

func TestRead(t *testing.T) {
	var content strings.Builder
	var all []string
	for i := 1; i <= 10; i++ {
		line := fmt.Sprintf("Line %d", i)
		content.WriteString(line + "\n")
		all = append(all, line)
	}
	logPath := writeLog(t, content.String())

	tests := []struct {
		name     string
		maxLines int
		expected []string
	}{
		{"zero", 0, nil},
		{"negative", -1, nil},
		{"partial", 5, all[5:]},
		{"exact", 10, all},
		{"more than exists", 20, all},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Read(logPath, tt.maxLines)
			if err != nil {
				t.Fatalf("Read() error = %v", err)
			}
			if !reflect.DeepEqual(got, tt.expected) {
				t.Errorf("Read() = %v, want %v", got, tt.expected)
			}
		})
	}
}

func TestRead_SpansBlocks(t *testing.T) {
	var content strings.Builder
	for i := 0; i < 2000; i++ {
		fmt.Fprintf(&content, "record %04d %s\n", i, strings.Repeat("x", 40))
	}
	got, err := Read(writeLog(t, content.String()), 3)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if len(got) != 3 || !strings.HasPrefix(got[0], "record 1997 ") || !strings.HasPrefix(got[2], "record 1999 ") {
		t.Fatalf("Read() = %v, want the last three records", got)
	}
}

func TestRead_NoTrailingNewlineAndCRLF(t *testing.T) {
	got, err := Read(writeLog(t, "a\r\nb\r\nc"), 2)
	if err != nil {
		t.Fatalf("Read() error = %v", err)
	}
	if !reflect.DeepEqual(got, []string{"b", "c"}) {
		t.Fatalf("Read() = %q, want [b c]", got)
	}
}

func TestRead_MissingOrEmptyFile(t *testing.T) {
	got, err := Read(filepath.Join(t.TempDir(), "absent.log"), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(missing) = %v, %v; want nil, nil", got, err)
	}
	got, err = Read(writeLog(t, ""), 10)
	if err != nil || got != nil {
		t.Fatalf("Read(empty) = %v, %v; want nil, nil", got, err)
	}
}

func TestLevel(t *testing.T) {
	tests := []struct {
		line string
		want string
	}{
		{`time=2026-01-02T10:00:00Z level=INFO msg="fetch posts"`, "INFO"},
		{`time=2026-01-02T10:00:00Z level=ERROR msg="create post failed" error=boom`, "ERROR"},
		{`time=2026-01-02T10:00:00Z level=warn msg=x`, "WARN"},
		{`plain text line`, ""},
	}
	for _, tt := range tests {
		if got := Level(tt.line); got != tt.want {
			t.Errorf("Level(%q) = %q, want %q", tt.line, got, tt.want)
		}
	}
}
