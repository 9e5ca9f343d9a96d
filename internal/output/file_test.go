package output

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"dockersentinel/internal/engine"
	"dockersentinel/internal/rules"
)

func TestNewFileSink_Format(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		path    string
		format  string
		want    string
		wantErr bool
	}{
		{name: "json extension", path: "a.json", want: "json"},
		{name: "ndjson extension", path: "a.ndjson", want: "ndjson"},
		{name: "jsonl extension", path: "a.JSONL", want: "ndjson"},
		{name: "explicit format wins", path: "a.out", format: "ndjson", want: "ndjson"},
		{name: "unknown extension", path: "a.txt", wantErr: true},
		{name: "unsupported format", path: "a.json", format: "yaml", wantErr: true},
		{name: "empty path", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			path := tt.path
			if path != "" {
				path = filepath.Join(dir, tt.name, path)
			}
			s, err := NewFileSink(path, tt.format)
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewFileSink: %v", err)
			}
			defer s.Close()
			if s.format != tt.want {
				t.Fatalf("format = %s, want %s", s.format, tt.want)
			}
		})
	}
}

func TestFileSink_JSONAlwaysArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "audit.json")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Write(RunStarted(2, 5))
	_ = s.Write(testReport("Dockerfile", finding("CIS-4.1", rules.SeverityCritical, "root")))
	_ = s.Write(errorReport("gone/Dockerfile"))
	_ = s.Write(RunFinished(2, engine.ExitOperational))
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	var got []map[string]any
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("not a JSON array: %v\n%s", err, data)
	}
	if len(got) != 2 || got[0]["file"] != "Dockerfile" || got[1]["status"] != "error" {
		t.Fatalf("unexpected reports %v", got)
	}
}

func TestFileSink_JSONEmptyRunIsEmptyArray(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.json")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}
	data, _ := os.ReadFile(path)
	if strings.TrimSpace(string(data)) != "[]" {
		t.Fatalf("got %q", data)
	}
}

func TestFileSink_NDJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "audit.ndjson")
	s, err := NewFileSink(path, "")
	if err != nil {
		t.Fatal(err)
	}
	_ = s.Write(RunStarted(1, 5))
	_ = s.Write(testReport("Dockerfile"))
	_ = s.Write(RunFinished(1, engine.ExitOK))
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	data, _ := os.ReadFile(path)
	lines := strings.Split(strings.TrimSpace(string(data)), "\n")
	want := []string{EventRunStarted, EventFileReport, EventRunFinished}
	if len(lines) != len(want) {
		t.Fatalf("expected %d lines, got %q", len(want), data)
	}
	for i, w := range want {
		var e Event
		if err := json.Unmarshal([]byte(lines[i]), &e); err != nil {
			t.Fatalf("line %d: %v", i, err)
		}
		if e.Type != w {
			t.Fatalf("line %d type = %s, want %s", i, e.Type, w)
		}
	}
}
