package shared

import (
	"bytes"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
)

func TestParseLogLevel(t *testing.T) {
	tc := []struct {
		name  string
		input string
		want  log.Level
	}{
		{name: "debug", input: "debug", want: log.DebugLevel},
		{name: "warn", input: "warn", want: log.WarnLevel},
		{name: "empty falls back to info", input: "", want: log.InfoLevel},
		{name: "garbage falls back to info", input: "loud", want: log.InfoLevel},
	}

	for _, tt := range tc {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLogLevel(tt.input); got != tt.want {
				t.Errorf("ParseLogLevel(%q) = %v, want %v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLogger(t *testing.T) {
	t.Run("WithLogger adds fields", func(t *testing.T) {
		var buf bytes.Buffer
		logger := WithLogger(NewLogger(&buf), "run", "abc123")
		logger.Info("ingest finished")

		out := buf.String()
		if !strings.Contains(out, "ingest finished") {
			t.Errorf("expected message in output, got %q", out)
		}
		if !strings.Contains(out, "run=abc123") {
			t.Errorf("expected run field in output, got %q", out)
		}
	})

	t.Run("RunID", func(t *testing.T) {
		a, b := RunID(), RunID()
		if len(a) != 8 {
			t.Errorf("expected 8 character run id, got %q", a)
		}
		if a == b {
			t.Errorf("expected distinct run ids, got %q twice", a)
		}
	})
}

func TestBrowser(t *testing.T) {
	tc := []struct {
		platform string
		want     string
		wantErr  bool
	}{
		{platform: "darwin", want: "open"},
		{platform: "linux", want: "xdg-open"},
		{platform: "windows", want: "rundll32"},
		{platform: "plan9", wantErr: true},
	}

	for _, tt := range tc {
		t.Run(tt.platform, func(t *testing.T) {
			cmd, err := browserCommand(tt.platform, "https://example.com")
			if tt.wantErr {
				if err == nil {
					t.Fatalf("expected error for %s", tt.platform)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if cmd.Args[0] != tt.want {
				t.Errorf("expected %s, got %s", tt.want, cmd.Args[0])
			}
			if last := cmd.Args[len(cmd.Args)-1]; last != "https://example.com" {
				t.Errorf("expected url as last argument, got %s", last)
			}
		})
	}

	t.Run("GenerateState", func(t *testing.T) {
		s := GenerateState()
		if len(s) != 32 || strings.Contains(s, "-") {
			t.Errorf("unexpected state %q", s)
		}
	})
}
