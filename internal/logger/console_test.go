package logger

import (
	"bytes"
	"regexp"
	"strings"
	"sync"
	"testing"

	"github.com/harrison/prunefiles/internal/models"
	"github.com/harrison/prunefiles/internal/pruner"
	"github.com/spf13/afero"
)

// TestNewConsoleLogger verifies the constructor creates a ConsoleLogger with the provided writer.
func TestNewConsoleLogger(t *testing.T) {
	t.Run("with valid writer", func(t *testing.T) {
		buf := &bytes.Buffer{}
		logger := NewConsoleLogger(buf, "info")

		if logger == nil {
			t.Fatal("expected non-nil logger")
		}
		if logger.writer != buf {
			t.Error("writer not set correctly")
		}
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
		if logger.colorOutput {
			t.Error("buffers must not get color output")
		}
	})

	t.Run("with nil writer", func(t *testing.T) {
		logger := NewConsoleLogger(nil, "info")
		if logger == nil {
			t.Fatal("expected non-nil logger even with nil writer")
		}
		// Must not panic
		logger.LogInfo("dropped")
	})

	t.Run("invalid level defaults to info", func(t *testing.T) {
		logger := NewConsoleLogger(&bytes.Buffer{}, "chatty")
		if logger.logLevel != "info" {
			t.Errorf("expected log level %q, got %q", "info", logger.logLevel)
		}
	})

	t.Run("level is case-insensitive", func(t *testing.T) {
		logger := NewConsoleLogger(&bytes.Buffer{}, " DEBUG ")
		if logger.logLevel != "debug" {
			t.Errorf("expected log level %q, got %q", "debug", logger.logLevel)
		}
	})
}

// TestLogLevelFiltering verifies messages below the configured level are dropped.
func TestLogLevelFiltering(t *testing.T) {
	tests := []struct {
		level    string
		expected []string
	}{
		{"trace", []string{"TRACE", "DEBUG", "INFO", "WARN", "ERROR"}},
		{"debug", []string{"DEBUG", "INFO", "WARN", "ERROR"}},
		{"info", []string{"INFO", "WARN", "ERROR"}},
		{"warn", []string{"WARN", "ERROR"}},
		{"error", []string{"ERROR"}},
	}

	for _, tt := range tests {
		t.Run(tt.level, func(t *testing.T) {
			buf := &bytes.Buffer{}
			logger := NewConsoleLogger(buf, tt.level)

			logger.LogTrace("t")
			logger.LogDebug("d")
			logger.LogInfo("i")
			logger.LogWarn("w")
			logger.LogError("e")

			lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
			if len(lines) != len(tt.expected) {
				t.Fatalf("expected %d lines, got %d: %q", len(tt.expected), len(lines), buf.String())
			}
			for i, level := range tt.expected {
				if !strings.Contains(lines[i], "["+level+"]") {
					t.Errorf("line %d = %q, want level %s", i, lines[i], level)
				}
			}
		})
	}
}

// TestLogFormat verifies the timestamp prefix.
func TestLogFormat(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")
	logger.LogInfo("hello")

	pattern := regexp.MustCompile(`^\[\d{2}:\d{2}:\d{2}\] \[INFO\] hello\n$`)
	if !pattern.MatchString(buf.String()) {
		t.Errorf("unexpected format: %q", buf.String())
	}
}

// TestLogRunStart verifies the run header.
func TestLogRunStart(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	logger.LogRunStart("/data", false)
	logger.LogRunStart("/data", true)

	output := buf.String()
	if !strings.Contains(output, "Pruning files in /data\n") {
		t.Errorf("missing plain header: %q", output)
	}
	if !strings.Contains(output, "Pruning files in /data (dry-run)\n") {
		t.Errorf("missing dry-run header: %q", output)
	}
}

// TestLogRunSummary verifies outcome counting.
func TestLogRunSummary(t *testing.T) {
	fs := afero.NewMemMapFs()
	rec := func(name string) *models.FileRecord { return models.NewFileRecord(fs, "/data/"+name) }

	result := &pruner.Result{
		RunID: "run-1",
		Plan: &pruner.Plan{
			Keep:     []*models.FileRecord{rec("c.log")},
			Excluded: []*models.FileRecord{rec("x.txt"), rec("y.txt")},
		},
		Removals: []pruner.Removal{
			{Record: rec("a.log"), Outcome: pruner.OutcomeFailed},
			{Record: rec("b.log"), Outcome: pruner.OutcomePending},
		},
	}

	buf := &bytes.Buffer{}
	NewConsoleLogger(buf, "info").LogRunSummary(result)

	want := "Run run-1: kept: 1, removed: 0, skipped: 0, excluded: 2, failed: 1, not attempted: 1"
	if !strings.Contains(buf.String(), want) {
		t.Errorf("summary = %q, want substring %q", buf.String(), want)
	}

	buf.Reset()
	NewConsoleLogger(buf, "info").LogRunSummary(nil)
	if buf.Len() != 0 {
		t.Errorf("nil result should log nothing, got %q", buf.String())
	}
}

// TestConsoleLoggerConcurrentWrites verifies lines are never interleaved.
func TestConsoleLoggerConcurrentWrites(t *testing.T) {
	buf := &bytes.Buffer{}
	logger := NewConsoleLogger(buf, "info")

	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			logger.LogInfo("message")
		}()
	}
	wg.Wait()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 20 {
		t.Fatalf("expected 20 lines, got %d", len(lines))
	}
	for _, line := range lines {
		if !strings.HasSuffix(line, "[INFO] message") {
			t.Errorf("garbled line: %q", line)
		}
	}
}

// TestConsoleLoggerSatisfiesPrunerLogger verifies the pruner can log through ConsoleLogger.
func TestConsoleLoggerSatisfiesPrunerLogger(t *testing.T) {
	buf := &bytes.Buffer{}
	var l pruner.Logger = NewConsoleLogger(buf, "trace")
	l.LogTrace("key")
	l.LogDebug("x")
	l.LogInfo("x")
	l.LogWarn("x")

	if got := strings.Count(buf.String(), "\n"); got != 4 {
		t.Errorf("expected 4 lines, got %d: %q", got, buf.String())
	}
}
