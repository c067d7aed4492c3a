package logger

import (
	"bytes"
	"context"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestNewWithWriter(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf, false)

	log.Debug().Msg("hidden")
	log.Info().Msg("test message")

	output := buf.String()
	if !strings.Contains(output, "test message") {
		t.Errorf("Expected output to contain 'test message', got: %s", output)
	}
	if strings.Contains(output, "hidden") {
		t.Errorf("Expected debug message to be filtered, got: %s", output)
	}
}

func TestNewWithWriter_Verbose(t *testing.T) {
	buf := &bytes.Buffer{}
	log := NewWithWriter(buf, true)
	log.Debug().Msg("shown")
	if !strings.Contains(buf.String(), "shown") {
		t.Errorf("Expected debug message in verbose mode, got: %s", buf.String())
	}
}

func TestFromContext(t *testing.T) {
	buf := &bytes.Buffer{}
	ctx := WithContext(context.Background(), NewWithWriter(buf, false))

	retrieved := FromContext(ctx)
	retrieved.Info().Msg("test")

	if buf.Len() == 0 {
		t.Error("Expected log output from retrieved logger")
	}
}

func TestFromContext_Default(t *testing.T) {
	log := FromContext(context.Background())
	if log.GetLevel() != zerolog.Disabled {
		t.Errorf("Expected the default logger to be disabled, got level %v", log.GetLevel())
	}
}

func TestForAccount(t *testing.T) {
	buf := &bytes.Buffer{}
	log := ForAccount(NewWithWriter(buf, false), "alice", "account.json")
	log.Info().Msg("saved")

	output := buf.String()
	for _, want := range []string{`"user_id":"alice"`, `"file":"account.json"`} {
		if !strings.Contains(output, want) {
			t.Errorf("Expected output to contain %s, got: %s", want, output)
		}
	}
}
