package logger

import (
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"
)

func TestRedact(t *testing.T) {
	got := redact([]any{"user", "ana", "password", "hunter2", "session_token", "abc", "dangling"})
	want := []any{"user", "ana", "password", "[REDACTED]", "session_token", "[REDACTED]", "dangling"}
	if !reflect.DeepEqual(got, want) {
		t.Errorf("redact = %v, want %v", got, want)
	}
}

func TestNewWritesToFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "cognigen.log")
	l, err := New("prod", path)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	l.Info("hello", "path_id", "p1", "token", "secret")
	l.Sync()

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read log: %v", err)
	}
	out := string(data)
	if !strings.Contains(out, `"path_id":"p1"`) {
		t.Errorf("log missing path_id field: %s", out)
	}
	if strings.Contains(out, "secret") {
		t.Errorf("log leaked the token: %s", out)
	}
}

func TestOrNop(t *testing.T) {
	if OrNop(nil).SugaredLogger == nil {
		t.Error("OrNop(nil) has no sugared logger")
	}
	l := Nop()
	if OrNop(l) != l {
		t.Error("OrNop(l) did not return l")
	}
}
