package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"brainbuzz/internal/domain"
	transport "brainbuzz/internal/transport/http"
)

func TestTokenCommandIssuesVerifiableToken(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("auth:\n  jwt_secret: cli-secret\n  token_ttl: 1h\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := NewTokenCmd(&path)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetArgs([]string{"--user", "instructor-1", "--role", "instructor"})
	if err := cmd.Execute(); err != nil {
		t.Fatalf("execute: %v", err)
	}

	actor, err := transport.NewAuthenticator("cli-secret").Verify(strings.TrimSpace(out.String()))
	if err != nil {
		t.Fatalf("verify: %v", err)
	}
	if actor.UserID != "instructor-1" || actor.Role != domain.RoleInstructor {
		t.Fatalf("unexpected actor %+v", actor)
	}
}

func TestTokenCommandRequiresSecret(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(path, []byte("log:\n  level: debug\n"), 0o600); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cmd := NewTokenCmd(&path)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{"--user", "u1"})
	if err := cmd.Execute(); err == nil {
		t.Fatalf("expected missing secret to fail")
	}
}
