package config

import (
	"os"
	"path/filepath"
	"testing"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 8080 {
		t.Errorf("Server.Port = %d, want 8080", cfg.Server.Port)
	}
	if cfg.Database.Driver != "sqlite" {
		t.Errorf("Database.Driver = %q, want sqlite", cfg.Database.Driver)
	}
	if cfg.Client.APIBaseURL != "http://localhost:8080" {
		t.Errorf("Client.APIBaseURL = %q", cfg.Client.APIBaseURL)
	}
	if cfg.Auth.Enabled() {
		t.Error("Auth.Enabled() = true with no secret configured")
	}
}

func TestLoad_FromFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mindplace.yaml")
	content := `
server:
  port: 9090
database:
  driver: none
client:
  api_base_url: http://example.com:9090
auth:
  secret: a-secret-of-sixteen-chars
  password_hash: $2a$04$fakehashfortests
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}
	if cfg.Server.Port != 9090 {
		t.Errorf("Server.Port = %d, want 9090", cfg.Server.Port)
	}
	if cfg.Database.Driver != "none" {
		t.Errorf("Database.Driver = %q, want none", cfg.Database.Driver)
	}
	if cfg.Client.APIBaseURL != "http://example.com:9090" {
		t.Errorf("Client.APIBaseURL = %q", cfg.Client.APIBaseURL)
	}
	if !cfg.Auth.Enabled() {
		t.Error("Auth.Enabled() = false with secret and hash configured")
	}
}

func TestLoad_InvalidDriver(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mindplace.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: mongodb\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted an unknown database driver")
	}
}

func TestLoad_PostgresRequiresURL(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "mindplace.yaml")
	if err := os.WriteFile(path, []byte("database:\n  driver: postgres\n"), 0o644); err != nil {
		t.Fatalf("writing config file: %v", err)
	}

	if _, err := Load(path); err == nil {
		t.Error("Load() accepted driver postgres without a URL")
	}
}

func TestExpandPath_Home(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	got := expandPath("~/data")
	want := filepath.Join(home, "data")
	if got != want {
		t.Errorf("expandPath(~/data) = %q, want %q", got, want)
	}
}
