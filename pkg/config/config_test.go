package config

import (
	"errors"
	"os"
	"path/filepath"
	"testing"
)

type sample struct {
	Name string `yaml:"name"`
	Port int    `yaml:"port"`
}

func (s *sample) Validate() error {
	if s.Port <= 0 {
		return errors.New("port must be positive")
	}
	return nil
}

func writeFile(t *testing.T, body string) string {
	t.Helper()
	p := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(p, []byte(body), 0o644); err != nil {
		t.Fatal(err)
	}
	return p
}

func TestLoad_ExpandsEnv(t *testing.T) {
	t.Setenv("SAMPLE_NAME", "from-env")
	p := writeFile(t, "name: ${SAMPLE_NAME}\nport: 8080\n")

	var s sample
	if err := Load(p, &s); err != nil {
		t.Fatalf("Load: %v", err)
	}
	if s.Name != "from-env" || s.Port != 8080 {
		t.Errorf("loaded = %+v", s)
	}
}

func TestLoad_ValidationFails(t *testing.T) {
	p := writeFile(t, "name: x\nport: 0\n")
	var s sample
	if err := Load(p, &s); err == nil {
		t.Fatal("expected validation error")
	}
}

func TestLoadIfExists(t *testing.T) {
	missing := filepath.Join(t.TempDir(), "missing.yaml")

	s := sample{Port: 9000}
	if err := LoadIfExists(missing, &s); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if s.Port != 9000 {
		t.Errorf("defaults changed: %+v", s)
	}

	bad := sample{}
	if err := LoadIfExists(missing, &bad); err == nil {
		t.Error("expected validation error for invalid defaults")
	}

	p := writeFile(t, "port: 1234\n")
	s = sample{Port: 9000}
	if err := LoadIfExists(p, &s); err != nil {
		t.Fatalf("LoadIfExists: %v", err)
	}
	if s.Port != 1234 {
		t.Errorf("port = %d, want 1234", s.Port)
	}
}
