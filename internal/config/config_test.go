package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "gpumon.yaml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatalf("failed to write config: %v", err)
	}
	return path
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.RefreshInterval != 2*time.Second {
		t.Errorf("RefreshInterval: got %s, want 2s", cfg.RefreshInterval)
	}
	if cfg.RenderInterval != 3*time.Second {
		t.Errorf("RenderInterval: got %s, want 3s", cfg.RenderInterval)
	}
	if cfg.Thresholds.Warning != 75 || cfg.Thresholds.Critical != 85 {
		t.Errorf("Thresholds: got %+v, want 75/85", cfg.Thresholds)
	}
	if cfg.Tools.Vendor.Name() != "nvidia-smi" {
		t.Errorf("vendor tool: got %q", cfg.Tools.Vendor.Name())
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("defaults should validate: %v", err)
	}
}

func TestLoadWithoutFile(t *testing.T) {
	t.Setenv(EnvConfig, "")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RefreshInterval != Default().RefreshInterval {
		t.Errorf("expected defaults, got %+v", cfg)
	}
}

func TestLoadOverrides(t *testing.T) {
	path := writeConfig(t, `
refresh_interval: 1500ms
thresholds:
  warning: 70
tools:
  vendor: ["/opt/nvidia/bin/nvidia-smi", "--query-gpu=temperature.gpu,utilization.gpu,fan.speed,power.draw,memory.used,memory.total", "--format=csv,noheader,nounits"]
`)

	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	if cfg.RefreshInterval != 1500*time.Millisecond {
		t.Errorf("RefreshInterval: got %s, want 1.5s", cfg.RefreshInterval)
	}
	if cfg.RenderInterval != 3*time.Second {
		t.Errorf("RenderInterval should keep default, got %s", cfg.RenderInterval)
	}
	if cfg.Thresholds.Warning != 70 {
		t.Errorf("Warning: got %.1f, want 70", cfg.Thresholds.Warning)
	}
	if cfg.Thresholds.Critical != 85 {
		t.Errorf("Critical should keep default, got %.1f", cfg.Thresholds.Critical)
	}
	if cfg.Tools.Vendor.Name() != "/opt/nvidia/bin/nvidia-smi" {
		t.Errorf("vendor tool: got %q", cfg.Tools.Vendor.Name())
	}
	if cfg.Tools.Identity.Name() != "wmic" {
		t.Errorf("identity tool should keep default, got %q", cfg.Tools.Identity.Name())
	}
}

func TestLoadFromEnvironment(t *testing.T) {
	path := writeConfig(t, "render_interval: 5s\n")
	t.Setenv(EnvConfig, path)

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.RenderInterval != 5*time.Second {
		t.Errorf("RenderInterval: got %s, want 5s", cfg.RenderInterval)
	}
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "missing.yaml"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !os.IsNotExist(err) && !strings.Contains(err.Error(), "reading config") {
		t.Errorf("unexpected error: %v", err)
	}
}

func TestLoadMalformed(t *testing.T) {
	path := writeConfig(t, "refresh_interval: [not, a, duration]\n")
	if _, err := Load(path); err == nil {
		t.Fatal("expected parse error")
	}
}

func TestValidate(t *testing.T) {
	cfg := Default()
	cfg.RefreshInterval = 0
	cfg.Thresholds.Warning = 90
	cfg.Tools.Utilization = nil

	err := cfg.Validate()
	if err == nil {
		t.Fatal("expected validation errors")
	}

	msg := err.Error()
	for _, want := range []string{"refresh_interval", "thresholds.warning", "tools.utilization"} {
		if !strings.Contains(msg, want) {
			t.Errorf("expected error to mention %q, got %q", want, msg)
		}
	}
}
