package config

import (
	"testing"
	"time"
)

func TestLoadDefaults(t *testing.T) {
	for _, k := range []string{"PORT", "MAX_UPLOAD_MB", "UNDO_WINDOW", "SESSION_TTL", "ALLOW_ORIGINS", "TRUST_PROXY"} {
		t.Setenv(k, "")
	}
	cfg := Load()
	if cfg.Port != 8082 || cfg.MaxUploadMB != 10 {
		t.Errorf("port/upload = %d/%d", cfg.Port, cfg.MaxUploadMB)
	}
	if cfg.UndoWindow != 3*time.Minute || cfg.SessionTTL != 30*time.Minute {
		t.Errorf("durations = %v/%v", cfg.UndoWindow, cfg.SessionTTL)
	}
	if cfg.TrustProxy {
		t.Error("TrustProxy on by default")
	}
	if cfg.MaxUploadBytes() != 10<<20 {
		t.Errorf("MaxUploadBytes = %d", cfg.MaxUploadBytes())
	}
}

func TestLoadOverrides(t *testing.T) {
	t.Setenv("PORT", "9000")
	t.Setenv("HOST", "0.0.0.0")
	t.Setenv("ALLOW_ORIGINS", "http://a, http://b")
	t.Setenv("UNDO_WINDOW", "90s")
	t.Setenv("LOCK_TIMEOUT", "2")
	t.Setenv("SESSION_TTL", "garbage")
	t.Setenv("TRUST_PROXY", "true")

	cfg := Load()
	if cfg.Addr() != "0.0.0.0:9000" {
		t.Errorf("Addr = %s", cfg.Addr())
	}
	if len(cfg.AllowOrigins) != 2 || cfg.AllowOrigins[1] != "http://b" {
		t.Errorf("origins = %q", cfg.AllowOrigins)
	}
	if cfg.UndoWindow != 90*time.Second || cfg.LockTimeout != 2*time.Second {
		t.Errorf("durations = %v/%v", cfg.UndoWindow, cfg.LockTimeout)
	}
	if cfg.SessionTTL != 30*time.Minute {
		t.Errorf("invalid SESSION_TTL not defaulted: %v", cfg.SessionTTL)
	}
	if !cfg.TrustProxy {
		t.Error("TRUST_PROXY=true not applied")
	}
}
