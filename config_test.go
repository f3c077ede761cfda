package jszoo_test

import (
	"errors"
	"testing"

	"github.com/goliatone/go-jszoo"
)

func TestDefaultConfigIsValid(t *testing.T) {
	if err := jszoo.DefaultConfig().Validate(); err != nil {
		t.Fatalf("expected default config to validate, got %v", err)
	}
}

func TestConfigValidateTableKindUnknown(t *testing.T) {
	cfg := jszoo.DefaultConfig()
	cfg.Tables = append(cfg.Tables, jszoo.TableConfig{Document: "other.md", Kind: "ghost"})
	if err := cfg.Validate(); !errors.Is(err, jszoo.ErrTableKindUnknown) {
		t.Fatalf("expected ErrTableKindUnknown, got %v", err)
	}
}

func TestConfigValidateSnapshotDriverUnknown(t *testing.T) {
	cfg := jszoo.DefaultConfig()
	cfg.Features.Snapshot = true
	cfg.Export.SnapshotDriver = "oracle"
	if err := cfg.Validate(); !errors.Is(err, jszoo.ErrSnapshotDriverUnknown) {
		t.Fatalf("expected ErrSnapshotDriverUnknown, got %v", err)
	}
}

func TestConfigValidateLoggingLevelInvalid(t *testing.T) {
	cfg := jszoo.DefaultConfig()
	cfg.Logging.Level = "loud"
	if err := cfg.Validate(); !errors.Is(err, jszoo.ErrLoggingLevelInvalid) {
		t.Fatalf("expected ErrLoggingLevelInvalid, got %v", err)
	}
}
