package config

import (
	"testing"

	"clobcore/internal/walcore"
)

func TestLoadDefaultsToFsyncAlways(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.FsyncMode != walcore.FsyncAlways {
		t.Fatalf("FsyncMode = %v, want FsyncAlways", cfg.FsyncMode)
	}
}

func TestLoadDefaultsProcessorAndBroadcastSizes(t *testing.T) {
	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProcessorInboxSize != 1024 {
		t.Fatalf("ProcessorInboxSize = %d, want 1024", cfg.ProcessorInboxSize)
	}
	if cfg.BroadcastBufferSize != 256 {
		t.Fatalf("BroadcastBufferSize = %d, want 256", cfg.BroadcastBufferSize)
	}
}

func TestLoadOverridesProcessorAndBroadcastSizes(t *testing.T) {
	t.Setenv("CLOBCORE_PROCESSOR_INBOX_SIZE", "4096")
	t.Setenv("CLOBCORE_BROADCAST_BUFFER_SIZE", "64")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if cfg.ProcessorInboxSize != 4096 {
		t.Fatalf("ProcessorInboxSize = %d, want 4096", cfg.ProcessorInboxSize)
	}
	if cfg.BroadcastBufferSize != 64 {
		t.Fatalf("BroadcastBufferSize = %d, want 64", cfg.BroadcastBufferSize)
	}
}

func TestLoadRejectsNonPositiveProcessorInboxSize(t *testing.T) {
	t.Setenv("CLOBCORE_PROCESSOR_INBOX_SIZE", "0")
	if _, err := Load(); err == nil {
		t.Fatal("expected an error for a zero inbox size")
	}
}

func TestParseFsyncMode(t *testing.T) {
	cases := []struct {
		in      string
		want    walcore.FsyncMode
		wantErr bool
	}{
		{"always", walcore.FsyncAlways, false},
		{"never", walcore.FsyncNever, false},
		{"Always", walcore.FsyncAlways, false},
		{"sometimes", 0, true},
		{"", 0, true},
	}
	for _, c := range cases {
		got, err := parseFsyncMode(c.in)
		if (err != nil) != c.wantErr {
			t.Fatalf("parseFsyncMode(%q) err = %v, wantErr %v", c.in, err, c.wantErr)
		}
		if err == nil && got != c.want {
			t.Fatalf("parseFsyncMode(%q) = %v, want %v", c.in, got, c.want)
		}
	}
}
