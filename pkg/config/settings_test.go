package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestLoad_MissingFileReturnsNilNoError(t *testing.T) {
	s, err := Load(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatalf("Load() error = %v, want nil", err)
	}
	if s != nil {
		t.Fatalf("Load() = %+v, want nil", s)
	}
}

func TestLoad_MalformedJSONIsConfigError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "settings.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := Load(path)
	if err == nil {
		t.Fatal("expected error for malformed JSON")
	}
}

func TestValidate_NonHeadlessSkipsRequiredFields(t *testing.T) {
	s := &Settings{}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() on non-headless settings = %v, want nil", err)
	}
	if s.Menus != 2 {
		t.Errorf("Menus = %d, want default 2", s.Menus)
	}
}

func TestValidate_HeadlessMissingFieldsAggregated(t *testing.T) {
	s := &Settings{HeadlessMode: true}
	err := s.Validate()
	if err == nil {
		t.Fatal("expected validation error")
	}
	// Every required field should be mentioned, not just the first.
	msg := err.Error()
	for _, field := range []string{"device", "hostname", "locale", "user_name", "root_pass", "bootloader"} {
		if !strings.Contains(msg, field) {
			t.Errorf("expected error message to mention %q, got: %s", field, msg)
		}
	}
}

func TestValidate_HeadlessComplete(t *testing.T) {
	s := &Settings{
		HeadlessMode: true,
		Device:       "/dev/sda",
		FSName:       "ext4",
		Hostname:     "box",
		Locale:       "en_US.UTF-8",
		XkbMap:       "us",
		Timezone:     "UTC",
		UserName:     "user",
		UserPass:     "hunter2",
		UserShell:    "/bin/bash",
		RootPass:     "toor",
		Kernel:       "linux-cachyos",
		Desktop:      "none",
		Bootloader:   "grub",
		Partitions: []PartitionEntry{
			{Name: "root", MountPoint: "/", Type: PartitionRoot},
		},
	}
	if err := s.Validate(); err != nil {
		t.Errorf("Validate() = %v, want nil", err)
	}
}
