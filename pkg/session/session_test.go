package session

import "testing"

func TestNew_AssignsID(t *testing.T) {
	s1 := New(nil, false)
	s2 := New(nil, false)
	if s1.ID == "" {
		t.Fatal("expected non-empty ID")
	}
	if s1.ID == s2.ID {
		t.Fatal("expected distinct IDs across runs")
	}
}

func TestAddWarning(t *testing.T) {
	s := New(nil, true)
	s.AddWarning("bootloader install failed: %v", "no such file")
	if len(s.Warnings) != 1 {
		t.Fatalf("expected 1 warning, got %d", len(s.Warnings))
	}
	want := "bootloader install failed: no such file"
	if s.Warnings[0] != want {
		t.Errorf("Warnings[0] = %q, want %q", s.Warnings[0], want)
	}
}
