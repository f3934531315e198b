package sysconfig

import "testing"

const sampleProfiles = `
[base-packages]
packages = ["base", "linux", "linux-firmware"]

[base-packages.desktop]
packages = ["xorg-server", "networkmanager"]

[desktop.gnome]
packages = ["gnome", "gdm"]

[desktop.kde]
packages = ["plasma", "sddm"]
`

func TestParseBaseProfiles(t *testing.T) {
	base, err := ParseBaseProfiles([]byte(sampleProfiles))
	if err != nil {
		t.Fatalf("ParseBaseProfiles() error = %v", err)
	}
	if len(base.BasePackages) != 3 {
		t.Fatalf("BasePackages = %v, want 3 entries", base.BasePackages)
	}
	if len(base.BaseDesktopPackages) != 2 {
		t.Fatalf("BaseDesktopPackages = %v, want 2 entries", base.BaseDesktopPackages)
	}
}

func TestParseDesktopProfiles_SortedByName(t *testing.T) {
	profiles, err := ParseDesktopProfiles([]byte(sampleProfiles))
	if err != nil {
		t.Fatalf("ParseDesktopProfiles() error = %v", err)
	}
	if len(profiles) != 2 {
		t.Fatalf("got %d profiles, want 2", len(profiles))
	}
	if profiles[0].Name != "gnome" || profiles[1].Name != "kde" {
		t.Fatalf("profiles = %+v, want gnome before kde", profiles)
	}
}

func TestParseNetProfiles(t *testing.T) {
	net, err := ParseNetProfiles([]byte(sampleProfiles))
	if err != nil {
		t.Fatalf("ParseNetProfiles() error = %v", err)
	}
	if len(net.Base.BasePackages) != 3 || len(net.Desktops) != 2 {
		t.Fatalf("ParseNetProfiles() = %+v", net)
	}
}

func TestParseChwdNames(t *testing.T) {
	output := "┌──────┬──────┐\n│ Type │ Name │\n├──────┼──────┤\n│ PCI  │ video-nvidia │\n└──────┴──────┘\n"
	names := parseChwdNames(output)
	if len(names) != 1 || names[0] != "PCI" {
		t.Fatalf("parseChwdNames() = %v", names)
	}
}
