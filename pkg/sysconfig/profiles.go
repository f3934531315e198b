package sysconfig

import (
	"fmt"
	"sort"

	"github.com/pelletier/go-toml/v2"
)

// BaseProfiles is the always-installed package set: the bare base
// packages plus the ones every desktop profile additionally needs.
type BaseProfiles struct {
	BasePackages        []string
	BaseDesktopPackages []string
}

// DesktopProfile is one selectable desktop environment and the
// packages it pulls in on top of BaseProfiles.
type DesktopProfile struct {
	Name     string
	Packages []string
}

// NetProfiles is the full parsed package-profile document: the base
// set plus every available desktop profile.
type NetProfiles struct {
	Base     BaseProfiles
	Desktops []DesktopProfile
}

type basePackagesDoc struct {
	Packages []string `toml:"packages"`
	Desktop  struct {
		Packages []string `toml:"packages"`
	} `toml:"desktop"`
}

type profilesDoc struct {
	BasePackages basePackagesDoc                 `toml:"base-packages"`
	Desktop      map[string]desktopProfilePkgDoc `toml:"desktop"`
}

type desktopProfilePkgDoc struct {
	Packages []string `toml:"packages"`
}

// ParseBaseProfiles parses the base-packages table out of a
// package-profiles.toml document.
func ParseBaseProfiles(content []byte) (BaseProfiles, error) {
	var doc profilesDoc
	if err := toml.Unmarshal(content, &doc); err != nil {
		return BaseProfiles{}, fmt.Errorf("parse base profiles: %w", err)
	}
	return BaseProfiles{
		BasePackages:        doc.BasePackages.Packages,
		BaseDesktopPackages: doc.BasePackages.Desktop.Packages,
	}, nil
}

// ParseDesktopProfiles parses every [desktop.<name>] table into a
// DesktopProfile, sorted for determinism since TOML table iteration
// order is otherwise unspecified.
func ParseDesktopProfiles(content []byte) ([]DesktopProfile, error) {
	var doc profilesDoc
	if err := toml.Unmarshal(content, &doc); err != nil {
		return nil, fmt.Errorf("parse desktop profiles: %w", err)
	}
	return desktopProfilesFromDoc(doc), nil
}

// ParseNetProfiles parses the full document: base packages plus every
// desktop profile, in one pass.
func ParseNetProfiles(content []byte) (NetProfiles, error) {
	var doc profilesDoc
	if err := toml.Unmarshal(content, &doc); err != nil {
		return NetProfiles{}, fmt.Errorf("parse net profiles: %w", err)
	}
	return NetProfiles{
		Base: BaseProfiles{
			BasePackages:        doc.BasePackages.Packages,
			BaseDesktopPackages: doc.BasePackages.Desktop.Packages,
		},
		Desktops: desktopProfilesFromDoc(doc),
	}, nil
}

func desktopProfilesFromDoc(doc profilesDoc) []DesktopProfile {
	names := make([]string, 0, len(doc.Desktop))
	for name := range doc.Desktop {
		names = append(names, name)
	}
	sort.Strings(names)

	profiles := make([]DesktopProfile, 0, len(names))
	for _, name := range names {
		profiles = append(profiles, DesktopProfile{Name: name, Packages: doc.Desktop[name].Packages})
	}
	return profiles
}
