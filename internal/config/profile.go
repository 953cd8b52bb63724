package config

import (
	"fmt"
	"sort"
)

// Profile is a named set of filtering options.
// Pointer fields distinguish an option left unset from one set to false.
type Profile struct {
	// Whitelist lists the domains whose links are kept.
	Whitelist []string `yaml:"whitelist,omitempty"`

	// RemoveWithoutHost overrides whether links without a host are removed.
	RemoveWithoutHost *bool `yaml:"removeWithoutHost,omitempty"`

	// Normalize overrides whether URL hosts are normalized after filtering.
	Normalize *bool `yaml:"normalize,omitempty"`
}

// File represents the structure of the .linkfilter configuration file.
type File struct {
	// Defaults applies to every run, with or without a profile.
	Defaults Profile `yaml:"defaults,omitempty"`

	// Profiles maps profile names to options layered over Defaults.
	Profiles map[string]Profile `yaml:"profiles,omitempty"`
}

// GetProfile returns the options for the named profile merged onto the
// defaults. Whitelists are joined, defaults first; options set in the
// profile win. An empty name returns the defaults alone.
func (cf *File) GetProfile(name string) (Profile, error) {
	result := Profile{
		Whitelist:         mergeWhitelists(cf.Defaults.Whitelist, nil),
		RemoveWithoutHost: cf.Defaults.RemoveWithoutHost,
		Normalize:         cf.Defaults.Normalize,
	}
	if name == "" {
		return result, nil
	}

	profile, ok := cf.Profiles[name]
	if !ok {
		return Profile{}, fmt.Errorf("%w: %q", ErrUnknownProfile, name)
	}

	result.Whitelist = mergeWhitelists(result.Whitelist, profile.Whitelist)
	if profile.RemoveWithoutHost != nil {
		result.RemoveWithoutHost = profile.RemoveWithoutHost
	}
	if profile.Normalize != nil {
		result.Normalize = profile.Normalize
	}
	return result, nil
}

// ProfileNames returns the defined profile names in sorted order.
func (cf *File) ProfileNames() []string {
	names := make([]string, 0, len(cf.Profiles))
	for name := range cf.Profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Validate checks the whitelist entries of the defaults and every profile.
func (cf *File) Validate() error {
	if err := ValidateWhitelist(cf.Defaults.Whitelist); err != nil {
		return fmt.Errorf("defaults: %w", err)
	}
	for _, name := range cf.ProfileNames() {
		if err := ValidateWhitelist(cf.Profiles[name].Whitelist); err != nil {
			return fmt.Errorf("profile %q: %w", name, err)
		}
	}
	return nil
}
