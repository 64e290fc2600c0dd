package config

import "strings"

// Region is the in-game zone the bot idles in. It decides the shape of the movement patterns.
type Region string

const (
	RegionSewers  Region = "sewers"
	RegionDesert  Region = "desert"
	RegionSpider  Region = "spider"
	RegionAnthill Region = "anthill"
	// RegionDefault selects the profile driven patterns, with no region specific shape.
	RegionDefault Region = "default"
)

// Profile is the behavioral intensity, it controls how many actions a pattern holds and how long they last.
type Profile string

const (
	ProfileAggressive   Profile = "aggressive"
	ProfileNormal       Profile = "normal"
	ProfileConservative Profile = "conservative"
)

var AvailableRegions = []Region{RegionSewers, RegionDesert, RegionSpider, RegionAnthill, RegionDefault}

var AvailableProfiles = []Profile{ProfileAggressive, ProfileNormal, ProfileConservative}

// NormalizeRegion lowercases and trims the given region name. Unknown names are returned as they are,
// the movement generator decides how to handle them.
func NormalizeRegion(r string) Region {
	return Region(strings.ToLower(strings.TrimSpace(r)))
}

func NormalizeProfile(p string) Profile {
	switch Profile(strings.ToLower(strings.TrimSpace(p))) {
	case ProfileAggressive:
		return ProfileAggressive
	case ProfileConservative:
		return ProfileConservative
	default:
		return ProfileNormal
	}
}

func (r Region) Known() bool {
	for _, known := range AvailableRegions {
		if r == known {
			return true
		}
	}
	return false
}
