package domain

import "fmt"

// RuleKind tags the geographic predicate of a region rule.
type RuleKind string

const (
	// RuleAllLand selects every land cell.
	RuleAllLand RuleKind = "all-land"
	// RuleLonWestOf selects land cells with longitude strictly west of Cutoff.
	RuleLonWestOf RuleKind = "lon-west-of"
	// RuleLonEastOf selects land cells with longitude at or east of Cutoff.
	RuleLonEastOf RuleKind = "lon-east-of"
	// RuleLatBand selects land cells with latitude inside [LatLo, LatHi].
	RuleLatBand RuleKind = "lat-band"
)

// RegionRule names a region and the coordinate predicate that derives its
// mask. Every rule is combined with the land mask by logical AND; a rule
// that matches zero cells is legal and yields an all-NaN series downstream.
type RegionRule struct {
	Name   string
	Kind   RuleKind
	Cutoff float64 // longitude cutoff for the lon-split kinds
	LatLo  float64 // latitude band bounds, inclusive
	LatHi  float64
}

func (r RegionRule) Validate() error {
	if r.Name == "" {
		return &ConfigError{Param: "region rule", Detail: "rule has no name"}
	}
	switch r.Kind {
	case RuleAllLand, RuleLonWestOf, RuleLonEastOf:
		return nil
	case RuleLatBand:
		if r.LatHi < r.LatLo {
			return &ConfigError{Param: "region rule", Detail: fmt.Sprintf("%s: latitude band [%g, %g] is inverted", r.Name, r.LatLo, r.LatHi)}
		}
		return nil
	default:
		return &ConfigError{Param: "region rule", Detail: fmt.Sprintf("%s: unknown kind %q", r.Name, r.Kind)}
	}
}

// USRegions is the CONUS analysis set: the West/Central-East split at
// -105° longitude plus the all-land US48 aggregate.
func USRegions() []RegionRule {
	return []RegionRule{
		{Name: "West", Kind: RuleLonWestOf, Cutoff: -105},
		{Name: "Central-East", Kind: RuleLonEastOf, Cutoff: -105},
		{Name: "US48", Kind: RuleAllLand},
	}
}

// NHRegions is the northern-hemisphere analysis set: one mask covering all
// land cells in the 24–50°N input.
func NHRegions() []RegionRule {
	return []RegionRule{{Name: "NH", Kind: RuleAllLand}}
}

// RegionSet returns the built-in rule set for a named analysis domain.
func RegionSet(name string) ([]RegionRule, error) {
	switch name {
	case "us":
		return USRegions(), nil
	case "nh":
		return NHRegions(), nil
	default:
		return nil, &ConfigError{Param: "region", Detail: fmt.Sprintf("unknown region %q (want us or nh)", name)}
	}
}
