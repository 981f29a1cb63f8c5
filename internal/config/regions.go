package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
)

// regionsFile is the YAML shape of a custom region set:
//
//	regions:
//	  - name: West
//	    kind: lon-west-of
//	    cutoff: -105
//	  - name: Tropics
//	    kind: lat-band
//	    lat_lo: -23.5
//	    lat_hi: 23.5
type regionsFile struct {
	Regions []regionEntry `yaml:"regions"`
}

type regionEntry struct {
	Name   string  `yaml:"name"`
	Kind   string  `yaml:"kind"`
	Cutoff float64 `yaml:"cutoff"`
	LatLo  float64 `yaml:"lat_lo"`
	LatHi  float64 `yaml:"lat_hi"`
}

// LoadRegions reads a custom region rule set. Each rule is validated; an
// empty file is a configuration error, not an empty analysis.
func LoadRegions(path string) ([]domain.RegionRule, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read regions file: %w", err)
	}
	var f regionsFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, fmt.Errorf("parse regions file %s: %w", path, err)
	}
	if len(f.Regions) == 0 {
		return nil, &domain.ConfigError{Param: "regions file", Detail: fmt.Sprintf("%s defines no regions", path)}
	}
	rules := make([]domain.RegionRule, 0, len(f.Regions))
	for _, e := range f.Regions {
		rule := domain.RegionRule{
			Name:   e.Name,
			Kind:   domain.RuleKind(e.Kind),
			Cutoff: e.Cutoff,
			LatLo:  e.LatLo,
			LatHi:  e.LatHi,
		}
		if err := rule.Validate(); err != nil {
			return nil, err
		}
		rules = append(rules, rule)
	}
	return rules, nil
}
