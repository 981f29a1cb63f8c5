// Package region materializes named region rules into per-cell masks on a
// concrete grid. A cell belongs to a region when it is land and satisfies
// the rule's spatial predicate; ocean cells never belong to any region.
package region

import (
	"github.com/aedessler/DOE-report-section-6-3/internal/domain"
	"github.com/aedessler/DOE-report-section-6-3/internal/grid"
)

// Mask is the realized cell membership of one region on one grid.
type Mask struct {
	Name  string
	rows  int
	cols  int
	cells []bool
	count int
}

// FromRule evaluates a region rule against the dataset's coordinates and
// land mask. An empty result is not an error; aggregation over an empty
// region yields NaN series downstream.
func FromRule(ds *grid.Dataset, rule domain.RegionRule) (*Mask, error) {
	if err := rule.Validate(); err != nil {
		return nil, err
	}
	m := &Mask{
		Name:  rule.Name,
		rows:  ds.Rows(),
		cols:  ds.Cols(),
		cells: make([]bool, ds.Rows()*ds.Cols()),
	}
	lat, lon := ds.Lat(), ds.Lon()
	for r := 0; r < m.rows; r++ {
		for c := 0; c < m.cols; c++ {
			if !ds.Land(r, c) || !inRule(rule, lat[r], lon[c]) {
				continue
			}
			m.cells[r*m.cols+c] = true
			m.count++
		}
	}
	return m, nil
}

// FromRules realizes each rule in order.
func FromRules(ds *grid.Dataset, rules []domain.RegionRule) ([]*Mask, error) {
	masks := make([]*Mask, 0, len(rules))
	for _, rule := range rules {
		m, err := FromRule(ds, rule)
		if err != nil {
			return nil, err
		}
		masks = append(masks, m)
	}
	return masks, nil
}

func inRule(rule domain.RegionRule, lat, lon float64) bool {
	switch rule.Kind {
	case domain.RuleAllLand:
		return true
	case domain.RuleLonWestOf:
		return lon < rule.Cutoff
	case domain.RuleLonEastOf:
		return lon >= rule.Cutoff
	case domain.RuleLatBand:
		return lat >= rule.LatLo && lat <= rule.LatHi
	}
	return false
}

// Contains reports whether cell (row, col) belongs to the region.
func (m *Mask) Contains(row, col int) bool { return m.cells[row*m.cols+col] }

// Count returns the number of member cells.
func (m *Mask) Count() int { return m.count }
