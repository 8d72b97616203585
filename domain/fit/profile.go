package fit

import (
	"fmt"
	"math"
	"sort"
)

// Profile is a named, documented set of selection defaults
type Profile struct {
	Name        string `json:"name" yaml:"name"`
	Description string `json:"description" yaml:"description"`
	Config      Config `json:"config" yaml:"config"`
}

// ProfileStandard and ProfileEfficiency are the built-in profile names
const (
	ProfileStandard   = "standard"
	ProfileEfficiency = "efficiency"
)

// BuiltinProfiles returns the shipped profiles keyed by name.
//
// standard penalises extra segments heavily and flags only gross outliers;
// efficiency searches fewer break counts with a light penalty and a tight
// outlier band.
func BuiltinProfiles() map[string]Profile {
	return map[string]Profile{
		ProfileStandard: {
			Name:        ProfileStandard,
			Description: "Heavy complexity penalty, up to 7 segments, 3-sigma outliers",
			Config: Config{
				ComplexityPenalty: 20,
				MaxBreaks:         7,
				OutlierThreshold:  3,
				PlotResults:       true,
			},
		},
		ProfileEfficiency: {
			Name:        ProfileEfficiency,
			Description: "Light complexity penalty, up to 5 segments, 2-sigma outliers",
			Config: Config{
				ComplexityPenalty: 2,
				MaxBreaks:         5,
				OutlierThreshold:  2,
				PlotResults:       true,
			},
		},
	}
}

// DefaultConfig returns the standard profile's config
func DefaultConfig() Config {
	return BuiltinProfiles()[ProfileStandard].Config
}

// Validate checks the ranges the selector relies on
func (c Config) Validate() error {
	if c.MaxBreaks < 2 {
		return fmt.Errorf("max breaks must be at least 2, got %d", c.MaxBreaks)
	}
	// zero is plain residual-sum selection
	if !(c.ComplexityPenalty >= 0) || math.IsInf(c.ComplexityPenalty, 1) {
		return fmt.Errorf("complexity penalty must be a finite non-negative number, got %g", c.ComplexityPenalty)
	}
	if !(c.OutlierThreshold > 0) {
		return fmt.Errorf("outlier threshold must be positive, got %g", c.OutlierThreshold)
	}
	return nil
}

// ProfileNames lists profile names in sorted order
func ProfileNames(profiles map[string]Profile) []string {
	names := make([]string, 0, len(profiles))
	for name := range profiles {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Overrides replaces individual config fields; nil fields keep the base value
type Overrides struct {
	ComplexityPenalty *float64 `json:"complexity_penalty,omitempty" yaml:"complexity_penalty,omitempty"`
	MaxBreaks         *int     `json:"max_breaks,omitempty" yaml:"max_breaks,omitempty"`
	OutlierThreshold  *float64 `json:"outlier_threshold,omitempty" yaml:"outlier_threshold,omitempty"`
	PlotResults       *bool    `json:"plot_results,omitempty" yaml:"plot_results,omitempty"`
}

// Apply returns base with the set fields replaced
func (o Overrides) Apply(base Config) Config {
	if o.ComplexityPenalty != nil {
		base.ComplexityPenalty = *o.ComplexityPenalty
	}
	if o.MaxBreaks != nil {
		base.MaxBreaks = *o.MaxBreaks
	}
	if o.OutlierThreshold != nil {
		base.OutlierThreshold = *o.OutlierThreshold
	}
	if o.PlotResults != nil {
		base.PlotResults = *o.PlotResults
	}
	return base
}

// IsEmpty reports whether no field is set
func (o Overrides) IsEmpty() bool {
	return o.ComplexityPenalty == nil && o.MaxBreaks == nil && o.OutlierThreshold == nil && o.PlotResults == nil
}
