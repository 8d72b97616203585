package fit

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestBuiltinProfiles(t *testing.T) {
	profiles := BuiltinProfiles()
	assert.Equal(t, []string{ProfileEfficiency, ProfileStandard}, ProfileNames(profiles))

	std := profiles[ProfileStandard].Config
	assert.Equal(t, 20.0, std.ComplexityPenalty)
	assert.Equal(t, 7, std.MaxBreaks)
	assert.Equal(t, 3.0, std.OutlierThreshold)

	eff := profiles[ProfileEfficiency].Config
	assert.Equal(t, 2.0, eff.ComplexityPenalty)
	assert.Equal(t, 5, eff.MaxBreaks)
	assert.Equal(t, 2.0, eff.OutlierThreshold)

	assert.Equal(t, std, DefaultConfig())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr bool
	}{
		{"default", DefaultConfig(), false},
		{"max breaks too small", Config{ComplexityPenalty: 2, MaxBreaks: 1, OutlierThreshold: 2}, true},
		{"zero penalty selects on residuals alone", Config{ComplexityPenalty: 0, MaxBreaks: 5, OutlierThreshold: 2}, false},
		{"negative penalty", Config{ComplexityPenalty: -1, MaxBreaks: 5, OutlierThreshold: 2}, true},
		{"infinite penalty", Config{ComplexityPenalty: math.Inf(1), MaxBreaks: 5, OutlierThreshold: 2}, true},
		{"NaN penalty", Config{ComplexityPenalty: math.NaN(), MaxBreaks: 5, OutlierThreshold: 2}, true},
		{"zero threshold", Config{ComplexityPenalty: 2, MaxBreaks: 5, OutlierThreshold: 0}, true},
		{"negative threshold", Config{ComplexityPenalty: 2, MaxBreaks: 5, OutlierThreshold: -1}, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestSelectionHelpers(t *testing.T) {
	s := &Selection{
		BreakCount:  3,
		Candidates:  []Candidate{{Breaks: 2, BIC: 10}, {Breaks: 3, BIC: 5}},
		Breakpoints: []float64{0, 86400},
		OutlierMask: []bool{true, false, true},
	}
	assert.Equal(t, 5.0, s.Best().BIC)
	assert.Equal(t, 2, s.OutlierCount())
	times := s.BreakTimes()
	assert.Equal(t, 1970, times[0].Year())
	assert.Equal(t, 2, times[1].Day())
}

func TestOverridesApply(t *testing.T) {
	base := DefaultConfig()
	assert.True(t, Overrides{}.IsEmpty())
	assert.Equal(t, base, Overrides{}.Apply(base))

	penalty, maxBreaks, plot := 4.5, 3, false
	o := Overrides{ComplexityPenalty: &penalty, MaxBreaks: &maxBreaks, PlotResults: &plot}
	assert.False(t, o.IsEmpty())

	got := o.Apply(base)
	assert.Equal(t, 4.5, got.ComplexityPenalty)
	assert.Equal(t, 3, got.MaxBreaks)
	assert.False(t, got.PlotResults)
	assert.Equal(t, base.OutlierThreshold, got.OutlierThreshold)
	assert.Equal(t, 7, base.MaxBreaks, "base is not modified")
}
