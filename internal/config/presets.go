package config

import "sort"

func at(x float64) *float64 { return &x }

var Presets = map[string]map[string]*Config{
	"milne": {
		"reference": {
			Equation: "x2+y", TargetX: 1.3, MaxErr: 5e-5, Policy: "once", MaxRefinements: 8, MinH: DefaultMinH,
			Seeds: []SeedConfig{
				{X: 0.0, Y: 1.0},
				{X: 0.1, Y: 1.1055125},
				{X: 0.2, Y: 1.2242077},
				{X: 0.3, Y: 1.3595755},
			},
		},
		"tight": {
			Equation: "x2+y", TargetX: 1.3, MaxErr: 1e-5, Policy: "once", MaxRefinements: 8, MinH: DefaultMinH,
			Seeds: []SeedConfig{
				{X: 0.0, Y: 1.0},
				{X: 0.1, Y: 1.1055125},
				{X: 0.2, Y: 1.2242077},
				{X: 0.3, Y: 1.3595755},
			},
		},
	},
	"changing-h": {
		"reference": {
			Equation: "x+y", Starter: []string{"taylor", "taylor", "rk4"},
			X0: 0, Y0: 1, TargetX: 0.6, H: 0.1, MaxErr: 5e-5, Policy: "once", MaxRefinements: 8, MinH: DefaultMinH,
			HalveAtX: at(0.4), SearchH: true, SearchTrials: DefaultSearchTrials,
		},
	},
	"x+y": {
		"once": {
			Equation: "x+y", Starter: []string{"rk4"},
			X0: 0, Y0: 1, TargetX: 2.0, H: 0.1, MaxErr: 1e-6, Policy: "once", MaxRefinements: 8, MinH: DefaultMinH,
		},
		"repeat": {
			Equation: "x+y", Starter: []string{"rk4"},
			X0: 0, Y0: 1, TargetX: 2.0, H: 0.1, MaxErr: 1e-6, Policy: "repeat", MaxRefinements: 3, MinH: DefaultMinH,
		},
		"euler": {
			Equation: "x+y", Starter: []string{"euler"},
			X0: 0, Y0: 1, TargetX: 2.0, H: 0.05, MaxErr: 5e-5, Policy: "repeat", MaxRefinements: 4, MinH: DefaultMinH,
		},
	},
	"x-y": {
		"decay": {
			Equation: "x-y", Starter: []string{"rk45"},
			X0: 0, Y0: 1, TargetX: 3.0, H: 0.1, MaxErr: 5e-5, Policy: "once", MaxRefinements: 8, MinH: DefaultMinH,
		},
	},
}

// GetPreset returns a copy of the named preset, or nil.
func GetPreset(group, preset string) *Config {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	cfg, ok := groupPresets[preset]
	if !ok {
		return nil
	}
	return cfg.Clone()
}

func ListPresets(group string) []string {
	groupPresets, ok := Presets[group]
	if !ok {
		return nil
	}
	names := make([]string, 0, len(groupPresets))
	for name := range groupPresets {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

func Groups() []string {
	groups := make([]string, 0, len(Presets))
	for g := range Presets {
		groups = append(groups, g)
	}
	sort.Strings(groups)
	return groups
}
