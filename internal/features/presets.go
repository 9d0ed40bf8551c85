// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package features

// Preset names a bundle of features assignable to an access record in
// place of an explicit permission set.
type Preset string

const (
	PresetFullAccess    Preset = "FULL_ACCESS"
	PresetDashboardOnly Preset = "DASHBOARD_ONLY"
	PresetScreeningOnly Preset = "SCREENING_ONLY"
	PresetTradingOnly   Preset = "TRADING_ONLY"
	PresetBasic         Preset = "BASIC"

	// PresetCustom resolves to the access record's explicit permission set,
	// never to a static list.
	PresetCustom Preset = "CUSTOM"
)

// presetFeatures maps each static preset to its feature bundle.
// PresetFullAccess is populated from the registry at init so it can never
// drift from the feature enum. PresetCustom deliberately has no entry.
var presetFeatures = map[Preset][]Feature{
	PresetDashboardOnly: {
		FeatureDashboard,
		FeatureAnalytics,
		FeatureSettings,
	},
	PresetScreeningOnly: {
		FeatureDashboard,
		FeatureAIScreener,
		FeatureScreeningResults,
		FeatureSuggestions,
		FeatureSettings,
	},
	PresetTradingOnly: {
		FeatureDashboard,
		FeatureOpenTrades,
		FeatureTradeHistory,
		FeatureSettings,
	},
	PresetBasic: {
		FeatureDashboard,
		FeatureSettings,
	},
}

//nolint:gochecknoinits // FULL_ACCESS must always equal the full feature enum
func init() {
	presetFeatures[PresetFullAccess] = All()
}

// IsValidPreset reports whether p is a known preset name.
func IsValidPreset(p Preset) bool {
	if p == PresetCustom {
		return true
	}
	_, ok := presetFeatures[p]
	return ok
}

// PresetSet returns the feature set a static preset grants.
// Returns nil and false for PresetCustom and unknown presets; callers must
// fall back to the record's explicit permission list in that case.
func PresetSet(p Preset) ([]Feature, bool) {
	fs, ok := presetFeatures[p]
	if !ok {
		return nil, false
	}
	out := make([]Feature, len(fs))
	copy(out, fs)
	return out, true
}

// Presets returns all assignable preset names, static bundles first.
func Presets() []Preset {
	return []Preset{
		PresetFullAccess,
		PresetDashboardOnly,
		PresetScreeningOnly,
		PresetTradingOnly,
		PresetBasic,
		PresetCustom,
	}
}
