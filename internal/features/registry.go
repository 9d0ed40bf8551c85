// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Package features defines the static feature catalogue of the dashboard:
// every independently gated capability, its route metadata, and the named
// permission presets that bundle features for assignment to access records.
//
// The registry is read-only and process-wide. Every feature guarded by a
// route guard must have an entry here, and every route a preset grants must
// correspond to a real guarded route (enforced by registry tests).
package features

import "sort"

// Feature identifies an independently gated capability within the
// authenticated application area.
type Feature string

// Feature identifiers. These are the canonical names stored in access
// records and referenced by route guards.
const (
	FeatureDashboard        Feature = "dashboard"
	FeatureAIScreener       Feature = "ai_screener"
	FeatureScreeningResults Feature = "screening_results"
	FeatureOpenTrades       Feature = "open_trades"
	FeatureTradeHistory     Feature = "trade_history"
	FeatureSuggestions      Feature = "suggestions"
	FeatureAnalytics        Feature = "analytics"
	FeatureSettings         Feature = "settings"
)

// String returns the feature identifier.
func (f Feature) String() string {
	return string(f)
}

// Category groups features for presentation.
type Category string

const (
	CategoryGeneral   Category = "general"
	CategoryScreening Category = "screening"
	CategoryTrading   Category = "trading"
)

// Info holds static metadata for a feature.
type Info struct {
	// Name is the human-readable feature name.
	Name string

	// Description explains what the feature exposes.
	Description string

	// Route is the guarded route under /app serving this feature.
	Route string

	// Category groups the feature in navigation.
	Category Category

	// Parent is the feature this one nests under, if any.
	Parent Feature
}

// registry is the static Feature -> Info table.
var registry = map[Feature]Info{
	FeatureDashboard: {
		Name:        "Dashboard",
		Description: "Portfolio overview and market stat cards",
		Route:       "/app",
		Category:    CategoryGeneral,
	},
	FeatureAIScreener: {
		Name:        "AI Screener",
		Description: "Run AI-assisted stock screening passes",
		Route:       "/app/screener",
		Category:    CategoryScreening,
	},
	FeatureScreeningResults: {
		Name:        "Screening Results",
		Description: "Browse stored screening results",
		Route:       "/app/screener/results",
		Category:    CategoryScreening,
		Parent:      FeatureAIScreener,
	},
	FeatureOpenTrades: {
		Name:        "Open Trades",
		Description: "View and manage open trade records",
		Route:       "/app/trades/open",
		Category:    CategoryTrading,
	},
	FeatureTradeHistory: {
		Name:        "Trade History",
		Description: "Closed trades and realized outcomes",
		Route:       "/app/trades/history",
		Category:    CategoryTrading,
		Parent:      FeatureOpenTrades,
	},
	FeatureSuggestions: {
		Name:        "Suggestions",
		Description: "Trade suggestions derived from screening",
		Route:       "/app/suggestions",
		Category:    CategoryScreening,
	},
	FeatureAnalytics: {
		Name:        "Analytics",
		Description: "Performance analytics and charts",
		Route:       "/app/analytics",
		Category:    CategoryGeneral,
	},
	FeatureSettings: {
		Name:        "Settings",
		Description: "Per-user dashboard preferences",
		Route:       "/app/settings",
		Category:    CategoryGeneral,
	},
}

// Lookup returns the metadata for a feature.
// The second return is false for unknown features.
func Lookup(f Feature) (Info, bool) {
	info, ok := registry[f]
	return info, ok
}

// IsValid reports whether f names a registered feature.
func IsValid(f Feature) bool {
	_, ok := registry[f]
	return ok
}

// All returns every registered feature in stable (sorted) order.
func All() []Feature {
	out := make([]Feature, 0, len(registry))
	for f := range registry {
		out = append(out, f)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

// ParseFeature converts a string to a Feature, validating it against the
// registry. Returns false for unknown identifiers.
func ParseFeature(s string) (Feature, bool) {
	f := Feature(s)
	return f, IsValid(f)
}
