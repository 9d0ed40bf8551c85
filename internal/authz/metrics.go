// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Prometheus metrics for the authorization layer: engine verdicts by rule,
// RBAC enforcement outcomes, and decision-cache performance.
package authz

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// VerdictsTotal counts engine verdicts by check, firing rule, and outcome.
	VerdictsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradewatch_authz_verdicts_total",
			Help: "Total authorization engine verdicts",
		},
		[]string{"check", "rule", "decision"},
	)

	// EnforcementsTotal counts RBAC enforcement decisions on the JSON API.
	EnforcementsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "tradewatch_authz_enforcements_total",
			Help: "Total RBAC enforcement decisions",
		},
		[]string{"role", "action", "decision"},
	)

	// CacheHitsTotal counts RBAC decision-cache hits.
	CacheHitsTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tradewatch_authz_cache_hits_total",
			Help: "Total RBAC decision cache hits",
		},
	)

	// CacheMissesTotal counts RBAC decision-cache misses.
	CacheMissesTotal = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "tradewatch_authz_cache_misses_total",
			Help: "Total RBAC decision cache misses",
		},
	)
)

// recordVerdict counts one engine verdict.
func recordVerdict(check string, v Verdict) {
	VerdictsTotal.WithLabelValues(check, v.Rule, v.Decision.String()).Inc()
}

// recordEnforcement counts one RBAC enforcement decision.
func recordEnforcement(role, action string, allowed bool) {
	decision := "deny"
	if allowed {
		decision = "allow"
	}
	EnforcementsTotal.WithLabelValues(role, action, decision).Inc()
}
