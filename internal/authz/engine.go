// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

/*
engine.go - Authorization Decision Engine

The engine combines three independently fetched inputs - identity-provider
session, access record, and access request - into a single verdict per
navigation target. It is a pure function over an immutable Snapshot: no
I/O, no internal state, no errors. Repeated or out-of-order evaluation of
the same snapshot always yields the same verdict.

Each check is an explicit ordered rule list (first match wins) rather than
nested conditionals, so the precedence contract stays auditable rule by
rule:

  general: loading > unauthenticated > idp-admin > record-approved >
           record-revoked > request-pending-or-rejected > no-access

  admin:   loading > unauthenticated > admin-by-group-or-role >
           approved-demoted-to-app > not-admin

  feature: loading > idp-admin > permission-member > permission-denied

Precedence notes:
  - The IdP-admin bypass precedes approval checks; administrators are
    provisioned outside the request workflow.
  - Revocation is checked before the request-status rules: a revoked user
    may still carry a stale historical request that would otherwise route
    them to the pending page.
  - An approved request with no materialized record falls through to
    /request-access. See DESIGN.md for the recorded decision on this
    transient window.
*/

package authz

import (
	"github.com/tradewatch/tradewatch/internal/features"
	"github.com/tradewatch/tradewatch/internal/models"
)

// SessionState is the resolved identity-provider session input.
type SessionState struct {
	Principal models.Principal

	// Loading is true while the session lookup is unresolved.
	Loading bool
}

// RecordState is the resolved access-record input. A nil Record with
// Loading false means the principal has no record (or the fetch failed;
// fail closed either way).
type RecordState struct {
	Record  *models.AccessRecord
	Loading bool
}

// RequestState is the resolved access-request input.
type RequestState struct {
	Request *models.AccessRequest
	Loading bool
}

// Snapshot is the complete input to one evaluation. Guards build a fresh
// snapshot per request; the engine never retains it.
type Snapshot struct {
	Session SessionState
	Access  RecordState
	Request RequestState
}

// rule is one entry of an ordered decision table. eval returns the verdict
// and true when the rule fires; evaluation stops at the first match.
type rule struct {
	name string
	eval func(s Snapshot) (Verdict, bool)
}

// evaluate runs an ordered rule list. The final rule of every table is
// total, so a verdict is always produced.
func evaluate(check string, rules []rule, s Snapshot) Verdict {
	for _, r := range rules {
		if v, ok := r.eval(s); ok {
			recordVerdict(check, v)
			return v
		}
	}
	// Unreachable: every table ends in a total rule.
	v := redirect("fail-closed", PathHome)
	recordVerdict(check, v)
	return v
}

// generalRules is the decision table for general app access (/app).
var generalRules = []rule{
	{
		name: "loading",
		eval: func(s Snapshot) (Verdict, bool) {
			if s.Session.Loading || s.Access.Loading || s.Request.Loading {
				return loading("loading"), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "unauthenticated",
		eval: func(s Snapshot) (Verdict, bool) {
			if !s.Session.Principal.Authenticated {
				return redirect("unauthenticated", PathLogin), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "idp-admin",
		eval: func(s Snapshot) (Verdict, bool) {
			if s.Session.Principal.IdPAdmin {
				return allow("idp-admin"), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "record-approved",
		eval: func(s Snapshot) (Verdict, bool) {
			if s.Access.Record.IsApproved() {
				return allow("record-approved"), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "record-revoked",
		eval: func(s Snapshot) (Verdict, bool) {
			if s.Access.Record.IsRevoked() {
				return redirect("record-revoked", PathRevokedHome), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "request-pending-or-rejected",
		eval: func(s Snapshot) (Verdict, bool) {
			if s.Request.Request.AwaitsOrFailedReview() {
				return redirect("request-pending-or-rejected", PathPending), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "no-access",
		eval: func(s Snapshot) (Verdict, bool) {
			return redirect("no-access", PathRequestAccess), true
		},
	},
}

// EvaluateGeneralAccess decides whether the principal may enter the
// general authenticated application area.
func EvaluateGeneralAccess(s Snapshot) Verdict {
	return evaluate("general", generalRules, s)
}

// adminRules is the decision table for the /admin area. The request input
// is irrelevant here; only session and record are consulted.
var adminRules = []rule{
	{
		name: "loading",
		eval: func(s Snapshot) (Verdict, bool) {
			if s.Session.Loading || s.Access.Loading {
				return loading("loading"), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "unauthenticated",
		eval: func(s Snapshot) (Verdict, bool) {
			if !s.Session.Principal.Authenticated {
				return redirect("unauthenticated", PathLogin), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "admin",
		eval: func(s Snapshot) (Verdict, bool) {
			if s.Session.Principal.IdPAdmin {
				return allow("admin-by-group"), true
			}
			if r := s.Access.Record; r != nil && r.Role == models.RoleAdmin {
				return allow("admin-by-role"), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "approved-demoted-to-app",
		eval: func(s Snapshot) (Verdict, bool) {
			// An approved non-admin lands in the ordinary app, not home.
			if s.Access.Record.IsApproved() {
				return redirect("approved-demoted-to-app", PathApp), true
			}
			return Verdict{}, false
		},
	},
	{
		name: "not-admin",
		eval: func(s Snapshot) (Verdict, bool) {
			return redirect("not-admin", PathHome), true
		},
	},
}

// EvaluateAdminAccess decides whether the principal may enter the
// administration area.
func EvaluateAdminAccess(s Snapshot) Verdict {
	return evaluate("admin", adminRules, s)
}

// featureRules builds the decision table for one feature. The table is
// constructed per evaluation; each rule closes over the target feature.
func featureRules(f features.Feature) []rule {
	return []rule{
		{
			name: "loading",
			eval: func(s Snapshot) (Verdict, bool) {
				if s.Session.Loading || s.Access.Loading {
					return loading("loading"), true
				}
				return Verdict{}, false
			},
		},
		{
			name: "idp-admin",
			eval: func(s Snapshot) (Verdict, bool) {
				// IdP admin identity is a superset capability; it is not
				// subject to the permission catalogue at all.
				if s.Session.Principal.IdPAdmin {
					return allow("idp-admin"), true
				}
				return Verdict{}, false
			},
		},
		{
			name: "permission",
			eval: func(s Snapshot) (Verdict, bool) {
				// Nil record resolves to the empty set: fail closed.
				if s.Access.Record.HasPermission(f) {
					return allow("permission-member"), true
				}
				return redirect("permission-denied", PathApp), true
			},
		},
	}
}

// EvaluateFeatureAccess decides whether the principal may use the given
// feature within an already-authorized shell.
func EvaluateFeatureAccess(s Snapshot, f features.Feature) Verdict {
	return evaluate("feature", featureRules(f), s)
}
