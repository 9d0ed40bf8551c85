// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package authz

// Decision is the kind of verdict the engine produces.
type Decision int

const (
	// DecisionLoading means at least one snapshot input is unresolved.
	// Guards must surface a loading state, never a premature allow or
	// redirect.
	DecisionLoading Decision = iota

	// DecisionRedirect means the principal must be sent elsewhere.
	DecisionRedirect

	// DecisionAllow means the guarded content may be served.
	DecisionAllow
)

// String returns the decision name for logs and metrics.
func (d Decision) String() string {
	switch d {
	case DecisionLoading:
		return "loading"
	case DecisionRedirect:
		return "redirect"
	case DecisionAllow:
		return "allow"
	default:
		return "unknown"
	}
}

// Redirect targets used by the engine. Paths are the observable contract
// of the decision layer; they match the route table in internal/api.
const (
	PathHome          = "/"
	PathLogin         = "/login"
	PathApp           = "/app"
	PathRevokedHome   = "/?revoked=true"
	PathPending       = "/pending-approval"
	PathRequestAccess = "/request-access"
)

// Verdict is the engine's output: LOADING, REDIRECT(path), or ALLOW.
// Rule names the decision-table rule that fired, for logs and metrics.
type Verdict struct {
	Decision Decision
	Path     string
	Rule     string
}

// IsAllow reports whether the verdict permits rendering.
func (v Verdict) IsAllow() bool { return v.Decision == DecisionAllow }

// IsLoading reports whether any input was still unresolved.
func (v Verdict) IsLoading() bool { return v.Decision == DecisionLoading }

// IsRedirect reports whether the principal must be redirected.
func (v Verdict) IsRedirect() bool { return v.Decision == DecisionRedirect }

func allow(rule string) Verdict {
	return Verdict{Decision: DecisionAllow, Rule: rule}
}

func redirect(rule, path string) Verdict {
	return Verdict{Decision: DecisionRedirect, Path: path, Rule: rule}
}

func loading(rule string) Verdict {
	return Verdict{Decision: DecisionLoading, Rule: rule}
}
