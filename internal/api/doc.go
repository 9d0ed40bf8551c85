// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Package api provides the HTTP surface of the dashboard service.
//
// The router wires four route groups:
//
//   - Public routes: home, the OIDC login/callback/logout flow, and the
//     onboarding pages (request-access, pending-approval).
//   - Guarded app routes under /app, one sub-route per dashboard feature,
//     protected by the guards in internal/guard.
//   - The admin area under /admin, protected by the admin guard.
//   - The JSON API under /api/v1, enforced per-method by the Casbin
//     middleware in internal/authz and backed by the external data API.
//
// Unmatched paths redirect to /. All JSON responses use the envelope in
// response.go.
package api
