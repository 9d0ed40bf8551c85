// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

// Package authz is the access-control decision layer.
//
// It has two halves:
//
//   - The decision engine (engine.go): a pure function over an immutable
//     Snapshot of session, access-record, and access-request state,
//     producing one verdict per navigation target - LOADING,
//     REDIRECT(path), or ALLOW. Route guards in internal/guard translate
//     verdicts into HTTP behavior. Precedence is expressed as explicit
//     ordered rule tables so each rule is testable in isolation.
//
//   - RBAC enforcement (enforcer.go): a Casbin-backed role check for the
//     JSON API, mapping HTTP methods to read/write/delete actions over
//     path objects, with role hierarchy admin > trader > viewer and a
//     TTL decision cache.
//
// The engine decides whether a principal may reach a page; the enforcer
// decides what their role may do against the API underneath it. Both fail
// closed: missing data never produces an allow.
package authz
