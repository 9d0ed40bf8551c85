// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

/*
access.go - Access-Control Domain Models

This file defines the durable records the access-control layer reasons over:

  - Principal: the authenticated identity attempting access
  - AccessRecord: approval status, role, and feature permissions for a principal
  - AccessRequest: the onboarding application awaiting administrator review

Invariants:
  - At most one AccessRecord per principal; revocation is a status transition
    (REVOKED), never a deletion.
  - At most one active AccessRequest per principal; only administrators move
    it out of PENDING.

Both records are owned by the external data API; this process only reads
immutable snapshots of them.
*/

package models

import (
	"time"

	"github.com/tradewatch/tradewatch/internal/features"
)

// Role constants define the standard roles in the system.
// These align with the Casbin policy definitions in internal/authz/policy.csv.
const (
	// RoleViewer has read-only access to the data the dashboard exposes.
	RoleViewer = "viewer"

	// RoleTrader can create and modify trade records (inherits viewer).
	RoleTrader = "trader"

	// RoleAdmin has full access including access administration (inherits trader).
	RoleAdmin = "admin"
)

// ValidRoles contains all valid role names for validation.
var ValidRoles = []string{RoleViewer, RoleTrader, RoleAdmin}

// IsValidRole checks if a role name is valid.
func IsValidRole(role string) bool {
	for _, r := range ValidRoles {
		if r == role {
			return true
		}
	}
	return false
}

// AccessStatus is the lifecycle state of an AccessRecord.
type AccessStatus string

const (
	AccessPending  AccessStatus = "PENDING"
	AccessApproved AccessStatus = "APPROVED"
	AccessRejected AccessStatus = "REJECTED"
	AccessRevoked  AccessStatus = "REVOKED"
)

// RequestStatus is the lifecycle state of an AccessRequest.
type RequestStatus string

const (
	RequestPending  RequestStatus = "PENDING"
	RequestApproved RequestStatus = "APPROVED"
	RequestRejected RequestStatus = "REJECTED"
)

// Principal is the authenticated identity attempting access, derived from
// the identity-provider session. A zero Principal is unauthenticated.
type Principal struct {
	// ID is the identity provider's subject identifier.
	ID string `json:"id"`

	// Email is the principal's email address.
	Email string `json:"email"`

	// Authenticated is true when a valid session backs this principal.
	Authenticated bool `json:"authenticated"`

	// IdPAdmin is true when the identity provider places the principal in
	// the configured administrators group. IdP admins are provisioned
	// outside the access-request workflow and bypass per-feature gating.
	IdPAdmin bool `json:"idp_admin"`

	// Groups are the raw identity-provider group memberships.
	Groups []string `json:"groups,omitempty"`
}

// InGroup reports whether the principal belongs to the named IdP group.
func (p *Principal) InGroup(group string) bool {
	if group == "" {
		return false
	}
	for _, g := range p.Groups {
		if g == group {
			return true
		}
	}
	return false
}

// AccessRecord is the durable approval/role/permission record for a
// principal. Created when an administrator approves an AccessRequest.
type AccessRecord struct {
	// ID is the record's identifier in the data API.
	ID string `json:"id"`

	// PrincipalID is the identity-provider subject this record belongs to.
	PrincipalID string `json:"principal_id"`

	// Email is the principal's email at approval time.
	Email string `json:"email"`

	// Role is the assigned role (viewer, trader, admin).
	Role string `json:"role"`

	// Status is the approval lifecycle state.
	Status AccessStatus `json:"status"`

	// Permissions is the explicit feature set. Authoritative when Preset
	// is empty or CUSTOM.
	Permissions []features.Feature `json:"permissions,omitempty"`

	// Preset names a permission bundle. When set and not CUSTOM it
	// overrides Permissions.
	Preset features.Preset `json:"preset,omitempty"`

	// CreatedAt is when the record was created (administrator approval).
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the record was last modified.
	UpdatedAt time.Time `json:"updated_at"`
}

// IsApproved reports whether the record grants general app access.
func (r *AccessRecord) IsApproved() bool {
	return r != nil && r.Status == AccessApproved
}

// IsRevoked reports whether the record has been revoked.
func (r *AccessRecord) IsRevoked() bool {
	return r != nil && r.Status == AccessRevoked
}

// EffectivePermissions resolves the feature set this record grants.
// A static preset wins over the explicit list; CUSTOM and absent presets
// fall back to the explicit list. A nil record grants nothing.
func (r *AccessRecord) EffectivePermissions() []features.Feature {
	if r == nil {
		return nil
	}
	if r.Preset != "" && r.Preset != features.PresetCustom {
		if set, ok := features.PresetSet(r.Preset); ok {
			return set
		}
	}
	return r.Permissions
}

// HasPermission reports whether the record's effective set contains f.
func (r *AccessRecord) HasPermission(f features.Feature) bool {
	for _, p := range r.EffectivePermissions() {
		if p == f {
			return true
		}
	}
	return false
}

// AccessRequest is the onboarding application submitted by a principal.
type AccessRequest struct {
	// ID is the request's identifier in the data API.
	ID string `json:"id"`

	// PrincipalID is the identity-provider subject of the applicant.
	PrincipalID string `json:"principal_id"`

	// Email is the applicant's email address.
	Email string `json:"email"`

	// FullName is the applicant's full name.
	FullName string `json:"full_name"`

	// TradingExperience is the applicant's self-reported experience level.
	TradingExperience string `json:"trading_experience"`

	// Reason is why the applicant wants access.
	Reason string `json:"reason"`

	// Status is the review lifecycle state.
	Status RequestStatus `json:"status"`

	// ReviewNotes are optional administrator notes from review.
	ReviewNotes string `json:"review_notes,omitempty"`

	// CreatedAt is when the request was submitted.
	CreatedAt time.Time `json:"created_at"`

	// ReviewedAt is when an administrator acted on the request.
	ReviewedAt *time.Time `json:"reviewed_at,omitempty"`
}

// AwaitsOrFailedReview reports whether the request is pending or was
// rejected. Both route the applicant to the pending-approval page.
func (r *AccessRequest) AwaitsOrFailedReview() bool {
	return r != nil && (r.Status == RequestPending || r.Status == RequestRejected)
}

// AccessRequestInput is the payload a principal submits when applying.
type AccessRequestInput struct {
	Email             string `json:"email" validate:"required,email"`
	FullName          string `json:"full_name" validate:"required,min=2,max=120"`
	TradingExperience string `json:"trading_experience" validate:"required,oneof=none beginner intermediate advanced professional"`
	Reason            string `json:"reason" validate:"required,min=10,max=2000"`
}

// ReviewInput is the payload an administrator submits when reviewing.
type ReviewInput struct {
	Status string `json:"status" validate:"required,oneof=APPROVED REJECTED"`
	Notes  string `json:"notes" validate:"max=2000"`

	// Role and Preset seed the AccessRecord created on approval.
	Role   string `json:"role" validate:"omitempty,oneof=viewer trader admin"`
	Preset string `json:"preset" validate:"omitempty"`
}
