// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package backend

import (
	"context"
	"net/http"
	"net/url"

	"github.com/tradewatch/tradewatch/internal/models"
)

// GetAccessRecord fetches the access record for a principal. Returns
// ErrNotFound when the principal has never been approved.
func (c *Client) GetAccessRecord(ctx context.Context, principalID string) (*models.AccessRecord, error) {
	return getJSON[models.AccessRecord](ctx, c, "/internal/v1/access-records/"+url.PathEscape(principalID), nil)
}

// ListAccessRecords returns all access records, for the admin surface.
func (c *Client) ListAccessRecords(ctx context.Context) ([]models.AccessRecord, error) {
	records, err := getJSON[[]models.AccessRecord](ctx, c, "/internal/v1/access-records", nil)
	if err != nil {
		return nil, err
	}
	return *records, nil
}

// UpdateAccessRecord applies a partial update (role, preset, explicit
// permissions) to a principal's record and returns the updated record.
func (c *Client) UpdateAccessRecord(ctx context.Context, recordID string, patch map[string]any) (*models.AccessRecord, error) {
	return sendJSON[models.AccessRecord](ctx, c, http.MethodPatch, "/internal/v1/access-records/"+url.PathEscape(recordID), patch)
}

// RevokeAccess transitions a principal's record to REVOKED. Revocation
// is a status change, never a deletion, so the decision layer can
// distinguish "revoked" from "never approved".
func (c *Client) RevokeAccess(ctx context.Context, principalID string) (*models.AccessRecord, error) {
	return sendJSON[models.AccessRecord](ctx, c, http.MethodPost, "/internal/v1/access-records/"+url.PathEscape(principalID)+"/revoke", nil)
}

// GetAccessRequest fetches the latest access request for a principal.
// Returns ErrNotFound when the principal has never applied.
func (c *Client) GetAccessRequest(ctx context.Context, principalID string) (*models.AccessRequest, error) {
	return getJSON[models.AccessRequest](ctx, c, "/internal/v1/access-requests/by-principal/"+url.PathEscape(principalID), nil)
}

// CreateAccessRequest submits an onboarding application for a principal.
func (c *Client) CreateAccessRequest(ctx context.Context, principalID string, input models.AccessRequestInput) (*models.AccessRequest, error) {
	payload := struct {
		PrincipalID string `json:"principal_id"`
		models.AccessRequestInput
	}{
		PrincipalID:        principalID,
		AccessRequestInput: input,
	}
	return sendJSON[models.AccessRequest](ctx, c, http.MethodPost, "/internal/v1/access-requests", payload)
}

// ListAccessRequests returns access requests, optionally filtered by
// status, for the admin review queue.
func (c *Client) ListAccessRequests(ctx context.Context, status models.RequestStatus) ([]models.AccessRequest, error) {
	var query url.Values
	if status != "" {
		query = url.Values{"status": {string(status)}}
	}
	requests, err := getJSON[[]models.AccessRequest](ctx, c, "/internal/v1/access-requests", query)
	if err != nil {
		return nil, err
	}
	return *requests, nil
}

// ReviewAccessRequest records an administrator's decision. On approval
// the backend creates (or reinstates) the access record; the returned
// request reflects the new status.
func (c *Client) ReviewAccessRequest(ctx context.Context, requestID string, reviewerID string, input models.ReviewInput) (*models.AccessRequest, error) {
	payload := struct {
		ReviewerID string `json:"reviewer_id"`
		models.ReviewInput
	}{
		ReviewerID:  reviewerID,
		ReviewInput: input,
	}
	return sendJSON[models.AccessRequest](ctx, c, http.MethodPost, "/internal/v1/access-requests/"+url.PathEscape(requestID)+"/review", payload)
}
