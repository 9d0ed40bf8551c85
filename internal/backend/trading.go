// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package backend

import (
	"context"
	"net/http"
	"net/url"
	"strconv"

	"github.com/tradewatch/tradewatch/internal/models"
)

// TradeFilter narrows ListTrades.
type TradeFilter struct {
	// OwnerID restricts results to one principal's trades.
	OwnerID string

	// Status restricts by lifecycle state (OPEN or CLOSED).
	Status models.TradeStatus

	// Limit caps the number of results; 0 means backend default.
	Limit int
}

func (f TradeFilter) query() url.Values {
	query := url.Values{}
	if f.OwnerID != "" {
		query.Set("owner_id", f.OwnerID)
	}
	if f.Status != "" {
		query.Set("status", string(f.Status))
	}
	if f.Limit > 0 {
		query.Set("limit", strconv.Itoa(f.Limit))
	}
	return query
}

// ListTrades returns trade records matching the filter.
func (c *Client) ListTrades(ctx context.Context, filter TradeFilter) ([]models.Trade, error) {
	trades, err := getJSON[[]models.Trade](ctx, c, "/internal/v1/trades", filter.query())
	if err != nil {
		return nil, err
	}
	return *trades, nil
}

// GetTrade fetches one trade by ID. Returns ErrNotFound if absent.
func (c *Client) GetTrade(ctx context.Context, id string) (*models.Trade, error) {
	return getJSON[models.Trade](ctx, c, "/internal/v1/trades/"+url.PathEscape(id), nil)
}

// CreateTrade opens a trade record owned by the given principal.
func (c *Client) CreateTrade(ctx context.Context, ownerID string, input models.TradeInput) (*models.Trade, error) {
	payload := struct {
		OwnerID string `json:"owner_id"`
		models.TradeInput
	}{
		OwnerID:    ownerID,
		TradeInput: input,
	}
	return sendJSON[models.Trade](ctx, c, http.MethodPost, "/internal/v1/trades", payload)
}

// UpdateTrade modifies a trade record.
func (c *Client) UpdateTrade(ctx context.Context, id string, input models.TradeInput) (*models.Trade, error) {
	return sendJSON[models.Trade](ctx, c, http.MethodPut, "/internal/v1/trades/"+url.PathEscape(id), input)
}

// CloseTrade closes an open trade at the given exit price.
func (c *Client) CloseTrade(ctx context.Context, id string, exitPrice float64) (*models.Trade, error) {
	payload := map[string]float64{"exit_price": exitPrice}
	return sendJSON[models.Trade](ctx, c, http.MethodPost, "/internal/v1/trades/"+url.PathEscape(id)+"/close", payload)
}

// DeleteTrade removes a trade record.
func (c *Client) DeleteTrade(ctx context.Context, id string) error {
	_, err := c.do(ctx, http.MethodDelete, "/internal/v1/trades/"+url.PathEscape(id), nil, nil)
	return err
}

// ListScreeningResults returns the latest screening run's output rows.
func (c *Client) ListScreeningResults(ctx context.Context, limit int) ([]models.ScreeningResult, error) {
	var query url.Values
	if limit > 0 {
		query = url.Values{"limit": {strconv.Itoa(limit)}}
	}
	results, err := getJSON[[]models.ScreeningResult](ctx, c, "/internal/v1/screening-results", query)
	if err != nil {
		return nil, err
	}
	return *results, nil
}

// GetScreeningResult fetches one screening result by ID.
func (c *Client) GetScreeningResult(ctx context.Context, id string) (*models.ScreeningResult, error) {
	return getJSON[models.ScreeningResult](ctx, c, "/internal/v1/screening-results/"+url.PathEscape(id), nil)
}

// Ping verifies connectivity to the data API.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodGet, "/internal/v1/health", nil, nil)
	return err
}
