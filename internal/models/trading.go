// Tradewatch - Trading Intelligence Dashboard and Access Control
// Copyright 2026 Tradewatch Contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tradewatch/tradewatch

package models

import "time"

// TradeStatus is the lifecycle state of a trade record.
type TradeStatus string

const (
	TradeOpen   TradeStatus = "OPEN"
	TradeClosed TradeStatus = "CLOSED"
)

// TradeSide is the direction of a trade.
type TradeSide string

const (
	SideLong  TradeSide = "LONG"
	SideShort TradeSide = "SHORT"
)

// Trade is a trade record stored in the external data API. The dashboard
// renders these; P&L computation stays in the backend.
type Trade struct {
	ID         string      `json:"id"`
	OwnerID    string      `json:"owner_id"`
	Symbol     string      `json:"symbol"`
	Side       TradeSide   `json:"side"`
	Quantity   float64     `json:"quantity"`
	EntryPrice float64     `json:"entry_price"`
	ExitPrice  *float64    `json:"exit_price,omitempty"`
	Status     TradeStatus `json:"status"`
	OpenedAt   time.Time   `json:"opened_at"`
	ClosedAt   *time.Time  `json:"closed_at,omitempty"`
	Notes      string      `json:"notes,omitempty"`
}

// TradeInput is the payload for creating or updating a trade record.
type TradeInput struct {
	Symbol     string  `json:"symbol" validate:"required,min=1,max=12"`
	Side       string  `json:"side" validate:"required,oneof=LONG SHORT"`
	Quantity   float64 `json:"quantity" validate:"required,gt=0"`
	EntryPrice float64 `json:"entry_price" validate:"required,gt=0"`
	Notes      string  `json:"notes" validate:"max=2000"`
}

// ScreeningResult is a stored output row of a screening run. Screening
// algorithms live in the backend; this is presentation plumbing only.
type ScreeningResult struct {
	ID          string    `json:"id"`
	Symbol      string    `json:"symbol"`
	Score       float64   `json:"score"`
	Signals     []string  `json:"signals,omitempty"`
	GeneratedAt time.Time `json:"generated_at"`
}
