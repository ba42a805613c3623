package entity

import "errors"

// ErrInsufficientCredits is returned whenever a debit would take a user's
// balance below zero. Callers treat it as a user-facing condition, not a
// server fault.
var ErrInsufficientCredits = errors.New("insufficient credits")

// Meta contains pagination metadata.
type Meta struct {
	Page     int64 `json:"page"`
	PageSize int64 `json:"page_size"`
	Total    int64 `json:"total"`
}

// BaseParams contains common pagination and sorting parameters.
type BaseParams struct {
	PageSize int64  `json:"page_size" form:"page_size" query:"page_size"`
	Page     int64  `json:"page" form:"page" query:"page"`
	SortBy   string `json:"sort_by" form:"sort_by" query:"sort_by"`
	SortDesc bool   `json:"sort_desc" form:"sort_desc" query:"sort_desc"`
}
