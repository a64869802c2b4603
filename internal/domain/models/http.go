package models

// Requests for the signal API endpoints. Defined in domain for consistency and reuse.

type RegimeRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}

type SignalsRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	N      int    `query:"n" json:"n" default:"500" validate:"gte=1,lte=10000"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}

type LevelsRequest struct {
	Symbol string  `query:"symbol" json:"symbol" validate:"required"`
	Entry  float64 `query:"entry" json:"entry" validate:"required,gt=0"`
	Side   string  `query:"side" json:"side" default:"LONG" validate:"oneof=LONG SHORT"`
	N      int     `query:"n" json:"n" default:"300" validate:"gte=1,lte=5000"`
	TF     string  `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}

type BacktestRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from" validate:"required"`
	To     string `query:"to" json:"to" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
}

type CandlesRequest struct {
	Symbol string `query:"symbol" json:"symbol" validate:"required"`
	From   string `query:"from" json:"from" validate:"required"`
	To     string `query:"to" json:"to" validate:"required"`
	TF     string `query:"tf" json:"tf" default:"1h" validate:"oneof=1m 5m 15m 1h 4h 1d"`
	Limit  int    `query:"limit" json:"limit" default:"10000" validate:"gte=1,lte=50000"`
}
