package api

import (
	"github.com/etnz/papertrade"
	"github.com/shopspring/decimal"
)

// OrderRequest is the body of POST /users/{user}/orders.
type OrderRequest struct {
	Symbol   string              `json:"symbol"`
	Side     string              `json:"side"`
	Quantity papertrade.Quantity `json:"quantity"`
}

// ErrorResponse is the body of every non 2xx response. Reason is set for
// rejected orders only.
type ErrorResponse struct {
	Error  string `json:"error"`
	Reason string `json:"reason,omitempty"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status string `json:"status"`
}

// QuoteResponse is the body of GET /prices/{symbol}.
type QuoteResponse struct {
	Symbol   string          `json:"symbol"`
	Price    decimal.Decimal `json:"price"`
	Currency string          `json:"currency"`
}

// PortfolioResponse is a papertrade.Valuation. Amounts are in Currency.
type PortfolioResponse struct {
	Currency    string            `json:"currency"`
	Cash        decimal.Decimal   `json:"cash"`
	Securities  decimal.Decimal   `json:"securities"`
	Total       decimal.Decimal   `json:"total"`
	Complete    bool              `json:"complete"`
	Unavailable []string          `json:"unavailable,omitempty"`
	Holdings    []HoldingResponse `json:"holdings"`
}

// HoldingResponse is one position. Price, MarketValue and UnrealizedGain are
// null when the price is unavailable.
type HoldingResponse struct {
	Symbol         string              `json:"symbol"`
	Quantity       papertrade.Quantity `json:"quantity"`
	AverageCost    decimal.Decimal     `json:"averageCost"`
	Cost           decimal.Decimal     `json:"cost"`
	Price          *decimal.Decimal    `json:"price"`
	MarketValue    *decimal.Decimal    `json:"marketValue"`
	UnrealizedGain *decimal.Decimal    `json:"unrealizedGain"`
}

func newPortfolioResponse(v papertrade.Valuation) PortfolioResponse {
	resp := PortfolioResponse{
		Currency:    v.Currency,
		Cash:        v.Cash.Decimal(),
		Securities:  v.Securities.Decimal(),
		Total:       v.Total.Decimal(),
		Complete:    v.Complete(),
		Unavailable: v.Unavailable(),
		Holdings:    make([]HoldingResponse, 0, len(v.Holdings)),
	}
	for _, h := range v.Holdings {
		hr := HoldingResponse{
			Symbol:      h.Symbol,
			Quantity:    h.Quantity,
			AverageCost: h.AverageCost.Decimal(),
			Cost:        h.Cost.Decimal(),
		}
		if h.Available {
			price, value, gain := h.Price.Decimal(), h.MarketValue.Decimal(), h.UnrealizedGain.Decimal()
			hr.Price, hr.MarketValue, hr.UnrealizedGain = &price, &value, &gain
		}
		resp.Holdings = append(resp.Holdings, hr)
	}
	return resp
}
