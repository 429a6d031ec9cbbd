package models

// SimulateRequest is the input of the simulate endpoints.
type SimulateRequest struct {
	Symbol string `query:"symbol" json:"symbol" default:"AAPL" validate:"required,max=15,printascii"`
}
