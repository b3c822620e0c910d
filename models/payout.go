package models

// PayoutRequest represents the standard request structure for the payout processor API
type PayoutRequest struct {
	Amount      *float64 `json:"amount,omitempty"`
	Currency    string   `json:"currency,omitempty"`
	Reference   string   `json:"reference,omitempty"`
	ExternalID  *int64   `json:"externalId,omitempty"`
	CallbackURL string   `json:"callbackUrl,omitempty"`
}

// PayoutResponse represents the standard response structure from the payout processor API
type PayoutResponse struct {
	Status bool                   `json:"status"`
	Code   interface{}            `json:"code"`   // Can be string or null
	Dialog interface{}            `json:"dialog"` // Can be string, object, or null
	Extra  interface{}            `json:"extra"`
	Data   map[string]interface{} `json:"data"`
}

// PayoutBalanceDetails represents the processor account balance information
type PayoutBalanceDetails struct {
	Balance float64 `json:"balance"`
}

// PayoutStatusData represents the payout status information
type PayoutStatusData struct {
	PayoutStatus string `json:"payoutStatus"`
	ReceiverName string `json:"receiverName"`
}
