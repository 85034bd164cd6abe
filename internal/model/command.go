package model

// Command is one line of a replay script.
type Command struct {
	Op     string `json:"op"`
	Caller string `json:"caller"`
	// Amount is the token amount for init and sell, the base amount otherwise.
	Amount string `json:"amount"`
	// BaseAmount is the base asset attached to init.
	BaseAmount string `json:"base_amount,omitempty"`
	// MinOut bounds slippage for buy and sell.
	MinOut string `json:"min_out,omitempty"`
}
