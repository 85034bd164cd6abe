package model

// OperationRecord is the journal representation of an attempted operation.
type OperationRecord struct {
	Seq          uint64 `json:"seq"`
	Op           string `json:"op"`
	Caller       string `json:"caller"`
	BaseIn       string `json:"base_in"`
	TokenIn      string `json:"token_in"`
	BaseOut      string `json:"base_out"`
	TokenOut     string `json:"token_out"`
	BaseReserve  string `json:"base_reserve"`
	TokenReserve string `json:"token_reserve"`
	Initialized  bool   `json:"initialized"`
	ErrorKind    string `json:"error_kind,omitempty"`
	Error        string `json:"error,omitempty"`
	AppliedAt    string `json:"applied_at"`
}

// Failed reports whether the record holds a rejected operation.
func (r OperationRecord) Failed() bool {
	return r.ErrorKind != ""
}

// RecordFromReceipt builds a successful journal record.
func RecordFromReceipt(seq uint64, receipt Receipt, appliedAt string) OperationRecord {
	return OperationRecord{
		Seq:          seq,
		Op:           string(receipt.Op),
		Caller:       receipt.Caller.Hex(),
		BaseIn:       receipt.BaseIn.Dec(),
		TokenIn:      receipt.TokenIn.Dec(),
		BaseOut:      receipt.BaseOut.Dec(),
		TokenOut:     receipt.TokenOut.Dec(),
		BaseReserve:  receipt.Reserves.Base.Dec(),
		TokenReserve: receipt.Reserves.Token.Dec(),
		Initialized:  true,
		AppliedAt:    appliedAt,
	}
}
