package model

import "time"

// FundingRecord is one row of the append-only funding ledger. A record
// is written only after the payment processor confirms the charge; the
// processor-assigned transaction id is unique, which is what makes
// retried submissions idempotent.
type FundingRecord struct {
	ID            uint64    `json:"id"`
	DonorName     string    `json:"name"`
	DonorEmail    string    `json:"email"`
	Amount        uint32    `json:"amount"`
	TransactionID string    `json:"transactionId"`
	Status        string    `json:"status"`
	CreatedAt     time.Time `json:"createdAt"`
}
