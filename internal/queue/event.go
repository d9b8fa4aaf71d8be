// Package queue defines message payloads exchanged over the message broker.
package queue

// DonationConfirmedEvent is published when a donor successfully claims a
// pending blood request. It carries enough information for downstream
// consumers to log, notify the requester, or feed analytics without
// querying the primary database.
type DonationConfirmedEvent struct {
	RequestID      uint64 `json:"request_id"`
	RequesterName  string `json:"requester_name"`
	RequesterEmail string `json:"requester_email"`
	RecipientName  string `json:"recipient_name"`
	BloodGroup     string `json:"blood_group"`
	District       string `json:"district"`
	Upazila        string `json:"upazila"`
	HospitalName   string `json:"hospital_name"`
	DonationDate   string `json:"donation_date"`
	DonorName      string `json:"donor_name"`
	DonorEmail     string `json:"donor_email"`
	ConfirmedAt    string `json:"confirmed_at"`
}
