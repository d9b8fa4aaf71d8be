package model

import "time"

// DonationRequest represents a plea for blood created by a requester on
// behalf of a recipient. It corresponds to a row in the `blood_requests`
// table. The requester identity is copied from the session at creation
// time and never changes afterwards; the donator fields are set exactly
// once, when a donor claims the request and it moves to inprogress.
//
// Fields:
//  ID             – primary key identifier.
//  RequesterName  – display name of the user who created the request.
//  RequesterEmail – email of the creator; immutable after creation.
//  RecipientName  – person in need of blood (not necessarily a user).
//  BloodGroup     – required ABO/Rh group, one of BloodGroups.
//  DistrictID     – district of the donation location.
//  DistrictName   – denormalized district name for display.
//  Upazila        – upazila (sub-district) of the donation location.
//  HospitalName   – hospital where the donation takes place.
//  Address        – full hospital address line.
//  DonationDate   – scheduled date of the donation (UTC midnight).
//  DonationTime   – display time string as entered by the requester.
//  RequestMessage – optional free-text message to potential donors.
//  Status         – pending, inprogress, done or canceled.
//  DonorName      – confirmed donor's name (nil while pending).
//  DonorEmail     – confirmed donor's email (nil while pending).
//  ConfirmedAt    – when the donor claimed the request (nil while pending).
//  AddedAt        – creation timestamp, immutable.
//  UpdatedAt      – timestamp of last update.
type DonationRequest struct {
	ID             uint64     `json:"id"`
	RequesterName  string     `json:"requesterName"`
	RequesterEmail string     `json:"requesterEmail"`
	RecipientName  string     `json:"recipientName"`
	BloodGroup     string     `json:"bloodGroup"`
	DistrictID     uint64     `json:"districtId"`
	DistrictName   string     `json:"district"`
	Upazila        string     `json:"upazila"`
	HospitalName   string     `json:"hospitalName"`
	Address        string     `json:"address"`
	DonationDate   time.Time  `json:"donationDateTime"`
	DonationTime   string     `json:"donationTime"`
	RequestMessage *string    `json:"requestMessage,omitempty"`
	Status         string     `json:"status"`
	DonorName      *string    `json:"donorName,omitempty"`
	DonorEmail     *string    `json:"donorEmail,omitempty"`
	ConfirmedAt    *time.Time `json:"confirmedAt,omitempty"`
	AddedAt        time.Time  `json:"addedAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}
