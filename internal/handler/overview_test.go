package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/model"
)

func TestAdminOverview(t *testing.T) {
	users := newFakeUserStore()
	requests := newFakeRequestStore()
	fundings := newFakeFundingStore()
	h := NewOverviewHandler(users, requests, fundings)
	e := echo.New()

	admin := users.add(model.User{Email: "admin@example.com", Name: "Root", Role: model.RoleAdmin, BloodGroup: "B+", DistrictID: 1})
	users.add(model.User{Email: "vol@example.com", Name: "V", Role: model.RoleVolunteer, BloodGroup: "A+", DistrictID: 1})
	users.add(model.User{Email: "d1@example.com", Name: "D1", BloodGroup: "A+", DistrictID: 1})
	users.add(model.User{Email: "d2@example.com", Name: "D2", BloodGroup: "O+", DistrictID: 1})

	for i := 0; i < 3; i++ {
		requests.add(model.DonationRequest{RequesterEmail: "d1@example.com", Status: model.StatusPending})
	}
	rec1 := &model.FundingRecord{DonorEmail: "d1@example.com", Amount: 200, TransactionID: "pi_1", Status: "succeeded"}
	rec2 := &model.FundingRecord{DonorEmail: "d2@example.com", Amount: 300, TransactionID: "pi_2", Status: "succeeded"}
	for _, r := range []*model.FundingRecord{rec1, rec2} {
		if _, err := fundings.Record(context.Background(), r); err != nil {
			t.Fatalf("seed funding: %v", err)
		}
	}

	c, rec := newContext(e, http.MethodGet, "/v1/admin/overview", "")
	asUser(c, admin)
	if err := h.Admin(c); err != nil {
		t.Fatalf("Admin: %v", err)
	}
	var got struct {
		TotalUsers      int    `json:"totalUsers"`
		TotalDonors     int    `json:"totalDonors"`
		TotalVolunteers int    `json:"totalVolunteers"`
		TotalAdmins     int    `json:"totalAdmins"`
		TotalRequests   int    `json:"totalRequests"`
		TotalFunding    uint64 `json:"totalFunding"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.TotalUsers != 4 || got.TotalDonors != 2 || got.TotalVolunteers != 1 || got.TotalAdmins != 1 {
		t.Errorf("user counts = %+v", got)
	}
	if got.TotalRequests != 3 {
		t.Errorf("totalRequests = %d, want 3", got.TotalRequests)
	}
	if got.TotalFunding != 500 {
		t.Errorf("totalFunding = %d, want 500", got.TotalFunding)
	}
}

func TestDonorOverview(t *testing.T) {
	users := newFakeUserStore()
	requests := newFakeRequestStore()
	h := NewOverviewHandler(users, requests, newFakeFundingStore())
	e := echo.New()

	donor := users.add(model.User{Email: "d1@example.com", Name: "D1", BloodGroup: "A+", DistrictID: 1})

	statuses := []string{
		model.StatusPending, model.StatusPending,
		model.StatusInProgress,
		model.StatusDone, model.StatusDone, model.StatusDone,
		model.StatusCanceled,
	}
	for _, s := range statuses {
		requests.add(model.DonationRequest{
			RequesterEmail: donor.Email,
			Status:         s,
			DonationDate:   time.Now().UTC().AddDate(0, 0, 1),
		})
	}
	// Another user's request stays out of the counts.
	requests.add(model.DonationRequest{RequesterEmail: "other@example.com", Status: model.StatusPending})

	c, rec := newContext(e, http.MethodGet, "/v1/overview", "")
	asUser(c, donor)
	if err := h.Donor(c); err != nil {
		t.Fatalf("Donor: %v", err)
	}
	var got struct {
		Pending    int                     `json:"pending"`
		InProgress int                     `json:"inprogress"`
		Done       int                     `json:"done"`
		Canceled   int                     `json:"canceled"`
		Recent     []model.DonationRequest `json:"recent"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Pending != 2 || got.InProgress != 1 || got.Done != 3 || got.Canceled != 1 {
		t.Errorf("counts = %+v", got)
	}
	if len(got.Recent) != 3 {
		t.Errorf("recent = %d items, want 3", len(got.Recent))
	}
	for _, r := range got.Recent {
		if r.RequesterEmail != donor.Email {
			t.Errorf("recent contains foreign request %d", r.ID)
		}
	}
}
