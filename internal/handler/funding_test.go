package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/model"
)

type fundingEnv struct {
	handler  *FundingHandler
	fundings *fakeFundingStore
	payments *fakePaymentProvider
	users    *fakeUserStore
	echo     *echo.Echo

	donor *model.User
	admin *model.User
}

func newFundingEnv(t *testing.T) *fundingEnv {
	t.Helper()
	users := newFakeUserStore()
	fundings := newFakeFundingStore()
	payments := newFakePaymentProvider()
	env := &fundingEnv{
		handler:  NewFundingHandler(fundings, users, payments),
		fundings: fundings,
		payments: payments,
		users:    users,
		echo:     echo.New(),
	}
	env.donor = users.add(model.User{Email: "donor@example.com", Name: "Fatema", BloodGroup: "A+", DistrictID: 1})
	env.admin = users.add(model.User{Email: "admin@example.com", Name: "Root", Role: model.RoleAdmin, BloodGroup: "B+", DistrictID: 1})
	return env
}

func (env *fundingEnv) intent(t *testing.T, amount uint32) string {
	t.Helper()
	c, rec := newContext(env.echo, http.MethodPost, "/v1/funding/intent", fmt.Sprintf(`{"amount": %d}`, amount))
	asUser(c, env.donor)
	if err := env.handler.CreateIntent(c); err != nil {
		t.Fatalf("CreateIntent: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("intent status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	var resp struct {
		TransactionID string `json:"transactionId"`
		ClientSecret  string `json:"clientSecret"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.ClientSecret == "" {
		t.Fatal("clientSecret missing")
	}
	return resp.TransactionID
}

func (env *fundingEnv) record(t *testing.T, u *model.User, amount uint32, txID string) *httptest.ResponseRecorder {
	t.Helper()
	body := fmt.Sprintf(`{"amount": %d, "transactionId": %q}`, amount, txID)
	c, rec := newContext(env.echo, http.MethodPost, "/v1/funding", body)
	asUser(c, u)
	if err := env.handler.Record(c); err != nil {
		t.Fatalf("Record: %v", err)
	}
	return rec
}

func TestRecordFundingIdempotent(t *testing.T) {
	env := newFundingEnv(t)
	txID := env.intent(t, 500)

	rec := env.record(t, env.donor, 500, txID)
	if rec.Code != http.StatusCreated {
		t.Fatalf("first record: status = %d, want 201 (%s)", rec.Code, rec.Body)
	}
	var first model.FundingRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &first); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// A retried confirmation returns the existing row, not a second one.
	rec = env.record(t, env.donor, 500, txID)
	if rec.Code != http.StatusOK {
		t.Fatalf("retry: status = %d, want 200 (%s)", rec.Code, rec.Body)
	}
	var second model.FundingRecord
	if err := json.Unmarshal(rec.Body.Bytes(), &second); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if second.ID != first.ID {
		t.Errorf("retry returned id %d, want %d", second.ID, first.ID)
	}

	if total, _ := env.fundings.Total(context.Background(), ""); total != 500 {
		t.Errorf("ledger total = %d, want 500", total)
	}
}

func TestRecordFundingRequiresSucceededPayment(t *testing.T) {
	env := newFundingEnv(t)
	rec := env.record(t, env.donor, 500, "pi_unknown")
	if rec.Code != http.StatusConflict {
		t.Fatalf("status = %d, want 409 (%s)", rec.Code, rec.Body)
	}
}

func TestRecordFundingValidation(t *testing.T) {
	env := newFundingEnv(t)

	rec := env.record(t, env.donor, 0, "pi_x")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("zero amount: status = %d, want 400", rec.Code)
	}
	rec = env.record(t, env.donor, 100, "")
	if rec.Code != http.StatusBadRequest {
		t.Errorf("missing txid: status = %d, want 400", rec.Code)
	}
}

func TestFundingListScope(t *testing.T) {
	env := newFundingEnv(t)
	other := env.users.add(model.User{Email: "other@example.com", Name: "Nadia", BloodGroup: "O+", DistrictID: 1})

	for i, u := range []*model.User{env.donor, env.donor, other} {
		txID := env.intent(t, uint32(100*(i+1)))
		if rec := env.record(t, u, uint32(100*(i+1)), txID); rec.Code != http.StatusCreated {
			t.Fatalf("seed record %d: status = %d", i, rec.Code)
		}
	}

	// The donor sees only their own rows and total.
	c, rec := newContext(env.echo, http.MethodGet, "/v1/funding", "")
	asUser(c, env.donor)
	if err := env.handler.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	var mine struct {
		Items       []model.FundingRecord `json:"items"`
		TotalCount  int                   `json:"totalCount"`
		TotalAmount uint64                `json:"totalAmount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &mine); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if mine.TotalCount != 2 || mine.TotalAmount != 300 {
		t.Errorf("donor scope: count = %d total = %d, want 2/300", mine.TotalCount, mine.TotalAmount)
	}

	// Admins see the whole ledger.
	c, rec = newContext(env.echo, http.MethodGet, "/v1/funding", "")
	asUser(c, env.admin)
	if err := env.handler.List(c); err != nil {
		t.Fatalf("List: %v", err)
	}
	var all struct {
		TotalCount  int    `json:"totalCount"`
		TotalAmount uint64 `json:"totalAmount"`
	}
	if err := json.Unmarshal(rec.Body.Bytes(), &all); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if all.TotalCount != 3 || all.TotalAmount != 600 {
		t.Errorf("admin scope: count = %d total = %d, want 3/600", all.TotalCount, all.TotalAmount)
	}
}
