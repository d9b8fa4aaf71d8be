package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"testing"

	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/config"
	"github.com/bloodbridge/api/internal/model"
	"github.com/bloodbridge/api/internal/utils"
)

func newAuthHandler(t *testing.T) (*AuthHandler, *fakeUserStore, *fakeTokenStore) {
	t.Helper()
	users := newFakeUserStore()
	tokens := newFakeTokenStore()
	cfg := config.Config{
		JWTSecret:      "test-secret",
		AccessTTLMin:   15,
		RefreshTTLDays: 7,
		BcryptCost:     4, // MinCost keeps the tests fast
	}
	return NewAuthHandler(cfg, users, tokens, newFakeDirectoryStore()), users, tokens
}

func registerBody(email string) string {
	return fmt.Sprintf(`{
		"email": %q,
		"password": "secret1",
		"name": "Karim",
		"bloodGroup": "A+",
		"districtId": 1,
		"upazila": "Savar"
	}`, email)
}

func TestRegisterCreatesActiveDonor(t *testing.T) {
	h, _, _ := newAuthHandler(t)
	e := echo.New()

	c, rec := newContext(e, http.MethodPost, "/v1/auth/register", registerBody("karim@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("status = %d, want 201 (%s)", rec.Code, rec.Body)
	}
	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if resp.User.Role != model.RoleDonor {
		t.Errorf("role = %q, want donor", resp.User.Role)
	}
	if resp.User.Status != model.UserActive {
		t.Errorf("status = %q, want active", resp.User.Status)
	}
	if resp.Access.Token == "" || resp.Refresh.Token == "" {
		t.Error("token pair missing")
	}
}

func TestRegisterDuplicateEmail(t *testing.T) {
	h, _, _ := newAuthHandler(t)
	e := echo.New()

	c, rec := newContext(e, http.MethodPost, "/v1/auth/register", registerBody("karim@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusCreated {
		t.Fatalf("first register: status = %d", rec.Code)
	}

	// Email comparison is case-insensitive.
	c, rec = newContext(e, http.MethodPost, "/v1/auth/register", registerBody("KARIM@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	if rec.Code != http.StatusConflict {
		t.Fatalf("duplicate register: status = %d, want 409", rec.Code)
	}
}

func TestRegisterValidation(t *testing.T) {
	h, _, _ := newAuthHandler(t)
	e := echo.New()

	cases := []struct {
		name string
		body string
		want string
	}{
		{"short password", `{"email":"a@b.c","password":"123","name":"A","bloodGroup":"A+","districtId":1}`, "password must be at least 6 characters"},
		{"bad blood group", `{"email":"a@b.c","password":"secret1","name":"A","bloodGroup":"X+","districtId":1}`, "invalid blood group"},
		{"bad district", `{"email":"a@b.c","password":"secret1","name":"A","bloodGroup":"A+","districtId":42}`, "unknown district"},
		{"missing name", `{"email":"a@b.c","password":"secret1","bloodGroup":"A+","districtId":1}`, "name is required"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			c, rec := newContext(e, http.MethodPost, "/v1/auth/register", tc.body)
			if err := h.Register(c); err != nil {
				t.Fatalf("Register: %v", err)
			}
			if rec.Code != http.StatusBadRequest {
				t.Fatalf("status = %d, want 400 (%s)", rec.Code, rec.Body)
			}
			if msg := decodeError(t, rec); msg != tc.want {
				t.Errorf("error = %q, want %q", msg, tc.want)
			}
		})
	}
}

func TestLoginAndRefreshRotation(t *testing.T) {
	h, _, tokens := newAuthHandler(t)
	e := echo.New()

	c, rec := newContext(e, http.MethodPost, "/v1/auth/register", registerBody("karim@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}

	c, rec = newContext(e, http.MethodPost, "/v1/auth/login", `{"email":"karim@example.com","password":"secret1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("login status = %d (%s)", rec.Code, rec.Body)
	}
	var login authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &login); err != nil {
		t.Fatalf("decode: %v", err)
	}

	// Rotate the refresh token.
	c, rec = newContext(e, http.MethodPost, "/v1/auth/refresh", fmt.Sprintf(`{"refresh_token": %q}`, login.Refresh.Token))
	if err := h.Refresh(c); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rec.Code != http.StatusOK {
		t.Fatalf("refresh status = %d (%s)", rec.Code, rec.Body)
	}

	// The consumed token is revoked; replaying it fails.
	if _, err := tokens.ValidateRefresh(context.Background(), utils.HashRefreshRaw(login.Refresh.Token)); err == nil {
		t.Error("rotated refresh token still valid")
	}
	c, rec = newContext(e, http.MethodPost, "/v1/auth/refresh", fmt.Sprintf(`{"refresh_token": %q}`, login.Refresh.Token))
	if err := h.Refresh(c); err != nil {
		t.Fatalf("Refresh: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("replay status = %d, want 401", rec.Code)
	}
}

func TestLoginWrongPassword(t *testing.T) {
	h, _, _ := newAuthHandler(t)
	e := echo.New()

	c, _ := newContext(e, http.MethodPost, "/v1/auth/register", registerBody("karim@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}

	c, rec := newContext(e, http.MethodPost, "/v1/auth/login", `{"email":"karim@example.com","password":"wrong1"}`)
	if err := h.Login(c); err != nil {
		t.Fatalf("Login: %v", err)
	}
	if rec.Code != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", rec.Code)
	}
}

func TestLogoutRevokesSession(t *testing.T) {
	h, _, tokens := newAuthHandler(t)
	e := echo.New()

	c, rec := newContext(e, http.MethodPost, "/v1/auth/register", registerBody("karim@example.com"))
	if err := h.Register(c); err != nil {
		t.Fatalf("Register: %v", err)
	}
	var resp authResp
	if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode: %v", err)
	}

	c, rec = newContext(e, http.MethodPost, "/v1/auth/logout", fmt.Sprintf(`{"refresh_token": %q}`, resp.Refresh.Token))
	if err := h.Logout(c); err != nil {
		t.Fatalf("Logout: %v", err)
	}
	if rec.Code != http.StatusNoContent {
		t.Fatalf("logout status = %d, want 204", rec.Code)
	}
	if _, err := tokens.ValidateRefresh(context.Background(), utils.HashRefreshRaw(resp.Refresh.Token)); err == nil {
		t.Error("refresh token still valid after logout")
	}
}

func TestMeResolvesCurrentRoleAndStatus(t *testing.T) {
	h, users, _ := newAuthHandler(t)
	e := echo.New()

	u := users.add(model.User{Email: "karim@example.com", Name: "Karim", BloodGroup: "A+", DistrictID: 1})

	// Promote after sign-up; Me must reflect the store, not the token.
	if err := users.SetRole(context.Background(), u.ID, model.RoleVolunteer); err != nil {
		t.Fatalf("SetRole: %v", err)
	}

	c, rec := newContext(e, http.MethodGet, "/v1/me", "")
	asUser(c, u)
	if err := h.Me(c); err != nil {
		t.Fatalf("Me: %v", err)
	}
	var got userPart
	if err := json.Unmarshal(rec.Body.Bytes(), &got); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if got.Role != model.RoleVolunteer {
		t.Errorf("role = %q, want volunteer", got.Role)
	}
}
