package handler

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/model"
	"github.com/bloodbridge/api/internal/queue"
	"github.com/bloodbridge/api/internal/repository"
)

// RequestHandler implements the donation-request lifecycle and its
// query surface. Role checks for route groups happen in middleware;
// per-record ownership checks (requester vs. donator vs. admin) happen
// here, once per operation. All writes go through guarded updates in
// the store, so a stale transition attempt surfaces as 409 rather than
// a silent overwrite.
type RequestHandler struct {
	Requests  RequestStore
	Users     UserStore
	Directory DirectoryStore
	// Publish is called after a successful claim. Nil disables event
	// publishing (tests); failures are logged, never surfaced.
	Publish func(ctx context.Context, ev queue.DonationConfirmedEvent) error
}

// NewRequestHandler constructs a RequestHandler with the provided
// stores. Requests, Users and Directory must be non-nil.
func NewRequestHandler(requests RequestStore, users UserStore, directory DirectoryStore, publish func(ctx context.Context, ev queue.DonationConfirmedEvent) error) *RequestHandler {
	if requests == nil || users == nil || directory == nil {
		panic("nil store passed to NewRequestHandler")
	}
	return &RequestHandler{Requests: requests, Users: users, Directory: directory, Publish: publish}
}

// ----- DTOs -----

type requestBody struct {
	RecipientName  string `json:"recipientName"`
	BloodGroup     string `json:"bloodGroup"`
	DistrictID     uint64 `json:"districtId"`
	Upazila        string `json:"upazila"`
	HospitalName   string `json:"hospitalName"`
	Address        string `json:"address"`
	DonationDate   string `json:"donationDate"` // YYYY-MM-DD
	DonationTime   string `json:"donationTime"`
	RequestMessage string `json:"requestMessage"`
}

// validate checks the body field by field and resolves the district.
// It returns a user-facing message for the first failure so the client
// can surface it next to the form field.
func (h *RequestHandler) validate(ctx context.Context, b *requestBody) (*model.District, string) {
	b.RecipientName = strings.TrimSpace(b.RecipientName)
	b.Upazila = strings.TrimSpace(b.Upazila)
	b.HospitalName = strings.TrimSpace(b.HospitalName)
	b.Address = strings.TrimSpace(b.Address)
	b.DonationTime = strings.TrimSpace(b.DonationTime)
	b.RequestMessage = strings.TrimSpace(b.RequestMessage)

	if b.RecipientName == "" {
		return nil, "recipient name is required"
	}
	if !model.ValidBloodGroup(b.BloodGroup) {
		return nil, "invalid blood group"
	}
	if b.Upazila == "" {
		return nil, "upazila is required"
	}
	if b.HospitalName == "" {
		return nil, "hospital name is required"
	}
	if b.Address == "" {
		return nil, "address is required"
	}
	if b.DonationTime == "" {
		return nil, "donation time is required"
	}
	day, err := time.Parse("2006-01-02", b.DonationDate)
	if err != nil {
		return nil, "donation date must be YYYY-MM-DD"
	}
	today := time.Now().UTC().Truncate(24 * time.Hour)
	if day.Before(today) {
		return nil, "date must be today or future"
	}
	district, err := h.Directory.DistrictByID(ctx, b.DistrictID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, "unknown district"
		}
		return nil, "district lookup failed"
	}
	return district, ""
}

// Create handles POST /v1/blood-requests. The requester identity comes
// from the session; the record starts in pending status.
func (h *RequestHandler) Create(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	var body requestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	district, msg := h.validate(ctx, &body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}
	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	day, _ := time.Parse("2006-01-02", body.DonationDate)
	req := &model.DonationRequest{
		RequesterName:  u.Name,
		RequesterEmail: u.Email,
		RecipientName:  body.RecipientName,
		BloodGroup:     body.BloodGroup,
		DistrictID:     district.ID,
		DistrictName:   district.Name,
		Upazila:        body.Upazila,
		HospitalName:   body.HospitalName,
		Address:        body.Address,
		DonationDate:   day,
		DonationTime:   body.DonationTime,
	}
	if body.RequestMessage != "" {
		req.RequestMessage = &body.RequestMessage
	}
	if err := h.Requests.Create(ctx, req); err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "create request failed"})
	}
	return c.JSON(http.StatusCreated, req)
}

// Get handles GET /v1/blood-requests/:id.
func (h *RequestHandler) Get(c echo.Context) error {
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	req, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, req)
}

// Claim handles POST /v1/blood-requests/:id/claim, the
// pending -> inprogress transition. The requester cannot claim their
// own request. Of two concurrent claimers exactly one wins; the loser
// receives 409 from the guarded update.
func (h *RequestHandler) Claim(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	req, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if strings.EqualFold(req.RequesterEmail, email) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "cannot donate to own request"})
	}
	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	confirmedAt := time.Now().UTC()
	if err := h.Requests.Claim(ctx, id, u.Name, u.Email, confirmedAt); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "request is no longer pending"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "claim failed"})
		}
	}

	if h.Publish != nil {
		ev := queue.DonationConfirmedEvent{
			RequestID:      req.ID,
			RequesterName:  req.RequesterName,
			RequesterEmail: req.RequesterEmail,
			RecipientName:  req.RecipientName,
			BloodGroup:     req.BloodGroup,
			District:       req.DistrictName,
			Upazila:        req.Upazila,
			HospitalName:   req.HospitalName,
			DonationDate:   req.DonationDate.Format("2006-01-02"),
			DonorName:      u.Name,
			DonorEmail:     u.Email,
			ConfirmedAt:    confirmedAt.Format(time.RFC3339),
		}
		// Best effort: the claim has committed, a broker outage must not
		// fail the request.
		if err := h.Publish(ctx, ev); err != nil {
			log.Printf("claim: publish donation.confirmed failed: %v", err)
		}
	}

	updated, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Finish handles POST /v1/blood-requests/:id/done. Only the confirmed
// donator or an admin may complete a request, and only from
// inprogress. done is terminal.
func (h *RequestHandler) Finish(c echo.Context) error {
	return h.transition(c, model.StatusDone)
}

// Cancel handles POST /v1/blood-requests/:id/cancel. Same permission
// rules as Finish; canceled is terminal.
func (h *RequestHandler) Cancel(c echo.Context) error {
	return h.transition(c, model.StatusCanceled)
}

func (h *RequestHandler) transition(c echo.Context, to string) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	req, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	isDonator := req.DonorEmail != nil && strings.EqualFold(*req.DonorEmail, email)
	if !isDonator && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the confirmed donor or an admin may update this request"})
	}
	if !model.CanTransition(req.Status, to) {
		return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
	}
	if err := h.Requests.SetStatus(ctx, id, model.StatusInProgress, to); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "invalid status transition"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	updated, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Update handles PATCH /v1/blood-requests/:id. The requester (or an
// admin) may edit the details of a request while it is still pending;
// an edit racing a claim loses with 409.
func (h *RequestHandler) Update(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}
	var body requestBody
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	req, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !strings.EqualFold(req.RequesterEmail, email) && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the requester or an admin may edit this request"})
	}
	if req.Status != model.StatusPending {
		return c.JSON(http.StatusConflict, echo.Map{"error": "only pending requests can be edited"})
	}
	district, msg := h.validate(ctx, &body)
	if msg != "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": msg})
	}

	day, _ := time.Parse("2006-01-02", body.DonationDate)
	req.RecipientName = body.RecipientName
	req.BloodGroup = body.BloodGroup
	req.DistrictID = district.ID
	req.DistrictName = district.Name
	req.Upazila = body.Upazila
	req.HospitalName = body.HospitalName
	req.Address = body.Address
	req.DonationDate = day
	req.DonationTime = body.DonationTime
	if body.RequestMessage != "" {
		req.RequestMessage = &body.RequestMessage
	} else {
		req.RequestMessage = nil
	}

	if err := h.Requests.UpdateDetails(ctx, req); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "only pending requests can be edited"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "update failed"})
		}
	}
	updated, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, updated)
}

// Delete handles DELETE /v1/blood-requests/:id. Only the requester or
// an admin may delete, and only while the request is pending; a request
// with a confirmed donor must be canceled instead.
func (h *RequestHandler) Delete(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	id, err := pathID(c)
	if err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid id"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	req, err := h.Requests.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		}
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	if !strings.EqualFold(req.RequesterEmail, email) && !isAdmin(c) {
		return c.JSON(http.StatusForbidden, echo.Map{"error": "only the requester or an admin may delete this request"})
	}
	if err := h.Requests.Delete(ctx, id); err != nil {
		switch {
		case errors.Is(err, repository.ErrConflict):
			return c.JSON(http.StatusConflict, echo.Map{"error": "only pending requests can be deleted"})
		case errors.Is(err, sql.ErrNoRows):
			return c.JSON(http.StatusNotFound, echo.Map{"error": "request not found"})
		default:
			return c.JSON(http.StatusInternalServerError, echo.Map{"error": "delete failed"})
		}
	}
	return c.NoContent(http.StatusNoContent)
}

// ----- queries -----

// statusFilter reads and validates the optional ?status= parameter.
func statusFilter(c echo.Context) (string, bool) {
	s := strings.ToLower(strings.TrimSpace(c.QueryParam("status")))
	if s == "" {
		return "", true
	}
	if !model.ValidRequestStatus(s) {
		return "", false
	}
	return s, true
}

// ListMine handles GET /v1/my-requests: the caller's own requests
// (requester shape), paginated, newest first.
func (h *RequestHandler) ListMine(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	return h.list(c, repository.RequestFilter{RequesterEmail: email})
}

// ListMyDonations handles GET /v1/my-donations: the requests the caller
// claimed as a donor (donator shape). This is a distinct query from
// ListMine and the two are never conflated.
func (h *RequestHandler) ListMyDonations(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	return h.list(c, repository.RequestFilter{DonorEmail: email})
}

// ListAll handles GET /v1/admin/blood-requests for admins and
// volunteers: every request, paginated, with the optional status
// filter.
func (h *RequestHandler) ListAll(c echo.Context) error {
	return h.list(c, repository.RequestFilter{})
}

// ListPublic handles GET /v1/blood-requests: the public browse view of
// requests still waiting for a donor. Status is forced to pending.
func (h *RequestHandler) ListPublic(c echo.Context) error {
	page, limit := pageParams(c)
	f := repository.RequestFilter{Page: page, Limit: limit, Status: model.StatusPending}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, total, err := h.Requests.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, paged(items, total, limit))
}

// Recent handles GET /v1/blood-requests/recent for the home view.
func (h *RequestHandler) Recent(c echo.Context) error {
	_, limit := pageParams(c)
	if limit > 10 {
		limit = 10
	}
	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, err := h.Requests.Recent(ctx, limit)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{"items": items})
}

func (h *RequestHandler) list(c echo.Context, f repository.RequestFilter) error {
	status, ok := statusFilter(c)
	if !ok {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid status filter"})
	}
	f.Status = status
	f.Page, f.Limit = pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()
	items, total, err := h.Requests.List(ctx, f)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, paged(items, total, f.Limit))
}
