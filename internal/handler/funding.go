package handler

import (
	"context"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/bloodbridge/api/internal/model"
)

// FundingHandler exposes the funding ledger: creating a payment intent
// with the card processor, recording a completed payment, and listing
// contributions. Recording is idempotent on the processor's transaction
// id, so a client retry never produces a second ledger row.
type FundingHandler struct {
	Fundings FundingStore
	Users    UserStore
	Payments PaymentProvider
}

func NewFundingHandler(fundings FundingStore, users UserStore, payments PaymentProvider) *FundingHandler {
	if fundings == nil || users == nil || payments == nil {
		panic("nil store passed to NewFundingHandler")
	}
	return &FundingHandler{Fundings: fundings, Users: users, Payments: payments}
}

type intentReq struct {
	Amount uint32 `json:"amount"`
}

// CreateIntent handles POST /v1/funding/intent. The amount is in the
// smallest currency unit; the response carries the client secret the
// frontend needs to confirm the card payment.
func (h *FundingHandler) CreateIntent(c echo.Context) error {
	var body intentReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	if body.Amount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	intent, err := h.Payments.CreateIntent(ctx, body.Amount)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment provider unavailable"})
	}
	return c.JSON(http.StatusOK, intent)
}

type recordReq struct {
	Amount        uint32 `json:"amount"`
	TransactionID string `json:"transactionId"`
}

// Record handles POST /v1/funding. It verifies with the processor that
// the payment actually succeeded before writing the ledger row. A
// duplicate transaction id returns the existing row with 200 rather
// than an error, so retried confirmations are safe.
func (h *FundingHandler) Record(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	var body recordReq
	if err := c.Bind(&body); err != nil {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "invalid body"})
	}
	body.TransactionID = strings.TrimSpace(body.TransactionID)
	if body.Amount == 0 {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "amount must be positive"})
	}
	if body.TransactionID == "" {
		return c.JSON(http.StatusBadRequest, echo.Map{"error": "transactionId is required"})
	}

	ctx, cancel := context.WithTimeout(c.Request().Context(), 10*time.Second)
	defer cancel()

	u, err := h.Users.GetByEmail(ctx, email)
	if err != nil {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}

	succeeded, err := h.Payments.VerifySucceeded(ctx, body.TransactionID)
	if err != nil {
		return c.JSON(http.StatusBadGateway, echo.Map{"error": "payment verification failed"})
	}
	if !succeeded {
		return c.JSON(http.StatusConflict, echo.Map{"error": "payment has not succeeded"})
	}

	rec := &model.FundingRecord{
		DonorName:     u.Name,
		DonorEmail:    u.Email,
		Amount:        body.Amount,
		TransactionID: body.TransactionID,
		Status:        "succeeded",
	}
	created, err := h.Fundings.Record(ctx, rec)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "record funding failed"})
	}
	if created {
		return c.JSON(http.StatusCreated, rec)
	}
	return c.JSON(http.StatusOK, rec)
}

// List handles GET /v1/funding. Admins and volunteers see the whole
// ledger; everyone else sees only their own contributions. The response
// carries the grand total for the same scope alongside the page.
func (h *FundingHandler) List(c echo.Context) error {
	email, ok := callerEmail(c)
	if !ok {
		return c.JSON(http.StatusUnauthorized, errUnauthorized)
	}
	scope := email
	if role := callerRole(c); role == model.RoleAdmin || role == model.RoleVolunteer {
		scope = ""
	}
	page, limit := pageParams(c)

	ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
	defer cancel()

	items, total, err := h.Fundings.List(ctx, page, limit, scope)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	sum, err := h.Fundings.Total(ctx, scope)
	if err != nil {
		return c.JSON(http.StatusInternalServerError, echo.Map{"error": "query failed"})
	}
	return c.JSON(http.StatusOK, echo.Map{
		"items":       items,
		"totalCount":  total,
		"pageCount":   pageCount(total, limit),
		"totalAmount": sum,
	})
}
