package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"finance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// Layouts accepted for dates in query strings and request bodies, tried in order.
var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

const dateOnlyLayout = "2006-01-02"

// parseTimeParam parses s with timeLayouts. Values without a zone are UTC.
// A bare date used as an upper bound covers the whole day.
func parseTimeParam(s string, upper bool) (time.Time, error) {
	for _, layout := range timeLayouts {
		t, err := time.Parse(layout, s)
		if err != nil {
			continue
		}
		if layout == dateOnlyLayout && upper {
			t = dayEnd(t)
		}
		return t.UTC(), nil
	}
	return time.Time{}, fmt.Errorf("invalid datetime %q", s)
}

// dayEnd is the last stored instant of t's day.
func dayEnd(t time.Time) time.Time {
	return t.Add(24*time.Hour - time.Microsecond)
}

// flexTime is a JSON datetime accepting any of timeLayouts.
type flexTime struct {
	time.Time
}

func (f *flexTime) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	t, err := parseTimeParam(s, false)
	if err != nil {
		return err
	}
	f.Time = t
	return nil
}

// nullableID tells an explicit null apart from an absent field.
type nullableID struct {
	Set   bool
	Value *int64
}

func (n *nullableID) UnmarshalJSON(b []byte) error {
	n.Set = true
	if bytes.Equal(b, []byte("null")) {
		n.Value = nil
		return nil
	}
	var v int64
	if err := json.Unmarshal(b, &v); err != nil {
		return err
	}
	n.Value = &v
	return nil
}

type transactionCreateRequest struct {
	Amount          float64   `json:"amount" binding:"required,gt=0" example:"1500.5"`
	Currency        string    `json:"currency" binding:"omitempty,currency" example:"RUB"`
	Description     *string   `json:"description" binding:"omitempty,max=500"`
	TransactionType string    `json:"transaction_type" binding:"required,txtype" example:"expense"`
	CategoryID      *int64    `json:"category_id" binding:"omitempty,gt=0"`
	TransactionDate *flexTime `json:"transaction_date" swaggertype:"string" example:"2024-03-01T12:00:00Z"`
}

type transactionUpdateRequest struct {
	Amount          *float64   `json:"amount" binding:"omitempty,gt=0"`
	Currency        *string    `json:"currency" binding:"omitempty,currency"`
	Description     *string    `json:"description" binding:"omitempty,max=500"`
	TransactionType *string    `json:"transaction_type" binding:"omitempty,txtype"`
	CategoryID      nullableID `json:"category_id" swaggertype:"integer"`
	TransactionDate *flexTime  `json:"transaction_date" swaggertype:"string"`
}

type transactionQuery struct {
	pageQuery
	TransactionType string `form:"transaction_type" binding:"omitempty,txtype"`
	CategoryID      *int64 `form:"category_id" binding:"omitempty,gt=0"`
	StartDate       string `form:"start_date"`
	EndDate         string `form:"end_date"`
}

type periodQuery struct {
	StartDate string `form:"start_date"`
	EndDate   string `form:"end_date"`
}

// bounds parses the optional period; zero values are open bounds.
func (q periodQuery) bounds() (from, to time.Time, err error) {
	if q.StartDate != "" {
		if from, err = parseTimeParam(q.StartDate, false); err != nil {
			return from, to, fmt.Errorf("start_date: %w", err)
		}
	}
	if q.EndDate != "" {
		if to, err = parseTimeParam(q.EndDate, true); err != nil {
			return from, to, fmt.Errorf("end_date: %w", err)
		}
	}
	return from, to, nil
}

// @Summary      Create transaction
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        body  body      transactionCreateRequest  true  "Transaction"
// @Success      201   {object}  models.Transaction
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string  "category not found"
// @Router       /api/v1/transactions [post]
// @Security     BearerAuth
func (h *Handler) createTransaction(c *gin.Context) {
	var req transactionCreateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	in := service.TransactionInput{
		Amount:          req.Amount,
		Currency:        req.Currency,
		Description:     req.Description,
		TransactionType: req.TransactionType,
		CategoryID:      req.CategoryID,
	}
	if req.TransactionDate != nil {
		in.TransactionDate = req.TransactionDate.Time
	}

	tx, err := h.services.CreateTransaction(c.Request.Context(), currentUser(c), in)
	if err != nil {
		h.fail(c, err, "transaction_create_failed")
		return
	}
	c.JSON(http.StatusCreated, tx)
}

// @Summary      List transactions
// @Description  Newest first. start_date and end_date are inclusive.
// @Tags         transactions
// @Produce      json
// @Param        skip              query     int     false  "Offset"
// @Param        limit             query     int     false  "Page size (max 1000)"
// @Param        transaction_type  query     string  false  "income or expense"
// @Param        category_id       query     int     false  "Category id"
// @Param        start_date        query     string  false  "From (RFC3339 or YYYY-MM-DD)"
// @Param        end_date          query     string  false  "To (RFC3339 or YYYY-MM-DD)"
// @Success      200               {array}   models.Transaction
// @Failure      400               {object}  map[string]string
// @Router       /api/v1/transactions [get]
// @Security     BearerAuth
func (h *Handler) listTransactions(c *gin.Context) {
	var q transactionQuery
	if ok := h.bindQueryOrBadRequest(c, &q); !ok {
		return
	}
	from, to, err := periodQuery{StartDate: q.StartDate, EndDate: q.EndDate}.bounds()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidQuery+err.Error(), "bad_request_query", err)
		return
	}

	list, err := h.services.ListTransactions(c.Request.Context(), currentUser(c), service.TransactionFilter{
		Page:       q.page(),
		Type:       q.TransactionType,
		CategoryID: q.CategoryID,
		From:       from,
		To:         to,
	})
	if err != nil {
		h.fail(c, err, "transaction_list_failed")
		return
	}
	c.JSON(http.StatusOK, list)
}

// @Summary      Balance summary
// @Tags         transactions
// @Produce      json
// @Param        start_date  query     string  false  "From (RFC3339 or YYYY-MM-DD)"
// @Param        end_date    query     string  false  "To (RFC3339 or YYYY-MM-DD)"
// @Success      200         {object}  models.Summary
// @Failure      400         {object}  map[string]string
// @Router       /api/v1/transactions/summary [get]
// @Security     BearerAuth
func (h *Handler) transactionSummary(c *gin.Context) {
	var q periodQuery
	if ok := h.bindQueryOrBadRequest(c, &q); !ok {
		return
	}
	from, to, err := q.bounds()
	if err != nil {
		h.logAndJSONError(c, http.StatusBadRequest, errInvalidQuery+err.Error(), "bad_request_query", err)
		return
	}

	sum, err := h.services.Summary(c.Request.Context(), currentUser(c), from, to)
	if err != nil {
		h.fail(c, err, "transaction_summary_failed")
		return
	}
	c.JSON(http.StatusOK, sum)
}

// @Summary      Get transaction
// @Tags         transactions
// @Produce      json
// @Param        id   path      int  true  "Transaction id"
// @Success      200  {object}  models.Transaction
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/transactions/{id} [get]
// @Security     BearerAuth
func (h *Handler) getTransaction(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	tx, err := h.services.GetTransaction(c.Request.Context(), currentUser(c), id)
	if err != nil {
		h.fail(c, err, "transaction_get_failed", "id", id)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// @Summary      Update transaction
// @Description  category_id: null detaches the transaction from its category.
// @Tags         transactions
// @Accept       json
// @Produce      json
// @Param        id    path      int                       true  "Transaction id"
// @Param        body  body      transactionUpdateRequest  true  "Fields to change"
// @Success      200   {object}  models.Transaction
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /api/v1/transactions/{id} [put]
// @Security     BearerAuth
func (h *Handler) updateTransaction(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}
	var req transactionUpdateRequest
	if ok := h.bindJSONOrBadRequest(c, &req); !ok {
		return
	}

	p := service.TransactionPatch{
		Amount:          req.Amount,
		Currency:        req.Currency,
		Description:     req.Description,
		TransactionType: req.TransactionType,
	}
	if req.CategoryID.Set {
		if req.CategoryID.Value == nil {
			p.ClearCategory = true
		} else {
			p.CategoryID = req.CategoryID.Value
		}
	}
	if req.TransactionDate != nil {
		p.TransactionDate = &req.TransactionDate.Time
	}

	tx, err := h.services.UpdateTransaction(c.Request.Context(), currentUser(c), id, p)
	if err != nil {
		h.fail(c, err, "transaction_update_failed", "id", id)
		return
	}
	c.JSON(http.StatusOK, tx)
}

// @Summary      Delete transaction
// @Tags         transactions
// @Param        id   path  int  true  "Transaction id"
// @Success      204
// @Failure      404  {object}  map[string]string
// @Router       /api/v1/transactions/{id} [delete]
// @Security     BearerAuth
func (h *Handler) deleteTransaction(c *gin.Context) {
	id, ok := h.parseID(c)
	if !ok {
		return
	}

	if err := h.services.DeleteTransaction(c.Request.Context(), currentUser(c), id); err != nil {
		h.fail(c, err, "transaction_delete_failed", "id", id)
		return
	}
	c.Status(http.StatusNoContent)
}
