package handlers

import (
	"net/http"

	"finance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

type convertQuery struct {
	Amount *float64 `form:"amount" binding:"required"`
	From   string   `form:"from_currency" binding:"required"`
	To     string   `form:"to_currency" binding:"required"`
	Date   string   `form:"date"`
}

// @Summary      Exchange rates
// @Description  Units of each supported currency per 1 RUB. Missing or future date means latest.
// @Tags         currency
// @Produce      json
// @Param        date  query     string  false  "YYYY-MM-DD"
// @Success      200   {object}  models.Rates
// @Failure      400   {object}  map[string]string
// @Failure      503   {object}  map[string]string
// @Failure      504   {object}  map[string]string
// @Router       /api/v1/currency/rates [get]
func (h *Handler) currencyRates(c *gin.Context) {
	rates, err := h.services.Rates(c.Request.Context(), c.Query("date"))
	if err != nil {
		h.fail(c, err, "currency_rates_failed", "date", c.Query("date"))
		return
	}
	c.JSON(http.StatusOK, rates)
}

// @Summary      Convert amount
// @Tags         currency
// @Produce      json
// @Param        amount         query     number  true   "Amount"
// @Param        from_currency  query     string  true   "Source code"
// @Param        to_currency    query     string  true   "Target code"
// @Param        date           query     string  false  "YYYY-MM-DD"
// @Success      200            {object}  models.Conversion
// @Failure      400            {object}  map[string]string
// @Failure      503            {object}  map[string]string
// @Router       /api/v1/currency/convert [get]
func (h *Handler) convertCurrency(c *gin.Context) {
	var q convertQuery
	if ok := h.bindQueryOrBadRequest(c, &q); !ok {
		return
	}

	conv, err := h.services.Convert(c.Request.Context(), service.ConvertParams{
		Amount: *q.Amount,
		From:   q.From,
		To:     q.To,
		Date:   q.Date,
	})
	if err != nil {
		h.fail(c, err, "currency_convert_failed", "from", q.From, "to", q.To)
		return
	}
	c.JSON(http.StatusOK, conv)
}
