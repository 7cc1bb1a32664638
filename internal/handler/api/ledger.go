package api

import (
	"net/http"
	"strconv"

	resdto "hostdash/internal/handler/dto/response"
	"hostdash/internal/handler/httperr"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/queries"

	"github.com/gin-gonic/gin"
)

var errInvalidLimit = errs.New("invalid limit")

type LedgerHandler struct {
	q queries.LedgerQueries
}

func NewLedgerHandler(q queries.LedgerQueries) *LedgerHandler {
	return &LedgerHandler{q: q}
}

// @Summary List grants
// @Description The caller's entitlement grants, newest first
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param cursor query string false "Cursor from the previous page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} resdto.PageResponse[resdto.LedgerGrantResponse]
// @Failure 400 {object} httperr.Response
// @Router /grants [get]
func (h *LedgerHandler) ListGrants(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	rows, next, err := h.q.ListGrants(c.Request.Context(), principal, cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := resdto.FromGrantViews(rows, next)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

// @Summary List payments
// @Description The caller's payments, newest first
// @Tags ledger
// @Produce json
// @Security BearerAuth
// @Param cursor query string false "Cursor from the previous page"
// @Param limit query int false "Page size (max 100)"
// @Success 200 {object} resdto.PageResponse[resdto.LedgerPaymentResponse]
// @Failure 400 {object} httperr.Response
// @Router /payments [get]
func (h *LedgerHandler) ListPayments(c *gin.Context) {
	principal, ok := mustPrincipal(c)
	if !ok {
		return
	}
	cursor, limit, ok := pageParams(c)
	if !ok {
		return
	}
	rows, next, err := h.q.ListPayments(c.Request.Context(), principal, cursor, limit)
	if err != nil {
		respondError(c, err)
		return
	}
	resp, err := resdto.FromPaymentViews(rows, next)
	if err != nil {
		respondError(c, err)
		return
	}
	c.JSON(http.StatusOK, resp)
}

func pageParams(c *gin.Context) (*queries.Cursor, int, bool) {
	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			httperr.AbortWithError(c, http.StatusBadRequest, errInvalidLimit, "Invalid limit", nil)
			return nil, 0, false
		}
		limit = n
	}
	var cursor *queries.Cursor
	if after := c.Query("cursor"); after != "" {
		cursor = &queries.Cursor{After: after}
	}
	return cursor, limit, true
}
