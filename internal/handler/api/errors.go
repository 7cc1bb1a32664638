package api

import (
	"net/http"

	"hostdash/internal/domain/user"
	resdto "hostdash/internal/handler/dto/response"
	"hostdash/internal/handler/httperr"
	"hostdash/internal/handler/middleware"
	"hostdash/internal/pkg/errs"
	"hostdash/internal/usecase/commands"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	msgInternal        = "Internal server error"
	msgPaymentMismatch = "payment could not be verified"
	msgQuotaExceeded   = "quota exceeded"
)

type quotaDetail struct {
	Violations map[string]string       `json:"violations"`
	Remaining  resdto.EnvelopeResponse `json:"remaining"`
}

// respondError maps a usecase error to its status by category. Quota violations carry
// the per-dimension reasons and what is left.
func respondError(c *gin.Context, err error) {
	var quota *commands.QuotaViolationError
	if errs.As(err, &quota) {
		violations := make(map[string]string, len(quota.Violations))
		for d, msg := range quota.Violations {
			violations[string(d)] = msg
		}
		httperr.AbortWithError(c, http.StatusBadRequest, err, msgQuotaExceeded, quotaDetail{
			Violations: violations,
			Remaining:  resdto.FromRemaining(quota.Remaining),
		})
		return
	}

	switch {
	case errs.Is(err, errs.ErrPaymentMismatch):
		httperr.AbortWithError(c, http.StatusBadRequest, err, msgPaymentMismatch, nil)
	case errs.Is(err, errs.ErrValidation):
		httperr.AbortWithError(c, http.StatusBadRequest, err, errs.Cause(err).Error(), nil)
	case errs.Is(err, errs.ErrNotFound):
		httperr.AbortWithError(c, http.StatusNotFound, err, errs.Cause(err).Error(), nil)
	case errs.Is(err, errs.ErrForbidden):
		httperr.AbortWithError(c, http.StatusForbidden, err, errs.Cause(err).Error(), nil)
	case errs.Is(err, errs.ErrConflict):
		httperr.AbortWithError(c, http.StatusConflict, err, errs.Cause(err).Error(), nil)
	case errs.Is(err, errs.ErrRemoteUnavailable):
		httperr.AbortWithError(c, http.StatusBadGateway, err, errs.Cause(err).Error(), nil)
	default:
		httperr.AbortWithError(c, http.StatusInternalServerError, err, msgInternal, nil)
	}
}

var errNoPrincipal = errs.New("principal missing from context")

// mustPrincipal reads what RequireAuth stored; a miss means the route was wired without it.
func mustPrincipal(c *gin.Context) (user.Principal, bool) {
	principal, ok := middleware.GetPrincipal(c)
	if !ok {
		httperr.AbortWithError(c, http.StatusUnauthorized, errNoPrincipal, "Unauthorized", nil)
	}
	return principal, ok
}

func parseUUIDParam(c *gin.Context, name string) (uuid.UUID, bool) {
	id, err := uuid.Parse(c.Param(name))
	if err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid "+name+" format", nil)
		return uuid.Nil, false
	}
	return id, true
}

func bindJSON(c *gin.Context, req any) bool {
	if err := c.ShouldBindJSON(req); err != nil {
		httperr.AbortWithError(c, http.StatusBadRequest, err, "Invalid request", nil)
		return false
	}
	return true
}
