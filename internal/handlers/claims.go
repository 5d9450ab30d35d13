package handlers

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/TheoAsp/happybox-go/internal/claims"
	"github.com/TheoAsp/happybox-go/internal/middleware"
	"github.com/TheoAsp/happybox-go/internal/models"
)

// GeoClaim handles POST /api/claims/geo
func GeoClaim(orc *claims.Orchestrator, retryAfterSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.GeoClaimRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		result, err := orc.Geofence(c.Request.Context(), req, middleware.SourceAddress(c))
		if err != nil {
			respondClaimError(c, err, retryAfterSeconds)
			return
		}

		// Outside the radius is a 200 with accepted:false, not an error
		c.JSON(http.StatusOK, result)
	}
}

// TokenClaim handles POST /api/claims/token
func TokenClaim(orc *claims.Orchestrator, retryAfterSeconds int) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req models.TokenClaimRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		result, err := orc.Token(c.Request.Context(), req, middleware.SourceAddress(c))
		if err != nil {
			respondClaimError(c, err, retryAfterSeconds)
			return
		}

		c.JSON(http.StatusOK, result)
	}
}

// respondClaimError maps the claim taxonomy onto the stable response shape.
// Messages come from the sentinel errors so nothing leaks which secret or
// checkpoint combination was wrong.
func respondClaimError(c *gin.Context, err error, retryAfterSeconds int) {
	switch {
	case errors.Is(err, claims.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, claims.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"error": claims.ErrNotFound.Error()})
	case errors.Is(err, claims.ErrVerificationFailed):
		c.JSON(http.StatusForbidden, gin.H{"error": claims.ErrVerificationFailed.Error()})
	case errors.Is(err, claims.ErrAlreadyRedeemed):
		c.JSON(http.StatusConflict, gin.H{"error": claims.ErrAlreadyRedeemed.Error()})
	case errors.Is(err, claims.ErrRateLimited):
		c.Header("Retry-After", strconv.Itoa(retryAfterSeconds))
		c.JSON(http.StatusTooManyRequests, gin.H{"error": claims.ErrRateLimited.Error()})
	case errors.Is(err, claims.ErrCapExceeded):
		c.JSON(http.StatusServiceUnavailable, gin.H{"error": claims.ErrCapExceeded.Error()})
	case errors.Is(err, claims.ErrDependencyUnavailable):
		c.JSON(http.StatusBadGateway, gin.H{"error": claims.ErrDependencyUnavailable.Error()})
	default:
		c.JSON(http.StatusInternalServerError, gin.H{"error": "Internal error"})
	}
}
