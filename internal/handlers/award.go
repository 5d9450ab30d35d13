package handlers

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheoAsp/happybox-go/internal/issuance"
)

// AwardRequest is the request body for claiming the issued reward
type AwardRequest struct {
	PlayerID    string `json:"player_id"`
	IdentityKey string `json:"identity_key"`
}

// Award handles POST /api/award: one reward per identity, issued at the
// player's current rarity by the external collaborator.
func Award(awarder *issuance.Awarder) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req AwardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}
		if req.PlayerID == "" || req.IdentityKey == "" {
			c.JSON(http.StatusBadRequest, gin.H{"error": "player_id and identity_key are required"})
			return
		}

		result, err := awarder.Award(c.Request.Context(), req.PlayerID, req.IdentityKey)
		if err != nil {
			switch {
			case errors.Is(err, issuance.ErrNothingToAward):
				c.JSON(http.StatusBadRequest, gin.H{"error": "No completed quests to award"})
			case errors.Is(err, issuance.ErrAlreadyAwarded):
				c.JSON(http.StatusConflict, gin.H{"error": "Reward already issued"})
			case errors.Is(err, issuance.ErrAwardUnavailable):
				c.JSON(http.StatusBadGateway, gin.H{"error": "Award service unavailable"})
			default:
				c.JSON(http.StatusBadGateway, gin.H{"error": "Reward issuance failed"})
			}
			return
		}

		c.JSON(http.StatusOK, gin.H{
			"accepted":    true,
			"rarity":      result.Rarity,
			"template_id": result.TemplateID,
		})
	}
}
