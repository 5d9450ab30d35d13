package handlers

import (
	"log"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/TheoAsp/happybox-go/internal/claims"
	"github.com/TheoAsp/happybox-go/internal/middleware"
)

// GetProgress handles GET /api/progress?player_id=
func GetProgress(orc *claims.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		playerID := c.Query("player_id")
		summary, err := orc.Progress(c.Request.Context(), playerID)
		if err != nil {
			respondClaimError(c, err, 0)
			return
		}
		c.JSON(http.StatusOK, summary)
	}
}

// ManualAwardRequest is the admin request body for a manual progress mark
type ManualAwardRequest struct {
	PlayerID string `json:"player_id"`
	QuestID  string `json:"quest_id"`
}

// ManualAward handles POST /api/progress (admin only). The router mounts it
// behind the admin capability middleware.
func ManualAward(orc *claims.Orchestrator) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req ManualAwardRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "Invalid request body"})
			return
		}

		summary, err := orc.ManualAward(c.Request.Context(), req.PlayerID, req.QuestID)
		if err != nil {
			respondClaimError(c, err, 0)
			return
		}

		if subject, ok := middleware.GetAuthSubject(c); ok {
			log.Printf("manual award: %s marked %s for player %s", subject, req.QuestID, req.PlayerID)
		}
		c.JSON(http.StatusOK, summary)
	}
}
