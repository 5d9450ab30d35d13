package handlers

import (
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/TheoAsp/happybox-go/internal/auth"
	"github.com/TheoAsp/happybox-go/internal/claims"
	"github.com/TheoAsp/happybox-go/internal/issuance"
	"github.com/TheoAsp/happybox-go/internal/middleware"
)

// Deps are the wired components the API surface needs
type Deps struct {
	Orchestrator      *claims.Orchestrator
	Awarder           *issuance.Awarder
	JWT               *auth.JWTService
	RetryAfterSeconds int
}

// Register mounts the API routes
func Register(r *gin.Engine, deps Deps) {
	api := r.Group("/api")
	{
		api.POST("/claims/geo", GeoClaim(deps.Orchestrator, deps.RetryAfterSeconds))
		api.POST("/claims/token", TokenClaim(deps.Orchestrator, deps.RetryAfterSeconds))
		api.GET("/progress", GetProgress(deps.Orchestrator))
		api.POST("/progress", middleware.RequireAdmin(deps.JWT), ManualAward(deps.Orchestrator))
		api.POST("/award", Award(deps.Awarder))
	}

	r.GET("/metrics", gin.WrapH(promhttp.Handler()))
}
