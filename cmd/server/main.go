package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/TheoAsp/happybox-go/internal/abuse"
	"github.com/TheoAsp/happybox-go/internal/auth"
	"github.com/TheoAsp/happybox-go/internal/claims"
	"github.com/TheoAsp/happybox-go/internal/config"
	"github.com/TheoAsp/happybox-go/internal/database"
	"github.com/TheoAsp/happybox-go/internal/handlers"
	"github.com/TheoAsp/happybox-go/internal/issuance"
	"github.com/TheoAsp/happybox-go/internal/ledger"
	"github.com/TheoAsp/happybox-go/internal/models"
	"github.com/TheoAsp/happybox-go/internal/registry"
	"github.com/TheoAsp/happybox-go/internal/store"
)

var Version = "dev"

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load config: %v", err)
	}

	// Catalog problems are fatal here, never at claim time
	reg, err := registry.Load(cfg.CatalogPath, cfg.SharedSecret)
	if err != nil {
		log.Fatalf("Failed to load catalog: %v", err)
	}

	ctx := context.Background()

	var kv store.Store
	var led ledger.Ledger
	var pool *pgxpool.Pool
	if cfg.DatabaseURL != "" {
		pool, err = database.New(ctx, cfg.DatabaseURL)
		if err != nil {
			log.Fatalf("Failed to connect to database: %v", err)
		}
		defer pool.Close()
		if err := database.EnsureSchema(ctx, pool); err != nil {
			log.Fatalf("Failed to ensure schema: %v", err)
		}
		kv = store.NewPostgres(pool)
		led = ledger.NewPostgres(pool, reg)
	} else {
		// Single-instance dev mode; cross-instance guarantees need the DB
		log.Println("⚠️  DATABASE_URL not set, using in-memory state")
		kv = store.NewMemory()
		led = ledger.NewMemory(reg)
	}

	guard := abuse.NewGuard(kv, abuse.Options{
		ThrottleWindow: cfg.ThrottleWindow,
		ThrottleMax:    cfg.ThrottleMax,
		SlotDailyCap:   cfg.SlotDailyCap,
	})

	orc := claims.New(reg, guard, led)
	jwtService := auth.NewJWTService(cfg.AdminJWTSecret, cfg.AdminJWTIssuer)
	minter := issuance.NewClient(cfg.IssuanceAPIKey, cfg.IssuanceCollectionID, cfg.IssuanceEnv, defaultTemplatePools())
	awarder := issuance.NewAwarder(guard, led, reg, minter)

	// Initialize Gin
	r := gin.Default()

	// Health check
	r.GET("/health", func(c *gin.Context) {
		if pool != nil {
			if err := database.Health(c.Request.Context(), pool); err != nil {
				c.JSON(503, gin.H{"status": "unhealthy", "error": "database unreachable"})
				return
			}
		}
		c.JSON(200, gin.H{
			"status":  "healthy",
			"version": Version,
		})
	})

	// Version endpoint
	r.GET("/api/version", func(c *gin.Context) {
		c.JSON(200, gin.H{
			"version": Version,
			"service": "happybox-go",
		})
	})

	handlers.Register(r, handlers.Deps{
		Orchestrator:      orc,
		Awarder:           awarder,
		JWT:               jwtService,
		RetryAfterSeconds: int(guard.RetryAfter() / time.Second),
	})

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%s", cfg.Port),
		Handler: r,
	}

	// Start server in goroutine
	go func() {
		log.Printf("🚀 Server starting on port %s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("Failed to start server: %v", err)
		}
	}()

	// Graceful shutdown
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("🛑 Server shutting down...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Fatal("Server forced to shutdown:", err)
	}

	log.Println("✅ Server exited")
}

// defaultTemplatePools maps rarity tiers to issuance template ids; override
// per deployment once templates exist for the lower tiers.
func defaultTemplatePools() map[models.RarityTier][]string {
	return map[models.RarityTier][]string{
		models.RarityRare:      {"TPL_RARE_1", "TPL_RARE_2", "TPL_RARE_3"},
		models.RarityUltraRare: {"TPL_ULTRARARE_1"},
		models.RarityLegendary: {"TPL_LEGENDARY_1", "TPL_LEGENDARY_2", "TPL_LEGENDARY_3", "TPL_LEGENDARY_4"},
	}
}
