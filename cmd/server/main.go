package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"time"

	"cortex/internal/confidence"
	"cortex/internal/graph"
	"cortex/pkg/config"
	"cortex/pkg/logger"
	"cortex/pkg/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/neo4j/neo4j-go-driver/v5/neo4j"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		panic(fmt.Sprintf("Failed to load configuration: %v", err))
	}

	// Initialize logger
	if err := logger.Init(cfg.Env); err != nil {
		panic(fmt.Sprintf("Failed to initialize logger: %v", err))
	}
	defer logger.Sync()

	log := logger.Get()
	log.Info("Starting cortex API server...")

	// Initialize Neo4j driver
	driver, err := neo4j.NewDriverWithContext(
		cfg.Neo4jURI,
		neo4j.BasicAuth(cfg.Neo4jUser, cfg.Neo4jPassword, ""),
	)
	if err != nil {
		log.Fatal("Failed to create Neo4j driver", zap.Error(err))
	}
	defer driver.Close(context.Background())

	// Verify Neo4j connection
	ctx := context.Background()
	if err := driver.VerifyConnectivity(ctx); err != nil {
		log.Fatal("Failed to verify Neo4j connectivity", zap.Error(err))
	}

	repo := graph.NewRepository(driver)

	// Setup Gin router
	if cfg.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	router := gin.New()
	router.Use(requestID())
	router.Use(ginLogger(log))
	router.Use(gin.Recovery())

	// Health check and metrics
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// API routes
	api := router.Group("/api")
	{
		api.POST("/notes", createNoteHandler(repo, log))
		api.GET("/notes/:name", getNoteHandler(repo, log))
		api.DELETE("/notes/:name", deleteNoteHandler(repo, log))
		api.POST("/notes/:name/tags", tagNoteHandler(repo, log))
		api.POST("/notes/:name/templates", assignTemplateHandler(repo, log))
		api.POST("/notes/:name/links", linkNotesHandler(repo, log))

		api.GET("/links", snapshotHandler(repo, log))
		api.POST("/links/auto", autoLinkHandler(repo, cfg, log))
		api.POST("/links/fix", linkFixHandler(repo, log))

		api.POST("/confidence/score", scoreHandler(log))
	}

	// Start server
	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: router,
	}

	// Graceful shutdown
	go func() {
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatal("Failed to start server", zap.Error(err))
		}
	}()

	log.Info("Server started", zap.String("port", cfg.Port))

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Info("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Error("Server forced to shutdown", zap.Error(err))
	}

	log.Info("Server exited")
}

// ============================================================================
// Handlers
// ============================================================================

func createNoteHandler(repo *graph.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Name    string `json:"name" binding:"required"`
			Content string `json:"content"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := repo.CreateNote(c.Request.Context(), req.Name, req.Content); err != nil {
			log.Error("Failed to create note", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to create note"})
			return
		}
		c.JSON(http.StatusCreated, gin.H{"name": req.Name})
	}
}

func getNoteHandler(repo *graph.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		note, err := repo.GetNote(c.Request.Context(), c.Param("name"))
		if err != nil {
			if _, ok := err.(graph.ErrNoteNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
				return
			}
			log.Error("Failed to fetch note", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to fetch note"})
			return
		}
		c.JSON(http.StatusOK, note)
	}
}

func deleteNoteHandler(repo *graph.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := repo.DeleteNote(c.Request.Context(), c.Param("name")); err != nil {
			log.Error("Failed to delete note", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to delete note"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "deleted"})
	}
}

func tagNoteHandler(repo *graph.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Tag string `json:"tag" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := repo.TagNote(c.Request.Context(), c.Param("name"), req.Tag); err != nil {
			if _, ok := err.(graph.ErrNoteNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
				return
			}
			log.Error("Failed to tag note", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to tag note"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "tagged"})
	}
}

func assignTemplateHandler(repo *graph.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Template string `json:"template" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := repo.AssignTemplate(c.Request.Context(), c.Param("name"), req.Template); err != nil {
			if _, ok := err.(graph.ErrNoteNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
				return
			}
			log.Error("Failed to assign template", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to assign template"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "assigned"})
	}
}

func linkNotesHandler(repo *graph.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			Target string `json:"target" binding:"required"`
		}
		if err := c.ShouldBindJSON(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		if err := repo.LinkNotes(c.Request.Context(), c.Param("name"), req.Target); err != nil {
			if _, ok := err.(graph.ErrNoteNotFound); ok {
				c.JSON(http.StatusNotFound, gin.H{"error": "Note not found"})
				return
			}
			log.Error("Failed to link notes", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to link notes"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "linked"})
	}
}

func snapshotHandler(repo *graph.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		snap, err := repo.Snapshot(c.Request.Context())
		if err != nil {
			log.Error("Failed to snapshot links", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Failed to snapshot links"})
			return
		}
		c.JSON(http.StatusOK, snap)
	}
}

// bindOptionalJSON binds the request body into req, treating an empty
// body as "run with defaults" rather than an error.
func bindOptionalJSON(c *gin.Context, req interface{}) error {
	if err := c.ShouldBindJSON(req); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

func autoLinkHandler(repo *graph.Repository, cfg *config.Config, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := struct {
			Evidence   string `json:"evidence"`
			MinShared  int    `json:"min_shared"`
			MaxPerNode int    `json:"max_per_node"`
		}{
			Evidence:   string(graph.EvidenceAll),
			MinShared:  cfg.LinkMinShared,
			MaxPerNode: cfg.LinkMaxPerNode,
		}
		if err := bindOptionalJSON(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		report, err := repo.AutoLink(c.Request.Context(), graph.AutoLinkOptions{
			Evidence:   graph.EvidenceKind(req.Evidence),
			MinShared:  req.MinShared,
			MaxPerNode: req.MaxPerNode,
		})
		if err != nil {
			if !graph.EvidenceKind(req.Evidence).Valid() {
				c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
				return
			}
			log.Error("Auto-link pass failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Auto-link pass failed"})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func linkFixHandler(repo *graph.Repository, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			RemoveSelf      *bool    `json:"remove_self"`
			Dedupe          *bool    `json:"dedupe"`
			BackfillShared  *bool    `json:"backfill_shared"`
			RecomputeWeight *bool    `json:"recompute_weight"`
			RemoveAutoBelow *float64 `json:"remove_auto_below"`
		}
		if err := bindOptionalJSON(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		// Boolean steps default to enabled when omitted.
		opts := graph.DefaultLinkFixOptions()
		if req.RemoveSelf != nil {
			opts.RemoveSelf = *req.RemoveSelf
		}
		if req.Dedupe != nil {
			opts.Dedupe = *req.Dedupe
		}
		if req.BackfillShared != nil {
			opts.BackfillShared = *req.BackfillShared
		}
		if req.RecomputeWeight != nil {
			opts.RecomputeWeight = *req.RecomputeWeight
		}
		opts.RemoveAutoBelow = req.RemoveAutoBelow

		report, err := repo.LinkFix(c.Request.Context(), opts)
		if err != nil {
			log.Error("Link-fix pass failed", zap.Error(err))
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Link-fix pass failed"})
			return
		}
		c.JSON(http.StatusOK, report)
	}
}

func scoreHandler(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var decision confidence.DecisionData
		if err := c.ShouldBindJSON(&decision); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		if err := decision.Validate(); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}

		result := confidence.Calculate(decision)
		metrics.ConfidenceScores.Observe(result.Overall)
		log.Info("Decision scored",
			zap.String("decision", decision.Decision),
			zap.Float64("overall", result.Overall),
			zap.String("recommendation", result.Recommendation),
		)
		c.JSON(http.StatusOK, result)
	}
}

// ============================================================================
// Middleware
// ============================================================================

// requestID assigns a UUID to each request for log correlation
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader("X-Request-ID")
		if id == "" {
			id = uuid.NewString()
		}
		c.Set("request_id", id)
		c.Writer.Header().Set("X-Request-ID", id)
		c.Next()
	}
}

// ginLogger is a custom logger middleware for Gin
func ginLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		raw := c.Request.URL.RawQuery

		c.Next()

		latency := time.Since(start)
		status := c.Writer.Status()

		metrics.HTTPRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(status)).Inc()
		metrics.HTTPRequestDuration.WithLabelValues(c.Request.Method, path).Observe(latency.Seconds())

		if raw != "" {
			path = path + "?" + raw
		}

		log.Info("HTTP Request",
			zap.Int("status", status),
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Duration("latency", latency),
			zap.String("request_id", c.GetString("request_id")),
			zap.String("ip", c.ClientIP()),
		)
	}
}
