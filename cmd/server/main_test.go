package main

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"
)

func TestHealthEndpoint(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/health", nil)
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var response map[string]interface{}
	json.Unmarshal(w.Body.Bytes(), &response)
	assert.Equal(t, "ok", response["status"])
}

func TestScoreEndpoint_InvalidJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/confidence/score", scoreHandler(zap.NewNop()))

	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/confidence/score", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreEndpoint_OutOfRangeRejected(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/confidence/score", scoreHandler(zap.NewNop()))

	body := `{"expert_consensus_level": 2.5}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/confidence/score", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestScoreEndpoint_ValidDecision(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/api/confidence/score", scoreHandler(zap.NewNop()))

	body := `{
		"decision": "adopt library X",
		"sources": [
			{"authority": 0.9, "currency": 0.8, "relevance": 0.9, "bias_level": 0.1},
			{"authority": 0.9, "currency": 0.8, "relevance": 0.9, "bias_level": 0.1},
			{"authority": 0.9, "currency": 0.8, "relevance": 0.9, "bias_level": 0.1},
			{"authority": 0.9, "currency": 0.8, "relevance": 0.9, "bias_level": 0.1}
		],
		"has_benchmarks": true,
		"has_quantitative_data": true,
		"expert_consensus_level": 0.9,
		"implementation_complexity": 0.3,
		"time_sensitivity": 0.2,
		"contradictory_evidence": 0.1
	}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/api/confidence/score", bytes.NewBufferString(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)

	var result struct {
		Overall        float64 `json:"overall"`
		Recommendation string  `json:"recommendation"`
		RiskLevel      string  `json:"risk_level"`
	}
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &result))
	assert.InDelta(t, 85.35, result.Overall, 0.001)
	assert.Equal(t, "proceed with monitoring", result.Recommendation)
	assert.Equal(t, "MEDIUM", result.RiskLevel)
}

func TestBindOptionalJSON(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.POST("/fix", func(c *gin.Context) {
		req := struct {
			Dedupe *bool `json:"dedupe"`
		}{}
		if err := bindOptionalJSON(c, &req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"dedupe_set": req.Dedupe != nil})
	})

	// An empty body runs with defaults.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("POST", "/fix", bytes.NewBufferString(""))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)

	// A malformed body is still rejected.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/fix", bytes.NewBufferString("{not json"))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	// Explicit fields are bound.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("POST", "/fix", bytes.NewBufferString(`{"dedupe": false}`))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]bool
	assert.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.True(t, resp["dedupe_set"])
}

func TestRequestIDMiddleware(t *testing.T) {
	gin.SetMode(gin.TestMode)
	router := gin.New()
	router.Use(requestID())
	router.GET("/ping", func(c *gin.Context) {
		c.String(http.StatusOK, "pong")
	})

	// A fresh ID is generated when none is supplied.
	w := httptest.NewRecorder()
	req, _ := http.NewRequest("GET", "/ping", nil)
	router.ServeHTTP(w, req)
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))

	// A supplied ID is echoed back.
	w = httptest.NewRecorder()
	req, _ = http.NewRequest("GET", "/ping", nil)
	req.Header.Set("X-Request-ID", "abc-123")
	router.ServeHTTP(w, req)
	assert.Equal(t, "abc-123", w.Header().Get("X-Request-ID"))
}
