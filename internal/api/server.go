package api

import (
	"bytes"
	"context"
	_ "embed"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/judica-dev/judica/internal/config"
	"github.com/judica-dev/judica/internal/export"
	"github.com/judica-dev/judica/internal/ingestion"
	"github.com/judica-dev/judica/internal/judge"
	"github.com/judica-dev/judica/internal/models"
)

const (
	// ServerErrorMessage is the error string of every 500 response
	ServerErrorMessage = "Server error"

	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
)

//go:embed static/index.html
var indexHTML []byte

// Evaluator runs one petition evaluation
type Evaluator interface {
	Evaluate(ctx context.Context, req models.EvaluationRequest) (models.Outcome, error)
}

// Server handles HTTP requests
type Server struct {
	evaluator      Evaluator
	allowedOrigins []string
	maxUploadBytes int64
}

// NewServer creates a new API server
func NewServer(evaluator Evaluator, cfg *config.Config) *Server {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	return &Server{
		evaluator:      evaluator,
		allowedOrigins: cfg.AllowedOrigins,
		maxUploadBytes: cfg.MaxUploadBytes,
	}
}

// Router returns the HTTP router
func (s *Server) Router() http.Handler {
	router := gin.New()
	router.Use(requestIDMiddleware(), loggingMiddleware(), gin.CustomRecovery(recoverServerError))

	if len(s.allowedOrigins) > 0 {
		router.Use(cors.New(cors.Config{
			AllowOrigins:  s.allowedOrigins,
			AllowMethods:  []string{"GET", "POST", "OPTIONS"},
			AllowHeaders:  []string{"Origin", "Content-Type", requestIDHeader},
			ExposeHeaders: []string{"Content-Length", "Content-Disposition", requestIDHeader},
			MaxAge:        12 * time.Hour,
		}))
	}

	router.GET("/", s.handleIndex)
	router.GET("/health", s.handleHealth)

	api := router.Group("/api")
	{
		api.GET("", s.handleInfo)
		api.POST("/judge", s.handleJudge)
		api.POST("/judge/upload", s.handleUpload)
		api.POST("/export", s.handleExport)
	}

	return router
}

// handleIndex serves the single-page petition form
func (s *Server) handleIndex(c *gin.Context) {
	c.Data(http.StatusOK, "text/html; charset=utf-8", indexHTML)
}

// handleInfo provides API information
func (s *Server) handleInfo(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "Judica",
		"version": "1.0.0",
		"endpoints": map[string]string{
			"POST /api/judge":        "Evaluate petition text for a category",
			"POST /api/judge/upload": "Evaluate an uploaded petition document (.txt, .md, .pdf, .docx)",
			"POST /api/export":       "Download an evaluation result as an Excel workbook",
			"GET /health":            "Health check",
		},
	})
}

// handleHealth provides a health check endpoint
func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
	})
}

// handleJudge evaluates a JSON petition request
func (s *Server) handleJudge(c *gin.Context) {
	req, err := decodeEvaluationRequest(c.Request.Body)
	if err != nil {
		s.respondEvaluationError(c, err)
		return
	}

	s.evaluate(c, req)
}

// decodeEvaluationRequest reads exactly one JSON value from body. Syntax
// errors, trailing data, a null body, or mistyped fields are decode errors.
// A non-object value carries no fields and fails validation.
func decodeEvaluationRequest(body io.Reader) (models.EvaluationRequest, error) {
	var req models.EvaluationRequest
	if body == nil {
		return req, errors.New("invalid request body: empty")
	}

	dec := json.NewDecoder(body)
	var raw json.RawMessage
	if err := dec.Decode(&raw); err != nil {
		return req, fmt.Errorf("invalid request body: %w", err)
	}
	if _, err := dec.Token(); !errors.Is(err, io.EOF) {
		return req, errors.New("invalid request body: unexpected data after JSON value")
	}

	switch trimmed := bytes.TrimSpace(raw); {
	case bytes.Equal(trimmed, []byte("null")):
		return req, errors.New("invalid request body: null")
	case trimmed[0] == '{':
		if err := json.Unmarshal(trimmed, &req); err != nil {
			return req, fmt.Errorf("invalid request body: %w", err)
		}
	}

	if err := binding.Validator.ValidateStruct(&req); err != nil {
		return req, err
	}
	return req, nil
}

// handleUpload extracts text from an uploaded document and evaluates it
func (s *Server) handleUpload(c *gin.Context) {
	if s.maxUploadBytes > 0 {
		c.Request.Body = http.MaxBytesReader(c.Writer, c.Request.Body, s.maxUploadBytes)
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			respondError(c, http.StatusBadRequest, fmt.Sprintf("File too large (limit %d bytes)", tooLarge.Limit))
			return
		}
		respondError(c, http.StatusBadRequest, "Missing file or category")
		return
	}

	category := c.PostForm("category")
	if category == "" {
		respondError(c, http.StatusBadRequest, "Missing file or category")
		return
	}

	file, err := fileHeader.Open()
	if err != nil {
		respondServerError(c, fmt.Errorf("failed to open uploaded file: %w", err))
		return
	}
	defer file.Close()

	data, err := io.ReadAll(file)
	if err != nil {
		respondServerError(c, fmt.Errorf("failed to read uploaded file: %w", err))
		return
	}

	text, err := ingestion.ExtractText(c.Request.Context(), fileHeader.Filename, data)
	if err != nil {
		log.Printf("[%s] Failed to extract %s: %v", c.GetString(requestIDKey), fileHeader.Filename, err)
		respondError(c, http.StatusBadRequest, fmt.Sprintf("Could not read %s: %v", fileHeader.Filename, err))
		return
	}
	log.Printf("[%s] Extracted %d characters from %s", c.GetString(requestIDKey), len(text), fileHeader.Filename)

	s.evaluate(c, models.EvaluationRequest{Text: text, Category: category})
}

// exportRequest is the body of the export endpoint
type exportRequest struct {
	Result json.RawMessage `json:"result"`
}

// handleExport renders a result object as an xlsx download
func (s *Server) handleExport(c *gin.Context) {
	var req exportRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		respondError(c, http.StatusBadRequest, "Invalid request body")
		return
	}

	trimmed := bytes.TrimSpace(req.Result)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		respondError(c, http.StatusBadRequest, "Missing result")
		return
	}

	var buf bytes.Buffer
	if err := export.WriteEvaluation(&buf, models.NewResultView(req.Result), time.Now()); err != nil {
		respondServerError(c, err)
		return
	}

	c.Header("Content-Disposition", fmt.Sprintf(`attachment; filename="%s"`, export.Filename))
	c.Data(http.StatusOK, export.ContentType, buf.Bytes())
}

// evaluate runs the evaluator and writes one of the four response shapes
func (s *Server) evaluate(c *gin.Context, req models.EvaluationRequest) {
	outcome, err := s.evaluator.Evaluate(c.Request.Context(), req)
	if err != nil {
		s.respondEvaluationError(c, err)
		return
	}

	switch o := outcome.(type) {
	case models.Structured:
		c.JSON(http.StatusOK, o)
	case models.RawFallback:
		log.Printf("[%s] Model reply was not JSON (%d bytes)", c.GetString(requestIDKey), len(o.RawOutput))
		c.JSON(http.StatusOK, o)
	default:
		respondServerError(c, fmt.Errorf("unexpected outcome type %T", outcome))
	}
}

// respondEvaluationError maps validation failures to 400 and anything else to 500
func (s *Server) respondEvaluationError(c *gin.Context, err error) {
	var validationErrs validator.ValidationErrors
	var invalid *judge.ValidationError
	switch {
	case errors.As(err, &validationErrs), errors.As(err, &invalid):
		respondError(c, http.StatusBadRequest, judge.MissingInputMessage)
	default:
		respondServerError(c, err)
	}
}

// respondError sends an error response
func respondError(c *gin.Context, status int, message string) {
	c.JSON(status, models.ErrorResponse{Error: message})
}

// respondServerError logs err and sends the generic 500 body with its message
func respondServerError(c *gin.Context, err error) {
	log.Printf("[%s] Judge error: %v", c.GetString(requestIDKey), err)
	c.AbortWithStatusJSON(http.StatusInternalServerError, models.ErrorResponse{
		Error:  ServerErrorMessage,
		Detail: err.Error(),
	})
}

// recoverServerError turns a handler panic into the 500 body
func recoverServerError(c *gin.Context, recovered any) {
	respondServerError(c, fmt.Errorf("panic: %v", recovered))
}

// requestIDMiddleware tags each request with an id, reusing the caller's if sent
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Header(requestIDHeader, id)
		c.Next()
	}
}

// loggingMiddleware logs HTTP requests
func loggingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		log.Printf("%s %s %s %s %d %s",
			c.Request.Method, c.Request.URL.Path, c.ClientIP(),
			c.GetString(requestIDKey), c.Writer.Status(), time.Since(start))
	}
}
