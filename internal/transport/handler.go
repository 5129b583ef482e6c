package transport

import (
	"context"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/sirupsen/logrus"

	"go-food-scanner/internal/config"
	apperrors "go-food-scanner/internal/errors"
	"go-food-scanner/internal/logger"
	"go-food-scanner/internal/service"
	"go-food-scanner/pkg/models"
)

const (
	ServiceName = "foodscan-ai"
	Version     = "1.0.0"
)

// NewRouter builds the gin engine serving the public API. The engine is also
// an http.Handler and can be wrapped by serverless adapters.
func NewRouter(svc service.FoodAnalysisService, cfg *config.Config) *gin.Engine {
	r := gin.New()
	r.HandleMethodNotAllowed = true

	r.Use(
		recovery(),
		requestID(),
		cors(),
		requestLogger(),
		requestSizeLimiter(cfg.MaxRequestBodySize),
	)

	r.GET("/", root)
	r.GET("/health", healthCheck)
	r.POST("/api/analyze", analyzeFood(svc, cfg))
	r.OPTIONS("/api/analyze", preflight)

	r.NoRoute(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusNotFound, models.ErrorResponse{Error: "Not Found"})
	})
	r.NoMethod(func(c *gin.Context) {
		c.AbortWithStatusJSON(http.StatusMethodNotAllowed, models.ErrorResponse{Error: "Method Not Allowed"})
	})

	return r
}

func analyzeFood(svc service.FoodAnalysisService, cfg *config.Config) gin.HandlerFunc {
	return func(c *gin.Context) {
		startTime := time.Now()
		ctx := c.Request.Context()
		if cfg.RequestTimeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, cfg.RequestTimeout)
			defer cancel()
		}
		log := logger.FromContext(ctx)

		var req models.AnalyzeRequest
		if err := c.ShouldBindJSON(&req); err != nil {
			var tooLarge *http.MaxBytesError
			switch {
			case errors.As(err, &tooLarge):
				respondError(c, apperrors.NewValidationError("Request body too large", err))
				return
			case errors.Is(err, io.EOF):
				// An empty body is treated like a body without an image.
			default:
				log.WithError(err).Warn("Invalid request body")
				respondError(c, apperrors.NewValidationError("Invalid request body", err))
				return
			}
		}

		result, err := svc.Analyze(ctx, req)
		if err != nil {
			respondError(c, err)
			return
		}

		log.WithFields(logrus.Fields{
			"processing_time_ms": time.Since(startTime).Milliseconds(),
			"food_name":          result.FoodName,
			"freshness_level":    result.FreshnessLevel,
			"freshness_score":    result.FreshnessScore,
		}).Info("Food analysis completed successfully")

		c.JSON(http.StatusOK, result)
	}
}

func root(c *gin.Context) {
	c.JSON(http.StatusOK, models.RootResponse{
		Message: "FoodScan AI API is running!",
		Version: Version,
		Status:  "healthy",
	})
}

func healthCheck(c *gin.Context) {
	c.JSON(http.StatusOK, models.HealthResponse{
		Status:  "healthy",
		Service: ServiceName,
	})
}

func preflight(c *gin.Context) {
	c.Header("Access-Control-Allow-Methods", "POST, OPTIONS")
	c.Header("Access-Control-Allow-Headers", "Content-Type")
	c.Status(http.StatusOK)
}

// respondError renders err as the JSON error envelope. The status comes from
// the AppError; anything else is a 500 with a generic message.
func respondError(c *gin.Context, err error) {
	code := apperrors.GetStatusCode(err)
	var tooLarge *http.MaxBytesError
	if errors.As(err, &tooLarge) {
		code = http.StatusRequestEntityTooLarge
	}

	entry := logger.FromContext(c.Request.Context()).WithError(err).WithFields(logrus.Fields{
		"status_code": code,
		"path":        c.Request.URL.Path,
		"method":      c.Request.Method,
		"ip":          c.ClientIP(),
	})
	if code >= http.StatusInternalServerError {
		entry.Error("Request failed")
	} else {
		entry.Warn("Request rejected")
	}

	c.AbortWithStatusJSON(code, models.ErrorResponse{Error: apperrors.PublicMessage(err)})
}
