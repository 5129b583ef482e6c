package container

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"go-food-scanner/internal/config"
	"go-food-scanner/internal/llm"
	"go-food-scanner/internal/normalizer"
	"go-food-scanner/internal/preprocess"
	"go-food-scanner/internal/service"
	"go-food-scanner/internal/transport"
	"go-food-scanner/pkg/validation"
)

// Container holds all application dependencies
type Container struct {
	config              *config.Config
	preprocessor        *preprocess.Preprocessor
	generator           llm.Generator
	foodAnalysisService service.FoodAnalysisService
	router              *gin.Engine
}

// NewContainer builds the dependency graph from cfg. A missing Gemini key is
// not an error here; analyze requests report it instead.
func NewContainer(cfg *config.Config) (*Container, error) {
	if cfg == nil {
		return nil, fmt.Errorf("container: config is nil")
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return NewContainerWithGenerator(cfg, llm.NewRetrying(
		llm.NewGemini(cfg.GeminiAPIKey, cfg.GeminiModel),
		cfg.GeminiMaxAttempts,
	)), nil
}

// NewContainerWithGenerator wires the graph around a caller-supplied
// generator.
func NewContainerWithGenerator(cfg *config.Config, generator llm.Generator) *Container {
	preprocessor := preprocess.New(preprocess.DefaultOptions().
		WithMaxDimension(cfg.MaxImageDimension).
		WithJPEGQuality(cfg.JPEGQuality))

	foodAnalysisService := service.NewFoodAnalysisService(
		preprocessor,
		generator,
		normalizer.New(),
		validation.NewResultValidator(),
		cfg.AnalysisTimeout,
	)

	return &Container{
		config:              cfg,
		preprocessor:        preprocessor,
		generator:           generator,
		foodAnalysisService: foodAnalysisService,
		router:              transport.NewRouter(foodAnalysisService, cfg),
	}
}

// Handler returns the HTTP handler
func (c *Container) Handler() http.Handler {
	return c.router
}

// Router returns the gin engine for adapters that need it.
func (c *Container) Router() *gin.Engine {
	return c.router
}
