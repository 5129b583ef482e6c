package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	apperrors "go-food-scanner/internal/errors"
	"go-food-scanner/internal/llm"
	"go-food-scanner/internal/logger"
	"go-food-scanner/internal/normalizer"
	"go-food-scanner/internal/preprocess"
	"go-food-scanner/pkg/models"
	"go-food-scanner/pkg/validation"
)

const DefaultAnalysisTimeout = 30 * time.Second

// FoodAnalysisService turns an uploaded food photo into an AnalysisResult.
type FoodAnalysisService interface {
	Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error)
}

type foodAnalysisService struct {
	preprocessor    *preprocess.Preprocessor
	generator       llm.Generator
	normalizer      *normalizer.Normalizer
	validator       *validation.ResultValidator
	prompt          string
	analysisTimeout time.Duration
}

// NewFoodAnalysisService wires the analysis pipeline. A nil or unconfigured
// generator is accepted; Analyze reports it per request.
func NewFoodAnalysisService(
	preprocessor *preprocess.Preprocessor,
	generator llm.Generator,
	resultNormalizer *normalizer.Normalizer,
	resultValidator *validation.ResultValidator,
	analysisTimeout time.Duration,
) FoodAnalysisService {
	if analysisTimeout <= 0 {
		analysisTimeout = DefaultAnalysisTimeout
	}
	return &foodAnalysisService{
		preprocessor:    preprocessor,
		generator:       generator,
		normalizer:      resultNormalizer,
		validator:       resultValidator,
		prompt:          llm.FoodAnalysisPrompt,
		analysisTimeout: analysisTimeout,
	}
}

// Analyze validates the request, preprocesses the image, asks the remote model
// and normalizes its reply. Errors are always *apperrors.AppError.
func (s *foodAnalysisService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error) {
	log := logger.FromContext(ctx)

	if strings.TrimSpace(req.Image) == "" {
		return nil, apperrors.NewMissingInputError("No image data provided")
	}

	if err := llm.Ready(s.generator); err != nil {
		return nil, apperrors.NewConfigurationError("Gemini API key not configured", err)
	}

	processed, err := s.preprocessor.Process(req.Image, req.DeclaredMIMEType())
	if err != nil {
		if !apperrors.IsType(err, apperrors.ErrorTypeInvalidImage) {
			return nil, apperrors.NewInvalidImageError("Error processing image: "+err.Error(), err)
		}
		return nil, err
	}
	log.WithFields(logrus.Fields{
		"source_format": processed.SourceFormat,
		"source_width":  processed.SourceWidth,
		"source_height": processed.SourceHeight,
		"width":         processed.Width,
		"height":        processed.Height,
		"resized":       processed.Resized,
		"bytes":         len(processed.Data),
	}).Debug("Image preprocessed")

	reply, err := s.generate(ctx, processed)
	if err != nil {
		return nil, err
	}

	outcome := s.normalizer.Normalize(reply)
	if outcome.Fallback {
		log.WithFields(logrus.Fields{
			"source":      outcome.Source,
			"reply_chars": len(reply),
		}).Warn("Model reply was not JSON, returning default analysis")
	} else if len(outcome.Defaulted) > 0 {
		log.WithFields(logrus.Fields{
			"source":    outcome.Source,
			"defaulted": outcome.Defaulted,
		}).Info("Model reply was missing fields, defaults applied")
	}

	result := outcome.Result
	if issues := s.validator.Validate(&result); len(issues) > 0 {
		summary := validation.Summarize(issues)
		return nil, apperrors.NewInternalError("Error analyzing image: invalid analysis result", errors.New(summary))
	}

	return &result, nil
}

func (s *foodAnalysisService) generate(ctx context.Context, processed *preprocess.Processed) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, s.analysisTimeout)
	defer cancel()

	start := time.Now()
	reply, err := s.generator.Generate(ctx, s.prompt, processed.Data, processed.MIMEType)
	latency := time.Since(start)

	log := logger.FromContext(ctx).WithField("latency_ms", latency.Milliseconds())
	if err != nil {
		log.WithError(err).Error("Remote model call failed")
		switch {
		case errors.Is(err, llm.ErrMissingAPIKey):
			return "", apperrors.NewConfigurationError("Gemini API key not configured", err)
		case errors.Is(err, context.DeadlineExceeded):
			msg := fmt.Sprintf("Error analyzing image: model did not respond within %s", s.analysisTimeout)
			return "", apperrors.NewUpstreamError(msg, err)
		default:
			return "", apperrors.NewUpstreamError("Error analyzing image: "+err.Error(), err)
		}
	}

	log.WithField("reply_chars", len(reply)).Info("Remote model replied")
	return reply, nil
}
