package transport

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"image"
	"image/png"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"go-food-scanner/internal/config"
	"go-food-scanner/internal/normalizer"
	"go-food-scanner/internal/preprocess"
	"go-food-scanner/internal/service"
	"go-food-scanner/pkg/models"
	"go-food-scanner/pkg/validation"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubService returns a fixed result, or panics when asked to.
type stubService struct {
	result *models.AnalysisResult
	err    error
	panic  bool
	got    models.AnalyzeRequest
}

func (s *stubService) Analyze(ctx context.Context, req models.AnalyzeRequest) (*models.AnalysisResult, error) {
	if s.panic {
		panic("boom")
	}
	s.got = req
	return s.result, s.err
}

func testConfig() *config.Config {
	return &config.Config{
		RequestTimeout:     5 * time.Second,
		AnalysisTimeout:    time.Second,
		MaxRequestBodySize: 64 * 1024,
	}
}

// unconfiguredService is the real pipeline with no model credentials.
func unconfiguredService() service.FoodAnalysisService {
	return service.NewFoodAnalysisService(
		preprocess.New(preprocess.DefaultOptions()),
		nil,
		normalizer.New(),
		validation.NewResultValidator(),
		time.Second,
	)
}

func smallPNG(t *testing.T) string {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 8, 8))); err != nil {
		t.Fatalf("Failed to encode PNG: %v", err)
	}
	return base64.StdEncoding.EncodeToString(buf.Bytes())
}

func doRequest(h http.Handler, method, path, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	h.ServeHTTP(w, req)
	return w
}

func decodeError(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	var body map[string]interface{}
	if err := json.Unmarshal(w.Body.Bytes(), &body); err != nil {
		t.Fatalf("Response is not JSON: %v (%q)", err, w.Body.String())
	}
	if len(body) != 1 {
		t.Errorf("Expected a single-field envelope, got %v", body)
	}
	msg, _ := body["error"].(string)
	return msg
}

func TestAnalyze_EmptyObjectIsMissingInput(t *testing.T) {
	h := NewRouter(unconfiguredService(), testConfig())

	for _, body := range []string{"{}", ""} {
		w := doRequest(h, http.MethodPost, "/api/analyze", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for body %q, got %d", body, w.Code)
		}
		if msg := decodeError(t, w); msg != "No image data provided" {
			t.Errorf("Unexpected message %q", msg)
		}
	}
}

func TestAnalyze_MissingCredential(t *testing.T) {
	h := NewRouter(unconfiguredService(), testConfig())

	w := doRequest(h, http.MethodPost, "/api/analyze", `{"image":"`+smallPNG(t)+`"}`)
	if w.Code != http.StatusInternalServerError {
		t.Errorf("Expected 500, got %d", w.Code)
	}
	if msg := decodeError(t, w); msg != "Gemini API key not configured" {
		t.Errorf("Unexpected message %q", msg)
	}
}

func TestAnalyze_Success(t *testing.T) {
	stub := &stubService{result: &models.AnalysisResult{
		FoodName:          "Apple",
		FreshnessLevel:    models.FreshnessFresh,
		FreshnessScore:    90,
		EstimatedCalories: 95,
		NutritionSummary:  models.NutritionSummary{Protein: "0.5g", Carbs: "25g", Fat: "0.3g", Fiber: "4g"},
		AnalysisSummary:   "Crisp apple.",
		Recommendations:   []string{"Wash before eating"},
	}}
	h := NewRouter(stub, testConfig())

	w := doRequest(h, http.MethodPost, "/api/analyze", `{"image":"abc","mime_type":"image/png"}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected 200, got %d: %s", w.Code, w.Body.String())
	}
	if stub.got.Image != "abc" || stub.got.MIMEType != "image/png" {
		t.Errorf("Request not passed through: %+v", stub.got)
	}

	var got models.AnalysisResult
	if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
		t.Fatalf("Invalid JSON: %v", err)
	}
	if got.FoodName != "Apple" || got.FreshnessLevel != "fresh" || got.NutritionSummary.Fiber != "4g" {
		t.Errorf("Unexpected body %+v", got)
	}

	var raw map[string]json.RawMessage
	_ = json.Unmarshal(w.Body.Bytes(), &raw)
	for _, key := range []string{"food_name", "freshness_level", "freshness_score", "estimated_calories", "nutrition_summary", "analysis_summary", "recommendations"} {
		if _, ok := raw[key]; !ok {
			t.Errorf("Response is missing %s", key)
		}
	}
}

func TestAnalyze_MalformedBody(t *testing.T) {
	h := NewRouter(&stubService{}, testConfig())

	for _, body := range []string{"not json", `{"image": 42}`, `{"image": "abc"`} {
		w := doRequest(h, http.MethodPost, "/api/analyze", body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("Expected 400 for %q, got %d", body, w.Code)
		}
		if msg := decodeError(t, w); msg != "Invalid request body" {
			t.Errorf("Unexpected message %q", msg)
		}
	}
}

func TestAnalyze_BodyTooLarge(t *testing.T) {
	cfg := testConfig()
	cfg.MaxRequestBodySize = 1024
	h := NewRouter(&stubService{}, cfg)
	body := `{"image":"` + strings.Repeat("A", 4096) + `"}`

	t.Run("declared length", func(t *testing.T) {
		w := doRequest(h, http.MethodPost, "/api/analyze", body)
		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected 413, got %d", w.Code)
		}
		if msg := decodeError(t, w); msg != "Request body too large" {
			t.Errorf("Unexpected message %q", msg)
		}
		if w.Header().Get("Access-Control-Allow-Origin") != "*" {
			t.Error("Expected CORS header on 413")
		}
	})

	t.Run("streamed body", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodPost, "/api/analyze", strings.NewReader(body))
		req.ContentLength = -1
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)

		if w.Code != http.StatusRequestEntityTooLarge {
			t.Errorf("Expected 413, got %d", w.Code)
		}
		if msg := decodeError(t, w); msg != "Request body too large" {
			t.Errorf("Unexpected message %q", msg)
		}
	})
}

func TestCORSOnEveryResponse(t *testing.T) {
	h := NewRouter(&stubService{panic: true}, testConfig())

	tests := []struct {
		name   string
		method string
		path   string
		body   string
		status int
	}{
		{"root", http.MethodGet, "/", "", http.StatusOK},
		{"health", http.MethodGet, "/health", "", http.StatusOK},
		{"not found", http.MethodGet, "/does-not-exist", "", http.StatusNotFound},
		{"method not allowed", http.MethodGet, "/api/analyze", "", http.StatusMethodNotAllowed},
		{"bad body", http.MethodPost, "/api/analyze", "nope", http.StatusBadRequest},
		{"panic", http.MethodPost, "/api/analyze", `{"image":"abc"}`, http.StatusInternalServerError},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := doRequest(h, tt.method, tt.path, tt.body)
			if w.Code != tt.status {
				t.Errorf("Expected %d, got %d", tt.status, w.Code)
			}
			if got := w.Header().Get("Access-Control-Allow-Origin"); got != "*" {
				t.Errorf("Expected Access-Control-Allow-Origin *, got %q", got)
			}
			if w.Body.Len() == 0 {
				t.Error("Expected a non-empty body")
			}
			if tt.status >= 400 {
				decodeError(t, w)
			}
		})
	}
}

func TestNotFoundEnvelope(t *testing.T) {
	h := NewRouter(&stubService{}, testConfig())

	w := doRequest(h, http.MethodGet, "/nope", "")
	if msg := decodeError(t, w); msg != "Not Found" {
		t.Errorf("Expected Not Found, got %q", msg)
	}
}

func TestPreflight(t *testing.T) {
	h := NewRouter(&stubService{}, testConfig())

	w := doRequest(h, http.MethodOptions, "/api/analyze", "")
	if w.Code != http.StatusOK {
		t.Errorf("Expected 200, got %d", w.Code)
	}
	want := map[string]string{
		"Access-Control-Allow-Origin":  "*",
		"Access-Control-Allow-Methods": "POST, OPTIONS",
		"Access-Control-Allow-Headers": "Content-Type",
	}
	for header, value := range want {
		if got := w.Header().Get(header); got != value {
			t.Errorf("Expected %s %q, got %q", header, value, got)
		}
	}
}

func TestStatusEndpoints(t *testing.T) {
	h := NewRouter(&stubService{}, testConfig())

	tests := []struct {
		path string
		want map[string]string
	}{
		{"/health", map[string]string{"status": "healthy", "service": "foodscan-ai"}},
		{"/", map[string]string{"message": "FoodScan AI API is running!", "version": "1.0.0", "status": "healthy"}},
	}

	for _, tt := range tests {
		t.Run(tt.path, func(t *testing.T) {
			w := doRequest(h, http.MethodGet, tt.path, "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected 200, got %d", w.Code)
			}
			var got map[string]string
			if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
				t.Fatalf("Invalid JSON: %v", err)
			}
			if len(got) != len(tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, got)
			}
			for k, v := range tt.want {
				if got[k] != v {
					t.Errorf("Expected %s=%q, got %q", k, v, got[k])
				}
			}
		})
	}
}

func TestRequestID(t *testing.T) {
	h := NewRouter(&stubService{}, testConfig())

	t.Run("generated", func(t *testing.T) {
		w := doRequest(h, http.MethodGet, "/health", "")
		if _, err := uuid.Parse(w.Header().Get(RequestIDHeader)); err != nil {
			t.Errorf("Expected a generated UUID, got %q", w.Header().Get(RequestIDHeader))
		}
	})

	t.Run("echoed", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodGet, "/health", nil)
		req.Header.Set(RequestIDHeader, "client-42")
		w := httptest.NewRecorder()
		h.ServeHTTP(w, req)
		if got := w.Header().Get(RequestIDHeader); got != "client-42" {
			t.Errorf("Expected echoed request ID, got %q", got)
		}
	})
}
