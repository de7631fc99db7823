package middleware

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"kiosk-client/internal/utils"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func TestRecoveryMiddleware(t *testing.T) {
	core, logs := observer.New(zap.ErrorLevel)

	router := gin.New()
	router.Use(RequestIDMiddleware(), RecoveryMiddleware(zap.New(core)))
	router.GET("/boom", func(*gin.Context) { panic("printer exploded") })

	req := httptest.NewRequest(http.MethodGet, "/boom", nil)
	req.Header.Set(RequestIDHeader, "req-7")
	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	if w.Code != http.StatusInternalServerError {
		t.Fatalf("status = %d", w.Code)
	}
	var resp utils.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatal(err)
	}
	if resp.Success || resp.RequestID != "req-7" || resp.Error.Code != "INTERNAL_SERVER_ERROR" {
		t.Errorf("response = %+v", resp)
	}

	entries := logs.FilterMessage("Panic recovered").All()
	if len(entries) != 1 || entries[0].ContextMap()["request_id"] != "req-7" {
		t.Errorf("log entries = %+v", entries)
	}
}

func TestLoggingMiddlewareTagsRequestID(t *testing.T) {
	core, logs := observer.New(zap.InfoLevel)
	serviceLogger := utils.NewServiceLogger(zap.New(core), "http-server")

	router := gin.New()
	router.Use(RequestIDMiddleware(), LoggingMiddleware(serviceLogger))
	router.GET("/live", func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	router.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/live", nil))

	generated := w.Header().Get(RequestIDHeader)
	if generated == "" {
		t.Fatal("missing generated request id")
	}

	entries := logs.FilterMessage("API request").All()
	if len(entries) != 1 {
		t.Fatalf("entries = %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["request_id"] != generated || fields["path"] != "/live" || fields["status_code"] != int64(http.StatusOK) {
		t.Errorf("fields = %v", fields)
	}
}
