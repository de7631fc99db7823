package handler

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"go.uber.org/zap/zaptest"

	"kiosk-client/internal/config"
	"kiosk-client/internal/model"
	"kiosk-client/internal/printer"
	"kiosk-client/internal/utils"
)

type stubTicketPrinter struct {
	result  model.PrintResult
	source  model.PrintSource
	payload string
}

func (s *stubTicketPrinter) PrintTicket(_ context.Context, source model.PrintSource, payload string) model.PrintResult {
	s.source = source
	s.payload = payload
	return s.result
}

type stubDevice struct {
	snapshot printer.Snapshot
	initErr  error
	level    model.PaperLevel
	inits    int
}

func (s *stubDevice) Snapshot() printer.Snapshot { return s.snapshot }

func (s *stubDevice) Initialize(context.Context) error {
	s.inits++
	return s.initErr
}

func (s *stubDevice) CheckPaperStatus(context.Context) model.PaperLevel { return s.level }

func init() {
	gin.SetMode(gin.TestMode)
}

func readySnapshot() printer.Snapshot {
	identity, _ := model.ParseDeviceIdentity("0x04b8", "0x0202", "TM-T88II")
	return printer.Snapshot{
		State:      model.DeviceStateReady,
		Connection: model.ConnectionTypeUSB,
		Device:     identity,
		PaperLevel: model.PaperOK,
		PaperOK:    true,
	}
}

func perform(t *testing.T, h gin.HandlerFunc, method, body string) *httptest.ResponseRecorder {
	t.Helper()
	router := gin.New()
	router.Handle(method, "/", h)

	w := httptest.NewRecorder()
	req := httptest.NewRequest(method, "/", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	router.ServeHTTP(w, req)
	return w
}

func decodeAPIResponse(t *testing.T, w *httptest.ResponseRecorder) utils.APIResponse {
	t.Helper()
	var resp utils.APIResponse
	if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
	return resp
}

func TestPrintTicketReturnsResult(t *testing.T) {
	for _, want := range []model.PrintResult{
		{Success: true, Message: "ticket printed"},
		{Success: false, Message: "printer is out of paper"},
	} {
		stub := &stubTicketPrinter{result: want}
		h := NewPrintHandler(stub, zaptest.NewLogger(t))

		w := perform(t, h.PrintTicket, http.MethodPost, `{"data":"SGVsbG8="}`)
		if w.Code != http.StatusOK {
			t.Fatalf("status = %d", w.Code)
		}

		var got model.PrintResult
		if err := json.Unmarshal(w.Body.Bytes(), &got); err != nil {
			t.Fatal(err)
		}
		if got != want {
			t.Errorf("result = %+v, want %+v", got, want)
		}
		if stub.source != model.PrintSourceBridge || stub.payload != "SGVsbG8=" {
			t.Errorf("forwarded %s %q", stub.source, stub.payload)
		}
	}
}

func TestPrintTicketRejectsBadBody(t *testing.T) {
	h := NewPrintHandler(&stubTicketPrinter{}, zaptest.NewLogger(t))

	for _, body := range []string{`{"data":`, `{}`, `not json`} {
		w := perform(t, h.PrintTicket, http.MethodPost, body)
		if w.Code != http.StatusBadRequest {
			t.Errorf("body %q: status = %d, want 400", body, w.Code)
		}
		if resp := decodeAPIResponse(t, w); resp.Success || resp.Error == nil || resp.Error.Code != "BAD_REQUEST" {
			t.Errorf("body %q: response = %+v", body, resp)
		}
	}
}

func TestGetPrinter(t *testing.T) {
	h := NewPrinterHandler(&stubDevice{snapshot: readySnapshot()}, zaptest.NewLogger(t))

	w := perform(t, h.GetPrinter, http.MethodGet, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}
	data := decodeAPIResponse(t, w).Data.(map[string]interface{})
	if data["state"] != "READY" || data["paper_level"] != "ok" {
		t.Errorf("data = %v", data)
	}
	device := data["device"].(map[string]interface{})
	if device["vendor_id"] != "0x04b8" {
		t.Errorf("device = %v", device)
	}
}

func TestInitializePrinter(t *testing.T) {
	device := &stubDevice{snapshot: readySnapshot()}
	h := NewPrinterHandler(device, zaptest.NewLogger(t))

	w := perform(t, h.InitializePrinter, http.MethodPost, "")
	if w.Code != http.StatusOK || device.inits != 1 {
		t.Errorf("status = %d, inits = %d", w.Code, device.inits)
	}
}

func TestInitializePrinterPermissionDenied(t *testing.T) {
	identity, _ := model.ParseDeviceIdentity("0x04b8", "0x0202", "TM-T88II")
	device := &stubDevice{initErr: &printer.PermissionError{
		Identity:    identity,
		Remediation: printer.Remediation(identity),
		Err:         fmt.Errorf("access denied"),
	}}
	h := NewPrinterHandler(device, zaptest.NewLogger(t))

	w := perform(t, h.InitializePrinter, http.MethodPost, "")
	if w.Code != http.StatusForbidden {
		t.Fatalf("status = %d, want 403", w.Code)
	}
	resp := decodeAPIResponse(t, w)
	if resp.Error == nil || !strings.Contains(resp.Error.Details, "0x04b8") || resp.Error.Code != "FORBIDDEN" {
		t.Errorf("error = %+v", resp.Error)
	}
}

func TestCheckPaper(t *testing.T) {
	h := NewPrinterHandler(&stubDevice{level: model.PaperLow}, zaptest.NewLogger(t))

	w := perform(t, h.CheckPaper, http.MethodPost, "")
	data := decodeAPIResponse(t, w).Data.(map[string]interface{})
	if data["paper_level"] != "low" || data["status"] != "low_paper" {
		t.Errorf("data = %v", data)
	}
}

func TestReadinessFollowsPrinterState(t *testing.T) {
	device := &stubDevice{snapshot: readySnapshot()}
	h := NewHealthHandler(device, &config.Config{}, zaptest.NewLogger(t))

	if w := perform(t, h.ReadinessCheck, http.MethodGet, ""); w.Code != http.StatusOK {
		t.Errorf("ready printer: status = %d", w.Code)
	}

	device.snapshot.State = model.DeviceStateNotFound
	w := perform(t, h.ReadinessCheck, http.MethodGet, "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "NOT_FOUND") {
		t.Errorf("missing printer: status = %d body = %s", w.Code, w.Body.String())
	}
}

func TestHealthCheckDegraded(t *testing.T) {
	snap := readySnapshot()
	snap.PaperLevel = model.PaperOut
	h := NewHealthHandler(&stubDevice{snapshot: snap}, &config.Config{App: config.AppConfig{Name: "kiosk-client"}}, zaptest.NewLogger(t))

	w := perform(t, h.HealthCheck, http.MethodGet, "")
	if w.Code != http.StatusOK {
		t.Fatalf("status = %d", w.Code)
	}

	var health HealthResponse
	if err := json.Unmarshal(w.Body.Bytes(), &health); err != nil {
		t.Fatal(err)
	}
	if health.Status != "degraded" || health.Checks["printer"].Status != "degraded" {
		t.Errorf("health = %+v", health)
	}
	if health.Service != "kiosk-client" {
		t.Errorf("service = %q", health.Service)
	}
}

func TestLivenessCheck(t *testing.T) {
	h := NewHealthHandler(&stubDevice{}, &config.Config{}, zaptest.NewLogger(t))
	if w := perform(t, h.LivenessCheck, http.MethodGet, ""); w.Code != http.StatusOK {
		t.Errorf("status = %d", w.Code)
	}
}

func TestStatusStream(t *testing.T) {
	h := NewStatusStreamHandler(&stubDevice{snapshot: readySnapshot()}, &config.SecurityConfig{}, zaptest.NewLogger(t))
	router := gin.New()
	router.GET("/ws/status", h.HandleStatusConnection)

	server := httptest.NewServer(router)
	defer server.Close()
	defer h.Close()

	conn, _, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws/status", nil)
	if err != nil {
		t.Fatal(err)
	}
	defer conn.Close()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))

	var initial WebSocketMessage
	if err := conn.ReadJSON(&initial); err != nil {
		t.Fatal(err)
	}
	if initial.Type != MessageTypeInitialStatus {
		t.Fatalf("first message = %s", initial.Type)
	}

	h.Publish(model.NewStatusEvent(model.StatusNoPaper, "Out of paper"))

	var update struct {
		Type string            `json:"type"`
		Data model.StatusEvent `json:"data"`
	}
	if err := conn.ReadJSON(&update); err != nil {
		t.Fatal(err)
	}
	if update.Type != MessageTypePrinterStatus || update.Data.Kind != model.StatusNoPaper {
		t.Errorf("update = %+v", update)
	}

	if err := conn.WriteJSON(map[string]string{"type": "ping"}); err != nil {
		t.Fatal(err)
	}
	var pong WebSocketMessage
	if err := conn.ReadJSON(&pong); err != nil {
		t.Fatal(err)
	}
	if pong.Type != MessageTypePong {
		t.Errorf("reply = %s", pong.Type)
	}
}

func TestStatusStreamRejectsForeignOrigin(t *testing.T) {
	h := NewStatusStreamHandler(&stubDevice{}, &config.SecurityConfig{AllowedOrigins: []string{"http://kiosk.local"}}, zaptest.NewLogger(t))
	router := gin.New()
	router.GET("/ws/status", h.HandleStatusConnection)

	server := httptest.NewServer(router)
	defer server.Close()

	header := http.Header{"Origin": {"http://evil.example"}}
	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(server.URL, "http")+"/ws/status", header)
	if err == nil {
		t.Fatal("dial from a foreign origin should fail")
	}
	if resp == nil || resp.StatusCode != http.StatusForbidden {
		t.Errorf("response = %v", resp)
	}
}
