// internal/printer/device.go
package printer

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"go.uber.org/zap"

	"kiosk-client/internal/driver/escpos"
	"kiosk-client/internal/model"
	"kiosk-client/internal/protocol"
	"kiosk-client/internal/utils"
)

// DeviceConfig configures the printer device
type DeviceConfig struct {
	Identity        model.DeviceIdentity
	PaperCheck      bool
	StatusReadDelay time.Duration
	ReadTimeout     time.Duration
	WriteTimeout    time.Duration
}

// Reporter receives the status events produced by the device
type Reporter interface {
	Enqueue(event model.StatusEvent)
	Stop()
}

// Snapshot is a point-in-time view of the device
type Snapshot struct {
	State      model.DeviceState      `json:"state"`
	Connection model.ConnectionType   `json:"connection_type"`
	Device     model.DeviceIdentity   `json:"device"`
	PaperLevel model.PaperLevel       `json:"paper_level"`
	PaperOK    bool                   `json:"paper_ok"`
	Error      bool                   `json:"error"`
	LastStatus *model.StatusEvent     `json:"last_status,omitempty"`
	LastError  string                 `json:"last_error,omitempty"`
	UpdatedAt  time.Time              `json:"updated_at"`
	Link       protocol.ProtocolStats `json:"link"`
}

// Device owns the printer handle. Every public operation holds the device
// mutex for its whole duration.
type Device struct {
	config   DeviceConfig
	conn     protocol.DeviceProtocol
	escpos   *escpos.Printer
	reporter Reporter
	logger   *utils.DeviceLogger

	mu         sync.Mutex
	state      model.DeviceState
	hasError   bool
	paperOK    bool
	paperLevel model.PaperLevel
	lastStatus *model.StatusEvent
	lastErr    error
	updatedAt  time.Time
	closed     bool

	cleanupOnce sync.Once
}

// NewDevice creates an uninitialized printer device
func NewDevice(cfg DeviceConfig, conn protocol.DeviceProtocol, reporter Reporter, logger *zap.Logger) *Device {
	deviceLogger := utils.NewDeviceLogger(logger, cfg.Identity, conn.GetProtocolType())

	return &Device{
		config: cfg,
		conn:   conn,
		escpos: escpos.NewPrinter(conn, cfg.Identity.Model, escpos.Options{
			StatusReadDelay: cfg.StatusReadDelay,
			ReadTimeout:     cfg.ReadTimeout,
		}, deviceLogger.Logger),
		reporter:   reporter,
		logger:     deviceLogger,
		state:      model.DeviceStateUninitialized,
		paperOK:    true,
		paperLevel: model.PaperOK,
		updatedAt:  time.Now(),
	}
}

// Initialize opens the printer. Absent or failing devices are reported and
// leave the device without a handle; only a permission failure is returned,
// as a *PermissionError. Cancelling ctx does not interrupt the device I/O.
func (d *Device) Initialize(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	if d.closed {
		d.logger.Warn("Initialize called after cleanup")
		return nil
	}

	if d.conn.IsOpen() {
		if err := d.conn.Close(); err != nil {
			d.logger.LogConnection("close", false, err)
		}
	}

	err := d.open(ctx)
	d.logger.LogConnection("open", err == nil, err)

	switch {
	case err == nil:
		d.state = model.DeviceStateReady
		d.hasError = false
		d.lastErr = nil
		d.emit(model.StatusInitOK, "Printer initialized successfully")
		if d.config.PaperCheck {
			d.checkPaper(ctx)
		}
		return nil

	case errors.Is(err, protocol.ErrNotFound):
		d.state = model.DeviceStateNotFound
		d.hasError = true
		d.lastErr = fmt.Errorf("%w: %w", ErrDeviceNotFound, err)
		d.emit(model.StatusErrorNotFound, "Printer not found")
		return nil

	case protocol.IsPermissionError(err):
		d.state = model.DeviceStatePermissionError
		d.hasError = true
		remediation := Remediation(d.config.Identity)
		d.emit(model.StatusErrorGrant, remediation)
		permErr := &PermissionError{
			Identity:    d.config.Identity,
			Remediation: remediation,
			Err:         err,
		}
		d.lastErr = permErr
		return permErr

	default:
		d.state = model.DeviceStateInitError
		d.hasError = true
		d.lastErr = fmt.Errorf("%w: %w", ErrInitialization, err)
		d.emit(model.StatusErrorInit, fmt.Sprintf("Initialization error: %v", err))
		return nil
	}
}

// open acquires the handle and resets the printer
func (d *Device) open(ctx context.Context) error {
	if err := d.conn.Open(ctx); err != nil {
		return err
	}

	writeCtx, cancel := d.writeContext(ctx)
	defer cancel()

	if err := d.escpos.Reset(writeCtx); err != nil {
		d.conn.Close()
		return err
	}
	return nil
}

// Print prints a base64 encoded UTF-8 ticket and reports whether it was printed
func (d *Device) Print(ctx context.Context, payload string) bool {
	return d.Submit(ctx, payload) == nil
}

// Submit prints a base64 encoded UTF-8 ticket. The returned error is one of
// the printer error kinds; ErrPaperOut means the print was skipped. Once
// submitted a ticket is printed even if ctx is cancelled; only the write
// timeout bounds it.
func (d *Device) Submit(ctx context.Context, payload string) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	if !d.hasHandle() {
		d.hasError = true
		d.lastErr = ErrNotInitialized
		d.emit(model.StatusErrorInit, "Printer not initialized")
		return ErrNotInitialized
	}

	if d.config.PaperCheck {
		if level := d.checkPaper(ctx); level == model.PaperOut {
			d.logger.Warn("Print skipped, out of paper")
			return ErrPaperOut
		}
	}

	text, err := DecodePayload(payload)
	if err != nil {
		d.emit(model.StatusErrorPrint, fmt.Sprintf("Print error: %v", err))
		return err
	}

	writeCtx, cancel := d.writeContext(ctx)
	defer cancel()

	if err := d.escpos.PrintText(writeCtx, text); err != nil {
		d.state = model.DeviceStatePrintError
		d.hasError = true

		if protocol.IsPermissionError(err) {
			d.emit(model.StatusErrorGrant, "USB permission error, check device access rights")
			d.lastErr = fmt.Errorf("%w: %w", ErrPermissionDenied, err)
			return d.lastErr
		}
		d.emit(model.StatusErrorPrint, fmt.Sprintf("Print error: %v", err))
		d.lastErr = fmt.Errorf("%w: %w", ErrPrint, err)
		return d.lastErr
	}

	d.state = model.DeviceStateReady
	if !errors.Is(d.lastErr, ErrPaperLow) {
		d.lastErr = nil
	}
	if d.hasError {
		d.hasError = false
		d.emit(model.StatusPrintOK, "Print succeeded")
	}
	return nil
}

// CheckPaperStatus queries the paper sensor and reports the level
func (d *Device) CheckPaperStatus(ctx context.Context) model.PaperLevel {
	d.mu.Lock()
	defer d.mu.Unlock()

	ctx = context.WithoutCancel(ctx)

	if !d.hasHandle() {
		d.lastErr = ErrNotInitialized
		d.emit(model.StatusErrorInit, "Printer not initialized")
		return model.PaperOut
	}
	return d.checkPaper(ctx)
}

// checkPaper must be called with the device mutex held. no_paper and
// low_paper are reported on every reading, paper_ok only when the paper
// comes back. An abandoned query keeps the previous reading.
func (d *Device) checkPaper(ctx context.Context) model.PaperLevel {
	level, err := d.escpos.PaperStatus(ctx)
	if errors.Is(err, escpos.ErrStatusUnknown) {
		d.logger.Warn("Paper status query abandoned", zap.Error(err))
		return d.paperLevel
	}
	if err != nil {
		d.logger.Warn("Paper status query failed", zap.Error(err))
	}
	d.paperLevel = level

	switch level {
	case model.PaperOut:
		d.paperOK = false
		d.lastErr = ErrPaperOut
		d.emit(model.StatusNoPaper, "Out of paper")
	case model.PaperLow:
		d.paperOK = false
		d.lastErr = ErrPaperLow
		d.emit(model.StatusLowPaper, "Paper is running low")
	default:
		if errors.Is(d.lastErr, ErrPaperOut) || errors.Is(d.lastErr, ErrPaperLow) {
			d.lastErr = nil
		}
		if !d.paperOK {
			d.paperOK = true
			d.emit(model.StatusPaperOK, "Paper restored")
		}
	}
	return level
}

// State returns the device state
func (d *Device) State() model.DeviceState {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// IsPaperOK reports the last known paper flag
func (d *Device) IsPaperOK() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.paperOK
}

// Err returns the error kind behind the last failed operation, or nil
// once the device has recovered. Low paper is kept until the paper is
// restored.
func (d *Device) Err() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.lastErr
}

// Snapshot returns the current device view
func (d *Device) Snapshot() Snapshot {
	d.mu.Lock()
	defer d.mu.Unlock()

	snap := Snapshot{
		State:      d.state,
		Connection: d.conn.GetProtocolType(),
		Device:     d.config.Identity,
		PaperLevel: d.paperLevel,
		PaperOK:    d.paperOK,
		Error:      d.hasError,
		UpdatedAt:  d.updatedAt,
		Link:       d.conn.GetStats(),
	}
	if d.lastStatus != nil {
		last := *d.lastStatus
		snap.LastStatus = &last
	}
	if d.lastErr != nil {
		snap.LastError = d.lastErr.Error()
	}
	return snap
}

// Cleanup stops status reporting and releases the handle. Safe to call
// more than once.
func (d *Device) Cleanup() {
	d.cleanupOnce.Do(func() {
		if d.reporter != nil {
			d.reporter.Stop()
		}

		d.mu.Lock()
		defer d.mu.Unlock()

		d.closed = true
		err := d.conn.Close()
		d.logger.LogConnection("close", err == nil, err)
		d.state = model.DeviceStateUninitialized
		d.updatedAt = time.Now()
	})
}

func (d *Device) hasHandle() bool {
	return d.state.HasHandle() && d.conn.IsOpen()
}

func (d *Device) writeContext(ctx context.Context) (context.Context, context.CancelFunc) {
	if d.config.WriteTimeout > 0 {
		return context.WithTimeout(ctx, d.config.WriteTimeout)
	}
	return context.WithCancel(ctx)
}

// emit must be called with the device mutex held
func (d *Device) emit(kind model.StatusKind, message string) {
	event := model.NewStatusEvent(kind, message)
	d.lastStatus = &event
	d.updatedAt = time.Now()

	d.logger.LogStatus(event)
	if d.reporter != nil {
		d.reporter.Enqueue(event)
	}
}

// DecodePayload decodes a base64 print payload into UTF-8 text
func DecodePayload(payload string) (string, error) {
	raw, err := base64.StdEncoding.DecodeString(strings.TrimSpace(payload))
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrDecode, err)
	}
	if !utf8.Valid(raw) {
		return "", fmt.Errorf("%w: payload is not valid UTF-8", ErrDecode)
	}
	return string(raw), nil
}
