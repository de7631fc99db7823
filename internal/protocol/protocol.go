// internal/protocol/protocol.go
package protocol

import (
	"context"
	"errors"
	"strings"
	"time"

	"kiosk-client/internal/model"
)

// DeviceProtocol represents a communication link to the printer
type DeviceProtocol interface {
	// Connection lifecycle
	Open(ctx context.Context) error
	Close() error
	IsOpen() bool

	// Data communication
	Write(ctx context.Context, data []byte) error
	Read(ctx context.Context, maxBytes int) ([]byte, error)

	// Protocol information
	GetProtocolType() model.ConnectionType
	GetStats() ProtocolStats
}

var (
	// ErrNotFound reports that the configured device is not attached.
	ErrNotFound = errors.New("device not found")
	// ErrPermission reports that the OS refused access to the device.
	ErrPermission = errors.New("device access denied")
	// ErrNotOpen reports an operation on a closed link.
	ErrNotOpen = errors.New("connection not open")
)

// IsPermissionError reports whether err is a permission-class failure.
// Structured driver codes are mapped to ErrPermission at the source; the
// "langid" text check only covers bindings that surface no code, where a
// string descriptor read fails on a device the user may not open.
func IsPermissionError(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, ErrPermission) {
		return true
	}
	return strings.Contains(strings.ToLower(err.Error()), "langid")
}

// ProtocolStats provides protocol-level statistics
type ProtocolStats struct {
	BytesWritten   int64         `json:"bytes_written"`
	BytesRead      int64         `json:"bytes_read"`
	OperationCount int64         `json:"operation_count"`
	ErrorCount     int64         `json:"error_count"`
	LastActivity   time.Time     `json:"last_activity"`
	AverageLatency time.Duration `json:"average_latency"`
	IsConnected    bool          `json:"is_connected"`
}

// recordWrite updates statistics after a successful write
func (s *ProtocolStats) recordWrite(n int, latency time.Duration) {
	s.BytesWritten += int64(n)
	s.OperationCount++
	s.LastActivity = time.Now()
	if s.AverageLatency == 0 {
		s.AverageLatency = latency
	} else {
		s.AverageLatency = (s.AverageLatency + latency) / 2
	}
}

// recordRead updates statistics after a successful read
func (s *ProtocolStats) recordRead(n int) {
	s.BytesRead += int64(n)
	s.OperationCount++
	s.LastActivity = time.Now()
}
