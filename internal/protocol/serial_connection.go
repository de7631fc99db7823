// internal/protocol/serial_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"go.bug.st/serial"
	"go.uber.org/zap"

	"kiosk-client/internal/model"
)

// SerialConnection implements DeviceProtocol for serial printers
type SerialConnection struct {
	config *SerialConfig
	port   serial.Port
	logger *zap.Logger
	mutex  sync.RWMutex
	isOpen bool
	stats  *ProtocolStats
}

// NewSerialConnection creates a new serial connection
func NewSerialConnection(config *SerialConfig, logger *zap.Logger) DeviceProtocol {
	return &SerialConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "serial"),
			zap.String("port", config.Port),
		),
		stats: &ProtocolStats{},
	}
}

// Open opens the serial connection
func (sc *SerialConnection) Open(ctx context.Context) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if sc.isOpen {
		return nil
	}

	sc.logger.Info("Opening serial port", zap.Int("baud_rate", sc.config.BaudRate))

	mode := &serial.Mode{
		BaudRate: sc.config.BaudRate,
		DataBits: sc.config.DataBits,
		StopBits: serialStopBits(sc.config.StopBits),
	}

	switch sc.config.Parity {
	case "odd":
		mode.Parity = serial.OddParity
	case "even":
		mode.Parity = serial.EvenParity
	default:
		mode.Parity = serial.NoParity
	}

	port, err := serial.Open(sc.config.Port, mode)
	if err != nil {
		sc.logger.Error("Failed to open serial port", zap.Error(err))
		return fmt.Errorf("failed to open serial port: %w", classifySerialError(err))
	}

	if sc.config.ReadTimeout > 0 {
		if err := port.SetReadTimeout(sc.config.ReadTimeout); err != nil {
			port.Close()
			return fmt.Errorf("failed to set read timeout: %w", err)
		}
	}

	sc.port = port
	sc.isOpen = true
	sc.stats.IsConnected = true
	sc.stats.LastActivity = time.Now()

	sc.logger.Info("Serial port opened successfully")
	return nil
}

// Close closes the serial connection
func (sc *SerialConnection) Close() error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil
	}

	err := sc.port.Close()
	sc.port = nil
	sc.isOpen = false
	sc.stats.IsConnected = false

	if err != nil {
		sc.logger.Error("Failed to close serial port", zap.Error(err))
		return fmt.Errorf("failed to close serial port: %w", err)
	}

	sc.logger.Info("Serial port closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (sc *SerialConnection) IsOpen() bool {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return sc.isOpen && sc.port != nil
}

// Write writes data to the serial port. A write that outlives the context
// (or WriteTimeout) is abandoned and reported as a failure.
func (sc *SerialConnection) Write(ctx context.Context, data []byte) error {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return ErrNotOpen
	}

	if _, ok := ctx.Deadline(); !ok && sc.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, sc.config.WriteTimeout)
		defer cancel()
	}

	type result struct {
		n   int
		err error
	}
	done := make(chan result, 1)

	startTime := time.Now()
	port := sc.port
	go func() {
		n, err := port.Write(data)
		done <- result{n: n, err: err}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			sc.stats.ErrorCount++
			sc.logger.Error("Serial write failed", zap.Error(res.err))
			return fmt.Errorf("failed to write to serial port: %w", classifySerialError(res.err))
		}
		if res.n != len(data) {
			sc.stats.ErrorCount++
			return fmt.Errorf("incomplete write: wrote %d of %d bytes", res.n, len(data))
		}
		sc.stats.recordWrite(res.n, time.Since(startTime))
		sc.logger.Debug("Serial write completed", zap.Int("bytes", res.n))
		return nil

	case <-ctx.Done():
		sc.stats.ErrorCount++
		return fmt.Errorf("serial write timed out: %w", ctx.Err())
	}
}

// Read reads data from the serial port. A read timeout yields an empty slice.
func (sc *SerialConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	sc.mutex.Lock()
	defer sc.mutex.Unlock()

	if !sc.isOpen || sc.port == nil {
		return nil, ErrNotOpen
	}

	type result struct {
		data []byte
		err  error
	}
	done := make(chan result, 1)

	port := sc.port
	go func() {
		buffer := make([]byte, maxBytes)
		n, err := port.Read(buffer)
		if err != nil {
			done <- result{err: fmt.Errorf("failed to read from serial port: %w", classifySerialError(err))}
			return
		}
		done <- result{data: buffer[:n]}
	}()

	select {
	case res := <-done:
		if res.err != nil {
			sc.stats.ErrorCount++
			return nil, res.err
		}
		sc.stats.recordRead(len(res.data))
		return res.data, nil

	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// GetProtocolType returns the protocol type
func (sc *SerialConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeSerial
}

// GetStats returns a copy of the link statistics
func (sc *SerialConnection) GetStats() ProtocolStats {
	sc.mutex.RLock()
	defer sc.mutex.RUnlock()
	return *sc.stats
}

// serialStopBits converts a configured stop bit count
func serialStopBits(bits int) serial.StopBits {
	if bits == 2 {
		return serial.TwoStopBits
	}
	return serial.OneStopBit
}

// classifySerialError maps serial port error codes onto the protocol error kinds
func classifySerialError(err error) error {
	var portErr *serial.PortError
	if errors.As(err, &portErr) {
		switch portErr.Code() {
		case serial.PermissionDenied:
			return fmt.Errorf("%w: %v", ErrPermission, err)
		case serial.PortNotFound, serial.PortClosed:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}
