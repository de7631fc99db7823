// Package prototest provides an in-memory DeviceProtocol for tests.
package prototest

import (
	"bytes"
	"context"
	"sync"

	"kiosk-client/internal/model"
	"kiosk-client/internal/protocol"
)

// Fake records writes and replays queued read responses
type Fake struct {
	mu sync.Mutex

	OpenErr  error
	WriteErr error
	ReadErr  error
	// WriteHook runs inside Write before the data is recorded.
	WriteHook func(data []byte) error

	responses [][]byte
	writes    [][]byte
	open      bool
	opens     int
	closes    int
}

var _ protocol.DeviceProtocol = (*Fake)(nil)

// NewFake returns a closed fake link
func NewFake() *Fake {
	return &Fake{}
}

// QueueResponse appends a response for the next Read. An empty slice
// simulates a printer that does not answer.
func (f *Fake) QueueResponse(data ...byte) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.responses = append(f.responses, data)
}

// SetOpenErr changes the error returned by subsequent Open calls
func (f *Fake) SetOpenErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.OpenErr = err
}

// SetWriteErr changes the error returned by subsequent Write calls
func (f *Fake) SetWriteErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.WriteErr = err
}

func (f *Fake) Open(ctx context.Context) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.opens++
	if f.OpenErr != nil {
		return f.OpenErr
	}
	f.open = true
	return nil
}

func (f *Fake) Close() error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.open {
		f.closes++
	}
	f.open = false
	return nil
}

func (f *Fake) IsOpen() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.open
}

func (f *Fake) Write(ctx context.Context, data []byte) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if !f.open {
		return protocol.ErrNotOpen
	}
	if f.WriteHook != nil {
		if err := f.WriteHook(data); err != nil {
			return err
		}
	}
	if f.WriteErr != nil {
		return f.WriteErr
	}
	f.writes = append(f.writes, append([]byte(nil), data...))
	return nil
}

// Read pops the next queued response. With nothing queued it blocks until
// ctx is done, like a printer that never answers.
func (f *Fake) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	f.mu.Lock()
	if !f.open {
		f.mu.Unlock()
		return nil, protocol.ErrNotOpen
	}
	if f.ReadErr != nil {
		err := f.ReadErr
		f.mu.Unlock()
		return nil, err
	}
	if len(f.responses) > 0 {
		resp := f.responses[0]
		f.responses = f.responses[1:]
		f.mu.Unlock()
		if len(resp) > maxBytes {
			resp = resp[:maxBytes]
		}
		return resp, nil
	}
	f.mu.Unlock()

	<-ctx.Done()
	return nil, ctx.Err()
}

func (f *Fake) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// GetStats counts recorded writes
func (f *Fake) GetStats() protocol.ProtocolStats {
	f.mu.Lock()
	defer f.mu.Unlock()

	stats := protocol.ProtocolStats{IsConnected: f.open}
	for _, w := range f.writes {
		stats.BytesWritten += int64(len(w))
		stats.OperationCount++
	}
	return stats
}

// Writes returns a copy of every recorded write
func (f *Fake) Writes() [][]byte {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([][]byte, len(f.writes))
	copy(out, f.writes)
	return out
}

// Written returns all recorded writes concatenated
func (f *Fake) Written() []byte {
	return bytes.Join(f.Writes(), nil)
}

// Opens returns how many times Open was called
func (f *Fake) Opens() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.opens
}

// Closes returns how many open links were closed
func (f *Fake) Closes() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closes
}
