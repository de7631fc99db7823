// internal/model/operation.go
package model

import (
	"time"

	"github.com/google/uuid"
)

// PrintSource identifies who asked for a print
type PrintSource string

const (
	PrintSourceBridge   PrintSource = "bridge"
	PrintSourcePush     PrintSource = "push"
	PrintSourceOperator PrintSource = "operator" // test ticket from the command line
)

// PrintJob tracks a single print request through the gateway. The payload is
// never persisted; the job only exists for the duration of the call.
type PrintJob struct {
	ID         uuid.UUID   `json:"id"`
	Source     PrintSource `json:"source"`
	Payload    string      `json:"-"`
	ReceivedAt time.Time   `json:"received_at"`
}

// NewPrintJob creates a print job for a base64 payload
func NewPrintJob(source PrintSource, payload string) *PrintJob {
	return &PrintJob{
		ID:         uuid.New(),
		Source:     source,
		Payload:    payload,
		ReceivedAt: time.Now(),
	}
}

// PrintResult is returned to the UI layer as-is
type PrintResult struct {
	Success bool   `json:"success"`
	Message string `json:"message"`
}

// PrintRequest is the bridge request body
type PrintRequest struct {
	Data string `json:"data" binding:"required"`
}

// PushMessage is a message delivered by the push-notification channel
type PushMessage struct {
	Flag string `json:"flag"`
	Data string `json:"data"`
}

// PushFlagPrint asks the kiosk to print the message data
const PushFlagPrint = "print"
