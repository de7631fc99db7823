// internal/model/status.go
package model

// StatusKind is the tag reported to the remote status endpoint
type StatusKind string

const (
	StatusInitOK        StatusKind = "init_ok"
	StatusErrorNotFound StatusKind = "error_not_found"
	StatusErrorInit     StatusKind = "error_init"
	StatusErrorGrant    StatusKind = "error_grant"
	StatusErrorPrint    StatusKind = "error_print"
	StatusPrintOK       StatusKind = "print_ok"
	StatusNoPaper       StatusKind = "no_paper"
	StatusLowPaper      StatusKind = "low_paper"
	StatusPaperOK       StatusKind = "paper_ok"
)

// StatusEvent is a reported device-state transition. The JSON form is the
// exact body POSTed to the remote status endpoint.
type StatusEvent struct {
	Kind    StatusKind `json:"error"`
	Message string     `json:"message"`
}

// NewStatusEvent creates a status event
func NewStatusEvent(kind StatusKind, message string) StatusEvent {
	return StatusEvent{Kind: kind, Message: message}
}

// PaperLevel is the tri-state reading of the paper sensor
type PaperLevel string

const (
	PaperOK  PaperLevel = "ok"
	PaperLow PaperLevel = "low"
	PaperOut PaperLevel = "out"
)

// StatusKind maps a paper level to its status tag
func (p PaperLevel) StatusKind() StatusKind {
	switch p {
	case PaperLow:
		return StatusLowPaper
	case PaperOut:
		return StatusNoPaper
	default:
		return StatusPaperOK
	}
}
