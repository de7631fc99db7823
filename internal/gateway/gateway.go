// internal/gateway/gateway.go
package gateway

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"kiosk-client/internal/model"
	"kiosk-client/internal/printer"
	"kiosk-client/internal/utils"
)

// Submitter prints a base64 encoded ticket
type Submitter interface {
	Submit(ctx context.Context, payload string) error
}

// Result messages returned to callers
const (
	MessagePrinted        = "ticket printed"
	MessageNotInitialized = "printing system not initialized"
	MessagePaperOut       = "printer is out of paper"
	MessageNoPrinter      = "printer not available"
	MessagePermission     = "printer access denied"
	MessageDecode         = "invalid ticket data"
)

// Gateway is the single entry point for print requests from the UI bridge
// and the push listener
type Gateway struct {
	printer Submitter
	logger  *zap.Logger
}

// New creates a print gateway. A nil printer makes every request fail.
func New(p Submitter, logger *zap.Logger) *Gateway {
	return &Gateway{
		printer: p,
		logger:  logger.With(zap.String("component", "print_gateway")),
	}
}

// PrintTicket prints payload and reports the outcome. It never panics.
func (g *Gateway) PrintTicket(ctx context.Context, source model.PrintSource, payload string) (result model.PrintResult) {
	if g == nil || g.printer == nil {
		return model.PrintResult{Success: false, Message: MessageNotInitialized}
	}

	job := model.NewPrintJob(source, payload)
	opLogger := utils.NewOperationLogger(g.logger, job)

	defer func() {
		if r := recover(); r != nil {
			opLogger.Error(fmt.Errorf("panic: %v", r), zap.Stack("stack"))
			result = model.PrintResult{Success: false, Message: fmt.Sprintf("print error: %v", r)}
		}
	}()

	opLogger.Start(zap.Int("payload_size", len(payload)))

	if err := g.printer.Submit(ctx, job.Payload); err != nil {
		opLogger.Error(err)
		return model.PrintResult{Success: false, Message: messageFor(err)}
	}

	opLogger.Success()
	return model.PrintResult{Success: true, Message: MessagePrinted}
}

// messageFor maps a printer error kind to its caller-facing message
func messageFor(err error) string {
	switch {
	case errors.Is(err, printer.ErrPaperOut):
		return MessagePaperOut
	case errors.Is(err, printer.ErrNotInitialized):
		return MessageNoPrinter
	case errors.Is(err, printer.ErrPermissionDenied):
		return MessagePermission
	case errors.Is(err, printer.ErrDecode):
		return MessageDecode
	default:
		return fmt.Sprintf("print error: %v", err)
	}
}
