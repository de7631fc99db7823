// internal/driver/escpos/printer.go
package escpos

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"

	"kiosk-client/internal/model"
	"kiosk-client/internal/protocol"
)

// ErrStatusUnknown is returned when the caller gives up before the
// printer answers a status query
var ErrStatusUnknown = errors.New("paper status unknown")

// Options tunes the timing of status queries
type Options struct {
	// StatusReadDelay gives the printer time to answer a status query.
	StatusReadDelay time.Duration
	// ReadTimeout bounds the status read itself.
	ReadTimeout time.Duration
}

// Printer speaks ESC/POS over a device link
type Printer struct {
	protocol protocol.DeviceProtocol
	profile  Profile
	options  Options
	logger   *zap.Logger
}

// NewPrinter creates a printer for the given model profile
func NewPrinter(conn protocol.DeviceProtocol, model string, options Options, logger *zap.Logger) *Printer {
	profile, known := LookupProfile(model)
	if !known {
		logger.Warn("Unknown printer model, using default profile",
			zap.String("model", model),
			zap.String("profile", profile.Name),
		)
	}

	if options.ReadTimeout <= 0 {
		options.ReadTimeout = time.Second
	}

	return &Printer{
		protocol: conn,
		profile:  profile,
		options:  options,
		logger:   logger,
	}
}

// Profile returns the active command profile
func (p *Printer) Profile() Profile {
	return p.profile
}

// Reset initializes the printer and selects the profile code page
func (p *Printer) Reset(ctx context.Context) error {
	cmd := append([]byte{}, Commands.Initialize...)
	cmd = append(cmd, p.profile.charsetCommand()...)

	if err := p.protocol.Write(ctx, cmd); err != nil {
		return fmt.Errorf("failed to reset printer: %w", err)
	}
	return nil
}

// PrintText prints text followed by the profile cut sequence in a single write
func (p *Printer) PrintText(ctx context.Context, text string) error {
	data := p.EncodeText(text)
	if !strings.HasSuffix(text, "\n") {
		data = append(data, Commands.LineFeed...)
	}
	data = append(data, p.profile.cutCommand()...)

	if err := p.protocol.Write(ctx, data); err != nil {
		return fmt.Errorf("failed to send ticket: %w", err)
	}

	p.logger.Debug("Ticket sent", zap.Int("bytes", len(data)))
	return nil
}

// EncodeText converts UTF-8 text to the profile code page. Runes the code
// page cannot represent are printed as '?'.
func (p *Printer) EncodeText(text string) []byte {
	cm := p.profile.codePage()
	text = strings.ReplaceAll(text, "\r\n", "\n")

	out := make([]byte, 0, len(text))
	for _, r := range text {
		if r < 0x80 {
			out = append(out, byte(r))
			continue
		}
		if b, ok := cm.EncodeRune(r); ok {
			out = append(out, b)
		} else {
			out = append(out, '?')
		}
	}
	return out
}

// PaperStatus queries the paper sensor. An empty or timed-out answer is
// reported as PaperOut. If ctx ends first the level is empty and the
// error wraps ErrStatusUnknown.
func (p *Printer) PaperStatus(ctx context.Context) (model.PaperLevel, error) {
	if !p.profile.PaperSensor {
		return model.PaperOK, nil
	}
	if ctx.Err() != nil {
		return "", abandoned(ctx)
	}

	if err := p.protocol.Write(ctx, Commands.StatusPaper); err != nil {
		if ctx.Err() != nil {
			return "", abandoned(ctx)
		}
		return model.PaperOut, fmt.Errorf("failed to query paper status: %w", err)
	}

	if p.options.StatusReadDelay > 0 {
		select {
		case <-time.After(p.options.StatusReadDelay):
		case <-ctx.Done():
			return "", abandoned(ctx)
		}
	}

	readCtx, cancel := context.WithTimeout(ctx, p.options.ReadTimeout)
	defer cancel()

	response, err := p.protocol.Read(readCtx, 1)
	if err != nil {
		if ctx.Err() != nil {
			return "", abandoned(ctx)
		}
		if errors.Is(err, context.DeadlineExceeded) {
			p.logger.Debug("Paper status query timed out, assuming no paper")
			return model.PaperOut, nil
		}
		return model.PaperOut, fmt.Errorf("failed to read paper status: %w", err)
	}

	return ParsePaperStatus(response), nil
}

func abandoned(ctx context.Context) error {
	return fmt.Errorf("%w: %w", ErrStatusUnknown, ctx.Err())
}

// ParsePaperStatus decodes a DLE EOT 4 response
func ParsePaperStatus(response []byte) model.PaperLevel {
	if len(response) == 0 {
		return model.PaperOut
	}

	status := response[0]
	switch {
	case status&paperFixedBits != paperFixedBits:
		// Not a paper sensor byte
		return model.PaperOut
	case status&paperEndBits == paperEndBits:
		return model.PaperOut
	case status&paperNearEndBit == paperNearEndBit:
		return model.PaperLow
	default:
		return model.PaperOK
	}
}
