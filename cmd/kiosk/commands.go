// cmd/kiosk/commands.go
package main

import (
	"context"
	"encoding/base64"
	"errors"
	"fmt"
	"os"

	"github.com/urfave/cli"
	"go.uber.org/zap"

	"kiosk-client/internal/config"
	"kiosk-client/internal/gateway"
	"kiosk-client/internal/model"
	"kiosk-client/internal/printer"
	"kiosk-client/internal/protocol"
	"kiosk-client/internal/utils"
)

// loadRuntime loads the configuration named by the global --config flag and
// builds the logger
func loadRuntime(c *cli.Context) (*config.Config, *zap.Logger, error) {
	cfg, err := config.Load(c.GlobalString("config"))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	logger, err := utils.NewLogger(&cfg.Logging)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize logger: %w", err)
	}
	return cfg, logger, nil
}

// newDevice builds the printer device on the configured transport. A nil
// reporter keeps status events in the log.
func newDevice(cfg *config.Config, reporter printer.Reporter, logger *zap.Logger) (*printer.Device, error) {
	identity, err := cfg.Identity()
	if err != nil {
		return nil, err
	}

	conn, err := protocol.CreateProtocol(&cfg.Printer, identity, logger)
	if err != nil {
		return nil, err
	}

	return printer.NewDevice(printer.DeviceConfig{
		Identity:        identity,
		PaperCheck:      cfg.Printer.PaperCheck,
		StatusReadDelay: cfg.Printer.StatusReadDelay,
		ReadTimeout:     cfg.Printer.ReadTimeout,
		WriteTimeout:    cfg.Printer.WriteTimeout,
	}, conn, reporter, logger), nil
}

// openLocalDevice opens the printer without a remote status channel and
// fails unless it ends up ready
func openLocalDevice(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*printer.Device, error) {
	device, err := newDevice(cfg, nil, logger)
	if err != nil {
		return nil, err
	}

	if err := device.Initialize(ctx); err != nil {
		device.Cleanup()
		var permErr *printer.PermissionError
		if errors.As(err, &permErr) {
			fmt.Fprintln(os.Stderr, permErr.Remediation)
		}
		return nil, err
	}

	snapshot := device.Snapshot()
	if snapshot.State != model.DeviceStateReady {
		device.Cleanup()
		message := "printer unavailable"
		if snapshot.LastStatus != nil {
			message = snapshot.LastStatus.Message
		}
		return nil, fmt.Errorf("printer %s is %s: %s", snapshot.Device, snapshot.State, message)
	}
	return device, nil
}

func checkPrinter(c *cli.Context) error {
	cfg, logger, err := loadRuntime(c)
	if err != nil {
		return err
	}
	defer utils.CloseLogger(logger)

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	device, err := openLocalDevice(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer device.Cleanup()

	level := device.CheckPaperStatus(ctx)
	snapshot := device.Snapshot()
	fmt.Printf("printer %s (%s, %s): %s, paper %s\n",
		snapshot.Device, snapshot.Device.Model, snapshot.Connection, snapshot.State, level)

	if level == model.PaperOut {
		return errors.New("printer is out of paper")
	}
	return nil
}

func printFile(c *cli.Context) error {
	path := c.Args().First()
	if path == "" {
		return errors.New("print needs a ticket file")
	}

	text, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read ticket: %w", err)
	}

	cfg, logger, err := loadRuntime(c)
	if err != nil {
		return err
	}
	defer utils.CloseLogger(logger)

	ctx, cancel := context.WithTimeout(context.Background(), c.Duration("timeout"))
	defer cancel()

	device, err := openLocalDevice(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer device.Cleanup()

	result := gateway.New(device, logger).PrintTicket(ctx, model.PrintSourceOperator, base64.StdEncoding.EncodeToString(text))
	fmt.Println(result.Message)
	if !result.Success {
		return errors.New(result.Message)
	}
	return nil
}
