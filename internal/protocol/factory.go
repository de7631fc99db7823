// internal/protocol/factory.go
package protocol

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"kiosk-client/internal/config"
	"kiosk-client/internal/model"
)

// CreateProtocol creates the printer link described by the printer configuration
func CreateProtocol(cfg *config.PrinterConfig, identity model.DeviceIdentity, logger *zap.Logger) (DeviceProtocol, error) {
	switch model.ConnectionType(strings.ToUpper(cfg.ConnectionType)) {
	case model.ConnectionTypeUSB:
		return createUSBProtocol(cfg, identity, logger), nil
	case model.ConnectionTypeSerial:
		return createSerialProtocol(cfg, logger)
	default:
		return nil, fmt.Errorf("unsupported protocol type: %s", cfg.ConnectionType)
	}
}

// createUSBProtocol creates a USB protocol
func createUSBProtocol(cfg *config.PrinterConfig, identity model.DeviceIdentity, logger *zap.Logger) DeviceProtocol {
	usbConfig := &USBConfig{
		VendorID:     identity.VendorID,
		ProductID:    identity.ProductID,
		Interface:    cfg.USB.Interface,
		Endpoint:     cfg.USB.Endpoint,
		WriteTimeout: cfg.WriteTimeout,
	}

	logger.Info("Creating USB protocol",
		zap.String("vendor_id", identity.VendorHex),
		zap.String("product_id", identity.ProductHex),
		zap.Int("interface", usbConfig.Interface),
	)

	return NewUSBConnection(usbConfig, logger)
}

// createSerialProtocol creates a serial protocol
func createSerialProtocol(cfg *config.PrinterConfig, logger *zap.Logger) (DeviceProtocol, error) {
	if cfg.Serial.Port == "" {
		return nil, fmt.Errorf("serial port is required")
	}

	serialConfig := &SerialConfig{
		Port:         cfg.Serial.Port,
		BaudRate:     9600,
		DataBits:     8,
		StopBits:     1,
		Parity:       "none",
		ReadTimeout:  cfg.ReadTimeout,
		WriteTimeout: cfg.WriteTimeout,
	}
	if cfg.Serial.BaudRate > 0 {
		serialConfig.BaudRate = cfg.Serial.BaudRate
	}
	if cfg.Serial.DataBits > 0 {
		serialConfig.DataBits = cfg.Serial.DataBits
	}
	if cfg.Serial.StopBits > 0 {
		serialConfig.StopBits = cfg.Serial.StopBits
	}
	if cfg.Serial.Parity != "" {
		serialConfig.Parity = cfg.Serial.Parity
	}

	logger.Info("Creating serial protocol",
		zap.String("port", serialConfig.Port),
		zap.Int("baud_rate", serialConfig.BaudRate),
	)

	return NewSerialConnection(serialConfig, logger), nil
}
