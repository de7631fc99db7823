// internal/model/device.go
package model

import (
	"fmt"
	"strconv"
	"strings"
)

// ConnectionType represents how the printer is connected
type ConnectionType string

const (
	ConnectionTypeUSB    ConnectionType = "USB"
	ConnectionTypeSerial ConnectionType = "SERIAL"
)

// DeviceState represents the printer device lifecycle state
type DeviceState string

const (
	DeviceStateUninitialized   DeviceState = "UNINITIALIZED"
	DeviceStateReady           DeviceState = "READY"
	DeviceStateNotFound        DeviceState = "NOT_FOUND"
	DeviceStatePermissionError DeviceState = "PERMISSION_ERROR"
	DeviceStateInitError       DeviceState = "INIT_ERROR"
	DeviceStatePrintError      DeviceState = "PRINT_ERROR"
)

// HasHandle reports whether a device in this state holds an open handle.
func (s DeviceState) HasHandle() bool {
	return s == DeviceStateReady || s == DeviceStatePrintError
}

// DeviceIdentity identifies the single printer this kiosk drives
type DeviceIdentity struct {
	VendorID  uint16 `json:"-"`
	ProductID uint16 `json:"-"`

	// Configured spellings, kept verbatim for operator-facing messages.
	VendorHex  string `json:"vendor_id"`
	ProductHex string `json:"product_id"`
	Model      string `json:"model"`
}

// ParseDeviceIdentity parses hexadecimal vendor and product IDs (0x04b8 or 04b8)
func ParseDeviceIdentity(vendorHex, productHex, model string) (DeviceIdentity, error) {
	vendorID, err := ParseHexID(vendorHex)
	if err != nil {
		return DeviceIdentity{}, fmt.Errorf("invalid vendor ID %q: %w", vendorHex, err)
	}

	productID, err := ParseHexID(productHex)
	if err != nil {
		return DeviceIdentity{}, fmt.Errorf("invalid product ID %q: %w", productHex, err)
	}

	return DeviceIdentity{
		VendorID:   vendorID,
		ProductID:  productID,
		VendorHex:  vendorHex,
		ProductHex: productHex,
		Model:      model,
	}, nil
}

// ParseHexID parses an unsigned 16-bit hex ID with optional 0x prefix
func ParseHexID(hexStr string) (uint16, error) {
	s := strings.TrimSpace(hexStr)
	if len(s) > 2 && (s[:2] == "0x" || s[:2] == "0X") {
		s = s[2:]
	}
	if s == "" {
		return 0, fmt.Errorf("empty hex ID")
	}

	id, err := strconv.ParseUint(s, 16, 16)
	if err != nil {
		return 0, err
	}

	return uint16(id), nil
}

// String renders the identity as VID:PID for logs
func (d DeviceIdentity) String() string {
	return fmt.Sprintf("%04x:%04x", d.VendorID, d.ProductID)
}
