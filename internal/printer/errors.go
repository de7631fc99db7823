// internal/printer/errors.go
package printer

import (
	"errors"
	"fmt"

	"kiosk-client/internal/model"
)

// Error kinds produced by the printer device
var (
	ErrDeviceNotFound   = errors.New("printer not found")
	ErrPermissionDenied = errors.New("printer access denied")
	ErrInitialization   = errors.New("printer initialization failed")
	ErrPrint            = errors.New("print failed")
	ErrPaperOut         = errors.New("out of paper")
	ErrPaperLow         = errors.New("paper low")
	ErrDecode           = errors.New("invalid print payload")
	ErrNotInitialized   = errors.New("printer not initialized")
)

// PermissionError is returned by Initialize when the OS refuses access to
// the printer. Remediation holds the operator instructions.
type PermissionError struct {
	Identity    model.DeviceIdentity
	Remediation string
	Err         error
}

func (e *PermissionError) Error() string {
	return fmt.Sprintf("permission denied for printer %s: %v", e.Identity, e.Err)
}

func (e *PermissionError) Unwrap() []error {
	return []error{ErrPermissionDenied, e.Err}
}

// Remediation returns the udev fix for a USB printer the current user may not open
func Remediation(identity model.DeviceIdentity) string {
	return fmt.Sprintf(`USB permission error for printer vendor %s product %s. To fix it:
1. Add a udev rule:
echo 'SUBSYSTEM=="usb", ATTRS{idVendor}=="%04x", ATTRS{idProduct}=="%04x", MODE="0666", GROUP="dialout"' | sudo tee /etc/udev/rules.d/99-printer.rules
2. Reload the rules:
sudo udevadm control --reload-rules && sudo udevadm trigger
3. Add your user to the dialout group:
sudo usermod -a -G dialout $USER
4. Log out and log back in`,
		displayID(identity.VendorHex, identity.VendorID),
		displayID(identity.ProductHex, identity.ProductID),
		identity.VendorID, identity.ProductID,
	)
}

// displayID keeps the configured spelling when there is one
func displayID(configured string, id uint16) string {
	if configured != "" {
		return configured
	}
	return fmt.Sprintf("0x%04x", id)
}
