// internal/protocol/usb_connection.go
package protocol

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/gousb"
	"go.uber.org/zap"

	"kiosk-client/internal/model"
)

// USBConnection implements DeviceProtocol for USB printers
type USBConnection struct {
	config   *USBConfig
	ctx      *gousb.Context
	device   *gousb.Device
	intf     *gousb.Interface
	done     func()
	outEndpt *gousb.OutEndpoint
	inEndpt  *gousb.InEndpoint
	logger   *zap.Logger
	mutex    sync.RWMutex
	isOpen   bool
	stats    *ProtocolStats
}

// NewUSBConnection creates a new USB connection
func NewUSBConnection(config *USBConfig, logger *zap.Logger) DeviceProtocol {
	return &USBConnection{
		config: config,
		logger: logger.With(
			zap.String("protocol", "usb"),
			zap.String("usb_id", fmt.Sprintf("%04x:%04x", config.VendorID, config.ProductID)),
		),
		stats: &ProtocolStats{},
	}
}

// Open opens the USB connection
func (uc *USBConnection) Open(ctx context.Context) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if uc.isOpen {
		return nil
	}

	uc.logger.Info("Opening USB connection", zap.Int("interface", uc.config.Interface))

	uc.ctx = gousb.NewContext()

	device, err := uc.findAndOpenDevice(gousb.ID(uc.config.VendorID), gousb.ID(uc.config.ProductID))
	if err != nil {
		uc.ctx.Close()
		uc.ctx = nil
		return err
	}

	// usblp grabs receipt printers on Linux
	if err := device.SetAutoDetach(true); err != nil {
		uc.logger.Warn("Failed to enable kernel driver auto-detach", zap.Error(err))
	}

	intf, done, err := uc.claimInterface(device)
	if err != nil {
		device.Close()
		uc.ctx.Close()
		uc.ctx = nil
		return err
	}

	outNum, inNum := pickEndpoints(intf.Setting, uc.config.Endpoint)

	outEndpt, err := intf.OutEndpoint(outNum)
	if err != nil {
		done()
		device.Close()
		uc.ctx.Close()
		uc.ctx = nil
		return fmt.Errorf("failed to get out endpoint: %w", classifyUSBError(err))
	}

	var inEndpt *gousb.InEndpoint
	if inNum > 0 {
		inEndpt, err = intf.InEndpoint(inNum)
		if err != nil {
			// Paper status is unavailable without it, printing still works
			uc.logger.Warn("No in endpoint found", zap.Error(err))
			inEndpt = nil
		}
	}

	uc.device = device
	uc.intf = intf
	uc.done = done
	uc.outEndpt = outEndpt
	uc.inEndpt = inEndpt
	uc.isOpen = true
	uc.stats.IsConnected = true
	uc.stats.LastActivity = time.Now()

	uc.logger.Info("USB connection opened successfully",
		zap.Int("out_endpoint", outNum),
		zap.Int("in_endpoint", inNum),
	)
	return nil
}

// Close closes the USB connection
func (uc *USBConnection) Close() error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen {
		return nil
	}

	if uc.done != nil {
		uc.done()
		uc.done = nil
	}
	uc.intf = nil

	if uc.device != nil {
		uc.device.Close()
		uc.device = nil
	}

	if uc.ctx != nil {
		uc.ctx.Close()
		uc.ctx = nil
	}

	uc.outEndpt = nil
	uc.inEndpt = nil
	uc.isOpen = false
	uc.stats.IsConnected = false

	uc.logger.Info("USB connection closed successfully")
	return nil
}

// IsOpen returns whether the connection is open
func (uc *USBConnection) IsOpen() bool {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return uc.isOpen && uc.device != nil && uc.outEndpt != nil
}

// Write writes data to the printer. The write is bounded by the context
// deadline, or WriteTimeout when the context has none.
func (uc *USBConnection) Write(ctx context.Context, data []byte) error {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen || uc.outEndpt == nil {
		return ErrNotOpen
	}

	if _, ok := ctx.Deadline(); !ok && uc.config.WriteTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, uc.config.WriteTimeout)
		defer cancel()
	}

	startTime := time.Now()
	n, err := uc.outEndpt.WriteContext(ctx, data)
	if err != nil {
		uc.stats.ErrorCount++
		uc.logger.Error("USB write failed", zap.Error(err))
		return fmt.Errorf("failed to write to USB device: %w", classifyUSBError(err))
	}

	if n != len(data) {
		uc.stats.ErrorCount++
		return fmt.Errorf("incomplete write: wrote %d of %d bytes", n, len(data))
	}

	uc.stats.recordWrite(n, time.Since(startTime))

	uc.logger.Debug("USB write completed", zap.Int("bytes", n))
	return nil
}

// Read reads data from the printer until the context expires
func (uc *USBConnection) Read(ctx context.Context, maxBytes int) ([]byte, error) {
	uc.mutex.Lock()
	defer uc.mutex.Unlock()

	if !uc.isOpen || uc.inEndpt == nil {
		return nil, ErrNotOpen
	}

	size := maxBytes
	if mps := uc.inEndpt.Desc.MaxPacketSize; mps > size {
		size = mps
	}
	buffer := make([]byte, size)

	n, err := uc.inEndpt.ReadContext(ctx, buffer)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		uc.stats.ErrorCount++
		return nil, fmt.Errorf("failed to read from USB device: %w", classifyUSBError(err))
	}

	if n > maxBytes {
		n = maxBytes
	}
	uc.stats.recordRead(n)

	data := make([]byte, n)
	copy(data, buffer[:n])
	return data, nil
}

// GetProtocolType returns the protocol type
func (uc *USBConnection) GetProtocolType() model.ConnectionType {
	return model.ConnectionTypeUSB
}

// GetStats returns a copy of the link statistics
func (uc *USBConnection) GetStats() ProtocolStats {
	uc.mutex.RLock()
	defer uc.mutex.RUnlock()
	return *uc.stats
}

// findAndOpenDevice finds and opens the USB device
func (uc *USBConnection) findAndOpenDevice(vendorID, productID gousb.ID) (*gousb.Device, error) {
	devices, err := uc.ctx.OpenDevices(func(desc *gousb.DeviceDesc) bool {
		return desc.Vendor == vendorID && desc.Product == productID
	})

	if err != nil {
		for _, d := range devices {
			d.Close()
		}
		return nil, fmt.Errorf("failed to open USB device %s:%s: %w", vendorID, productID, classifyUSBError(err))
	}

	if len(devices) == 0 {
		return nil, fmt.Errorf("USB device %s:%s: %w", vendorID, productID, ErrNotFound)
	}

	if len(devices) > 1 {
		for i := 1; i < len(devices); i++ {
			devices[i].Close()
		}
		uc.logger.Warn("Multiple matching USB devices found, using first one")
	}

	return devices[0], nil
}

// claimInterface claims the configured interface of the active
// configuration. done releases both.
func (uc *USBConnection) claimInterface(device *gousb.Device) (*gousb.Interface, func(), error) {
	cfgNum, err := device.ActiveConfigNum()
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read active configuration: %w", classifyUSBError(err))
	}

	usbCfg, err := device.Config(cfgNum)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to claim configuration %d: %w", cfgNum, classifyUSBError(err))
	}

	intf, err := usbCfg.Interface(uc.config.Interface, 0)
	if err != nil {
		usbCfg.Close()
		return nil, nil, fmt.Errorf("failed to claim interface %d: %w", uc.config.Interface, classifyUSBError(err))
	}

	done := func() {
		intf.Close()
		if err := usbCfg.Close(); err != nil {
			uc.logger.Warn("Failed to release USB configuration", zap.Error(err))
		}
	}
	return intf, done, nil
}

// pickEndpoints returns the lowest numbered bulk OUT and IN endpoints of
// an interface setting. A non-zero configured number wins for OUT; with
// no bulk OUT endpoint at all, OUT falls back to 1.
func pickEndpoints(setting gousb.InterfaceSetting, configured int) (out, in int) {
	for _, ep := range setting.Endpoints {
		if ep.TransferType != gousb.TransferTypeBulk {
			continue
		}
		switch ep.Direction {
		case gousb.EndpointDirectionOut:
			if out == 0 || ep.Number < out {
				out = ep.Number
			}
		case gousb.EndpointDirectionIn:
			if in == 0 || ep.Number < in {
				in = ep.Number
			}
		}
	}
	if configured != 0 {
		out = configured
	}
	if out == 0 {
		out = 1
	}
	return out, in
}

// classifyUSBError maps libusb error codes onto the protocol error kinds
func classifyUSBError(err error) error {
	var usbErr gousb.Error
	if errors.As(err, &usbErr) {
		switch usbErr {
		case gousb.ErrorAccess:
			return fmt.Errorf("%w: %v", ErrPermission, err)
		case gousb.ErrorNoDevice, gousb.ErrorNotFound:
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		}
	}
	return err
}
