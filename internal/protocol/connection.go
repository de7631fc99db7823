// internal/protocol/connection.go
package protocol

import "time"

// SerialConfig represents serial connection configuration
type SerialConfig struct {
	Port         string        `json:"port"`
	BaudRate     int           `json:"baud_rate"`
	DataBits     int           `json:"data_bits"`
	StopBits     int           `json:"stop_bits"`
	Parity       string        `json:"parity"`
	ReadTimeout  time.Duration `json:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout"`
}

// USBConfig represents USB connection configuration
type USBConfig struct {
	VendorID     uint16        `json:"vendor_id"`
	ProductID    uint16        `json:"product_id"`
	Interface    int           `json:"interface"`
	Endpoint     int           `json:"endpoint"`
	WriteTimeout time.Duration `json:"write_timeout"`
}
