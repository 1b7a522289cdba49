// Package adc reads microphone amplitude from a Linux Industrial I/O (IIO)
// ADC channel. The fake implementation allows testing without hardware.
package adc

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"strconv"
)

// DefaultDevice and DefaultChannel select iio:device0/in_voltage0_raw.
const (
	DefaultDevice  = 0
	DefaultChannel = 0
)

// ChannelPath returns the sysfs path of a raw IIO voltage channel.
func ChannelPath(device, channel int) string {
	return fmt.Sprintf("/sys/bus/iio/devices/iio:device%d/in_voltage%d_raw", device, channel)
}

// IIOSampler reads one raw conversion per call from an IIO channel file.
type IIOSampler struct {
	f    *os.File
	path string
	buf  [16]byte
}

// NewIIOSampler opens the given IIO device channel.
func NewIIOSampler(device, channel int) (*IIOSampler, error) {
	return Open(ChannelPath(device, channel))
}

// Open opens a raw channel file by path.
func Open(path string) (*IIOSampler, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open adc channel: %w", err)
	}
	return &IIOSampler{f: f, path: path}, nil
}

// Read triggers a conversion and returns the raw value.
func (s *IIOSampler) Read() (uint16, error) {
	n, err := s.f.ReadAt(s.buf[:], 0)
	if err != nil && err != io.EOF {
		return 0, fmt.Errorf("read %s: %w", s.path, err)
	}
	v, err := strconv.ParseUint(string(bytes.TrimSpace(s.buf[:n])), 10, 16)
	if err != nil {
		return 0, fmt.Errorf("parse %s: %w", s.path, err)
	}
	return uint16(v), nil
}

// Close releases the channel file.
func (s *IIOSampler) Close() error {
	return s.f.Close()
}
