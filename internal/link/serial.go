// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

package link

import (
	"fmt"
	"io"
	"log"

	serial "github.com/jacobsa/go-serial/serial"

	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
	"github.com/relabs-tech/hxrc_transmitter/internal/config"
)

// Serial writes one frame per produced vector to a UART.
type Serial struct {
	port  io.WriteCloser
	frame [FrameSize]byte
}

// OpenSerial opens the configured port, 8N1.
func OpenSerial(cfg config.LinkConfig) (*Serial, error) {
	opts := serial.OpenOptions{
		PortName:              cfg.SerialPort,
		BaudRate:              uint(cfg.BaudRate),
		DataBits:              8,
		StopBits:              1,
		MinimumReadSize:       1,
		ParityMode:            serial.PARITY_NONE,
		InterCharacterTimeout: 0,
	}
	port, err := serial.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open serial link %s: %w", cfg.SerialPort, err)
	}
	log.Printf("link: serial port opened on %s at %d baud", opts.PortName, opts.BaudRate)
	return NewSerial(port), nil
}

// NewSerial wraps an already open port.
func NewSerial(port io.WriteCloser) *Serial {
	return &Serial{port: port}
}

// Send writes v as a single frame.
func (s *Serial) Send(v channels.Vector) error {
	EncodeFrame(&s.frame, v)
	if _, err := s.port.Write(s.frame[:]); err != nil {
		return fmt.Errorf("serial link write: %w", err)
	}
	return nil
}

func (s *Serial) Close() error {
	return s.port.Close()
}
