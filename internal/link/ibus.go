// Copyright (c) 2026 Daniel Alarcon Rubio / Relabs Tech
// SPDX-License-Identifier: MIT
// See LICENSE file for full license text

// Package link carries the channel vector to the receiver side: an iBus
// style serial frame and JSON over MQTT.
package link

import (
	"encoding/binary"

	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
)

const (
	// FrameSize is length (1) + command (1) + channels (2 each) + checksum (2).
	FrameSize = 2 + channels.Count*2 + 2

	frameCommand = 0x40
)

// EncodeFrame writes v into dst as a little-endian iBus servo frame. The
// first byte is the frame length.
func EncodeFrame(dst *[FrameSize]byte, v channels.Vector) {
	dst[0] = FrameSize
	dst[1] = frameCommand
	for i, c := range v {
		binary.LittleEndian.PutUint16(dst[2+2*i:], c)
	}
	binary.LittleEndian.PutUint16(dst[FrameSize-2:], checksum(dst[:FrameSize-2]))
}

// checksum is 0xFFFF minus the byte sum.
func checksum(b []byte) uint16 {
	sum := uint16(0xFFFF)
	for _, c := range b {
		sum -= uint16(c)
	}
	return sum
}
