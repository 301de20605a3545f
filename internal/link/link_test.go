package link

import (
	"bytes"
	"encoding/binary"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/relabs-tech/hxrc_transmitter/internal/channels"
)

type bufferPort struct {
	bytes.Buffer
	closed bool
}

func (b *bufferPort) Close() error {
	b.closed = true
	return nil
}

func sampleVector() channels.Vector {
	v := channels.NeutralVector()
	v[0] = 1500
	v[3] = 2000
	v[7] = 1234
	v.SetProfile(2)
	return v
}

func TestFrameLayout(t *testing.T) {
	var f [FrameSize]byte
	EncodeFrame(&f, sampleVector())

	if f[0] != FrameSize || f[1] != 0x40 {
		t.Fatalf("header = % x", f[:2])
	}
	// channel 0 = 1500 = 0x05dc, little endian
	if f[2] != 0xdc || f[3] != 0x05 {
		t.Fatalf("channel 0 = % x", f[2:4])
	}
	var sum uint16
	for _, b := range f[:FrameSize-2] {
		sum += uint16(b)
	}
	got := uint16(f[FrameSize-2]) | uint16(f[FrameSize-1])<<8
	if got != 0xFFFF-sum {
		t.Fatalf("checksum = %#x, want %#x", got, 0xFFFF-sum)
	}
}

var (
	errFrameHeader   = errors.New("bad frame header")
	errFrameChecksum = errors.New("bad frame checksum")
)

// decodeFrame parses a frame the way a receiver does.
func decodeFrame(src []byte) (channels.Vector, error) {
	var v channels.Vector
	if len(src) != FrameSize || src[0] != FrameSize || src[1] != frameCommand {
		return v, errFrameHeader
	}
	if binary.LittleEndian.Uint16(src[FrameSize-2:]) != checksum(src[:FrameSize-2]) {
		return v, errFrameChecksum
	}
	for i := range v {
		v[i] = binary.LittleEndian.Uint16(src[2+2*i:])
	}
	return v, nil
}

func TestFrameRoundTrip(t *testing.T) {
	var f [FrameSize]byte
	v := sampleVector()
	EncodeFrame(&f, v)
	got, err := decodeFrame(f[:])
	if err != nil {
		t.Fatal(err)
	}
	if got != v || got.Profile() != 2 {
		t.Fatalf("decoded %v, want %v", got, v)
	}
}

func TestFrameDecodeErrors(t *testing.T) {
	var f [FrameSize]byte
	EncodeFrame(&f, sampleVector())

	bad := f
	bad[1] = 0x41
	if _, err := decodeFrame(bad[:]); !errors.Is(err, errFrameHeader) {
		t.Fatalf("header error = %v", err)
	}
	bad = f
	bad[10]++
	if _, err := decodeFrame(bad[:]); !errors.Is(err, errFrameChecksum) {
		t.Fatalf("checksum error = %v", err)
	}
	if _, err := decodeFrame(f[:10]); !errors.Is(err, errFrameHeader) {
		t.Fatalf("short frame error = %v", err)
	}
}

func TestSerialSend(t *testing.T) {
	port := &bufferPort{}
	s := NewSerial(port)
	for i := 0; i < 3; i++ {
		if err := s.Send(sampleVector()); err != nil {
			t.Fatal(err)
		}
	}
	if port.Len() != 3*FrameSize {
		t.Fatalf("wrote %d bytes", port.Len())
	}
	if _, err := decodeFrame(port.Bytes()[FrameSize : 2*FrameSize]); err != nil {
		t.Fatal(err)
	}
	s.Close()
	if !port.closed {
		t.Fatal("close must reach the port")
	}
}

func TestChannelsPayload(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	b, err := channelsPayload(sampleVector(), now)
	if err != nil {
		t.Fatal(err)
	}
	var msg ChannelsMessage
	if err := json.Unmarshal(b, &msg); err != nil {
		t.Fatal(err)
	}
	if msg.Profile != 2 || len(msg.Channels) != channels.Count || msg.Channels[7] != 1234 || msg.Time != 1700000000123 {
		t.Fatalf("payload = %s", b)
	}
}

func TestParseProfileIndex(t *testing.T) {
	if idx, err := parseProfileIndex([]byte(" 3\n")); err != nil || idx != 3 {
		t.Fatalf("got %d, %v", idx, err)
	}
	for _, bad := range []string{"", "-1", "two"} {
		if _, err := parseProfileIndex([]byte(bad)); err == nil {
			t.Errorf("%q must be rejected", bad)
		}
	}
}
