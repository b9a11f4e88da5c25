package packet

import (
	"testing"

	"github.com/go-test/deep"
)

func TestRoundTrip(t *testing.T) {
	cases := []TrafficData{
		{SeqNo: 0, Nonce: 0, Timestamp: 0},
		{SeqNo: 1, Nonce: 42, Timestamp: NSPerSec + 123},
		{SeqNo: 0xFFFFFFFF, Nonce: 0xABCDEF01, Timestamp: 999_999_999},
	}
	for _, c := range cases {
		encoded := c.Encode()
		decoded, err := Decode(encoded[:])
		if err != nil {
			t.Fatalf("Decode(%+v) error: %v", c, err)
		}
		if diff := deep.Equal(c, decoded); diff != nil {
			t.Errorf("round trip mismatch for %+v: %v", c, diff)
		}
	}
}

func TestDecodeRejectsBadNanos(t *testing.T) {
	d := TrafficData{SeqNo: 1, Nonce: 2, Timestamp: NSPerSec - 1}
	buf := d.Encode()
	// Corrupt nsec_remainder to be >= 1e9.
	buf[12] = 0xFF
	buf[13] = 0xFF
	buf[14] = 0xFF
	buf[15] = 0xFF
	if _, err := Decode(buf[:]); err != ErrBadNanos {
		t.Errorf("Decode with bad nanos: err = %v, want %v", err, ErrBadNanos)
	}
}

func TestDecodeShortBuffer(t *testing.T) {
	if _, err := Decode(make([]byte, 10)); err == nil {
		t.Error("Decode with short buffer: want error, got nil")
	}
}

func TestBuildChunk(t *testing.T) {
	chunk, err := BuildChunk(7, 99, 64)
	if err != nil {
		t.Fatalf("BuildChunk error: %v", err)
	}
	if len(chunk) != 64 {
		t.Fatalf("BuildChunk len = %d, want 64", len(chunk))
	}
	seqNo, nonce, err := ParseChunkHeader(chunk)
	if err != nil {
		t.Fatalf("ParseChunkHeader error: %v", err)
	}
	if seqNo != 7 || nonce != 99 {
		t.Errorf("ParseChunkHeader = (%d, %d), want (7, 99)", seqNo, nonce)
	}
}

func TestBuildChunkTooSmall(t *testing.T) {
	if _, err := BuildChunk(1, 2, 4); err == nil {
		t.Error("BuildChunk with size<8: want error, got nil")
	}
}
