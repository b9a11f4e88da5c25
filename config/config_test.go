package config

import (
	"testing"

	"github.com/go-test/deep"
)

func TestRoundTrip(t *testing.T) {
	cases := []Config{
		{SocketType: TCP, CBRKbS: 10000, RTTMS: 10, MSSBytes: 1460, BurstSize: 0},
		{SocketType: UDP, CBRKbS: 600, RTTMS: 200, MSSBytes: 1460, BurstSize: 5},
	}
	for _, c := range cases {
		buf := c.Encode()
		got, err := Decode(buf[:])
		if err != nil {
			t.Fatalf("Decode error: %v", err)
		}
		if diff := deep.Equal(c, got); diff != nil {
			t.Errorf("round trip mismatch: %v", diff)
		}
	}
}

func TestValidate(t *testing.T) {
	valid := Config{SocketType: TCP, CBRKbS: 1000, RTTMS: 10, MSSBytes: 1460}
	if err := valid.Validate(); err != nil {
		t.Errorf("valid config failed Validate: %v", err)
	}

	cases := []Config{
		{SocketType: TCP, CBRKbS: 0, RTTMS: 10, MSSBytes: 1460},
		{SocketType: TCP, CBRKbS: 1000, RTTMS: 10, MSSBytes: 0},
		{SocketType: SocketType(99), CBRKbS: 1000, RTTMS: 10, MSSBytes: 1460},
	}
	for _, c := range cases {
		if err := c.Validate(); err != ErrInvalid {
			t.Errorf("Validate(%+v) = %v, want ErrInvalid", c, err)
		}
	}
}

func TestDecodeShort(t *testing.T) {
	if _, err := Decode(make([]byte, 4)); err == nil {
		t.Error("Decode with short buffer: want error")
	}
}

func TestSocketTypeString(t *testing.T) {
	if TCP.String() != "tcp" || UDP.String() != "udp" {
		t.Errorf("unexpected SocketType strings: %q %q", TCP.String(), UDP.String())
	}
}
