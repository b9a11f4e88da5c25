package model

import "testing"

func TestTargetPipeSize(t *testing.T) {
	cases := []struct {
		rate, rtt, mss uint32
		want           uint64
	}{
		{10000, 10, 1460, 8}, // (10000/8)*10/1460 = 12500/1460 = 8
	}
	// 10000 kb/s -> 1,250,000 bytes/s -> 1,250,000 bytes/sec * 10ms/1000 = 12500 bytes in 10ms
	// 12500 / 1460 = 8 (integer division)
	cases[0].want = 8

	for _, c := range cases {
		got, err := TargetPipeSize(c.rate, c.rtt, c.mss)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if got != c.want {
			t.Errorf("TargetPipeSize(%d,%d,%d) = %d, want %d", c.rate, c.rtt, c.mss, got, c.want)
		}
	}
}

func TestTargetPipeSizeClampsToMinimum(t *testing.T) {
	got, err := TargetPipeSize(1, 1, 1460)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != MinTargetPipeSize {
		t.Errorf("TargetPipeSize with tiny inputs = %d, want clamp to %d", got, MinTargetPipeSize)
	}
}

func TestTargetRunLength(t *testing.T) {
	pipe, err := TargetPipeSize(10000, 10, 1460)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := 3 * pipe * pipe
	got, err := TargetRunLength(10000, 10, 1460)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got != want {
		t.Errorf("TargetRunLength = %d, want %d", got, want)
	}
}

func TestZeroMSS(t *testing.T) {
	if _, err := TargetPipeSize(1000, 10, 0); err != ErrZeroMSS {
		t.Errorf("TargetPipeSize with mss=0: err = %v, want %v", err, ErrZeroMSS)
	}
	if _, err := TargetRunLength(1000, 10, 0); err != ErrZeroMSS {
		t.Errorf("TargetRunLength with mss=0: err = %v, want %v", err, ErrZeroMSS)
	}
}
