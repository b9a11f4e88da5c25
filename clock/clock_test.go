package clock

import "testing"

func TestNowNSNonDecreasing(t *testing.T) {
	prev := NowNS()
	for i := 0; i < 1000; i++ {
		next := NowNS()
		if next < prev {
			t.Fatalf("NowNS went backwards: %d then %d", prev, next)
		}
		prev = next
	}
}

func TestSleepNonPositiveReturnsImmediately(t *testing.T) {
	// Should not block; if it does, the test will time out.
	Sleep(0)
	Sleep(-1)
}

func TestSleepBlocksAtLeastDuration(t *testing.T) {
	start := NowNS()
	Sleep(1_000_000) // 1ms
	elapsed := NowNS() - start
	if elapsed < 1_000_000 {
		t.Errorf("Sleep(1ms) elapsed only %dns", elapsed)
	}
}
