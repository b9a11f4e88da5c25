package result

import "testing"

func TestString(t *testing.T) {
	cases := []struct {
		r    Result
		want string
	}{
		{Fail, "FAIL"},
		{Pass, "PASS"},
		{Inconclusive, "INCONCLUSIVE"},
		{Error, "ERROR"},
		{Result(99), "UNKNOWN"},
	}
	for _, c := range cases {
		if got := c.r.String(); got != c.want {
			t.Errorf("Result(%d).String() = %q, want %q", c.r, got, c.want)
		}
	}
}
