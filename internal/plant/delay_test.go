package plant

import "testing"

func TestSamples(t *testing.T) {
	cases := []struct {
		delay, ts float64
		want      int
	}{
		{10.0, 0.1, 100},
		{1.0, 0.1, 10},
		{0.05, 0.1, 1}, // rounds to nearest
		{0.04, 0.1, 0},
		{0.0, 0.1, 0},
		{-1.0, 0.1, 0},
	}
	for _, c := range cases {
		if got := Samples(c.delay, c.ts); got != c.want {
			t.Errorf("Samples(%g, %g) = %d, want %d", c.delay, c.ts, got, c.want)
		}
	}
}

func TestDelayLineReturnsNeutralUntilFull(t *testing.T) {
	const n = 5
	d := NewDelayLine(n)

	for k := 1; k <= n; k++ {
		if got := d.Shift(float64(k)); got != 0.0 {
			t.Errorf("shift %d: got %g, want neutral 0.0", k, got)
		}
	}
}

func TestDelayLineShiftsByExactlyN(t *testing.T) {
	const n = 7
	d := NewDelayLine(n)

	for k := 1; k <= 50; k++ {
		got := d.Shift(float64(k))
		want := 0.0
		if k > n {
			want = float64(k - n)
		}
		if got != want {
			t.Errorf("shift %d: got %g, want %g", k, got, want)
		}
	}
}

func TestDelayLineZeroCapacityIsPassThrough(t *testing.T) {
	d := NewDelayLine(0)
	for _, v := range []float64{3.5, -1.0, 0.0, 100.0} {
		if got := d.Shift(v); got != v {
			t.Errorf("Shift(%g) = %g, want pass-through", v, got)
		}
	}
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
}

func TestDelayLineNegativeCapacity(t *testing.T) {
	d := NewDelayLine(-3)
	if d.Len() != 0 {
		t.Errorf("Len() = %d, want 0", d.Len())
	}
}
