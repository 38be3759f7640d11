package impact

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"pgregory.net/rapid"
)

// symmetricHistory 1..n 的买方冲击与 -1..-n 的卖方冲击交替出现
func symmetricHistory(n int) []float64 {
	h := make([]float64, 0, 2*n)
	for i := 1; i <= n; i++ {
		h = append(h, float64(i), -float64(i))
	}
	return h
}

func TestQuantileIndex(t *testing.T) {
	cases := []struct {
		n    int
		q    float64
		want int
	}{
		{50, 0.1, 4},
		{5, 0.1, 0},
		{1, 0.5, 0},
		{10, 0.95, 8},
		{100, 0.99, 98},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, QuantileIndex(tc.n, tc.q), "n=%d q=%v", tc.n, tc.q)
	}
}

func TestSkewSymmetric(t *testing.T) {
	buy, sell := Skew(symmetricHistory(50), 50, 0.1)
	assert.Equal(t, 5.0, buy)
	assert.Equal(t, 5.0, sell)
}

func TestSkewInsufficientHistory(t *testing.T) {
	h := symmetricHistory(50)[:49]
	buy, sell := Skew(h, 50, 0.1)
	assert.Zero(t, buy)
	assert.Zero(t, sell)
}

func TestSkewOneSided(t *testing.T) {
	h := []float64{0.1, 0.2, 0.3, 0.4}
	buy, sell, reason := skew(h, 4, 0.5)
	assert.Zero(t, buy)
	assert.Zero(t, sell)
	assert.Equal(t, SkipOneSidedHistory, reason)
}

func TestSkewZeroCountsAsSell(t *testing.T) {
	buy, sell := Skew([]float64{0.3, 0}, 2, 0.5)
	assert.Equal(t, 0.3, buy)
	assert.Equal(t, 0.0, sell)
}

func TestSkewUsesAbsoluteSellImpact(t *testing.T) {
	buy, sell := Skew([]float64{0.2, -0.7, 0.4, -0.1}, 4, 0.99)
	assert.Equal(t, 0.2, buy)
	assert.Equal(t, 0.1, sell)
}

func TestSkewMonotoneInQuantile(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		h := rapid.SliceOfN(rapid.Float64Range(-5, 5), 2, 200).Draw(t, "history")
		q1 := rapid.Float64Range(0.01, 0.99).Draw(t, "q1")
		q2 := rapid.Float64Range(q1, 0.99).Draw(t, "q2")

		b1, s1 := Skew(h, len(h), q1)
		b2, s2 := Skew(h, len(h), q2)
		if b1 > b2 || s1 > s2 {
			t.Fatalf("skew not monotone: q1=%v (%v,%v) q2=%v (%v,%v)", q1, b1, s1, q2, b2, s2)
		}
		if b1 < 0 || s1 < 0 {
			t.Fatalf("negative skew (%v,%v)", b1, s1)
		}
	})
}
