package market

// BookSide 盘口方向。
type BookSide int

const (
	BookSideBid BookSide = iota
	BookSideAsk
)

func (s BookSide) String() string {
	if s == BookSideBid {
		return "bid"
	}
	return "ask"
}

// Level 单个价格档位。
type Level struct {
	Price float64
	Size  float64
}

// DepthSum 累加某一侧前 n 档挂单量；档位不足时只累加已有档位。
func (b TopOfBook) DepthSum(side BookSide, n int) float64 {
	levels := b.Levels(side)
	if n > len(levels) {
		n = len(levels)
	}
	var total float64
	for i := 0; i < n; i++ {
		total += levels[i].Size
	}
	return total
}
