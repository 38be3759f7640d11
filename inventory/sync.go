package inventory

// MidSource 提供交易对中间价。
type MidSource interface {
	Mid(symbol string) float64
}

// Valued 按中间价估值后的仓位。
type Valued struct {
	Position
	Mid        float64
	Unrealized float64
}

// Total 已实现加未实现盈亏。
func (v Valued) Total() float64 { return v.Realized + v.Unrealized }

// Sync 外部可定期调用以获取按市价估值的仓位快照。
type Sync struct {
	Portfolio *Portfolio
	Mids      MidSource
}

func (s *Sync) Snapshot() []Valued {
	if s.Portfolio == nil {
		return nil
	}
	positions := s.Portfolio.Snapshot()
	res := make([]Valued, 0, len(positions))
	for _, pos := range positions {
		v := Valued{Position: pos}
		if s.Mids != nil {
			v.Mid = s.Mids.Mid(pos.Symbol)
		}
		if v.Mid > 0 {
			_, v.Unrealized = s.Portfolio.Valuation(pos.Symbol, v.Mid)
		}
		res = append(res, v)
	}
	return res
}
