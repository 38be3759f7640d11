package order

import "time"

// Side 买卖方向。
type Side string

const (
	SideBuy  Side = "BUY"
	SideSell Side = "SELL"
)

// Opposite 返回反方向。
func (s Side) Opposite() Side {
	if s == SideBuy {
		return SideSell
	}
	return SideBuy
}

// Sign 买为 +1，卖为 -1。
func (s Side) Sign() float64 {
	if s == SideBuy {
		return 1
	}
	return -1
}

// Type 订单类型。
type Type string

const (
	TypeLimit  Type = "LIMIT"
	TypeMarket Type = "MARKET"
)

// TimeInForce 有效期。
type TimeInForce string

const (
	TIFDay TimeInForce = "DAY"
	TIFGTC TimeInForce = "GTC"
	TIFIOC TimeInForce = "IOC"
)

// Status represents order lifecycle.
type Status string

const (
	StatusNew       Status = "NEW"
	StatusAck       Status = "ACK"
	StatusPartial   Status = "PARTIAL"
	StatusFilled    Status = "FILLED"
	StatusCanceling Status = "CANCELING"
	StatusCanceled  Status = "CANCELED"
	StatusRejected  Status = "REJECTED"
)

// Order holds a simplified order view.
type Order struct {
	ID          string
	ClientID    string
	Symbol      string
	Side        Side
	Type        Type
	TimeInForce TimeInForce
	Price       float64
	Quantity    float64
	Filled      float64
	AvgPrice    float64
	Status      Status
	LastError   string
	CreatedAt   time.Time
}

// Remaining 未成交数量。
func (o Order) Remaining() float64 {
	if r := o.Quantity - o.Filled; r > 0 {
		return r
	}
	return 0
}

// UpdateKind 执行回报类型。
type UpdateKind string

const (
	UpdateOpen        UpdateKind = "OPEN"
	UpdateFill        UpdateKind = "FILL"
	UpdatePartialFill UpdateKind = "PARTIAL_FILL"
	UpdateCancel      UpdateKind = "CANCEL"
	UpdateReject      UpdateKind = "REJECT"
)

// Status 回报对应的订单状态。
func (k UpdateKind) Status() Status {
	switch k {
	case UpdateOpen:
		return StatusAck
	case UpdateFill:
		return StatusFilled
	case UpdatePartialFill:
		return StatusPartial
	case UpdateCancel:
		return StatusCanceled
	case UpdateReject:
		return StatusRejected
	}
	return ""
}

// IsFill 是否带成交。
func (k UpdateKind) IsFill() bool {
	return k == UpdateFill || k == UpdatePartialFill
}

// Update 一条执行回报；FillQty/FillPrice 仅在成交类回报中有意义。
type Update struct {
	OrderID   string
	Symbol    string
	Side      Side
	Kind      UpdateKind
	FillQty   float64
	FillPrice float64
	Reason    string
	Ts        time.Time
}
