package order

import (
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
)

// Gateway 提供基础下单/撤单抽象；成交与撤单结果以 Update 异步回报。
type Gateway interface {
	Place(o Order) (string, error)
	Cancel(orderID string) error
}

// Manager 维护订单状态并通过 Gateway 下发。
type Manager struct {
	gw          Gateway
	sm          *StateMachine
	mu          sync.RWMutex
	orders      map[string]*Order
	constraints map[string]SymbolConstraints
}

func NewManager(gw Gateway) *Manager {
	return &Manager{
		gw:     gw,
		sm:     NewStateMachine(),
		orders: make(map[string]*Order),
	}
}

var ErrUnknownOrder = errors.New("unknown order")

// Submit 同步调用 Gateway 下单并登记状态。
func (m *Manager) Submit(o Order) (*Order, error) {
	if o.Type == "" {
		o.Type = TypeLimit
	}
	if o.TimeInForce == "" {
		o.TimeInForce = TIFDay
	}
	if o.Quantity <= 0 {
		return nil, fmt.Errorf("invalid quantity %.8f", o.Quantity)
	}
	if err := m.validateConstraint(o); err != nil {
		return nil, err
	}
	if o.ID == "" {
		o.ID = generateID(o.ClientID)
	}
	o.Status = StatusNew
	o.CreatedAt = time.Now().UTC()

	m.mu.Lock()
	stored := o
	m.orders[o.ID] = &stored
	m.mu.Unlock()

	if m.gw != nil {
		if _, err := m.gw.Place(o); err != nil {
			m.setStatus(o.ID, StatusRejected, err.Error())
			return nil, err
		}
		m.setStatus(o.ID, StatusAck, "")
	}
	out, _ := m.Get(o.ID)
	return &out, nil
}

// Cancel 调用 Gateway 撤单；有网关时进入 CANCELING，等待撤单回报确认。
func (m *Manager) Cancel(id string) error {
	m.mu.RLock()
	o, ok := m.orders[id]
	var st Status
	if ok {
		st = o.Status
	}
	m.mu.RUnlock()
	if !ok {
		return ErrUnknownOrder
	}
	if st == StatusCanceling {
		return nil
	}
	if !m.sm.CanCancel(st) {
		return fmt.Errorf("%w: cancel %s in %s", ErrIllegalTransition, id, st)
	}
	if m.gw == nil {
		return m.setStatus(id, StatusCanceled, "")
	}
	if err := m.gw.Cancel(id); err != nil {
		return err
	}
	return m.setStatus(id, StatusCanceling, "")
}

// Apply 按执行回报推进订单状态并累计成交；非法转换返回 ErrIllegalTransition 且不修改订单。
func (m *Manager) Apply(u Update) (Order, error) {
	to := u.Kind.Status()
	if to == "" {
		return Order{}, fmt.Errorf("unknown update kind %q", u.Kind)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[u.OrderID]
	if !ok {
		return Order{}, ErrUnknownOrder
	}
	// 迟到的 OPEN 回报不回退状态
	if u.Kind == UpdateOpen && o.Status != StatusNew {
		return *o, nil
	}
	if err := m.sm.ValidateTransition(o.Status, to); err != nil {
		return *o, err
	}
	if u.Kind.IsFill() && u.FillQty > 0 {
		total := o.Filled + u.FillQty
		o.AvgPrice = (o.AvgPrice*o.Filled + u.FillPrice*u.FillQty) / total
		o.Filled = total
	}
	if u.Kind == UpdateReject {
		o.LastError = u.Reason
	}
	o.Status = to
	return *o, nil
}

// Status 返回订单当前状态，如不存在则第二个返回值为 false。
func (m *Manager) Status(id string) (Status, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return "", false
	}
	return o.Status, true
}

// Get 返回订单副本。
func (m *Manager) Get(id string) (Order, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.orders[id]
	if !ok {
		return Order{}, false
	}
	return *o, true
}

// Active 返回交易对仍可能成交的订单，按创建时间排序。
func (m *Manager) Active(symbol string) []Order {
	m.mu.RLock()
	res := make([]Order, 0)
	for _, o := range m.orders {
		if o.Symbol == symbol && m.sm.IsActiveState(o.Status) {
			res = append(res, *o)
		}
	}
	m.mu.RUnlock()
	sort.Slice(res, func(i, j int) bool {
		if res[i].CreatedAt.Equal(res[j].CreatedAt) {
			return res[i].ID < res[j].ID
		}
		return res[i].CreatedAt.Before(res[j].CreatedAt)
	})
	return res
}

// Prune 删除终态订单，返回删除数量。
func (m *Manager) Prune() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, o := range m.orders {
		if m.sm.IsFinalState(o.Status) {
			delete(m.orders, id)
			n++
		}
	}
	return n
}

func (m *Manager) setStatus(id string, st Status, reason string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	o, ok := m.orders[id]
	if !ok {
		return ErrUnknownOrder
	}
	// 网关同步回报可能已先行推进状态
	if st == StatusAck && o.Status != StatusNew {
		return nil
	}
	o.Status = st
	if reason != "" {
		o.LastError = reason
	}
	return nil
}

// generateID 以调用方前缀加 UUID 生成订单 ID。
func generateID(prefix string) string {
	if prefix == "" {
		prefix = "ord"
	}
	return prefix + "-" + uuid.NewString()
}

// SetConstraints 设置各交易对的精度/名义限制。
func (m *Manager) SetConstraints(c map[string]SymbolConstraints) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.constraints = make(map[string]SymbolConstraints, len(c))
	for sym, sc := range c {
		m.constraints[sym] = sc
	}
}

func (m *Manager) validateConstraint(o Order) error {
	m.mu.RLock()
	c, ok := m.constraints[o.Symbol]
	m.mu.RUnlock()
	if !ok {
		return nil
	}
	if o.Type == TypeMarket {
		return c.ValidateQty(o.Quantity)
	}
	return c.Validate(o.Price, o.Quantity)
}
