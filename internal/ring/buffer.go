// Package ring 提供固定容量的环形缓冲区。
//
// Buffer 不加锁：单个实例只允许一个写者，调用方负责串行化。
package ring

// Number 可求和的元素类型。
type Number interface {
	~int | ~int32 | ~int64 | ~float64
}

// Buffer 固定容量 FIFO，满后写入会淘汰最旧元素。
type Buffer[T any] struct {
	data []T
	head int // 下一次写入位置
	size int
}

// New 创建容量为 capacity 的缓冲区；capacity < 1 时按 1 处理。
func New[T any](capacity int) *Buffer[T] {
	if capacity < 1 {
		capacity = 1
	}
	return &Buffer[T]{data: make([]T, capacity)}
}

// Push 写入一个元素。缓冲区已满时返回被淘汰的元素与 true。
func (b *Buffer[T]) Push(v T) (evicted T, ok bool) {
	if b.size == len(b.data) {
		evicted, ok = b.data[b.head], true
	} else {
		b.size++
	}
	b.data[b.head] = v
	b.head = (b.head + 1) % len(b.data)
	return evicted, ok
}

// Values 按写入顺序返回副本（最旧在前）。
func (b *Buffer[T]) Values() []T {
	if b.size == 0 {
		return nil
	}
	out := make([]T, 0, b.size)
	start := b.start()
	for i := 0; i < b.size; i++ {
		out = append(out, b.data[(start+i)%len(b.data)])
	}
	return out
}

// Len 当前元素数。
func (b *Buffer[T]) Len() int { return b.size }

// Cap 容量。
func (b *Buffer[T]) Cap() int { return len(b.data) }

// Full 是否已写满。
func (b *Buffer[T]) Full() bool { return b.size == len(b.data) }

// Reset 清空但保留容量。
func (b *Buffer[T]) Reset() {
	var zero T
	for i := range b.data {
		b.data[i] = zero
	}
	b.head, b.size = 0, 0
}

// Resize 调整容量，保留最新的 min(Len, capacity) 个元素。
func (b *Buffer[T]) Resize(capacity int) {
	if capacity < 1 {
		capacity = 1
	}
	if capacity == len(b.data) {
		return
	}
	vals := b.Values()
	if len(vals) > capacity {
		vals = vals[len(vals)-capacity:]
	}
	b.data = make([]T, capacity)
	copy(b.data, vals)
	b.size = len(vals)
	b.head = b.size % capacity
}

func (b *Buffer[T]) start() int {
	if b.size < len(b.data) {
		return 0
	}
	return b.head
}

// Sum 对数值缓冲区求和。
func Sum[T Number](b *Buffer[T]) T {
	var total T
	for i := 0; i < b.size; i++ {
		total += b.data[i]
	}
	return total
}
