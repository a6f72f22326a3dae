package server

import (
	"errors"
	"sync"
)

// DefaultBusCapacity 广播总线默认容量
const DefaultBusCapacity = 2048

// ErrBusFull 总线已满：有订阅者积压了 capacity 条未读消息
var ErrBusFull = errors.New("broadcast bus full")

// Bus 有界的单生产者多消费者广播通道
// 每个订阅者按发布顺序收到订阅之后发布的每一条消息，不按接收方过滤
type Bus struct {
	capacity int

	mu      sync.Mutex
	readers map[*Reader]struct{}
}

// Reader 总线的一个订阅者
type Reader struct {
	bus  *Bus
	ch   chan Payload
	once sync.Once
}

func NewBus(capacity int) *Bus {
	if capacity < 1 {
		capacity = 1
	}
	return &Bus{capacity: capacity, readers: make(map[*Reader]struct{})}
}

func (b *Bus) Capacity() int { return b.capacity }

// Subscribe 新建订阅者，只能收到此后发布的消息
func (b *Bus) Subscribe() *Reader {
	r := &Reader{bus: b, ch: make(chan Payload, b.capacity)}
	b.mu.Lock()
	b.readers[r] = struct{}{}
	b.mu.Unlock()
	return r
}

// Readers 当前订阅者数量
func (b *Bus) Readers() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.readers)
}

// TryPublish 非阻塞发布：要么所有订阅者都收到，要么返回 ErrBusFull 且谁都没收到
// 失败后的重试（不丢消息）由调用方负责
func (b *Bus) TryPublish(p Payload) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	for r := range b.readers {
		if len(r.ch) == cap(r.ch) {
			return ErrBusFull
		}
	}
	// 发送方只有持锁的这一处，消费者只会让队列变短，所以这里不会阻塞
	for r := range b.readers {
		r.ch <- p
	}
	return nil
}

// C 阻塞接收用；订阅关闭后 channel 被关闭
func (r *Reader) C() <-chan Payload { return r.ch }

// TryRecv 非阻塞接收
func (r *Reader) TryRecv() (Payload, bool) {
	select {
	case p, ok := <-r.ch:
		return p, ok
	default:
		return nil, false
	}
}

// Close 取消订阅，之后总线不再等待该订阅者
func (r *Reader) Close() {
	r.once.Do(func() {
		r.bus.mu.Lock()
		delete(r.bus.readers, r)
		close(r.ch)
		r.bus.mu.Unlock()
	})
}
