package server

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBusSubscriberOnlySeesLaterMessages(t *testing.T) {
	bus := NewBus(8)
	early := bus.Subscribe()

	before := delta(move(0, 1, 0))
	require.NoError(t, bus.TryPublish(before))

	late := bus.Subscribe()
	after := delta(move(0, 2, 0))
	require.NoError(t, bus.TryPublish(after))

	p, ok := late.TryRecv()
	require.True(t, ok)
	assert.Same(t, after, p)
	_, ok = late.TryRecv()
	assert.False(t, ok)

	p, _ = early.TryRecv()
	assert.Same(t, before, p)
	p, _ = early.TryRecv()
	assert.Same(t, after, p)
}

func TestBusDeliversInPublishOrder(t *testing.T) {
	bus := NewBus(DefaultBusCapacity)
	r := bus.Subscribe()

	var sent []Payload
	for i := 0; i < 100; i++ {
		d := delta(move(0, float64(i), 0))
		sent = append(sent, d)
		require.NoError(t, bus.TryPublish(d))
	}
	for i := range sent {
		p, ok := r.TryRecv()
		require.True(t, ok, "message %d missing", i)
		assert.Same(t, sent[i], p)
	}
}

func TestBusFullRejectsWithoutPartialDelivery(t *testing.T) {
	bus := NewBus(1)
	fast := bus.Subscribe()
	slow := bus.Subscribe()

	a, b := delta(move(0, 1, 0)), delta(move(0, 2, 0))
	require.NoError(t, bus.TryPublish(a))
	_, _ = fast.TryRecv()

	assert.ErrorIs(t, bus.TryPublish(b), ErrBusFull)
	_, ok := fast.TryRecv()
	assert.False(t, ok, "fast reader must not see a rejected message")

	p, _ := slow.TryRecv()
	assert.Same(t, a, p)
	require.NoError(t, bus.TryPublish(b))
	p, _ = fast.TryRecv()
	assert.Same(t, b, p)
	p, _ = slow.TryRecv()
	assert.Same(t, b, p)
}

func TestBusWithoutReadersAcceptsEverything(t *testing.T) {
	bus := NewBus(1)
	for i := 0; i < 10; i++ {
		require.NoError(t, bus.TryPublish(delta()))
	}
}

func TestReaderCloseReleasesBus(t *testing.T) {
	bus := NewBus(1)
	r := bus.Subscribe()
	require.NoError(t, bus.TryPublish(delta()))
	require.ErrorIs(t, bus.TryPublish(delta()), ErrBusFull)

	r.Close()
	r.Close()
	assert.Equal(t, 0, bus.Readers())
	assert.NoError(t, bus.TryPublish(delta()))

	// 关闭后剩余消息仍可读完，之后 channel 关闭
	_, ok := <-r.C()
	assert.True(t, ok)
	_, ok = <-r.C()
	assert.False(t, ok)
}
