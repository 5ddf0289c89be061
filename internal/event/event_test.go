package event

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishSubscribe(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	a, cancelA := bus.Subscribe(4)
	b, cancelB := bus.Subscribe(4)
	defer cancelB()

	bus.Publish(Event{Type: TypeEnemySpawned, Session: "s1"})

	ea := <-a
	eb := <-b
	assert.Equal(t, TypeEnemySpawned, ea.Type)
	assert.NotEmpty(t, ea.ID, "id assigned")
	assert.Equal(t, ea.ID, eb.ID)

	cancelA()
	cancelA()
	_, ok := <-a
	assert.False(t, ok, "channel closed after cancel")
	assert.Equal(t, 1, bus.Subscribers())
}

func TestBus_SlowSubscriberDrops(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, cancel := bus.Subscribe(2)
	defer cancel()

	for range 5 {
		bus.Publish(Event{Type: TypePlayerHit})
	}

	assert.Equal(t, uint64(5), bus.Published())
	assert.Equal(t, uint64(3), bus.Dropped())
	assert.Len(t, ch, 2)
}

func TestBus_Close(t *testing.T) {
	t.Parallel()

	bus := NewBus()
	ch, cancel := bus.Subscribe(1)

	bus.Close()
	bus.Close()
	cancel()

	_, ok := <-ch
	assert.False(t, ok)

	late, _ := bus.Subscribe(1)
	_, ok = <-late
	require.False(t, ok)

	bus.Publish(Event{Type: TypeSessionReset})
	assert.Zero(t, bus.Published())
}
