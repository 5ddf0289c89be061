package combat

import (
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHealth_DamageUntilDeath(t *testing.T) {
	t.Parallel()

	h := NewHealth(1, 10)
	var deaths int
	h.Subscribe(func(uint32) { deaths++ })

	assert.False(t, h.Damage(Hit{Amount: 4}))
	if got := h.CurrentHP(); got != 6 {
		t.Errorf("CurrentHP() = %d, want 6", got)
	}
	assert.True(t, h.Damage(Hit{Amount: 100}))
	assert.False(t, h.Damage(Hit{Amount: 1}), "dead health takes no damage")
	assert.True(t, h.IsDead())
	assert.Equal(t, 0, h.CurrentHP())
	assert.Equal(t, 1, deaths)
}

func TestHealth_KillFiresOnce(t *testing.T) {
	t.Parallel()

	h := NewHealth(1, 10)
	var deaths int
	h.Subscribe(func(id uint32) {
		assert.Equal(t, uint32(1), id)
		deaths++
	})

	assert.True(t, h.Kill())
	assert.False(t, h.Kill())
	assert.False(t, h.Damage(Hit{Amount: 50}))
	assert.Equal(t, 1, deaths)
}

func TestHealth_Invulnerable(t *testing.T) {
	t.Parallel()

	h := NewHealth(1, 10)
	h.SetInvulnerable(true)
	assert.False(t, h.Damage(Hit{Amount: 50}))
	assert.Equal(t, 10, h.CurrentHP())
	assert.True(t, h.Kill())
}

func TestHealth_UnsubscribeAndRestore(t *testing.T) {
	t.Parallel()

	h := NewHealth(1, 3)
	var deaths int
	unsub := h.Subscribe(func(uint32) { deaths++ })
	unsub()

	h.Kill()
	assert.Equal(t, 0, deaths)

	h.Restore()
	assert.False(t, h.IsDead())
	assert.Equal(t, 3, h.CurrentHP())
}

func TestRegistry_IgnoresUnknownAndDead(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.ApplyDamage(99, Hit{Amount: 5})
	assert.False(t, r.Kill(99))

	unsub := r.SubscribeDeath(99, func(uint32) { t.Fatal("unexpected death") })
	require.NotNil(t, unsub)
	unsub()

	h := r.Register(1, 5)
	r.ApplyDamage(1, Hit{Amount: 5, Source: "test"})
	assert.True(t, h.IsDead())
	r.ApplyDamage(1, Hit{Amount: 5})
	assert.Equal(t, "test", h.LastHit().Source)
}

func TestRegistry_ConcurrentDamageSingleDeath(t *testing.T) {
	t.Parallel()

	r := NewRegistry()
	r.Register(7, 100)

	var deaths atomic.Int32
	r.SubscribeDeath(7, func(uint32) { deaths.Add(1) })

	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			r.ApplyDamage(7, Hit{Amount: 3})
		}()
	}
	wg.Wait()

	assert.Equal(t, int32(1), deaths.Load())
	r.Unregister(7)
	assert.Equal(t, 0, r.Len())
}
