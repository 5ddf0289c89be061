package spawn

import (
	"github.com/udisondev/horde/internal/combat"
	"github.com/udisondev/horde/internal/model"
)

// moveStep moves every live enemy toward its target and applies contact damage.
// Enemies stand still while the player is dead.
func (c *Controller) moveStep() {
	if h, ok := c.reg.Health(c.player.ID); ok && h.IsDead() {
		return
	}

	dt := c.cfg.MoveInterval.Seconds()
	now := int64(c.sched.Now())

	for _, e := range c.pop.Snapshot() {
		if e.IsDead() {
			continue
		}
		target := e.Target()
		if target == nil {
			continue
		}

		tp := target.Position()
		pos := e.Position()
		if pos.Distance(tp) > c.cfg.ContactRadius {
			pos = stepToward(pos, tp, e.Archetype().MoveSpeed*dt)
			e.SetPosition(pos)
		}
		if pos.Distance(tp) <= c.cfg.ContactRadius {
			c.contact(e, pos, tp, now)
		}
	}
}

// stepToward moves from p toward q by at most step without overshooting.
func stepToward(p, q model.Vec2, step float64) model.Vec2 {
	d := q.Sub(p)
	dist := d.Len()
	if dist <= step || dist == 0 {
		return q
	}
	return p.Add(d.Scale(step / dist))
}

func (c *Controller) contact(e *model.Enemy, pos, tp model.Vec2, now int64) {
	if last := e.LastContact(); last >= 0 && now-last < int64(c.cfg.ContactCooldown) {
		return
	}
	e.SetLastContact(now)

	dmg := e.Archetype().ContactDamage
	c.reg.ApplyDamage(c.player.ID, combat.Hit{
		Amount:    dmg,
		Source:    e.Name(),
		Stun:      c.cfg.ContactStun,
		Knockback: c.cfg.ContactKnockback,
		Direction: tp.Sub(pos).Normalize(),
	})

	if c.hooks.OnContact != nil {
		c.hooks.OnContact(e, dmg)
	}
}
