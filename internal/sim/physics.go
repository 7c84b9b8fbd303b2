package sim

import (
	"math"
	"sort"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/host"
)

type shapeKind uint8

const (
	shapeBox shapeKind = iota
	shapeSphere
)

type collider struct {
	shape       shapeKind
	half        models.Vector3
	radius      float64
	trigger     bool
	friction    float64
	restitution float64
}

type body struct {
	rigid     bool
	kinematic bool
	gravity   bool
	mass      float64
	damping   float64
	velocity  models.Vector3
	awake     bool
	quiet     int
	collider  *collider
}

// dynamic bodies are moved by the solver.
func (b *body) dynamic() bool { return b.rigid && !b.kinematic }

func (b *body) invMass() float64 {
	if !b.dynamic() || b.mass <= 0 {
		return 0
	}
	return 1 / b.mass
}

// active bodies take part in contact resolution this step.
func (b *body) active() bool { return b.dynamic() && b.awake }

func (b *body) wake() {
	b.awake = true
	b.quiet = 0
}

type region struct {
	owner     *entity
	direction models.Vector3
	magnitude float64
}

type joint struct {
	follower *entity
	lead     *entity
	maxDist  float64
}

type pairKey struct{ a, b models.EntityID }

func keyOf(a, b models.EntityID) pairKey {
	if a > b {
		a, b = b, a
	}
	return pairKey{a, b}
}

type contact struct {
	key     pairKey
	trigger bool
}

// world is the physics state of one game session.
type world struct {
	engine  *Engine
	bodies  []*entity
	regions []region
	joints  []joint
	// contacts from the previous step, in detection order.
	contacts []contact
}

func newWorld(e *Engine) *world {
	w := &world{engine: e}
	e.game.each(func(ent *entity) {
		if b := w.buildBody(ent); b != nil {
			ent.body = b
			w.bodies = append(w.bodies, ent)
		}
	})
	e.game.each(func(ent *entity) {
		if c := ent.componentByName(TypeForceRegion); c != nil {
			if ent.body == nil || ent.body.collider == nil {
				e.warnf(windowPhysics, "Force Region on %s %q requires a Collider", ent.id, ent.name)
			} else {
				w.regions = append(w.regions, region{owner: ent, direction: c.vec3(pathRegDir), magnitude: c.float(pathRegMag)})
			}
		}
		if c := ent.componentByName(TypeBallJoint); c != nil {
			lead, ok := e.game.get(c.entity(pathLead))
			switch {
			case !ok:
				e.errorf(windowPhysics, "Ball Joint on %s %q has no valid lead entity", ent.id, ent.name)
			case ent.body == nil || !ent.body.dynamic():
				e.errorf(windowPhysics, "Ball Joint on %s %q requires a Rigid Body", ent.id, ent.name)
			default:
				maxDist := c.float(pathMaxDist)
				if maxDist <= 0 {
					maxDist = e.game.worldTranslation(ent).Sub(e.game.worldTranslation(lead)).Len()
				}
				w.joints = append(w.joints, joint{follower: ent, lead: lead, maxDist: maxDist})
			}
		}
	})
	return w
}

func (w *world) buildBody(ent *entity) *body {
	rb := ent.componentByName(TypeRigidBody)
	col := ent.componentByName(TypeCollider)
	if rb == nil && col == nil {
		return nil
	}
	b := &body{awake: true}
	if rb != nil {
		b.rigid = true
		b.kinematic = rb.bool(pathKinemat)
		b.gravity = rb.bool(pathGravity)
		b.mass = rb.float(pathMass)
		b.damping = rb.float(pathDamping)
		b.velocity = rb.vec3(pathInitVel)
		b.awake = !rb.bool(pathAsleep)
		if b.mass <= 0 {
			w.engine.warnf(windowPhysics, "Rigid Body on %s %q has non-positive mass %g, using 1", ent.id, ent.name, b.mass)
			b.mass = 1
		}
	}
	if col != nil {
		scale := w.engine.game.uniformScale(ent)
		c := &collider{
			trigger:     col.bool(pathTrigger),
			friction:    col.float(pathFriction),
			restitution: col.float(pathRestit),
		}
		if col.string(pathShape) == "Sphere" {
			c.shape = shapeSphere
			c.radius = col.float(pathRadius) * scale
		} else {
			c.half = col.vec3(pathBoxDims).Mul(0.5 * scale)
		}
		b.collider = c
	}
	return b
}

func (e *Engine) stepPhysics(dt float64) {
	w := e.world
	h := dt / float64(e.cfg.SubSteps)
	for i := 0; i < e.cfg.SubSteps; i++ {
		w.substep(h)
	}
	for _, ent := range w.bodies {
		b := ent.body
		if !b.active() {
			continue
		}
		if b.velocity.Len() < e.cfg.SleepSpeed {
			b.quiet++
			if b.quiet >= e.cfg.SleepFrames {
				b.awake = false
				b.velocity = models.Vector3{}
			}
		} else {
			b.quiet = 0
		}
	}
}

func (w *world) substep(h float64) {
	g := models.Vec3(0, 0, w.engine.cfg.GravityZ)
	for _, ent := range w.bodies {
		if b := ent.body; b.active() && b.gravity {
			b.velocity = b.velocity.Add(g.Mul(h))
		}
	}
	w.applyRegions(h)
	for _, ent := range w.bodies {
		b := ent.body
		if !b.rigid || !(b.awake || b.kinematic) {
			continue
		}
		if b.dynamic() && b.damping > 0 {
			b.velocity = b.velocity.Mul(math.Max(0, 1-b.damping*h))
		}
		if b.velocity != (models.Vector3{}) {
			w.move(ent, b.velocity.Mul(h))
		}
	}
	w.solveJoints()
	w.updateContacts()
}

func (w *world) position(ent *entity) models.Vector3 {
	return w.engine.game.worldTranslation(ent)
}

func (w *world) move(ent *entity, delta models.Vector3) {
	w.engine.game.setWorldTranslation(ent, w.position(ent).Add(delta))
}

// applyRegions pushes every dynamic body whose center lies inside a force
// region's collider, once per region and target.
func (w *world) applyRegions(h float64) {
	for _, r := range w.regions {
		dir := r.direction
		if dir.Len() == 0 {
			continue
		}
		force := dir.Normalize().Mul(r.magnitude)
		for _, ent := range w.bodies {
			b := ent.body
			if ent == r.owner || !b.dynamic() {
				continue
			}
			if !w.containsPoint(r.owner, w.position(ent)) {
				continue
			}
			b.wake()
			b.velocity = b.velocity.Add(force.Mul(h * b.invMass()))
			w.engine.notify(host.ForceRegionNotificationBus, r.owner.id, host.OnCalculateNetForce,
				r.owner.id, ent.id, force, force.Len())
		}
	}
}

func (w *world) containsPoint(ent *entity, p models.Vector3) bool {
	c := ent.body.collider
	center := w.position(ent)
	if c.shape == shapeSphere {
		return p.Sub(center).Len() <= c.radius
	}
	return models.AABBFromCenter(center, c.half.Mul(2)).Contains(p)
}

func (w *world) solveJoints() {
	for _, j := range w.joints {
		lp, fp := w.position(j.lead), w.position(j.follower)
		d := fp.Sub(lp)
		dist := d.Len()
		if dist <= j.maxDist || dist == 0 {
			continue
		}
		dir := d.Mul(1 / dist)
		w.engine.game.setWorldTranslation(j.follower, lp.Add(dir.Mul(j.maxDist)))
		fb := j.follower.body
		var lv models.Vector3
		if j.lead.body != nil {
			lv = j.lead.body.velocity
		}
		if outward := fb.velocity.Sub(lv).Dot(dir); outward > 0 {
			fb.velocity = fb.velocity.Sub(dir.Mul(outward))
		}
	}
}

// updateContacts detects overlaps, resolves solid contacts and fires the
// begin, persist and end notifications against the previous step.
func (w *world) updateContacts() {
	prev := make(map[pairKey]contact, len(w.contacts))
	for _, c := range w.contacts {
		prev[c.key] = c
	}
	var current []contact
	seen := make(map[pairKey]bool)
	for i, a := range w.bodies {
		if a.body.collider == nil {
			continue
		}
		for _, b := range w.bodies[i+1:] {
			if b.body.collider == nil {
				continue
			}
			key := keyOf(a.id, b.id)
			if !a.body.active() && !b.body.active() {
				// Nothing moves; a resting pair stays as it was.
				if c, ok := prev[key]; ok {
					current = append(current, c)
					seen[key] = true
				}
				continue
			}
			n, pen, ok := w.overlap(a, b)
			if !ok {
				continue
			}
			trigger := a.body.collider.trigger || b.body.collider.trigger
			if !trigger {
				w.resolve(a, b, n, pen)
			}
			current = append(current, contact{key: key, trigger: trigger})
			seen[key] = true
		}
	}

	for _, c := range current {
		old, existed := prev[c.key]
		switch {
		case c.trigger && !existed:
			w.fireTrigger(c.key, host.OnTriggerEnter)
		case !c.trigger && !existed:
			w.wakePair(c.key)
			w.fireCollision(c.key, host.OnCollisionBegin)
		case !c.trigger && !old.trigger && w.pairActive(c.key):
			w.fireCollision(c.key, host.OnCollisionPersist)
		}
	}
	var ended []contact
	for _, c := range w.contacts {
		if !seen[c.key] {
			ended = append(ended, c)
		}
	}
	sort.SliceStable(ended, func(i, j int) bool {
		if ended[i].key.a != ended[j].key.a {
			return ended[i].key.a < ended[j].key.a
		}
		return ended[i].key.b < ended[j].key.b
	})
	for _, c := range ended {
		if c.trigger {
			w.fireTrigger(c.key, host.OnTriggerExit)
		} else {
			w.fireCollision(c.key, host.OnCollisionEnd)
		}
	}
	w.contacts = current
}

func (w *world) entity(id models.EntityID) *entity {
	ent, _ := w.engine.game.get(id)
	return ent
}

func (w *world) pairActive(k pairKey) bool {
	a, b := w.entity(k.a), w.entity(k.b)
	return (a != nil && a.body.active()) || (b != nil && b.body.active())
}

func (w *world) wakePair(k pairKey) {
	for _, ent := range []*entity{w.entity(k.a), w.entity(k.b)} {
		if ent != nil && ent.body.dynamic() {
			ent.body.wake()
		}
	}
}

func (w *world) fireCollision(k pairKey, callback string) {
	w.engine.notify(host.CollisionNotificationBus, k.a, callback, k.b)
	w.engine.notify(host.CollisionNotificationBus, k.b, callback, k.a)
}

// fireTrigger notifies the trigger side of the pair; a pair of triggers
// notifies both.
func (w *world) fireTrigger(k pairKey, callback string) {
	a, b := w.entity(k.a), w.entity(k.b)
	if a != nil && a.body.collider.trigger {
		w.engine.notify(host.TriggerNotificationBus, k.a, callback, k.b)
	}
	if b != nil && b.body.collider.trigger {
		w.engine.notify(host.TriggerNotificationBus, k.b, callback, k.a)
	}
}

// overlap tests a against b. The normal points from b towards a.
func (w *world) overlap(a, b *entity) (models.Vector3, float64, bool) {
	pa, pb := w.position(a), w.position(b)
	ca, cb := a.body.collider, b.body.collider
	switch {
	case ca.shape == shapeSphere && cb.shape == shapeSphere:
		return sphereSphere(pa, ca.radius, pb, cb.radius)
	case ca.shape == shapeSphere:
		return sphereBox(pa, ca.radius, pb, cb.half)
	case cb.shape == shapeSphere:
		n, pen, ok := sphereBox(pb, cb.radius, pa, ca.half)
		return n.Mul(-1), pen, ok
	default:
		return boxBox(pa, ca.half, pb, cb.half)
	}
}

var up = models.Vec3(0, 0, 1)

func sphereSphere(pa models.Vector3, ra float64, pb models.Vector3, rb float64) (models.Vector3, float64, bool) {
	d := pa.Sub(pb)
	dist := d.Len()
	if dist >= ra+rb {
		return models.Vector3{}, 0, false
	}
	if dist == 0 {
		return up, ra + rb, true
	}
	return d.Mul(1 / dist), ra + rb - dist, true
}

func sphereBox(ps models.Vector3, r float64, pb, half models.Vector3) (models.Vector3, float64, bool) {
	box := models.AABBFromCenter(pb, half.Mul(2))
	var q models.Vector3
	for i := 0; i < 3; i++ {
		q[i] = math.Max(box.Min[i], math.Min(ps[i], box.Max[i]))
	}
	d := ps.Sub(q)
	dist := d.Len()
	if dist >= r {
		return models.Vector3{}, 0, false
	}
	if dist > 1e-9 {
		return d.Mul(1 / dist), r - dist, true
	}
	// Center inside the box: leave through the nearest face.
	best, axis, sign := math.Inf(1), 2, 1.0
	for i := 0; i < 3; i++ {
		if lo := ps[i] - box.Min[i]; lo < best {
			best, axis, sign = lo, i, -1
		}
		if hi := box.Max[i] - ps[i]; hi < best {
			best, axis, sign = hi, i, 1
		}
	}
	var n models.Vector3
	n[axis] = sign
	return n, r + best, true
}

func boxBox(pa, ha, pb, hb models.Vector3) (models.Vector3, float64, bool) {
	pen, axis := math.Inf(1), 0
	for i := 0; i < 3; i++ {
		o := ha[i] + hb[i] - math.Abs(pa[i]-pb[i])
		if o <= 0 {
			return models.Vector3{}, 0, false
		}
		if o < pen {
			pen, axis = o, i
		}
	}
	var n models.Vector3
	n[axis] = 1
	if pa[axis] < pb[axis] {
		n[axis] = -1
	}
	return n, pen, true
}

// resolve separates a and b and applies the normal impulse with averaged
// restitution, then Coulomb friction with averaged coefficients.
func (w *world) resolve(a, b *entity, n models.Vector3, pen float64) {
	ba, bb := a.body, b.body
	ia, ib := ba.invMass(), bb.invMass()
	sum := ia + ib
	if sum == 0 {
		return
	}
	if pen > 0 {
		corr := pen / sum
		if ia > 0 {
			w.move(a, n.Mul(corr*ia))
		}
		if ib > 0 {
			w.move(b, n.Mul(-corr*ib))
		}
	}
	vn := ba.velocity.Sub(bb.velocity).Dot(n)
	if vn >= 0 {
		return
	}
	e := (ba.collider.restitution + bb.collider.restitution) / 2
	if -vn < w.engine.cfg.BounceSpeed {
		e = 0
	}
	jn := -(1 + e) * vn / sum
	ba.velocity = ba.velocity.Add(n.Mul(jn * ia))
	bb.velocity = bb.velocity.Sub(n.Mul(jn * ib))

	rel := ba.velocity.Sub(bb.velocity)
	vt := rel.Sub(n.Mul(rel.Dot(n)))
	speed := vt.Len()
	if speed < 1e-9 {
		return
	}
	mu := (ba.collider.friction + bb.collider.friction) / 2
	jt := math.Min(speed/sum, mu*jn)
	dir := vt.Mul(1 / speed)
	ba.velocity = ba.velocity.Sub(dir.Mul(jt * ia))
	bb.velocity = bb.velocity.Add(dir.Mul(jt * ib))
}
