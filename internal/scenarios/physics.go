package scenarios

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/zeusync/editorharness/internal/core/models"
	"github.com/zeusync/editorharness/internal/harness/entity"
	"github.com/zeusync/editorharness/internal/harness/recorder"
	"github.com/zeusync/editorharness/internal/harness/report"
	"github.com/zeusync/editorharness/internal/harness/runner"
	"github.com/zeusync/editorharness/internal/host"
)

const (
	motionTimeout = 10 * time.Second
	restTimeout   = 30 * time.Second
	restSpeed     = 1e-3

	// ten seconds of simulated frames
	settleFrames = 600
)

func position(t *runner.T, e entity.Entity) models.Vector3 {
	p, err := e.WorldTranslation(t.Context())
	t.Must(err)
	return p
}

func gravityAwakens(t *runner.T) error {
	ctx := t.Context()
	t.EnterGameMode(enteredGameMode)

	sphere := t.FindGameEntity("Sphere")
	start := position(t, sphere)
	t.CriticalResult(report.Label{
		Success: "Sphere starts above 35",
		Failure: "Sphere starts too low",
	}, start.Z() >= 35)

	on, err := sphere.GravityEnabled(ctx)
	t.Must(err)
	t.CriticalResult(report.Label{
		Success: "Gravity is disabled on the sphere",
		Failure: "Gravity is already enabled on the sphere",
	}, !on)

	t.IdleFrames(30)
	t.Result(report.Label{
		Success: "Sphere holds its height without gravity",
		Failure: "Sphere drifted without gravity",
	}, models.VectorsClose(position(t, sphere), start, 1e-3))

	t.Must(sphere.SetGravityEnabled(ctx, true))
	t.Must(sphere.ForceAwake(ctx))
	t.WaitFor(report.Label{
		Success: "Sphere fell below 35",
		Failure: "Sphere did not fall",
	}, func(ctx context.Context) (bool, error) {
		p, err := sphere.WorldTranslation(ctx)
		return p.Z() < 35, err
	}, motionTimeout)

	t.Report.InfoVector3(position(t, sphere), "Sphere position", false)
	t.ExitGameMode(exitedGameMode)
	return nil
}

var frictions = []string{"0.0", "0.5", "1.0", "1.5"}

func staticFriction(t *runner.T) error {
	ctx := t.Context()
	t.EnterGameMode(enteredGameMode)

	boxes := make([]entity.Entity, len(frictions))
	starts := make([]models.Vector3, len(frictions))
	for i, f := range frictions {
		boxes[i] = t.FindGameEntity("Box_" + f)
		starts[i] = position(t, boxes[i])
	}
	for _, b := range boxes {
		t.Must(b.ApplyLinearImpulse(ctx, models.Vec3(10, 0, 0)))
	}
	// Let the impulse take effect before polling for rest.
	t.IdleFrames(1)

	t.WaitFor(report.Label{
		Success: "All boxes came to rest",
		Failure: "Boxes are still moving",
	}, func(ctx context.Context) (bool, error) {
		for _, b := range boxes {
			v, err := b.LinearVelocity(ctx)
			if err != nil {
				return false, err
			}
			if v.Len() >= restSpeed {
				return false, nil
			}
		}
		return true, nil
	}, restTimeout)

	dist := make([]float64, len(boxes))
	for i, b := range boxes {
		dist[i] = position(t, b).Sub(starts[i]).Len()
		t.Info(fmt.Sprintf("Box with friction %s traveled %.4f", frictions[i], dist[i]))
	}
	for i := 1; i < len(dist); i++ {
		t.Result(report.Label{
			Success: fmt.Sprintf("Friction %s stops sooner than %s", frictions[i], frictions[i-1]),
			Failure: fmt.Sprintf("Friction %s traveled no less than %s", frictions[i], frictions[i-1]),
		}, dist[i] < dist[i-1])
	}

	t.ExitGameMode(exitedGameMode)
	return nil
}

// callbacks lists the callbacks of s whose other party is other, in order.
func callbacks(s *recorder.Subscription, other models.EntityID) []string {
	var out []string
	for _, r := range s.Records() {
		if r.Other() == other {
			out = append(out, r.Callback)
		}
	}
	return out
}

func startsWith(got []string, want ...string) bool {
	if len(got) < len(want) {
		return false
	}
	for i := range want {
		if got[i] != want[i] {
			return false
		}
	}
	return true
}

func triggerPassthrough(t *runner.T) error {
	ctx := t.Context()
	t.EnterGameMode(enteredGameMode)

	sphere := t.FindGameEntity("Sphere")
	trigger := t.FindGameEntity("TriggerBox")
	solid := t.FindGameEntity("SolidBox")

	// Trigger events reach the trigger's address only.
	triggers := t.Subscribe(recorder.Trigger, trigger.ID)
	collisions := t.Subscribe(recorder.Collision, sphere.ID)

	t.WaitFor(report.Label{
		Success: "Sphere left the solid box",
		Failure: "Sphere never separated from the solid box",
	}, func(context.Context) (bool, error) {
		for _, cb := range callbacks(collisions, solid.ID) {
			if cb == host.OnCollisionEnd {
				return true, nil
			}
		}
		return false, nil
	}, motionTimeout)

	t.Result(report.Label{
		Success: "Trigger reported enter then exit",
		Failure: "Trigger did not report enter then exit",
	}, startsWith(callbacks(triggers, sphere.ID), host.OnTriggerEnter, host.OnTriggerExit))

	hits := callbacks(collisions, solid.ID)
	t.Result(report.Label{
		Success: "Solid box reported begin then end",
		Failure: "Solid box did not report begin then end",
	}, len(hits) >= 2 && hits[0] == host.OnCollisionBegin && hits[len(hits)-1] == host.OnCollisionEnd)
	t.Result(report.Label{
		Success: "Sphere never collided with the trigger",
		Failure: "Sphere collided with the trigger",
	}, len(callbacks(collisions, trigger.ID)) == 0)
	if err := t.Recorder.CheckCollisionSequence(sphere.ID, solid.ID); err != nil {
		t.Report.Failure(err.Error())
	}

	v, err := sphere.LinearVelocity(ctx)
	t.Must(err)
	t.Report.InfoVector3(v, "Sphere velocity", true)
	t.Result(report.Label{
		Success: "Sphere bounced back",
		Failure: "Sphere kept moving forward",
	}, v.X() < 0)

	t.ExitGameMode(exitedGameMode)
	return nil
}

func forceRegionDirection(t *runner.T) error {
	ctx := t.Context()
	t.EnterGameMode(enteredGameMode)

	region := t.FindGameEntity("Region")
	sphere := t.FindGameEntity("Sphere")

	// The same force seen through a global subscription filtered on the
	// region, and through one addressed at it. Their relative order is not
	// relied upon.
	global := t.Subscribe(recorder.ForceRegion, models.InvalidEntityID,
		recorder.WithFilter(func(r recorder.Record) bool { return r.Region() == region.ID }))
	addressed := t.Subscribe(recorder.ForceRegion, region.ID)

	t.WaitFor(report.Label{
		Success: "Force region acted on the sphere",
		Failure: "Force region never acted on the sphere",
	}, func(context.Context) (bool, error) {
		return addressed.Count() > 0, nil
	}, motionTimeout)

	// without gravity the pushed sphere keeps rising instead of dropping in again
	t.Must(sphere.SetGravityEnabled(ctx, false))
	t.IdleFrames(settleFrames)
	t.Result(report.Label{
		Success: "Sphere left the region",
		Failure: "Sphere is still at the region",
	}, position(t, sphere).Z() > 1)

	t.Result(report.Label{
		Success: "Force region fired exactly once",
		Failure: fmt.Sprintf("Force region fired %d times", addressed.Count()),
	}, addressed.Count() == 1)
	t.Result(report.Label{
		Success: "Global subscription saw the same callbacks",
		Failure: "Global subscription disagrees with the addressed one",
	}, global.Count() == addressed.Count())

	rec, ok := addressed.Latest()
	if !ok {
		return nil
	}
	t.Result(report.Label{
		Success: "Force targeted the sphere",
		Failure: "Force targeted another entity",
	}, rec.Target() == sphere.ID)
	force := rec.Force()
	t.Report.InfoVector3(force, "Net force", true)
	t.Result(report.Label{
		Success: "Force magnitude is 1000",
		Failure: fmt.Sprintf("Force magnitude is %.4f", rec.Magnitude()),
	}, math.Abs(rec.Magnitude()-1000) <= 1)
	t.Result(report.Label{
		Success: "Force points along z",
		Failure: "Force is not dominated by z",
	}, math.Abs(force.Z()) > math.Abs(force.X()) && math.Abs(force.Z()) > math.Abs(force.Y()))

	t.ExitGameMode(exitedGameMode)
	return nil
}

func jointCollision(t *runner.T) error {
	t.EnterGameMode(enteredGameMode)

	lead := t.FindGameEntity("Lead")
	follower := t.FindGameEntity("Follower")
	leadHits := t.Subscribe(recorder.Collision, lead.ID)
	followerHits := t.Subscribe(recorder.Collision, follower.ID)

	began := func(s *recorder.Subscription, other models.EntityID) bool {
		for _, cb := range callbacks(s, other) {
			if cb == host.OnCollisionBegin {
				return true
			}
		}
		return false
	}
	t.WaitFor(report.Label{
		Success: "Lead and follower collided",
		Failure: "Lead and follower never collided",
	}, func(context.Context) (bool, error) {
		return began(leadHits, follower.ID) && began(followerHits, lead.ID), nil
	}, motionTimeout)

	t.ExitGameMode(exitedGameMode)
	return nil
}
