package recorder

import (
	"github.com/zeusync/editorharness/internal/core/models"
)

// Record is one captured notification.
type Record struct {
	// Seq orders records across every subscription of a recorder.
	Seq      uint64
	Kind     Kind
	Bus      string
	Source   models.EntityID
	Callback string
	Payload  []any
}

func (r Record) arg(i int) any {
	if i < len(r.Payload) {
		return r.Payload[i]
	}
	return nil
}

func entityArg(v any) models.EntityID {
	id, _ := v.(models.EntityID)
	return id
}

// Other is the second entity of a collision or trigger record.
func (r Record) Other() models.EntityID { return entityArg(r.arg(0)) }

// Region is the force region of an OnCalculateNetForce record.
func (r Record) Region() models.EntityID { return entityArg(r.arg(0)) }

// Target is the body pushed by a force region.
func (r Record) Target() models.EntityID { return entityArg(r.arg(1)) }

func (r Record) Force() models.Vector3 {
	v, _ := r.arg(2).(models.Vector3)
	return v
}

func (r Record) Magnitude() float64 {
	f, _ := r.arg(3).(float64)
	return f
}

// Entity is the subject of a lifecycle record.
func (r Record) Entity() models.EntityID { return entityArg(r.arg(0)) }

// DeltaTime and TimePoint are the arguments of an OnTick record.
func (r Record) DeltaTime() float64 {
	f, _ := r.arg(0).(float64)
	return f
}

func (r Record) TimePoint() float64 {
	f, _ := r.arg(1).(float64)
	return f
}

// Pair is an ordered (source, other) pair of entities.
type Pair struct {
	Source models.EntityID
	Other  models.EntityID
}
