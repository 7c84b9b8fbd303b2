package recorder

import (
	"fmt"
	"strings"

	"github.com/zeusync/editorharness/internal/host"
)

// Kind groups the notification buses a recorder can subscribe to.
type Kind uint8

const (
	Collision Kind = iota
	Trigger
	ForceRegion
	EntityLifecycle
	Tick
)

type busCallbacks struct {
	bus       string
	callbacks []string
	// addressed buses deliver per-entity; the others only globally
	addressed bool
}

var kinds = map[Kind][]busCallbacks{
	Collision: {{
		bus:       host.CollisionNotificationBus,
		callbacks: []string{host.OnCollisionBegin, host.OnCollisionPersist, host.OnCollisionEnd},
		addressed: true,
	}},
	Trigger: {{
		bus:       host.TriggerNotificationBus,
		callbacks: []string{host.OnTriggerEnter, host.OnTriggerExit},
		addressed: true,
	}},
	ForceRegion: {{
		bus:       host.ForceRegionNotificationBus,
		callbacks: []string{host.OnCalculateNetForce},
		addressed: true,
	}},
	EntityLifecycle: {
		{
			bus:       host.EntityBus,
			callbacks: []string{host.OnEntityActivated, host.OnEntityDeactivated},
			addressed: true,
		},
		{
			bus:       host.EditorEntityContextNotificationBus,
			callbacks: []string{host.OnEditorEntityCreated, host.OnEditorEntityDeleted},
		},
	},
	Tick: {{
		bus:       host.TickBus,
		callbacks: []string{host.OnTick},
	}},
}

func (k Kind) String() string {
	switch k {
	case Collision:
		return "Collision"
	case Trigger:
		return "Trigger"
	case ForceRegion:
		return "ForceRegion"
	case EntityLifecycle:
		return "EntityLifecycle"
	case Tick:
		return "Tick"
	}
	return fmt.Sprintf("Kind(%d)", uint8(k))
}

// ParseKind resolves a kind by its name, ignoring case.
func ParseKind(name string) (Kind, error) {
	for k := range kinds {
		if strings.EqualFold(k.String(), name) {
			return k, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownKind, name)
}

// Callbacks lists the callback names recorded for k.
func (k Kind) Callbacks() []string {
	var out []string
	for _, b := range kinds[k] {
		out = append(out, b.callbacks...)
	}
	return out
}
