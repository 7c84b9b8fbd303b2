package models

import (
	"fmt"
	"strconv"
)

// EntityID identifies a live scene entity. Zero is the invalid id.
type EntityID uint64

// InvalidEntityID is never issued by an engine.
const InvalidEntityID EntityID = 0

// IsValid reports whether the id was issued by the engine.
func (id EntityID) IsValid() bool { return id != InvalidEntityID }

// String returns the stable "[id]" form used in engine logs.
func (id EntityID) String() string {
	return "[" + strconv.FormatUint(uint64(id), 10) + "]"
}

// EntityType selects which context a lookup runs against.
type EntityType uint8

const (
	EntityTypeGame EntityType = iota
	EntityTypeEditor
	EntityTypeLayer
)

func (t EntityType) String() string {
	switch t {
	case EntityTypeGame:
		return "Game"
	case EntityTypeEditor:
		return "Editor"
	case EntityTypeLayer:
		return "Layer"
	default:
		return fmt.Sprintf("EntityType(%d)", uint8(t))
	}
}

// ComponentID identifies one component instance on an entity.
// Two ids are equal iff both parts are equal.
type ComponentID struct {
	Entity EntityID
	Local  uint64
}

// IsValid reports whether both parts are set.
func (c ComponentID) IsValid() bool { return c.Entity.IsValid() && c.Local != 0 }

func (c ComponentID) String() string {
	return fmt.Sprintf("%s:%d", c.Entity, c.Local)
}
