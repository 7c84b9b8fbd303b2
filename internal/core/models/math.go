package models

import (
	"fmt"
	"math"

	"github.com/go-gl/mathgl/mgl64"
)

// Vector3 is the engine's 3-component vector.
type Vector3 = mgl64.Vec3

// Vec3 is shorthand for a literal Vector3.
func Vec3(x, y, z float64) Vector3 { return Vector3{x, y, z} }

// FormatVector3 renders a vector the way engine logs do.
func FormatVector3(v Vector3) string {
	return fmt.Sprintf("(x: %.3f, y: %.3f, z: %.3f)", v.X(), v.Y(), v.Z())
}

// VectorsClose compares component-wise within epsilon.
func VectorsClose(a, b Vector3, epsilon float64) bool {
	return math.Abs(a.X()-b.X()) <= epsilon &&
		math.Abs(a.Y()-b.Y()) <= epsilon &&
		math.Abs(a.Z()-b.Z()) <= epsilon
}

// Color is an RGBA color with components in [0,1].
type Color struct {
	R, G, B, A float64
}

func (c Color) String() string {
	return fmt.Sprintf("Color(%.3f, %.3f, %.3f, %.3f)", c.R, c.G, c.B, c.A)
}

// AABB is a world-space axis-aligned box.
type AABB struct {
	Min, Max Vector3
}

// AABBFromCenter builds a box from its center and full extents.
func AABBFromCenter(center, extents Vector3) AABB {
	half := extents.Mul(0.5)
	return AABB{Min: center.Sub(half), Max: center.Add(half)}
}

// Contains reports whether p lies inside the box, boundary included.
func (b AABB) Contains(p Vector3) bool {
	return p.X() >= b.Min.X() && p.X() <= b.Max.X() &&
		p.Y() >= b.Min.Y() && p.Y() <= b.Max.Y() &&
		p.Z() >= b.Min.Z() && p.Z() <= b.Max.Z()
}

// Overlaps reports whether two boxes intersect.
func (b AABB) Overlaps(o AABB) bool {
	return b.Min.X() <= o.Max.X() && b.Max.X() >= o.Min.X() &&
		b.Min.Y() <= o.Max.Y() && b.Max.Y() >= o.Min.Y() &&
		b.Min.Z() <= o.Max.Z() && b.Max.Z() >= o.Min.Z()
}

// Center returns the box midpoint.
func (b AABB) Center() Vector3 { return b.Min.Add(b.Max).Mul(0.5) }
