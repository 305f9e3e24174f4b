// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package linear is the small 3D math kit used by the samples.
//
// Conventions follow DirectXMath: row vectors, left-handed coordinates and
// clip-space depth in [0, 1]. A point p is transformed as p * M, so
// A.Multiply(B) applies A first.
package linear

import "math"

// Vec3 is a 3-component vector.
type Vec3 struct {
	X, Y, Z float32
}

// V3 is shorthand for Vec3{x, y, z}.
func V3(x, y, z float32) Vec3 { return Vec3{X: x, Y: y, Z: z} }

// Add returns v + o.
func (v Vec3) Add(o Vec3) Vec3 { return Vec3{v.X + o.X, v.Y + o.Y, v.Z + o.Z} }

// Sub returns v - o.
func (v Vec3) Sub(o Vec3) Vec3 { return Vec3{v.X - o.X, v.Y - o.Y, v.Z - o.Z} }

// Scale returns v * s.
func (v Vec3) Scale(s float32) Vec3 { return Vec3{v.X * s, v.Y * s, v.Z * s} }

// Dot returns the dot product.
func (v Vec3) Dot(o Vec3) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z }

// Cross returns the cross product v x o.
func (v Vec3) Cross(o Vec3) Vec3 {
	return Vec3{
		v.Y*o.Z - v.Z*o.Y,
		v.Z*o.X - v.X*o.Z,
		v.X*o.Y - v.Y*o.X,
	}
}

// Length returns the Euclidean length.
func (v Vec3) Length() float32 {
	return float32(math.Sqrt(float64(v.Dot(v))))
}

// Normalize returns v scaled to unit length. The zero vector is returned
// unchanged.
func (v Vec3) Normalize() Vec3 {
	l := v.Length()
	if l == 0 {
		return v
	}
	return v.Scale(1 / l)
}

// Vec4 is a 4-component vector. It also stores planes as (a, b, c, d) for
// ax + by + cz + d = 0.
type Vec4 struct {
	X, Y, Z, W float32
}

// V4 is shorthand for Vec4{x, y, z, w}.
func V4(x, y, z, w float32) Vec4 { return Vec4{X: x, Y: y, Z: z, W: w} }

// Point returns v as a homogeneous point (w = 1).
func (v Vec3) Point() Vec4 { return Vec4{v.X, v.Y, v.Z, 1} }

// Dot returns the 4D dot product.
func (v Vec4) Dot(o Vec4) float32 { return v.X*o.X + v.Y*o.Y + v.Z*o.Z + v.W*o.W }

// XYZ drops w.
func (v Vec4) XYZ() Vec3 { return Vec3{v.X, v.Y, v.Z} }

// Project divides by w.
func (v Vec4) Project() Vec3 {
	if v.W == 0 {
		return v.XYZ()
	}
	return Vec3{v.X / v.W, v.Y / v.W, v.Z / v.W}
}

// PlaneNormalize scales a plane so that its normal has unit length.
func PlaneNormalize(p Vec4) Vec4 {
	l := p.XYZ().Length()
	if l == 0 {
		return p
	}
	return Vec4{p.X / l, p.Y / l, p.Z / l, p.W / l}
}
