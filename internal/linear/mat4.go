// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package linear

import "math"

// Mat4 is a row-major 4x4 matrix.
//
//	| M[0][0] M[0][1] M[0][2] M[0][3] |
//	| M[1][0] ...                     |
//
// The translation lives in row 3.
type Mat4 [4][4]float32

// Identity returns the identity matrix.
func Identity() Mat4 {
	return Mat4{
		{1, 0, 0, 0},
		{0, 1, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Translation creates a translation matrix.
func Translation(x, y, z float32) Mat4 {
	m := Identity()
	m[3][0], m[3][1], m[3][2] = x, y, z
	return m
}

// Scaling creates a scaling matrix.
func Scaling(x, y, z float32) Mat4 {
	return Mat4{
		{x, 0, 0, 0},
		{0, y, 0, 0},
		{0, 0, z, 0},
		{0, 0, 0, 1},
	}
}

func sincos(angle float32) (sin, cos float32) {
	s, c := math.Sincos(float64(angle))
	return float32(s), float32(c)
}

// RotationX rotates by angle radians about the x axis, clockwise when
// looking along +x.
func RotationX(angle float32) Mat4 {
	s, c := sincos(angle)
	return Mat4{
		{1, 0, 0, 0},
		{0, c, s, 0},
		{0, -s, c, 0},
		{0, 0, 0, 1},
	}
}

// RotationY rotates by angle radians about the y axis.
func RotationY(angle float32) Mat4 {
	s, c := sincos(angle)
	return Mat4{
		{c, 0, -s, 0},
		{0, 1, 0, 0},
		{s, 0, c, 0},
		{0, 0, 0, 1},
	}
}

// RotationZ rotates by angle radians about the z axis.
func RotationZ(angle float32) Mat4 {
	s, c := sincos(angle)
	return Mat4{
		{c, s, 0, 0},
		{-s, c, 0, 0},
		{0, 0, 1, 0},
		{0, 0, 0, 1},
	}
}

// Multiply returns m * o, the transform that applies m first.
func (m Mat4) Multiply(o Mat4) Mat4 {
	var r Mat4
	for i := range 4 {
		for j := range 4 {
			r[i][j] = m[i][0]*o[0][j] + m[i][1]*o[1][j] + m[i][2]*o[2][j] + m[i][3]*o[3][j]
		}
	}
	return r
}

// Transpose returns the transposed matrix. Shaders that expect
// column-major constants receive the transpose.
func (m Mat4) Transpose() Mat4 {
	var r Mat4
	for i := range 4 {
		for j := range 4 {
			r[i][j] = m[j][i]
		}
	}
	return r
}

// Transform returns the row vector v * m.
func (m Mat4) Transform(v Vec4) Vec4 {
	return Vec4{
		v.X*m[0][0] + v.Y*m[1][0] + v.Z*m[2][0] + v.W*m[3][0],
		v.X*m[0][1] + v.Y*m[1][1] + v.Z*m[2][1] + v.W*m[3][1],
		v.X*m[0][2] + v.Y*m[1][2] + v.Z*m[2][2] + v.W*m[3][2],
		v.X*m[0][3] + v.Y*m[1][3] + v.Z*m[2][3] + v.W*m[3][3],
	}
}

// TransformPoint transforms p (w = 1) and divides by w.
func (m Mat4) TransformPoint(p Vec3) Vec3 {
	return m.Transform(p.Point()).Project()
}

// Floats returns the 16 elements in row order, ready to be written into a
// constant buffer.
func (m Mat4) Floats() []float32 {
	out := make([]float32, 0, 16)
	for i := range 4 {
		out = append(out, m[i][:]...)
	}
	return out
}

// LookAtLH builds a left-handed view matrix for a camera at eye looking at
// target.
func LookAtLH(eye, target, up Vec3) Mat4 {
	z := target.Sub(eye).Normalize()
	x := up.Cross(z).Normalize()
	y := z.Cross(x)
	return Mat4{
		{x.X, y.X, z.X, 0},
		{x.Y, y.Y, z.Y, 0},
		{x.Z, y.Z, z.Z, 0},
		{-x.Dot(eye), -y.Dot(eye), -z.Dot(eye), 1},
	}
}

// PerspectiveFovLH builds a left-handed perspective projection. fovY is
// the vertical field of view in radians; depth maps near to 0 and far to 1.
func PerspectiveFovLH(fovY, aspect, near, far float32) Mat4 {
	s, c := sincos(fovY / 2)
	h := c / s
	w := h / aspect
	q := far / (far - near)
	return Mat4{
		{w, 0, 0, 0},
		{0, h, 0, 0},
		{0, 0, q, 1},
		{0, 0, -q * near, 0},
	}
}

// Reflect builds a matrix that mirrors points across plane.
func Reflect(plane Vec4) Mat4 {
	p := PlaneNormalize(plane)
	a, b, c, d := -2*p.X, -2*p.Y, -2*p.Z, -2*p.W
	return Mat4{
		{1 + a*p.X, b * p.X, c * p.X, 0},
		{a * p.Y, 1 + b*p.Y, c * p.Y, 0},
		{a * p.Z, b * p.Z, 1 + c*p.Z, 0},
		{d * p.X, d * p.Y, d * p.Z, 1},
	}
}

// Shadow builds a matrix that flattens geometry onto plane as seen from
// light. A light with w = 0 is directional; w = 1 is a point light.
func Shadow(plane, light Vec4) Mat4 {
	p := PlaneNormalize(plane)
	d := p.Dot(light)
	pl := [4]float32{p.X, p.Y, p.Z, p.W}
	l := [4]float32{light.X, light.Y, light.Z, light.W}
	var m Mat4
	for i := range 4 {
		for j := range 4 {
			m[i][j] = -pl[i] * l[j]
			if i == j {
				m[i][j] += d
			}
		}
	}
	return m
}
