// Package geo provides the 3D geometry primitives used by the simulation
// engine: rectangular and spherical vectors, rotation matrices, and
// time-interpolated motion and rotation paths.
package geo

import "math"

// Vec3 is a vector in rectangular coordinates.
type Vec3 struct {
	X, Y, Z float64
}

// Add returns the componentwise sum a+b.
func (a Vec3) Add(b Vec3) Vec3 { return Vec3{a.X + b.X, a.Y + b.Y, a.Z + b.Z} }

// Sub returns the componentwise difference a-b.
func (a Vec3) Sub(b Vec3) Vec3 { return Vec3{a.X - b.X, a.Y - b.Y, a.Z - b.Z} }

// Mul returns the componentwise product a*b.
func (a Vec3) Mul(b Vec3) Vec3 { return Vec3{a.X * b.X, a.Y * b.Y, a.Z * b.Z} }

// Scale returns the vector scaled by s.
func (a Vec3) Scale(s float64) Vec3 { return Vec3{a.X * s, a.Y * s, a.Z * s} }

// Neg returns the negated vector.
func (a Vec3) Neg() Vec3 { return Vec3{-a.X, -a.Y, -a.Z} }

// Dot returns the dot product of a and b.
func (a Vec3) Dot(b Vec3) float64 { return a.X*b.X + a.Y*b.Y + a.Z*b.Z }

// Length returns the magnitude of the vector.
func (a Vec3) Length() float64 { return math.Sqrt(a.X*a.X + a.Y*a.Y + a.Z*a.Z) }

// SVec3 is a vector in spherical coordinates. Azimuth and elevation are in
// radians, counter-clockwise from East; conversion to compass degrees happens
// only at serialization boundaries.
type SVec3 struct {
	Length    float64
	Azimuth   float64
	Elevation float64
}

// ToSVec converts a rectangular vector to spherical coordinates.
func ToSVec(v Vec3) SVec3 {
	length := v.Length()
	var az, el float64
	if length > 0 {
		az = math.Atan2(v.Y, v.X)
		el = math.Asin(v.Z / length)
	}
	return SVec3{Length: length, Azimuth: az, Elevation: el}
}

// ToVec converts a spherical vector to rectangular coordinates.
func ToVec(s SVec3) Vec3 {
	return Vec3{
		X: s.Length * math.Cos(s.Azimuth) * math.Cos(s.Elevation),
		Y: s.Length * math.Sin(s.Azimuth) * math.Cos(s.Elevation),
		Z: s.Length * math.Sin(s.Elevation),
	}
}

// Unit returns the direction of s with unit length.
func (s SVec3) Unit() SVec3 { s.Length = 1; return s }

// Add returns the componentwise sum of the angle parts; lengths add too.
func (s SVec3) Add(b SVec3) SVec3 {
	return SVec3{s.Length + b.Length, s.Azimuth + b.Azimuth, s.Elevation + b.Elevation}
}

// Mat3 is a 3x3 matrix in row-major order.
type Mat3 [9]float64

// RotationZ returns the matrix rotating about the z axis by theta radians.
func RotationZ(theta float64) Mat3 {
	c, s := math.Cos(theta), math.Sin(theta)
	return Mat3{c, -s, 0, s, c, 0, 0, 0, 1}
}

// Apply multiplies the matrix with v.
func (m Mat3) Apply(v Vec3) Vec3 {
	return Vec3{
		X: m[0]*v.X + m[1]*v.Y + m[2]*v.Z,
		Y: m[3]*v.X + m[4]*v.Y + m[5]*v.Z,
		Z: m[6]*v.X + m[7]*v.Y + m[8]*v.Z,
	}
}
