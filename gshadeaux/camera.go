package gshadeaux

import (
	"errors"

	math "github.com/chewxy/math32"
	"github.com/soypat/geometry/ms3"
	"github.com/soypat/glgl/math/ms1"
)

const maxPitch = 1.5

// OrbitCamera is a perspective camera orbiting a target point. Yaw rotates about the
// Y axis starting at +Z and Pitch elevates the camera above the XZ plane.
type OrbitCamera struct {
	Target   ms3.Vec
	Yaw      float32
	Pitch    float32
	Distance float32
	// FOV is the vertical field of view in radians.
	FOV       float32
	Near, Far float32
	// MinDistance and MaxDistance bound [OrbitCamera.Zoom]. Unbounded when zero.
	MinDistance, MaxDistance float32
}

// NewOrbitCamera returns a camera looking at target from position eye.
func NewOrbitCamera(eye, target ms3.Vec, fovDegrees float32) (*OrbitCamera, error) {
	d := ms3.Sub(eye, target)
	dist := ms3.Norm(d)
	if dist == 0 || math.IsNaN(dist) {
		return nil, errors.New("camera eye and target must be distinct")
	} else if fovDegrees <= 0 || fovDegrees >= 180 {
		return nil, errors.New("field of view must be in (0,180) degrees")
	}
	cam := &OrbitCamera{
		Target:   target,
		Yaw:      math.Atan2(d.X, d.Z),
		Pitch:    ms1.Clamp(math.Asin(d.Y/dist), -maxPitch, maxPitch),
		Distance: dist,
		FOV:      fovDegrees * math.Pi / 180,
		Near:     0.1,
		Far:      1000,
	}
	return cam, nil
}

// Position returns the camera's world position.
func (c *OrbitCamera) Position() ms3.Vec {
	sp, cp := math.Sincos(c.Pitch)
	sy, cy := math.Sincos(c.Yaw)
	dir := ms3.Vec{X: cp * sy, Y: sp, Z: cp * cy}
	return ms3.Add(c.Target, ms3.Scale(c.Distance, dir))
}

// Orbit rotates the camera about its target. Pitch is clamped short of the poles.
func (c *OrbitCamera) Orbit(dyaw, dpitch float32) {
	c.Yaw += dyaw
	c.Pitch = ms1.Clamp(c.Pitch+dpitch, -maxPitch, maxPitch)
}

// Zoom scales the distance to the target by factor.
func (c *OrbitCamera) Zoom(factor float32) {
	c.Distance *= factor
	if c.MinDistance > 0 && c.Distance < c.MinDistance {
		c.Distance = c.MinDistance
	}
	if c.MaxDistance > 0 && c.Distance > c.MaxDistance {
		c.Distance = c.MaxDistance
	}
}

// ViewMatrix returns the world to view transform in column-major order.
func (c *OrbitCamera) ViewMatrix() [16]float32 {
	return lookAt(c.Position(), c.Target, ms3.Vec{Y: 1})
}

// ProjectionMatrix returns the perspective projection for the given width/height aspect ratio
// in column-major order.
func (c *OrbitCamera) ProjectionMatrix(aspect float32) [16]float32 {
	return perspective(c.FOV, aspect, c.Near, c.Far)
}

func perspective(fovY, aspect, near, far float32) (m [16]float32) {
	f := 1 / math.Tan(fovY/2)
	m[0] = f / aspect
	m[5] = f
	m[10] = -(far + near) / (far - near)
	m[11] = -1
	m[14] = -(2 * far * near) / (far - near)
	return m
}

func lookAt(eye, target, up ms3.Vec) [16]float32 {
	z := ms3.Unit(ms3.Sub(eye, target))
	x := ms3.Unit(cross(up, z))
	y := cross(z, x)
	return [16]float32{
		x.X, y.X, z.X, 0,
		x.Y, y.Y, z.Y, 0,
		x.Z, y.Z, z.Z, 0,
		-ms3.Dot(x, eye), -ms3.Dot(y, eye), -ms3.Dot(z, eye), 1,
	}
}

func cross(a, b ms3.Vec) ms3.Vec {
	return ms3.Vec{
		X: a.Y*b.Z - a.Z*b.Y,
		Y: a.Z*b.X - a.X*b.Z,
		Z: a.X*b.Y - a.Y*b.X,
	}
}

// identityMat4 is the column-major identity model transform.
var identityMat4 = [16]float32{1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1, 0, 0, 0, 0, 1}
