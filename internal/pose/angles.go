// Package pose turns body landmarks into limb angles and scores them against
// block templates.
package pose

import (
	"math"

	"github.com/ayusman/posetris/internal/detector"
)

// Limb names one of the six measured limb/torso angles.
type Limb string

// Limb names follow the mirrored camera view, so the landmark the model calls
// "left shoulder" drives the player's on-screen right arm.
const (
	RightArm  Limb = "right_arm"
	LeftArm   Limb = "left_arm"
	RightLeg  Limb = "right_leg"
	LeftLeg   Limb = "left_leg"
	RightBody Limb = "right_body"
	LeftBody  Limb = "left_body"
)

// Limbs lists every limb in a fixed order.
var Limbs = []Limb{RightArm, LeftArm, RightLeg, LeftLeg, RightBody, LeftBody}

// Valid reports whether l is one of the six known limbs.
func (l Limb) Valid() bool {
	for _, known := range Limbs {
		if l == known {
			return true
		}
	}
	return false
}

// triple is the outer, middle and outer joint of a limb. The angle is measured at Mid.
type triple struct {
	A, Mid, B int
}

var limbJoints = map[Limb]triple{
	RightArm:  {detector.LeftShoulder, detector.LeftElbow, detector.LeftWrist},
	LeftArm:   {detector.RightShoulder, detector.RightElbow, detector.RightWrist},
	RightLeg:  {detector.LeftHip, detector.LeftKnee, detector.LeftAnkle},
	LeftLeg:   {detector.RightHip, detector.RightKnee, detector.RightAnkle},
	RightBody: {detector.LeftShoulder, detector.LeftHip, detector.LeftKnee},
	LeftBody:  {detector.RightShoulder, detector.RightHip, detector.RightKnee},
}

// Joints returns the landmark IDs that define the limb angle; the angle is taken at mid.
func (l Limb) Joints() (a, mid, b int, ok bool) {
	t, ok := limbJoints[l]
	return t.A, t.Mid, t.B, ok
}

// Angles maps limbs to angles in degrees within [0,360).
type Angles map[Limb]float64

// Clone returns a copy of the angle set.
func (a Angles) Clone() Angles {
	if a == nil {
		return nil
	}
	c := make(Angles, len(a))
	for k, v := range a {
		c[k] = v
	}
	return c
}

// Extract computes the six limb angles of a pose. It reports false when fewer than
// detector.MinJoints joints are present or a required joint is missing.
func Extract(joints []detector.Joint) (Angles, bool) {
	if len(joints) < detector.MinJoints {
		return nil, false
	}

	p := &detector.Pose{Joints: joints}
	angles := make(Angles, len(Limbs))
	for _, limb := range Limbs {
		t := limbJoints[limb]
		a, okA := p.Joint(t.A)
		m, okM := p.Joint(t.Mid)
		b, okB := p.Joint(t.B)
		if !okA || !okM || !okB {
			return nil, false
		}
		angles[limb] = JointAngle(a, m, b)
	}
	return angles, true
}

// JointAngle returns the signed angle in degrees from segment mid→a to segment mid→b,
// normalized to [0,360).
func JointAngle(a, mid, b detector.Joint) float64 {
	deg := (math.Atan2(b.Y-mid.Y, b.X-mid.X) - math.Atan2(a.Y-mid.Y, a.X-mid.X)) * 180 / math.Pi
	return Normalize(deg)
}

// Normalize maps any angle in degrees into [0,360).
func Normalize(deg float64) float64 {
	deg = math.Mod(deg, 360)
	if deg < 0 {
		deg += 360
	}
	if deg >= 360 {
		deg = 0
	}
	return deg
}
