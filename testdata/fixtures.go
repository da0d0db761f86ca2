// Package testdata builds synthetic skeletons and frames for tests.
package testdata

import (
	"math"

	"gocv.io/x/gocv"

	"github.com/ayusman/posetris/internal/detector"
	"github.com/ayusman/posetris/internal/pose"
)

// Frame dimensions of synthesized poses.
const (
	FrameWidth  = 640
	FrameHeight = 480
)

const (
	shoulderY      = 120.0
	hipY           = 240.0
	shoulderOffset = 20.0
	hipOffset      = 15.0
	segment        = 60.0
)

// PoseForAngles synthesizes a complete 33-joint skeleton whose limb angles equal the
// given angles. Missing limbs default to a relaxed standing posture. The shoulder
// midpoint sits at centerX.
func PoseForAngles(angles pose.Angles, centerX float64) *detector.Pose {
	joints := make([]detector.Joint, detector.NumLandmarks)
	for i := range joints {
		joints[i] = detector.Joint{ID: i, X: centerX, Y: 60, Visibility: 1}
	}

	place := func(id int, x, y float64) {
		joints[id] = detector.Joint{ID: id, X: x, Y: y, Visibility: 1}
	}

	// The landmark the model labels "left" appears on the right of the mirrored frame.
	build := func(side float64, arm, leg, body pose.Limb, shoulder, elbow, wrist, hip, knee, ankle int) {
		s := detector.Joint{X: centerX + side*shoulderOffset, Y: shoulderY}
		h := detector.Joint{X: centerX + side*hipOffset, Y: hipY}
		k := extend(h, s, angleOr(angles, body, 180))
		a := extend(k, h, angleOr(angles, leg, 180))
		e := detector.Joint{X: s.X + side*segment*0.5, Y: s.Y + segment*0.8}
		w := extend(e, s, angleOr(angles, arm, 180))

		place(shoulder, s.X, s.Y)
		place(hip, h.X, h.Y)
		place(knee, k.X, k.Y)
		place(ankle, a.X, a.Y)
		place(elbow, e.X, e.Y)
		place(wrist, w.X, w.Y)
	}

	build(-1, pose.RightArm, pose.RightLeg, pose.RightBody,
		detector.LeftShoulder, detector.LeftElbow, detector.LeftWrist,
		detector.LeftHip, detector.LeftKnee, detector.LeftAnkle)
	build(1, pose.LeftArm, pose.LeftLeg, pose.LeftBody,
		detector.RightShoulder, detector.RightElbow, detector.RightWrist,
		detector.RightHip, detector.RightKnee, detector.RightAnkle)

	return &detector.Pose{Joints: joints, FrameWidth: FrameWidth, FrameHeight: FrameHeight}
}

// extend places a joint one segment from mid so that the angle measured at mid, from
// the segment toward from to the new segment, equals deg.
func extend(mid, from detector.Joint, deg float64) detector.Joint {
	phi := math.Atan2(from.Y-mid.Y, from.X-mid.X) + deg*math.Pi/180
	return detector.Joint{
		X: mid.X + segment*math.Cos(phi),
		Y: mid.Y + segment*math.Sin(phi),
	}
}

func angleOr(angles pose.Angles, limb pose.Limb, fallback float64) float64 {
	if v, ok := angles[limb]; ok {
		return v
	}
	return fallback
}

// BlankFrame returns a black BGR frame of the synthesized pose dimensions. The caller
// must close it.
func BlankFrame() gocv.Mat {
	return gocv.NewMatWithSize(FrameHeight, FrameWidth, gocv.MatTypeCV8UC3)
}
