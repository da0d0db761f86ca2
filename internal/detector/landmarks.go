// Package detector provides body pose detection interfaces and types.
package detector

// Body landmark indices following the MediaPipe Pose convention.
// See: https://developers.google.com/mediapipe/solutions/vision/pose_landmarker
const (
	Nose           = 0
	LeftEyeInner   = 1
	LeftEye        = 2
	LeftEyeOuter   = 3
	RightEyeInner  = 4
	RightEye       = 5
	RightEyeOuter  = 6
	LeftEar        = 7
	RightEar       = 8
	MouthLeft      = 9
	MouthRight     = 10
	LeftShoulder   = 11
	RightShoulder  = 12
	LeftElbow      = 13
	RightElbow     = 14
	LeftWrist      = 15
	RightWrist     = 16
	LeftPinky      = 17
	RightPinky     = 18
	LeftIndex      = 19
	RightIndex     = 20
	LeftThumb      = 21
	RightThumb     = 22
	LeftHip        = 23
	RightHip       = 24
	LeftKnee       = 25
	RightKnee      = 26
	LeftAnkle      = 27
	RightAnkle     = 28
	LeftHeel       = 29
	RightHeel      = 30
	LeftFootIndex  = 31
	RightFootIndex = 32
	NumLandmarks   = 33
)

// MinJoints is the number of joints below which a detection is treated as no pose.
const MinJoints = 32

// Joint is a labeled landmark in camera pixel space.
type Joint struct {
	ID         int     `json:"id"`
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z"`
	Visibility float64 `json:"visibility"`
}

// Pose is one detected body: its joints plus the size of the frame they were measured in.
type Pose struct {
	Joints      []Joint `json:"joints"`
	FrameWidth  int     `json:"frame_width"`
	FrameHeight int     `json:"frame_height"`
}

// Joint returns the joint with the given landmark ID.
func (p *Pose) Joint(id int) (Joint, bool) {
	if p == nil {
		return Joint{}, false
	}
	// Detectors emit joints in landmark order, so try the direct index first.
	if id >= 0 && id < len(p.Joints) && p.Joints[id].ID == id {
		return p.Joints[id], true
	}
	for _, j := range p.Joints {
		if j.ID == id {
			return j, true
		}
	}
	return Joint{}, false
}

// Complete reports whether enough joints were detected to treat the frame as an observation.
func (p *Pose) Complete() bool {
	return p != nil && len(p.Joints) >= MinJoints
}

// ShoulderCenterX returns the mean horizontal position of the two shoulder landmarks.
func (p *Pose) ShoulderCenterX() (float64, bool) {
	l, okL := p.Joint(LeftShoulder)
	r, okR := p.Joint(RightShoulder)
	if !okL || !okR {
		return 0, false
	}
	return (l.X + r.X) / 2, true
}
