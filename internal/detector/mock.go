package detector

import (
	"sync"

	"gocv.io/x/gocv"
)

// MockDetector is a test implementation of the Detector interface.
// It allows tests to control the detection results.
type MockDetector struct {
	mu    sync.Mutex
	pose  *Pose
	err   error
	calls int
}

// NewMockDetector creates a new MockDetector instance.
func NewMockDetector() *MockDetector {
	return &MockDetector{}
}

// SetPose sets the pose that will be returned by Detect. A nil pose means no detection.
func (m *MockDetector) SetPose(p *Pose) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.pose = p
}

// SetError sets the error that will be returned by Detect.
func (m *MockDetector) SetError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.err = err
}

// Calls returns how many times Detect has been invoked.
func (m *MockDetector) Calls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// Detect returns the pre-configured pose or error.
func (m *MockDetector) Detect(frame *gocv.Mat) (*Pose, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.pose, nil
}

// Close is a no-op for the mock detector.
func (m *MockDetector) Close() error {
	return nil
}

// StandingPose returns a preset pose of a player standing upright with arms hanging,
// centered at centerX in a 640x480 frame.
func StandingPose(centerX float64) *Pose {
	p := &Pose{
		Joints:      make([]Joint, NumLandmarks),
		FrameWidth:  640,
		FrameHeight: 480,
	}

	set := func(id int, dx, y float64) {
		p.Joints[id] = Joint{ID: id, X: centerX + dx, Y: y, Visibility: 0.99}
	}

	// Head
	set(Nose, 0, 60)
	set(LeftEyeInner, -4, 54)
	set(LeftEye, -8, 54)
	set(LeftEyeOuter, -12, 54)
	set(RightEyeInner, 4, 54)
	set(RightEye, 8, 54)
	set(RightEyeOuter, 12, 54)
	set(LeftEar, -18, 58)
	set(RightEar, 18, 58)
	set(MouthLeft, -6, 72)
	set(MouthRight, 6, 72)

	// Arms hanging straight down
	set(LeftShoulder, -40, 110)
	set(RightShoulder, 40, 110)
	set(LeftElbow, -44, 170)
	set(RightElbow, 44, 170)
	set(LeftWrist, -46, 230)
	set(RightWrist, 46, 230)
	set(LeftPinky, -48, 242)
	set(RightPinky, 48, 242)
	set(LeftIndex, -46, 246)
	set(RightIndex, 46, 246)
	set(LeftThumb, -42, 240)
	set(RightThumb, 42, 240)

	// Legs straight
	set(LeftHip, -25, 250)
	set(RightHip, 25, 250)
	set(LeftKnee, -26, 340)
	set(RightKnee, 26, 340)
	set(LeftAnkle, -27, 430)
	set(RightAnkle, 27, 430)
	set(LeftHeel, -28, 440)
	set(RightHeel, 28, 440)
	set(LeftFootIndex, -34, 448)
	set(RightFootIndex, 34, 448)

	return p
}
