// Package pose holds the keypoint data model shared by the capture
// pipeline and the stored submission artifact.
package pose

import "time"

// MinConfidence is the reliability threshold. Points below it must be
// skipped when drawing skeleton edges or deriving geometry.
const MinConfidence = 0.3

// Landmark names follow the detector's output vocabulary.
const (
	Nose          = "nose"
	LeftEye       = "left_eye"
	RightEye      = "right_eye"
	LeftEar       = "left_ear"
	RightEar      = "right_ear"
	LeftShoulder  = "left_shoulder"
	RightShoulder = "right_shoulder"
	LeftElbow     = "left_elbow"
	RightElbow    = "right_elbow"
	LeftWrist     = "left_wrist"
	RightWrist    = "right_wrist"
	LeftHip       = "left_hip"
	RightHip      = "right_hip"
	LeftKnee      = "left_knee"
	RightKnee     = "right_knee"
	LeftAnkle     = "left_ankle"
	RightAnkle    = "right_ankle"
)

// Keypoint is one tracked body landmark in compositor pixel space.
type Keypoint struct {
	X          float64 `json:"x"`
	Y          float64 `json:"y"`
	Z          float64 `json:"z,omitempty"`
	Confidence float64 `json:"confidence,omitempty"`
	Name       string  `json:"name,omitempty"`
}

// Reliable reports whether the point clears the confidence threshold.
func (k Keypoint) Reliable() bool {
	return k.Confidence >= MinConfidence
}

// Frame is one timestamped snapshot of all keypoints for a single
// video frame. Timestamps are monotonically non-decreasing within a
// session; an empty keypoint list is a valid frame (subject out of
// view), not an error.
type Frame struct {
	Timestamp time.Time  `json:"timestamp"`
	Keypoints []Keypoint `json:"keypoints"`
}

// Find returns the named keypoint, reliable or not.
func (f Frame) Find(name string) (Keypoint, bool) {
	for _, k := range f.Keypoints {
		if k.Name == name {
			return k, true
		}
	}
	return Keypoint{}, false
}
