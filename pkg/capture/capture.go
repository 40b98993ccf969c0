// Package capture coordinates one recording attempt: a remote camera
// feeding frames, the shared pose detector, a compositor surface, and a
// video encoder. It produces a (video bytes, pose frame sequence) pair
// whose pixels and keypoint timeline refer to the same visual frames,
// with privacy redaction baked into the recorded bytes when enabled.
//
// Frame delivery follows a drop-never-queue policy: the inbox is a
// single slot and a slow iteration loses frames instead of building a
// backlog, so the keypoint timeline can never drift from the encoded
// frames.
package capture

import (
	"time"

	"posemarket-be/pkg/pose"
)

// State of a session. Transitions are triggered by external calls, not
// by the loop itself.
type State int32

const (
	StateIdle State = iota
	StateDetecting
	StateRecording
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateDetecting:
		return "detecting"
	case StateRecording:
		return "recording"
	case StateClosed:
		return "closed"
	}
	return "unknown"
}

// RawFrame is one camera frame as delivered by the client.
// Data is JPEG-encoded and must not be modified after Feed.
type RawFrame struct {
	Data      []byte
	Timestamp time.Time
}

// Preview is emitted once per processed frame for the live overlay.
type Preview struct {
	Timestamp time.Time
	Keypoints []pose.Keypoint
	Redacted  bool
	Recording bool
}

// Artifact is the finished hand-off of one recording.
type Artifact struct {
	Video       []byte
	ContentType string
	Frames      []pose.Frame
	Duration    time.Duration
}

// Stats is a snapshot of session counters.
type Stats struct {
	Processed uint64
	Encoded   uint64
	Dropped   uint64
}
