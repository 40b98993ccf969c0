package dto

import (
	"posemarket-be/pkg/pose"
)

// Capture websocket protocol. The client sends CaptureClientMessage
// frames; the server replies with CaptureServerMessage frames. Binary
// JPEG payloads ride in the Frame field base64-encoded by encoding/json.

type CaptureClientMessage struct {
	// Type is one of: open, frame, redact, start, stop, close.
	Type        string `json:"type"`
	TaskId      string `json:"task_id,omitempty"`
	Width       int    `json:"width,omitempty"`
	Height      int    `json:"height,omitempty"`
	Frame       []byte `json:"frame,omitempty"`
	TimestampMs int64  `json:"timestamp_ms,omitempty"`
	Redact      bool   `json:"redact"`
}

type CaptureServerMessage struct {
	// Type is one of: ready, pose, recording, artifact, error.
	Type        string           `json:"type"`
	Keypoints   []pose.Keypoint  `json:"keypoints,omitempty"`
	TimestampMs int64            `json:"timestamp_ms,omitempty"`
	Redacted    bool             `json:"redacted,omitempty"`
	Recording   bool             `json:"recording,omitempty"`
	Artifact    *CaptureArtifact `json:"artifact,omitempty"`
	Error       string           `json:"error,omitempty"`
}

type CaptureArtifact struct {
	VideoURL    string `json:"video_url"`
	PoseDataURL string `json:"pose_data_url"`
	FrameCount  int    `json:"frame_count"`
	DurationMs  int64  `json:"duration_ms"`
	Redacted    bool   `json:"redacted"`
}
