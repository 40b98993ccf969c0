// Package detector wraps the external pose-estimation capability. The
// model is a process-scoped resource: loaded once, reused by every
// capture session, released only at shutdown.
package detector

import (
	"context"

	"posemarket-be/pkg/pose"
)

// Detector is the inference contract. Estimate may be slow or fail; the
// capture loop tolerates both.
type Detector interface {
	// Estimate returns the body keypoints for one JPEG frame. A nil or
	// empty slice means no person detected and is not an error.
	Estimate(ctx context.Context, frameJPEG []byte) ([]pose.Keypoint, error)
}

// Loader hands out the shared detector, initializing it on first use.
type Loader interface {
	// Load is idempotent; concurrent calls collapse into the one
	// in-flight initialization. Fails with apperrors.ErrModelLoad.
	Load(ctx context.Context) (Detector, error)

	// Ready reports whether a detector has been loaded successfully.
	Ready() bool

	// Release frees the shared handle. Called at process shutdown.
	Release()
}
