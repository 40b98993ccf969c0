package capture

import (
	"bytes"
	"fmt"
	"image"
	"image/jpeg"
	"time"
)

// Encoder consumes the composited surface and produces a single video
// artifact. It is an independent producer only synchronized with the
// detection loop by iteration order: the loop finishes drawing before
// it yields the surface, never across iterations.
type Encoder interface {
	Start(width, height int) error
	// WriteFrame encodes one composited frame. The image is only valid
	// for the duration of the call.
	WriteFrame(img *image.RGBA, ts time.Time) error
	// Finalize flushes and returns the artifact bytes with their
	// content type. The encoder can be Start-ed again afterwards.
	Finalize() ([]byte, string, error)
	FrameCount() int
}

// MJPEGEncoder writes a multipart MJPEG stream. Chosen over a real
// container format because the artifact only needs to be replayable by
// the review UI and frame-countable by tests.
type MJPEGEncoder struct {
	Quality int

	buf     bytes.Buffer
	started bool
	frames  int
}

const mjpegBoundary = "posemarketframe"

func NewMJPEGEncoder() *MJPEGEncoder {
	return &MJPEGEncoder{Quality: 80}
}

func (e *MJPEGEncoder) Start(width, height int) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("invalid encoder dimensions %dx%d", width, height)
	}
	e.buf.Reset()
	e.frames = 0
	e.started = true
	return nil
}

func (e *MJPEGEncoder) WriteFrame(img *image.RGBA, ts time.Time) error {
	if !e.started {
		return fmt.Errorf("encoder not started")
	}
	var frame bytes.Buffer
	if err := jpeg.Encode(&frame, img, &jpeg.Options{Quality: e.Quality}); err != nil {
		return err
	}
	fmt.Fprintf(&e.buf, "--%s\r\nContent-Type: image/jpeg\r\nContent-Length: %d\r\nX-Timestamp: %d\r\n\r\n",
		mjpegBoundary, frame.Len(), ts.UnixMilli())
	e.buf.Write(frame.Bytes())
	e.buf.WriteString("\r\n")
	e.frames++
	return nil
}

func (e *MJPEGEncoder) Finalize() ([]byte, string, error) {
	if !e.started {
		return nil, "", fmt.Errorf("encoder not started")
	}
	fmt.Fprintf(&e.buf, "--%s--\r\n", mjpegBoundary)
	e.started = false

	out := make([]byte, e.buf.Len())
	copy(out, e.buf.Bytes())
	e.buf.Reset()
	return out, "multipart/x-mixed-replace; boundary=" + mjpegBoundary, nil
}

func (e *MJPEGEncoder) FrameCount() int {
	return e.frames
}
