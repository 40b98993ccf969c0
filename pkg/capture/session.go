package capture

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/jpeg" // frame decoding
	"sync"
	"sync/atomic"
	"time"

	"posemarket-be/pkg/apperrors"
	"posemarket-be/pkg/pose"
	"posemarket-be/pkg/pose/detector"
)

// Options configure one recording attempt. Width and Height come from
// the opened stream's native resolution and size the compositor.
type Options struct {
	Width, Height int
	Loader        detector.Loader
	Encoder       Encoder // defaults to MJPEG
	Redact        bool
	OnPreview     func(Preview) // called once per processed frame, may be nil
}

// Session is the live object owning camera feed, detector handle,
// compositor, encoder, and the pose frame buffer. Exactly one session
// is active per contributor; every acquisition path has a matching
// release through Close.
type Session struct {
	opts Options
	comp *Compositor
	enc  Encoder

	mu       sync.Mutex
	state    State
	det      detector.Detector
	buffer   []pose.Frame
	firstTS  time.Time
	lastTS   time.Time
	redact   bool

	// Single-slot inbox: a new frame overwrites an unconsumed one so a
	// slow detector degrades cadence, never ordering.
	inboxMu   sync.Mutex
	inboxCond *sync.Cond
	inbox     *RawFrame

	processed atomic.Uint64
	encoded   atomic.Uint64
	dropped   atomic.Uint64

	ctx    context.Context
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

// Open acquires the session around a live stream. A non-positive
// resolution means the client could not open a camera and maps to a
// device error.
func Open(ctx context.Context, opts Options) (*Session, error) {
	if opts.Width <= 0 || opts.Height <= 0 {
		return nil, apperrors.DeviceError(fmt.Errorf("no stream resolution (%dx%d)", opts.Width, opts.Height))
	}
	if opts.Loader == nil {
		return nil, fmt.Errorf("capture: loader is required")
	}
	if opts.Encoder == nil {
		opts.Encoder = NewMJPEGEncoder()
	}

	s := &Session{
		opts:   opts,
		comp:   NewCompositor(opts.Width, opts.Height),
		enc:    opts.Encoder,
		state:  StateDetecting,
		redact: opts.Redact,
	}
	s.inboxCond = sync.NewCond(&s.inboxMu)
	s.ctx, s.cancel = context.WithCancel(ctx)

	s.wg.Add(1)
	go s.loop()
	return s, nil
}

// EnsureDetector loads the shared pose model (idempotent; concurrent
// loads collapse in the loader). The session cannot record until this
// has succeeded: pose data is the product.
func (s *Session) EnsureDetector(ctx context.Context) error {
	det, err := s.opts.Loader.Load(ctx)
	if err != nil {
		return err
	}
	s.mu.Lock()
	s.det = det
	s.mu.Unlock()
	return nil
}

// Feed delivers one camera frame. Non-blocking; an unconsumed previous
// frame is dropped, not queued.
func (s *Session) Feed(f RawFrame) {
	s.inboxMu.Lock()
	if s.inbox != nil {
		s.dropped.Add(1)
	}
	s.inbox = &f
	s.inboxCond.Signal()
	s.inboxMu.Unlock()
}

// SetRedaction toggles the privacy blur. Takes effect on the next
// iteration, so recorded pixels and preview always agree.
func (s *Session) SetRedaction(on bool) {
	s.mu.Lock()
	s.redact = on
	s.mu.Unlock()
}

// StartRecording clears the frame buffer and begins encoding the
// composited surface. Fails when no detector is ready.
func (s *Session) StartRecording() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	switch {
	case s.state == StateClosed:
		return fmt.Errorf("capture: session closed")
	case s.state == StateRecording:
		return nil // re-entrant start is a no-op
	case s.det == nil:
		return apperrors.ErrNotReady
	}
	if err := s.enc.Start(s.comp.Width(), s.comp.Height()); err != nil {
		return err
	}
	s.buffer = s.buffer[:0]
	s.firstTS = time.Time{}
	s.state = StateRecording
	return nil
}

// StopRecording finalizes the encoder and snapshots the frame buffer.
// The session stays open for an immediate re-record; teardown happens
// only when the caller discards it via Close.
func (s *Session) StopRecording() (*Artifact, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state != StateRecording {
		return nil, fmt.Errorf("capture: not recording")
	}
	s.state = StateDetecting

	video, contentType, err := s.enc.Finalize()
	if err != nil {
		return nil, err
	}
	frames := make([]pose.Frame, len(s.buffer))
	copy(frames, s.buffer)
	s.buffer = s.buffer[:0]

	var dur time.Duration
	if len(frames) > 0 {
		dur = frames[len(frames)-1].Timestamp.Sub(frames[0].Timestamp)
	}
	return &Artifact{Video: video, ContentType: contentType, Frames: frames, Duration: dur}, nil
}

// Close cancels the loop, joins it, and clears buffers. Idempotent and
// required on every exit path; a leaked session keeps the client's
// camera indicator lit.
func (s *Session) Close() {
	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}
	s.state = StateClosed
	s.mu.Unlock()

	s.cancel()
	s.inboxCond.Broadcast()
	s.wg.Wait()

	s.mu.Lock()
	s.buffer = nil
	s.det = nil // shared handle released by the loader at shutdown
	s.mu.Unlock()
}

func (s *Session) State() State {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

func (s *Session) Stats() Stats {
	return Stats{
		Processed: s.processed.Load(),
		Encoded:   s.encoded.Load(),
		Dropped:   s.dropped.Load(),
	}
}

// loop is the cooperatively scheduled per-frame chain: one iteration
// per delivered frame, cancellable at any point.
func (s *Session) loop() {
	defer s.wg.Done()
	for {
		s.inboxMu.Lock()
		for s.inbox == nil {
			if s.ctx.Err() != nil {
				s.inboxMu.Unlock()
				return
			}
			s.inboxCond.Wait()
		}
		frame := s.inbox
		s.inbox = nil
		s.inboxMu.Unlock()

		if s.ctx.Err() != nil {
			return
		}
		s.iterate(frame)
	}
}

// iterate runs draw → redact → overlay → append → encode for one frame.
// The ordering inside a single iteration is the only synchronization
// between detection and encoding; it must never interleave across
// iterations.
func (s *Session) iterate(raw *RawFrame) {
	img, _, err := image.Decode(bytes.NewReader(raw.Data))
	if err != nil {
		// Corrupt frame from the wire; skip, the stream continues.
		return
	}

	// Inference runs outside the session lock so Start/Stop/Close are
	// never blocked behind a slow model.
	var kps []pose.Keypoint
	s.mu.Lock()
	det := s.det
	s.mu.Unlock()
	if det != nil {
		if got, err := det.Estimate(s.ctx, raw.Data); err == nil {
			kps = got
		}
		// Estimation failure degrades to an empty keypoint list: the
		// frame is still composited, encoded, and appended.
	}

	s.mu.Lock()
	if s.state == StateClosed {
		s.mu.Unlock()
		return
	}

	ts := raw.Timestamp
	if ts.IsZero() {
		ts = time.Now()
	}
	if ts.Before(s.lastTS) {
		ts = s.lastTS // keep the timeline monotonic
	}
	s.lastTS = ts
	pf := pose.Frame{Timestamp: ts, Keypoints: kps}

	s.comp.DrawFrame(img)
	redacted := false
	if s.redact {
		redacted = s.comp.Redact(pf)
	}
	s.comp.DrawSkeleton(pf)

	recording := s.state == StateRecording
	if recording {
		if s.firstTS.IsZero() {
			s.firstTS = ts
		}
		s.buffer = append(s.buffer, pf)
		if err := s.enc.WriteFrame(s.comp.Surface(), ts); err == nil {
			s.encoded.Add(1)
		} else {
			// Keep buffer and encoder aligned: drop the appended frame
			// when its pixels were not encoded.
			s.buffer = s.buffer[:len(s.buffer)-1]
		}
	}
	preview := s.opts.OnPreview
	s.mu.Unlock()

	s.processed.Add(1)
	if preview != nil {
		preview(Preview{Timestamp: ts, Keypoints: kps, Redacted: redacted, Recording: recording})
	}
}
