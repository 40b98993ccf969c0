package pose

import (
	"image"
	"math"
	"testing"
	"time"
)

func kp(name string, x, y, conf float64) Keypoint {
	return Keypoint{Name: name, X: x, Y: y, Confidence: conf}
}

func TestKeypointReliable(t *testing.T) {
	tests := []struct {
		name       string
		confidence float64
		want       bool
	}{
		{"well above threshold", 0.9, true},
		{"exactly at threshold", 0.3, true},
		{"just below threshold", 0.29, false},
		{"zero confidence", 0, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			k := Keypoint{Confidence: tt.confidence}
			if got := k.Reliable(); got != tt.want {
				t.Errorf("Reliable() with confidence %v = %v, want %v", tt.confidence, got, tt.want)
			}
		})
	}
}

func TestFrameFind(t *testing.T) {
	f := Frame{
		Timestamp: time.Now(),
		Keypoints: []Keypoint{
			kp(Nose, 10, 20, 0.9),
			kp(LeftWrist, 30, 40, 0.1),
		},
	}

	got, ok := f.Find(LeftWrist)
	if !ok {
		t.Fatal("Find(LeftWrist) should succeed even for unreliable points")
	}
	if got.X != 30 || got.Y != 40 {
		t.Errorf("Find(LeftWrist) = (%v, %v), want (30, 40)", got.X, got.Y)
	}

	if _, ok := f.Find(RightAnkle); ok {
		t.Error("Find(RightAnkle) should fail for a missing landmark")
	}
}

func TestFaceRegion(t *testing.T) {
	tests := []struct {
		name      string
		keypoints []Keypoint
		wantOK    bool
	}{
		{
			name: "two reliable face points",
			keypoints: []Keypoint{
				kp(LeftEye, 90, 100, 0.8),
				kp(RightEye, 110, 100, 0.8),
			},
			wantOK: true,
		},
		{
			name: "one reliable face point",
			keypoints: []Keypoint{
				kp(Nose, 100, 100, 0.9),
				kp(LeftEye, 90, 95, 0.1),
			},
			wantOK: false,
		},
		{
			name:      "no keypoints",
			keypoints: nil,
			wantOK:    false,
		},
		{
			name: "body points only",
			keypoints: []Keypoint{
				kp(LeftShoulder, 80, 200, 0.9),
				kp(RightShoulder, 120, 200, 0.9),
			},
			wantOK: false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, ok := FaceRegion(Frame{Keypoints: tt.keypoints}, 640, 480)
			if ok != tt.wantOK {
				t.Errorf("FaceRegion ok = %v, want %v", ok, tt.wantOK)
			}
		})
	}
}

func TestFaceRegionPadding(t *testing.T) {
	f := Frame{Keypoints: []Keypoint{
		kp(LeftEye, 100, 100, 0.9),
		kp(RightEye, 140, 100, 0.9),
		kp(Nose, 120, 120, 0.9),
	}}

	r, ok := FaceRegion(f, 640, 480)
	if !ok {
		t.Fatal("FaceRegion should succeed with three reliable points")
	}

	raw := image.Rect(100, 100, 140, 120)
	if !raw.In(r) {
		t.Errorf("padded region %v should contain the raw extent %v", r, raw)
	}
	// Vertical padding exceeds horizontal so the box covers forehead and chin.
	if r.Min.Y >= raw.Min.Y || r.Max.Y <= raw.Max.Y {
		t.Errorf("region %v should extend above and below the raw extent %v", r, raw)
	}
}

func TestFaceRegionClampsToFrame(t *testing.T) {
	f := Frame{Keypoints: []Keypoint{
		kp(LeftEye, 2, 3, 0.9),
		kp(RightEye, 25, 3, 0.9),
	}}

	r, ok := FaceRegion(f, 640, 480)
	if !ok {
		t.Fatal("FaceRegion should succeed near the frame edge")
	}
	bounds := image.Rect(0, 0, 640, 480)
	if !r.In(bounds) {
		t.Errorf("region %v should be clamped inside %v", r, bounds)
	}
}

func TestEdges(t *testing.T) {
	f := Frame{Keypoints: []Keypoint{
		kp(LeftShoulder, 80, 200, 0.9),
		kp(RightShoulder, 120, 200, 0.9),
		kp(LeftElbow, 70, 250, 0.2), // unreliable
		kp(LeftHip, 85, 300, 0.9),
		kp(RightHip, 115, 300, 0.9),
	}}

	edges := Edges(f)

	// shoulder-shoulder, shoulder-hip x2, hip-hip. The elbow edge must be
	// dropped because one endpoint is unreliable.
	if len(edges) != 4 {
		t.Fatalf("Edges() returned %d edges, want 4", len(edges))
	}
	for _, e := range edges {
		if !e[0].Reliable() || !e[1].Reliable() {
			t.Errorf("edge %v-%v has an unreliable endpoint", e[0].Name, e[1].Name)
		}
	}
}

func TestEdgesEmptyFrame(t *testing.T) {
	if got := Edges(Frame{}); len(got) != 0 {
		t.Errorf("Edges of an empty frame = %d edges, want 0", len(got))
	}
}

func TestSignatureDimension(t *testing.T) {
	tests := []struct {
		name   string
		frames []Frame
	}{
		{"no frames", nil},
		{"empty frames", []Frame{{}, {}}},
		{"single landmark", []Frame{{Keypoints: []Keypoint{kp(Nose, 50, 50, 0.9)}}}},
		{"full body", []Frame{{Keypoints: fullBody(100, 100)}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			sig := Signature(tt.frames)
			if len(sig) != SignatureDim {
				t.Errorf("len(Signature) = %d, want %d", len(sig), SignatureDim)
			}
		})
	}
}

func TestSignatureIgnoresUnreliablePoints(t *testing.T) {
	frames := []Frame{{Keypoints: []Keypoint{
		kp(Nose, 50, 50, 0.9),
		kp(LeftWrist, 999, 999, 0.05),
	}}}

	sig := Signature(frames)

	// left_wrist occupies slots 18 and 19 of the descriptor; an
	// unreliable-only landmark must contribute zeros.
	if sig[18] != 0 || sig[19] != 0 {
		t.Errorf("unreliable landmark contributed (%v, %v), want zeros", sig[18], sig[19])
	}
}

func TestSignatureFramingInvariance(t *testing.T) {
	base := []Frame{{Keypoints: fullBody(0, 0)}}
	shifted := []Frame{{Keypoints: fullBody(300, 120)}}

	a := Signature(base)
	b := Signature(shifted)

	for i := range a {
		if math.Abs(float64(a[i]-b[i])) > 1e-4 {
			t.Fatalf("descriptor differs at %d after translation: %v vs %v", i, a[i], b[i])
		}
	}
}

// fullBody lays every landmark on a simple grid offset by (dx, dy).
func fullBody(dx, dy float64) []Keypoint {
	names := []string{
		Nose, LeftEye, RightEye, LeftEar, RightEar,
		LeftShoulder, RightShoulder, LeftElbow, RightElbow,
		LeftWrist, RightWrist, LeftHip, RightHip,
		LeftKnee, RightKnee, LeftAnkle, RightAnkle,
	}
	out := make([]Keypoint, 0, len(names))
	for i, n := range names {
		out = append(out, kp(n, dx+float64(i%4)*30, dy+float64(i/4)*40, 0.9))
	}
	return out
}
