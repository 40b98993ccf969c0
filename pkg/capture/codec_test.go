package capture

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"testing"
	"time"
)

// testJPEG encodes a small solid-color frame.
func testJPEG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for i := range img.Pix {
		img.Pix[i] = 200
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, nil); err != nil {
		t.Fatalf("encode test frame: %v", err)
	}
	return buf.Bytes()
}

func TestMJPEGRoundTrip(t *testing.T) {
	enc := NewMJPEGEncoder()
	if err := enc.Start(32, 24); err != nil {
		t.Fatalf("Start: %v", err)
	}

	surface := image.NewRGBA(image.Rect(0, 0, 32, 24))
	base := time.Now()
	for i := 0; i < 5; i++ {
		surface.SetRGBA(i, i, color.RGBA{R: uint8(i * 40), A: 255})
		if err := enc.WriteFrame(surface, base.Add(time.Duration(i)*33*time.Millisecond)); err != nil {
			t.Fatalf("WriteFrame %d: %v", i, err)
		}
	}
	if enc.FrameCount() != 5 {
		t.Errorf("FrameCount = %d, want 5", enc.FrameCount())
	}

	video, contentType, err := enc.Finalize()
	if err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if contentType != "multipart/x-mixed-replace; boundary=posemarketframe" {
		t.Errorf("unexpected content type %q", contentType)
	}

	frames, err := DecodeFrames(video)
	if err != nil {
		t.Fatalf("DecodeFrames: %v", err)
	}
	if len(frames) != 5 {
		t.Fatalf("decoded %d frames, want 5", len(frames))
	}
	for i, f := range frames {
		img, err := jpeg.Decode(bytes.NewReader(f))
		if err != nil {
			t.Fatalf("frame %d is not valid JPEG: %v", i, err)
		}
		if img.Bounds().Dx() != 32 || img.Bounds().Dy() != 24 {
			t.Errorf("frame %d bounds = %v, want 32x24", i, img.Bounds())
		}
	}
}

func TestMJPEGEncoderLifecycle(t *testing.T) {
	enc := NewMJPEGEncoder()

	if err := enc.WriteFrame(image.NewRGBA(image.Rect(0, 0, 8, 8)), time.Now()); err == nil {
		t.Error("WriteFrame before Start should fail")
	}
	if _, _, err := enc.Finalize(); err == nil {
		t.Error("Finalize before Start should fail")
	}
	if err := enc.Start(0, 8); err == nil {
		t.Error("Start with zero width should fail")
	}

	// Restartable after Finalize.
	if err := enc.Start(8, 8); err != nil {
		t.Fatalf("Start: %v", err)
	}
	if _, _, err := enc.Finalize(); err != nil {
		t.Fatalf("Finalize: %v", err)
	}
	if err := enc.Start(8, 8); err != nil {
		t.Fatalf("re-Start after Finalize: %v", err)
	}
}

func TestSampleFrames(t *testing.T) {
	frames := make([][]byte, 10)
	for i := range frames {
		frames[i] = []byte{byte(i)}
	}

	tests := []struct {
		name    string
		in      [][]byte
		n       int
		wantIdx []int
	}{
		{"zero n", frames, 0, nil},
		{"negative n", frames, -1, nil},
		{"empty input", nil, 3, nil},
		{"fewer frames than n", frames[:2], 5, []int{0, 1}},
		{"single sample takes middle", frames, 1, []int{5}},
		{"three samples span the sequence", frames, 3, []int{0, 4, 9}},
		{"two samples are first and last", frames, 2, []int{0, 9}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := SampleFrames(tt.in, tt.n)
			if len(got) != len(tt.wantIdx) {
				t.Fatalf("sampled %d frames, want %d", len(got), len(tt.wantIdx))
			}
			for i, idx := range tt.wantIdx {
				if got[i][0] != byte(idx) {
					t.Errorf("sample %d = frame %d, want frame %d", i, got[i][0], idx)
				}
			}
		})
	}
}
