package pose

import "image"

// Facial landmarks used to derive the redaction region.
var faceLandmarks = []string{Nose, LeftEye, RightEye, LeftEar, RightEar}

// Padding factors relative to the raw face extent. Vertical padding is
// wider than horizontal so the blur covers forehead and chin, not just
// the eye line.
const (
	facePadX = 0.45
	facePadY = 1.10
)

// FaceRegion computes the padded bounding box over the reliable facial
// keypoints, clamped to the frame. ok is false when fewer than two face
// points clear the confidence threshold; callers then skip the blur for
// that frame and keep encoding.
func FaceRegion(f Frame, width, height int) (image.Rectangle, bool) {
	minX, minY := float64(width), float64(height)
	maxX, maxY := 0.0, 0.0
	found := 0
	for _, name := range faceLandmarks {
		k, ok := f.Find(name)
		if !ok || !k.Reliable() {
			continue
		}
		found++
		if k.X < minX {
			minX = k.X
		}
		if k.X > maxX {
			maxX = k.X
		}
		if k.Y < minY {
			minY = k.Y
		}
		if k.Y > maxY {
			maxY = k.Y
		}
	}
	if found < 2 {
		return image.Rectangle{}, false
	}

	w := maxX - minX
	h := maxY - minY
	// Degenerate extents still get a usable box from the padding.
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}

	r := image.Rect(
		int(minX-w*facePadX),
		int(minY-h*facePadY),
		int(maxX+w*facePadX),
		int(maxY+h*facePadY),
	)
	r = r.Intersect(image.Rect(0, 0, width, height))
	if r.Empty() {
		return image.Rectangle{}, false
	}
	return r, true
}
