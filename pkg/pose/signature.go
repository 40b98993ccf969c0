package pose

import "math"

// SignatureDim is the length of the pose descriptor vector stored per
// submission for duplicate screening.
const SignatureDim = 34

var signatureOrder = []string{
	Nose, LeftEye, RightEye, LeftEar, RightEar,
	LeftShoulder, RightShoulder, LeftElbow, RightElbow,
	LeftWrist, RightWrist, LeftHip, RightHip,
	LeftKnee, RightKnee, LeftAnkle, RightAnkle,
}

// Signature reduces a recorded frame sequence to a fixed-length
// descriptor: per-landmark mean position, centered on the sequence
// centroid and scaled by its spread. Two recordings of the same take
// land near each other in this space regardless of camera framing.
// Unreliable points are skipped; a landmark never seen contributes
// zeros.
func Signature(frames []Frame) []float32 {
	sums := make(map[string][2]float64, len(signatureOrder))
	counts := make(map[string]int, len(signatureOrder))

	for _, f := range frames {
		for _, k := range f.Keypoints {
			if !k.Reliable() {
				continue
			}
			s := sums[k.Name]
			s[0] += k.X
			s[1] += k.Y
			sums[k.Name] = s
			counts[k.Name]++
		}
	}

	means := make(map[string][2]float64, len(sums))
	var cx, cy float64
	seen := 0
	for name, s := range sums {
		n := float64(counts[name])
		m := [2]float64{s[0] / n, s[1] / n}
		means[name] = m
		cx += m[0]
		cy += m[1]
		seen++
	}
	if seen == 0 {
		return make([]float32, SignatureDim)
	}
	cx /= float64(seen)
	cy /= float64(seen)

	// Scale by mean distance from centroid so the descriptor is
	// framing-invariant.
	var spread float64
	for _, m := range means {
		dx, dy := m[0]-cx, m[1]-cy
		spread += dx*dx + dy*dy
	}
	spread /= float64(seen)
	if spread < 1e-9 {
		spread = 1
	}
	scale := 1.0 / math.Sqrt(spread)

	out := make([]float32, 0, SignatureDim)
	for _, name := range signatureOrder {
		if m, ok := means[name]; ok {
			out = append(out, float32((m[0]-cx)*scale), float32((m[1]-cy)*scale))
		} else {
			out = append(out, 0, 0)
		}
	}
	return out
}
