package pose

// Edge connects two named landmarks in the skeleton overlay.
type Edge struct {
	From, To string
}

// Skeleton is the fixed edge table drawn by the compositor. An edge is
// only drawn when both endpoints are reliable.
var Skeleton = []Edge{
	{LeftShoulder, RightShoulder},
	{LeftShoulder, LeftElbow},
	{LeftElbow, LeftWrist},
	{RightShoulder, RightElbow},
	{RightElbow, RightWrist},
	{LeftShoulder, LeftHip},
	{RightShoulder, RightHip},
	{LeftHip, RightHip},
	{LeftHip, LeftKnee},
	{LeftKnee, LeftAnkle},
	{RightHip, RightKnee},
	{RightKnee, RightAnkle},
}

// Edges returns the drawable edges of a frame: both endpoints present
// and at or above MinConfidence.
func Edges(f Frame) [][2]Keypoint {
	var out [][2]Keypoint
	for _, e := range Skeleton {
		a, okA := f.Find(e.From)
		b, okB := f.Find(e.To)
		if okA && okB && a.Reliable() && b.Reliable() {
			out = append(out, [2]Keypoint{a, b})
		}
	}
	return out
}
