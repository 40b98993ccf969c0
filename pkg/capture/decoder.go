package capture

import (
	"bytes"
	"io"
	"mime/multipart"
)

// DecodeFrames splits an MJPEG artifact back into its JPEG parts.
// Used by the verification worker to sample frames without a video
// pipeline.
func DecodeFrames(artifact []byte) ([][]byte, error) {
	reader := multipart.NewReader(bytes.NewReader(artifact), mjpegBoundary)

	var frames [][]byte
	for {
		part, err := reader.NextPart()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, err
		}
		data, err := io.ReadAll(part)
		if err != nil {
			return nil, err
		}
		frames = append(frames, data)
	}
	return frames, nil
}

// SampleFrames picks up to n frames spread across the sequence, always
// including the first and last when n >= 2.
func SampleFrames(frames [][]byte, n int) [][]byte {
	if n <= 0 || len(frames) == 0 {
		return nil
	}
	if len(frames) <= n {
		return frames
	}
	if n == 1 {
		return [][]byte{frames[len(frames)/2]}
	}
	out := make([][]byte, 0, n)
	for i := 0; i < n; i++ {
		idx := i * (len(frames) - 1) / (n - 1)
		out = append(out, frames[idx])
	}
	return out
}
