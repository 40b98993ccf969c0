package detector

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sync"
	"time"

	"posemarket-be/pkg/apperrors"
	"posemarket-be/pkg/pose"
)

// HTTPLoader lazily initializes a client against an HTTP inference
// service (one warmup round-trip, then reuse). Failed loads reset the
// guard so a later Load can retry.
type HTTPLoader struct {
	baseURL string
	model   string
	client  *http.Client

	mu       sync.Mutex
	loading  chan struct{}
	detector *httpDetector
}

func NewHTTPLoader(baseURL, model string) *HTTPLoader {
	return &HTTPLoader{
		baseURL: baseURL,
		model:   model,
		client:  &http.Client{Timeout: 30 * time.Second},
	}
}

func (l *HTTPLoader) Load(ctx context.Context) (Detector, error) {
	l.mu.Lock()
	if l.detector != nil {
		d := l.detector
		l.mu.Unlock()
		return d, nil
	}
	if l.loading != nil {
		// Another caller is initializing; wait for it.
		ch := l.loading
		l.mu.Unlock()
		select {
		case <-ch:
		case <-ctx.Done():
			return nil, ctx.Err()
		}
		return l.Load(ctx)
	}
	l.loading = make(chan struct{})
	l.mu.Unlock()

	d, err := l.warmup(ctx)

	l.mu.Lock()
	close(l.loading)
	l.loading = nil
	if err == nil {
		l.detector = d
	}
	l.mu.Unlock()

	if err != nil {
		return nil, apperrors.ModelLoadError(err)
	}
	return d, nil
}

func (l *HTTPLoader) Ready() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.detector != nil
}

func (l *HTTPLoader) Release() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.detector = nil
	l.client.CloseIdleConnections()
}

// warmup verifies the service is up and the model is resident before
// any session records. Recording without pose data is disallowed, so
// sessions must not start on an unverified backend.
func (l *HTTPLoader) warmup(ctx context.Context) (*httpDetector, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, l.baseURL+"/v1/models/"+l.model, nil)
	if err != nil {
		return nil, err
	}
	res, err := l.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(res.Body)
		return nil, fmt.Errorf("model warmup status %d: %s", res.StatusCode, string(body))
	}
	return &httpDetector{loader: l}, nil
}

type httpDetector struct {
	loader *HTTPLoader
}

type estimateRequest struct {
	Model string `json:"model"`
	Image []byte `json:"image"` // base64 via encoding/json
}

type estimateResponse struct {
	Keypoints []pose.Keypoint `json:"keypoints"`
}

func (d *httpDetector) Estimate(ctx context.Context, frameJPEG []byte) ([]pose.Keypoint, error) {
	payload, err := json.Marshal(estimateRequest{Model: d.loader.model, Image: frameJPEG})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, d.loader.baseURL+"/v1/estimate", bytes.NewBuffer(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")

	res, err := d.loader.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer res.Body.Close()

	resBody, err := io.ReadAll(res.Body)
	if err != nil {
		return nil, err
	}
	if res.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("estimate status %d: %s", res.StatusCode, string(resBody))
	}

	var out estimateResponse
	if err := json.Unmarshal(resBody, &out); err != nil {
		return nil, err
	}
	return out.Keypoints, nil
}
