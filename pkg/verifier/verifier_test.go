package verifier

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"posemarket-be/pkg/apperrors"
)

func TestParse(t *testing.T) {
	tests := []struct {
		name           string
		raw            string
		wantVerdict    Verdict
		wantConfidence int
		wantDetails    bool
	}{
		{
			name:           "clean pass",
			raw:            `{"verdict": "pass", "confidence": 90, "reason": "person performing the activity"}`,
			wantVerdict:    VerdictPass,
			wantConfidence: 90,
		},
		{
			name:           "fenced json",
			raw:            "```json\n{\"verdict\": \"fail\", \"confidence\": 80, \"reason\": \"no person visible\"}\n```",
			wantVerdict:    VerdictFail,
			wantConfidence: 80,
		},
		{
			name:           "bare fence",
			raw:            "```\n{\"verdict\": \"uncertain\", \"confidence\": 40, \"reason\": \"hard to tell\"}\n```",
			wantVerdict:    VerdictUncertain,
			wantConfidence: 40,
		},
		{
			name:           "uppercase verdict",
			raw:            `{"verdict": "PASS", "confidence": 75, "reason": "ok"}`,
			wantVerdict:    VerdictPass,
			wantConfidence: 75,
		},
		{
			name:           "confidence clamped high",
			raw:            `{"verdict": "pass", "confidence": 400, "reason": "ok"}`,
			wantVerdict:    VerdictPass,
			wantConfidence: 100,
		},
		{
			name:           "confidence clamped low",
			raw:            `{"verdict": "fail", "confidence": -5, "reason": "ok"}`,
			wantVerdict:    VerdictFail,
			wantConfidence: 0,
		},
		{
			name:           "prose instead of json",
			raw:            "I think the person is doing the task correctly.",
			wantVerdict:    VerdictUncertain,
			wantConfidence: 0,
			wantDetails:    true,
		},
		{
			name:           "unknown verdict value",
			raw:            `{"verdict": "maybe", "confidence": 50, "reason": "hm"}`,
			wantVerdict:    VerdictUncertain,
			wantConfidence: 0,
			wantDetails:    true,
		},
		{
			name:           "empty response",
			raw:            "",
			wantVerdict:    VerdictUncertain,
			wantConfidence: 0,
			wantDetails:    false,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := Parse(tt.raw, "test-model")

			if got.Verdict != tt.wantVerdict {
				t.Errorf("Verdict = %v, want %v", got.Verdict, tt.wantVerdict)
			}
			if got.Confidence != tt.wantConfidence {
				t.Errorf("Confidence = %d, want %d", got.Confidence, tt.wantConfidence)
			}
			if got.Model != "test-model" {
				t.Errorf("Model = %q, want test-model", got.Model)
			}
			if tt.wantDetails && got.Details != tt.raw {
				t.Errorf("Details should carry the raw response, got %q", got.Details)
			}
		})
	}
}

func TestBuildPromptEmbedsTaskContext(t *testing.T) {
	p := BuildPrompt("Stack three boxes near the loading dock")
	if !strings.Contains(p, "Stack three boxes near the loading dock") {
		t.Error("prompt should embed the task context")
	}
}

// instantPolicy retries without real sleeping and records backoff calls.
func instantPolicy(slept *int) Policy {
	p := DefaultPolicy()
	p.Sleep = func(ctx context.Context, d time.Duration) error {
		*slept++
		return ctx.Err()
	}
	return p
}

func TestRunFallbackFirstSuccessStopsChain(t *testing.T) {
	calls := []string{}
	strategies := []Strategy[string]{
		{Name: "a", Run: func(ctx context.Context) (string, error) {
			calls = append(calls, "a")
			return "ok-a", nil
		}},
		{Name: "b", Run: func(ctx context.Context) (string, error) {
			calls = append(calls, "b")
			return "ok-b", nil
		}},
	}

	var slept int
	out, name, err := RunFallback(context.Background(), instantPolicy(&slept), strategies)
	if err != nil {
		t.Fatalf("RunFallback: %v", err)
	}
	if out != "ok-a" || name != "a" {
		t.Errorf("got (%q, %q), want (ok-a, a)", out, name)
	}
	if len(calls) != 1 {
		t.Errorf("strategies called %d times, want 1", len(calls))
	}
}

func TestRunFallbackRateLimitSkipsToNextStrategy(t *testing.T) {
	var aCalls, bCalls, slept int
	strategies := []Strategy[string]{
		{Name: "a", Run: func(ctx context.Context) (string, error) {
			aCalls++
			return "", apperrors.ErrRateLimited
		}},
		{Name: "b", Run: func(ctx context.Context) (string, error) {
			bCalls++
			return "ok-b", nil
		}},
	}

	out, name, err := RunFallback(context.Background(), instantPolicy(&slept), strategies)
	if err != nil {
		t.Fatalf("RunFallback: %v", err)
	}
	if out != "ok-b" || name != "b" {
		t.Errorf("got (%q, %q), want (ok-b, b)", out, name)
	}
	if aCalls != 1 {
		t.Errorf("rate-limited strategy called %d times, want 1 (no retry)", aCalls)
	}
	if slept != 0 {
		t.Errorf("backoff slept %d times, want 0", slept)
	}
}

func TestRunFallbackRetriesTransientErrorOnce(t *testing.T) {
	var calls, slept int
	strategies := []Strategy[string]{
		{Name: "a", Run: func(ctx context.Context) (string, error) {
			calls++
			if calls == 1 {
				return "", errors.New("transient upstream failure")
			}
			return "ok", nil
		}},
	}

	out, _, err := RunFallback(context.Background(), instantPolicy(&slept), strategies)
	if err != nil {
		t.Fatalf("RunFallback: %v", err)
	}
	if out != "ok" {
		t.Errorf("got %q, want ok", out)
	}
	if calls != 2 {
		t.Errorf("strategy called %d times, want 2", calls)
	}
	if slept != 1 {
		t.Errorf("backoff slept %d times, want 1", slept)
	}
}

func TestRunFallbackExhaustionIsBounded(t *testing.T) {
	var calls, slept int
	strategies := []Strategy[string]{
		{Name: "a", Run: func(ctx context.Context) (string, error) {
			calls++
			return "", errors.New("always failing")
		}},
		{Name: "b", Run: func(ctx context.Context) (string, error) {
			calls++
			return "", apperrors.ErrRateLimited
		}},
	}

	_, _, err := RunFallback(context.Background(), instantPolicy(&slept), strategies)
	if !errors.Is(err, apperrors.ErrVerifierUnavailable) {
		t.Fatalf("RunFallback = %v, want ErrVerifierUnavailable", err)
	}
	// Two attempts for a, one for rate-limited b.
	if calls != 3 {
		t.Errorf("total attempts = %d, want 3", calls)
	}
}

func TestRunFallbackHonorsContextCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	strategies := []Strategy[string]{
		{Name: "a", Run: func(ctx context.Context) (string, error) {
			t.Error("strategy should not run after cancellation")
			return "", nil
		}},
	}

	_, _, err := RunFallback(ctx, DefaultPolicy(), strategies)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("RunFallback = %v, want context.Canceled", err)
	}
}

type scriptedJudge struct {
	model string
	raw   string
	err   error
}

func (j *scriptedJudge) Model() string { return j.model }
func (j *scriptedJudge) Judge(ctx context.Context, frames [][]byte, taskContext string) (string, error) {
	return j.raw, j.err
}

func TestChainVerifyFallsBackAcrossJudges(t *testing.T) {
	var slept int
	chain := NewChain(instantPolicy(&slept),
		&scriptedJudge{model: "primary", err: apperrors.ErrRateLimited},
		&scriptedJudge{model: "secondary", raw: `{"verdict": "pass", "confidence": 85, "reason": "looks right"}`},
	)

	v, err := chain.Verify(context.Background(), [][]byte{{0xFF}}, "task")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if v.Verdict != VerdictPass || v.Model != "secondary" {
		t.Errorf("got verdict %v from %q, want pass from secondary", v.Verdict, v.Model)
	}
}

func TestChainVerifyExhaustion(t *testing.T) {
	var slept int
	chain := NewChain(instantPolicy(&slept),
		&scriptedJudge{model: "primary", err: apperrors.ErrRateLimited},
	)

	if _, err := chain.Verify(context.Background(), nil, "task"); !errors.Is(err, apperrors.ErrVerifierUnavailable) {
		t.Errorf("Verify = %v, want ErrVerifierUnavailable", err)
	}
}
