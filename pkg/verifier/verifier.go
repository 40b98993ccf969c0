// Package verifier implements the automated submission judgment: an
// ordered chain of vision models evaluated with retry and fallback,
// producing an advisory verdict a human reviewer can confirm or
// override.
package verifier

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

type Verdict string

const (
	VerdictPass      Verdict = "pass"
	VerdictFail      Verdict = "fail"
	VerdictUncertain Verdict = "uncertain"
)

// Verification is the output of one automated judgment attempt.
// Immutable once attached to a submission.
type Verification struct {
	Verdict    Verdict `json:"verdict"`
	Confidence int     `json:"confidence"` // 0-100
	Reason     string  `json:"reason"`
	Details    string  `json:"details,omitempty"`
	Model      string  `json:"model"`
}

// Judge is one candidate model. It returns the raw verdict text, which
// may or may not be JSON.
type Judge interface {
	Model() string
	Judge(ctx context.Context, frames [][]byte, taskContext string) (string, error)
}

// The scoring policy is deliberately lenient: a visible person doing
// any plausible activity passes at high confidence; only a blank frame,
// no person, or a clearly unrelated activity fails. Favoring
// contributor payment over strict gatekeeping is product policy.
const judgmentPrompt = `You are reviewing frames sampled from a task-completion video.
Task description: %s

Be lenient. If a person is visible and appears to be doing any plausibly
related activity, answer pass with high confidence. Only answer fail for a
blank frame, no visible person, or a clearly unrelated activity. Use
uncertain when you genuinely cannot tell.

Respond with ONLY this JSON, no other text:
{"verdict": "pass"|"fail"|"uncertain", "confidence": 0-100, "reason": "one sentence"}`

// BuildPrompt renders the judgment instruction for one task.
func BuildPrompt(taskContext string) string {
	return fmt.Sprintf(judgmentPrompt, taskContext)
}

type rawVerdict struct {
	Verdict    string `json:"verdict"`
	Confidence int    `json:"confidence"`
	Reason     string `json:"reason"`
}

// Parse turns raw model text into a Verification. Malformed text never
// fails the pipeline: it degrades to an uncertain verdict carrying the
// raw response for human inspection.
func Parse(raw, model string) Verification {
	cleaned := stripFences(raw)

	var v rawVerdict
	if err := json.Unmarshal([]byte(cleaned), &v); err == nil {
		switch Verdict(strings.ToLower(v.Verdict)) {
		case VerdictPass, VerdictFail, VerdictUncertain:
			conf := v.Confidence
			if conf < 0 {
				conf = 0
			}
			if conf > 100 {
				conf = 100
			}
			return Verification{
				Verdict:    Verdict(strings.ToLower(v.Verdict)),
				Confidence: conf,
				Reason:     v.Reason,
				Model:      model,
			}
		}
	}

	return Verification{
		Verdict:    VerdictUncertain,
		Confidence: 0,
		Reason:     "response could not be parsed",
		Details:    raw,
		Model:      model,
	}
}

// stripFences removes a markdown code fence wrapper if present.
func stripFences(raw string) string {
	b := bytes.TrimSpace([]byte(raw))
	b = bytes.TrimPrefix(b, []byte("```json"))
	b = bytes.TrimPrefix(b, []byte("```"))
	b = bytes.TrimSuffix(b, []byte("```"))
	return string(bytes.TrimSpace(b))
}
