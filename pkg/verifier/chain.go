package verifier

import "context"

// Chain runs the configured judges in priority order under a Policy.
type Chain struct {
	judges []Judge
	policy Policy
}

func NewChain(policy Policy, judges ...Judge) *Chain {
	return &Chain{judges: judges, policy: policy}
}

// Verify evaluates the sampled frames against the task context. It
// returns ErrVerifierUnavailable after exhausting every model; callers
// leave the submission pending with no verdict attached and let the
// human reviewer proceed without the signal.
func (c *Chain) Verify(ctx context.Context, frames [][]byte, taskContext string) (*Verification, error) {
	strategies := make([]Strategy[string], 0, len(c.judges))
	for _, j := range c.judges {
		judge := j
		strategies = append(strategies, Strategy[string]{
			Name: judge.Model(),
			Run: func(ctx context.Context) (string, error) {
				return judge.Judge(ctx, frames, taskContext)
			},
		})
	}

	raw, model, err := RunFallback(ctx, c.policy, strategies)
	if err != nil {
		return nil, err
	}
	v := Parse(raw, model)
	return &v, nil
}
