package loan

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/warp/loan-engine/generic"
)

// CommitOptions control how synthesized templates are written.
type CommitOptions struct {
	// IdempotencyKey identifies the commit. Each template is stored under
	// "<key>/<template name>", so retrying a commit writes nothing new.
	// Empty disables the check.
	IdempotencyKey string

	// CreatedAt stamps every template. Zero means today.
	CreatedAt generic.TimePoint
}

// Commit synthesizes cfg and appends the whole template set to ledger in one
// batch. Nothing is written if synthesis fails.
func Commit(ctx context.Context, ledger generic.Ledger, cfg LoanConfig, oracle generic.FrequencyOracle, opts CommitOptions) (*Synthesis, error) {
	syn, err := Synthesize(cfg, oracle)
	if err != nil {
		return nil, err
	}

	created := opts.CreatedAt
	if created.IsZero() {
		created = generic.Today()
	}
	stamp := func(st *generic.ScheduledTransaction) {
		st.ID = generic.TemplateID(uuid.NewString())
		st.CreatedAt = created
		if opts.IdempotencyKey != "" {
			st.IdempotencyKey = opts.IdempotencyKey + "/" + st.Name
		}
	}
	stamp(&syn.Main)
	for i := range syn.Extras {
		stamp(&syn.Extras[i])
	}

	if err := ledger.AppendBatch(ctx, syn.Templates()); err != nil {
		return nil, fmt.Errorf("commit %q: %w", cfg.DisplayName(), err)
	}
	return syn, nil
}
