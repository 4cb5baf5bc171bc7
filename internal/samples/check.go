package samples

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"

	"github.com/barun-bash/coursebot/internal/parser"
)

// Outcome is the parse result of one case. Exactly one of Result and Err is
// set.
type Outcome struct {
	Case   Case
	Result *parser.Result
	Err    error
}

// OK reports whether the case parsed.
func (o Outcome) OK() bool { return o.Err == nil }

// Report summarizes a batch check.
type Report struct {
	Outcomes    []Outcome // in input order
	Unambiguous int
	Ambiguous   int
	Failed      int
}

// CheckAll parses every case concurrently, at most GOMAXPROCS at a time.
// Parse failures are recorded in the outcomes; the returned error is only
// set when ctx is done before every case was parsed.
func CheckAll(ctx context.Context, p *parser.Parser, cases []Case) (*Report, error) {
	outcomes := make([]Outcome, len(cases))

	eg, egCtx := errgroup.WithContext(ctx)
	eg.SetLimit(runtime.GOMAXPROCS(0))
	for i, c := range cases {
		i, c := i, c
		eg.Go(func() error {
			if err := egCtx.Err(); err != nil {
				return err
			}
			res, err := p.Parse(c.Sentence)
			outcomes[i] = Outcome{Case: c, Result: res, Err: err}
			return nil
		})
	}
	if err := eg.Wait(); err != nil {
		return nil, err
	}

	report := &Report{Outcomes: outcomes}
	for _, o := range outcomes {
		switch {
		case !o.OK():
			report.Failed++
		case o.Result.Ambiguous():
			report.Ambiguous++
		default:
			report.Unambiguous++
		}
	}
	return report, nil
}
