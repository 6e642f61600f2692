package schema

import (
	"context"
	"fmt"
	"io"
	"sync"
)

// Plan is a Sink that records every group it receives. It is the dry-run
// counterpart of the executor.
type Plan struct {
	mu     sync.Mutex
	groups []OperationGroup
}

// NewPlan returns an empty Plan.
func NewPlan() *Plan {
	return new(Plan)
}

// Accept records group. Empty groups are ignored.
func (p *Plan) Accept(_ context.Context, group OperationGroup) error {
	if len(group.Operations) == 0 {
		return nil
	}

	p.mu.Lock()
	defer p.mu.Unlock()

	p.groups = append(p.groups, group)
	return nil
}

// Groups returns the recorded groups in delivery order.
func (p *Plan) Groups() []OperationGroup {
	p.mu.Lock()
	defer p.mu.Unlock()

	return append([]OperationGroup(nil), p.groups...)
}

// Operations returns every recorded operation in delivery order.
func (p *Plan) Operations() []Operation {
	p.mu.Lock()
	defer p.mu.Unlock()

	var ops []Operation
	for _, g := range p.groups {
		ops = append(ops, g.Operations...)
	}

	return ops
}

// Statements returns the SQL of every recorded operation in delivery order.
func (p *Plan) Statements() []string {
	ops := p.Operations()
	stmts := make([]string, len(ops))
	for i, op := range ops {
		stmts[i] = op.SQL
	}

	return stmts
}

// Empty reports whether no operation was recorded.
func (p *Plan) Empty() bool {
	return len(p.Operations()) == 0
}

// WriteTo renders the plan as a SQL script. Each group is introduced by its
// description as a comment and separated from the next by a blank line.
func (p *Plan) WriteTo(w io.Writer) (int64, error) {
	var total int64
	for i, g := range p.Groups() {
		if i > 0 {
			n, err := fmt.Fprintln(w)
			total += int64(n)
			if err != nil {
				return total, err
			}
		}

		n, err := fmt.Fprintf(w, "-- %s\n", g.Description)
		total += int64(n)
		if err != nil {
			return total, err
		}

		for _, op := range g.Operations {
			n, err := fmt.Fprintln(w, op.SQL)
			total += int64(n)
			if err != nil {
				return total, err
			}
		}
	}

	return total, nil
}
