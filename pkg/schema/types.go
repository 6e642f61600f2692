package schema

import (
	"context"

	"github.com/pkg/errors"
)

// OperationClass determines when an operation is delivered to the Sink.
type OperationClass int

const (
	// Immediate operations create and alter tables.
	Immediate OperationClass = iota
	// Deferred operations drop tables and run after every Immediate operation.
	Deferred
)

var errUnknownClass = errors.New("unknown operation class")

func (c OperationClass) String() string {
	if c == Deferred {
		return "deferred"
	}

	return "immediate"
}

// MarshalText renders the class as "immediate" or "deferred".
func (c OperationClass) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText parses the output of MarshalText.
func (c *OperationClass) UnmarshalText(b []byte) error {
	switch string(b) {
	case "immediate":
		*c = Immediate
	case "deferred":
		*c = Deferred
	default:
		return errors.Wrapf(errUnknownClass, "%q", string(b))
	}

	return nil
}

type (
	// Operation is a single SQL statement produced by reconciliation.
	Operation struct {
		SQL   string
		Class OperationClass
		// Table is the catalog name of the table the statement touches.
		Table string
	}

	// OperationGroup is a batch of operations delivered to a Sink together,
	// with a human readable description such as "Updating schema for users...".
	OperationGroup struct {
		Description string
		Operations  []Operation
	}

	// Sink receives operation groups in execution order.
	Sink interface {
		Accept(ctx context.Context, group OperationGroup) error
	}

	// SinkFunc adapts a function to the Sink interface.
	SinkFunc func(ctx context.Context, group OperationGroup) error
)

// Accept calls fn.
func (fn SinkFunc) Accept(ctx context.Context, group OperationGroup) error {
	return fn(ctx, group)
}

// Statements returns the SQL of every operation in the group.
func (g OperationGroup) Statements() []string {
	stmts := make([]string, len(g.Operations))
	for i, op := range g.Operations {
		stmts[i] = op.SQL
	}

	return stmts
}
