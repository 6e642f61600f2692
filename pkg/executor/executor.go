package executor

import (
	"context"
	"crypto/sha256"
	"encoding/base64"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/schema"
	"github.com/rs/zerolog"
)

type (
	// Execer runs a single DDL statement. catalog.Conn satisfies it.
	Execer interface {
		Exec(ctx context.Context, sql string) error
	}

	// Executor applies reconciliation operations to a database.
	//
	// Groups are applied statement by statement in delivery order. Execution
	// stops at the first failing statement; statements applied before it stay
	// applied, since DDL is not transactional on every supported engine.
	//
	// Executor implements schema.Sink, so it can be handed straight to a
	// Reconciler to apply operations as they are delivered:
	//
	//	exec := executor.New(executor.Config{DB: conn})
	//	rec := schema.NewReconciler(schema.NewInspector(conn, ""), exec, schema.Options{})
	//	if _, err := rec.Reconcile(ctx, script); err != nil {
	//		log.Fatal(err)
	//	}
	//
	//	for _, result := range exec.Results() {
	//		fmt.Printf("%s %s (%d/%d)\n", result.Status, result.Description, result.StatementsApplied, result.TotalStatements)
	//	}
	Executor struct {
		db      Execer
		results []*ExecutionResult
		failed  bool
	}

	// Config contains configuration options for creating a new Executor.
	Config struct {
		// DB runs the statements.
		DB Execer
	}

	// ExecutionResult contains the result of applying a single operation group.
	ExecutionResult struct {
		// Description is the group description, e.g. "Updating schema for users...".
		Description string

		// Status indicates the outcome of the group.
		Status ExecutionStatus

		// Error contains the error of the failing statement, if any.
		Error error

		// ExecutionTime records how long the group took to apply.
		ExecutionTime time.Duration

		// StatementsApplied indicates how many statements were successfully executed.
		StatementsApplied int

		// TotalStatements is the number of statements in the group.
		TotalStatements int

		// Hash is the h1 hash of the group's statements.
		Hash string
	}

	// ExecutionStatus represents the outcome of applying a group.
	ExecutionStatus string
)

const (
	// StatusSuccess indicates every statement of the group was applied.
	StatusSuccess ExecutionStatus = "success"

	// StatusFailed indicates a statement of the group failed.
	StatusFailed ExecutionStatus = "failed"

	// StatusSkipped indicates the group was not attempted because an earlier
	// group failed.
	StatusSkipped ExecutionStatus = "skipped"
)

// ErrAborted is returned by Accept once a previous group has failed.
var ErrAborted = errors.New("execution aborted after an earlier failure")

var _ schema.Sink = (*Executor)(nil)

// New creates a new Executor.
func New(config Config) *Executor {
	return &Executor{db: config.DB}
}

// Accept applies group immediately. It returns the error of the first failing
// statement, and ErrAborted for every group delivered after a failure.
func (e *Executor) Accept(ctx context.Context, group schema.OperationGroup) error {
	result := e.apply(ctx, group)
	e.results = append(e.results, result)

	switch result.Status {
	case StatusFailed:
		return result.Error
	case StatusSkipped:
		return errors.Wrap(ErrAborted, group.Description)
	}

	return nil
}

// Results returns the results of every group applied so far.
func (e *Executor) Results() []*ExecutionResult {
	return append([]*ExecutionResult(nil), e.results...)
}

func (e *Executor) apply(ctx context.Context, group schema.OperationGroup) *ExecutionResult {
	stmts := group.Statements()
	result := &ExecutionResult{
		Description:     group.Description,
		Status:          StatusSkipped,
		TotalStatements: len(stmts),
		Hash:            ComputeHash(stmts),
	}

	if e.failed {
		return result
	}

	log := zerolog.Ctx(ctx)
	startTime := time.Now()

	for i, stmt := range stmts {
		log.Debug().Str("sql", stmt).Msg("executing statement")

		if err := e.db.Exec(ctx, stmt); err != nil {
			result.Error = errors.Wrapf(err, "failed to execute statement %d: %s", i+1, stmt)
			break
		}

		result.StatementsApplied++
	}

	result.ExecutionTime = time.Since(startTime)
	result.Status = StatusSuccess
	if result.Error != nil {
		result.Status = StatusFailed
		e.failed = true
	}

	log.Info().
		Str("group", group.Description).
		Str("status", string(result.Status)).
		Int("applied", result.StatementsApplied).
		Int("total", result.TotalStatements).
		Dur("elapsed", result.ExecutionTime).
		Msg("applied operations")

	return result
}

// ComputeHash computes a SHA256 hash in h1 format over the statements, one
// per line.
func ComputeHash(stmts []string) string {
	var content strings.Builder
	for _, stmt := range stmts {
		content.WriteString(stmt)
		content.WriteString("\n")
	}

	hash := sha256.Sum256([]byte(content.String()))
	return "h1:" + base64.StdEncoding.EncodeToString(hash[:])
}
