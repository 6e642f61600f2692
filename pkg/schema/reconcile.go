package schema

import (
	"context"
	"fmt"
	"path"
	"sort"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/parser"
	"github.com/rs/zerolog"
)

// ErrParse is wrapped by Reconcile in strict mode when a column or constraint
// clause cannot be parsed.
var ErrParse = errors.New("failed to parse table definition")

type (
	// Options control a Reconciler.
	Options struct {
		// SkipDrop disables dropping live tables that are not declared.
		SkipDrop bool
		// IgnoreTables lists glob patterns (path.Match syntax) of catalog table
		// names that are neither altered nor dropped.
		IgnoreTables []string
		// Strict turns unparseable clauses into errors instead of warnings.
		Strict bool
	}

	// Reconciler turns a declarative script into operations on a Sink.
	Reconciler struct {
		inspector *Inspector
		sink      Sink
		differ    *Differ
		options   Options
	}
)

// NewReconciler returns a Reconciler that inspects the live schema through
// inspector and delivers operations to sink.
func NewReconciler(inspector *Inspector, sink Sink, opts Options) *Reconciler {
	return &Reconciler{
		inspector: inspector,
		sink:      sink,
		differ:    NewDiffer(inspector.Dialect()),
		options:   opts,
	}
}

// Reconcile processes script and returns the residual: the script with every
// consumed CREATE TABLE and ALTER TABLE statement removed.
//
// Operations are staged while the live schema is inspected and only delivered
// once inspection has finished, so an inspection error leaves the Sink
// untouched. Immediate groups are delivered before Deferred ones.
func (r *Reconciler) Reconcile(ctx context.Context, script string) (string, error) {
	log := zerolog.Ctx(ctx)
	d := r.inspector.Dialect()
	ext := parser.Extract(script)

	var immediate, deferred []OperationGroup
	declared := make(map[string]bool, len(ext.Tables))

	for _, block := range ext.Tables {
		table, perrs, err := NewDeclaredTable(d, block)
		if err != nil {
			if r.options.Strict {
				return "", errors.Wrapf(err, "table %s", block.Ref)
			}

			// Keep the table from being dropped even though it cannot be diffed.
			declared[d.FoldIdentifier(tableName(d, block.Ref))] = true
			log.Warn().Err(err).Str("table", block.Ref).Int("line", block.Line).Msg("skipping table")
			continue
		}

		declared[d.FoldIdentifier(table.Name)] = true
		if err := r.checkParseErrors(ctx, table, perrs); err != nil {
			return "", err
		}

		if r.ignored(table.Name) {
			log.Debug().Str("table", table.Name).Msg("ignoring table")
			continue
		}

		group, err := r.reconcileTable(ctx, table)
		if err != nil {
			return "", err
		}

		if len(group.Operations) > 0 {
			immediate = append(immediate, group)
		}
	}

	if len(ext.Alters) > 0 {
		group := OperationGroup{Description: "Applying table alterations..."}
		for _, alter := range ext.Alters {
			group.Operations = append(group.Operations, Operation{
				SQL:   alter.Raw,
				Class: Immediate,
				Table: d.NormalizeIdentifier(alter.Table),
			})
		}
		immediate = append(immediate, group)
	}

	if !r.options.SkipDrop {
		group, err := r.dropDeprecated(ctx, declared)
		if err != nil {
			return "", err
		}

		if len(group.Operations) > 0 {
			deferred = append(deferred, group)
		}
	}

	for _, group := range append(immediate, deferred...) {
		if err := r.sink.Accept(ctx, group); err != nil {
			return "", errors.Wrap(err, "failed to deliver operations")
		}
	}

	return ext.Residual, nil
}

func (r *Reconciler) reconcileTable(ctx context.Context, table *DeclaredTable) (OperationGroup, error) {
	exists, err := r.inspector.TableExists(ctx, table.Name)
	if err != nil {
		return OperationGroup{}, err
	}

	if !exists {
		zerolog.Ctx(ctx).Info().Str("table", table.Name).Msg("creating table")
		return OperationGroup{
			Description: fmt.Sprintf("Creating table %s...", table.Name),
			Operations: []Operation{{
				SQL:   table.RawDefinition,
				Class: Immediate,
				Table: table.Name,
			}},
		}, nil
	}

	live, err := r.inspector.LiveColumns(ctx, table.Name)
	if err != nil {
		return OperationGroup{}, err
	}

	ops := r.differ.Diff(ctx, table, live)
	if len(ops) > 0 {
		zerolog.Ctx(ctx).Info().Str("table", table.Name).Int("operations", len(ops)).Msg("updating table")
	}

	return OperationGroup{
		Description: fmt.Sprintf("Updating schema for %s...", table.Name),
		Operations:  ops,
	}, nil
}

func (r *Reconciler) dropDeprecated(ctx context.Context, declared map[string]bool) (OperationGroup, error) {
	d := r.inspector.Dialect()
	group := OperationGroup{Description: "Dropping deprecated tables..."}

	tables, err := r.inspector.LiveTables(ctx)
	if err != nil {
		return group, err
	}

	sort.Strings(tables)
	for _, name := range tables {
		if declared[d.FoldIdentifier(name)] || r.ignored(name) {
			continue
		}

		ref := d.QuoteIdentifier(name)
		if schema := r.inspector.Schema(); schema != "" && schema != d.DefaultSchema() {
			ref = d.QuoteIdentifier(schema) + "." + ref
		}

		zerolog.Ctx(ctx).Info().Str("table", name).Msg("dropping deprecated table")
		group.Operations = append(group.Operations, Operation{
			SQL:   d.DropTable(ref),
			Class: Deferred,
			Table: name,
		})
	}

	return group, nil
}

func (r *Reconciler) checkParseErrors(ctx context.Context, table *DeclaredTable, perrs []*parser.ParseError) error {
	if len(perrs) == 0 {
		return nil
	}

	if r.options.Strict {
		return errors.Wrapf(ErrParse, "table %s: %s", table.Name, perrs[0].Error())
	}

	for _, pe := range perrs {
		zerolog.Ctx(ctx).Warn().
			Str("table", table.Name).
			Int("line", pe.Line).
			Str("clause", pe.Clause).
			Msg("skipping unparseable clause")
	}

	return nil
}

func (r *Reconciler) ignored(name string) bool {
	for _, pattern := range r.options.IgnoreTables {
		if ok, _ := path.Match(pattern, name); ok {
			return true
		}
	}

	return false
}
