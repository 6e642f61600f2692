// Package schema reconciles a declarative SQL script against a live database.
//
// A script is a plain SQL file in which every CREATE TABLE statement describes
// the desired end state of a table. The Reconciler cuts those statements out of
// the script, compares each declared table with the live catalog and hands the
// resulting ALTER/CREATE/DROP statements to a Sink. Whatever the reconciler did
// not consume (views, indexes, inserts, ...) is returned untouched so the caller
// can run it afterwards.
//
// Operations come in two classes. Immediate operations create and alter tables
// and are always delivered before Deferred ones, which drop tables that are no
// longer declared. Drops are therefore never observed before the statements
// that replace the dropped tables.
//
// Example:
//
//	cat, err := postgres.Open(ctx, dsn)
//	if err != nil {
//		return err
//	}
//	defer cat.Close()
//
//	plan := schema.NewPlan()
//	rec := schema.NewReconciler(schema.NewInspector(cat, ""), plan, schema.Options{})
//
//	residual, err := rec.Reconcile(ctx, script)
//	if err != nil {
//		return err
//	}
//
//	_, _ = plan.WriteTo(os.Stdout)
package schema
