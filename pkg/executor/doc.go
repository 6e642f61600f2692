// Package executor applies reconciliation operations to a live database.
//
// The Executor is a schema.Sink: a Reconciler hands it each
// schema.OperationGroup as it is delivered and the Executor runs the group's
// statements in order against anything with an Exec method. Every group yields
// an ExecutionResult with timing, a count of applied statements and an h1 hash
// of the group's SQL, so a run can be audited after the fact.
//
// # Usage Example
//
//	exec := executor.New(executor.Config{DB: conn})
//	rec := schema.NewReconciler(schema.NewInspector(conn, ""), exec, schema.Options{})
//	_, err := rec.Reconcile(ctx, script)
//	for _, result := range exec.Results() {
//		switch result.Status {
//		case executor.StatusSuccess:
//			fmt.Printf("✓ %s completed in %v\n", result.Description, result.ExecutionTime)
//		case executor.StatusFailed:
//			fmt.Printf("✗ %s failed: %v\n", result.Description, result.Error)
//		case executor.StatusSkipped:
//			fmt.Printf("- %s skipped\n", result.Description)
//		}
//	}
//
// # Error Handling
//
// Execution stops at the first failing statement. The failing group reports
// how many of its statements were applied and every later group is reported
// as skipped. Nothing is rolled back: MySQL and ClickHouse commit DDL
// implicitly, so the remaining statements are simply not attempted.
package executor
