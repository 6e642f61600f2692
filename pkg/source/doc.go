// Package source loads declarative schema scripts.
//
// A schema can live in a single file, in a directory of *.sql files or in an
// S3 compatible bucket. Files may pull in other files with an import directive:
//
//	-- dbmover:import tables/users.sql
//
// Imports are resolved relative to the importing file (or object key) and are
// inlined in place, so the reconciler always sees a single script.
package source
