// Package docker runs throwaway database servers for integration tests and
// for rehearsing a plan before applying it to a real database.
//
// A Container wraps the testcontainers-go module for the requested dialect and
// hands back a DSN that the catalog drivers accept:
//
//	c := docker.New(dialect.Postgres)
//	if err := c.Start(ctx); err != nil {
//		log.Fatal(err)
//	}
//	defer c.Stop(ctx)
//
//	dsn, err := c.DSN(ctx)
//	conn, err := postgres.Open(ctx, dsn)
//
// Images default to a pinned version per dialect and can be overridden with
// Options.Image.
package docker
