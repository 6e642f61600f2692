package docker

import (
	"context"
	"time"

	"github.com/docker/go-connections/nat"
	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/dialect"
	"github.com/testcontainers/testcontainers-go"
	"github.com/testcontainers/testcontainers-go/modules/clickhouse"
	"github.com/testcontainers/testcontainers-go/modules/mysql"
	"github.com/testcontainers/testcontainers-go/modules/postgres"
	"github.com/testcontainers/testcontainers-go/wait"
)

const (
	// DefaultDatabase is the database created in every container.
	DefaultDatabase = "dbmover"

	defaultUser     = "dbmover"
	defaultPassword = "dbmover"
)

var defaultImages = map[dialect.Dialect]string{
	dialect.MySQL:      "mysql:8.4",
	dialect.Postgres:   "postgres:16-alpine",
	dialect.ClickHouse: "clickhouse/clickhouse-server:25.7-alpine",
}

type (
	// Options represents options for running a database in Docker
	Options struct {
		// Image overrides the default image for the dialect
		Image string
	}

	// Container manages a database container for one dialect
	Container struct {
		dialect   dialect.Dialect
		options   Options
		container testcontainers.Container
		dsn       func(context.Context) (string, error)
	}
)

// New creates a new container for the dialect with default options
func New(d dialect.Dialect) *Container {
	return NewWithOptions(d, Options{})
}

// NewWithOptions creates a new container for the dialect with custom options
func NewWithOptions(d dialect.Dialect, opts Options) *Container {
	return &Container{dialect: d, options: opts}
}

// Image returns the image the container runs.
func (c *Container) Image() string {
	if c.options.Image != "" {
		return c.options.Image
	}

	return defaultImages[c.dialect]
}

// Start starts the database container and waits until it accepts connections.
func (c *Container) Start(ctx context.Context) error {
	if c.container != nil {
		return errors.New("container is already running")
	}

	var err error
	switch c.dialect {
	case dialect.Postgres:
		err = c.startPostgres(ctx)
	case dialect.MySQL:
		err = c.startMySQL(ctx)
	case dialect.ClickHouse:
		err = c.startClickHouse(ctx)
	default:
		return errors.Wrapf(dialect.ErrUnknownDialect, "%q", c.dialect)
	}

	return errors.Wrapf(err, "failed to start %s container", c.dialect)
}

func (c *Container) startPostgres(ctx context.Context) error {
	ctr, err := postgres.Run(ctx, c.Image(),
		postgres.WithDatabase(DefaultDatabase),
		postgres.WithUsername(defaultUser),
		postgres.WithPassword(defaultPassword),
		postgres.BasicWaitStrategies(),
	)
	if err != nil {
		return err
	}

	c.container = ctr
	c.dsn = func(ctx context.Context) (string, error) {
		return ctr.ConnectionString(ctx, "sslmode=disable")
	}

	return nil
}

func (c *Container) startMySQL(ctx context.Context) error {
	ctr, err := mysql.Run(ctx, c.Image(),
		mysql.WithDatabase(DefaultDatabase),
		mysql.WithUsername(defaultUser),
		mysql.WithPassword(defaultPassword),
	)
	if err != nil {
		return err
	}

	c.container = ctr
	c.dsn = func(ctx context.Context) (string, error) {
		return ctr.ConnectionString(ctx, "parseTime=true")
	}

	return nil
}

func (c *Container) startClickHouse(ctx context.Context) error {
	ctr, err := clickhouse.Run(ctx, c.Image(),
		clickhouse.WithUsername("default"),
		clickhouse.WithPassword(""),
		clickhouse.WithDatabase(DefaultDatabase),
		testcontainers.WithEnv(map[string]string{"CLICKHOUSE_DEFAULT_ACCESS_MANAGEMENT": "1"}),
		testcontainers.WithWaitStrategyAndDeadline(
			5*time.Minute,
			wait.
				NewHTTPStrategy("/").
				WithPort(nat.Port("8123/tcp")).
				WithStatusCodeMatcher(func(status int) bool {
					return status == 200
				}),
		),
	)
	if err != nil {
		return err
	}

	c.container = ctr
	c.dsn = func(ctx context.Context) (string, error) {
		return ctr.ConnectionString(ctx)
	}

	return nil
}

// Stop stops and removes the container
func (c *Container) Stop(ctx context.Context) error {
	if c.container == nil {
		return nil // Already stopped
	}

	err := c.container.Terminate(ctx)
	c.container = nil
	c.dsn = nil

	return errors.Wrapf(err, "failed to stop %s container", c.dialect)
}

// DSN returns a connection string for the running container in the form the
// dialect's catalog driver expects.
func (c *Container) DSN(ctx context.Context) (string, error) {
	if c.container == nil {
		return "", errors.New("container is not running")
	}

	dsn, err := c.dsn(ctx)
	if err != nil {
		return "", errors.Wrap(err, "failed to get connection string")
	}

	return dsn, nil
}

// Dialect returns the dialect of the database the container runs.
func (c *Container) Dialect() dialect.Dialect {
	return c.dialect
}

// IsRunning returns true if the container is currently running
func (c *Container) IsRunning() bool {
	return c.container != nil
}
