package consts

import "os"

const (
	// ModeDir is the standard file mode for creating directories
	ModeDir = os.FileMode(0o755)

	// ModeFile is the standard file mode for creating files
	ModeFile = os.FileMode(0o644)

	// DefaultConfigFile is the config file looked up when --config is not given.
	DefaultConfigFile = "dbmover.yaml"

	// DefaultServerAddr is the listen address used by `dbmover serve`.
	DefaultServerAddr = ":8080"

	// ImportDirective marks a line in a schema file that pulls in another file.
	ImportDirective = "-- dbmover:import"

	// S3Scheme prefixes schema locations stored in an S3 compatible bucket.
	S3Scheme = "s3://"
)
