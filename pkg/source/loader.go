package source

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/consts"
)

var (
	// ErrNoStore is returned when an s3:// location is loaded without an
	// ObjectStore.
	ErrNoStore = errors.New("no object store configured")

	// ErrEmpty is returned when a directory or prefix holds no .sql files.
	ErrEmpty = errors.New("no schema files found")
)

// Loader reads a declarative schema from a local file, a local directory or an
// S3 compatible bucket, resolving import directives along the way.
//
// Supported locations:
//
//	db/schema.sql            a single file and its imports
//	db/                      every *.sql file in the directory, sorted by name
//	s3://bucket/schema.sql   a single object and its imports
//	s3://bucket/schema/      every *.sql object under the prefix, sorted by key
type Loader struct {
	store ObjectStore
}

// NewLoader returns a Loader. store may be nil when no s3:// locations are used.
func NewLoader(store ObjectStore) *Loader {
	return &Loader{store: store}
}

// Load returns the compiled schema at location.
func (l *Loader) Load(ctx context.Context, location string) (string, error) {
	var buf bytes.Buffer

	if rest, ok := strings.CutPrefix(location, consts.S3Scheme); ok {
		if err := l.loadS3(ctx, rest, &buf); err != nil {
			return "", err
		}

		return buf.String(), nil
	}

	info, err := os.Stat(location)
	if err != nil {
		return "", errors.Wrapf(err, "failed to read file %s", location)
	}

	if !info.IsDir() {
		if err := Compile(location, &buf); err != nil {
			return "", err
		}

		return buf.String(), nil
	}

	files, err := filepath.Glob(filepath.Join(location, "*.sql"))
	if err != nil {
		return "", errors.Wrapf(err, "failed to list %s", location)
	}
	if len(files) == 0 {
		return "", errors.Wrap(ErrEmpty, location)
	}

	sort.Strings(files)
	for _, file := range files {
		if err := Compile(file, &buf); err != nil {
			return "", err
		}
	}

	return buf.String(), nil
}

func (l *Loader) loadS3(ctx context.Context, location string, w io.Writer) error {
	if l.store == nil {
		return errors.Wrap(ErrNoStore, consts.S3Scheme+location)
	}

	bucket, key, _ := strings.Cut(location, "/")
	if bucket == "" {
		return errors.Errorf("invalid location %s%s: missing bucket", consts.S3Scheme, location)
	}

	open := func(ctx context.Context, name string) (io.ReadCloser, error) {
		return l.store.GetObject(ctx, bucket, name)
	}

	if key != "" && !strings.HasSuffix(key, "/") {
		return compile(ctx, open, resolveKey, key, w, nil)
	}

	keys, err := l.store.ListObjects(ctx, bucket, key)
	if err != nil {
		return errors.Wrapf(err, "failed to list %s%s", consts.S3Scheme, location)
	}

	var files []string
	for _, k := range keys {
		// Only direct children, matching the directory behaviour.
		if strings.HasSuffix(k, ".sql") && !strings.Contains(strings.TrimPrefix(k, key), "/") {
			files = append(files, k)
		}
	}
	if len(files) == 0 {
		return errors.Wrap(ErrEmpty, consts.S3Scheme+location)
	}

	sort.Strings(files)
	for _, file := range files {
		if err := compile(ctx, open, resolveKey, file, w, nil); err != nil {
			return err
		}
	}

	return nil
}
