package source

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/pkg/errors"
	"github.com/pseudomuto/dbmover/pkg/consts"
)

// ErrImportCycle is returned when a file imports itself, directly or not.
var ErrImportCycle = errors.New("import cycle")

// opener opens a named schema file. Names are resolved by the caller.
type opener func(ctx context.Context, name string) (io.ReadCloser, error)

// resolver returns the name an import refers to, relative to the importing file.
type resolver func(base, ref string) string

// Compile recursively compiles a local schema file and its imports. It processes
// import directives (lines starting with "-- dbmover:import") and includes the
// referenced files' contents in the output. Import paths are resolved relative
// to the current file's directory.
//
// Example:
//
//	var buf bytes.Buffer
//	if err := source.Compile("db/main.sql", &buf); err != nil {
//		log.Fatal(err)
//	}
//
//	residual, err := reconciler.Reconcile(ctx, buf.String())
func Compile(path string, w io.Writer) error {
	return compile(context.Background(), openFile, resolveFile, path, w, nil)
}

func compile(ctx context.Context, open opener, resolve resolver, name string, w io.Writer, stack []string) error {
	for _, seen := range stack {
		if seen == name {
			return errors.Wrapf(ErrImportCycle, "%s -> %s", strings.Join(stack, " -> "), name)
		}
	}
	stack = append(stack, name)

	f, err := open(ctx, name)
	if err != nil {
		return errors.Wrapf(err, "failed to read file %s", name)
	}
	defer func() { _ = f.Close() }()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if ref, ok := importRef(line); ok {
			if err := compile(ctx, open, resolve, resolve(name, ref), w, stack); err != nil {
				return err
			}

			continue
		}

		if _, err := fmt.Fprintln(w, line); err != nil {
			return errors.Wrap(err, "failed to write compiled schema")
		}
	}

	return errors.Wrapf(scanner.Err(), "failed scanning %s", name)
}

func importRef(line string) (string, bool) {
	rest, ok := strings.CutPrefix(strings.TrimSpace(line), consts.ImportDirective)
	if !ok || (rest != "" && rest[0] != ' ' && rest[0] != '\t') {
		return "", false
	}

	fields := strings.Fields(rest)
	if len(fields) == 0 {
		return "", false
	}

	return fields[len(fields)-1], true
}

func openFile(_ context.Context, name string) (io.ReadCloser, error) {
	return os.Open(name)
}

func resolveFile(base, ref string) string {
	if filepath.IsAbs(ref) {
		return ref
	}

	return filepath.Join(filepath.Dir(base), ref)
}

// resolveKey resolves an import inside a bucket. Keys are always slash separated.
func resolveKey(base, ref string) string {
	if strings.HasPrefix(ref, "/") {
		return strings.TrimPrefix(path.Clean(ref), "/")
	}

	return path.Join(path.Dir(base), ref)
}
