package feed

import "github.com/cockroachdb/errors"

// InputError wraps a startup-time failure to open or map the feed file.
// It is always fatal: the caller is expected to abort before the
// pipeline starts rather than attempt to recover.
type InputError struct {
	Path string
	Op   string
	err  error
}

func (e *InputError) Error() string {
	return errors.Wrapf(e.err, "feed: %s %s", e.Op, e.Path).Error()
}

func (e *InputError) Unwrap() error { return e.err }

func newInputError(op, path string, cause error) *InputError {
	return &InputError{Path: path, Op: op, err: cause}
}
