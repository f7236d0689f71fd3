package propagation

import (
	"errors"
	"strconv"

	"github.com/avrek/propsim/internal/confnode"
)

// prefixPath rebases the key path of a confnode error onto the enclosing
// object's path, so the caller sees the full hierarchical key.
func prefixPath(err error, at confnode.KeyPath) error {
	var missing *confnode.MissingKeyError
	if errors.As(err, &missing) {
		missing.Path = at.Child(missing.Path...)
		return err
	}
	var mismatch *confnode.TypeMismatchError
	if errors.As(err, &mismatch) {
		mismatch.Path = at.Child(mismatch.Path...)
		return err
	}
	return err
}

func indexKey(i int) string { return strconv.Itoa(i) }
