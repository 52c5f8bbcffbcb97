package db

import (
	"errors"
	"testing"
)

func TestError_Unwrap(t *testing.T) {
	cause := errors.New("connection reset")
	err := &Error{Op: OpGet, Err: cause}

	if err.Error() != "GET: connection reset" {
		t.Errorf("unexpected message %q", err.Error())
	}
	if !errors.Is(err, cause) {
		t.Error("Error must unwrap to its cause")
	}
	if errors.Is(err, ErrKeyNotFound) {
		t.Error("network errors must not look like a cache miss")
	}
}
