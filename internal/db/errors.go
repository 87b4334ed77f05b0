package db

import (
	"errors"
	"fmt"
)

// ErrKeyNotFound is returned by Get when the key does not exist.
var ErrKeyNotFound = errors.New("key not found")

// Op identifies the store operation that failed.
type Op string

const (
	OpGet    Op = "GET"
	OpSet    Op = "SET"
	OpExpire Op = "EXPIRE"
	OpPing   Op = "PING"
)

// Error wraps a store failure with the operation that caused it.
type Error struct {
	Op  Op
	Err error
}

func (e *Error) Error() string {
	return fmt.Sprintf("db %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}
