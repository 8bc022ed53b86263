package db

import (
	"errors"
	"fmt"
)

// ErrNotFound is returned when a session, profile or transcript does not exist
var ErrNotFound = errors.New("not found")

// StoreError records which store operation failed and for which key
type StoreError struct {
	Op  string // "create", "rename", "delete", "read", "write"
	Key string // session or profile id
	Err error
}

func (e *StoreError) Error() string {
	return fmt.Sprintf("store error: %s %s: %v", e.Op, e.Key, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

func storeErr(op, key string, err error) error {
	if err == nil {
		return nil
	}
	return &StoreError{Op: op, Key: key, Err: err}
}
