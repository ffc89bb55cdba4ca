package adapter

import (
	"fmt"

	"github.com/pingcap/errors"
)

// ErrInvalidDSNKey is returned for a DSN part whose key is not one of h, u,
// p, P or D.
var ErrInvalidDSNKey = errors.New("DSN contains invalid key")

// SchemaNotFoundError is returned when the requested schema does not exist
// on the server.
type SchemaNotFoundError struct {
	Schema string
}

func (e *SchemaNotFoundError) Error() string {
	return fmt.Sprintf("Schema %s doesn't exist", e.Schema)
}

// ConnectionError is returned when a connection cannot be established.
type ConnectionError struct {
	Driver string
	Host   string
	Err    error
}

func (e *ConnectionError) Error() string {
	return fmt.Sprintf("connect to %s server %s: %v", e.Driver, e.Host, e.Err)
}

func (e *ConnectionError) Unwrap() error { return e.Err }

// IsSchemaNotFound reports whether err was caused by a missing schema.
func IsSchemaNotFound(err error) bool {
	_, ok := errors.Cause(err).(*SchemaNotFoundError)
	return ok
}

// IsConnectionError reports whether err was caused by a failed connection.
func IsConnectionError(err error) bool {
	_, ok := errors.Cause(err).(*ConnectionError)
	return ok
}
