package config

import "fmt"

// ErrorKind classifies configuration failures.
type ErrorKind int

const (
	// MissingKind means a required variable is not set.
	MissingKind ErrorKind = iota + 1
	// InvalidKind means a variable is set but cannot be parsed.
	InvalidKind
)

// Error is returned by every loader in this package.
type Error struct {
	Kind  ErrorKind
	Key   string
	Value string
}

func (e *Error) Error() string {
	switch e.Kind {
	case MissingKind:
		return fmt.Sprintf("Missing configuration key: %s", e.Key)
	case InvalidKind:
		return fmt.Sprintf("Invalid configuration key: %s, value: %s", e.Key, e.Value)
	}
	return fmt.Sprintf("configuration key %s", e.Key)
}

func missing(v Variable) *Error {
	return &Error{Kind: MissingKind, Key: v.Key()}
}

func invalid(v Variable, raw string) *Error {
	return &Error{Kind: InvalidKind, Key: v.Key(), Value: raw}
}
