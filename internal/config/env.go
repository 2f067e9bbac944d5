package config

import (
	"errors"
	"os"
	"strconv"
	"unicode/utf8"
)

var errZero = errors.New("must be greater than zero")

func lookup(v Variable) (string, bool) {
	return os.LookupEnv(v.Key())
}

// readRequired returns the parsed value of v or a Missing/Invalid error.
func readRequired[T any](v Variable, parse func(string) (T, error)) (T, error) {
	var zero T
	raw, ok := lookup(v)
	if !ok {
		return zero, missing(v)
	}
	return parseValue(v, raw, parse)
}

// readOptional behaves like readRequired but returns fallback when v is unset.
func readOptional[T any](v Variable, fallback T, parse func(string) (T, error)) (T, error) {
	raw, ok := lookup(v)
	if !ok {
		return fallback, nil
	}
	return parseValue(v, raw, parse)
}

func parseValue[T any](v Variable, raw string, parse func(string) (T, error)) (T, error) {
	var zero T
	if !utf8.ValidString(raw) {
		return zero, invalid(v, raw)
	}
	value, err := parse(raw)
	if err != nil {
		return zero, invalid(v, raw)
	}
	return value, nil
}

func parseString(raw string) (string, error) {
	return raw, nil
}

func parseUint16(raw string) (uint16, error) {
	n, err := strconv.ParseUint(raw, 10, 16)
	return uint16(n), err
}

func parsePoolSize(raw string) (uint32, error) {
	n, err := strconv.ParseUint(raw, 10, 32)
	if err != nil {
		return 0, err
	}
	if n == 0 {
		return 0, errZero
	}
	return uint32(n), nil
}
