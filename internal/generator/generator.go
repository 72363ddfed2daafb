package generator

import (
	"github.com/google/uuid"
)

// Generator is an interface that defines a method to generate a new value of type T.
// Schedule IDs are drawn from a Generator[string].
type Generator[T any] interface {
	Next() (T, error)
}

// UUIDV4Generator produces random UUIDv4 strings.
type UUIDV4Generator struct{}

func (g *UUIDV4Generator) Next() (string, error) {
	id, err := uuid.NewRandom()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV4Generator{}

// UUIDV7Generator produces time-ordered UUIDv7 strings, so schedules created
// later sort after earlier ones.
type UUIDV7Generator struct{}

func (g *UUIDV7Generator) Next() (string, error) {
	id, err := uuid.NewV7()
	if err != nil {
		return "", err
	}
	return id.String(), nil
}

var _ Generator[string] = &UUIDV7Generator{}

// Fixed always returns the same value.
type Fixed[T any] struct {
	Value T
}

func (g Fixed[T]) Next() (T, error) {
	return g.Value, nil
}

var _ Generator[string] = Fixed[string]{}
