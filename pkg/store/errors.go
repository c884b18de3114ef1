package store

import "errors"

// Common errors returned by the store.
var (
	// ErrNoEntity is returned for a despawned or never spawned entity.
	ErrNoEntity = errors.New("entity does not exist")

	// ErrNoComponent is returned when an entity lacks the requested component.
	ErrNoComponent = errors.New("entity has no such component")

	// ErrForeignComponent is returned when a query uses a column registered on
	// another world.
	ErrForeignComponent = errors.New("component belongs to another world")

	// ErrNotReadable is raised (by panic) when an item reads a component its
	// query did not declare.
	ErrNotReadable = errors.New("component not declared as read by query")

	// ErrNotWritable is raised (by panic) when an item writes a component its
	// query did not declare as written.
	ErrNotWritable = errors.New("component not declared as written by query")
)
