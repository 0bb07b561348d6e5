package plugin

import (
	"errors"
	"fmt"
)

// Sentinels matched by errors.Is for the typed errors below.
var (
	ErrModuleNotFound    = errors.New("plugin module not found")
	ErrAttributeNotFound = errors.New("plugin type not found")
	ErrInstantiation     = errors.New("plugin instantiation failed")
)

// ModuleResolutionError means the module part of a class reference is not
// registered.
type ModuleResolutionError struct {
	Module string
}

func (e *ModuleResolutionError) Error() string {
	if e.Module == "" {
		return "no plugin module given"
	}
	return fmt.Sprintf("no plugin module named %q", e.Module)
}

// Is reports whether target is ErrModuleNotFound.
func (e *ModuleResolutionError) Is(target error) bool {
	return target == ErrModuleNotFound
}

// AttributeResolutionError means the module exists but has no type with
// the requested name.
type AttributeResolutionError struct {
	Module string
	Name   string
}

func (e *AttributeResolutionError) Error() string {
	return fmt.Sprintf("plugin module %q has no type %q", e.Module, e.Name)
}

// Is reports whether target is ErrAttributeNotFound.
func (e *AttributeResolutionError) Is(target error) bool {
	return target == ErrAttributeNotFound
}

// InstantiationError wraps a failure raised while constructing a plugin.
type InstantiationError struct {
	Class string
	Err   error
}

func (e *InstantiationError) Error() string {
	return fmt.Sprintf("instantiate %s: %v", e.Class, e.Err)
}

// Unwrap returns the constructor error.
func (e *InstantiationError) Unwrap() error {
	return e.Err
}

// Is reports whether target is ErrInstantiation.
func (e *InstantiationError) Is(target error) bool {
	return target == ErrInstantiation
}
