/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package errors

import (
	"errors"
	"fmt"
	"reflect"
)

// Common sentinel errors
var (
	// ErrDuplicateRegistration is returned when a contract is registered twice
	ErrDuplicateRegistration = errors.New("contract already registered")

	// ErrUnregisteredContract is returned when resolving or replacing an unknown contract
	ErrUnregisteredContract = errors.New("contract not registered")

	// ErrInvalidRegistration is returned when an implementation cannot satisfy its contract
	ErrInvalidRegistration = errors.New("invalid registration")

	// ErrCircularDependency is returned when a resolution chain revisits a contract
	ErrCircularDependency = errors.New("circular dependency")

	// ErrProviderPanic is returned when a provider panics during construction
	ErrProviderPanic = errors.New("provider panicked")

	// ErrUnsupportedShape is returned when no dynamic type can be synthesized for a shape
	ErrUnsupportedShape = errors.New("unsupported shape")

	// ErrUnknownProperty is returned when a dynamic object has no property with the given name
	ErrUnknownProperty = errors.New("unknown property")

	// ErrUnknownCommand is returned when a dynamic object has no command with the given name
	ErrUnknownCommand = errors.New("unknown command")

	// ErrCommandDisabled is returned when a command's can-execute predicate rejects the call
	ErrCommandDisabled = errors.New("command cannot execute")

	// ErrNoKeyProperty is returned when an identity filter is requested for a keyless entity
	ErrNoKeyProperty = errors.New("no key property")

	// ErrNotEntity is returned when a type cannot be described as an entity
	ErrNotEntity = errors.New("not an entity type")

	// ErrNotFound is returned when an entity is not found
	ErrNotFound = errors.New("entity not found")

	// ErrInvalidInput is returned when input validation fails
	ErrInvalidInput = errors.New("invalid input")
)

// DuplicateRegistrationError reports a second registration for the same contract
type DuplicateRegistrationError struct {
	Contract reflect.Type
}

func (e *DuplicateRegistrationError) Error() string {
	return fmt.Sprintf("contract %s already registered", typeName(e.Contract))
}

func (e *DuplicateRegistrationError) Is(target error) bool {
	return target == ErrDuplicateRegistration
}

// UnregisteredContractError reports a resolve or replace on an unknown contract
type UnregisteredContractError struct {
	Contract reflect.Type
}

func (e *UnregisteredContractError) Error() string {
	return fmt.Sprintf("contract %s not registered", typeName(e.Contract))
}

func (e *UnregisteredContractError) Is(target error) bool {
	return target == ErrUnregisteredContract
}

// CircularDependencyError carries the resolution chain that looped
type CircularDependencyError struct {
	Chain []reflect.Type
}

func (e *CircularDependencyError) Error() string {
	msg := "circular dependency:"
	for i, t := range e.Chain {
		if i > 0 {
			msg += " ->"
		}
		msg += " " + typeName(t)
	}
	return msg
}

func (e *CircularDependencyError) Is(target error) bool {
	return target == ErrCircularDependency
}

// UnsupportedShapeError explains why a shape cannot be synthesized
type UnsupportedShapeError struct {
	Shape  string
	Reason string
}

func (e *UnsupportedShapeError) Error() string {
	return fmt.Sprintf("shape %q unsupported: %s", e.Shape, e.Reason)
}

func (e *UnsupportedShapeError) Is(target error) bool {
	return target == ErrUnsupportedShape
}

// NoKeyPropertyError reports an entity type without a designated key
type NoKeyPropertyError struct {
	Entity reflect.Type
}

func (e *NoKeyPropertyError) Error() string {
	return fmt.Sprintf("entity %s has no key property", typeName(e.Entity))
}

func (e *NoKeyPropertyError) Is(target error) bool {
	return target == ErrNoKeyProperty
}

// NotFoundError represents an error when an entity is not found
type NotFoundError struct {
	Type string
	Key  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s with key %q not found", e.Type, e.Key)
}

func (e *NotFoundError) Is(target error) bool {
	return target == ErrNotFound
}

// ValidationError represents an input validation error
type ValidationError struct {
	Field   string
	Message string
}

func (e *ValidationError) Error() string {
	if e.Field != "" {
		return fmt.Sprintf("validation failed for field %q: %s", e.Field, e.Message)
	}
	return fmt.Sprintf("validation failed: %s", e.Message)
}

func (e *ValidationError) Is(target error) bool {
	return target == ErrInvalidInput
}

// Helper functions for creating errors

// NewDuplicateRegistrationError creates a new DuplicateRegistrationError
func NewDuplicateRegistrationError(contract reflect.Type) error {
	return &DuplicateRegistrationError{Contract: contract}
}

// NewUnregisteredContractError creates a new UnregisteredContractError
func NewUnregisteredContractError(contract reflect.Type) error {
	return &UnregisteredContractError{Contract: contract}
}

// NewCircularDependencyError copies chain so callers may keep mutating theirs
func NewCircularDependencyError(chain []reflect.Type) error {
	cp := make([]reflect.Type, len(chain))
	copy(cp, chain)
	return &CircularDependencyError{Chain: cp}
}

// NewUnsupportedShapeError creates a new UnsupportedShapeError
func NewUnsupportedShapeError(shape, reason string) error {
	return &UnsupportedShapeError{Shape: shape, Reason: reason}
}

// NewNoKeyPropertyError creates a new NoKeyPropertyError
func NewNoKeyPropertyError(entity reflect.Type) error {
	return &NoKeyPropertyError{Entity: entity}
}

// NewNotFoundError creates a new NotFoundError
func NewNotFoundError(entityType, key string) error {
	return &NotFoundError{Type: entityType, Key: key}
}

// NewValidationError creates a new ValidationError
func NewValidationError(field, message string) error {
	return &ValidationError{Field: field, Message: message}
}

// IsDuplicateRegistration checks if an error is a duplicate registration error
func IsDuplicateRegistration(err error) bool {
	return errors.Is(err, ErrDuplicateRegistration)
}

// IsUnregisteredContract checks if an error is an unregistered contract error
func IsUnregisteredContract(err error) bool {
	return errors.Is(err, ErrUnregisteredContract)
}

// IsUnsupportedShape checks if an error is an unsupported shape error
func IsUnsupportedShape(err error) bool {
	return errors.Is(err, ErrUnsupportedShape)
}

// IsNoKeyProperty checks if an error is a missing key property error
func IsNoKeyProperty(err error) bool {
	return errors.Is(err, ErrNoKeyProperty)
}

// IsNotFound checks if an error is a not found error
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}

// IsValidationError checks if an error is a validation error
func IsValidationError(err error) bool {
	return errors.Is(err, ErrInvalidInput)
}

func typeName(t reflect.Type) string {
	if t == nil {
		return "<nil>"
	}
	return t.String()
}
