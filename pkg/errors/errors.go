// Package errors provides the structured error types used across labelclean.
// Every constructor attaches a stack trace via cockroachdb/errors, and every
// type knows how to marshal itself into a zerolog event.
package errors

import (
	"fmt"

	"github.com/cockroachdb/errors"
	"github.com/rs/zerolog"
)

// ===========================================================================
//
//	Pipeline error types
//
// ===========================================================================

// ConfigurationError indicates an invalid parameter at the pipeline boundary,
// such as a fold count the label distribution cannot support.
type ConfigurationError struct {
	Param  string
	Reason string
	Value  interface{}
}

func (e *ConfigurationError) Error() string {
	return fmt.Sprintf("labelclean: invalid configuration for %q: %s (got: %v)", e.Param, e.Reason, e.Value)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ConfigurationError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("param", e.Param).
		Str("reason", e.Reason).
		Interface("value", e.Value).
		Str("type", "ConfigurationError")
}

// NewConfigurationError creates a new ConfigurationError with a stack trace.
func NewConfigurationError(param, reason string, value interface{}) error {
	err := &ConfigurationError{Param: param, Reason: reason, Value: value}
	return errors.WithStack(err)
}

// WritePermissionError indicates a write was attempted on a read-only dataset.
// It is raised before any side effect takes place.
type WritePermissionError struct {
	Dataset string
	Op      string
}

func (e *WritePermissionError) Error() string {
	return fmt.Sprintf("labelclean: %s: dataset %q is read-only; reopen it writable to persist results", e.Op, e.Dataset)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *WritePermissionError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("dataset", e.Dataset).
		Str("operation", e.Op).
		Str("type", "WritePermissionError")
}

// NewWritePermissionError creates a new WritePermissionError with a stack trace.
func NewWritePermissionError(dataset, op string) error {
	err := &WritePermissionError{Dataset: dataset, Op: op}
	return errors.WithStack(err)
}

// TensorExistsError indicates the target tensor group already exists and the
// overwrite flag was not set. No write is performed.
type TensorExistsError struct {
	Group  string
	Branch string
}

func (e *TensorExistsError) Error() string {
	if e.Branch != "" {
		return fmt.Sprintf("labelclean: tensor group %q already exists on branch %q; pass overwrite to replace it", e.Group, e.Branch)
	}
	return fmt.Sprintf("labelclean: tensor group %q already exists; pass overwrite to replace it", e.Group)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *TensorExistsError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("group", e.Group).
		Str("branch", e.Branch).
		Str("type", "TensorExistsError")
}

// NewTensorExistsError creates a new TensorExistsError with a stack trace.
func NewTensorExistsError(group, branch string) error {
	err := &TensorExistsError{Group: group, Branch: branch}
	return errors.WithStack(err)
}

// InsufficientDataError indicates that no samples survived filtering, so there
// is nothing left to train on.
type InsufficientDataError struct {
	Op        string
	Total     int
	Remaining int
}

func (e *InsufficientDataError) Error() string {
	return fmt.Sprintf("labelclean: %s: %d of %d samples remain after filtering; cannot fit a model", e.Op, e.Remaining, e.Total)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *InsufficientDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Int("total", e.Total).
		Int("remaining", e.Remaining).
		Str("type", "InsufficientDataError")
}

// NewInsufficientDataError creates a new InsufficientDataError with a stack trace.
func NewInsufficientDataError(op string, total, remaining int) error {
	err := &InsufficientDataError{Op: op, Total: total, Remaining: remaining}
	return errors.WithStack(err)
}

// ConsistencyError indicates an internal invariant was violated, such as a
// probability-matrix row left unpopulated after cross-validation. It points at
// a defect in this library, not at caller input.
type ConsistencyError struct {
	Op     string
	Detail string
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("labelclean: internal consistency violation in %s: %s", e.Op, e.Detail)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *ConsistencyError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("operation", e.Op).
		Str("detail", e.Detail).
		Str("type", "ConsistencyError")
}

// NewConsistencyError creates a new ConsistencyError with a stack trace.
func NewConsistencyError(op, detail string) error {
	err := &ConsistencyError{Op: op, Detail: detail}
	return errors.WithStack(err)
}

// NoIssueDataError indicates a clean view was requested without an issue mask
// and the dataset has no persisted issue tensors to fall back on.
type NoIssueDataError struct {
	Dataset string
	Group   string
}

func (e *NoIssueDataError) Error() string {
	return fmt.Sprintf("labelclean: dataset %q has no persisted %q tensors; run detection with create-tensors first or pass a mask", e.Dataset, e.Group)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NoIssueDataError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("dataset", e.Dataset).
		Str("group", e.Group).
		Str("type", "NoIssueDataError")
}

// NewNoIssueDataError creates a new NoIssueDataError with a stack trace.
func NewNoIssueDataError(dataset, group string) error {
	err := &NoIssueDataError{Dataset: dataset, Group: group}
	return errors.WithStack(err)
}

// BranchRestoreError indicates the dataset could not be switched back to the
// branch that was active when a write transaction began. The caller's branch
// context is lost, which makes this fatal rather than a wrapped warning.
type BranchRestoreError struct {
	Branch string
	Cause  error
	// WriteErr holds the write failure that triggered restoration, if any.
	WriteErr error
}

func (e *BranchRestoreError) Error() string {
	if e.WriteErr != nil {
		return fmt.Sprintf("labelclean: failed to restore branch %q after write error (%v): %v", e.Branch, e.WriteErr, e.Cause)
	}
	return fmt.Sprintf("labelclean: failed to restore branch %q: %v", e.Branch, e.Cause)
}

func (e *BranchRestoreError) Unwrap() error { return e.Cause }

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *BranchRestoreError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("branch", e.Branch).
		AnErr("cause", e.Cause).
		AnErr("write_error", e.WriteErr).
		Str("type", "BranchRestoreError")
}

// NewBranchRestoreError creates a new BranchRestoreError with a stack trace.
func NewBranchRestoreError(branch string, cause, writeErr error) error {
	err := &BranchRestoreError{Branch: branch, Cause: cause, WriteErr: writeErr}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Model-layer error types
//
// ===========================================================================

// NotFittedError indicates Predict or PredictProba was called on a model that
// has not been fitted.
type NotFittedError struct {
	ModelName string
	Method    string
}

func (e *NotFittedError) Error() string {
	return fmt.Sprintf("labelclean: %s: this model is not fitted yet. Call Fit() before using %s()", e.ModelName, e.Method)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *NotFittedError) MarshalZerologObject(event *zerolog.Event) {
	event.Str("model_name", e.ModelName).
		Str("method", e.Method).
		Str("type", "NotFittedError")
}

// NewNotFittedError creates a new NotFittedError with a stack trace.
func NewNotFittedError(modelName, method string) error {
	err := &NotFittedError{ModelName: modelName, Method: method}
	return errors.WithStack(err)
}

// DimensionError indicates input data whose shape does not match expectations.
type DimensionError struct {
	Op       string
	Expected int
	Got      int
	Axis     int // 0 for rows, 1 for columns/features
}

func (e *DimensionError) Error() string {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	return fmt.Sprintf("labelclean: %s: dimension mismatch on axis %d (%s). Expected %d, got %d", e.Op, e.Axis, axisName, e.Expected, e.Got)
}

// MarshalZerologObject adds structured error information to a zerolog event.
func (e *DimensionError) MarshalZerologObject(event *zerolog.Event) {
	axisName := "features"
	if e.Axis == 0 {
		axisName = "rows"
	}
	event.Str("operation", e.Op).
		Int("expected", e.Expected).
		Int("got", e.Got).
		Int("axis", e.Axis).
		Str("axis_name", axisName).
		Str("type", "DimensionError")
}

// NewDimensionError creates a new DimensionError with a stack trace.
func NewDimensionError(op string, expected, got, axis int) error {
	err := &DimensionError{Op: op, Expected: expected, Got: got, Axis: axis}
	return errors.WithStack(err)
}

// ===========================================================================
//
//	cockroachdb/errors wrappers
//
// ===========================================================================

// Is reports whether err matches the target error.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As reports whether err can be assigned to target's type.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}

// Wrap wraps an existing error with a message.
func Wrap(err error, message string) error {
	return errors.Wrap(err, message)
}

// Wrapf wraps an existing error with a format string.
func Wrapf(err error, format string, args ...interface{}) error {
	return errors.Wrapf(err, format, args...)
}

// New creates a new error.
func New(message string) error {
	return errors.New(message)
}

// Newf creates a new formatted error.
func Newf(format string, args ...interface{}) error {
	return errors.Newf(format, args...)
}

// WithStack attaches a stack trace to an error.
func WithStack(err error) error {
	return errors.WithStack(err)
}

// ===========================================================================
//
//	Common error values
//
// ===========================================================================

var (
	// ErrEmptyData is returned when empty data is passed.
	ErrEmptyData = New("empty data")
)
