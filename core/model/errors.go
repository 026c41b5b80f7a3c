package model

import (
	"errors"
	"fmt"
)

var (
	// ErrConfig matches every *ConfigError.
	ErrConfig = errors.New("invalid configuration")
	// ErrDistortion matches every *DistortionError.
	ErrDistortion = errors.New("invalid distortion")
)

// ConfigError reports a malformed or inconsistent configuration field.
type ConfigError struct {
	Field  string
	Reason string
}

func (e *ConfigError) Error() string {
	return fmt.Sprintf("config %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrConfig) succeed.
func (e *ConfigError) Is(target error) bool { return target == ErrConfig }

// DistortionError reports an inconsistent time distortion specification.
type DistortionError struct {
	Field  string
	Reason string
}

func (e *DistortionError) Error() string {
	return fmt.Sprintf("distortion %s: %s", e.Field, e.Reason)
}

// Is makes errors.Is(err, ErrDistortion) succeed.
func (e *DistortionError) Is(target error) bool { return target == ErrDistortion }

// PrefixField returns err with prefix prepended to the offending field path.
// Errors of other types are returned unchanged.
func PrefixField(err error, prefix string) error {
	var ce *ConfigError
	if errors.As(err, &ce) {
		return &ConfigError{Field: joinField(prefix, ce.Field), Reason: ce.Reason}
	}
	var de *DistortionError
	if errors.As(err, &de) {
		return &DistortionError{Field: joinField(prefix, de.Field), Reason: de.Reason}
	}
	return err
}

func joinField(prefix, field string) string {
	if field == "" {
		return prefix
	}
	if prefix == "" {
		return field
	}
	return prefix + "." + field
}
