package normalize

import (
	"errors"
	"fmt"
	"io/fs"

	"github.com/haivivi/avatar/pkg/audio/pcm"
)

var (
	// ErrNotFound matches errors for input files that do not exist.
	ErrNotFound = errors.New("normalize: audio file not found")

	// ErrConversionFailed matches every other decode, resample or encode
	// failure.
	ErrConversionFailed = errors.New("normalize: conversion failed")

	// ErrInvalidFormat is wrapped when a target format is unusable.
	ErrInvalidFormat = pcm.ErrInvalidFormat

	// ErrUnknownContainer is wrapped when the input is neither WAVE nor MP3.
	ErrUnknownContainer = errors.New("normalize: unrecognized audio container")
)

// ConversionError records a failed operation on an audio file.
//
// A missing input matches ErrNotFound, anything else matches
// ErrConversionFailed. Unwrap yields the underlying cause.
type ConversionError struct {
	Op   string
	Path string
	Err  error
}

func (e *ConversionError) Error() string {
	return fmt.Sprintf("normalize: %s %s: %v", e.Op, e.Path, e.Err)
}

func (e *ConversionError) Unwrap() error {
	return e.Err
}

func (e *ConversionError) Is(target error) bool {
	missing := errors.Is(e.Err, fs.ErrNotExist)
	switch target {
	case ErrNotFound:
		return missing
	case ErrConversionFailed:
		return !missing
	}
	return false
}
