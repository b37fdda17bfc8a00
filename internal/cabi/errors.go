package cabi

import "github.com/hsiuhsiu/objinfo-go/internal/boundary"

type argError string

func (e argError) Error() string { return string(e) }

func (e argError) BoundaryCode() boundary.Code { return boundary.CodeInvalidArgument }

type internalError string

func (e internalError) Error() string { return string(e) }

func (e internalError) BoundaryCode() boundary.Code { return boundary.CodeInternal }

var (
	// ErrNullArgument is returned when a required pointer argument is NULL.
	ErrNullArgument error = argError("null argument")

	// ErrHandleType is returned when a handle refers to a value of the wrong
	// type.
	ErrHandleType error = internalError("handle refers to a value of the wrong type")

	// ErrAlloc is returned when the C allocator fails.
	ErrAlloc error = internalError("C allocation failed")
)
