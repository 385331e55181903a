package lesson

import "errors"

var (
	// ErrNotFound indicates the requested lesson does not exist.
	ErrNotFound = errors.New("lesson not found")

	// ErrSelfReference indicates a lesson was asked to supersede or
	// relate to itself.
	ErrSelfReference = errors.New("lesson cannot reference itself")

	// ErrAlreadySuperseded indicates the lesson already carries a
	// superseded-by pointer; there is no version chain beyond it.
	ErrAlreadySuperseded = errors.New("lesson already superseded")
)
