package dicom

import "fmt"

// OpenError reports a file that is missing, unreadable or not valid DICOM.
type OpenError struct {
	Path string
	Err  error
}

func (e *OpenError) Error() string {
	return fmt.Sprintf("open %s: %v", e.Path, e.Err)
}

func (e *OpenError) Unwrap() error { return e.Err }

// ParseError reports an element whose value could not be rendered to text.
type ParseError struct {
	Tag string
	Err error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("parse element %s: %v", e.Tag, e.Err)
}

func (e *ParseError) Unwrap() error { return e.Err }

// DecodeError reports pixel data that could not be decoded to a bitmap.
type DecodeError struct {
	Path string
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode pixel data in %s: %v", e.Path, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }
