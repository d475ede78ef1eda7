package scan

import "fmt"

// DirectoryError reports a directory that cannot be listed or yielded no
// usable entries.
type DirectoryError struct {
	Dir string
	Err error
}

func (e *DirectoryError) Error() string {
	return fmt.Sprintf("scan %s: %v", e.Dir, e.Err)
}

func (e *DirectoryError) Unwrap() error { return e.Err }

// CatalogError reports a file that is not a valid catalog or lacks a
// required catalog attribute.
type CatalogError struct {
	Path string
	Err  error
}

func (e *CatalogError) Error() string {
	return fmt.Sprintf("catalog %s: %v", e.Path, e.Err)
}

func (e *CatalogError) Unwrap() error { return e.Err }
