package shell

import (
	"io"
	"os"
)

// FileOpener abstracts the file-system reads that cat, wc, and grep
// perform. This is the teacher repo's redirection-era FileOpener
// interface repurposed: there are no redirections in this spec, but the
// same seam — letting tests substitute an in-memory file system without
// touching disk — is exactly what the builtin file-reading paths need.
type FileOpener interface {
	// Open opens name for reading. Callers must Close the result.
	Open(name string) (io.ReadCloser, error)
}

// DefaultFileOpener implements FileOpener against the real file system.
type DefaultFileOpener struct{}

func (DefaultFileOpener) Open(name string) (io.ReadCloser, error) {
	return os.Open(name)
}
