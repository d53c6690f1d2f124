package shell

import (
	"fmt"
	"io"
	"os"
)

// Slot indexes a descriptor triple.
type Slot int

const (
	Stdin Slot = iota
	Stdout
	Stderr
)

var slotNames = [...]string{"stdin", "stdout", "stderr"}

func (s Slot) String() string {
	if s < Stdin || s > Stderr {
		return fmt.Sprintf("Slot(%d)", int(s))
	}
	return slotNames[s]
}

// Handle is one slot of a descriptor triple. The zero value is Inherit: the
// slot uses the shell's own standard stream. Otherwise the handle owns an
// open file that must be released exactly once.
type Handle struct {
	file *os.File
}

// Inherit uses the shell's standard stream for the slot.
var Inherit = Handle{}

// Owned wraps a pipe end or redirected file.
func Owned(f *os.File) Handle {
	return Handle{file: f}
}

// Inherited reports whether the handle is the Inherit sentinel.
func (h Handle) Inherited() bool {
	return h.file == nil
}

// File returns the owned file, or nil for Inherit.
func (h Handle) File() *os.File {
	return h.file
}

func (h Handle) String() string {
	if h.Inherited() {
		return "inherit"
	}
	return h.file.Name()
}

// Stdio is a descriptor triple indexed by Slot. Several slots may share the
// same owned file (e.g. after &>); the file is closed when the last slot lets
// go of it.
type Stdio [3]Handle

// Replace puts h into the slot. The previous owned file is closed unless
// another slot still refers to it. Standard streams are never closed.
func (s *Stdio) Replace(slot Slot, h Handle) error {
	old := s[slot]
	s[slot] = h
	if old.Inherited() || s.refers(old.file) {
		return nil
	}
	if err := old.file.Close(); err != nil {
		return &ResourceError{Op: "close", Path: old.file.Name(), Err: err}
	}
	return nil
}

func (s *Stdio) refers(f *os.File) bool {
	for _, h := range s {
		if h.file == f {
			return true
		}
	}
	return false
}

// Release closes every distinct owned file once and resets all slots to
// Inherit. Releasing an already released triple does nothing.
func (s *Stdio) Release() error {
	var firstErr error
	for i, h := range s {
		s[i] = Inherit
		if h.Inherited() || s.refers(h.file) {
			continue
		}
		if err := h.file.Close(); err != nil && firstErr == nil {
			firstErr = &ResourceError{Op: "close", Path: h.file.Name(), Err: err}
		}
	}
	return firstErr
}

// Files resolves the triple against the shell's standard files.
func (s *Stdio) Files(std [3]*os.File) [3]*os.File {
	var out [3]*os.File
	for i, h := range s {
		if h.Inherited() {
			out[i] = std[i]
		} else {
			out[i] = h.file
		}
	}
	return out
}

// IO is the resolved set of streams handed to a builtin.
type IO struct {
	Stdin  io.Reader
	Stdout io.Writer
	Stderr io.Writer

	// Files are the resolved files behind the streams, nil where there is
	// none.
	Files [3]*os.File
}

// NewIO builds an IO from resolved files. Missing files read as closed and
// discard writes.
func NewIO(files [3]*os.File) IO {
	stdio := IO{Stdin: devNull{}, Stdout: devNull{}, Stderr: devNull{}, Files: files}
	if f := files[Stdin]; f != nil {
		stdio.Stdin = f
	}
	if f := files[Stdout]; f != nil {
		stdio.Stdout = f
	}
	if f := files[Stderr]; f != nil {
		stdio.Stderr = f
	}
	return stdio
}

// devNull always ends reads and discards writes.
type devNull struct{}

func (devNull) Read([]byte) (int, error) {
	return 0, io.EOF
}

func (devNull) Write(b []byte) (int, error) {
	return len(b), nil
}
