package transfer

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

var ErrBadFileName = errors.New("transfer: unusable file name")

// Sink receives reconstructed plaintext. Commit makes the output visible
// atomically and must only be called after the session reaches Completed;
// Discard destroys any partial output and is safe to call on every failure
// path, including after Commit.
type Sink interface {
	io.Writer
	Commit() error
	Discard() error
}

// SinkFactory opens a sink once the receiver has validated the header.
// name is the sanitized base name declared by the sender.
type SinkFactory func(name string, size uint64) (Sink, error)

// DirSink returns a factory writing committed files into dir.
func DirSink(dir string) SinkFactory {
	return func(name string, size uint64) (Sink, error) {
		return NewFileSink(dir, name)
	}
}

// sanitizeName reduces a sender-supplied name to a safe base name.
func sanitizeName(name string) (string, error) {
	base := filepath.Base(filepath.Clean(name))
	if base == "" || base == "." || base == ".." || base == string(filepath.Separator) {
		return "", fmt.Errorf("%w: %q", ErrBadFileName, name)
	}
	return base, nil
}

// FileSink writes to a temp file in the target directory and renames it
// into place on Commit, so a crash mid-transfer never leaves a
// partially-written file under the final name.
type FileSink struct {
	tmp   *os.File
	final string
	done  bool
}

// NewFileSink creates a sink committing to dir/base(name).
func NewFileSink(dir, name string) (*FileSink, error) {
	base, err := sanitizeName(name)
	if err != nil {
		return nil, err
	}
	tmp, err := os.CreateTemp(dir, ".skiff-*.part")
	if err != nil {
		return nil, err
	}
	return &FileSink{tmp: tmp, final: filepath.Join(dir, base)}, nil
}

// Path returns the path the file will be committed to.
func (s *FileSink) Path() string { return s.final }

func (s *FileSink) Write(p []byte) (int, error) {
	return s.tmp.Write(p)
}

func (s *FileSink) Commit() error {
	if s.done {
		return nil
	}
	if err := s.tmp.Sync(); err != nil {
		s.cleanup()
		return err
	}
	if err := s.tmp.Close(); err != nil {
		s.cleanup()
		return err
	}
	if err := os.Rename(s.tmp.Name(), s.final); err != nil {
		_ = os.Remove(s.tmp.Name())
		s.done = true
		return err
	}
	s.done = true
	return nil
}

func (s *FileSink) Discard() error {
	if s.done {
		return nil
	}
	s.cleanup()
	return nil
}

func (s *FileSink) cleanup() {
	_ = s.tmp.Close()
	_ = os.Remove(s.tmp.Name())
	s.done = true
}
