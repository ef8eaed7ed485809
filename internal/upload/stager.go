// Package upload stages multipart request files on local disk before they are
// handed to the storage gateway.
package upload

import (
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"

	"github.com/google/uuid"
)

const maxValueBytes = 64 << 10

var (
	// ErrTooLarge is returned when the request body exceeds Stager.MaxBytes.
	ErrTooLarge = errors.New("request body too large")
	// ErrNotMultipart is returned for requests that are not multipart/form-data.
	ErrNotMultipart = errors.New("request is not multipart/form-data")
)

// Stager copies selected file fields of a multipart request into Dir.
type Stager struct {
	Dir      string
	MaxBytes int64
}

// Form holds the staged files and the plain values of a multipart request.
type Form struct {
	files  map[string]string
	values map[string]string
}

// Path returns the staged path of a file field, or "" when the field was absent.
func (f *Form) Path(field string) string {
	return f.files[field]
}

// Value returns a plain form value.
func (f *Form) Value(field string) string {
	return f.values[field]
}

// Cleanup removes every staged file.
func (f *Form) Cleanup() {
	for _, path := range f.files {
		_ = os.Remove(path)
	}
}

// Stage streams the request body, writing the named file fields to disk and keeping
// plain fields in memory. File parts for other field names are discarded. On error
// anything already staged is removed.
func (s *Stager) Stage(w http.ResponseWriter, r *http.Request, fileFields ...string) (*Form, error) {
	if s.MaxBytes > 0 {
		r.Body = http.MaxBytesReader(w, r.Body, s.MaxBytes)
	}
	reader, err := r.MultipartReader()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNotMultipart, err)
	}

	wanted := make(map[string]bool, len(fileFields))
	for _, f := range fileFields {
		wanted[f] = true
	}

	form := &Form{files: map[string]string{}, values: map[string]string{}}
	for {
		part, err := reader.NextPart()
		if errors.Is(err, io.EOF) {
			return form, nil
		}
		if err != nil {
			form.Cleanup()
			return nil, classify(err)
		}

		name := part.FormName()
		switch {
		case name == "":
		case part.FileName() == "":
			b, err := io.ReadAll(io.LimitReader(part, maxValueBytes+1))
			if err != nil {
				part.Close()
				form.Cleanup()
				return nil, classify(err)
			}
			if len(b) > maxValueBytes {
				part.Close()
				form.Cleanup()
				return nil, fmt.Errorf("%w: field %q exceeds %d bytes", ErrTooLarge, name, maxValueBytes)
			}
			form.values[name] = string(b)
		case wanted[name] && form.files[name] == "":
			path, err := s.write(part)
			if err != nil {
				part.Close()
				form.Cleanup()
				return nil, classify(err)
			}
			form.files[name] = path
		}
		part.Close()
	}
}

func (s *Stager) write(src io.Reader) (string, error) {
	dir := s.Dir
	if dir == "" {
		dir = os.TempDir()
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return "", fmt.Errorf("create staging dir: %w", err)
	}
	path := filepath.Join(dir, "upload-"+uuid.NewString())
	f, err := os.OpenFile(path, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o600)
	if err != nil {
		return "", fmt.Errorf("create staged file: %w", err)
	}
	if _, err := io.Copy(f, src); err != nil {
		f.Close()
		os.Remove(path)
		return "", fmt.Errorf("write staged file: %w", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(path)
		return "", fmt.Errorf("close staged file: %w", err)
	}
	return path, nil
}

func classify(err error) error {
	var maxErr *http.MaxBytesError
	if errors.As(err, &maxErr) {
		return ErrTooLarge
	}
	return err
}
