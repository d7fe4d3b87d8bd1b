package stream

import (
	"archive/zip"
	"bufio"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"iter"
)

// ErrMissing reports an archive without the requested entry.
var ErrMissing = errors.New("archive entry missing")

// maxLine bounds one record. Snapshots of large Kindle libraries are the longest.
const maxLine = 16 << 20

// LineError locates a record that could not be encoded or decoded.
type LineError struct {
	Name string
	Line int
	Err  error
}

func (e *LineError) Error() string {
	return fmt.Sprintf("%s line %d: %v", e.Name, e.Line, e.Err)
}

func (e *LineError) Unwrap() error {
	return e.Err
}

// Has reports whether the archive contains name.
func Has(zr *zip.Reader, name string) bool {
	_, err := fs.Stat(zr, name)
	return err == nil
}

func open(zr *zip.Reader, name string) (fs.File, error) {
	f, err := zr.Open(name)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("%w: %s", ErrMissing, name)
	}
	return f, err
}

// ReadDocument decodes the JSON document at name into v.
func ReadDocument(zr *zip.Reader, name string, v any) error {
	f, err := open(zr, name)
	if err != nil {
		return err
	}
	defer f.Close()

	if err := json.NewDecoder(f).Decode(v); err != nil {
		return fmt.Errorf("decode %s: %w", name, err)
	}
	return nil
}

// Records iterates the JSONL entry at name. Blank lines are skipped. A line
// that fails to decode yields a *LineError and iteration goes on; a missing
// entry or a read failure yields one error and ends it.
func Records[T any](zr *zip.Reader, name string) iter.Seq2[T, error] {
	return func(yield func(T, error) bool) {
		var zero T

		f, err := open(zr, name)
		if err != nil {
			yield(zero, err)
			return
		}
		defer f.Close()

		scanner := bufio.NewScanner(f)
		scanner.Buffer(make([]byte, 0, 64<<10), maxLine)

		for n := 1; scanner.Scan(); n++ {
			line := scanner.Bytes()
			if len(line) == 0 {
				continue
			}

			var record T
			if err := json.Unmarshal(line, &record); err != nil {
				if !yield(zero, &LineError{Name: name, Line: n, Err: err}) {
					return
				}
				continue
			}
			if !yield(record, nil) {
				return
			}
		}
		if err := scanner.Err(); err != nil {
			yield(zero, fmt.Errorf("read %s: %w", name, err))
		}
	}
}
