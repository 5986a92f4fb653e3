// Package table reads and writes delimited batch files on an afero.Fs.
// Every value is handled as a string; typing is left to the callers.
package table

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"member-pipeline/internal/models"
)

// PartialSuffix marks a file that is still being written.
const PartialSuffix = ".partial"

// ErrMalformed wraps structural problems: no header, ragged rows, bad quoting.
var ErrMalformed = errors.New("malformed delimited file")

// Read parses path into a RawBatch. The first row is the header.
func Read(fs afero.Fs, path string) (*models.RawBatch, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.ReuseRecord = false

	header, err := r.Read()
	if err == io.EOF {
		return nil, fmt.Errorf("%w: missing header row", ErrMalformed)
	}
	if err != nil {
		return nil, wrapParseError(err)
	}

	columns := make([]string, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		columns[i] = strings.TrimSpace(h)
	}

	rows, err := r.ReadAll()
	if err != nil {
		return nil, wrapParseError(err)
	}

	return &models.RawBatch{
		Source:  filepath.Base(path),
		Columns: columns,
		Rows:    rows,
	}, nil
}

func wrapParseError(err error) error {
	var parseErr *csv.ParseError
	if errors.As(err, &parseErr) {
		return fmt.Errorf("%w: %v", ErrMalformed, parseErr)
	}
	return err
}

// WriteAtomic writes records projected onto columns to path. Data goes to
// path+PartialSuffix first and is renamed into place once flushed, so a
// reader never sees a half-written file.
func WriteAtomic(fs afero.Fs, path string, columns []string, records []models.ValidatedRecord) (err error) {
	tmp := path + PartialSuffix
	f, err := fs.Create(tmp)
	if err != nil {
		return err
	}
	defer func() {
		if err != nil {
			_ = fs.Remove(tmp)
		}
	}()

	w := csv.NewWriter(f)
	if err = w.Write(columns); err != nil {
		f.Close()
		return err
	}
	row := make([]string, len(columns))
	for _, rec := range records {
		for i, col := range columns {
			row[i] = rec.Value(col)
		}
		if err = w.Write(row); err != nil {
			f.Close()
			return err
		}
	}
	w.Flush()
	if err = w.Error(); err != nil {
		f.Close()
		return err
	}
	if err = f.Close(); err != nil {
		return err
	}

	return fs.Rename(tmp, path)
}

// EnsureDir creates dir and its parents. An existing directory is not an error.
func EnsureDir(fs afero.Fs, dir string) error {
	return fs.MkdirAll(dir, 0o755)
}

// List returns the entries of dir sorted by name.
func List(fs afero.Fs, dir string) ([]os.FileInfo, error) {
	return afero.ReadDir(fs, dir)
}

// Exists reports whether path exists.
func Exists(fs afero.Fs, path string) (bool, error) {
	return afero.Exists(fs, path)
}
