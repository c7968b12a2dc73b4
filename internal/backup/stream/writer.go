// Package stream reads and writes JSONL entity files inside zip archives.
package stream

import (
	"archive/zip"
	"encoding/json"
)

// Writer streams entities as JSONL to one file of a zip archive.
type Writer struct {
	enc   *json.Encoder
	count int
}

// NewWriter creates a JSONL writer for a path within the zip. The previous
// writer of zw must be finished before this is called.
func NewWriter(zw *zip.Writer, path string) (*Writer, error) {
	w, err := zw.Create(path)
	if err != nil {
		return nil, err
	}
	return &Writer{enc: json.NewEncoder(w)}, nil
}

// Write encodes a single entity as a JSON line.
func (w *Writer) Write(entity any) error {
	if err := w.enc.Encode(entity); err != nil {
		return err
	}
	w.count++
	return nil
}

// Count returns entities written so far.
func (w *Writer) Count() int {
	return w.count
}

// WriteAll writes every item of items to path and returns how many were written.
func WriteAll[T any](zw *zip.Writer, path string, items []T) (int, error) {
	w, err := NewWriter(zw, path)
	if err != nil {
		return 0, err
	}
	for _, item := range items {
		if err := w.Write(item); err != nil {
			return w.Count(), err
		}
	}
	return w.Count(), nil
}
