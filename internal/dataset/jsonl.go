package dataset

import (
	"encoding/json"
	"os"
	"path/filepath"
	"sync"
)

// JSONLWriter mirrors samples as JSON lines for quick ad-hoc analysis.
type JSONLWriter struct {
	mu   sync.Mutex
	file *os.File
	enc  *json.Encoder
}

// NewJSONLWriter creates/opens the target file and returns a writer.
func NewJSONLWriter(path string) (*JSONLWriter, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	return &JSONLWriter{
		file: file,
		enc:  json.NewEncoder(file),
	}, nil
}

// Append writes a single sample to the underlying JSONL file.
func (w *JSONLWriter) Append(sample Sample) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.enc.Encode(sample)
}

// Close flushes and closes the file handle.
func (w *JSONLWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.file == nil {
		return nil
	}
	err := w.file.Close()
	w.file = nil
	return err
}
