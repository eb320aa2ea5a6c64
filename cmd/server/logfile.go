package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"
)

// A log file is cut back to its newest keepLogBytes once it grows past maxLogBytes.
const (
	maxLogBytes  = 6 << 20
	keepLogBytes = 5 << 20
)

type rotatingFile struct {
	mu   sync.Mutex
	file *os.File
}

func openLogFile(path string) (*rotatingFile, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create log dir: %w", err)
		}
	}
	file, err := os.OpenFile(path, os.O_CREATE|os.O_RDWR|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	w := &rotatingFile{file: file}
	if err := w.trim(); err != nil {
		_ = file.Close()
		return nil, err
	}
	return w, nil
}

func (w *rotatingFile) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	n, err := w.file.Write(p)
	if err != nil {
		return n, err
	}
	return n, w.trim()
}

func (w *rotatingFile) Close() error {
	return w.file.Close()
}

// trim keeps the tail of the file. Callers hold mu or own w exclusively.
func (w *rotatingFile) trim() error {
	info, err := w.file.Stat()
	if err != nil {
		return err
	}
	size := info.Size()
	if size <= maxLogBytes {
		return nil
	}

	tail := make([]byte, keepLogBytes)
	n, err := w.file.ReadAt(tail, size-keepLogBytes)
	if err != nil && err != io.EOF {
		return err
	}
	if err := w.file.Truncate(0); err != nil {
		return err
	}
	// O_APPEND writes land at the new end after truncation.
	_, err = w.file.Write(tail[:n])
	return err
}
