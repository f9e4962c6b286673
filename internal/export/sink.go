package export

import (
	"bytes"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"time"

	"railfleet-sim/internal/dataset"
	"railfleet-sim/internal/observability/metrics"
)

// FileSink writes tables below a directory tree.
type FileSink struct {
	logger *log.Logger
	now    func() time.Time
}

// SinkOption configures FileSink.
type SinkOption func(*FileSink)

// WithLogger sets the sink logger.
func WithLogger(logger *log.Logger) SinkOption {
	return func(s *FileSink) {
		s.logger = logger
	}
}

// NewFileSink constructs a sink.
func NewFileSink(opts ...SinkOption) *FileSink {
	s := &FileSink{now: time.Now}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Save encodes table in format and writes dir/fileName.<ext>, creating dir.
// The file is written through a temporary name and renamed into place.
func (s *FileSink) Save(table *dataset.Table, dir, fileName string, format Format) (string, error) {
	start := s.now()
	path, rows, err := s.save(table, dir, fileName, format)
	result := metrics.ResultSuccess
	if err != nil {
		result = metrics.ResultError
	}
	metrics.ObserveExport(string(format), result, rows, s.now().Sub(start))
	if err != nil {
		s.logf("event=export_failed file=%s format=%s err=%v", fileName, format, err)
		return "", err
	}
	s.logf("event=export_written path=%s format=%s rows=%d", path, format, rows)
	return path, nil
}

func (s *FileSink) save(table *dataset.Table, dir, fileName string, format Format) (string, int, error) {
	if table == nil {
		return "", 0, ErrNilTable
	}
	fileName = strings.TrimSpace(fileName)
	if fileName == "" {
		return "", 0, ErrEmptyFileName
	}
	var buf bytes.Buffer
	if err := Write(&buf, table, format); err != nil {
		return "", 0, err
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", 0, fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, fileName+"."+format.Extension())
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, buf.Bytes(), 0o644); err != nil {
		return "", 0, err
	}
	if err := os.Rename(tmp, path); err != nil {
		_ = os.Remove(tmp)
		return "", 0, err
	}
	return path, table.Len(), nil
}

// SaveBytes writes pre-rendered content such as a PDF report to dir/name.
func (s *FileSink) SaveBytes(content []byte, dir, name string) (string, error) {
	if strings.TrimSpace(name) == "" {
		return "", ErrEmptyFileName
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create %s: %w", dir, err)
	}
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, content, 0o644); err != nil {
		return "", err
	}
	s.logf("event=file_written path=%s bytes=%d", path, len(content))
	return path, nil
}

func (s *FileSink) logf(format string, args ...any) {
	if s == nil || s.logger == nil {
		return
	}
	s.logger.Printf(format, args...)
}
