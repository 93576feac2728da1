// Package report writes the logs and metrics of a finished run to a
// destination directory. Any afs URL works: a plain path, file:// or mem://.
package report

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"path"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"github.com/viant/afs/file"
	"github.com/viant/afs/url"

	"github.com/ossim/ossim/sim"
	"github.com/ossim/ossim/sim/trace"
)

// Output file names inside the destination directory.
const (
	ExecutionFile = "execution.txt"
	MemoryFile    = "memory_status.txt"
	MetricsFile   = "metrics.json"
)

// Sink persists run output under a base URL.
type Sink struct {
	baseURL string
	fs      afs.Service
}

// NewSink creates a sink rooted at baseURL, creating the directory if needed.
func NewSink(ctx context.Context, baseURL string) (*Sink, error) {
	if baseURL == "" {
		return nil, fmt.Errorf("output location cannot be empty")
	}
	fs := afs.New()
	exists, _ := fs.Exists(ctx, baseURL)
	if !exists {
		if err := fs.Create(ctx, baseURL, file.DefaultDirOsMode, true); err != nil {
			return nil, fmt.Errorf("failed to create output directory %s: %w", baseURL, err)
		}
	}
	return &Sink{
		baseURL: url.Normalize(baseURL, file.Scheme),
		fs:      fs,
	}, nil
}

// URL returns the location of name inside the sink.
func (s *Sink) URL(name string) string {
	return url.Join(s.baseURL, name)
}

// Write stores the execution table, the memory table (when the trace holds
// memory records) and the metrics document. A nil trace writes metrics only.
func (s *Sink) Write(ctx context.Context, st *trace.SimulationTrace, metrics *sim.Metrics) error {
	if st != nil {
		var buf bytes.Buffer
		if err := trace.WriteExecutionTable(&buf, st.Transitions); err != nil {
			return fmt.Errorf("rendering execution table: %w", err)
		}
		if err := s.upload(ctx, ExecutionFile, buf.Bytes()); err != nil {
			return err
		}
		if st.Config.Level == trace.TraceLevelFull {
			buf.Reset()
			if err := trace.WriteMemoryTable(&buf, st.Memory); err != nil {
				return fmt.Errorf("rendering memory table: %w", err)
			}
			if err := s.upload(ctx, MemoryFile, buf.Bytes()); err != nil {
				return err
			}
		}
	}

	data, err := json.MarshalIndent(metrics, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal metrics: %w", err)
	}
	return s.upload(ctx, MetricsFile, data)
}

// ReadMetrics loads a metrics document previously written by Write.
func (s *Sink) ReadMetrics(ctx context.Context) (*sim.Metrics, error) {
	data, err := s.fs.DownloadWithURL(ctx, s.URL(MetricsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to read metrics: %w", err)
	}
	metrics := sim.NewMetrics()
	if err := json.Unmarshal(data, metrics); err != nil {
		return nil, fmt.Errorf("failed to unmarshal metrics: %w", err)
	}
	return metrics, nil
}

// Sub returns a sink for a child directory, e.g. one per scheduler.
func (s *Sink) Sub(ctx context.Context, name string) (*Sink, error) {
	return NewSink(ctx, s.URL(path.Clean(name)))
}

func (s *Sink) upload(ctx context.Context, name string, data []byte) error {
	target := s.URL(name)
	if err := s.fs.Upload(ctx, target, file.DefaultFileOsMode, bytes.NewReader(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", target, err)
	}
	logrus.Debugf("Wrote %d bytes to %s", len(data), target)
	return nil
}
