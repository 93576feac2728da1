package workload

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"

	"github.com/ossim/ossim/sim"
)

// CurrentVersion is the workload spec format written by this tool.
const CurrentVersion = "1"

// WorkloadSpec is the top-level workload file: an optional partition layout
// and the processes to simulate. Loaded from YAML via LoadWorkloadSpec.
type WorkloadSpec struct {
	Version    string        `yaml:"version"`
	Partitions []int64       `yaml:"partitions,omitempty"` // empty = simulator default layout
	Processes  []ProcessSpec `yaml:"processes"`
}

// ProcessSpec is the YAML form of one process descriptor.
type ProcessSpec struct {
	PID          int   `yaml:"pid"`
	Size         int64 `yaml:"size"`
	ArrivalTime  int64 `yaml:"arrival_time"`
	TotalCPUTime int64 `yaml:"total_cpu_time"`
	IOFrequency  int64 `yaml:"io_frequency,omitempty"`
	IODuration   int64 `yaml:"io_duration,omitempty"`
	Priority     int   `yaml:"priority,omitempty"`
}

// Descriptor converts the YAML form into the engine's descriptor.
func (p ProcessSpec) Descriptor() sim.Descriptor {
	return sim.Descriptor{
		PID:          p.PID,
		Size:         p.Size,
		ArrivalTime:  p.ArrivalTime,
		TotalCPUTime: p.TotalCPUTime,
		IOFrequency:  p.IOFrequency,
		IODuration:   p.IODuration,
		Priority:     p.Priority,
	}
}

// NewWorkloadSpec wraps descriptors into a spec of the current version.
func NewWorkloadSpec(partitions []int64, descriptors []sim.Descriptor) *WorkloadSpec {
	spec := &WorkloadSpec{
		Version:    CurrentVersion,
		Partitions: append([]int64(nil), partitions...),
		Processes:  make([]ProcessSpec, len(descriptors)),
	}
	for i, d := range descriptors {
		spec.Processes[i] = ProcessSpec{
			PID:          d.PID,
			Size:         d.Size,
			ArrivalTime:  d.ArrivalTime,
			TotalCPUTime: d.TotalCPUTime,
			IOFrequency:  d.IOFrequency,
			IODuration:   d.IODuration,
			Priority:     d.Priority,
		}
	}
	return spec
}

// Descriptors returns the processes in file order.
func (s *WorkloadSpec) Descriptors() []sim.Descriptor {
	descriptors := make([]sim.Descriptor, len(s.Processes))
	for i, p := range s.Processes {
		descriptors[i] = p.Descriptor()
	}
	return descriptors
}

// ParseWorkloadSpec decodes YAML bytes with strict field checking.
// A missing version is treated as the current one.
func ParseWorkloadSpec(data []byte) (*WorkloadSpec, error) {
	var spec WorkloadSpec
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(&spec); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parsing workload spec: %w", err)
	}
	if spec.Version == "" {
		spec.Version = CurrentVersion
	}
	return &spec, nil
}

// Validate checks the layout and every process. Unlike the line loader, a
// spec is rejected as a whole: it is hand-written and a bad entry is a typo.
func (s *WorkloadSpec) Validate() error {
	if s.Version != CurrentVersion {
		return fmt.Errorf("unsupported workload spec version %q (supported: %q)", s.Version, CurrentVersion)
	}
	for i, c := range s.Partitions {
		if c <= 0 {
			return fmt.Errorf("partitions[%d]: capacity must be > 0, got %d", i, c)
		}
	}
	seen := make(map[int]bool, len(s.Processes))
	for i, p := range s.Processes {
		if err := p.Descriptor().Validate(); err != nil {
			return fmt.Errorf("processes[%d]: %w", i, err)
		}
		if seen[p.PID] {
			return fmt.Errorf("processes[%d]: duplicate pid %d", i, p.PID)
		}
		seen[p.PID] = true
	}
	return nil
}

// Marshal renders the spec the way ParseWorkloadSpec reads it.
func (s *WorkloadSpec) Marshal() ([]byte, error) {
	var buf bytes.Buffer
	encoder := yaml.NewEncoder(&buf)
	encoder.SetIndent(2)
	if err := encoder.Encode(s); err != nil {
		return nil, fmt.Errorf("encoding workload spec: %w", err)
	}
	if err := encoder.Close(); err != nil {
		return nil, fmt.Errorf("encoding workload spec: %w", err)
	}
	return buf.Bytes(), nil
}

// Loader reads workload sources through afs, so plain paths, file:// and
// mem:// URLs (and any other registered afs scheme) all work.
type Loader struct {
	fs afs.Service
}

// NewLoader creates a Loader backed by the default afs service.
func NewLoader() *Loader {
	return &Loader{fs: afs.New()}
}

// LoadDescriptors downloads URL and parses it as descriptor lines.
func (l *Loader) LoadDescriptors(ctx context.Context, URL string) ([]sim.Descriptor, error) {
	data, err := l.download(ctx, URL)
	if err != nil {
		return nil, err
	}
	descriptors, err := ParseDescriptors(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", URL, err)
	}
	logrus.Infof("Loaded %d process descriptors from %s", len(descriptors), URL)
	return descriptors, nil
}

// LoadWorkloadSpec downloads URL, parses it as a YAML workload spec and validates it.
func (l *Loader) LoadWorkloadSpec(ctx context.Context, URL string) (*WorkloadSpec, error) {
	data, err := l.download(ctx, URL)
	if err != nil {
		return nil, err
	}
	spec, err := ParseWorkloadSpec(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", URL, err)
	}
	if err := spec.Validate(); err != nil {
		return nil, fmt.Errorf("%s: invalid workload spec: %w", URL, err)
	}
	logrus.Infof("Loaded workload spec with %d processes from %s", len(spec.Processes), URL)
	return spec, nil
}

// Load picks the format by extension: .yaml/.yml is a workload spec, anything
// else is descriptor lines wrapped into a spec without a partition layout.
func (l *Loader) Load(ctx context.Context, URL string) (*WorkloadSpec, error) {
	if IsSpecURL(URL) {
		return l.LoadWorkloadSpec(ctx, URL)
	}
	descriptors, err := l.LoadDescriptors(ctx, URL)
	if err != nil {
		return nil, err
	}
	return NewWorkloadSpec(nil, descriptors), nil
}

// IsSpecURL reports whether URL names a YAML workload spec.
func IsSpecURL(URL string) bool {
	switch strings.ToLower(path.Ext(URL)) {
	case ".yaml", ".yml":
		return true
	}
	return false
}

func (l *Loader) download(ctx context.Context, URL string) ([]byte, error) {
	exists, err := l.fs.Exists(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("checking %s: %w", URL, err)
	}
	if !exists {
		return nil, fmt.Errorf("workload source %s does not exist", URL)
	}
	data, err := l.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", URL, err)
	}
	return data, nil
}
