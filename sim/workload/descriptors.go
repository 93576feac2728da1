package workload

import (
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/ossim/ossim/sim"
)

// descriptorColumns names the fields of a descriptor line, in order.
// The trailing priority column is optional.
var descriptorColumns = []string{"pid", "size", "arrival_time", "total_cpu_time", "io_frequency", "io_duration", "priority"}

// minDescriptorColumns is the number of mandatory columns (everything but priority).
const minDescriptorColumns = 6

// ParseDescriptors reads comma-separated descriptor lines:
//
//	pid, size, arrivalTime, totalCPUTime, ioFrequency, ioDuration[, priority]
//
// Blank lines and lines starting with '#' are ignored. Lines that are too short,
// hold a non-integer or negative field, describe zero CPU time, or repeat an
// earlier PID are skipped with a warning. Only a read failure returns an error.
func ParseDescriptors(r io.Reader) ([]sim.Descriptor, error) {
	reader := csv.NewReader(r)
	reader.Comment = '#'
	reader.FieldsPerRecord = -1
	reader.TrimLeadingSpace = true
	reader.LazyQuotes = true

	var descriptors []sim.Descriptor
	seen := make(map[int]bool)
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			var parseErr *csv.ParseError
			if errors.As(err, &parseErr) {
				logrus.Warnf("descriptor line %d: %v; skipped", parseErr.Line, err)
				continue
			}
			return nil, fmt.Errorf("reading descriptors: %w", err)
		}
		if len(row) == 1 && strings.TrimSpace(row[0]) == "" {
			continue
		}
		line, _ := reader.FieldPos(0)

		d, err := parseDescriptor(row)
		if err != nil {
			logrus.Warnf("descriptor line %d: %v; skipped", line, err)
			continue
		}
		if seen[d.PID] {
			logrus.Warnf("descriptor line %d: duplicate pid %d; skipped", line, d.PID)
			continue
		}
		seen[d.PID] = true
		descriptors = append(descriptors, d)
	}
	return descriptors, nil
}

// parseDescriptor converts one CSV row into a validated descriptor.
func parseDescriptor(row []string) (sim.Descriptor, error) {
	if len(row) < minDescriptorColumns {
		return sim.Descriptor{}, fmt.Errorf("%d fields, expected at least %d", len(row), minDescriptorColumns)
	}
	n := min(len(row), len(descriptorColumns))
	values := make([]int64, len(descriptorColumns))
	for i := 0; i < n; i++ {
		v, err := strconv.ParseInt(strings.TrimSpace(row[i]), 10, 64)
		if err != nil {
			return sim.Descriptor{}, fmt.Errorf("%s: %q is not an integer", descriptorColumns[i], row[i])
		}
		if v < 0 {
			return sim.Descriptor{}, fmt.Errorf("%s: %d is negative", descriptorColumns[i], v)
		}
		values[i] = v
	}
	if len(row) > len(descriptorColumns) {
		logrus.Debugf("pid %s: ignoring %d extra fields", row[0], len(row)-len(descriptorColumns))
	}

	d := sim.Descriptor{
		PID:          int(values[0]),
		Size:         values[1],
		ArrivalTime:  values[2],
		TotalCPUTime: values[3],
		IOFrequency:  values[4],
		IODuration:   values[5],
		Priority:     int(values[6]),
	}
	if err := d.Validate(); err != nil {
		return sim.Descriptor{}, err
	}
	return d, nil
}

// FormatDescriptors writes descriptors back in the line format ParseDescriptors reads.
func FormatDescriptors(w io.Writer, descriptors []sim.Descriptor) error {
	writer := csv.NewWriter(w)
	for _, d := range descriptors {
		row := []string{
			strconv.Itoa(d.PID),
			strconv.FormatInt(d.Size, 10),
			strconv.FormatInt(d.ArrivalTime, 10),
			strconv.FormatInt(d.TotalCPUTime, 10),
			strconv.FormatInt(d.IOFrequency, 10),
			strconv.FormatInt(d.IODuration, 10),
			strconv.Itoa(d.Priority),
		}
		if err := writer.Write(row); err != nil {
			return fmt.Errorf("writing descriptor %d: %w", d.PID, err)
		}
	}
	writer.Flush()
	return writer.Error()
}
