package store

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"sync"
	"time"

	"github.com/voxlead/voxlead/bridge"
)

var csvHeader = []string{
	"time", "call_sid", "caller", "outcome",
	"name", "phone", "vehicle_year", "vehicle_make", "vehicle_model",
	"service_type", "postal_code", "raw_line",
}

// CSVSink is the append-only lead file. Appends are serialized so rows
// from concurrent calls never interleave; each Append is one row write
// followed by a flush.
type CSVSink struct {
	mu sync.Mutex
	f  *os.File
	w  *csv.Writer
}

// OpenCSV opens (creating if needed) the lead file at path. The header
// row is written only when the file is new.
func OpenCSV(path string) (*CSVSink, error) {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, fmt.Errorf("open lead file: %w", err)
	}

	info, err := f.Stat()
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("stat lead file: %w", err)
	}

	s := &CSVSink{f: f, w: csv.NewWriter(f)}
	if info.Size() == 0 {
		if err := s.w.Write(csvHeader); err != nil {
			f.Close()
			return nil, fmt.Errorf("write lead header: %w", err)
		}
		s.w.Flush()
		if err := s.w.Error(); err != nil {
			f.Close()
			return nil, fmt.Errorf("write lead header: %w", err)
		}
	}
	return s, nil
}

// Append writes one call result row. Implements bridge.Sink.
func (s *CSVSink) Append(_ context.Context, res bridge.CallResult) error {
	rec := res.Record
	row := []string{
		time.Now().UTC().Format(time.RFC3339),
		res.CallSID,
		res.Caller,
		string(res.Outcome),
		rec.Name,
		rec.Phone,
		rec.VehicleYear,
		rec.VehicleMake,
		rec.VehicleModel,
		rec.ServiceType,
		rec.PostalCode,
		rec.RawLine,
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.w.Write(row); err != nil {
		return fmt.Errorf("append lead: %w", err)
	}
	s.w.Flush()
	if err := s.w.Error(); err != nil {
		return fmt.Errorf("append lead: %w", err)
	}
	return nil
}

// Close flushes and closes the file.
func (s *CSVSink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.w.Flush()
	return s.f.Close()
}

var _ bridge.Sink = (*CSVSink)(nil)
