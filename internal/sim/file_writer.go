package sim

import (
	"encoding/json"
	"os"

	"dronegrid-sim/internal/telemetry"
)

// FileWriter writes drone rows and event rows to JSONL files.
type FileWriter struct {
	rowFile   *os.File
	eventFile *os.File
	rowEnc    *json.Encoder
	eventEnc  *json.Encoder
}

// NewFileWriter creates a FileWriter. eventPath may be empty to skip the
// event log.
func NewFileWriter(rowPath, eventPath string) (*FileWriter, error) {
	rf, err := os.Create(rowPath)
	if err != nil {
		return nil, err
	}
	fw := &FileWriter{rowFile: rf, rowEnc: json.NewEncoder(rf)}
	if eventPath != "" {
		ef, err := os.Create(eventPath)
		if err != nil {
			rf.Close()
			return nil, err
		}
		fw.eventFile = ef
		fw.eventEnc = json.NewEncoder(ef)
	}
	return fw, nil
}

// Write logs a single drone row.
func (f *FileWriter) Write(row telemetry.DroneRow) error {
	return f.rowEnc.Encode(row)
}

// WriteBatch logs multiple drone rows.
func (f *FileWriter) WriteBatch(rows []telemetry.DroneRow) error {
	for _, r := range rows {
		if err := f.Write(r); err != nil {
			return err
		}
	}
	return nil
}

// WriteEvent logs a single event row, if enabled.
func (f *FileWriter) WriteEvent(e telemetry.EventRow) error {
	if f.eventEnc == nil {
		return nil
	}
	return f.eventEnc.Encode(e)
}

// WriteEvents logs multiple event rows.
func (f *FileWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, e := range rows {
		if err := f.WriteEvent(e); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the underlying files.
func (f *FileWriter) Close() error {
	var err error
	if f.rowFile != nil {
		if e := f.rowFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	if f.eventFile != nil {
		if e := f.eventFile.Close(); e != nil && err == nil {
			err = e
		}
	}
	return err
}
