package sim

import (
	"encoding/json"
	"io"
	"os"
	"time"

	"dronegrid-sim/internal/telemetry"
)

// ReplayLog replays drone rows from r to writer. A speed >0 accelerates
// playback. If speed <= 0, no artificial delay is inserted.
func ReplayLog(r io.Reader, writer TelemetryWriter, speed float64) error {
	return replay(r, writer, nil, speed)
}

// ReplayLogFile opens a log and replays its drone rows. The sibling
// <path>.events file written alongside by FileWriter, when present, is
// replayed too: each tick's events are delivered before that tick's rows,
// provided the writer also handles events.
func ReplayLogFile(path string, writer TelemetryWriter, speed float64) error {
	f, err := os.Open(path)
	if err != nil {
		return err
	}
	defer f.Close()

	events, err := loadEventLog(path + ".events")
	if err != nil {
		return err
	}
	return replay(f, writer, events, speed)
}

func replay(r io.Reader, writer TelemetryWriter, events map[int][]telemetry.EventRow, speed float64) error {
	ew, _ := writer.(EventWriter)
	dec := json.NewDecoder(r)
	var prev time.Time
	lastTick := -1
	for {
		var row telemetry.DroneRow
		if err := dec.Decode(&row); err != nil {
			if err == io.EOF {
				return nil
			}
			return err
		}
		if !prev.IsZero() && speed > 0 {
			diff := row.Timestamp.Sub(prev)
			if speed != 1 {
				diff = time.Duration(float64(diff) / speed)
			}
			if diff > 0 {
				time.Sleep(diff)
			}
		}
		if ew != nil && row.Tick != lastTick {
			for _, e := range events[row.Tick] {
				if err := ew.WriteEvent(e); err != nil {
					return err
				}
			}
			lastTick = row.Tick
		}
		if err := writer.Write(row); err != nil {
			return err
		}
		prev = row.Timestamp
	}
}

// loadEventLog reads a FileWriter event log into a per-tick index. A missing
// file is not an error; telemetry-only logs replay fine without one.
func loadEventLog(path string) (map[int][]telemetry.EventRow, error) {
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}
	defer f.Close()

	byTick := make(map[int][]telemetry.EventRow)
	dec := json.NewDecoder(f)
	for {
		var e telemetry.EventRow
		if err := dec.Decode(&e); err != nil {
			if err == io.EOF {
				return byTick, nil
			}
			return nil, err
		}
		byTick[e.Tick] = append(byTick[e.Tick], e)
	}
}
