// Writer implementation printing rows and events to STDOUT
package sim

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sync"
	"text/tabwriter"
	"time"

	"dronegrid-sim/internal/config"
	"dronegrid-sim/internal/telemetry"
)

const (
	colorReset   = "\x1b[0m"
	colorRed     = "\x1b[31m"
	colorGreen   = "\x1b[32m"
	colorYellow  = "\x1b[33m"
	colorBlue    = "\x1b[34m"
	colorMagenta = "\x1b[35m"
	colorCyan    = "\x1b[36m"
	colorGray    = "\x1b[90m"
)

// StdoutWriter prints drone rows and events to STDOUT, either as JSON lines
// or colorized for humans.
type StdoutWriter struct {
	cfg      *config.SimulationConfig
	out      io.Writer
	colorize bool
	once     sync.Once
}

// NewStdoutWriter creates a StdoutWriter writing to os.Stdout.
func NewStdoutWriter(cfg *config.SimulationConfig, colorize bool) *StdoutWriter {
	return &StdoutWriter{cfg: cfg, out: os.Stdout, colorize: colorize}
}

func (w *StdoutWriter) printOverview() {
	if w.cfg == nil {
		return
	}
	fmt.Fprintln(w.out, "Simulation Configuration:")
	tw := tabwriter.NewWriter(w.out, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Grid:\t%dx%d\n", w.cfg.Width, w.cfg.Height)
	fmt.Fprintf(tw, "Drones:\t%d\n", w.cfg.NumDrones)
	fmt.Fprintf(tw, "Targets:\t%d\n", w.cfg.NumTargets)
	fmt.Fprintf(tw, "Detection Range:\t%d\n", w.cfg.DetectionRange)
	fmt.Fprintf(tw, "Strict Occupancy:\t%v\n", w.cfg.StrictOccupancy)
	fmt.Fprintf(tw, "Move Retry Limit:\t%d\n", w.cfg.MoveRetryLimit)
	tw.Flush()
	fmt.Fprintln(w.out)
}

// Write outputs a single drone row.
func (w *StdoutWriter) Write(row telemetry.DroneRow) error {
	if !w.colorize {
		data, _ := json.Marshal(row)
		fmt.Fprintln(w.out, string(data))
		return nil
	}
	w.once.Do(w.printOverview)
	statusColor := colorGreen
	switch row.Status {
	case "aborted", "stalled":
		statusColor = colorRed
	case "pending", "idle":
		statusColor = colorGray
	}
	fmt.Fprintf(w.out, "%s[%s]%s %stick=%d%s %sdrone=%s%s %spos=(%d,%d)%s %sbehavior=%s%s %sstatus=%s%s\n",
		colorGray, row.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, row.Tick, colorReset,
		colorCyan, row.DroneID, colorReset,
		colorGreen, row.X, row.Y, colorReset,
		colorMagenta, row.Behavior, colorReset,
		statusColor, row.Status, colorReset)
	return nil
}

// WriteBatch outputs multiple drone rows.
func (w *StdoutWriter) WriteBatch(rows []telemetry.DroneRow) error {
	for _, r := range rows {
		_ = w.Write(r)
	}
	return nil
}

// WriteEvent prints an emitted simulation event to STDOUT.
func (w *StdoutWriter) WriteEvent(e telemetry.EventRow) error {
	if !w.colorize {
		data, _ := json.Marshal(e)
		fmt.Fprintln(w.out, string(data))
		return nil
	}
	w.once.Do(w.printOverview)
	typeColor := colorYellow
	if e.Type == "target_detected" || e.Type == "simulation_complete" {
		typeColor = colorRed
	}
	fmt.Fprintf(w.out, "%s[%s]%s %stick=%d%s %sevent=%s%s %sdrone=%s%s\n",
		colorGray, e.Timestamp.Format(time.RFC3339), colorReset,
		colorBlue, e.Tick, colorReset,
		typeColor, e.Type, colorReset,
		colorCyan, e.DroneID, colorReset)
	return nil
}

// WriteEvents prints multiple events.
func (w *StdoutWriter) WriteEvents(rows []telemetry.EventRow) error {
	for _, e := range rows {
		_ = w.WriteEvent(e)
	}
	return nil
}
