package sim

import (
	"context"
	"errors"
	"net"
	"strconv"

	gpb "github.com/GreptimeTeam/greptime-proto/go/greptime/v1"
	greptime "github.com/GreptimeTeam/greptimedb-ingester-go"
	ingesterContext "github.com/GreptimeTeam/greptimedb-ingester-go/context"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table"
	"github.com/GreptimeTeam/greptimedb-ingester-go/table/types"

	"dronegrid-sim/internal/telemetry"
)

// greptimeClient abstracts the ingester client so tests can capture tables.
type greptimeClient interface {
	Write(ctx context.Context, tables ...*table.Table) (*gpb.GreptimeResponse, error)
}

// GreptimeWriter writes drone state and events to GreptimeDB via the
// ingester client.
type GreptimeWriter struct {
	client     greptimeClient
	rowTable   string
	eventTable string
}

// NewGreptimeWriter creates a GreptimeDB writer. The endpoint is host or
// host:port (port defaults to 4001). Empty table names fall back to the
// defaults from the telemetry package.
func NewGreptimeWriter(endpoint, database, rowTable, eventTable string) (*GreptimeWriter, error) {
	cfg := greptime.NewConfig(endpoint).WithDatabase(database)
	if host, portStr, err := net.SplitHostPort(endpoint); err == nil {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return nil, err
		}
		cfg = greptime.NewConfig(host).WithPort(port).WithDatabase(database)
	}
	client, err := greptime.NewClient(cfg)
	if err != nil {
		return nil, err
	}
	if rowTable == "" {
		rowTable = telemetry.DroneTableName
	}
	if eventTable == "" {
		eventTable = telemetry.EventTableName
	}
	return &GreptimeWriter{client: client, rowTable: rowTable, eventTable: eventTable}, nil
}

// Write inserts a single drone row.
func (w *GreptimeWriter) Write(row telemetry.DroneRow) error {
	return w.WriteBatch([]telemetry.DroneRow{row})
}

// WriteBatch inserts multiple drone rows.
func (w *GreptimeWriter) WriteBatch(rows []telemetry.DroneRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := droneTable(w.rowTable, rows)
	if err != nil {
		return err
	}
	_, err = w.client.Write(ingesterContext.New(context.Background()), tbl)
	return err
}

// WriteEvent inserts a single event row.
func (w *GreptimeWriter) WriteEvent(e telemetry.EventRow) error {
	return w.WriteEvents([]telemetry.EventRow{e})
}

// WriteEvents inserts multiple event rows. The payload map is stored as a
// JSON column.
func (w *GreptimeWriter) WriteEvents(rows []telemetry.EventRow) error {
	if len(rows) == 0 {
		return nil
	}
	tbl, err := eventTable(w.eventTable, rows)
	if err != nil {
		return err
	}
	_, err = w.client.Write(ingesterContext.New(context.Background()), tbl)
	return err
}

func droneTable(name string, rows []telemetry.DroneRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(
		tbl.AddTagColumn("sim_id", types.STRING),
		tbl.AddTagColumn("drone_id", types.STRING),
		tbl.AddFieldColumn("x", types.INT64),
		tbl.AddFieldColumn("y", types.INT64),
		tbl.AddFieldColumn("behavior", types.STRING),
		tbl.AddFieldColumn("status", types.STRING),
		tbl.AddFieldColumn("tick", types.INT64),
		tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND),
	); err != nil {
		return nil, err
	}
	for _, r := range rows {
		err := tbl.AddRow(r.SimID, r.DroneID, int64(r.X), int64(r.Y),
			r.Behavior, r.Status, int64(r.Tick), r.Timestamp)
		if err != nil {
			return nil, err
		}
	}
	return tbl, nil
}

func eventTable(name string, rows []telemetry.EventRow) (*table.Table, error) {
	tbl, err := table.New(name)
	if err != nil {
		return nil, err
	}
	if err := errors.Join(
		tbl.AddTagColumn("sim_id", types.STRING),
		tbl.AddTagColumn("type", types.STRING),
		tbl.AddFieldColumn("event_id", types.STRING),
		tbl.AddFieldColumn("drone_id", types.STRING),
		tbl.AddFieldColumn("tick", types.INT64),
		tbl.AddFieldColumn("payload", types.JSON),
		tbl.AddTimestampColumn("ts", types.TIMESTAMP_MILLISECOND),
	); err != nil {
		return nil, err
	}
	for _, e := range rows {
		err := tbl.AddRow(e.SimID, e.Type, e.EventID, e.DroneID,
			int64(e.Tick), e.Payload, e.Timestamp)
		if err != nil {
			return nil, err
		}
	}
	return tbl, nil
}
