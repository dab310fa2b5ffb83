// Package command parses free-form operator commands and dispatches them to
// the running simulation. The grammar is deliberately loose: a drone reference
// anywhere in the text plus either movement assignments, a verb, or both.
//
//	drone 1 up=3 and right=2
//	drone 2 goto (4, 5)
//	drone 1 patrol (0,0) (4,0) (4,4)
//	drone 3 explore
//	drone 2 wait 5
//	drone 1 scan
//	drone 1 stop
//	spawn
package command

import (
	"errors"
	"fmt"
	"log/slog"
	"regexp"
	"strconv"
	"strings"

	"dronegrid-sim/internal/grid"
	"dronegrid-sim/internal/sim"
)

// ErrEmptyCommand is returned for blank input.
var ErrEmptyCommand = errors.New("empty command")

// ErrNoDrone is returned when a command needs a drone reference but none was
// found.
var ErrNoDrone = errors.New("no drone referenced")

// ErrUnknownCommand is returned when the text matches no part of the grammar.
var ErrUnknownCommand = errors.New("unrecognized command")

// Dispatcher is the slice of the simulator surface the processor drives.
type Dispatcher interface {
	Dispatch(droneID string, b sim.Behavior) error
	DispatchLegs(droneID string, legs []sim.MoveLeg) error
	StopDrone(droneID string) error
	SpawnDrone() (string, error)
	NewBehavior(kind string, params map[string]any) (sim.Behavior, error)
}

var (
	droneRe = regexp.MustCompile(`(?i)drone\s*[-#]?\s*(\d+)`)
	moveRe  = regexp.MustCompile(`(?i)\b(up|down|left|right)\s*=\s*(\d+)`)
	gotoRe  = regexp.MustCompile(`(?i)\bgo\s*to\b[\s(]*(\d+)\s*[,\s]\s*(\d+)`)
	pointRe = regexp.MustCompile(`\(\s*(\d+)\s*,\s*(\d+)\s*\)`)
	waitRe  = regexp.MustCompile(`(?i)\bwait\s+(\d+)`)
)

// Processor turns operator text into behavior dispatches.
type Processor struct {
	sim Dispatcher
	log *slog.Logger
}

// NewProcessor returns a processor bound to the given dispatcher.
func NewProcessor(d Dispatcher, log *slog.Logger) *Processor {
	if log == nil {
		log = slog.Default()
	}
	return &Processor{sim: d, log: log}
}

// Process parses and executes one command, returning a short acknowledgement
// suitable for echoing back to the operator.
func (p *Processor) Process(text string) (string, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return "", ErrEmptyCommand
	}
	lower := strings.ToLower(text)

	if strings.Contains(lower, "spawn") {
		id, err := p.sim.SpawnDrone()
		if err != nil {
			return "", fmt.Errorf("spawn: %w", err)
		}
		p.log.Info("command spawned drone", "drone", id)
		return fmt.Sprintf("spawned %s", id), nil
	}

	droneID, ok := parseDroneID(text)
	if !ok {
		return "", fmt.Errorf("%w in %q", ErrNoDrone, text)
	}

	switch {
	case strings.Contains(lower, "stop"):
		if err := p.sim.StopDrone(droneID); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s stopped", droneID), nil

	case gotoRe.MatchString(text):
		m := gotoRe.FindStringSubmatch(text)
		b, err := p.sim.NewBehavior("move_to", map[string]any{
			"x": mustAtoi(m[1]),
			"y": mustAtoi(m[2]),
		})
		if err != nil {
			return "", err
		}
		if err := p.sim.Dispatch(droneID, b); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s moving to (%s,%s)", droneID, m[1], m[2]), nil

	case strings.Contains(lower, "patrol"):
		waypoints := parseWaypoints(text)
		if len(waypoints) == 0 {
			return "", fmt.Errorf("patrol: no waypoints in %q", text)
		}
		b, err := p.sim.NewBehavior("patrol", map[string]any{"waypoints": waypoints})
		if err != nil {
			return "", err
		}
		if err := p.sim.Dispatch(droneID, b); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s patrolling %d waypoints", droneID, len(waypoints)), nil

	case strings.Contains(lower, "explore"):
		b, err := p.sim.NewBehavior("explore", nil)
		if err != nil {
			return "", err
		}
		if err := p.sim.Dispatch(droneID, b); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s exploring", droneID), nil

	case waitRe.MatchString(text):
		m := waitRe.FindStringSubmatch(text)
		b, err := p.sim.NewBehavior("wait", map[string]any{"ticks": mustAtoi(m[1])})
		if err != nil {
			return "", err
		}
		if err := p.sim.Dispatch(droneID, b); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s waiting %s ticks", droneID, m[1]), nil

	case strings.Contains(lower, "scan"):
		b, err := p.sim.NewBehavior("scan", nil)
		if err != nil {
			return "", err
		}
		if err := p.sim.Dispatch(droneID, b); err != nil {
			return "", err
		}
		return fmt.Sprintf("%s scanning", droneID), nil
	}

	legs := ParseLegs(text)
	if len(legs) == 0 {
		return "", fmt.Errorf("%w: %q", ErrUnknownCommand, text)
	}
	if err := p.sim.DispatchLegs(droneID, legs); err != nil {
		return "", err
	}
	return fmt.Sprintf("%s executing %d movement legs", droneID, len(legs)), nil
}

// parseDroneID extracts a drone reference like "drone 1" or "drone-2" and
// normalizes it to the canonical id form.
func parseDroneID(text string) (string, bool) {
	m := droneRe.FindStringSubmatch(text)
	if m == nil {
		return "", false
	}
	return "drone-" + m[1], true
}

// ParseLegs extracts ordered movement assignments like "up=3 and right=2".
// Order of appearance is preserved.
func ParseLegs(text string) []sim.MoveLeg {
	matches := moveRe.FindAllStringSubmatch(text, -1)
	legs := make([]sim.MoveLeg, 0, len(matches))
	for _, m := range matches {
		dir, err := grid.ParseDirection(strings.ToLower(m[1]))
		if err != nil {
			continue
		}
		legs = append(legs, sim.MoveLeg{Direction: dir, Steps: mustAtoi(m[2])})
	}
	return legs
}

// parseWaypoints extracts "(x, y)" pairs in order of appearance, in the shape
// the behavior registry expects.
func parseWaypoints(text string) []any {
	matches := pointRe.FindAllStringSubmatch(text, -1)
	waypoints := make([]any, 0, len(matches))
	for _, m := range matches {
		waypoints = append(waypoints, map[string]any{
			"x": mustAtoi(m[1]),
			"y": mustAtoi(m[2]),
		})
	}
	return waypoints
}

// mustAtoi converts digits already validated by a regexp.
func mustAtoi(s string) int {
	n, _ := strconv.Atoi(s)
	return n
}
