package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"dronegrid-sim/internal/admin"
	"dronegrid-sim/internal/command"
	"dronegrid-sim/internal/config"
	"dronegrid-sim/internal/goal"
	"dronegrid-sim/internal/logging"
	"dronegrid-sim/internal/scenario"
	"dronegrid-sim/internal/sim"
)

var (
	simPrintOnly  bool
	simConfigPath string
	simSchemaPath string
	simTick       time.Duration
	simLogFile    string
	simTUI        bool
	simScenario   string
	simAdminAddr  string
)

var simulateCmd = &cobra.Command{
	Use:   "simulate",
	Short: "Run the tick-driven grid simulator",
	Long:  "simulate runs a drone swarm mission on a 2D grid, emitting per-tick telemetry and simulation events.",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(simConfigPath, simSchemaPath)
		if err != nil {
			return err
		}

		logger := logging.New()
		ctx, cancel := context.WithCancel(logging.NewContext(context.Background(), logger))
		defer cancel()

		writer, eventWriter, cleanup, err := newWriters(cfg, simPrintOnly, simTUI, simLogFile)
		if err != nil {
			return err
		}
		defer cleanup()

		simID := os.Getenv("SIM_ID")
		if simID == "" {
			simID = "mission-01"
		}

		tickInterval := simTick
		if envTick := os.Getenv("TICK_INTERVAL"); envTick != "" {
			d, err := time.ParseDuration(envTick)
			if err != nil {
				return fmt.Errorf("invalid TICK_INTERVAL: %w", err)
			}
			tickInterval = d
		}

		// The processor is created after the simulator; the TUI's command box
		// dispatches through this indirection.
		var proc *command.Processor
		if simTUI {
			// The TUI replaces stdout output entirely; file and DB writers
			// keep receiving rows alongside it.
			tui := sim.NewTUIWriter(cfg, func(text string) error {
				if proc == nil {
					return nil
				}
				_, err := proc.Process(text)
				return err
			})
			defer tui.Close()
			writer, eventWriter = tuiWriters(tui, writer, eventWriter)
		}

		simulator, err := sim.NewSimulator(simID, cfg, writer, eventWriter, tickInterval)
		if err != nil {
			return err
		}
		proc = command.NewProcessor(simulator, logger)

		if simAdminAddr != "" {
			srv := admin.NewServer(simulator, proc.Process)
			go func() {
				logger.Info("admin UI listening", "addr", simAdminAddr)
				if err := srv.Start(ctx, simAdminAddr); err != nil && err != http.ErrServerClosed {
					log.Fatalf("admin server failed: %v", err)
				}
			}()
		}

		runDone := make(chan struct{})
		if simScenario != "" {
			sc, err := loadScenario(simScenario)
			if err != nil {
				return err
			}
			go func() {
				defer close(runDone)
				runScripted(ctx, simulator, sc, proc, tickInterval)
			}()
		} else {
			go func() {
				defer close(runDone)
				simulator.Run(ctx)
			}()
		}

		sigs := make(chan os.Signal, 1)
		signal.Notify(sigs, syscall.SIGINT, syscall.SIGTERM)
		select {
		case <-sigs:
			cancel()
			<-runDone
		case <-runDone:
		}
		logger.Info("simulation stopped", "tick", simulator.Tick(), "complete", simulator.Complete())
		return nil
	},
}

// tuiWriters routes all output through the TUI, keeping any file or DB
// writers from the base setup attached. The base is nil when nothing besides
// the TUI should receive rows.
func tuiWriters(tui *sim.TUIWriter, base sim.TelemetryWriter, baseEvents sim.EventWriter) (sim.TelemetryWriter, sim.EventWriter) {
	if base == nil {
		return tui, tui
	}
	mw := sim.NewMultiWriter(
		[]sim.TelemetryWriter{tui, base},
		[]sim.EventWriter{tui, baseEvents},
	)
	return mw, mw
}

// loadScenario resolves a scenario by built-in name first, file path second.
func loadScenario(nameOrPath string) (*scenario.Scenario, error) {
	if sc, ok := scenario.BuiltIn()[nameOrPath]; ok {
		return &sc, nil
	}
	return scenario.Load(nameOrPath)
}

// runScripted drives the clock manually so scenario steps land on exact
// ticks. Commands go through the operator grammar, goals through the planner.
func runScripted(ctx context.Context, simulator *sim.Simulator, sc *scenario.Scenario, proc *command.Processor, tickInterval time.Duration) {
	logger := logging.FromContext(ctx)
	runner := scenario.NewRunner(sc)
	planner := goal.MockPlanner{}
	translator := goal.NewTranslator(simulator)

	if tickInterval <= 0 {
		tickInterval = time.Second
	}
	ticker := time.NewTicker(tickInterval)
	defer ticker.Stop()

	for {
		for _, step := range runner.Due(simulator.Tick()) {
			switch {
			case step.Command != "":
				if _, err := proc.Process(step.Command); err != nil {
					logger.Error("scenario command failed", "tick", step.Tick, "command", step.Command, "error", err)
				}
			case step.Goal != "":
				cmds, err := planner.Plan(ctx, step.Goal, simulator.Snapshot())
				if err == nil {
					err = translator.Apply(cmds)
				}
				if err != nil {
					logger.Error("scenario goal failed", "tick", step.Tick, "goal", step.Goal, "error", err)
				}
			}
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if simulator.Complete() && runner.Done() {
				return
			}
			simulator.Step(ctx)
		}
	}
}

func init() {
	simulateCmd.Flags().BoolVar(&simPrintOnly, "print-only", false, "Print telemetry to STDOUT instead of writing to DB")
	simulateCmd.Flags().StringVar(&simConfigPath, "config", "config/simulation.yaml", "Path to simulation configuration YAML")
	simulateCmd.Flags().StringVar(&simSchemaPath, "schema", "schemas/simulation.cue", "Path to CUE schema file")
	simulateCmd.Flags().DurationVar(&simTick, "tick", time.Second, "Simulation tick interval (e.g. 500ms, 2s)")
	simulateCmd.Flags().StringVar(&simLogFile, "log-file", "", "Path to export telemetry/event logs (JSONL)")
	simulateCmd.Flags().BoolVar(&simTUI, "tui", false, "Render the live grid view instead of plain output")
	simulateCmd.Flags().StringVar(&simScenario, "scenario", "", "Built-in scenario name or path to a scenario YAML")
	simulateCmd.Flags().StringVar(&simAdminAddr, "admin-addr", ":8080", "Admin UI listen address (empty to disable)")
}
