package main

import (
	"errors"
	"fmt"
	"io"
	"os/signal"
	"syscall"

	yaml "github.com/goccy/go-yaml"
	"github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"

	"rtadmit/internal/admission"
	"rtadmit/internal/config"
	"rtadmit/internal/sched"
)

type session struct {
	cfg    config.Config
	set    *admission.TaskSet
	logger *logrus.Logger
}

func newSession(c *cli.Context) (*session, error) {
	cfg, err := config.Load(c.String("config"))
	if err != nil {
		return nil, err
	}

	if c.IsSet("log-level") {
		cfg.Log.Level = c.String("log-level")
	}
	if c.IsSet("log-format") {
		cfg.Log.Format = c.String("log-format")
	}
	if c.IsSet("exact-test") {
		cfg.Analysis.ExactTest = c.String("exact-test")
	}
	if c.IsSet("diagnostics") {
		cfg.Analysis.Diagnostics = c.Bool("diagnostics")
	}

	logger, err := cfg.Log.NewLogger()
	if err != nil {
		return nil, err
	}
	logger.SetOutput(c.App.ErrWriter)

	set, err := cfg.TaskSet()
	if err != nil {
		return nil, err
	}

	return &session{
		cfg:    cfg,
		set:    set,
		logger: logger,
	}, nil
}

// admit runs the orchestrator over the whole set. Faults are logged and
// returned; the result table is complete either way.
func (s *session) admit() (*admission.Results, error) {
	opts, err := s.cfg.AnalysisOptions(s.logger)
	if err != nil {
		return nil, err
	}

	results, errAdmit := admission.Admit(s.set, opts)
	if results == nil {
		return nil, errAdmit
	}

	for ix := 0; ix < s.set.Len(); ix++ {
		task, result := s.set.At(ix), results.At(ix)

		fields := logrus.Fields{
			"task":       task.ID,
			"rank":       task.PriorityRank,
			"verdict":    result.Verdict,
			"decided_by": result.DecidedBy,
			"utl":        fmt.Sprintf("%.3f", result.UtilizationAtTest),
			"tda_ms":     result.ResponseTimeMs,
		}
		if result.WCSEvaluated {
			fields["wcs_ms"] = result.WorstCaseCompletionMs
		}

		s.logger.WithFields(fields).Info("acceptance test")
	}

	return results, errAdmit
}

var errUndeterminable = errors.New("some tasks could not be analysed")

func exitOnFault(errAdmit error) error {
	if errAdmit == nil {
		return nil
	}

	return cli.Exit(fmt.Errorf("%w: %w", errUndeterminable, errAdmit), 1)
}

func admitCommand() *cli.Command {
	return &cli.Command{
		Name:  "admit",
		Usage: "run the acceptance tests over every task in priority order",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "exact-test",
				Usage: "exact test for tasks above the utilization bound (tda or wcs)",
			},
			&cli.BoolFlag{
				Name:  "diagnostics",
				Usage: "also compute the WCS figure next to TDA",
			},
			&cli.StringFlag{
				Name:    "output",
				Aliases: []string{"o"},
				Usage:   "result format written to stdout (text or yaml)",
				Value:   "text",
			},
		},
		Action: func(c *cli.Context) error {
			s, err := newSession(c)
			if err != nil {
				return err
			}

			results, errAdmit := s.admit()
			if results == nil {
				return errAdmit
			}

			if err := writeResults(c.App.Writer, c.String("output"), s.set, results); err != nil {
				return err
			}

			return exitOnFault(errAdmit)
		},
	}
}

func simulateCommand() *cli.Command {
	return &cli.Command{
		Name:  "simulate",
		Usage: "admit the task set, then replay the accepted tasks in virtual time",
		Flags: []cli.Flag{
			&cli.StringFlag{
				Name:  "trace-csv",
				Usage: "write every scheduler event to this CSV file",
			},
			&cli.BoolFlag{
				Name:  "all",
				Usage: "also run rejected tasks to observe their deadline misses",
			},
		},
		Action: func(c *cli.Context) error {
			s, err := newSession(c)
			if err != nil {
				return err
			}

			results, errAdmit := s.admit()
			if results == nil {
				return errAdmit
			}

			tasks := results.Admitted(s.set)
			if c.Bool("all") {
				tasks = s.set.Tasks()
			}

			scheduler := sched.New(tasks, s.cfg.SimulationOptions(s.logger))

			tracePath := s.cfg.Simulation.TraceCSV
			if c.IsSet("trace-csv") {
				tracePath = c.String("trace-csv")
			}
			if tracePath != "" {
				if err := scheduler.EnableCSVLogging(tracePath); err != nil {
					return err
				}
			}

			ctx, stop := signal.NotifyContext(c.Context, syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			report, err := scheduler.Run(ctx)
			if err != nil {
				return err
			}

			out, err := yaml.Marshal(report)
			if err != nil {
				return err
			}

			if _, err := c.App.Writer.Write(out); err != nil {
				return err
			}

			return exitOnFault(errAdmit)
		},
	}
}

type resultRow struct {
	Task      string `yaml:"task"`
	Rank      int    `yaml:"rank"`
	Verdict   string `yaml:"verdict"`
	DecidedBy string `yaml:"decided_by"`

	Utilization      float64 `yaml:"utilization"`
	UtilizationBound float64 `yaml:"utilization_bound"`
	ResponseTimeMs   int64   `yaml:"tda_ms"`
	WCSMs            *int64  `yaml:"wcs_ms,omitempty"`

	Fault string `yaml:"fault,omitempty"`
}

func writeResults(w io.Writer, format string, set *admission.TaskSet, results *admission.Results) error {
	rows := make([]resultRow, set.Len())

	for ix := range rows {
		task, result := set.At(ix), results.At(ix)

		row := resultRow{
			Task:             task.ID,
			Rank:             task.PriorityRank,
			Verdict:          result.Verdict.String(),
			DecidedBy:        result.DecidedBy.String(),
			Utilization:      result.UtilizationAtTest,
			UtilizationBound: result.UtilizationBound,
			ResponseTimeMs:   result.ResponseTimeMs,
		}

		if result.WCSEvaluated {
			wcs := result.WorstCaseCompletionMs
			row.WCSMs = &wcs
		}

		if result.Fault != nil {
			row.Fault = result.Fault.Error()
		}

		rows[ix] = row
	}

	switch format {
	case "yaml":
		out, err := yaml.Marshal(rows)
		if err != nil {
			return err
		}

		_, err = w.Write(out)

		return err

	case "", "text":
		for _, row := range rows {
			wcs := "-"
			if row.WCSMs != nil {
				wcs = fmt.Sprint(*row.WCSMs)
			}

			if _, err := fmt.Fprintf(
				w,
				"Task %-8s %-14s by %-4s Utl %.3f  TDA %d  WCS %s\n",
				row.Task,
				row.Verdict,
				row.DecidedBy,
				row.Utilization,
				row.ResponseTimeMs,
				wcs,
			); err != nil {
				return err
			}
		}

		return nil

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}
