package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/bfix/sysdyn/internal/config"
	"github.com/bfix/sysdyn/internal/engine"
	"github.com/bfix/sysdyn/internal/logging"
)

var (
	outputPath string
	methodFlag string
	seedFlag   uint64
	seededFlag bool
)

var runCmd = &cobra.Command{
	Use:   "run <model.yaml>",
	Short: "Run a model to completion and print or export its results",
	Args:  cobra.ExactArgs(1),
	RunE:  runModel,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&outputPath, "output", "o", "", "write CSV results here instead of stdout")
	runCmd.Flags().StringVarP(&methodFlag, "method", "m", "", "integration method override (euler, heun, rk4, backward_euler, rk45)")
	runCmd.Flags().Uint64Var(&seedFlag, "seed", 0, "stochastic seed, applied only together with --seeded")
	runCmd.Flags().BoolVar(&seededFlag, "seeded", false, "force a deterministic stochastic seed")
}

func runModel(_ *cobra.Command, args []string) error {
	path := args[0]

	mf, err := config.LoadModelFile(path)
	if err != nil {
		return fmt.Errorf("loading model file %s: %w", path, err)
	}

	m, cfg, err := mf.Build()
	if err != nil {
		return fmt.Errorf("building model: %w", err)
	}
	if methodFlag != "" {
		cfg.Method = engine.Method(methodFlag)
	}
	if seededFlag {
		cfg.Seeded = true
		cfg.Seed = seedFlag
	}

	if verbose {
		logging.Msgf("running %q from t=%g to t=%g, dt=%g, method=%s\n", m.Metadata.Name, m.Time.Start, m.Time.Stop, m.Time.Dt, cfg.Method)
	}

	eng, err := engine.New(m, cfg)
	if err != nil {
		return fmt.Errorf("initializing engine: %w", err)
	}

	res, err := eng.Run()
	if err != nil {
		return fmt.Errorf("running simulation: %w", err)
	}

	out := os.Stdout
	if outputPath != "" {
		f, err := os.Create(outputPath)
		if err != nil {
			return fmt.Errorf("creating output file %s: %w", outputPath, err)
		}
		defer f.Close()
		if err := res.WriteCSV(f, m.StockNames(), m.FlowNames(), m.AuxNames()); err != nil {
			return fmt.Errorf("writing CSV: %w", err)
		}
		return nil
	}

	return res.WriteCSV(out, m.StockNames(), m.FlowNames(), m.AuxNames())
}
