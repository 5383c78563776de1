package main

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/wazevm/wazevm"
	"github.com/wazevm/wazevm/config"
)

// run builds and executes the root cobra command, returning the process
// exit code. It never imports internal/engine/* directly -- only the
// top-level wazevm package, the same boundary an external embedder would
// be held to.
func run(args []string) int {
	var (
		invoke   string
		argsCSV  string
		logLevel string
		quota    uint64
		memLimit uint32
		cacheDir string
	)

	cmd := &cobra.Command{
		Use:           "wazevm <module.wasm>",
		Short:         "run a WebAssembly module",
		SilenceUsage:  true,
		SilenceErrors: true,
		Args:          cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, cmdArgs []string) error {
			cfg := config.New(
				config.WithLogLevel(logLevel),
				config.WithInstructionQuota(quota),
				config.WithMemoryPageLimit(memLimit),
				config.WithCompilationCacheDir(cacheDir),
			)
			return runModule(cmd, cmdArgs[0], invoke, argsCSV, cfg)
		},
	}
	cmd.SetArgs(args)
	cmd.Flags().StringVar(&invoke, "invoke", "", "exported function to call after instantiation")
	cmd.Flags().StringVar(&argsCSV, "args", "", "comma-separated uint64 arguments for --invoke")
	cmd.Flags().StringVar(&logLevel, "log-level", "", "internal/wasmlog level: debug, info, warn, error")
	cmd.Flags().Uint64Var(&quota, "quota", 0, "instruction execution budget; 0 means unlimited")
	cmd.Flags().Uint32Var(&memLimit, "memory-page-limit", 0,
		"hard cap on memory.grow, in 64KiB pages; 0 means the Wasm default (65536)")
	cmd.Flags().StringVar(&cacheDir, "cache-dir", "", "persist compiled modules under this directory across runs")

	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "wazevm:", err)
		return 1
	}
	return 0
}

func runModule(cmd *cobra.Command, path, invoke, argsCSV string, cfg config.Config) error {
	v, err := wazevm.NewVM(cfg)
	if err != nil {
		return err
	}
	m, err := v.LoadPath(path)
	if err != nil {
		return err
	}
	mod, err := v.Instantiate("main", m)
	if err != nil {
		return err
	}
	defer mod.Close(context.Background())

	if invoke == "" {
		return nil
	}
	callArgs, err := parseArgs(argsCSV)
	if err != nil {
		return err
	}
	results, err := wazevm.Invoke(context.Background(), mod, invoke, callArgs...)
	if err != nil {
		return fmt.Errorf("%s: %w", invoke, err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), formatResults(results))
	return nil
}

func parseArgs(csv string) ([]uint64, error) {
	if csv == "" {
		return nil, nil
	}
	parts := strings.Split(csv, ",")
	out := make([]uint64, len(parts))
	for i, p := range parts {
		v, err := strconv.ParseUint(strings.TrimSpace(p), 10, 64)
		if err != nil {
			return nil, fmt.Errorf("--args: %q: %w", p, err)
		}
		out[i] = v
	}
	return out, nil
}

func formatResults(results []uint64) string {
	parts := make([]string, len(results))
	for i, r := range results {
		parts[i] = strconv.FormatUint(r, 10)
	}
	return strings.Join(parts, " ")
}
