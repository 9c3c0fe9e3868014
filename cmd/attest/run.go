package main

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/spf13/viper"

	"github.com/jamesainslie/attest/pkg/attest/config"
	"github.com/jamesainslie/attest/pkg/attest/logging"
	"github.com/jamesainslie/attest/pkg/attest/output"
	"github.com/jamesainslie/attest/pkg/attest/reconcile"
	"github.com/jamesainslie/attest/pkg/attest/types"
)

var cliLogger = logging.Get("cli")

// resolveRoot expands and validates the target directory from the command
// arguments, falling back to the configured default path.
func resolveRoot(args []string) (string, error) {
	root := viper.GetString("default_path")
	if len(args) > 0 {
		root = args[0]
	}
	if root == "" {
		root = "."
	}

	expanded, err := config.ExpandPath(root)
	if err != nil {
		return "", fmt.Errorf("failed to expand path: %w", err)
	}

	absPath, err := filepath.Abs(expanded)
	if err != nil {
		return "", fmt.Errorf("failed to resolve path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("path does not exist: %s", absPath)
		}
		return "", fmt.Errorf("cannot access path: %w", err)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("path is not a directory: %s", absPath)
	}

	return absPath, nil
}

// buildOptions assembles reconciliation options from the resolved
// configuration.
func buildOptions(root string) types.Options {
	return types.Options{
		Root:          root,
		IncludeHidden: viper.GetBool("include_hidden"),
		ExcludeFiles:  viper.GetStringSlice("exclude_files"),
		ExcludeDirs:   viper.GetStringSlice("exclude_dirs"),
		Workers:       viper.GetInt("workers"),
	}
}

// runOp executes one reconciliation operation end to end: resolve the
// root, run the reconciler under a signal-aware context, and render the
// report. Verify runs that find mismatches return errVerifyFailed.
func runOp(op string, args []string) error {
	root, err := resolveRoot(args)
	if err != nil {
		return err
	}

	opts := buildOptions(root)
	printVerbose("Root: %s", opts.Root)
	printVerbose("Config: %d workers, hidden=%t, exclude=%v",
		opts.Workers, opts.IncludeHidden, opts.ExcludeFiles)

	outFormat := viper.GetString("output")
	if outFormat == "" {
		outFormat = config.DefaultOutput
	}
	formatter, err := output.Get(outFormat)
	if err != nil {
		return fmt.Errorf("unknown output format %q: available formats are %v", outFormat, output.Available())
	}

	// Cancel the run on interrupt so no partial manifest is written.
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cliLogger.Info("run starting", "op", op, "root", root)

	r := reconcile.New(opts)

	var report *types.Report
	switch op {
	case reconcile.OpCreate:
		report, err = r.Create(ctx)
	case reconcile.OpVerify:
		report, err = r.Verify(ctx)
	case reconcile.OpReset:
		report, err = r.Reset(ctx)
	default:
		return fmt.Errorf("unknown operation: %s", op)
	}

	if err != nil {
		if errors.Is(err, context.Canceled) {
			printError("Interrupted, no manifests were written")
			return err
		}
		if errors.Is(err, reconcile.ErrNoManifests) {
			return fmt.Errorf("no sumfiles found under %s: run 'attest create' first", root)
		}
		return err
	}

	return renderReport(op, formatter, report)
}

// renderReport formats the report to stdout and translates verify
// mismatches into errVerifyFailed.
func renderReport(op string, formatter output.Formatter, report *types.Report) error {
	// Quiet mode keeps passing runs silent.
	if !getQuiet() || report.Failed() {
		var buf bytes.Buffer
		if err := formatter.Format(&buf, report); err != nil {
			return fmt.Errorf("failed to format output: %w", err)
		}
		fmt.Print(buf.String())
	}

	if op == reconcile.OpVerify && report.Failed() {
		return errVerifyFailed
	}
	return nil
}
