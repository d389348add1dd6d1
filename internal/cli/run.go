package cli

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"finitefield.org/c360-builder/internal/dashboard"
	"finitefield.org/c360-builder/internal/platform/requestctx"
)

type runOptions struct {
	Strict bool
}

func newRunCommand(a *app) *cobra.Command {
	opts := &runOptions{}

	cmd := &cobra.Command{
		Use:   "run [use case text...]",
		Short: "Run the builder once and print the report",
		Long: `Run the builder pipeline over a use case description.

The arguments are joined with spaces. Without arguments the use case is read
from standard input.`,
		Example: `  c360 run "customer name and email, plus transaction spending"
  echo "loan and mortgage exposure" | c360 run --format json`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runBuilder(cmd, a, opts, args)
		},
	}

	cmd.Flags().BoolVar(&opts.Strict, "strict", false, "exit with status 2 when certification fails")
	return cmd
}

func runBuilder(cmd *cobra.Command, a *app, opts *runOptions, args []string) error {
	useCase, err := readUseCase(cmd.InOrStdin(), args, a.cfg.Dashboard.MaxUseCaseBytes)
	if err != nil {
		return err
	}

	ctx := cmd.Context()
	if a.opts.Verbose {
		ctx = requestctx.WithLogger(ctx, a.logger)
	}

	report, err := a.service().Run(ctx, useCase)
	if err != nil {
		if errors.Is(err, dashboard.ErrUseCaseTooLong) {
			return WrapExitError(ExitFailure, "use case rejected", err)
		}
		return WrapExitError(ExitFailure, "run builder", err)
	}

	out := cmd.OutOrStdout()
	switch a.opts.Format {
	case FormatJSON:
		err = writeReportJSON(out, report)
	default:
		err = writeReportTable(out, report, a.catalog)
	}
	if err != nil {
		return WrapExitError(ExitFailure, "write report", err)
	}

	if opts.Strict && !report.Certification.Passed {
		return NewExitError(ExitNotCertified, fmt.Sprintf("certification failed: %s", strings.Join(report.Certification.FailedChecks(), ", ")))
	}
	return nil
}

// readUseCase joins args, or reads stdin up to one byte past limit so the service
// can reject oversized input.
func readUseCase(stdin io.Reader, args []string, limit int) (string, error) {
	if len(args) > 0 {
		return strings.Join(args, " "), nil
	}
	if stdin == nil {
		return "", nil
	}
	data, err := io.ReadAll(io.LimitReader(stdin, int64(limit)+1))
	if err != nil {
		return "", WrapExitError(ExitFailure, "read stdin", err)
	}
	return string(data), nil
}
