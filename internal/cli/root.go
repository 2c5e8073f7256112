// Package cli implements the adifconv command, which converts Hamlog CSV
// exports to ADIF without the HTTP server.
package cli

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/JonMunkholm/adifgen/internal/adif"
	"github.com/JonMunkholm/adifgen/internal/core"
	"github.com/JonMunkholm/adifgen/internal/logging"
)

type options struct {
	station   string
	operator  string
	refs      string
	hisRefs   string
	qth       string
	encoding  string
	format    string
	output    string
	programID string
	logLevel  string
	workers   int
}

// NewRootCmd builds the adifconv command tree.
func NewRootCmd() *cobra.Command {
	opts := &options{}

	root := &cobra.Command{
		Use:   "adifconv",
		Short: "Convert Hamlog CSV exports to ADIF",
		Long: `adifconv reads a Hamlog CSV export, converts every QSO to UTC and
ADIF band/mode names, tags it with the activation references and writes
an ADIF file. Rows that cannot be converted are reported and skipped.`,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&opts.station, "station", "s", "", "activator station call sign (required)")
	pf.StringVar(&opts.operator, "operator", "", "operator call sign (default: station)")
	pf.StringVarP(&opts.refs, "refs", "r", "", "comma-separated activation references, e.g. JA/KN-006,JA-0001 (required)")
	pf.StringVar(&opts.hisRefs, "his-refs", "", "comma-separated references of the worked stations")
	pf.StringVar(&opts.qth, "qth", "", "activation location for MY_QTH")
	pf.StringVarP(&opts.encoding, "encoding", "e", core.DefaultCharset, "input charset")
	pf.IntVar(&opts.workers, "workers", 4, "rows normalized in parallel")
	pf.StringVar(&opts.logLevel, "log-level", "warn", "log level: debug, info, warn, error")

	convert := &cobra.Command{
		Use:   "convert [file]",
		Short: "Convert a log and write ADIF or JSON",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runConvert(cmd, opts, args)
		},
	}
	convert.Flags().StringVarP(&opts.format, "format", "f", "adif", "output format: adif, json")
	convert.Flags().StringVarP(&opts.output, "output", "o", "", "output file (default: stdout)")
	convert.Flags().StringVar(&opts.programID, "program-id", adif.DefaultProgramID, "PROGRAMID written to the ADIF header")

	check := &cobra.Command{
		Use:   "check [file]",
		Short: "Report which rows of a log would convert",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return runCheck(cmd, opts, args)
		},
	}

	root.AddCommand(convert, check)
	return root
}

// Execute runs the command and returns the process exit code.
func Execute() int {
	cmd := NewRootCmd()
	if err := cmd.Execute(); err != nil {
		fmt.Fprintln(cmd.ErrOrStderr(), "error:", err)
		return 1
	}
	return 0
}

// run converts the log named by args, or stdin when there is none or it is "-".
func run(cmd *cobra.Command, opts *options, args []string) (core.BatchResult, error) {
	in := cmd.InOrStdin()
	name := "stdin"
	if len(args) == 1 && args[0] != "-" {
		f, err := os.Open(args[0])
		if err != nil {
			return core.BatchResult{}, err
		}
		defer f.Close()
		in, name = f, args[0]
	}

	logger := logging.New(cmd.ErrOrStderr(), opts.logLevel, "text")
	svc := core.NewService(core.ServiceConfig{
		MaxConcurrent:  1,
		RowWorkers:     opts.workers,
		DefaultCharset: opts.encoding,
	}, core.WithLogger(logger))

	res, err := svc.Convert(cmd.Context(), core.ConvertRequest{
		Context: core.RequestContext{
			StationCall:  opts.station,
			Operator:     opts.operator,
			MyReference:  opts.refs,
			HisReference: opts.hisRefs,
			MyLocation:   opts.qth,
		},
		Log:      in,
		FileName: name,
	})
	if err != nil {
		logger.Debug("conversion failed", "file", name, "error", err)
		return res, userError(err)
	}

	logger.Info("conversion finished", "file", name, "records", len(res.Records), "failures", len(res.Failures))
	reportFailures(cmd.ErrOrStderr(), res.Failures)
	return res, nil
}

func runConvert(cmd *cobra.Command, opts *options, args []string) error {
	res, err := run(cmd, opts, args)
	if err != nil {
		return err
	}

	var buf bytes.Buffer
	switch opts.format {
	case "adif":
		if err := adif.Encode(&buf, res, opts.programID); err != nil {
			return fmt.Errorf("encode adif: %w", err)
		}
	case "json":
		enc := json.NewEncoder(&buf)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return fmt.Errorf("encode json: %w", err)
		}
	default:
		return fmt.Errorf("unknown format %q (want adif or json)", opts.format)
	}

	if opts.output == "" {
		_, err := cmd.OutOrStdout().Write(buf.Bytes())
		return err
	}
	if err := os.WriteFile(opts.output, buf.Bytes(), 0o644); err != nil {
		return err
	}
	fmt.Fprintf(cmd.ErrOrStderr(), "wrote %d records to %s\n", len(res.Records), opts.output)
	return nil
}

func runCheck(cmd *cobra.Command, opts *options, args []string) error {
	res, err := run(cmd, opts, args)
	if err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "%d records converted, %d rows failed\n", len(res.Records), len(res.Failures))
	return nil
}

func reportFailures(w io.Writer, failures []core.RowFailure) {
	for _, f := range failures {
		fmt.Fprintf(w, "line %d: %s\n", f.Line, f.Reason)
	}
}

// cliError prints the mapped user message and unwraps to the cause.
type cliError struct {
	msg string
	err error
}

func (e *cliError) Error() string { return e.msg }
func (e *cliError) Unwrap() error { return e.err }

func userError(err error) error {
	return &cliError{msg: core.FormatUserError(core.MapError(err)), err: err}
}
