package cmd

import (
	"fmt"
	"os"

	"github.com/ibpcode/interpreter/internal/config"
	"github.com/ibpcode/interpreter/internal/diagnostic"
	"github.com/ibpcode/interpreter/internal/runtime"
	"github.com/ibpcode/interpreter/pkg/pcode"
	"github.com/spf13/cobra"
)

var (
	evalExpr        string
	noStdlib        bool
	configPath      string
	diagnosticsJSON bool
	prettyJSON      bool
	maxLoopSteps    int
)

var runCmd = &cobra.Command{
	Use:   "run [file]",
	Short: "Run a pseudocode program from a file or inline expression",
	Long: `Execute a pseudocode program from a file or inline expression.

Examples:
  # Run a script file
  ibpcode run program.pcode

  # Evaluate an inline expression
  ibpcode run -e "output \"hello\""

  # Run without the bundled Collection/Stack/Queue/Math sources
  ibpcode run --no-stdlib program.pcode`,
	Args: cobra.MaximumNArgs(1),
	RunE: runScript,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().StringVarP(&evalExpr, "eval", "e", "", "evaluate inline code instead of reading from file")
	runCmd.Flags().BoolVar(&noStdlib, "no-stdlib", false, "do not prepend the bundled Collection/Stack/Queue/Math sources")
	runCmd.Flags().StringVar(&configPath, "config", ".ibpcode.yaml", "path to an optional project config file")
	runCmd.Flags().BoolVar(&diagnosticsJSON, "diagnostics-json", false, "on failure, print diagnostics as JSON instead of formatted text")
	runCmd.Flags().BoolVar(&prettyJSON, "pretty", false, "reindent --diagnostics-json output")
	runCmd.Flags().IntVar(&maxLoopSteps, "max-loop-steps", 0, "abort a run after this many total loop iterations (0 means unbounded)")
}

func runScript(_ *cobra.Command, args []string) error {
	input, filename, err := readSource(evalExpr, args)
	if err != nil {
		return err
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	if noStdlib {
		cfg.Stdlib = false
	}
	if maxLoopSteps != 0 {
		cfg.MaxLoopSteps = maxLoopSteps
	}

	engine, _ := pcode.New(pcode.WithConfig(cfg))

	compiled, err := engine.Compile(input)
	if err != nil {
		return reportCompileError(err, input, filename, cfg.Color)
	}

	diags := adjustDiagnosticLines(engine.Validate(compiled), compiled.PrependedLines)
	blocking := blockingDiagnostics(diags)
	if len(blocking) > 0 {
		return reportDiagnostics(blocking, input, filename, cfg.Color)
	}

	env := freshRunEnv()
	if err := engine.Run(compiled, env); err != nil {
		if rerr, ok := err.(*diagnostic.RuntimeError); ok {
			adjusted := adjustDiagnosticLines([]*diagnostic.Diagnostic{rerr.Diagnostic}, compiled.PrependedLines)
			return reportDiagnostics(adjusted, input, filename, cfg.Color)
		}
		return err
	}
	return nil
}

// adjustDiagnosticLines shifts every diagnostic's line numbers back by
// offset, the line count internal/stdlib's bundle occupies ahead of user
// code — validator and runtime diagnostics are positioned in the combined
// source the pipeline actually parsed, but the CLI renders them against
// the user's own, unprepended source text (spec.md §6).
func adjustDiagnosticLines(diags []*diagnostic.Diagnostic, offset int) []*diagnostic.Diagnostic {
	if offset == 0 {
		return diags
	}
	out := make([]*diagnostic.Diagnostic, len(diags))
	for i, d := range diags {
		shifted := *d
		shifted.Line.StartLine -= offset
		shifted.Line.EndLine -= offset
		out[i] = &shifted
	}
	return out
}

func freshRunEnv() *runtime.Env {
	return runtime.NewEnv(os.Stdin, os.Stdout)
}

func readSource(evalExpr string, args []string) (input, filename string, err error) {
	if evalExpr != "" {
		return evalExpr, "<eval>", nil
	}
	if len(args) == 1 {
		content, err := os.ReadFile(args[0])
		if err != nil {
			return "", "", fmt.Errorf("failed to read file %s: %w", args[0], err)
		}
		return string(content), args[0], nil
	}
	return "", "", fmt.Errorf("either provide a file path or use -e for inline code")
}

// blockingDiagnostics drops NoReturn findings, which are advisory
// (spec.md §4.4), and returns only the findings that should stop a run.
func blockingDiagnostics(diags []*diagnostic.Diagnostic) []*diagnostic.Diagnostic {
	var out []*diagnostic.Diagnostic
	for _, d := range diags {
		if d.Type != diagnostic.NoReturn {
			out = append(out, d)
		}
	}
	return out
}

func reportCompileError(err error, source, filename string, color bool) error {
	cerr, ok := err.(*pcode.CompileError)
	if !ok {
		fmt.Fprintln(os.Stderr, err)
		return err
	}
	for _, e := range cerr.Errors {
		fmt.Fprintf(os.Stderr, "%s:%d: %s: %s\n", filename, e.Line, e.Severity, e.Message)
	}
	return fmt.Errorf("%s failed with %d error(s)", cerr.Stage, len(cerr.Errors))
}

func reportDiagnostics(diags []*diagnostic.Diagnostic, source, filename string, color bool) error {
	if diagnosticsJSON {
		errs := make([]*pcode.Error, len(diags))
		for i, d := range diags {
			errs[i] = &pcode.Error{Message: d.Message, Note: d.Note, Line: d.Line.StartLine, Column: d.Line.StartCol}
		}
		doc, err := pcode.DiagnosticsJSON(errs)
		if err != nil {
			return err
		}
		if prettyJSON {
			doc = diagnostic.PrettyJSON(doc)
		}
		fmt.Println(string(doc))
		return fmt.Errorf("%s: %d diagnostic(s)", filename, len(diags))
	}

	printer := diagnostic.NewPrinter(source, color)
	fmt.Fprint(os.Stderr, printer.FormatAll(diags))
	return fmt.Errorf("%s: %d diagnostic(s)", filename, len(diags))
}
