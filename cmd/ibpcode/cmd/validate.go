package cmd

import (
	"fmt"
	"os"

	"github.com/ibpcode/interpreter/internal/config"
	"github.com/ibpcode/interpreter/pkg/pcode"
	"github.com/spf13/cobra"
)

var validateCmd = &cobra.Command{
	Use:   "validate <file>",
	Short: "Parse and statically validate a program without running it",
	Long: `Run the validator against a program and print any diagnostics without
executing it — useful in editors and CI, where you want findings without
side effects.`,
	Args: cobra.ExactArgs(1),
	RunE: validateScript,
}

func init() {
	rootCmd.AddCommand(validateCmd)
	validateCmd.Flags().StringVar(&configPath, "config", ".ibpcode.yaml", "path to an optional project config file")
	validateCmd.Flags().BoolVar(&noStdlib, "no-stdlib", false, "do not prepend the bundled Collection/Stack/Queue/Math sources")
	validateCmd.Flags().BoolVar(&diagnosticsJSON, "diagnostics-json", false, "print diagnostics as JSON instead of formatted text")
	validateCmd.Flags().BoolVar(&prettyJSON, "pretty", false, "reindent --diagnostics-json output")
}

func validateScript(_ *cobra.Command, args []string) error {
	content, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("failed to read file %s: %w", args[0], err)
	}

	cfg, err := config.Load(configPath)
	if err != nil {
		return fmt.Errorf("failed to load config %s: %w", configPath, err)
	}
	if noStdlib {
		cfg.Stdlib = false
	}

	engine, _ := pcode.New(pcode.WithConfig(cfg))
	compiled, err := engine.Compile(string(content))
	if err != nil {
		return reportCompileError(err, string(content), args[0], cfg.Color)
	}

	diags := adjustDiagnosticLines(engine.Validate(compiled), compiled.PrependedLines)
	if len(diags) == 0 {
		fmt.Println("no diagnostics")
		return nil
	}
	return reportDiagnostics(diags, string(content), args[0], cfg.Color)
}
