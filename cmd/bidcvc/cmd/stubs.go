package cmd

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/ssargent/bidcvc/pkg/codec"
)

var (
	simulcastLeft, simulcastRight, simulcastOutputDir string
	simulcastQP                                       int

	evalConfigPath, evalOutputDir string
)

// simulcastCmd represents the simulcast baseline command
var simulcastCmd = &cobra.Command{
	Use:   "simulcast",
	Short: "Encode left/right independently as a simulcast baseline",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if _, err := toU8("qp", simulcastQP); err != nil {
			return err
		}
		_, err := codec.DCVCBaseline()
		return err
	},
}

// evalLatencyCmd represents the latency evaluation command
var evalLatencyCmd = &cobra.Command{
	Use:   "eval-latency",
	Short: "Run the latency evaluation",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return codec.RunLatencyEval(cmd.Context(), codec.EvalConfig{
			ConfigPath: evalConfigPath,
			OutputDir:  evalOutputDir,
		})
	},
}

// ablationsCmd represents the ablation listing command
var ablationsCmd = &cobra.Command{
	Use:   "ablations",
	Short: "List the known ablation sweeps",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runAblations(cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(simulcastCmd, evalLatencyCmd, ablationsCmd)

	simulcastCmd.Flags().StringVar(&simulcastLeft, "left", "", "Path to left-view input (required)")
	simulcastCmd.Flags().StringVar(&simulcastRight, "right", "", "Path to right-view input (required)")
	simulcastCmd.Flags().StringVar(&simulcastOutputDir, "output-dir", "", "Directory for outputs (required)")
	simulcastCmd.Flags().IntVar(&simulcastQP, "qp", 22, "Quantization parameter (opaque, 0-255)")
	for _, name := range []string{"left", "right", "output-dir"} {
		if err := simulcastCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}

	evalLatencyCmd.Flags().StringVar(&evalConfigPath, "eval-config", "", "Eval config YAML (required)")
	evalLatencyCmd.Flags().StringVar(&evalOutputDir, "output-dir", "runs/latency", "Output directory")
	if err := evalLatencyCmd.MarkFlagRequired("eval-config"); err != nil {
		panic(err)
	}
}

func runAblations(out io.Writer) error {
	fmt.Fprintln(out, "Known ablations:")
	for _, name := range codec.ListAblations() {
		fmt.Fprintf(out, "- %s\n", name)
	}
	fmt.Fprintln(out, "TODO: wire actual ablation runs.")
	return nil
}
