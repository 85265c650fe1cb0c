package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bidcvc/pkg/bitstream"
	"github.com/ssargent/bidcvc/pkg/codec"
)

type auPackOptions struct {
	la, ra, lb, rb string
	qp, spsID      int
	output         string
}

var auPackOpts auPackOptions

// auCmd groups the AU subcommands
var auCmd = &cobra.Command{
	Use:   "au",
	Short: "Build access units from raw segments",
}

var auPackCmd = &cobra.Command{
	Use:   "pack",
	Short: "Pack four segment files into a StereoAU",
	Long: `Pack four segment files into a StereoAU record. A segment whose flag is
omitted is written as empty.

Example:
  bidcvc au pack --la la.bin --ra ra.bin --lb lb.bin --rb rb.bin --qp 22 --output frame.bin`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := auPackOpts
		opts.qp = intFlag(cmd, "qp", appConfig.Encoder.QP)
		opts.spsID = intFlag(cmd, "sps-id", appConfig.Encoder.SPSID)
		return runAUPack(opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(auCmd)
	auCmd.AddCommand(auPackCmd)

	auPackCmd.Flags().StringVar(&auPackOpts.la, "la", "", "L.A segment file")
	auPackCmd.Flags().StringVar(&auPackOpts.ra, "ra", "", "R.A segment file")
	auPackCmd.Flags().StringVar(&auPackOpts.lb, "lb", "", "L.B segment file")
	auPackCmd.Flags().StringVar(&auPackOpts.rb, "rb", "", "R.B segment file")
	auPackCmd.Flags().Int("qp", 22, "Quantization parameter (opaque, 0-255)")
	auPackCmd.Flags().Int("sps-id", 0, "SPS id to embed in the AU header")
	auPackCmd.Flags().StringVar(&auPackOpts.output, "output", "", "Output path (required)")
	if err := auPackCmd.MarkFlagRequired("output"); err != nil {
		panic(err)
	}
}

func runAUPack(opts auPackOptions, out io.Writer) error {
	qp, err := toU8("qp", opts.qp)
	if err != nil {
		return err
	}
	spsID, err := toU8("sps-id", opts.spsID)
	if err != nil {
		return err
	}

	var segs [4][]byte
	for i, path := range []string{opts.la, opts.ra, opts.lb, opts.rb} {
		if path == "" {
			continue
		}
		if segs[i], err = os.ReadFile(path); err != nil {
			return fmt.Errorf("failed to read segment %s: %w", path, err)
		}
	}

	au := bitstream.NewStereoAU(spsID, qp, segs[0], segs[1], segs[2], segs[3])
	data, err := codec.AUSerialize(au)
	if err != nil {
		return err
	}
	if err := writeOutput(opts.output, data); err != nil {
		return err
	}
	fmt.Fprintf(out, "wrote %d bytes to %s\n", len(data), opts.output)
	return nil
}
