/*
Copyright © 2025 NAME HERE <EMAIL ADDRESS>
*/
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bidcvc/pkg/codec"
)

type encodeOptions struct {
	left, right, output string
	qp, spsID           int
	dryRun              bool
}

var encodeOpts encodeOptions

// encodeCmd represents the encode command
var encodeCmd = &cobra.Command{
	Use:   "encode",
	Short: "Encode a stereo frame into a StereoAU bitstream",
	Long: `Encode left and right view inputs into a StereoAU bitstream.

The neural encoder is not available yet; --dry-run checks the arguments only.

Examples:
  bidcvc encode --left l.yuv --right r.yuv --output frame.bin --qp 22
  bidcvc encode --left l.yuv --right r.yuv --output frame.bin --dry-run`,
	RunE: func(cmd *cobra.Command, args []string) error {
		opts := encodeOpts
		opts.qp = intFlag(cmd, "qp", appConfig.Encoder.QP)
		opts.spsID = intFlag(cmd, "sps-id", appConfig.Encoder.SPSID)
		return runEncode(cmd.Context(), opts, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(encodeCmd)

	encodeCmd.Flags().StringVar(&encodeOpts.left, "left", "", "Path to left-view input (required)")
	encodeCmd.Flags().StringVar(&encodeOpts.right, "right", "", "Path to right-view input (required)")
	encodeCmd.Flags().StringVar(&encodeOpts.output, "output", "", "Output .bin path (required)")
	encodeCmd.Flags().Int("qp", 22, "Quantization parameter (opaque, 0-255)")
	encodeCmd.Flags().Int("sps-id", 0, "SPS id to embed in the AU header")
	encodeCmd.Flags().BoolVar(&encodeOpts.dryRun, "dry-run", false, "Parse args and exit without encoding")
	for _, name := range []string{"left", "right", "output"} {
		if err := encodeCmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

func runEncode(ctx context.Context, opts encodeOptions, out io.Writer) error {
	if opts.dryRun {
		fmt.Fprintln(out, "OK (dry-run): CLI wiring is present; model encode is TODO.")
		return nil
	}

	qp, err := toU8("qp", opts.qp)
	if err != nil {
		return err
	}
	spsID, err := toU8("sps-id", opts.spsID)
	if err != nil {
		return err
	}

	left, err := os.ReadFile(opts.left)
	if err != nil {
		return fmt.Errorf("failed to read left view: %w", err)
	}
	right, err := os.ReadFile(opts.right)
	if err != nil {
		return fmt.Errorf("failed to read right view: %w", err)
	}

	data, err := codec.EncodeStereoFrame(ctx,
		codec.StereoFrame{Left: left, Right: right},
		codec.EncodeOptions{SPSID: spsID, QP: qp},
	)
	if err != nil {
		return err
	}
	return writeOutput(opts.output, data)
}
