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

var (
	decodeInput   string
	decodeInspect bool
)

// decodeCmd represents the decode command
var decodeCmd = &cobra.Command{
	Use:   "decode",
	Short: "Decode or inspect a StereoAU bitstream",
	Long: `Parse a StereoAU bitstream. With --inspect, print the header and segment
sizes. Without it, run the neural decoder, which is not available yet.

Example:
  bidcvc decode --input frame.bin --inspect`,
	RunE: func(cmd *cobra.Command, args []string) error {
		return runDecode(cmd.Context(), decodeInput, decodeInspect, cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(decodeCmd)

	decodeCmd.Flags().StringVar(&decodeInput, "input", "", "Input .bin path (required)")
	decodeCmd.Flags().BoolVar(&decodeInspect, "inspect", false, "Parse bitstream and print header + segment sizes")
	if err := decodeCmd.MarkFlagRequired("input"); err != nil {
		panic(err)
	}
}

func runDecode(ctx context.Context, input string, inspect bool, out io.Writer) error {
	data, err := os.ReadFile(input)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", input, err)
	}

	au, err := codec.AUParse(data)
	if err != nil {
		return err
	}

	if inspect {
		fmt.Fprint(out, codec.Inspect(au))
		return nil
	}

	_, err = codec.DecodeStereoAU(ctx, au)
	return err
}
