package cmd

import (
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/ssargent/bidcvc/pkg/store"
)

var streamPath string

// streamCmd groups the stream container subcommands
var streamCmd = &cobra.Command{
	Use:   "stream",
	Short: "Work with framed stream files",
	Long: `A stream file is an append-only sequence of CRC-framed SPS and AU records.
An AU may only follow an SPS with the same id.`,
}

var streamAppendCmd = &cobra.Command{
	Use:   "append <unit file>...",
	Short: "Append encoded SPS or AU records to a stream file",
	Example: `  bidcvc stream append --stream out.bvs seq.sps frame0.bin frame1.bin`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStreamAppend(streamPath, args, logger, cmd.OutOrStdout())
	},
}

var streamDumpCmd = &cobra.Command{
	Use:   "dump <stream file>",
	Short: "List the units in a stream file",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return runStreamDump(args[0], cmd.OutOrStdout())
	},
}

func init() {
	rootCmd.AddCommand(streamCmd)
	streamCmd.AddCommand(streamAppendCmd)
	streamCmd.AddCommand(streamDumpCmd)

	streamAppendCmd.Flags().StringVar(&streamPath, "stream", "", "Stream file to append to (required)")
	if err := streamAppendCmd.MarkFlagRequired("stream"); err != nil {
		panic(err)
	}
}

func runStreamAppend(path string, units []string, logger *slog.Logger, out io.Writer) (err error) {
	w, err := store.NewStreamWriter(store.StreamWriterConfig{FilePath: path, Logger: logger})
	if err != nil {
		return err
	}
	defer func() {
		if cerr := w.Close(); err == nil {
			err = cerr
		}
	}()

	if n := w.Truncated(); n > 0 {
		fmt.Fprintf(out, "recovered %s: truncated %d corrupt bytes\n", path, n)
	}

	for _, unit := range units {
		data, err := os.ReadFile(unit)
		if err != nil {
			return fmt.Errorf("failed to read %s: %w", unit, err)
		}
		offset, err := w.WriteUnit(data)
		if err != nil {
			return fmt.Errorf("%s: %w", unit, err)
		}
		fmt.Fprintf(out, "appended %s at offset %d\n", unit, offset)
	}
	return nil
}

func runStreamDump(path string, out io.Writer) error {
	r, err := store.NewStreamReader(store.StreamReaderConfig{FilePath: path})
	if err != nil {
		return err
	}
	defer r.Close()

	var sps, aus int
	it := r.Iterator()
	for it.Next() {
		u := it.Unit()
		switch u.Kind {
		case store.UnitSPS:
			sps++
			fmt.Fprintf(out, "%8d sps sps_id=%d width=%d height=%d\n", u.Offset, u.SPS.SPSID, u.SPS.Width, u.SPS.Height)
		case store.UnitAU:
			aus++
			fmt.Fprintf(out, "%8d au  sps_id=%d qp=%d frame_bytes=%d\n", u.Offset, u.AU.SPSID, u.AU.QP, u.Size)
		}
	}
	fmt.Fprintf(out, "units=%d sps=%d au=%d\n", sps+aus, sps, aus)

	if err := it.Err(); err != nil {
		return fmt.Errorf("%s: %w", path, err)
	}
	return nil
}
