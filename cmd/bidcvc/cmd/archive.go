package cmd

import (
	"bytes"
	"fmt"
	"io"
	"os"

	"github.com/segmentio/ksuid"
	"github.com/spf13/cobra"

	"github.com/ssargent/bidcvc/pkg/archive"
	"github.com/ssargent/bidcvc/pkg/bitstream"
	"github.com/ssargent/bidcvc/pkg/codec"
)

var archiveOutput string

// archiveCmd groups the archive subcommands
var archiveCmd = &cobra.Command{
	Use:   "archive",
	Short: "Store and retrieve records in the local archive",
	Long: `The archive is a pebble database under --data-dir. SPS records are keyed
by sps_id and AUs by a generated KSUID.`,
}

var archivePutCmd = &cobra.Command{
	Use:   "put <file>",
	Short: "Archive an encoded SPS or AU",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(cmd, func(a *archive.Archive) error {
			return runArchivePut(a, args[0], cmd.OutOrStdout())
		})
	},
}

var archiveGetCmd = &cobra.Command{
	Use:   "get <id>",
	Short: "Fetch an archived AU",
	Long: `Fetch an archived AU. With --output the raw bytes are written to a file,
otherwise the inspection report is printed.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(cmd, func(a *archive.Archive) error {
			return runArchiveGet(a, args[0], archiveOutput, cmd.OutOrStdout())
		})
	},
}

var archiveListCmd = &cobra.Command{
	Use:   "list",
	Short: "List archived SPS ids and AU ids",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(cmd, func(a *archive.Archive) error {
			return runArchiveList(a, cmd.OutOrStdout())
		})
	},
}

var archiveDeleteCmd = &cobra.Command{
	Use:   "delete <id>",
	Short: "Delete an archived AU",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withArchive(cmd, func(a *archive.Archive) error {
			return runArchiveDelete(a, args[0], cmd.OutOrStdout())
		})
	},
}

func init() {
	rootCmd.AddCommand(archiveCmd)
	archiveCmd.AddCommand(archivePutCmd, archiveGetCmd, archiveListCmd, archiveDeleteCmd)

	archiveCmd.PersistentFlags().StringP("data-dir", "d", "", "Archive directory (default: data_dir from config)")
	archiveGetCmd.Flags().StringVar(&archiveOutput, "output", "", "Write the raw AU bytes to this path")
}

// withArchive opens the archive named by --data-dir for the duration of fn
func withArchive(cmd *cobra.Command, fn func(a *archive.Archive) error) (err error) {
	dataDir, _ := cmd.Flags().GetString("data-dir")
	if dataDir == "" {
		dataDir = appConfig.DataDir
	}

	a, err := openArchive(dataDir)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := a.Close(); err == nil {
			err = cerr
		}
	}()
	return fn(a)
}

func openArchive(dataDir string) (*archive.Archive, error) {
	if container == nil {
		return nil, fmt.Errorf("dependency container not initialized")
	}
	if err := os.MkdirAll(dataDir, 0750); err != nil {
		return nil, fmt.Errorf("failed to create data dir: %w", err)
	}
	return container.OpenArchive(dataDir, logger)
}

func runArchivePut(a *archive.Archive, path string, out io.Writer) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	if bytes.HasPrefix(data, bitstream.MagicSPS[:]) {
		sps, err := codec.SPSParse(data)
		if err != nil {
			return err
		}
		if err := a.PutSPS(sps); err != nil {
			return err
		}
		fmt.Fprintf(out, "stored sps %d\n", sps.SPSID)
		return nil
	}

	id, err := a.PutEncodedAU(data)
	if err != nil {
		return err
	}
	fmt.Fprintln(out, id.String())
	return nil
}

func runArchiveGet(a *archive.Archive, rawID, output string, out io.Writer) error {
	id, err := ksuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid AU id %q: %w", rawID, err)
	}

	data, err := a.GetEncodedAU(id)
	if err != nil {
		return err
	}
	if output != "" {
		return writeOutput(output, data)
	}

	au, err := codec.AUParse(data)
	if err != nil {
		return err
	}
	fmt.Fprint(out, codec.Inspect(au))
	return nil
}

func runArchiveList(a *archive.Archive, out io.Writer) error {
	spsIDs, err := a.ListSPS()
	if err != nil {
		return err
	}
	for _, id := range spsIDs {
		fmt.Fprintf(out, "sps %d\n", id)
	}

	ids, err := a.ListAUs()
	if err != nil {
		return err
	}
	for _, id := range ids {
		fmt.Fprintf(out, "au  %s\n", id)
	}
	return nil
}

func runArchiveDelete(a *archive.Archive, rawID string, out io.Writer) error {
	id, err := ksuid.Parse(rawID)
	if err != nil {
		return fmt.Errorf("invalid AU id %q: %w", rawID, err)
	}
	if err := a.DeleteAU(id); err != nil {
		return err
	}
	fmt.Fprintf(out, "deleted %s\n", id)
	return nil
}
