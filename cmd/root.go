package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var rootCmd = &cobra.Command{
	Use:   "recast [flags] [paths...]",
	Short: "recast - convert, compress, resize and crop images in bulk",
	Long: "recast converts, recompresses, resizes, crops and grayscales JPEG, PNG, WebP and BMP images.\n" +
		"Paths may be files, directories or glob patterns; the current directory is used when none are given.",
	Example: "  recast -c webp -q 80 photos/\n" +
		"  recast -r 50 -a _half -o out/ '*.png'\n" +
		"  recast -t 10x10+200x100 -g -c png scan.bmp",
	Args:          cobra.ArbitraryArgs,
	SilenceUsage:  true,
	SilenceErrors: true,
	RunE:          runBatch,
}

// Execute runs the CLI and exits non-zero on configuration errors or when
// any job failed or was skipped.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		if !errors.Is(err, errIncomplete) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func init() {
	rootCmd.SetHelpCommand(&cobra.Command{Hidden: true})
	registerBatchFlags(rootCmd)
}
