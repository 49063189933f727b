package cmd

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"recast/internal/format"
	"recast/internal/tui"
)

var formatsCmd = &cobra.Command{
	Use:   "formats",
	Short: "List supported image formats and their quality handling",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		reg := format.NewRegistry()
		out := cmd.OutOrStdout()

		for _, codec := range reg.Codecs() {
			fmt.Fprintf(out, "%s %s\n",
				formatNameStyle.Render(codec.Name()),
				formatDimStyle.Render("("+codec.Tag().String()+")"),
			)
			fmt.Fprintf(out, "  %s %s\n",
				formatLabelStyle.Render("extensions:"),
				formatValueStyle.Render(strings.Join(codec.Extensions(), ", ")),
			)
			fmt.Fprintf(out, "  %s %s\n",
				formatLabelStyle.Render("quality:"),
				formatValueStyle.Render(describeQuality(codec)),
			)
		}
		return nil
	},
}

func describeQuality(codec format.Codec) string {
	def := codec.Level(nil)
	switch {
	case !def.Applicable:
		return "not applicable (lossless, uncompressed)"
	case codec.Tag() == format.PNG:
		return fmt.Sprintf("mapped to compression level 1-6, default %s", def)
	default:
		return fmt.Sprintf("used as encoder quality, default %s", def)
	}
}

var (
	formatNameStyle  = lipgloss.NewStyle().Bold(true).Foreground(tui.ColorAccent)
	formatLabelStyle = lipgloss.NewStyle().Foreground(tui.ColorAccentAlt)
	formatValueStyle = lipgloss.NewStyle().Foreground(tui.ColorInk)
	formatDimStyle   = lipgloss.NewStyle().Foreground(tui.ColorDim)
)

func init() {
	rootCmd.AddCommand(formatsCmd)
}
