package commands

import (
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/garagon/symscan"
)

var listPresetsCmd = &cobra.Command{
	Use:   "list-presets",
	Short: "List the named target symbol sets",
	Args:  cobra.NoArgs,
	RunE:  runListPresets,
}

func init() {
	rootCmd.AddCommand(listPresetsCmd)
}

func runListPresets(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig(cmd)
	if err != nil {
		return err
	}
	infos, err := symscan.ListPresets(symscan.WithPresetsDir(cfg.PresetsDir))
	if err != nil {
		return err
	}

	w := cmd.OutOrStdout()
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "ID\tSYMBOLS\tDESCRIPTION\n")
	fmt.Fprintf(tw, "--\t-------\t-----------\n")
	for _, p := range infos {
		fmt.Fprintf(tw, "%s\t%s\t%s\n", p.ID, strings.Join(p.Symbols, ","), p.Description)
	}
	if err := tw.Flush(); err != nil {
		return err
	}
	fmt.Fprintf(w, "\n%d presets loaded\n", len(infos))
	return nil
}
