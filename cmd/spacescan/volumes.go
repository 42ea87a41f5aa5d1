package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jamesainslie/spacescan/pkg/spacescan/output"
	"github.com/jamesainslie/spacescan/pkg/spacescan/volume"
)

var volumesCmd = &cobra.Command{
	Use:     "volumes",
	Aliases: []string{"vols"},
	Short:   "List scannable volumes",
	Long: `Volumes lists the mounted volumes spacescan would scan, with their capacity.
Removable and optical media, pseudo filesystems and network shares are left out.
Volumes whose capacity cannot be read are shown with "?" and do not count
towards progress.`,
	Args: cobra.NoArgs,
	RunE: runVolumes,
}

func init() {
	rootCmd.AddCommand(volumesCmd)
}

func runVolumes(_ *cobra.Command, _ []string) error {
	vols, err := volume.New().List()
	if err != nil {
		return err
	}
	return output.WriteVolumes(os.Stdout, vols, cfg.Output)
}
