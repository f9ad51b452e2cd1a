package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
)

// presetsCmd lists the workload presets in defaults.yaml.
var presetsCmd = &cobra.Command{
	Use:   "presets",
	Short: "List workload presets from defaults.yaml",
	Run: func(cmd *cobra.Command, args []string) {
		defaults, err := loadDefaultsConfig(defaultsFilePath)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		printPresets(os.Stdout, defaults)
	},
}

func printPresets(w io.Writer, defaults *DefaultsConfig) {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Preset", "Rate", "Reads", "Sequential", "Sectors", "Arrival"})
	for _, name := range defaults.PresetNames() {
		spec := defaults.Workloads[name]
		process := spec.Arrival.Process
		if process == "" {
			process = "poisson"
		}
		table.Append([]string{
			name,
			fmt.Sprintf("%.0f/s", spec.Rate),
			fmt.Sprintf("%.0f%%", spec.ReadRatio*100),
			fmt.Sprintf("%.0f%%", spec.SequentialRatio*100),
			fmt.Sprintf("%d-%d", spec.SectorsMin, spec.SectorsMax),
			process,
		})
	}
	table.Render()
}

func registerPresetsFlags(c *cobra.Command) {
	c.Flags().StringVar(&defaultsFilePath, "defaults", "defaults.yaml", "Path to defaults.yaml with workload presets")
}
