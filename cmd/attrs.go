package cmd

import (
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/olekukonko/tablewriter"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/robcore/Hulk-Kernel-V2/sim/edf"
)

var attrAssignments []string // name=value pairs applied in order

// attrsCmd prints the attribute surface of a scheduler built from the
// configuration, after applying any --set writes.
var attrsCmd = &cobra.Command{
	Use:   "attrs",
	Short: "Show scheduler attributes, optionally after writing some",
	Run: func(cmd *cobra.Command, args []string) {
		cfg, err := buildRunConfig(cmd)
		if err != nil {
			logrus.Fatalf("%v", err)
		}
		s := edf.NewScheduler(cfg.Scheduler)
		if err := applyAttrs(s, attrAssignments); err != nil {
			logrus.Fatalf("%v", err)
		}
		if err := printAttrs(os.Stdout, s); err != nil {
			logrus.Fatalf("%v", err)
		}
	},
}

// parseAttrAssignment splits "name=value". The value is passed through
// untouched; the scheduler does its own lenient parsing.
func parseAttrAssignment(s string) (name, value string, err error) {
	name, value, ok := strings.Cut(s, "=")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return "", "", fmt.Errorf("attribute assignment %q must look like name=value", s)
	}
	return name, value, nil
}

func applyAttrs(s *edf.Scheduler, assignments []string) error {
	for _, a := range assignments {
		name, value, err := parseAttrAssignment(a)
		if err != nil {
			return err
		}
		if err := s.StoreAttr(name, value); err != nil {
			return fmt.Errorf("setting %s: %w", name, err)
		}
		if !edf.IsWritableAttr(name) {
			logrus.Warnf("%s is a read-only counter; write discarded", name)
		}
	}
	return nil
}

func printAttrs(w io.Writer, s *edf.Scheduler) error {
	table := tablewriter.NewWriter(w)
	table.SetHeader([]string{"Attribute", "Value", "Writable"})
	for _, name := range s.Attrs() {
		value, err := s.ShowAttr(name)
		if err != nil {
			return err
		}
		table.Append([]string{name, strings.TrimSuffix(value, "\n"), fmt.Sprint(edf.IsWritableAttr(name))})
	}
	table.SetCaption(true, fmt.Sprintf("clock %d ticks/s, quantum %d ticks", s.TicksPerSecond(), s.TimesliceQuantum()))
	table.Render()
	return nil
}

func registerAttrsFlags(c *cobra.Command) {
	registerConfigFlags(c)
	c.Flags().StringArrayVar(&attrAssignments, "set", nil, "Write an attribute before printing, as name=value (repeatable)")
}
