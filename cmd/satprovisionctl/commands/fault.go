package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/cubesat-fc/satstate/nvbus"
)

var faultProfilePath string

var faultCmd = &cobra.Command{
	Use:   "fault",
	Short: "Validate a YAML fault-injection profile and describe each fault",
	Long: `fault decodes a YAML fault-injection profile and prints what each
configured fault does: the device it targets and whether it makes the
device dead, fails its status register, or flips bytes in an address range.
It does not run the profile against a bus. Useful for authoring scenario
files before handing them to a test run or another satprovisionctl
command's --fault-profile flag.`,
	RunE: runFault,
}

func init() {
	faultCmd.Flags().StringVar(&faultProfilePath, "profile", "", "path to the YAML fault-injection profile (required)")
	_ = faultCmd.MarkFlagRequired("profile")
}

func runFault(cmd *cobra.Command, args []string) error {
	data, err := os.ReadFile(faultProfilePath)
	if err != nil {
		return fmt.Errorf("satprovisionctl: read profile: %w", err)
	}
	faults, err := nvbus.DecodeFaultProfile(data)
	if err != nil {
		return err
	}

	cmd.Printf("%d fault(s) decoded from %s:\n", len(faults), faultProfilePath)
	for i, f := range faults {
		switch {
		case f.Dead:
			cmd.Printf("  [%d] device %v: dead (all reads/writes fail)\n", i, f.Device)
		case f.StatusError:
			cmd.Printf("  [%d] device %v: status register read fails\n", i, f.Device)
		default:
			cmd.Printf("  [%d] device %v: flip %d byte(s) at addr=%d width=%d\n", i, f.Device, len(f.FlipBits), f.Addr, f.Width)
		}
	}
	return nil
}
