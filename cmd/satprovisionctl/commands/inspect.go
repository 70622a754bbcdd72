package commands

import (
	"fmt"
	"os"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/cubesat-fc/satstate"
)

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Load and print the cached persistent state as a table",
}

func init() {
	v := viper.New()
	bindBusFlags(inspectCmd, v)
	inspectCmd.RunE = func(cmd *cobra.Command, args []string) error {
		cfg, err := loadBusConfig(v)
		if err != nil {
			return err
		}
		return runInspect(cmd, cfg)
	}
}

func runInspect(cmd *cobra.Command, cfg BusConfig) error {
	bus, closer, err := buildBus(cfg)
	if err != nil {
		return err
	}
	if closer != nil {
		defer closer()
	}

	coord := satstate.New(satstate.Config{Bus: bus, NowMillis: nowMillisSinceProcessStart})
	coord.Init()
	coord.Load()

	s := coord.State()
	table := tablewriter.NewWriter(os.Stdout)
	table.SetHeader([]string{"Field", "Value"})
	table.SetAutoWrapText(false)
	table.SetHeaderAlignment(tablewriter.ALIGN_LEFT)
	table.SetAlignment(tablewriter.ALIGN_LEFT)
	table.SetBorder(false)

	table.Append([]string{"secs_since_launch", fmt.Sprint(s.SecsSinceLaunch)})
	table.Append([]string{"reboot_count", fmt.Sprint(s.RebootCount)})
	table.Append([]string{"sat_state", s.SatState.String()})
	table.Append([]string{"antenna_deployed", fmt.Sprint(s.EventHistory.AntennaDeployed)})
	table.Append([]string{"lion_1_charged", fmt.Sprint(s.EventHistory.Lion1Charged)})
	table.Append([]string{"lion_2_charged", fmt.Sprint(s.EventHistory.Lion2Charged)})
	table.Append([]string{"lifepo_b1_charged", fmt.Sprint(s.EventHistory.LifepoB1Charged)})
	table.Append([]string{"lifepo_b2_charged", fmt.Sprint(s.EventHistory.LifepoB2Charged)})
	table.Append([]string{"first_flash", fmt.Sprint(s.EventHistory.FirstFlash)})
	table.Append([]string{"prog_mem_rewritten", fmt.Sprint(s.ProgMemRewritten)})
	table.Append([]string{"radio_revive_timestamp", fmt.Sprint(s.RadioReviveTimestamp)})
	table.Append([]string{"li_caused_reboot", fmt.Sprint(s.ChargingData.LiCausedReboot)})
	table.Append([]string{"orbits_since_launch", fmt.Sprint(coord.OrbitsSinceLaunch())})
	table.Render()

	return nil
}
