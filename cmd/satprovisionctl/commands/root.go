// Package commands implements the satprovisionctl CLI commands.
package commands

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var cfgFile string

// BusConfig describes which NV bus transport a command should construct,
// layered flags > env > YAML file > defaults following the precedence
// dittofs's pkg/config establishes for this module's own config surface.
type BusConfig struct {
	Kind         string `mapstructure:"kind"`          // "sim" or "spidev"
	SimSize      int    `mapstructure:"sim_size"`      // bytes of backing storage per device, sim only
	SpidevA      string `mapstructure:"spidev_a"`      // e.g. /dev/spidev0.0, spidev only
	SpidevB      string `mapstructure:"spidev_b"`      // e.g. /dev/spidev0.1, spidev only
	FaultProfile string `mapstructure:"fault_profile"` // path to a YAML fault-injection profile, sim only
}

func defaultBusConfig() BusConfig {
	return BusConfig{Kind: "sim", SimSize: 200000}
}

var rootCmd = &cobra.Command{
	Use:   "satprovisionctl",
	Short: "Provision and inspect the satellite persistent state subsystem",
	Long: `satprovisionctl writes an initial blank persistent-state record,
inspects a cached record, injects faults into the simulated NV bus, and
serves a read-only ground-ops HTTP status surface. It is a ground-side
tool: not used in flight.`,
	SilenceUsage:  true,
	SilenceErrors: true,
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default: ./satprovisionctl.yaml)")
	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(inspectCmd)
	rootCmd.AddCommand(faultCmd)
	rootCmd.AddCommand(serveCmd)
}

// Execute runs the root command.
func Execute() error {
	return rootCmd.Execute()
}

// loadBusConfig layers flags (already bound into v by the caller) over
// environment variables, an optional YAML file, and defaults.
func loadBusConfig(v *viper.Viper) (BusConfig, error) {
	cfg := defaultBusConfig()

	v.SetEnvPrefix("SATPROVISIONCTL")
	v.AutomaticEnv()

	path := cfgFile
	if path == "" {
		path = "satprovisionctl.yaml"
	}
	v.SetConfigFile(path)
	v.SetConfigType("yaml")
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok && !os.IsNotExist(err) {
			return cfg, fmt.Errorf("satprovisionctl: read config %s: %w", path, err)
		}
	}

	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("satprovisionctl: decode config: %w", err)
	}
	if cfg.Kind == "" {
		cfg.Kind = "sim"
	}
	if cfg.SimSize == 0 {
		cfg.SimSize = 200000
	}
	return cfg, nil
}

func bindBusFlags(cmd *cobra.Command, v *viper.Viper) {
	cmd.Flags().String("kind", "", "bus transport kind: sim or spidev")
	cmd.Flags().Int("sim-size", 0, "simulated bus backing size in bytes")
	cmd.Flags().String("spidev-a", "", "spidev path for NV device A")
	cmd.Flags().String("spidev-b", "", "spidev path for NV device B")
	cmd.Flags().String("fault-profile", "", "YAML fault-injection profile for the simulated bus")

	_ = v.BindPFlag("kind", cmd.Flags().Lookup("kind"))
	_ = v.BindPFlag("sim_size", cmd.Flags().Lookup("sim-size"))
	_ = v.BindPFlag("spidev_a", cmd.Flags().Lookup("spidev-a"))
	_ = v.BindPFlag("spidev_b", cmd.Flags().Lookup("spidev-b"))
	_ = v.BindPFlag("fault_profile", cmd.Flags().Lookup("fault-profile"))
}
