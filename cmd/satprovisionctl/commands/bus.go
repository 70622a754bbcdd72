package commands

import (
	"fmt"
	"os"
	"runtime"

	"github.com/cubesat-fc/satstate/nvbus"
)

// buildBus constructs the nvbus.Bus named by cfg.Kind. The returned closer
// is nil for the simulator and non-nil for a real spidev bus.
func buildBus(cfg BusConfig) (nvbus.Bus, func() error, error) {
	switch cfg.Kind {
	case "", "sim":
		bus := nvbus.NewSimBus(cfg.SimSize)
		if cfg.FaultProfile != "" {
			data, err := os.ReadFile(cfg.FaultProfile)
			if err != nil {
				return nil, nil, fmt.Errorf("satprovisionctl: read fault profile: %w", err)
			}
			faults, err := nvbus.DecodeFaultProfile(data)
			if err != nil {
				return nil, nil, err
			}
			bus.SetFaults(faults)
		}
		return bus, nil, nil

	case "spidev":
		if runtime.GOOS != "linux" {
			return nil, nil, fmt.Errorf("satprovisionctl: spidev bus requires linux, running on %s", runtime.GOOS)
		}
		return buildSpidevBus(cfg)

	default:
		return nil, nil, fmt.Errorf("satprovisionctl: unknown bus kind %q (want sim or spidev)", cfg.Kind)
	}
}
