//go:build linux

package commands

import (
	"fmt"

	"github.com/cubesat-fc/satstate/nvbus"
)

func buildSpidevBus(cfg BusConfig) (nvbus.Bus, func() error, error) {
	if cfg.SpidevA == "" || cfg.SpidevB == "" {
		return nil, nil, fmt.Errorf("satprovisionctl: spidev bus requires both spidev-a and spidev-b paths")
	}
	bus, err := nvbus.NewSpidevBus(cfg.SpidevA, cfg.SpidevB)
	if err != nil {
		return nil, nil, err
	}
	return bus, bus.Close, nil
}
