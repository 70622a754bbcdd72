//go:build !linux

package commands

import (
	"fmt"

	"github.com/cubesat-fc/satstate/nvbus"
)

func buildSpidevBus(cfg BusConfig) (nvbus.Bus, func() error, error) {
	return nil, nil, fmt.Errorf("satprovisionctl: spidev bus is only available on linux")
}
