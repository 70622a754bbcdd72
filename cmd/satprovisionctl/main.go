// Command satprovisionctl is the provisioning and ground-ops inspection
// utility for the persistent state subsystem: it writes an initial blank
// record to a satellite's NV devices and verifies the write, inspects a
// live or simulated cache, loads fault-injection profiles against the
// simulator, and serves the read-only HTTP status surface. Not used in
// flight, matching spec section 6's "not used in flight" CLI contract.
package main

import (
	"os"

	"github.com/cubesat-fc/satstate/cmd/satprovisionctl/commands"
)

func main() {
	if err := commands.Execute(); err != nil {
		os.Exit(1)
	}
}
