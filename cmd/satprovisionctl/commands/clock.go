package commands

import "time"

var processStart = time.Now()

// nowMillisSinceProcessStart is the Config.NowMillis implementation used by
// every subcommand: a monotonic millisecond counter since the process
// started, standing in for the scheduler tick counter spec section 4.6
// builds the timebase on.
func nowMillisSinceProcessStart() uint64 {
	return uint64(time.Since(processStart).Milliseconds())
}
