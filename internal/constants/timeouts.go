// Package constants centralizes the duration and size vocabulary used
// across the transport, handshake, and pipe layers so timing tuning
// happens in one place.
package constants

import "time"

// Shared duration vocabulary.
const (
	Duration40Milliseconds  = 40 * time.Millisecond
	Duration50Milliseconds  = 50 * time.Millisecond
	Duration1500Milliseconds = 1500 * time.Millisecond
	Duration1Second   = 1 * time.Second
	Duration2Seconds  = 2 * time.Second
	Duration5Seconds  = 5 * time.Second
	Duration10Seconds = 10 * time.Second
	Duration15Seconds = 15 * time.Second
	Duration30Seconds = 30 * time.Second
)

// Domain-level timeout constants, one per connection strategy and
// handshake phase.
const (
	MDNSResolveTimeout  = Duration1500Milliseconds
	MDNSConnectTimeout  = Duration2Seconds
	LANConnectTimeout   = Duration2Seconds
	UPnPConnectTimeout  = Duration5Seconds
	RelayConnectTimeout = Duration10Seconds
	RelaySocketIOTimeout = Duration15Seconds

	RetryInitialBackoff = Duration1Second
	RetryMaxBackoff     = Duration30Seconds
	RetryMaxAttempts    = 5
	RetryPerAttemptTimeout = Duration15Seconds

	StartupWatchdogTimeout = Duration10Seconds
)
