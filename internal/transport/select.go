// Package transport implements the multi-strategy connection selector
// that locates and dials a remote UCI engine host: mDNS discovery,
// direct LAN, UPnP-mapped external address, relay rendezvous, and a
// backoff retry loop as the last resort.
package transport

import (
	"context"
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/vidar808/droidfish-netengine/internal/constants"
	"github.com/vidar808/droidfish-netengine/internal/endpoint"
)

// Select opens a connection to d using the full strategy cascade,
// returning the first one that succeeds. logger receives progress and
// failure diagnostics at the granularity the reference client logs to
// its own connection log; pass log.New(io.Discard, "", 0) to silence it.
func Select(ctx context.Context, d endpoint.Descriptor, logger *log.Logger) (Conn, error) {
	if logger == nil {
		logger = log.Default()
	}
	if !d.Configured() {
		return nil, newError("config", FailureConfig, fmt.Errorf("no host/port configured"))
	}

	hasMDNS := d.HasMDNS()
	hasExternal := d.HasExternal()
	hasRelay := d.HasRelay()

	logger.Printf("transport: strategy config host=%s:%d external=%s relay=%s:%d mdns=%s",
		d.Host, d.Port, d.ExternalHost, d.RelayHost, d.RelayPort, d.MDNSServiceName)

	if !hasMDNS && !hasExternal && !hasRelay {
		return connectWithRetry(ctx, d, logger)
	}

	var failures []string

	if hasMDNS {
		if conn, err := tryMDNS(ctx, d, logger); err == nil {
			return conn, nil
		} else {
			failures = append(failures, err.Error())
		}
	}

	logger.Printf("transport: trying LAN %s:%d", d.Host, d.Port)
	if conn, err := dialMaybeTLS(ctx, d, d.Host, d.Port, constants.LANConnectTimeout); err == nil {
		return conn, nil
	} else {
		logger.Printf("transport: LAN failed: %v", err)
		failures = append(failures, fmt.Sprintf("LAN(%s:%d): %v", d.Host, d.Port, err))
	}

	if hasExternal {
		logger.Printf("transport: trying UPnP %s:%d", d.ExternalHost, d.Port)
		if conn, err := dialMaybeTLS(ctx, d, d.ExternalHost, d.Port, constants.UPnPConnectTimeout); err == nil {
			return conn, nil
		} else {
			logger.Printf("transport: UPnP failed: %v", err)
			failures = append(failures, fmt.Sprintf("UPnP(%s): %v", d.ExternalHost, err))
		}
	}

	if hasRelay {
		logger.Printf("transport: trying relay %s:%d", d.RelayHost, d.RelayPort)
		if conn, err := dialRelay(ctx, d.RelayHost, d.RelayPort, d.RelaySessionID); err == nil {
			return conn, nil
		} else {
			logger.Printf("transport: relay failed: %v", err)
			failures = append(failures, fmt.Sprintf("Relay(%s:%d): %v", d.RelayHost, d.RelayPort, err))
		}
	}

	// A configured relay that also failed means retrying the primary
	// host again is a waste of time; report the aggregated failure.
	if hasRelay {
		return nil, newError("strategy", FailureRefused, fmt.Errorf("all connection strategies failed:\n  - %s", strings.Join(failures, "\n  - ")))
	}

	logger.Printf("transport: all fast paths failed, falling back to retry")
	return connectWithRetry(ctx, d, logger)
}

func tryMDNS(ctx context.Context, d endpoint.Descriptor, logger *log.Logger) (Conn, error) {
	result, ok := resolveMDNS(d.MDNSServiceName, constants.MDNSResolveTimeout)
	if !ok {
		logger.Printf("transport: mDNS resolution timed out")
		return nil, fmt.Errorf("mDNS: timeout")
	}
	logger.Printf("transport: mDNS resolved %s to %s:%d", d.MDNSServiceName, result.Host, result.Port)
	conn, err := dialMaybeTLS(ctx, d, result.Host, result.Port, constants.MDNSConnectTimeout)
	if err != nil {
		logger.Printf("transport: mDNS-resolved host failed: %v", err)
		return nil, fmt.Errorf("mDNS(%s): %w", result.Host, err)
	}
	return conn, nil
}

func dialMaybeTLS(ctx context.Context, d endpoint.Descriptor, host string, port int, timeout time.Duration) (Conn, error) {
	if d.UseTLS {
		return dialTLS(ctx, host, port, timeout, d.CertFingerprint)
	}
	return dialPlain(ctx, host, port, timeout)
}

// connectWithRetry dials the primary host with exponential backoff,
// doubling from 1s up to a 30s cap across 5 attempts.
func connectWithRetry(ctx context.Context, d endpoint.Descriptor, logger *log.Logger) (Conn, error) {
	backoff := constants.RetryInitialBackoff
	var lastErr error

	for attempt := 1; attempt <= constants.RetryMaxAttempts; attempt++ {
		select {
		case <-ctx.Done():
			return nil, newError("retry", FailureShutdown, ctx.Err())
		default:
		}

		logger.Printf("transport: connection attempt %d/%d to %s:%d", attempt, constants.RetryMaxAttempts, d.Host, d.Port)
		conn, err := dialMaybeTLS(ctx, d, d.Host, d.Port, constants.RetryPerAttemptTimeout)
		if err == nil {
			return conn, nil
		}
		lastErr = err
		logger.Printf("transport: connection attempt %d failed: %v", attempt, err)

		if attempt < constants.RetryMaxAttempts {
			timer := time.NewTimer(backoff)
			select {
			case <-timer.C:
			case <-ctx.Done():
				timer.Stop()
				return nil, newError("retry", FailureShutdown, ctx.Err())
			}
			backoff *= 2
			if backoff > constants.RetryMaxBackoff {
				backoff = constants.RetryMaxBackoff
			}
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("failed to connect after %d attempts", constants.RetryMaxAttempts)
	}
	return nil, lastErr
}
