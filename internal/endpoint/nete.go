package endpoint

import (
	"fmt"
	"strconv"
	"strings"
)

// ParseNETE decodes the 14-line NETE descriptor format:
//
//	line 0:  "NETE" marker
//	line 1:  host
//	line 2:  port
//	line 3:  "tls" or "notls" (default notls)
//	line 4:  auth token (default empty)
//	line 5:  cert fingerprint (default empty, disables pinning)
//	line 6:  auth method: none/token/psk (default token)
//	line 7:  PSK key (default empty)
//	line 8:  relay host (default empty)
//	line 9:  relay port (default 0)
//	line 10: relay session ID (default empty)
//	line 11: external/UPnP host (default empty)
//	line 12: mDNS service name (default empty)
//	line 13: selected remote engine (default empty)
//
// Trailing lines are optional; a short file falls back to defaults
// for everything it omits. This mirrors the tolerant reader it is
// grounded on: a malformed port on line 2 halts parsing of the
// remaining lines (they keep their defaults) but is not itself a hard
// error, since a partial descriptor is still usable for diagnostics.
func ParseNETE(text string) (Descriptor, error) {
	lines := strings.Split(strings.ReplaceAll(text, "\r\n", "\n"), "\n")
	if len(lines) == 0 || strings.TrimSpace(lines[0]) != "NETE" {
		return Descriptor{}, fmt.Errorf("endpoint: missing NETE marker line")
	}

	d := Descriptor{AuthMethod: AuthToken}

	if len(lines) >= 3 {
		d.Host = strings.TrimSpace(lines[1])
		port, err := strconv.Atoi(strings.TrimSpace(lines[2]))
		if err != nil {
			return d, nil
		}
		d.Port = port
	}
	if len(lines) >= 4 {
		d.UseTLS = strings.EqualFold(strings.TrimSpace(lines[3]), "tls")
	}
	if len(lines) >= 5 {
		d.AuthToken = strings.TrimSpace(lines[4])
	}
	if len(lines) >= 6 {
		d.CertFingerprint = strings.TrimSpace(lines[5])
	}
	if len(lines) >= 7 {
		method := strings.TrimSpace(lines[6])
		if method == "" {
			method = string(AuthToken)
		}
		d.AuthMethod = AuthMethod(method)
	}
	if len(lines) >= 8 {
		d.PSKKey = strings.TrimSpace(lines[7])
	}
	if len(lines) >= 9 {
		d.RelayHost = strings.TrimSpace(lines[8])
	}
	if len(lines) >= 10 {
		if p, err := strconv.Atoi(strings.TrimSpace(lines[9])); err == nil {
			d.RelayPort = p
		}
	}
	if len(lines) >= 11 {
		d.RelaySessionID = strings.TrimSpace(lines[10])
	}
	if len(lines) >= 12 {
		d.ExternalHost = strings.TrimSpace(lines[11])
	}
	if len(lines) >= 13 {
		d.MDNSServiceName = strings.TrimSpace(lines[12])
	}
	if len(lines) >= 14 {
		d.SelectedEngine = strings.TrimSpace(lines[13])
	}

	return d, nil
}

// WriteNETE encodes d in the same 14-line format ParseNETE reads,
// always emitting every line so the result round-trips.
func WriteNETE(d Descriptor) string {
	tls := "notls"
	if d.UseTLS {
		tls = "tls"
	}
	lines := []string{
		"NETE",
		d.Host,
		strconv.Itoa(d.Port),
		tls,
		d.AuthToken,
		d.CertFingerprint,
		string(d.AuthMethod),
		d.PSKKey,
		d.RelayHost,
		strconv.Itoa(d.RelayPort),
		d.RelaySessionID,
		d.ExternalHost,
		d.MDNSServiceName,
		d.SelectedEngine,
	}
	return strings.Join(lines, "\n")
}
