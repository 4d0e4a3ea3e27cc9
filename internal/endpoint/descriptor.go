// Package endpoint models a network engine's connection descriptor
// and its on-disk NETE serialization.
package endpoint

// AuthMethod identifies how a session authenticates to the remote
// server, mirroring the three methods the handshake understands.
type AuthMethod string

const (
	AuthNone  AuthMethod = "none"
	AuthToken AuthMethod = "token"
	AuthPSK   AuthMethod = "psk"
)

// Descriptor holds everything needed to locate, secure, and select an
// engine on a remote host. Zero values describe an unconfigured
// endpoint: Host empty, Port zero.
type Descriptor struct {
	Host string
	Port int

	UseTLS          bool
	AuthMethod      AuthMethod
	AuthToken       string
	PSKKey          string
	CertFingerprint string // lowercase colon-hex SHA-256; empty disables pinning

	RelayHost      string
	RelayPort      int
	RelaySessionID string

	ExternalHost    string // UPnP-mapped external address, if any
	MDNSServiceName string

	SelectedEngine string // empty means "use the server's default"

	NetworkID string // opaque network identity for drift detection; never sent to the server
}

// HasRelay reports whether a relay fallback endpoint is configured.
// All three of host, port, and session ID must be present; a relay
// with no session ID has nothing to send in its SESSION line.
func (d Descriptor) HasRelay() bool {
	return d.RelayHost != "" && d.RelayPort > 0 && d.RelaySessionID != ""
}

// HasExternal reports whether an external/UPnP address distinct from
// Host is configured.
func (d Descriptor) HasExternal() bool {
	return d.ExternalHost != "" && d.ExternalHost != d.Host
}

// HasMDNS reports whether mDNS discovery is configured.
func (d Descriptor) HasMDNS() bool {
	return d.MDNSServiceName != ""
}

// Configured reports whether the descriptor names a primary endpoint
// at all, mirroring the check that gates every connection attempt.
func (d Descriptor) Configured() bool {
	return d.Host != "" && d.Port > 0
}
