package transport

import (
	"context"
	"fmt"
	"net"
	"strings"
	"time"

	"github.com/vidar808/droidfish-netengine/internal/constants"
)

// dialRelay opens a plain TCP connection to a relay server, sends the
// rendezvous SESSION command, and waits for CONNECTED. Relay
// connections are always plain TCP, and Select returns the relayed
// connection as is: it is not wrapped in TLS even when the descriptor
// enables TLS.
//
// The response is read byte-by-byte rather than through a buffered
// reader: a buffered reader would read ahead past the newline and
// swallow bytes belonging to the server's own greeting once the
// caller starts reading UCI traffic from the same connection.
func dialRelay(ctx context.Context, relayHost string, relayPort int, sessionID string) (net.Conn, error) {
	conn, err := dialPlain(ctx, relayHost, relayPort, constants.RelayConnectTimeout)
	if err != nil {
		return nil, newError("relay", classifyDialErr(err), err)
	}

	cmd := fmt.Sprintf("SESSION %s client\n", sessionID)
	if _, err := conn.Write([]byte(cmd)); err != nil {
		conn.Close()
		return nil, newError("relay", FailureRelay, err)
	}

	conn.SetReadDeadline(time.Now().Add(constants.RelaySocketIOTimeout))
	response, err := readRelayLine(conn)
	conn.SetReadDeadline(time.Time{})
	if err != nil {
		conn.Close()
		return nil, newError("relay", FailureRelay, err)
	}

	switch {
	case response == "CONNECTED":
		return conn, nil
	case strings.HasPrefix(response, "ERROR"):
		conn.Close()
		return nil, newError("relay", FailureRelay, fmt.Errorf("relay error: %s", response))
	default:
		conn.Close()
		return nil, newError("relay", FailureRelay, fmt.Errorf("unexpected relay response: %q", response))
	}
}

func readRelayLine(conn net.Conn) (string, error) {
	var sb strings.Builder
	buf := make([]byte, 1)
	for {
		n, err := conn.Read(buf)
		if n > 0 {
			b := buf[0]
			if b == '\n' {
				break
			}
			if b != '\r' {
				sb.WriteByte(b)
			}
		}
		if err != nil {
			if sb.Len() == 0 {
				return "", fmt.Errorf("relay closed connection: %w", err)
			}
			break
		}
	}
	return strings.TrimSpace(sb.String()), nil
}
