// Package handshake performs the on-socket bootstrapping that
// precedes transparent UCI traffic: authentication and, on
// multiplexed servers, remote engine selection.
package handshake

import (
	"bufio"
	"fmt"
	"log"
	"net"
	"strings"

	"github.com/vidar808/droidfish-netengine/internal/endpoint"
)

// Result carries what the handshake produced for the caller to
// continue the session with.
type Result struct {
	// Reader is the buffered reader the handshake read from. Callers
	// must keep reading from it rather than wrapping the connection
	// again, or bytes already buffered ahead of the handshake's own
	// reads would be lost.
	Reader *bufio.Reader
	// InjectedLine is a line consumed during authentication that
	// turned out not to be part of the auth protocol at all (the
	// server skipped AUTH_REQUIRED and sent an ordinary UCI line
	// instead). HasInjectedLine reports whether it is present; when
	// true the caller must deliver InjectedLine to the engine-to-GUI
	// pipe before continuing to read the socket.
	InjectedLine    string
	HasInjectedLine bool
}

// Run executes the handshake over conn: authentication first, then
// engine selection if the descriptor names one. logger receives the
// same granularity of diagnostic lines the reference client writes to
// its connection log.
func Run(conn net.Conn, d endpoint.Descriptor, logger *log.Logger) (Result, error) {
	if logger == nil {
		logger = log.Default()
	}
	reader := bufio.NewReader(conn)

	injected, hasInjected, err := authenticate(conn, reader, d, logger)
	if err != nil {
		return Result{}, err
	}

	if err := negotiateEngine(conn, reader, d, logger); err != nil {
		return Result{}, err
	}

	return Result{Reader: reader, InjectedLine: injected, HasInjectedLine: hasInjected}, nil
}

// authenticate implements the AUTH_REQUIRED / AUTH / PSK_AUTH / AUTH_OK
// exchange. If the server's first line is not AUTH_REQUIRED, auth is
// skipped and that line is returned for re-injection into the
// engine-to-GUI stream, since it is ordinary UCI output the caller
// still needs to see.
func authenticate(conn net.Conn, reader *bufio.Reader, d endpoint.Descriptor, logger *log.Logger) (string, bool, error) {
	hasToken := d.AuthToken != ""
	hasPSK := d.PSKKey != ""

	if d.AuthMethod == endpoint.AuthNone || (!hasToken && !hasPSK) {
		logger.Printf("handshake: auth skipping (method=%s hasToken=%v hasPsk=%v)", d.AuthMethod, hasToken, hasPSK)
		return "", false, nil
	}

	logger.Printf("handshake: auth attempting (method=%s hasToken=%v hasPsk=%v)", d.AuthMethod, hasToken, hasPSK)

	line, err := reader.ReadString('\n')
	if err != nil && line == "" {
		return "", false, newError(FailureRemoteClosed, "connection closed before auth greeting")
	}
	trimmed := strings.TrimSpace(line)

	if !strings.HasPrefix(trimmed, "AUTH_REQUIRED") {
		return line, true, nil
	}

	var cmd string
	if d.AuthMethod == endpoint.AuthPSK && hasPSK {
		cmd = fmt.Sprintf("PSK_AUTH %s\n", d.PSKKey)
	} else if hasToken {
		cmd = fmt.Sprintf("AUTH %s\n", d.AuthToken)
	} else {
		return "", false, newError(FailureAuthFail, "server requires auth but no credentials configured")
	}

	if _, err := conn.Write([]byte(cmd)); err != nil {
		return "", false, newError(FailureRemoteClosed, err.Error())
	}

	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return "", false, newError(FailureRemoteClosed, "connection closed awaiting auth response")
	}
	if strings.TrimSpace(response) != "AUTH_OK" {
		logger.Printf("handshake: authentication failed: %s", strings.TrimSpace(response))
		return "", false, newError(FailureAuthFail, strings.TrimSpace(response))
	}

	logger.Printf("handshake: authentication succeeded (method: %s)", d.AuthMethod)
	return "", false, nil
}

// negotiateEngine performs ENGINE_LIST / SELECT_ENGINE negotiation
// when the descriptor names a specific remote engine. It is a no-op
// (legacy per-port mode) when SelectedEngine is empty.
func negotiateEngine(conn net.Conn, reader *bufio.Reader, d endpoint.Descriptor, logger *log.Logger) error {
	if d.SelectedEngine == "" {
		logger.Printf("handshake: engine negotiation skipping (no selected engine)")
		return nil
	}
	logger.Printf("handshake: engine negotiation requesting %q", d.SelectedEngine)

	if _, err := conn.Write([]byte("ENGINE_LIST\n")); err != nil {
		return newError(FailureRemoteClosed, err.Error())
	}

	var available []string
	for {
		line, err := reader.ReadString('\n')
		trimmed := strings.TrimSpace(line)
		if trimmed == "ENGINES_END" {
			break
		}
		if strings.HasPrefix(trimmed, "ENGINE ") {
			available = append(available, strings.TrimPrefix(trimmed, "ENGINE "))
		}
		if err != nil {
			break
		}
	}

	if len(available) == 0 {
		logger.Printf("handshake: engine negotiation server returned no engines")
		return newError(FailureEngineUnavailable, fmt.Sprintf("engine %q not available: server returned no engines", d.SelectedEngine))
	}

	found := false
	for _, name := range available {
		if name == d.SelectedEngine {
			found = true
			break
		}
	}
	if !found {
		logger.Printf("handshake: engine %q not in server list: %v", d.SelectedEngine, available)
		return newError(FailureEngineUnavailable, fmt.Sprintf("engine %q not in server list", d.SelectedEngine))
	}

	if _, err := conn.Write([]byte(fmt.Sprintf("SELECT_ENGINE %s\n", d.SelectedEngine))); err != nil {
		return newError(FailureRemoteClosed, err.Error())
	}

	response, err := reader.ReadString('\n')
	if err != nil && response == "" {
		return newError(FailureRemoteClosed, "connection closed awaiting engine selection response")
	}
	trimmedResp := strings.TrimSpace(response)
	if trimmedResp != "ENGINE_SELECTED" {
		logger.Printf("handshake: engine selection failed: %s", trimmedResp)
		return newError(FailureEngineUnavailable, fmt.Sprintf("engine selection failed: %s", trimmedResp))
	}

	logger.Printf("handshake: engine selected: %s", d.SelectedEngine)
	return nil
}
