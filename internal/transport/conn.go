package transport

import "net"

// Conn is the connection type Select and its strategies hand back: a
// plain net.Conn, or a *tls.Conn wrapping one when TLS is configured.
type Conn = net.Conn
