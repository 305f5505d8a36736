package network

/* ConnectionProvider is the abstraction over the networking used by clients of
the exponentiation service. Servers are identified by their address string (a
p2p multiaddr for libp2p). A provider can also serve: services registered with
it answer calls from other providers, and from itself. */
type ConnectionProvider interface {
	Call(server string, svcName string, svcMeth string, args interface{}, reply interface{}) error
	Register(svc interface{}) error
	Me() string
}
