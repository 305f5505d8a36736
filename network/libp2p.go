package network

import (
	"context"
	"fmt"
	"strings"

	"github.com/libp2p/go-libp2p"
	"github.com/libp2p/go-libp2p-core/host"
	"github.com/libp2p/go-libp2p-core/peer"
	"github.com/libp2p/go-libp2p-core/protocol"
	gorpc "github.com/libp2p/go-libp2p-gorpc"
	"github.com/multiformats/go-multiaddr"
)

// RPCProtocolID is the libp2p protocol the rpc server speaks.
const RPCProtocolID protocol.ID = "/p2p/rpc/powm"

// DefaultListenAddr listens on every interface on a random port.
const DefaultListenAddr = "/ip4/0.0.0.0/tcp/0"

// Libp2pConnectionProvider implements the ConnectionProvider interface using libp2p
type Libp2pConnectionProvider struct {
	Host   host.Host
	Client *gorpc.Client
	Server *gorpc.Server
}

func (cp *Libp2pConnectionProvider) Call(server string, svcName string, svcMeth string, args interface{}, reply interface{}) error {
	ma, err := multiaddr.NewMultiaddr(server)
	if err != nil {
		return fmt.Errorf("parsing server address %q: %w", server, err)
	}
	peerInfo, err := peer.AddrInfoFromP2pAddr(ma)
	if err != nil {
		return fmt.Errorf("parsing server address %q: %w", server, err)
	}

	// calls to ourselves are served locally by the client
	if peerInfo.ID != cp.Host.ID() {
		ctx := context.Background()
		if err := cp.Host.Connect(ctx, *peerInfo); err != nil {
			return fmt.Errorf("connecting to %s (%s.%s): %w", peerInfo.ID, svcName, svcMeth, err)
		}
	}

	return cp.Client.Call(peerInfo.ID, svcName, svcMeth, args, reply)
}

// Register exposes the exported methods of svc as an rpc service named after
// its type.
func (cp *Libp2pConnectionProvider) Register(svc interface{}) error {
	return cp.Server.Register(svc)
}

func createPeer(ctx context.Context, listenAddr string) (host.Host, error) {
	return libp2p.New(ctx, libp2p.ListenAddrStrings(listenAddr))
}

// NewLibp2p starts a libp2p host on listenAddr with an rpc server and a
// client attached to it.
func NewLibp2p(ctx context.Context, listenAddr string) (*Libp2pConnectionProvider, error) {
	h, err := createPeer(ctx, listenAddr)
	if err != nil {
		return nil, fmt.Errorf("creating libp2p host on %s: %w", listenAddr, err)
	}
	cp := &Libp2pConnectionProvider{Host: h}
	cp.Server = gorpc.NewServer(cp.Host, RPCProtocolID)
	cp.Client = gorpc.NewClientWithServer(cp.Host, RPCProtocolID, cp.Server)
	return cp, nil
}

// Me returns a p2p multiaddr other providers can Call. A non-loopback
// address is preferred.
func (cp *Libp2pConnectionProvider) Me() string {
	pi := peer.AddrInfo{
		ID:    cp.Host.ID(),
		Addrs: cp.Host.Addrs(),
	}
	addrs, err := peer.AddrInfoToP2pAddrs(&pi)
	if err != nil || len(addrs) == 0 {
		return ""
	}
	chosenAddr := addrs[0].String()
	for _, addr := range addrs {
		if !strings.Contains(addr.String(), "/127.0.0.1/") {
			chosenAddr = addr.String()
		}
	}
	return chosenAddr
}

// Close shuts down the host.
func (cp *Libp2pConnectionProvider) Close() error {
	return cp.Host.Close()
}
