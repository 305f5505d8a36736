package network

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type EchoArgs struct {
	Msg string
}

type EchoReply struct {
	Msg  string
	From string
}

type EchoService struct {
	me string
}

func (s *EchoService) Echo(ctx context.Context, args EchoArgs, reply *EchoReply) error {
	if args.Msg == "" {
		return errors.New("empty message")
	}
	reply.Msg = args.Msg
	reply.From = s.me
	return nil
}

func newLoopback(t *testing.T) *Libp2pConnectionProvider {
	cp, err := NewLibp2p(context.Background(), "/ip4/127.0.0.1/tcp/0")
	require.NoError(t, err)
	t.Cleanup(func() { cp.Close() })
	return cp
}

func TestLibp2pCall(t *testing.T) {
	server := newLoopback(t)
	client := newLoopback(t)
	require.NotEmpty(t, server.Me())
	require.NoError(t, server.Register(&EchoService{me: server.Me()}))

	var reply EchoReply
	err := client.Call(server.Me(), "EchoService", "Echo", EchoArgs{Msg: "squid"}, &reply)
	require.NoError(t, err)
	require.Equal(t, "squid", reply.Msg)
	require.Equal(t, server.Me(), reply.From)

	err = client.Call(server.Me(), "EchoService", "Echo", EchoArgs{}, &reply)
	require.Error(t, err)
	require.Contains(t, err.Error(), "empty message")
}

func TestLibp2pCallSelf(t *testing.T) {
	cp := newLoopback(t)
	require.NoError(t, cp.Register(&EchoService{me: "self"}))
	var reply EchoReply
	require.NoError(t, cp.Call(cp.Me(), "EchoService", "Echo", EchoArgs{Msg: "hi"}, &reply))
	require.Equal(t, "self", reply.From)
}

func TestLibp2pBadAddress(t *testing.T) {
	cp := newLoopback(t)
	var reply EchoReply
	require.Error(t, cp.Call("not a multiaddr", "EchoService", "Echo", EchoArgs{Msg: "x"}, &reply))
	require.Error(t, cp.Call("/ip4/127.0.0.1/tcp/1", "EchoService", "Echo", EchoArgs{Msg: "x"}, &reply))
}
