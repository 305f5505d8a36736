package powmrpc

import (
	"fmt"
	"math/big"

	"github.com/google/uuid"

	"github.com/arvid220u/powm/network"
	"github.com/arvid220u/powm/powmerr"
)

// Client calls one PowmService. Errors returned by the remote service arrive
// as plain errors carrying the remote message.
type Client struct {
	cp     network.ConnectionProvider
	server string
}

// NewClient returns a client for the service at server, a provider address.
func NewClient(cp network.ConnectionProvider, server string) *Client {
	return &Client{cp: cp, server: server}
}

func (c *Client) call(method string, id uuid.UUID, args interface{}, reply interface{}, replyID *uuid.UUID) error {
	logf(dInfo, "client "+id.String(), "calling %s.%s on %s", ServiceName, method, c.server)
	if err := c.cp.Call(c.server, ServiceName, method, args, reply); err != nil {
		return fmt.Errorf("%s.%s: %w", ServiceName, method, err)
	}
	if *replyID != id {
		return fmt.Errorf("%s.%s: reply for request %s, sent %s", ServiceName, method, *replyID, id)
	}
	return nil
}

func toBytes(op string, ints []*big.Int) ([][]byte, error) {
	out := make([][]byte, len(ints))
	for i, v := range ints {
		if v == nil || v.Sign() < 0 {
			return nil, powmerr.Parameterf(op, "value %d must be non-negative", i)
		}
		out[i] = v.Bytes()
	}
	return out, nil
}

// Spowm computes the product of bases[i]^exponents[i] mod modulus remotely.
// Bases are reduced mod modulus before sending, so they may be negative.
func (c *Client) Spowm(bases, exponents []*big.Int, modulus *big.Int) (*big.Int, error) {
	if modulus == nil || modulus.Sign() <= 0 {
		return nil, powmerr.Parameterf("Spowm", "modulus must be positive")
	}
	reduced := make([]*big.Int, len(bases))
	for i, b := range bases {
		if b == nil {
			return nil, powmerr.Parameterf("Spowm", "base %d is nil", i)
		}
		reduced[i] = new(big.Int).Mod(b, modulus)
	}
	bs, _ := toBytes("Spowm", reduced)
	es, err := toBytes("Spowm", exponents)
	if err != nil {
		return nil, err
	}
	args := SpowmArgs{ID: uuid.New(), Bases: bs, Exponents: es, Modulus: modulus.Bytes()}
	var reply SpowmReply
	if err := c.call("Spowm", args.ID, args, &reply, &reply.ID); err != nil {
		return nil, err
	}
	return new(big.Int).SetBytes(reply.Result), nil
}

// Fpowm raises the server's cached base to every exponent.
func (c *Client) Fpowm(exponents []*big.Int) ([]*big.Int, error) {
	es, err := toBytes("Fpowm", exponents)
	if err != nil {
		return nil, err
	}
	args := FpowmArgs{ID: uuid.New(), Exponents: es}
	var reply FpowmReply
	if err := c.call("Fpowm", args.ID, args, &reply, &reply.ID); err != nil {
		return nil, err
	}
	if len(reply.Results) != len(exponents) {
		return nil, fmt.Errorf("%s.Fpowm: %d results for %d exponents", ServiceName, len(reply.Results), len(exponents))
	}
	return toInts(reply.Results), nil
}

// CacheInfo describes the server's fixed-base cache.
type CacheInfo struct {
	Initialized    bool
	Base, Modulus  *big.Int
	BlockWidth     int
	ExponentBitLen int
}

func (c *Client) CacheInfo() (*CacheInfo, error) {
	args := CacheInfoArgs{ID: uuid.New()}
	var reply CacheInfoReply
	if err := c.call("CacheInfo", args.ID, args, &reply, &reply.ID); err != nil {
		return nil, err
	}
	info := &CacheInfo{Initialized: reply.Initialized}
	if reply.Initialized {
		info.Base = new(big.Int).SetBytes(reply.Base)
		info.Modulus = new(big.Int).SetBytes(reply.Modulus)
		info.BlockWidth = reply.BlockWidth
		info.ExponentBitLen = reply.ExponentBitLen
	}
	return info, nil
}

// MillerRabin asks the server whether n is a probable prime, or a probable
// safe prime if safe is set.
func (c *Client) MillerRabin(n *big.Int, reps int, safe bool) (bool, error) {
	ns, err := toBytes("MillerRabin", []*big.Int{n})
	if err != nil {
		return false, err
	}
	args := PrimeArgs{ID: uuid.New(), N: ns[0], Reps: reps, Safe: safe}
	var reply PrimeReply
	if err := c.call("MillerRabin", args.ID, args, &reply, &reply.ID); err != nil {
		return false, err
	}
	return reply.Prime, nil
}
