// Package powmrpc offloads modular exponentiations to a remote node over
// libp2p rpc. Integers travel as big-endian magnitude bytes, so only
// non-negative values can be sent.
package powmrpc

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"

	"github.com/davecgh/go-spew/spew"
	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/arvid220u/powm/fpowm"
	"github.com/arvid220u/powm/millerrabin"
	"github.com/arvid220u/powm/spowm"
)

// ServiceName is the rpc service name of PowmService.
const ServiceName = "PowmService"

// MaxReps bounds the Miller-Rabin rounds a caller may request.
const MaxReps = 256

type SpowmArgs struct {
	ID        uuid.UUID
	Bases     [][]byte
	Exponents [][]byte
	Modulus   []byte
}

type SpowmReply struct {
	ID     uuid.UUID
	Result []byte
}

// FpowmArgs asks for the cached base raised to each of Exponents.
type FpowmArgs struct {
	ID        uuid.UUID
	Exponents [][]byte
}

type FpowmReply struct {
	ID      uuid.UUID
	Results [][]byte
}

type CacheInfoArgs struct {
	ID uuid.UUID
}

type CacheInfoReply struct {
	ID             uuid.UUID
	Initialized    bool
	Base           []byte
	Modulus        []byte
	BlockWidth     int
	ExponentBitLen int
}

type PrimeArgs struct {
	ID   uuid.UUID
	N    []byte
	Reps int
	// Safe asks whether N is a safe prime.
	Safe bool
}

type PrimeReply struct {
	ID    uuid.UUID
	Prime bool
}

// PowmService serves exponentiations against a fixed-base cache. Batch
// Fpowm requests are spread over at most Workers goroutines.
type PowmService struct {
	cache   *fpowm.Cache
	workers int
	random  io.Reader
}

// NewService returns a service answering Fpowm from cache. workers below 1
// are treated as 1.
func NewService(cache *fpowm.Cache, workers int) *PowmService {
	if workers < 1 {
		workers = 1
	}
	return &PowmService{cache: cache, workers: workers, random: rand.Reader}
}

func (s *PowmService) logf(topic logTopic, id uuid.UUID, format string, a ...interface{}) {
	logf(topic, "powm "+id.String(), format, a...)
}

func toInts(bs [][]byte) []*big.Int {
	out := make([]*big.Int, len(bs))
	for i, b := range bs {
		out[i] = new(big.Int).SetBytes(b)
	}
	return out
}

func (s *PowmService) Spowm(ctx context.Context, args SpowmArgs, reply *SpowmReply) error {
	s.logf(dInfo, args.ID, "spowm with %d bases", len(args.Bases))
	res, err := spowm.Spowm(toInts(args.Bases), toInts(args.Exponents), new(big.Int).SetBytes(args.Modulus))
	if err != nil {
		s.logf(dWarning, args.ID, "spowm failed: %v", err)
		return err
	}
	reply.ID = args.ID
	reply.Result = res.Bytes()
	return nil
}

func (s *PowmService) Fpowm(ctx context.Context, args FpowmArgs, reply *FpowmReply) error {
	s.logf(dInfo, args.ID, "fpowm batch of %d", len(args.Exponents))
	if IsDump() {
		s.logf(dDump, args.ID, spew.Sdump(args))
	}
	results := make([][]byte, len(args.Exponents))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(s.workers)
	for i, b := range args.Exponents {
		i, e := i, new(big.Int).SetBytes(b)
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			r, err := s.cache.Fpowm(e)
			if err != nil {
				return fmt.Errorf("exponent %d: %w", i, err)
			}
			results[i] = r.Bytes()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		s.logf(dWarning, args.ID, "fpowm failed: %v", err)
		return err
	}
	reply.ID = args.ID
	reply.Results = results
	return nil
}

func (s *PowmService) CacheInfo(ctx context.Context, args CacheInfoArgs, reply *CacheInfoReply) error {
	reply.ID = args.ID
	base, modulus, ok := s.cache.BaseModulus()
	if !ok {
		return nil
	}
	reply.Initialized = true
	reply.Base = base.Bytes()
	reply.Modulus = modulus.Bytes()
	reply.BlockWidth, reply.ExponentBitLen, _ = s.cache.Geometry()
	if IsDump() {
		s.logf(dDump, args.ID, spew.Sdump(reply))
	}
	return nil
}

func (s *PowmService) MillerRabin(ctx context.Context, args PrimeArgs, reply *PrimeReply) error {
	if args.Reps > MaxReps {
		return fmt.Errorf("reps %d exceeds the limit of %d", args.Reps, MaxReps)
	}
	n := new(big.Int).SetBytes(args.N)
	s.logf(dInfo, args.ID, "miller-rabin on %d bits, safe=%v", n.BitLen(), args.Safe)
	test := millerrabin.MillerRabin
	if args.Safe {
		test = millerrabin.MillerRabinSafe
	}
	prime, err := test(s.random, n, args.Reps)
	if err != nil {
		s.logf(dError, args.ID, "miller-rabin failed: %v", err)
		return err
	}
	reply.ID = args.ID
	reply.Prime = prime
	return nil
}
