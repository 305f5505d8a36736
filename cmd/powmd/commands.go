package main

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"
	"strings"

	"gopkg.in/urfave/cli.v1"

	"github.com/arvid220u/powm/fpowm"
	"github.com/arvid220u/powm/millerrabin"
	"github.com/arvid220u/powm/network"
	"github.com/arvid220u/powm/powmrpc"
	"github.com/arvid220u/powm/spowm"
)

var (
	serverFlag = cli.StringFlag{
		Name:  "server",
		Usage: "p2p multiaddr of a powmd node to compute on, instead of locally",
	}
	modulusFlag = cli.StringFlag{
		Name:  "modulus",
		Usage: "modulus (hex)",
	}
	baseFlag = cli.StringFlag{
		Name:  "base",
		Usage: "fixed base (hex)",
	}
	blockWidthFlag = cli.Uint64Flag{
		Name:  "block-width",
		Usage: "exponent bits per table window",
		Value: 8,
	}
	exponentBitLenFlag = cli.Uint64Flag{
		Name:  "exponent-bitlen",
		Usage: "largest exponent bit length the table accepts",
		Value: 3072,
	}
	safeFlag = cli.BoolFlag{
		Name:  "safe",
		Usage: "test for safe primes",
	}
	bitsFlag = cli.IntFlag{
		Name:  "bits",
		Usage: "bit length of the generated prime",
		Value: 1024,
	}

	spowmCommand = cli.Command{
		Action:    runSpowm,
		Name:      "spowm",
		Usage:     "Compute a product of modular powers",
		ArgsUsage: "<base:exponent> [<base:exponent>...]",
		Flags:     []cli.Flag{modulusFlag, serverFlag},
		Description: `All values are hex. Prints the product of base^exponent over all
arguments, reduced by the modulus.`,
	}
	fpowmCommand = cli.Command{
		Action:    runFpowm,
		Name:      "fpowm",
		Usage:     "Raise a fixed base to many exponents",
		ArgsUsage: "<exponent> [<exponent>...]",
		Flags:     []cli.Flag{baseFlag, modulusFlag, blockWidthFlag, exponentBitLenFlag, serverFlag},
		Description: `All values are hex. Builds one table for the base and prints
base^exponent mod modulus per argument. With --server the cached base of the
remote node is used and --base and --modulus are ignored.`,
	}
	primeCommand = cli.Command{
		Action:    runPrime,
		Name:      "prime",
		Usage:     "Test numbers for primality",
		ArgsUsage: "<n> [<n>...]",
		Flags:     []cli.Flag{safeFlag, serverFlag},
	}
	safePrimeCommand = cli.Command{
		Action: runSafePrime,
		Name:   "safeprime",
		Usage:  "Generate a random safe prime",
		Flags:  []cli.Flag{bitsFlag},
	}
)

// remoteClient connects to the node named by --server, if any.
func remoteClient(ctx *cli.Context) (*powmrpc.Client, func(), error) {
	server := ctx.String(serverFlag.Name)
	if server == "" {
		return nil, nil, nil
	}
	cp, err := network.NewLibp2p(context.Background(), "/ip4/0.0.0.0/tcp/0")
	if err != nil {
		return nil, nil, err
	}
	return powmrpc.NewClient(cp, server), func() { cp.Close() }, nil
}

func hexFlag(ctx *cli.Context, flag cli.StringFlag) (*big.Int, error) {
	v := ctx.String(flag.Name)
	if v == "" {
		return nil, fmt.Errorf("--%s is required", flag.Name)
	}
	return parseHex(v)
}

// parsePair parses a "base:exponent" argument.
func parsePair(arg string) (*big.Int, *big.Int, error) {
	parts := strings.Split(arg, ":")
	if len(parts) != 2 {
		return nil, nil, fmt.Errorf("argument %q is not base:exponent", arg)
	}
	b, err := parseHex(parts[0])
	if err != nil {
		return nil, nil, err
	}
	e, err := parseHex(parts[1])
	if err != nil {
		return nil, nil, err
	}
	return b, e, nil
}

func runSpowm(ctx *cli.Context) error {
	modulus, err := hexFlag(ctx, modulusFlag)
	if err != nil {
		return err
	}
	var bases, exponents []*big.Int
	for _, arg := range ctx.Args() {
		b, e, err := parsePair(arg)
		if err != nil {
			return err
		}
		bases = append(bases, b)
		exponents = append(exponents, e)
	}

	client, done, err := remoteClient(ctx)
	if err != nil {
		return err
	}
	var res *big.Int
	if client != nil {
		defer done()
		res, err = client.Spowm(bases, exponents, modulus)
	} else {
		res, err = spowm.Spowm(bases, exponents, modulus)
	}
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%x\n", res)
	return nil
}

func runFpowm(ctx *cli.Context) error {
	var exponents []*big.Int
	for _, arg := range ctx.Args() {
		e, err := parseHex(arg)
		if err != nil {
			return err
		}
		exponents = append(exponents, e)
	}

	client, done, err := remoteClient(ctx)
	if err != nil {
		return err
	}
	var results []*big.Int
	if client != nil {
		defer done()
		if results, err = client.Fpowm(exponents); err != nil {
			return err
		}
	} else {
		base, err := hexFlag(ctx, baseFlag)
		if err != nil {
			return err
		}
		modulus, err := hexFlag(ctx, modulusFlag)
		if err != nil {
			return err
		}
		table, err := fpowm.InitPrecomp(base, modulus, ctx.Uint64(blockWidthFlag.Name), ctx.Uint64(exponentBitLenFlag.Name))
		if err != nil {
			return err
		}
		for _, e := range exponents {
			r, err := table.Fpowm(e)
			if err != nil {
				return err
			}
			results = append(results, r)
		}
	}
	for _, r := range results {
		fmt.Fprintf(ctx.App.Writer, "%x\n", r)
	}
	return nil
}

func runPrime(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	safe := ctx.Bool(safeFlag.Name)
	client, done, err := remoteClient(ctx)
	if err != nil {
		return err
	}
	if client != nil {
		defer done()
	}
	for _, arg := range ctx.Args() {
		n, err := parseHex(arg)
		if err != nil {
			return err
		}
		var prime bool
		switch {
		case client != nil:
			prime, err = client.MillerRabin(n, cfg.Prime.Reps, safe)
		case safe:
			prime, err = millerrabin.MillerRabinSafe(rand.Reader, n, cfg.Prime.Reps)
		default:
			prime, err = millerrabin.MillerRabin(rand.Reader, n, cfg.Prime.Reps)
		}
		if err != nil {
			return err
		}
		verdict := "composite"
		if prime {
			verdict = "prime"
		}
		fmt.Fprintf(ctx.App.Writer, "%s %s\n", arg, verdict)
	}
	return nil
}

func runSafePrime(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	p, err := millerrabin.GenerateSafePrime(rand.Reader, ctx.Int(bitsFlag.Name), cfg.Prime.Reps)
	if err != nil {
		return err
	}
	fmt.Fprintf(ctx.App.Writer, "%x\n", p)
	return nil
}
