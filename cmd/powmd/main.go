// powmd serves modular exponentiations over libp2p and runs the
// exponentiation and primality primitives from the command line.
package main

import (
	"context"
	"fmt"
	"log"
	"os"
	"os/signal"
	"syscall"

	"gopkg.in/urfave/cli.v1"

	"github.com/arvid220u/powm/fpowm"
	"github.com/arvid220u/powm/network"
	"github.com/arvid220u/powm/powmrpc"
)

var serveCommand = cli.Command{
	Action: serve,
	Name:   "serve",
	Usage:  "Serve the exponentiation service until interrupted",
	Description: `The serve command initializes the process-wide fixed-base cache from
the [Cache] config section, if set, and serves PowmService over libp2p.`,
}

func newApp() *cli.App {
	app := cli.NewApp()
	app.Name = "powmd"
	app.Usage = "modular exponentiation node and tools"
	app.Flags = []cli.Flag{
		configFileFlag,
		listenAddrFlag,
		workersFlag,
		repsFlag,
	}
	app.Commands = []cli.Command{
		serveCommand,
		spowmCommand,
		fpowmCommand,
		primeCommand,
		safePrimeCommand,
		dumpConfigCommand,
	}
	return app
}

func main() {
	if err := newApp().Run(os.Args); err != nil {
		log.Fatal(err)
	}
}

func serve(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	base, modulus, ok, err := cfg.Cache.baseModulus()
	if err != nil {
		return err
	}
	if ok {
		if _, err := fpowm.CacheInitPrecomp(base, modulus, cfg.Cache.BlockWidth, cfg.Cache.ExponentBitLen); err != nil {
			return fmt.Errorf("initializing cache: %w", err)
		}
		log.Printf("fixed-base cache ready: %d-bit modulus, block width %d, exponents up to %d bits",
			modulus.BitLen(), cfg.Cache.BlockWidth, cfg.Cache.ExponentBitLen)
	}

	cp, err := network.NewLibp2p(context.Background(), cfg.Node.ListenAddr)
	if err != nil {
		return err
	}
	defer cp.Close()
	if err := cp.Register(powmrpc.NewService(fpowm.ProcessCache(), cfg.Node.Workers)); err != nil {
		return err
	}
	log.Printf("serving %s on %s", powmrpc.ServiceName, cp.Me())
	fmt.Fprintln(ctx.App.Writer, cp.Me())

	c := make(chan os.Signal, 1)
	signal.Notify(c, syscall.SIGINT, syscall.SIGTERM)
	<-c
	log.Printf("shutting down")
	return nil
}
