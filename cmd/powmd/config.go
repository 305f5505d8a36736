package main

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"math/big"
	"os"
	"reflect"
	"strings"
	"unicode"

	"github.com/naoina/toml"
	"gopkg.in/urfave/cli.v1"

	"github.com/arvid220u/powm/network"
)

var (
	dumpConfigCommand = cli.Command{
		Action:      dumpConfig,
		Name:        "dumpconfig",
		Usage:       "Show configuration values",
		ArgsUsage:   "",
		Description: `The dumpconfig command shows the effective configuration as TOML.`,
	}

	configFileFlag = cli.StringFlag{
		Name:  "config",
		Usage: "TOML configuration file",
	}
	listenAddrFlag = cli.StringFlag{
		Name:  "listen",
		Usage: "libp2p listen multiaddr",
	}
	workersFlag = cli.IntFlag{
		Name:  "workers",
		Usage: "goroutines per batch fpowm request",
	}
	repsFlag = cli.IntFlag{
		Name:  "reps",
		Usage: "Miller-Rabin rounds",
	}
)

// These settings ensure that TOML keys use the same names as Go struct fields.
var tomlSettings = toml.Config{
	NormFieldName: func(rt reflect.Type, key string) string {
		return key
	},
	FieldToKey: func(rt reflect.Type, field string) string {
		return field
	},
	MissingField: func(rt reflect.Type, field string) error {
		link := ""
		if unicode.IsUpper(rune(rt.Name()[0])) && rt.PkgPath() != "main" {
			link = fmt.Sprintf(", see https://godoc.org/%s#%s for available fields", rt.PkgPath(), rt.Name())
		}
		return fmt.Errorf("field '%s' is not defined in %s%s", field, rt.String(), link)
	},
}

type nodeConfig struct {
	ListenAddr string
	Workers    int
}

// cacheConfig describes the fixed-base table served by the node. The cache
// stays empty unless both Base and Modulus are set.
type cacheConfig struct {
	Base           string `toml:",omitempty"` // hex
	Modulus        string `toml:",omitempty"` // hex
	BlockWidth     uint64
	ExponentBitLen uint64
}

type primeConfig struct {
	Reps int
}

type powmdConfig struct {
	Node  nodeConfig
	Cache cacheConfig
	Prime primeConfig
}

var defaultConfig = powmdConfig{
	Node: nodeConfig{
		ListenAddr: network.DefaultListenAddr,
		Workers:    4,
	},
	Cache: cacheConfig{
		BlockWidth:     8,
		ExponentBitLen: 3072,
	},
	Prime: primeConfig{
		Reps: 16,
	},
}

func loadConfig(file string, cfg *powmdConfig) error {
	f, err := os.Open(file)
	if err != nil {
		return err
	}
	defer f.Close()

	err = tomlSettings.NewDecoder(bufio.NewReader(f)).Decode(cfg)
	// Add file name to errors that have a line number.
	if _, ok := err.(*toml.LineError); ok {
		err = errors.New(file + ", " + err.Error())
	}
	return err
}

// makeConfig applies defaults, then the config file, then flags.
func makeConfig(ctx *cli.Context) (powmdConfig, error) {
	cfg := defaultConfig
	if file := ctx.GlobalString(configFileFlag.Name); file != "" {
		if err := loadConfig(file, &cfg); err != nil {
			return cfg, err
		}
	}
	if ctx.GlobalIsSet(listenAddrFlag.Name) {
		cfg.Node.ListenAddr = ctx.GlobalString(listenAddrFlag.Name)
	}
	if ctx.GlobalIsSet(workersFlag.Name) {
		cfg.Node.Workers = ctx.GlobalInt(workersFlag.Name)
	}
	if ctx.GlobalIsSet(repsFlag.Name) {
		cfg.Prime.Reps = ctx.GlobalInt(repsFlag.Name)
	}
	return cfg, nil
}

func dumpConfig(ctx *cli.Context) error {
	cfg, err := makeConfig(ctx)
	if err != nil {
		return err
	}
	return writeConfig(ctx.App.Writer, &cfg)
}

// parseHex parses a non-negative hex integer, with or without 0x.
func parseHex(s string) (*big.Int, error) {
	t := strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	n, ok := new(big.Int).SetString(t, 16)
	if !ok || n.Sign() < 0 {
		return nil, fmt.Errorf("invalid hex integer %q", s)
	}
	return n, nil
}

// baseModulus returns the configured cache base and modulus, or ok == false
// when the cache is not configured.
func (c cacheConfig) baseModulus() (base, modulus *big.Int, ok bool, err error) {
	if c.Base == "" && c.Modulus == "" {
		return nil, nil, false, nil
	}
	if c.Base == "" || c.Modulus == "" {
		return nil, nil, false, errors.New("cache config needs both Base and Modulus")
	}
	if base, err = parseHex(c.Base); err != nil {
		return nil, nil, false, err
	}
	if modulus, err = parseHex(c.Modulus); err != nil {
		return nil, nil, false, err
	}
	return base, modulus, true, nil
}

func writeConfig(w io.Writer, cfg *powmdConfig) error {
	out, err := tomlSettings.Marshal(cfg)
	if err != nil {
		return err
	}
	_, err = w.Write(out)
	return err
}
