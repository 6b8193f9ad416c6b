// Command mitmfind drives the vOW search engine from the command
// line: pick a demo problem (a synthetic keyed mixing function, or
// the Speck64/128 double-encryption scenario), pick sequential or
// distributed execution, and report the golden pair it finds.
//
// One subcommand per search mode, a --ram-style auto-sized resource
// flag, and viper-backed config file overrides on top of a cobra CLI.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/sirupsen/logrus"
	"github.com/spf13/afero"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/kargakis/vowmitm/pkg/config"
	"github.com/kargakis/vowmitm/pkg/distributed"
	"github.com/kargakis/vowmitm/pkg/engine"
	"github.com/kargakis/vowmitm/pkg/journal"
	"github.com/kargakis/vowmitm/pkg/naive"
	"github.com/kargakis/vowmitm/pkg/problem"
	"github.com/kargakis/vowmitm/pkg/speck"
	"github.com/kargakis/vowmitm/pkg/sysinfo"
	"github.com/kargakis/vowmitm/pkg/telemetry"
)

var (
	cfgFile  string
	logLevel string
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:   "mitmfind",
		Short: "Parallel distinguished-point collision and claw search",
	}
	root.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (YAML), overrides flag defaults")
	root.PersistentFlags().StringVar(&logLevel, "log-level", "info", "logrus level: debug, info, warn, error")

	root.AddCommand(newCollideCmd())
	root.AddCommand(newClawCmd())
	root.AddCommand(newNaiveCmd())
	root.AddCommand(newSpeckCmd())
	return root
}

func initViper() error {
	if cfgFile == "" {
		return nil
	}
	viper.SetConfigFile(cfgFile)
	return viper.ReadInConfig()
}

func newLogger() (*telemetry.Logger, error) {
	level, err := logrus.ParseLevel(logLevel)
	if err != nil {
		return nil, fmt.Errorf("invalid --log-level %q: %w", logLevel, err)
	}
	return telemetry.New(level), nil
}

// syntheticFunc stands in for a real black-box problem function in
// the demo subcommands: a finalizer-style integer mixer keyed by
// seed and a per-branch salt, using the MurmurHash3 fmix64 finalizer
// constants.
func syntheticFunc(seed, salt uint64) problem.Func {
	return func(x uint64) uint64 {
		h := x ^ seed ^ salt
		h *= 0xff51afd7ed558ccd
		h ^= h >> 33
		h *= 0xc4ceb9fe1a85ec53
		h ^= h >> 33
		return h
	}
}

// contextWithSignals returns a context cancelled on SIGINT/SIGTERM,
// the graceful-shutdown hook around the long-running search loop.
func contextWithSignals() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

func resolveRAM(flag string) (uint64, error) {
	if flag == "" || flag == "0" {
		return 0, nil
	}
	return sysinfo.ParseSize(flag)
}

// loadConfigOverrides applies a --config YAML file's values on top of
// the flag defaults for n/m/theta/seed/maxVersions, letting a saved
// run configuration stand in for a long list of flags.
func loadConfigOverrides(n, m, theta *uint8, seed, maxVersions *uint64) error {
	if cfgFile == "" {
		return nil
	}
	run, err := config.Load(afero.NewOsFs(), cfgFile)
	if err != nil {
		return err
	}
	*n = run.N
	if run.M != 0 {
		*m = run.M
	}
	if run.Theta != 0 {
		*theta = run.Theta
	}
	if run.Seed != 0 {
		*seed = run.Seed
	}
	if run.MaxVersions != 0 {
		*maxVersions = run.MaxVersions
	}
	return nil
}

func buildParameters(theta uint8, ram string, maxVersions uint64, seed uint64) (engine.Parameters, error) {
	var capacity uint64
	if bytes, err := resolveRAM(ram); err != nil {
		return engine.Parameters{}, err
	} else if bytes > 0 {
		capacity = bytes / 16 // pkg/dict's slot size; good enough for a CLI-level estimate
	}
	return engine.Parameters{
		Theta:        theta,
		DictCapacity: capacity,
		MaxVersions:  maxVersions,
		Seed:         seed,
	}, nil
}

func newCollideCmd() *cobra.Command {
	var (
		n           uint8
		theta       uint8
		ram         string
		maxVersions uint64
		seed        uint64
		distMode    bool
		receivers   int
		senders     int
		out         string
	)

	cmd := &cobra.Command{
		Use:   "collide",
		Short: "Search for a collision f(x0) = f(x1) of a synthetic keyed function",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initViper(); err != nil {
				return err
			}
			var unusedM uint8
			if err := loadConfigOverrides(&n, &unusedM, &theta, &seed, &maxVersions); err != nil {
				return err
			}
			log, err := newLogger()
			if err != nil {
				return err
			}

			f := syntheticFunc(seed, 0)
			params, err := buildParameters(theta, ram, maxVersions, seed)
			if err != nil {
				return err
			}

			ctx, cancel := contextWithSignals()
			defer cancel()

			log.WorkerStarted(0, "collide")

			var res *engine.Result
			if distMode {
				p := &problem.Problem{N: n, M: n, F: f, IsGoodPair: func(a, b uint64) bool { return true }}
				res, err = distributed.Run(ctx, p, distributed.Topology{NumReceivers: receivers, NumSenders: senders}, params)
			} else {
				res, err = engine.CollisionSearch(ctx, f, n, func(a, b uint64) bool { return true }, params)
			}
			if err != nil {
				return err
			}

			log.GoldenFound(res.X0, res.X1, res.Stats)
			return writeResultIfRequested(out, res)
		},
	}

	cmd.Flags().Uint8Var(&n, "n", 32, "domain/range width in bits")
	cmd.Flags().Uint8Var(&theta, "theta", 0, "distinguishing-point density (0 = auto)")
	cmd.Flags().StringVar(&ram, "ram", "", "memory budget for the dictionary (e.g. 512M, 0 = auto-detect)")
	cmd.Flags().Uint64Var(&maxVersions, "max-versions", 0, "epoch budget before giving up (0 = unbounded)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "PRNG seed")
	cmd.Flags().BoolVar(&distMode, "distributed", false, "run the channel-based distributed engine instead of the sequential one")
	cmd.Flags().IntVar(&receivers, "recv-per-node", 4, "number of receiver goroutines (distributed mode)")
	cmd.Flags().IntVar(&senders, "senders", 4, "number of sender goroutines (distributed mode)")
	cmd.Flags().StringVar(&out, "out", "", "path to write the result as JSON (empty = don't write)")
	return cmd
}

func newClawCmd() *cobra.Command {
	var (
		n, m        uint8
		theta       uint8
		ram         string
		maxVersions uint64
		seed        uint64
		distMode    bool
		receivers   int
		senders     int
		out         string
	)

	cmd := &cobra.Command{
		Use:   "claw",
		Short: "Search for a claw f(x0) = g(x1) of two synthetic keyed functions",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := initViper(); err != nil {
				return err
			}
			if err := loadConfigOverrides(&n, &m, &theta, &seed, &maxVersions); err != nil {
				return err
			}
			log, err := newLogger()
			if err != nil {
				return err
			}

			f := syntheticFunc(seed, 0)
			g := syntheticFunc(seed, 1)
			params, err := buildParameters(theta, ram, maxVersions, seed)
			if err != nil {
				return err
			}

			ctx, cancel := contextWithSignals()
			defer cancel()
			log.WorkerStarted(0, "claw")

			var res *engine.Result
			if distMode {
				p := &problem.Problem{N: n, M: m, F: f, G: g, IsGoodPair: func(a, b uint64) bool { return true }}
				res, err = distributed.Run(ctx, p, distributed.Topology{NumReceivers: receivers, NumSenders: senders}, params)
			} else {
				res, err = engine.ClawSearch(ctx, f, g, n, m, func(a, b uint64) bool { return true }, params)
			}
			if err != nil {
				return err
			}

			log.GoldenFound(res.X0, res.X1, res.Stats)
			return writeResultIfRequested(out, res)
		},
	}

	cmd.Flags().Uint8Var(&n, "n", 24, "domain width in bits")
	cmd.Flags().Uint8Var(&m, "m", 32, "range width in bits (must be >= n)")
	cmd.Flags().Uint8Var(&theta, "theta", 0, "distinguishing-point density (0 = auto)")
	cmd.Flags().StringVar(&ram, "ram", "", "memory budget for the dictionary (e.g. 512M, 0 = auto-detect)")
	cmd.Flags().Uint64Var(&maxVersions, "max-versions", 0, "epoch budget before giving up (0 = unbounded)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "PRNG seed")
	cmd.Flags().BoolVar(&distMode, "distributed", false, "run the channel-based distributed engine instead of the sequential one")
	cmd.Flags().IntVar(&receivers, "recv-per-node", 4, "number of receiver goroutines (distributed mode)")
	cmd.Flags().IntVar(&senders, "senders", 4, "number of sender goroutines (distributed mode)")
	cmd.Flags().StringVar(&out, "out", "", "path to write the result as JSON (empty = don't write)")
	return cmd
}

func newNaiveCmd() *cobra.Command {
	var (
		n, m   uint8
		isClaw bool
		seed   uint64
	)

	cmd := &cobra.Command{
		Use:   "naive",
		Short: "Brute-force the same synthetic problem, as a verification oracle",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}

			p := &problem.Problem{N: n, M: n, F: syntheticFunc(seed, 0), IsGoodPair: func(a, b uint64) bool { return true }}
			if isClaw {
				p.M = m
				p.G = syntheticFunc(seed, 1)
			}

			res, err := naive.Search(p)
			if err != nil {
				return err
			}
			if !res.Found {
				log.Info("no golden pair found by full enumeration")
				return nil
			}
			log.WithField("x0", res.X0).WithField("x1", res.X1).Info("golden pair found")
			return nil
		},
	}

	cmd.Flags().Uint8Var(&n, "n", 16, "domain width in bits")
	cmd.Flags().Uint8Var(&m, "m", 16, "range width in bits (claw mode only)")
	cmd.Flags().BoolVar(&isClaw, "claw", false, "search for a claw instead of a collision")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "function keying seed")
	return cmd
}

func newSpeckCmd() *cobra.Command {
	var (
		keyBits     uint8
		plaintext   uint64
		plaintext2  uint64
		key1, key2  uint64
		theta       uint8
		maxVersions uint64
		seed        uint64
		out         string
	)

	cmd := &cobra.Command{
		Use:   "speck",
		Short: "Recover a planted double-encryption key pair via claw search",
		RunE: func(cmd *cobra.Command, args []string) error {
			log, err := newLogger()
			if err != nil {
				return err
			}

			demo := speck.DoubleEncryptionProblem{Plaintext: plaintext, Plaintext2: plaintext2, KeyBits: keyBits}

			mid, err := encryptDemoKey(key1, keyBits, plaintext)
			if err != nil {
				return err
			}
			demo.Ciphertext, err = encryptDemoKey(key2, keyBits, mid)
			if err != nil {
				return err
			}

			mid2, err := encryptDemoKey(key1, keyBits, plaintext2)
			if err != nil {
				return err
			}
			demo.Ciphertext2, err = encryptDemoKey(key2, keyBits, mid2)
			if err != nil {
				return err
			}

			params := engine.Parameters{Theta: theta, MaxVersions: maxVersions, Seed: seed}
			ctx, cancel := contextWithSignals()
			defer cancel()

			res, err := engine.Search(ctx, demo.Problem(), params)
			if err != nil {
				return err
			}

			log.GoldenFound(res.X0, res.X1, res.Stats)
			return writeResultIfRequested(out, res)
		},
	}

	cmd.Flags().Uint8Var(&keyBits, "key-bits", 16, "width of each half-key in bits")
	cmd.Flags().Uint64Var(&plaintext, "plaintext", 0x0011223344556677, "known plaintext block")
	cmd.Flags().Uint64Var(&plaintext2, "plaintext2", 0x8877665544332211, "second known plaintext block, used to confirm a candidate key pair")
	cmd.Flags().Uint64Var(&key1, "plant-key1", 0x0ab, "first planted subkey, for generating the demo ciphertexts")
	cmd.Flags().Uint64Var(&key2, "plant-key2", 0x153, "second planted subkey, for generating the demo ciphertexts")
	cmd.Flags().Uint8Var(&theta, "theta", 0, "distinguishing-point density (0 = auto)")
	cmd.Flags().Uint64Var(&maxVersions, "max-versions", 0, "epoch budget before giving up (0 = unbounded)")
	cmd.Flags().Uint64Var(&seed, "seed", 1, "PRNG seed")
	cmd.Flags().StringVar(&out, "out", "", "path to write the result as JSON (empty = don't write)")
	return cmd
}

func encryptDemoKey(k uint64, keyBits uint8, block uint64) (uint64, error) {
	p := speck.DoubleEncryptionProblem{Plaintext: block, KeyBits: keyBits}
	prob := p.Problem()
	return prob.F(k), nil
}

func writeResultIfRequested(out string, res *engine.Result) error {
	if out == "" {
		return nil
	}
	j := journal.New(afero.NewOsFs())
	return j.RecordResult(out, res)
}
