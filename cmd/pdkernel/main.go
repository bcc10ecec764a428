package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/notargets/PDKernel/deck"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// app carries the state shared by the subcommands of one invocation
type app struct {
	verbose  bool
	deckPath string
	workers  int
	strategy string

	deck   *deck.Deck
	logger *zap.Logger
}

func newRootCmd() *cobra.Command {
	a := &app{}
	root := &cobra.Command{
		Use:   "pdkernel",
		Short: "Peridynamic quadrature and bond fracture kernel",
		Long: `pdkernel builds a uniform triangle or quadrangle grid from a YAML deck,
evaluates element quadrature data over it and inserts prescribed cracks into
the bit-packed bond fracture store.

Without --deck the built-in default deck is used.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			if a.logger != nil {
				_ = a.logger.Sync()
			}
		},
	}
	root.PersistentFlags().BoolVarP(&a.verbose, "verbose", "v", false, "Enable debug logging")
	root.PersistentFlags().StringVarP(&a.deckPath, "deck", "d", "", "Input deck (YAML)")
	root.PersistentFlags().IntVarP(&a.workers, "workers", "w", 0, "Worker goroutines (default: deck value)")
	root.PersistentFlags().StringVar(&a.strategy, "strategy", "", "Work split between workers: block or round-robin (default: deck value)")

	root.AddCommand(newQuadCmd(a))
	root.AddCommand(newCrackCmd(a))
	root.AddCommand(newDeckCmd(a))
	return root
}

// setup loads the deck and builds the logger from its level, --verbose
// forcing debug
func (a *app) setup(cmd *cobra.Command) error {
	var err error
	if a.deckPath == "" {
		a.deck, err = deck.Resolve(deck.Default())
	} else {
		a.deck, err = deck.Load(a.deckPath)
	}
	if err != nil {
		return err
	}
	flags := cmd.Flags()
	if flags.Changed("workers") || flags.Changed("strategy") {
		if flags.Changed("workers") {
			a.deck.Workers = a.workers
		}
		if flags.Changed("strategy") {
			a.deck.Strategy = a.strategy
		}
		if err = a.deck.Validate(); err != nil {
			return err
		}
	}

	config := zap.NewProductionConfig()
	level, err := a.deck.LogLevel()
	if err != nil {
		return err
	}
	if a.verbose {
		level = zapcore.DebugLevel
	}
	config.Level = zap.NewAtomicLevelAt(level)
	if a.logger, err = config.Build(); err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	return nil
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()
	if err := newRootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
