package main

import (
	"fmt"
	"math"
	"time"

	"github.com/notargets/PDKernel/deck"
	"github.com/notargets/PDKernel/fracture"
	"github.com/notargets/PDKernel/geometry"
	"github.com/notargets/PDKernel/integration"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

func newQuadCmd(a *app) *cobra.Command {
	var showRule bool
	cmd := &cobra.Command{
		Use:   "quad",
		Short: "Evaluate quadrature data over the deck mesh",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.deck.BuildMesh()
			if err != nil {
				return err
			}
			ev, err := integration.NewEvaluator(m.Family, a.deck.Quadrature.Order)
			if err != nil {
				return err
			}
			strategy, err := a.deck.PartitionStrategy()
			if err != nil {
				return err
			}
			start := time.Now()
			qd, err := ev.MeshQuadDatas(cmd.Context(), m, a.deck.Workers, strategy)
			if err != nil {
				return err
			}
			a.logger.Info("quadrature evaluated",
				zap.Int("elements", m.NumElements()),
				zap.Int("workers", a.deck.Workers),
				zap.Stringer("strategy", strategy),
				zap.Duration("elapsed", time.Since(start)))

			area, points := 0., 0
			for _, elem := range qd {
				for _, d := range elem {
					area += d.Weight
				}
				points += len(elem)
			}
			out := cmd.OutOrStdout()
			fmt.Fprint(out, m.String())
			if showRule {
				fmt.Fprint(out, ev.Rule().String())
			}
			fmt.Fprintf(out, "Quadrature: %s order %d, %d points per element\n",
				m.Family, ev.Rule().Order, ev.Rule().Len())
			fmt.Fprintf(out, "Total points: %d\n", points)
			fmt.Fprintf(out, "Total area: %.12g (domain %.12g)\n", area, a.deck.Mesh.Lx*a.deck.Mesh.Ly)
			return nil
		},
	}
	cmd.Flags().BoolVar(&showRule, "rule", false, "Print the reference quadrature rule")
	return cmd
}

func newCrackCmd(a *app) *cobra.Command {
	var (
		t     float64
		level int
	)
	cmd := &cobra.Command{
		Use:   "crack",
		Short: "Insert the deck cracks active at --time and report broken bonds",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			m, err := a.deck.BuildMesh()
			if err != nil {
				return err
			}
			neighbors, err := geometry.NeighborList(m.Nodes, a.deck.Horizon)
			if err != nil {
				return err
			}
			fd, err := a.deck.FractureDeck()
			if err != nil {
				return err
			}
			strategy, err := a.deck.PartitionStrategy()
			if err != nil {
				return err
			}
			store := fracture.NewStore(fd, neighbors, fracture.WithLogger(a.logger))
			applied, err := store.AddCrackParallel(cmd.Context(), t, m.Nodes, neighbors, a.deck.Workers, strategy)
			if err != nil {
				return err
			}

			maxDamage, damaged := 0., 0
			for i := 0; i < store.NumNodes(); i++ {
				d, err := store.Damage(i)
				if err != nil {
					return err
				}
				if d > 0 {
					damaged++
				}
				maxDamage = math.Max(maxDamage, d)
			}
			active := 0
			for _, c := range fd.Cracks {
				if c.Activated {
					active++
				}
			}

			out := cmd.OutOrStdout()
			fmt.Fprint(out, store.PrintStr(0, level))
			fmt.Fprintf(out, "Cracks applied at t = %g: %t (%d of %d active)\n", t, applied, active, len(fd.Cracks))
			fmt.Fprintf(out, "Damaged nodes: %d of %d\n", damaged, store.NumNodes())
			fmt.Fprintf(out, "Max damage: %.6f\n", maxDamage)
			return nil
		},
	}
	cmd.Flags().Float64Var(&t, "time", 0, "Simulation time")
	cmd.Flags().IntVar(&level, "print-level", 0, "Detail of the fracture summary (0-2)")
	return cmd
}

func newDeckCmd(a *app) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "deck",
		Short: "Input deck utilities",
	}
	cmd.AddCommand(&cobra.Command{
		Use:   "init [path]",
		Short: "Write the default deck",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := deck.Default().Save(args[0]); err != nil {
				return err
			}
			a.logger.Info("deck written", zap.String("path", args[0]))
			return nil
		},
	})
	cmd.AddCommand(&cobra.Command{
		Use:   "check",
		Short: "Validate the deck and print it as resolved",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			fd, err := a.deck.FractureDeck()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Quadrature: %s order %d\n", a.deck.Quadrature.Family, a.deck.Quadrature.Order)
			fmt.Fprintf(out, "Horizon: %g\n", a.deck.Horizon)
			fmt.Fprintf(out, "Workers: %d (%s)\n", a.deck.Workers, a.deck.Strategy)
			fmt.Fprint(out, fd.PrintStr(0))
			return nil
		},
	})
	return cmd
}
