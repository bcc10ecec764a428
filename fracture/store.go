package fracture

import (
	"context"
	"fmt"
	"math/bits"
	"strings"

	"github.com/notargets/PDKernel/element"
	"github.com/notargets/PDKernel/geometry"
	"github.com/notargets/PDKernel/partitions"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Store holds the broken/intact state of every bond, one bit per bond. Row i
// covers the neighbors of node i in neighbor list order: bond j lives in bit
// j%8 of byte j/8. Rows are sized once at construction.
//
// Node coordinates and neighbor lists are not retained; they are passed to
// every call that needs them. Writes to different rows may run concurrently,
// writes to the same row may not.
type Store struct {
	deck   *Deck
	rows   [][]uint8
	counts []int
	logger *zap.Logger
}

type Option func(*Store)

// WithLogger sets the logger used to report crack activation
func WithLogger(l *zap.Logger) Option {
	return func(s *Store) {
		if l != nil {
			s.logger = l
		}
	}
}

// NewStore allocates an all intact store with one row per neighbor list
func NewStore(deck *Deck, neighbors [][]int, opts ...Option) *Store {
	if deck == nil {
		deck = &Deck{}
	}
	s := &Store{
		deck:   deck,
		rows:   make([][]uint8, len(neighbors)),
		counts: make([]int, len(neighbors)),
		logger: zap.NewNop(),
	}
	for i, nl := range neighbors {
		s.counts[i] = len(nl)
		s.rows[i] = make([]uint8, (len(nl)+7)/8)
	}
	for _, o := range opts {
		o(s)
	}
	return s
}

// NewStoreForNodes is NewStore followed by the insertion of every crack
// already active at time zero
func NewStoreForNodes(deck *Deck, nodes []geometry.Point3, neighbors [][]int, opts ...Option) (*Store, error) {
	if len(nodes) != len(neighbors) {
		return nil, fmt.Errorf("%w: %d nodes but %d neighbor lists",
			element.ErrDimensionMismatch, len(nodes), len(neighbors))
	}
	s := NewStore(deck, neighbors, opts...)
	if _, err := s.AddCrack(0, nodes, neighbors); err != nil {
		return nil, err
	}
	return s, nil
}

func (s *Store) Deck() *Deck { return s.deck }

func (s *Store) NumNodes() int { return len(s.rows) }

// NumBonds returns the number of bonds of node i
func (s *Store) NumBonds(i int) (int, error) {
	if err := s.checkNode(i); err != nil {
		return 0, err
	}
	return s.counts[i], nil
}

func (s *Store) checkNode(i int) error {
	if i < 0 || i >= len(s.rows) {
		return fmt.Errorf("%w: node %d of %d", element.ErrIndexOutOfRange, i, len(s.rows))
	}
	return nil
}

func (s *Store) checkBond(i, j int) error {
	if err := s.checkNode(i); err != nil {
		return err
	}
	if j < 0 || j >= s.counts[i] {
		return fmt.Errorf("%w: bond %d of node %d with %d bonds",
			element.ErrIndexOutOfRange, j, i, s.counts[i])
	}
	return nil
}

// GetBondState reports whether the bond from node i to its j-th neighbor is
// broken
func (s *Store) GetBondState(i, j int) (bool, error) {
	if err := s.checkBond(i, j); err != nil {
		return false, err
	}
	return s.rows[i][j/8]&(1<<(j%8)) != 0, nil
}

// SetBondState sets the bond from node i to its j-th neighbor. Both
// transitions are allowed.
func (s *Store) SetBondState(i, j int, broken bool) error {
	if err := s.checkBond(i, j); err != nil {
		return err
	}
	s.setBit(i, j, broken)
	return nil
}

func (s *Store) setBit(i, j int, broken bool) {
	if broken {
		s.rows[i][j/8] |= 1 << (j % 8)
	} else {
		s.rows[i][j/8] &^= 1 << (j % 8)
	}
}

// GetBonds returns the state of every bond of node i, 1 for broken
func (s *Store) GetBonds(i int) ([]uint8, error) {
	if err := s.checkNode(i); err != nil {
		return nil, err
	}
	out := make([]uint8, s.counts[i])
	for j := range out {
		out[j] = (s.rows[i][j/8] >> (j % 8)) & 1
	}
	return out, nil
}

// PackedRow returns a copy of the packed bits of node i
func (s *Store) PackedRow(i int) ([]uint8, error) {
	if err := s.checkNode(i); err != nil {
		return nil, err
	}
	return append([]uint8(nil), s.rows[i]...), nil
}

func (s *Store) numBrokenRow(i int) int {
	n := 0
	for _, b := range s.rows[i] {
		n += bits.OnesCount8(b)
	}
	return n
}

// NumBroken counts broken bonds over all nodes
func (s *Store) NumBroken() int {
	n := 0
	for i := range s.rows {
		n += s.numBrokenRow(i)
	}
	return n
}

// Damage is the fraction of broken bonds of node i, zero for a node without
// bonds
func (s *Store) Damage(i int) (float64, error) {
	if err := s.checkNode(i); err != nil {
		return 0, err
	}
	if s.counts[i] == 0 {
		return 0, nil
	}
	return float64(s.numBrokenRow(i)) / float64(s.counts[i]), nil
}

// pending returns the cracks that activate at time, in deck order
func (s *Store) pending(time float64) (idx []int) {
	for k, c := range s.deck.Cracks {
		if c != nil && !c.Activated && time >= c.ActivationTime {
			idx = append(idx, k)
		}
	}
	return
}

// validate checks the borrowed geometry against the store layout before any
// bit is touched
func (s *Store) validate(nodes []geometry.Point3, neighbors [][]int) error {
	if len(nodes) != len(s.rows) || len(neighbors) != len(s.rows) {
		return fmt.Errorf("%w: store has %d nodes, got %d nodes and %d neighbor lists",
			element.ErrDimensionMismatch, len(s.rows), len(nodes), len(neighbors))
	}
	for i, nl := range neighbors {
		if len(nl) != s.counts[i] {
			return fmt.Errorf("%w: node %d has %d bonds, neighbor list has %d",
				element.ErrDimensionMismatch, i, s.counts[i], len(nl))
		}
		for _, k := range nl {
			if k < 0 || k >= len(nodes) {
				return fmt.Errorf("%w: neighbor %d of node %d, %d nodes",
					element.ErrIndexOutOfRange, k, i, len(nodes))
			}
		}
	}
	return nil
}

// breakRows marks every bond of the listed nodes that crosses c. Bits only go
// from intact to broken. Returns the number of newly broken bonds.
func (s *Store) breakRows(c *Crack, rows []int, nodes []geometry.Point3, neighbors [][]int) int {
	broken := 0
	for _, i := range rows {
		xi := nodes[i]
		reach := 0.
		for _, k := range neighbors[i] {
			if d := geometry.Dist(xi, nodes[k]); d > reach {
				reach = d
			}
		}
		if !c.mayCross(xi, reach) {
			continue
		}
		for j, k := range neighbors[i] {
			if !geometry.SegmentsIntersect(xi, nodes[k], c.Pb, c.Pt) {
				continue
			}
			if s.rows[i][j/8]&(1<<(j%8)) == 0 {
				s.setBit(i, j, true)
				broken++
			}
		}
	}
	return broken
}

// AddCrack applies every crack of the deck that is not yet active and whose
// activation time is at or before time, then marks it active. Returns true
// when at least one crack was applied by this call.
func (s *Store) AddCrack(time float64, nodes []geometry.Point3, neighbors [][]int) (bool, error) {
	if err := s.validate(nodes, neighbors); err != nil {
		return false, err
	}
	idx := s.pending(time)
	if len(idx) == 0 {
		return false, nil
	}
	all := make([]int, len(s.rows))
	for i := range all {
		all[i] = i
	}
	for _, k := range idx {
		c := s.deck.Cracks[k]
		c.Activated = true
		n := s.breakRows(c, all, nodes, neighbors)
		s.logger.Debug("crack activated",
			zap.Int("crack", k), zap.Float64("time", time), zap.Int("bonds_broken", n))
	}
	return true, nil
}

// AddCrackParallel has the result of AddCrack, splitting the rows over up to
// workers goroutines by strategy. Cracks are applied in deck order and each is
// marked active only after all of its rows are done. When ctx is cancelled
// the crack in progress stays pending and may be applied by a later call; the
// returned flag still reports whether an earlier crack of this call was
// activated.
func (s *Store) AddCrackParallel(ctx context.Context, time float64, nodes []geometry.Point3,
	neighbors [][]int, workers int, strategy partitions.Strategy) (bool, error) {
	if err := s.validate(nodes, neighbors); err != nil {
		return false, err
	}
	layout, err := partitions.Split(len(s.rows), workers, strategy)
	if err != nil {
		return false, err
	}
	activated := false
	for _, k := range s.pending(time) {
		c := s.deck.Cracks[k]
		counts := make([]int, layout.NumPartitions)
		g, gctx := errgroup.WithContext(ctx)
		for p, part := range layout.Partitions {
			g.Go(func() error {
				if err := gctx.Err(); err != nil {
					return err
				}
				counts[p] = s.breakRows(c, part.Items, nodes, neighbors)
				return nil
			})
		}
		if err = g.Wait(); err != nil {
			return activated, fmt.Errorf("crack %d: %w", k, err)
		}
		c.Activated = true
		activated = true
		n := 0
		for _, v := range counts {
			n += v
		}
		s.logger.Debug("crack activated",
			zap.Int("crack", k), zap.Float64("time", time), zap.Int("bonds_broken", n),
			zap.Int("partitions", layout.NumPartitions), zap.Stringer("strategy", strategy))
	}
	return activated, nil
}

func (s *Store) String() string { return s.PrintStr(0, 0) }

// PrintStr describes the store, prefixed by nt tabs. lvl > 0 adds the deck and
// lvl > 1 the bond rows.
func (s *Store) PrintStr(nt, lvl int) string {
	tabS := strings.Repeat("\t", nt)
	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%s------- Fracture --------\n\n", tabS))
	total := 0
	for _, c := range s.counts {
		total += c
	}
	sb.WriteString(fmt.Sprintf("%sNumber of nodes = %d\n", tabS, len(s.rows)))
	sb.WriteString(fmt.Sprintf("%sNumber of bonds = %d\n", tabS, total))
	sb.WriteString(fmt.Sprintf("%sBroken bonds = %d\n", tabS, s.NumBroken()))
	sb.WriteString(fmt.Sprintf("%sNumber of cracks = %d\n", tabS, len(s.deck.Cracks)))
	if lvl > 0 {
		sb.WriteString(s.deck.PrintStr(nt + 1))
	}
	if lvl > 1 {
		for i := range s.rows {
			b, _ := s.GetBonds(i)
			sb.WriteString(fmt.Sprintf("%s\tnode %d: %v\n", tabS, i, b))
		}
	}
	sb.WriteString(fmt.Sprintf("%s\n", tabS))
	return sb.String()
}
