package partitions

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildPartitions(t *testing.T) {
	tests := []struct {
		name     string
		items    int
		target   int
		strategy Strategy
		wantP    int
		wantMax  int
	}{
		{"EvenBlock", 12, 4, BlockPartition, 3, 4},
		{"UnevenBlock", 10, 4, BlockPartition, 3, 4},
		{"SinglePartition", 5, 10, BlockPartition, 1, 5},
		{"RoundRobin", 10, 3, RoundRobin, 4, 3},
		{"Empty", 0, 3, BlockPartition, 1, 0},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			pb := &Builder{NumItems: tt.items, TargetPartitionSize: tt.target, Strategy: tt.strategy}
			layout, err := pb.BuildPartitions()
			require.NoError(t, err)
			assert.Equal(t, tt.wantP, layout.NumPartitions)
			assert.Equal(t, tt.wantMax, layout.KpartMax)
			assert.Equal(t, tt.items, layout.TotalItems)
			assert.NoError(t, layout.ValidateLayout())
		})
	}
}

func TestBlockPartitionsAreContiguous(t *testing.T) {
	layout, err := Split(23, 4, BlockPartition)
	require.NoError(t, err)
	next := 0
	for _, p := range layout.Partitions {
		for _, k := range p.Items {
			assert.Equal(t, next, k)
			next++
		}
	}
	assert.Equal(t, 23, next)
}

func TestRoundRobinAssignment(t *testing.T) {
	layout, err := Split(9, 3, RoundRobin)
	require.NoError(t, err)
	assert.Equal(t, []int{0, 3, 6}, layout.Partitions[0].Items)
	assert.Equal(t, []int{2, 5, 8}, layout.Partitions[2].Items)
	for k := 0; k < 9; k++ {
		assert.Equal(t, k%3, layout.GetPartition(k))
	}
}

func TestSplitWorkers(t *testing.T) {
	for _, workers := range []int{1, 2, 3, 7, 50} {
		t.Run(fmt.Sprintf("workers=%d", workers), func(t *testing.T) {
			layout, err := Split(20, workers, BlockPartition)
			require.NoError(t, err)
			assert.LessOrEqual(t, layout.NumPartitions, workers)
			assert.NoError(t, layout.ValidateLayout())
		})
	}

	_, err := Split(10, 0, BlockPartition)
	assert.Error(t, err)
	_, err = (&Builder{NumItems: -1, TargetPartitionSize: 1}).BuildPartitions()
	assert.Error(t, err)
}

func TestGetPartitionOutOfRange(t *testing.T) {
	layout, err := Split(4, 2, BlockPartition)
	require.NoError(t, err)
	assert.Equal(t, -1, layout.GetPartition(-1))
	assert.Equal(t, -1, layout.GetPartition(4))
}

func TestValidateLayoutDetectsCorruption(t *testing.T) {
	layout, err := Split(6, 2, BlockPartition)
	require.NoError(t, err)
	layout.IToP[0] = 1
	assert.Error(t, layout.ValidateLayout())

	layout, err = Split(6, 2, BlockPartition)
	require.NoError(t, err)
	layout.Partitions[1].Items[0] = 0
	assert.Error(t, layout.ValidateLayout())
}

func TestStrategyString(t *testing.T) {
	assert.Equal(t, "block", BlockPartition.String())
	assert.Equal(t, "round-robin", RoundRobin.String())
	assert.Equal(t, "Strategy(7)", Strategy(7).String())
}

func TestParseStrategy(t *testing.T) {
	for name, want := range map[string]Strategy{
		"": BlockPartition, "block": BlockPartition,
		"round-robin": RoundRobin, " RR ": RoundRobin,
	} {
		got, err := ParseStrategy(name)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseStrategy("metis")
	assert.Error(t, err)
}
