package partitions

import (
	"fmt"
	"math"
	"strings"
)

// Builder constructs partitions over the index range [0, NumItems)
type Builder struct {
	NumItems int

	// Partitioning parameters
	TargetPartitionSize int // Desired items per partition
	Strategy            Strategy
}

// Strategy defines how items are grouped
type Strategy int

const (
	BlockPartition Strategy = iota // Consecutive items
	RoundRobin                     // Distribute cyclically
)

func (s Strategy) String() string {
	switch s {
	case BlockPartition:
		return "block"
	case RoundRobin:
		return "round-robin"
	}
	return fmt.Sprintf("Strategy(%d)", int(s))
}

// ParseStrategy accepts the names printed by Strategy.String. An empty name
// is BlockPartition.
func ParseStrategy(name string) (Strategy, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "block":
		return BlockPartition, nil
	case "round-robin", "roundrobin", "rr":
		return RoundRobin, nil
	}
	return 0, fmt.Errorf("partitions: unknown strategy %q (block, round-robin)", name)
}

// Split partitions numItems items for the given number of workers. A
// non-positive worker count is an error; more workers than items yields one
// item per partition.
func Split(numItems, workers int, strategy Strategy) (*Layout, error) {
	if workers < 1 {
		return nil, fmt.Errorf("partitions: worker count must be positive, got %d", workers)
	}
	target := int(math.Ceil(float64(numItems) / float64(workers)))
	if target < 1 {
		target = 1
	}
	pb := &Builder{
		NumItems:            numItems,
		TargetPartitionSize: target,
		Strategy:            strategy,
	}
	return pb.BuildPartitions()
}

// BuildPartitions creates a partition layout
func (pb *Builder) BuildPartitions() (*Layout, error) {
	if pb.NumItems < 0 {
		return nil, fmt.Errorf("partitions: negative item count %d", pb.NumItems)
	}
	if pb.TargetPartitionSize < 1 {
		return nil, fmt.Errorf("partitions: target partition size must be positive, got %d",
			pb.TargetPartitionSize)
	}

	// Determine number of partitions needed
	numPartitions := pb.calculateNumPartitions()

	// Partition the items
	iToP := pb.partitionItems(numPartitions)

	// Create partition structures
	partitions := pb.createPartitions(iToP, numPartitions)

	kpartMax := calculateKpartMax(partitions)
	for i := range partitions {
		partitions[i].MaxItems = kpartMax
	}

	layout := &Layout{
		Partitions:    partitions,
		KpartMax:      kpartMax,
		TotalItems:    pb.NumItems,
		NumPartitions: numPartitions,
		IToP:          iToP,
	}

	if err := layout.ValidateLayout(); err != nil {
		return nil, fmt.Errorf("invalid partition layout: %w", err)
	}

	return layout, nil
}

// calculateNumPartitions determines the partition count
func (pb *Builder) calculateNumPartitions() int {
	numPartitions := int(math.Ceil(float64(pb.NumItems) / float64(pb.TargetPartitionSize)))

	// Ensure at least one partition
	if numPartitions < 1 {
		numPartitions = 1
	}

	return numPartitions
}

// partitionItems assigns items to partitions
func (pb *Builder) partitionItems(numPartitions int) []int {
	iToP := make([]int, pb.NumItems)

	switch pb.Strategy {
	case RoundRobin:
		for i := 0; i < pb.NumItems; i++ {
			iToP[i] = i % numPartitions
		}

	default:
		itemsPerPartition := int(math.Ceil(float64(pb.NumItems) / float64(numPartitions)))
		if itemsPerPartition < 1 {
			itemsPerPartition = 1
		}
		for i := 0; i < pb.NumItems; i++ {
			iToP[i] = i / itemsPerPartition
			if iToP[i] >= numPartitions {
				iToP[i] = numPartitions - 1
			}
		}
	}

	return iToP
}

// createPartitions builds partition structures from item assignments
func (pb *Builder) createPartitions(iToP []int, numPartitions int) []Partition {
	partitions := make([]Partition, numPartitions)

	for i := range partitions {
		partitions[i] = Partition{
			ID:    i,
			Items: make([]int, 0),
		}
	}

	for item, part := range iToP {
		partitions[part].Items = append(partitions[part].Items, item)
		partitions[part].NumItems++
	}

	return partitions
}

// calculateKpartMax finds maximum items across all partitions
func calculateKpartMax(partitions []Partition) int {
	kpartMax := 0
	for _, p := range partitions {
		if p.NumItems > kpartMax {
			kpartMax = p.NumItems
		}
	}
	return kpartMax
}
