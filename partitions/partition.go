package partitions

import (
	"fmt"
)

// Partition is a set of item indices (nodes or elements) processed together
// by one worker. Items of different partitions never share mutable state.
type Partition struct {
	// Unique identifier for this partition
	ID int

	// Item membership
	Items    []int // Global item indices in this partition, ascending
	NumItems int   // Actual number of items
	MaxItems int   // Largest NumItems across the layout
}

// Layout manages the complete decomposition of an index range
type Layout struct {
	// All partitions
	Partitions []Partition

	// Global sizing information
	KpartMax      int // max(NumItems) across all partitions
	TotalItems    int // Sum of all items across partitions
	NumPartitions int // Total number of partitions

	// Item to partition mapping
	IToP []int // Length TotalItems: item k belongs to partition IToP[k]
}

// GetPartition returns the partition containing item k, or -1 when k is out of range
func (pl *Layout) GetPartition(itemID int) int {
	if itemID < 0 || itemID >= len(pl.IToP) {
		return -1
	}
	return pl.IToP[itemID]
}

// ValidateLayout checks partition consistency
func (pl *Layout) ValidateLayout() error {
	actualMax := 0
	total := 0
	seen := make([]bool, pl.TotalItems)
	for _, p := range pl.Partitions {
		if p.NumItems != len(p.Items) {
			return fmt.Errorf("partition %d: NumItems %d != len(Items) %d",
				p.ID, p.NumItems, len(p.Items))
		}
		if p.NumItems > actualMax {
			actualMax = p.NumItems
		}
		if p.MaxItems != pl.KpartMax {
			return fmt.Errorf("partition %d: MaxItems %d != KpartMax %d",
				p.ID, p.MaxItems, pl.KpartMax)
		}
		for _, k := range p.Items {
			if k < 0 || k >= pl.TotalItems {
				return fmt.Errorf("partition %d: item %d outside [0, %d)", p.ID, k, pl.TotalItems)
			}
			if seen[k] {
				return fmt.Errorf("partition %d: item %d assigned twice", p.ID, k)
			}
			if pl.IToP[k] != p.ID {
				return fmt.Errorf("partition %d: IToP[%d] = %d", p.ID, k, pl.IToP[k])
			}
			seen[k] = true
		}
		total += p.NumItems
	}
	if actualMax != pl.KpartMax {
		return fmt.Errorf("computed KpartMax %d != stored KpartMax %d",
			actualMax, pl.KpartMax)
	}
	if total != pl.TotalItems {
		return fmt.Errorf("partitions hold %d items, want %d", total, pl.TotalItems)
	}
	return nil
}
