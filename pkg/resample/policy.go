package resample

import (
	"fmt"

	"github.com/viroco/tracerouting/pkg/datastructure"
)

// Kind per-column interpolation policy on the 1 meter grid.
type Kind int

const (
	// Linear numeric interpolation against the distance grid
	Linear Kind = iota
	// Nearest nearest-neighbor for categorical columns
	Nearest
	// Once sparse event columns, bound to their nearest whole meter only
	Once
)

func (k Kind) String() string {
	switch k {
	case Linear:
		return "linear"
	case Nearest:
		return "nearest"
	case Once:
		return "once"
	}
	return fmt.Sprintf("Kind(%d)", int(k))
}

func KindFromString(s string) (Kind, error) {
	switch s {
	case "linear":
		return Linear, nil
	case "nearest":
		return Nearest, nil
	case "once":
		return Once, nil
	}
	return 0, fmt.Errorf("unknown segmentation kind %q", s)
}

// DefaultPolicies covers every non-float column the enrichment stages emit.
// Float columns need no declaration, they default to Linear.
func DefaultPolicies() map[string]Kind {
	return map[string]Kind{
		datastructure.ColWayID:         Nearest,
		datastructure.ColNodeID:        Once,
		datastructure.ColWayType:       Nearest,
		datastructure.ColWaySurface:    Nearest,
		datastructure.ColIntersection:  Nearest,
		datastructure.ColNodeHighway:   Once,
		datastructure.ColNodeRailway:   Once,
		datastructure.ColNodeCrossing:  Once,
		datastructure.ColNodeDirection: Once,
		datastructure.ColNodeStop:      Once,
	}
}
