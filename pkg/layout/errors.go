package layout

import (
	"fmt"
	"strings"

	"github.com/matzehuels/floorsmith/pkg/errors"
)

// InfeasibleError aggregates the spaces that block a layout run: unlocked
// spaces with no door and no access point. It is raised before any position
// is mutated, so the caller's plan is always left intact.
type InfeasibleError struct {
	SpaceKeys []string
}

// Error returns the itemized per-space report as a single message.
func (e *InfeasibleError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "cannot lay out %d space(s) with no door or access point:", len(e.SpaceKeys))
	for _, key := range e.SpaceKeys {
		fmt.Fprintf(&b, "\n  - %q needs at least one door or an access point", key)
	}
	return b.String()
}

// Code returns the machine-readable error code for host error mapping.
func (e *InfeasibleError) Code() errors.Code {
	return errors.ErrCodeLayoutInfeasible
}

// Items returns one human-readable line per offending space.
func (e *InfeasibleError) Items() []string {
	items := make([]string, len(e.SpaceKeys))
	for i, key := range e.SpaceKeys {
		items[i] = fmt.Sprintf("%q has no door and no access point", key)
	}
	return items
}
