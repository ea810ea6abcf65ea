package scheduler

import (
	"time"

	"github.com/dystopiamud/core/internal/core/system"
	"github.com/dystopiamud/core/internal/world"
)

// CleanupSystem runs last in every pulse: it destroys
// everything combat/scripting queued during PhaseWorldUpdate. Descriptor
// reaping already happens at the top of the next pulse's PhaseAccept, so
// there is nothing connection-related left to do here.
type CleanupSystem struct {
	world *world.World
}

func NewCleanupSystem(w *world.World) *CleanupSystem { return &CleanupSystem{world: w} }

func (s *CleanupSystem) Phase() system.Phase { return system.PhaseCleanup }
func (s *CleanupSystem) Name() string        { return "cleanup" }

func (s *CleanupSystem) Update(time.Duration) { s.world.DrainDestroyQueues() }
