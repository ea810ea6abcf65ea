package scheduler

import (
	"context"
	"time"

	"github.com/dystopiamud/core/internal/core/system"
	"github.com/dystopiamud/core/internal/metrics"
	"github.com/dystopiamud/core/internal/paths"
	"github.com/dystopiamud/core/internal/persist"
	"github.com/dystopiamud/core/internal/world"
	"go.uber.org/zap"
)

// PersistSystem runs fifth in every pulse: once
// every AutoSaveEvery pulses it hands every dirty player to the background
// writer. Saves are never run more often than that, matching the original
// server's periodic (not per-pulse) autosave tick.
type PersistSystem struct {
	world   *world.World
	layout  paths.Layout
	bw      *persist.BackgroundWriter
	metrics *metrics.Metrics
	log     *zap.Logger

	every   int
	counter int
}

func NewPersistSystem(w *world.World, layout paths.Layout, bw *persist.BackgroundWriter, m *metrics.Metrics, every int, log *zap.Logger) *PersistSystem {
	if every < 1 {
		every = 1
	}
	return &PersistSystem{world: w, layout: layout, bw: bw, metrics: m, every: every, log: log}
}

func (s *PersistSystem) Phase() system.Phase { return system.PhasePersist }
func (s *PersistSystem) Name() string        { return "persist" }

func (s *PersistSystem) Update(time.Duration) {
	s.counter++
	if s.counter < s.every {
		return
	}
	s.counter = 0
	s.SaveAllPlayers()
}

// SaveAllPlayers saves every dirty player immediately; called from the
// periodic tick above, from main's shutdown path, and from the save and
// quit commands, so a shutdown never loses an unsaved character.
func (s *PersistSystem) SaveAllPlayers() {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	s.world.AllPlayers(func(p *world.Player) {
		if !p.Dirty {
			return
		}
		path := s.layout.PlayerFile(p.Name)
		if err := persist.SavePlayer(ctx, s.world, p, path, s.bw); err != nil {
			s.log.Error("player save failed", zap.String("player", p.Name), zap.Error(err))
			return
		}
		p.Dirty = false
		p.LastSavedAt = time.Now()
		if s.metrics != nil {
			s.metrics.IncSave("player")
		}
	})
}
