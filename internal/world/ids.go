package world

import "github.com/dystopiamud/core/internal/core/ecs"

// ObjID, MobID, and PlayerID are arena indices (generation-tagged, free-list
// allocated) for live instances, per the "use arena indices everywhere
// pointers appear" design note. Rooms are not instanced — one Room per VNum
// is both prototype and live state, matching the original server where
// ROOM_INDEX_DATA is the only room representation.
type ObjID ecs.EntityID
type MobID ecs.EntityID
type PlayerID ecs.EntityID

func (id ObjID) IsZero() bool    { return ecs.EntityID(id).IsZero() }
func (id MobID) IsZero() bool    { return ecs.EntityID(id).IsZero() }
func (id PlayerID) IsZero() bool { return ecs.EntityID(id).IsZero() }

// arenas bundles the three entity pools the world owns. Kept distinct (not
// a single shared pool) so an ObjID can never alias a MobID by accident.
type arenas struct {
	objs    *ecs.EntityPool
	mobs    *ecs.EntityPool
	players *ecs.EntityPool
}

func newArenas() *arenas {
	return &arenas{
		objs:    ecs.NewEntityPool(),
		mobs:    ecs.NewEntityPool(),
		players: ecs.NewEntityPool(),
	}
}

// ecsEntityID is a small overload set converting typed world IDs back to the
// untyped ecs.EntityID the arenas operate on.
func ecsEntityID[T ObjID | MobID | PlayerID](id T) ecs.EntityID {
	return ecs.EntityID(id)
}
