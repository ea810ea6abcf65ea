// Package world holds the vnum-keyed content graph (areas, rooms, object and
// mob prototypes) and the arena-resident live instances (object and mob
// instances, players) stamped from it, plus the operations that move
// entities between containers while preserving the containment-exclusivity
// invariant.
package world

import "fmt"

// World is the single top-level container for all world state. Once the
// pulse scheduler runs, only its phases mutate it (PhaseInput's logins and
// command dispatch, PhaseWorldUpdate, PhaseCleanup's destroy queue), all on
// the scheduler goroutine.
type World struct {
	arenas *arenas

	Areas     *VNumTable[Area]
	Rooms     *VNumTable[Room]
	ObjProtos *VNumTable[ObjProto]
	MobProtos *VNumTable[MobProto]

	objInstances    map[ObjID]*ObjInstance
	mobInstances    map[MobID]*MobInstance
	playerInstances map[PlayerID]*Player

	destroyObjs []ObjID
	destroyMobs []MobID
}

func NewWorld() *World {
	return &World{
		arenas:          newArenas(),
		Areas:           NewVNumTable[Area](),
		Rooms:           NewVNumTable[Room](),
		ObjProtos:       NewVNumTable[ObjProto](),
		MobProtos:       NewVNumTable[MobProto](),
		objInstances:    make(map[ObjID]*ObjInstance),
		mobInstances:    make(map[MobID]*MobInstance),
		playerInstances: make(map[PlayerID]*Player),
	}
}

// --- room/prototype lookups ---

func (w *World) Room(v VNum) (*Room, bool)         { return w.Rooms.Get(v) }
func (w *World) ObjProto(v VNum) (*ObjProto, bool) { return w.ObjProtos.Get(v) }
func (w *World) MobProto(v VNum) (*MobProto, bool) { return w.MobProtos.Get(v) }
func (w *World) Area(v VNum) (*Area, bool)         { return w.Areas.Get(v) }

// --- instance lookups ---

func (w *World) Obj(id ObjID) (*ObjInstance, bool) { o, ok := w.objInstances[id]; return o, ok }
func (w *World) Mob(id MobID) (*MobInstance, bool) { m, ok := w.mobInstances[id]; return m, ok }
func (w *World) Player(id PlayerID) (*Player, bool) {
	p, ok := w.playerInstances[id]
	return p, ok
}

func (w *World) AllPlayers(fn func(*Player)) {
	for _, p := range w.playerInstances {
		fn(p)
	}
}

// --- object lifecycle ---

func (w *World) SpawnObject(proto *ObjProto) *ObjInstance {
	id := ObjID(w.arenas.objs.Create())
	inst := &ObjInstance{ID: id, Proto: proto}
	w.objInstances[id] = inst
	return inst
}

// PutInRoom moves an object into a room, detaching it from wherever it was.
func (w *World) PutInRoom(obj *ObjInstance, room *Room) {
	w.detach(obj)
	room.Objects = append(room.Objects, obj.ID)
	obj.locKind = LocRoom
	obj.locRoom = room.VNum
}

// GiveToMob moves an object into a mob's (or player's, via their inventory
// slice) carried inventory.
func (w *World) GiveToMob(obj *ObjInstance, mob *MobInstance) {
	w.detach(obj)
	mob.Inventory = append(mob.Inventory, obj.ID)
	obj.locKind = LocInventory
	obj.locMob = mob.ID
}

// EquipOnMob moves an object directly into a mob's equipped set, bypassing
// inventory (area resets use this for 'E' lines).
func (w *World) EquipOnMob(obj *ObjInstance, mob *MobInstance, wearLoc int) {
	w.detach(obj)
	mob.Equipment[wearLoc] = obj.ID
	obj.locKind = LocEquipped
	obj.locMob = mob.ID
	obj.wearLoc = wearLoc
}

// PutInContainer nests one object instance inside another.
func (w *World) PutInContainer(obj *ObjInstance, container *ObjInstance) {
	w.detach(obj)
	container.Contains = append(container.Contains, obj.ID)
	obj.locKind = LocContainer
	obj.locObj = container.ID
}

// detach removes obj from whatever single container currently holds it,
// maintaining the exclusivity invariant before the caller re-attaches it.
func (w *World) detach(obj *ObjInstance) {
	switch obj.locKind {
	case LocRoom:
		if r, ok := w.Rooms.Get(obj.locRoom); ok {
			r.removeObj(obj.ID)
		}
	case LocInventory, LocEquipped:
		if m, ok := w.mobInstances[obj.locMob]; ok {
			if obj.locKind == LocInventory {
				m.Inventory = removeID(m.Inventory, obj.ID)
			} else {
				for slot, o := range m.Equipment {
					if o == obj.ID {
						delete(m.Equipment, slot)
					}
				}
			}
		}
	case LocContainer:
		if c, ok := w.objInstances[obj.locObj]; ok {
			c.Contains = removeID(c.Contains, obj.ID)
		}
	}
	obj.locKind = LocNowhere
}

func (w *World) DestroyObject(id ObjID) {
	if obj, ok := w.objInstances[id]; ok {
		w.detach(obj)
		delete(w.objInstances, id)
		w.arenas.objs.Destroy(ecsEntityID(id))
	}
}

// --- mob lifecycle ---

func (w *World) SpawnMob(proto *MobProto, room *Room) *MobInstance {
	id := MobID(w.arenas.mobs.Create())
	inst := NewMobInstance(id, proto)
	inst.Room = room.VNum
	w.mobInstances[id] = inst
	room.Mobs = append(room.Mobs, id)
	return inst
}

func (w *World) DestroyMob(id MobID) {
	mob, ok := w.mobInstances[id]
	if !ok {
		return
	}
	if r, ok := w.Rooms.Get(mob.Room); ok {
		r.removeMob(id)
	}
	for _, objID := range append(append([]ObjID{}, mob.Inventory...), equipList(mob.Equipment)...) {
		w.DestroyObject(objID)
	}
	delete(w.mobInstances, id)
	w.arenas.mobs.Destroy(ecsEntityID(id))
}

func equipList(m map[int]ObjID) []ObjID {
	out := make([]ObjID, 0, len(m))
	for _, v := range m {
		out = append(out, v)
	}
	return out
}

// --- player lifecycle ---

func (w *World) SpawnPlayer(name, account string) *Player {
	id := PlayerID(w.arenas.players.Create())
	p := NewPlayer(id, name, account)
	w.playerInstances[id] = p
	return p
}

func (w *World) EnterRoom(p *Player, room *Room) error {
	if old, ok := w.Rooms.Get(p.Room); ok {
		old.removePlayer(p.ID)
	}
	if room == nil {
		return fmt.Errorf("enter room: nil room")
	}
	room.Players = append(room.Players, p.ID)
	p.Room = room.VNum
	return nil
}

func (w *World) RemovePlayer(id PlayerID) {
	p, ok := w.playerInstances[id]
	if !ok {
		return
	}
	if r, ok := w.Rooms.Get(p.Room); ok {
		r.removePlayer(id)
	}
	delete(w.playerInstances, id)
	w.arenas.players.Destroy(ecsEntityID(id))
}

// --- deferred destruction queue ---
//
// Combat and scripting code queues kills/decays during PhaseWorldUpdate
// rather than destroying entities in place, so nothing iterating a room's
// Mobs/Objects slice mid-update has it mutated out from under it. The
// PhaseCleanup system drains these queues once the update phase is done.

func (w *World) QueueDestroyObj(id ObjID) { w.destroyObjs = append(w.destroyObjs, id) }
func (w *World) QueueDestroyMob(id MobID) { w.destroyMobs = append(w.destroyMobs, id) }

// DrainDestroyQueues actually destroys every queued object and mob and
// clears both queues.
func (w *World) DrainDestroyQueues() {
	for _, id := range w.destroyObjs {
		w.DestroyObject(id)
	}
	w.destroyObjs = w.destroyObjs[:0]
	for _, id := range w.destroyMobs {
		w.DestroyMob(id)
	}
	w.destroyMobs = w.destroyMobs[:0]
}
