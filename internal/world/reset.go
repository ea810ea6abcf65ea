package world

// ResetArea replays one area's declarative reset program, grounded in
// original_source/game/src/core/db.c's reset_area: M/O/P/G/E
// lines thread "last" (most recently loaded mob) and "lastObj" (most
// recently loaded/put object) context through consecutive lines; O and P
// lines are skipped if an instance of that object vnum is already present
// in the target, UNLESS force is true (the boot-time
// initial pass bypasses every skip rule so the world starts fully stocked).
func (w *World) ResetArea(area *Area, force bool) {
	var last *MobInstance
	var lastObj *ObjInstance

	for _, rc := range area.Resets {
		switch rc.Command {
		case 'M':
			// arg1=mob vnum, arg2=max world count (ignored here, gameplay-owned),
			// arg3=room vnum
			proto, ok := w.MobProtos.Get(VNum(rc.Arg1))
			if !ok {
				last = nil
				continue
			}
			room, ok := w.Rooms.Get(VNum(rc.Arg3))
			if !ok {
				last = nil
				continue
			}
			if !force && countMobVNumInRoom(w, room, VNum(rc.Arg1)) > 0 {
				last = nil
				continue
			}
			last = w.SpawnMob(proto, room)

		case 'O':
			// arg1=obj vnum, arg3=room vnum
			proto, ok := w.ObjProtos.Get(VNum(rc.Arg1))
			if !ok {
				lastObj = nil
				continue
			}
			room, ok := w.Rooms.Get(VNum(rc.Arg3))
			if !ok {
				lastObj = nil
				continue
			}
			if !force && countObjVNumInRoom(w, room, VNum(rc.Arg1)) > 0 {
				lastObj = nil
				continue
			}
			obj := w.SpawnObject(proto)
			w.PutInRoom(obj, room)
			lastObj = obj

		case 'P':
			// arg1=obj vnum, arg3=container obj vnum most recently loaded
			if lastObj == nil {
				continue
			}
			proto, ok := w.ObjProtos.Get(VNum(rc.Arg1))
			if !ok {
				continue
			}
			if !force && w.countObjVNumInContainer(lastObj, VNum(rc.Arg1)) > 0 {
				continue
			}
			obj := w.SpawnObject(proto)
			w.PutInContainer(obj, lastObj)

		case 'G':
			// arg1=obj vnum, given to the last loaded mob
			if last == nil {
				continue
			}
			proto, ok := w.ObjProtos.Get(VNum(rc.Arg1))
			if !ok {
				continue
			}
			obj := w.SpawnObject(proto)
			w.GiveToMob(obj, last)
			lastObj = obj

		case 'E':
			// arg1=obj vnum, arg2=wear location, equipped on the last loaded mob
			if last == nil {
				continue
			}
			proto, ok := w.ObjProtos.Get(VNum(rc.Arg1))
			if !ok {
				continue
			}
			obj := w.SpawnObject(proto)
			w.EquipOnMob(obj, last, rc.Arg2)
			lastObj = obj

		case 'D':
			// arg1=room vnum, arg2=direction, arg3=door state (0 closed,1 locked)
			room, ok := w.Rooms.Get(VNum(rc.Arg1))
			if !ok || rc.Arg2 < 0 || rc.Arg2 >= NumDirections {
				continue
			}
			exit := room.Exits[rc.Arg2]
			if exit == nil {
				continue
			}
			switch rc.Arg3 {
			case 1:
				exit.Flags |= ExitClosed | ExitLocked
			default:
				exit.Flags |= ExitClosed
				exit.Flags &^= ExitLocked
			}

		case 'R':
			// arg1=room vnum, arg2=number of exits to randomize among the
			// room's first N exit slots (gameplay-owned shuffle, core just
			// validates the room exists).
			if _, ok := w.Rooms.Get(VNum(rc.Arg1)); !ok {
				continue
			}
		}
	}
}

func countMobVNumInRoom(w *World, room *Room, vnum VNum) int {
	n := 0
	for _, id := range room.Mobs {
		if m, ok := w.mobInstances[id]; ok && m.Proto.VNum == vnum {
			n++
		}
	}
	return n
}

func countObjVNumInRoom(w *World, room *Room, vnum VNum) int {
	n := 0
	for _, id := range room.Objects {
		if o, ok := w.objInstances[id]; ok && o.Proto.VNum == vnum {
			n++
		}
	}
	return n
}

func (w *World) countObjVNumInContainer(container *ObjInstance, vnum VNum) int {
	n := 0
	for _, id := range container.Contains {
		if o, ok := w.objInstances[id]; ok && o.Proto.VNum == vnum {
			n++
		}
	}
	return n
}
