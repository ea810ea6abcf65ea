package world

// ObjProto is the static template an object instance is stamped from.
type ObjProto struct {
	VNum        VNum
	Name        string
	ShortDesc   string
	Description string
	Weight      int
	Cost        int
	Flags       uint32
	ItemType    int

	Scripts []string // attached script names, resolved by the scripting engine
}

// LocationKind records which single container currently holds an object,
// enforcing the containment-exclusivity invariant: an object is in exactly
// one of {room, character inventory/equipment, container}, never more than
// one and never a dangling reference.
type LocationKind int

const (
	LocNowhere LocationKind = iota
	LocRoom
	LocInventory
	LocEquipped
	LocContainer
)

// ObjInstance is a live, arena-allocated object stamped from a prototype.
type ObjInstance struct {
	ID    ObjID
	Proto *ObjProto

	EnchantLevel int
	Condition    int
	ExtraFlags   uint32

	Contains []ObjID // if this instance is itself a container

	locKind LocationKind
	locRoom VNum
	locMob  MobID
	locObj  ObjID
	wearLoc int
}

func (o *ObjInstance) Location() (LocationKind, any) {
	switch o.locKind {
	case LocRoom:
		return LocRoom, o.locRoom
	case LocInventory, LocEquipped:
		return o.locKind, o.locMob
	case LocContainer:
		return LocContainer, o.locObj
	default:
		return LocNowhere, nil
	}
}
