package world

import "time"

// TrustLevel gates command availability.
type TrustLevel int

const (
	TrustPlayer TrustLevel = iota
	TrustImmortal
	TrustAdmin
)

// Player is the live, in-memory representation of a logged-in character.
// Unlike mobs, a player's identity survives across sessions via persistence;
// this struct is what gets serialized to and rehydrated from the per-player
// database.
type Player struct {
	ID      PlayerID
	Name    string
	Account string
	Trust   TrustLevel
	Class   string // discipline/class name; gates class-restricted commands

	HP, MaxHP int
	MP, MaxMP int
	Position  int

	Room      VNum
	Inventory []ObjID
	Equipment map[int]ObjID

	Aliases map[string]string // alias -> command expansion

	Caps        Capabilities
	WaitPulses  int // lag: command dispatch gate
	LastSavedAt time.Time
	Dirty       bool

	// Opaque columns preserved across the save/load round trip (§8) but not
	// interpreted by this core; gameplay systems built on top own them.
	OpaqueColumns map[string]int64
}

// Capabilities is the negotiated telnet capability set for this player's
// descriptor, snapshotted onto the Player at login so it can inform the
// intro-banner tier even after the descriptor is gone.
type Capabilities struct {
	UTF8        bool
	ANSI        bool
	Width256    bool
	TrueColor   bool
	ScreenWidth int
	MCCP        int // 0 = off, 1 or 2
	GMCP        bool
	MXP         bool
}

func NewPlayer(id PlayerID, name, account string) *Player {
	return &Player{
		ID:            id,
		Name:          name,
		Account:       account,
		Equipment:     make(map[int]ObjID),
		Aliases:       make(map[string]string),
		OpaqueColumns: make(map[string]int64),
	}
}
