package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dystopiamud/core/internal/world"
	"github.com/google/uuid"
)

// SavePlayer implements the exact save protocol of
// original_source/game/src/db/db_player.c's db_player_save: build an
// in-memory database, write every table, serialize it out, and hand the
// serialized bytes to the background writer rather than blocking the
// caller on disk I/O. Persistence is scoped to player characters; there is
// no minimum save level, and every player passed in is saved.
func SavePlayer(ctx context.Context, w *world.World, p *world.Player, path string, bw *BackgroundWriter) error {
	mem, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("open in-memory player db: %w", err)
	}
	defer mem.Close()

	if _, err := mem.ExecContext(ctx, PlayerSchemaSQL); err != nil {
		return fmt.Errorf("exec player schema: %w", err)
	}

	tx, err := mem.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin player save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, `INSERT INTO meta (schema_version) VALUES (?)`, SchemaVersion); err != nil {
		return fmt.Errorf("insert meta: %w", err)
	}
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO player (name, account, trust, hp, max_hp, mp, max_mp, position, room_vnum, saved_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		p.Name, p.Account, int(p.Trust), p.HP, p.MaxHP, p.MP, p.MaxMP, p.Position, int(p.Room), time.Now().Unix()); err != nil {
		return fmt.Errorf("insert player row: %w", err)
	}
	for alias, expansion := range p.Aliases {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO aliases (player_name, alias, expansion) VALUES (?, ?, ?)`,
			p.Name, alias, expansion); err != nil {
			return fmt.Errorf("insert alias %s: %w", alias, err)
		}
	}
	for key, val := range p.OpaqueColumns {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO player_arrays (player_name, kind, key, value) VALUES (?, 'opaque_column', ?, ?)`,
			p.Name, key, val); err != nil {
			return fmt.Errorf("insert opaque column %s: %w", key, err)
		}
	}
	if err := saveObjects(ctx, tx, w, p); err != nil {
		return err
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit player save: %w", err)
	}

	// Serialize the in-memory database out through a throwaway file (the
	// Go analogue of sqlite3_serialize — modernc.org/sqlite exposes
	// VACUUM INTO a path, not an arbitrary io.Writer) and hand the bytes
	// to the background writer so the real fwrite happens off this call's
	// critical path, exactly as the original's save thread does.
	tmp := path + "." + uuid.NewString() + ".tmp"
	if _, err := mem.ExecContext(ctx, `VACUUM INTO ?`, tmp); err != nil {
		return fmt.Errorf("serialize player db: %w", err)
	}
	data, err := os.ReadFile(tmp)
	os.Remove(tmp)
	if err != nil {
		return fmt.Errorf("read serialized player db: %w", err)
	}

	bw.Submit(WriteTask{Path: path, Data: data})
	return nil
}

// saveObjects writes every object the player carries or wears, recursing
// into containers, mirroring original_source db_player.c's save_objects.
func saveObjects(ctx context.Context, tx *sql.Tx, w *world.World, p *world.Player) error {
	for _, id := range p.Inventory {
		if err := saveOneObject(ctx, tx, w, p.Name, id, world.LocInventory, -1, 0); err != nil {
			return err
		}
	}
	for wearLoc, id := range p.Equipment {
		if err := saveOneObject(ctx, tx, w, p.Name, id, world.LocEquipped, wearLoc, 0); err != nil {
			return err
		}
	}
	return nil
}

func saveOneObject(ctx context.Context, tx *sql.Tx, w *world.World, playerName string, id world.ObjID, loc world.LocationKind, wearLoc int, parentObjID int64) error {
	obj, ok := w.Obj(id)
	if !ok {
		return nil
	}
	res, err := tx.ExecContext(ctx,
		`INSERT INTO objects (player_name, obj_vnum, enchant_level, condition, extra_flags, loc_kind, wear_loc, parent_obj_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		playerName, int(obj.Proto.VNum), obj.EnchantLevel, obj.Condition, obj.ExtraFlags, int(loc), wearLoc, parentObjID)
	if err != nil {
		return fmt.Errorf("insert object %d: %w", obj.Proto.VNum, err)
	}
	rowID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("object row id %d: %w", obj.Proto.VNum, err)
	}
	for _, childID := range obj.Contains {
		if err := saveOneObject(ctx, tx, w, playerName, childID, world.LocContainer, -1, rowID); err != nil {
			return err
		}
	}
	return nil
}

// LoadPlayer reads a player's database file back into a *world.Player.
// Returns (nil, nil) if the file does not exist (new character).
func LoadPlayer(ctx context.Context, path string, w *world.World) (*world.Player, error) {
	if _, err := os.Stat(path); os.IsNotExist(err) {
		return nil, nil
	}
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open player db %s: %w", path, err)
	}
	defer db.Close()

	row := db.QueryRowContext(ctx,
		`SELECT name, account, trust, hp, max_hp, mp, max_mp, position, room_vnum FROM player LIMIT 1`)
	var name, account string
	var trust, hp, maxHP, mp, maxMP, position, room int
	if err := row.Scan(&name, &account, &trust, &hp, &maxHP, &mp, &maxMP, &position, &room); err != nil {
		return nil, fmt.Errorf("read player row %s: %w", path, err)
	}

	p := w.SpawnPlayer(name, account)
	p.Trust = world.TrustLevel(trust)
	p.HP, p.MaxHP, p.MP, p.MaxMP, p.Position = hp, maxHP, mp, maxMP, position
	p.Room = world.VNum(room)

	rows, err := db.QueryContext(ctx, `SELECT alias, expansion FROM aliases WHERE player_name = ?`, name)
	if err != nil {
		return nil, fmt.Errorf("load aliases: %w", err)
	}
	for rows.Next() {
		var alias, expansion string
		if err := rows.Scan(&alias, &expansion); err != nil {
			rows.Close()
			return nil, fmt.Errorf("scan alias: %w", err)
		}
		p.Aliases[alias] = expansion
	}
	rows.Close()

	colRows, err := db.QueryContext(ctx,
		`SELECT key, value FROM player_arrays WHERE player_name = ? AND kind = 'opaque_column'`, name)
	if err != nil {
		return nil, fmt.Errorf("load opaque columns: %w", err)
	}
	for colRows.Next() {
		var key string
		var val int64
		if err := colRows.Scan(&key, &val); err != nil {
			colRows.Close()
			return nil, fmt.Errorf("scan opaque column: %w", err)
		}
		p.OpaqueColumns[key] = val
	}
	colRows.Close()

	objRows, err := db.QueryContext(ctx,
		`SELECT id, obj_vnum, enchant_level, condition, extra_flags, loc_kind, wear_loc, parent_obj_id
		 FROM objects WHERE player_name = ? ORDER BY id`, name)
	if err != nil {
		return nil, fmt.Errorf("load objects: %w", err)
	}
	byRowID := make(map[int64]*world.ObjInstance)
	type pending struct {
		obj       *world.ObjInstance
		loc       world.LocationKind
		wearLoc   int
		parentID  int64
	}
	var toAttach []pending
	for objRows.Next() {
		var rowID, vnum int64
		var enchant, condition, wearLoc int
		var extraFlags uint32
		var locKind int
		var parentObjID int64
		if err := objRows.Scan(&rowID, &vnum, &enchant, &condition, &extraFlags, &locKind, &wearLoc, &parentObjID); err != nil {
			objRows.Close()
			return nil, fmt.Errorf("scan object: %w", err)
		}
		proto, ok := w.ObjProto(world.VNum(vnum))
		if !ok {
			continue // content no longer exists; drop rather than fail the whole load
		}
		inst := w.SpawnObject(proto)
		inst.EnchantLevel = enchant
		inst.Condition = condition
		inst.ExtraFlags = extraFlags
		byRowID[rowID] = inst
		toAttach = append(toAttach, pending{obj: inst, loc: world.LocationKind(locKind), wearLoc: wearLoc, parentID: parentObjID})
	}
	objRows.Close()

	for _, pend := range toAttach {
		switch pend.loc {
		case world.LocInventory:
			p.Inventory = append(p.Inventory, pend.obj.ID)
		case world.LocEquipped:
			p.Equipment[pend.wearLoc] = pend.obj.ID
		case world.LocContainer:
			if parent, ok := byRowID[pend.parentID]; ok {
				parent.Contains = append(parent.Contains, pend.obj.ID)
			}
		}
	}

	return p, nil
}
