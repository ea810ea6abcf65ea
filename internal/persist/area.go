package persist

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"sort"

	"github.com/dystopiamud/core/internal/world"
)

// LoadArea opens an area's database file and reconstructs its rooms, exits,
// reset program, and the mob/object prototypes in its vnum range into w.
// Grounded in original_source db_sql.c's boot-time area load.
func LoadArea(ctx context.Context, path string, w *world.World) (*world.Area, error) {
	db, err := sql.Open("sqlite", "file:"+path+"?mode=ro")
	if err != nil {
		return nil, fmt.Errorf("open area %s: %w", path, err)
	}
	defer db.Close()

	var a world.Area
	row := db.QueryRowContext(ctx, `SELECT vnum, name, lvnum, uvnum, reset_interval_pulses FROM area LIMIT 1`)
	var vnum, lvnum, uvnum int
	if err := row.Scan(&vnum, &a.Name, &lvnum, &uvnum, &a.ResetIntervalPulses); err != nil {
		return nil, fmt.Errorf("read area row %s: %w", path, err)
	}
	a.VNum, a.LVNum, a.UVNum = world.VNum(vnum), world.VNum(lvnum), world.VNum(uvnum)
	area := world.NewArea(a.VNum, a.Name, a.LVNum, a.UVNum)
	area.ResetIntervalPulses = a.ResetIntervalPulses
	w.Areas.Put(area.VNum, area)

	if err := loadMobiles(ctx, db, w); err != nil {
		return nil, err
	}
	if err := loadObjects(ctx, db, w); err != nil {
		return nil, err
	}
	if err := loadRooms(ctx, db, w, area); err != nil {
		return nil, err
	}
	if err := loadExits(ctx, db, w); err != nil {
		return nil, err
	}
	if err := loadResets(ctx, db, area); err != nil {
		return nil, err
	}
	if err := loadScripts(ctx, db, w); err != nil {
		return nil, err
	}
	return area, nil
}

// loadScripts attaches each row of the scripts table to the room, object
// prototype, or mob prototype it names, matching original_source
// db_sql.c's trigger-attachment pass that runs after the owning rows
// themselves are loaded.
func loadScripts(ctx context.Context, db *sql.DB, w *world.World) error {
	rows, err := db.QueryContext(ctx, `SELECT owner_kind, owner_vnum, script_name FROM scripts`)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var kind, name string
		var vnum int
		if err := rows.Scan(&kind, &vnum, &name); err != nil {
			return fmt.Errorf("scan script: %w", err)
		}
		switch kind {
		case "room":
			if r, ok := w.Rooms.Get(world.VNum(vnum)); ok {
				r.Scripts = append(r.Scripts, name)
			}
		case "object":
			if p, ok := w.ObjProtos.Get(world.VNum(vnum)); ok {
				p.Scripts = append(p.Scripts, name)
			}
		case "mobile":
			if p, ok := w.MobProtos.Get(world.VNum(vnum)); ok {
				p.Scripts = append(p.Scripts, name)
			}
		}
	}
	return rows.Err()
}

func loadMobiles(ctx context.Context, db *sql.DB, w *world.World) error {
	rows, err := db.QueryContext(ctx, `SELECT vnum, name, short_desc, description, level, max_hp, flags FROM mobiles`)
	if err != nil {
		return fmt.Errorf("load mobiles: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p world.MobProto
		var vnum int
		if err := rows.Scan(&vnum, &p.Name, &p.ShortDesc, &p.Description, &p.Level, &p.MaxHP, &p.Flags); err != nil {
			return fmt.Errorf("scan mobile: %w", err)
		}
		p.VNum = world.VNum(vnum)
		w.MobProtos.Put(p.VNum, &p)
	}
	return rows.Err()
}

func loadObjects(ctx context.Context, db *sql.DB, w *world.World) error {
	rows, err := db.QueryContext(ctx, `SELECT vnum, name, short_desc, description, weight, cost, item_type, flags FROM objects`)
	if err != nil {
		return fmt.Errorf("load objects: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var p world.ObjProto
		var vnum int
		if err := rows.Scan(&vnum, &p.Name, &p.ShortDesc, &p.Description, &p.Weight, &p.Cost, &p.ItemType, &p.Flags); err != nil {
			return fmt.Errorf("scan object: %w", err)
		}
		p.VNum = world.VNum(vnum)
		w.ObjProtos.Put(p.VNum, &p)
	}
	return rows.Err()
}

func loadRooms(ctx context.Context, db *sql.DB, w *world.World, area *world.Area) error {
	rows, err := db.QueryContext(ctx, `SELECT vnum, name, description, flags, sector, light FROM rooms`)
	if err != nil {
		return fmt.Errorf("load rooms: %w", err)
	}
	defer rows.Close()
	var vnums []int
	for rows.Next() {
		var r world.Room
		var vnum int
		var flags, sector uint32
		if err := rows.Scan(&vnum, &r.Name, &r.Description, &flags, &sector, &r.Light); err != nil {
			return fmt.Errorf("scan room: %w", err)
		}
		r.VNum = world.VNum(vnum)
		r.Flags = world.RoomFlags(flags)
		r.Sector = world.SectorType(sector)
		r.Area = area
		w.Rooms.Put(r.VNum, &r)
		vnums = append(vnums, vnum)
	}
	sort.Ints(vnums)
	for _, v := range vnums {
		area.AddRoom(world.VNum(v))
	}
	return rows.Err()
}

func loadExits(ctx context.Context, db *sql.DB, w *world.World) error {
	rows, err := db.QueryContext(ctx, `SELECT room_vnum, direction, to_vnum, flags, key_vnum, keyword, description FROM exits`)
	if err != nil {
		return fmt.Errorf("load exits: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var roomVnum, dir, toVnum, keyVnum int
		var flags uint32
		var keyword, desc string
		if err := rows.Scan(&roomVnum, &dir, &toVnum, &flags, &keyVnum, &keyword, &desc); err != nil {
			return fmt.Errorf("scan exit: %w", err)
		}
		r, ok := w.Rooms.Get(world.VNum(roomVnum))
		if !ok || dir < 0 || dir >= world.NumDirections {
			continue
		}
		r.Exits[dir] = &world.Exit{
			ToVNum:      world.VNum(toVnum),
			Flags:       world.ExitFlags(flags),
			KeyVNum:     world.VNum(keyVnum),
			Keyword:     keyword,
			Description: desc,
		}
	}
	return rows.Err()
}

func loadResets(ctx context.Context, db *sql.DB, area *world.Area) error {
	rows, err := db.QueryContext(ctx, `SELECT command, arg1, arg2, arg3 FROM resets WHERE area_vnum = ? ORDER BY seq`, int(area.VNum))
	if err != nil {
		return fmt.Errorf("load resets: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var cmd string
		var rc world.ResetCommand
		if err := rows.Scan(&cmd, &rc.Arg1, &rc.Arg2, &rc.Arg3); err != nil {
			return fmt.Errorf("scan reset: %w", err)
		}
		if len(cmd) == 0 {
			continue
		}
		rc.Command = cmd[0]
		area.Resets = append(area.Resets, rc)
	}
	return rows.Err()
}

// SaveArea writes an area's content back out to its database file: an
// in-memory build followed by VACUUM INTO a sibling ".tmp" file that is then
// renamed over the target path (VACUUM INTO refuses an existing file), mirroring the
// original's sqlite3_serialize-then-fwrite shape with the driver's own
// backup/serialize facility (modernc.org/sqlite supports VACUUM INTO).
func SaveArea(ctx context.Context, path string, area *world.Area, w *world.World) error {
	db, err := sql.Open("sqlite", ":memory:")
	if err != nil {
		return fmt.Errorf("open in-memory area db: %w", err)
	}
	defer db.Close()

	if _, err := db.ExecContext(ctx, AreaSchemaSQL); err != nil {
		return fmt.Errorf("exec area schema: %w", err)
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin area save: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO area (vnum, name, lvnum, uvnum, reset_interval_pulses) VALUES (?, ?, ?, ?, ?)`,
		int(area.VNum), area.Name, int(area.LVNum), int(area.UVNum), area.ResetIntervalPulses); err != nil {
		return fmt.Errorf("insert area row: %w", err)
	}

	for _, v := range area.Rooms() {
		r, ok := w.Rooms.Get(v)
		if !ok {
			continue
		}
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO rooms (vnum, name, description, flags, sector, light) VALUES (?, ?, ?, ?, ?, ?)`,
			int(r.VNum), r.Name, r.Description, uint32(r.Flags), uint32(r.Sector), r.Light); err != nil {
			return fmt.Errorf("insert room %d: %w", v, err)
		}
		for dir, ex := range r.Exits {
			if ex == nil {
				continue
			}
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO exits (room_vnum, direction, to_vnum, flags, key_vnum, keyword, description) VALUES (?, ?, ?, ?, ?, ?, ?)`,
				int(r.VNum), dir, int(ex.ToVNum), uint32(ex.Flags), int(ex.KeyVNum), ex.Keyword, ex.Description); err != nil {
				return fmt.Errorf("insert exit %d/%d: %w", v, dir, err)
			}
		}
	}

	for i, rc := range area.Resets {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO resets (area_vnum, seq, command, arg1, arg2, arg3) VALUES (?, ?, ?, ?, ?, ?)`,
			int(area.VNum), i, string(rc.Command), rc.Arg1, rc.Arg2, rc.Arg3); err != nil {
			return fmt.Errorf("insert reset %d: %w", i, err)
		}
	}

	for _, v := range area.Rooms() {
		r, ok := w.Rooms.Get(v)
		if !ok {
			continue
		}
		for _, name := range r.Scripts {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO scripts (owner_kind, owner_vnum, script_name) VALUES ('room', ?, ?)`,
				int(r.VNum), name); err != nil {
				return fmt.Errorf("insert room script %d: %w", v, err)
			}
		}
	}
	for v := area.LVNum; v <= area.UVNum; v++ {
		if p, ok := w.ObjProtos.Get(v); ok {
			for _, name := range p.Scripts {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO scripts (owner_kind, owner_vnum, script_name) VALUES ('object', ?, ?)`,
					int(v), name); err != nil {
					return fmt.Errorf("insert object script %d: %w", v, err)
				}
			}
		}
		if p, ok := w.MobProtos.Get(v); ok {
			for _, name := range p.Scripts {
				if _, err := tx.ExecContext(ctx,
					`INSERT INTO scripts (owner_kind, owner_vnum, script_name) VALUES ('mobile', ?, ?)`,
					int(v), name); err != nil {
					return fmt.Errorf("insert mob script %d: %w", v, err)
				}
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit area save: %w", err)
	}

	tmp := path + ".tmp"
	os.Remove(tmp)
	if _, err := db.ExecContext(ctx, `VACUUM INTO ?`, tmp); err != nil {
		return fmt.Errorf("vacuum area into %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, path); err != nil {
		return fmt.Errorf("replace area file %s: %w", path, err)
	}
	return nil
}
