package persist

// AreaSchemaSQL mirrors original_source/game/src/db/db_sql.c's per-area
// schema: one physical database file per area, containing its own rooms,
// exits, resets, and the mob/object prototypes that range falls within.
const AreaSchemaSQL = `
CREATE TABLE IF NOT EXISTS area (
	vnum INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	lvnum INTEGER NOT NULL,
	uvnum INTEGER NOT NULL,
	reset_interval_pulses INTEGER NOT NULL DEFAULT 1
);
CREATE TABLE IF NOT EXISTS mobiles (
	vnum INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	short_desc TEXT NOT NULL,
	description TEXT NOT NULL,
	level INTEGER NOT NULL,
	max_hp INTEGER NOT NULL,
	flags INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS objects (
	vnum INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	short_desc TEXT NOT NULL,
	description TEXT NOT NULL,
	weight INTEGER NOT NULL DEFAULT 0,
	cost INTEGER NOT NULL DEFAULT 0,
	item_type INTEGER NOT NULL DEFAULT 0,
	flags INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS object_affects (
	obj_vnum INTEGER NOT NULL,
	location INTEGER NOT NULL,
	modifier INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS extra_descriptions (
	owner_kind TEXT NOT NULL, -- 'room' or 'object'
	owner_vnum INTEGER NOT NULL,
	keyword TEXT NOT NULL,
	description TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS rooms (
	vnum INTEGER PRIMARY KEY,
	name TEXT NOT NULL,
	description TEXT NOT NULL,
	flags INTEGER NOT NULL DEFAULT 0,
	sector INTEGER NOT NULL DEFAULT 0,
	light INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS exits (
	room_vnum INTEGER NOT NULL,
	direction INTEGER NOT NULL,
	to_vnum INTEGER NOT NULL,
	flags INTEGER NOT NULL DEFAULT 0,
	key_vnum INTEGER NOT NULL DEFAULT 0,
	keyword TEXT NOT NULL DEFAULT '',
	description TEXT NOT NULL DEFAULT '',
	PRIMARY KEY (room_vnum, direction)
);
CREATE TABLE IF NOT EXISTS resets (
	area_vnum INTEGER NOT NULL,
	seq INTEGER NOT NULL,
	command TEXT NOT NULL,
	arg1 INTEGER NOT NULL,
	arg2 INTEGER NOT NULL,
	arg3 INTEGER NOT NULL,
	PRIMARY KEY (area_vnum, seq)
);
CREATE TABLE IF NOT EXISTS shops (
	keeper_vnum INTEGER PRIMARY KEY,
	profit_buy INTEGER NOT NULL,
	profit_sell INTEGER NOT NULL,
	open_hour INTEGER NOT NULL,
	close_hour INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS specials (
	mob_vnum INTEGER NOT NULL,
	program TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS scripts (
	owner_kind TEXT NOT NULL, -- 'room', 'object', or 'mobile'
	owner_vnum INTEGER NOT NULL,
	script_name TEXT NOT NULL
);
`

// PlayerSchemaSQL mirrors original_source/game/src/db/db_player.c's
// PLAYER_SCHEMA_SQL: one physical database file per player.
const PlayerSchemaSQL = `
CREATE TABLE IF NOT EXISTS meta (
	schema_version INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS player (
	name TEXT PRIMARY KEY,
	account TEXT NOT NULL,
	trust INTEGER NOT NULL DEFAULT 0,
	hp INTEGER NOT NULL, max_hp INTEGER NOT NULL,
	mp INTEGER NOT NULL, max_mp INTEGER NOT NULL,
	position INTEGER NOT NULL,
	room_vnum INTEGER NOT NULL,
	saved_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS player_arrays (
	player_name TEXT NOT NULL,
	kind TEXT NOT NULL, -- 'opaque_column'
	key TEXT NOT NULL,
	value INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS aliases (
	player_name TEXT NOT NULL,
	alias TEXT NOT NULL,
	expansion TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS objects (
	id INTEGER PRIMARY KEY,
	player_name TEXT NOT NULL,
	obj_vnum INTEGER NOT NULL,
	enchant_level INTEGER NOT NULL DEFAULT 0,
	condition INTEGER NOT NULL DEFAULT 100,
	extra_flags INTEGER NOT NULL DEFAULT 0,
	loc_kind INTEGER NOT NULL, -- world.LocationKind
	wear_loc INTEGER NOT NULL DEFAULT -1,
	parent_obj_id INTEGER NOT NULL DEFAULT 0
);
CREATE TABLE IF NOT EXISTS obj_affects (
	obj_id INTEGER NOT NULL,
	location INTEGER NOT NULL,
	modifier INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS obj_extra_descr (
	obj_id INTEGER NOT NULL,
	keyword TEXT NOT NULL,
	description TEXT NOT NULL
);
CREATE TABLE IF NOT EXISTS boards (
	player_name TEXT NOT NULL,
	board TEXT NOT NULL,
	last_read INTEGER NOT NULL
);
`

const SchemaVersion = 1
