// Package persist implements the embedded, per-file relational persistence
// layer: one shared accounts catalog, one database file per area, and one
// database file per player, using modernc.org/sqlite (the
// pure-Go embedded SQLite driver — see DESIGN.md for why pgx/pgxpool were
// dropped). Schema for the accounts catalog is goose-migrated since it is
// the one persistent schema this server owns outright; area and player
// files use inline idempotent DDL instead, matching
// original_source/game/src/db/db_sql.c and db_player.c exactly.
package persist

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	_ "modernc.org/sqlite"
)

// AccountsRepo wraps the single shared accounts database: account name,
// bcrypt password hash, ban state, and the character→account index used
// during the GetName/GetOldPassword steps of the session state machine.
type AccountsRepo struct {
	db *sql.DB
}

func OpenAccounts(ctx context.Context, dsn string) (*AccountsRepo, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("open accounts db: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA journal_mode=WAL;"); err != nil {
		return nil, fmt.Errorf("accounts wal pragma: %w", err)
	}
	if _, err := db.ExecContext(ctx, "PRAGMA synchronous=NORMAL;"); err != nil {
		return nil, fmt.Errorf("accounts synchronous pragma: %w", err)
	}
	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := db.PingContext(pingCtx); err != nil {
		return nil, fmt.Errorf("ping accounts db: %w", err)
	}
	return &AccountsRepo{db: db}, nil
}

func (r *AccountsRepo) DB() *sql.DB { return r.db }

func (r *AccountsRepo) Close() error { return r.db.Close() }

type Account struct {
	Name         string
	PasswordHash string
	Banned       bool
	CreatedAt    time.Time
}

func (r *AccountsRepo) Lookup(ctx context.Context, name string) (*Account, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT name, password_hash, banned, created_at FROM account WHERE name = ?`, name)
	var a Account
	var created int64
	if err := row.Scan(&a.Name, &a.PasswordHash, &a.Banned, &created); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, fmt.Errorf("lookup account %s: %w", name, err)
	}
	a.CreatedAt = time.Unix(created, 0)
	return &a, nil
}

func (r *AccountsRepo) Create(ctx context.Context, name, password string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	_, err = r.db.ExecContext(ctx,
		`INSERT INTO account (name, password_hash, banned, created_at) VALUES (?, ?, 0, ?)`,
		name, string(hash), time.Now().Unix())
	if err != nil {
		return fmt.Errorf("create account %s: %w", name, err)
	}
	return nil
}

func (r *AccountsRepo) CheckPassword(acct *Account, password string) bool {
	return bcrypt.CompareHashAndPassword([]byte(acct.PasswordHash), []byte(password)) == nil
}

func (r *AccountsRepo) LinkCharacter(ctx context.Context, account, charName string) error {
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO character_index (name, account) VALUES (?, ?)
		 ON CONFLICT(name) DO UPDATE SET account = excluded.account`,
		charName, account)
	if err != nil {
		return fmt.Errorf("link character %s: %w", charName, err)
	}
	return nil
}

func (r *AccountsRepo) AccountForCharacter(ctx context.Context, charName string) (string, bool, error) {
	row := r.db.QueryRowContext(ctx, `SELECT account FROM character_index WHERE name = ?`, charName)
	var acct string
	if err := row.Scan(&acct); err != nil {
		if err == sql.ErrNoRows {
			return "", false, nil
		}
		return "", false, fmt.Errorf("lookup character %s: %w", charName, err)
	}
	return acct, true, nil
}
