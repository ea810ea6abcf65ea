package session

import (
	"context"
	"time"

	"github.com/dystopiamud/core/internal/telnet"
	"github.com/dystopiamud/core/internal/world"
	"go.uber.org/zap"
)

func telnetFinalizeUTF8(s *Session) bool {
	return telnet.FinalizeUTF8(&s.Desc.Charset, &s.Desc.TType)
}

// DetectCapsMode is the first state of every session, matching
// CON_DETECT_CAPS in original_source game/src/core/network.h. Enter sends a
// welcome line; the mode then waits for the client's first line of input,
// which it discards, and moves to GetNameMode. No timer ends the state, so
// telnet option negotiation (TTYPE/NAWS/CHARSET) has until that first line
// to land.
type DetectCapsMode struct {
	entered time.Time
}

func (m *DetectCapsMode) Enter(s *Session) {
	m.entered = time.Now()
	s.Send("")
	s.Send("Welcome.")
}

func (m *DetectCapsMode) Feed(s *Session, line string) Mode {
	return &GetNameMode{}
}

// GetNameMode reads and validates a candidate character name.
type GetNameMode struct{ prompted bool }

func (m *GetNameMode) Enter(s *Session) {
	s.Send("What name shall you be known by? ")
}

func (m *GetNameMode) Feed(s *Session, line string) Mode {
	name := line
	if s.Names != nil {
		if err := s.Names.Validate(name); err != nil {
			s.Send(err.Error())
			return m
		}
	}
	s.pendingName = name

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	account, found, err := s.Accounts.AccountForCharacter(ctx, name)
	if err != nil {
		s.Log.Error("account lookup failed", zap.Error(err))
		s.Send("A database error occurred. Please try again.")
		return m
	}
	if found {
		s.AccountName = account
		return &GetPasswordMode{existing: true}
	}
	return &ConfirmNewNameMode{}
}

// ConfirmNewNameMode double-checks a brand-new name before account
// creation, matching the original's "Did I get that right?" confirmation.
type ConfirmNewNameMode struct{}

func (m *ConfirmNewNameMode) Enter(s *Session) {
	s.Send("Did I get that right, " + s.pendingName + "? (y/n) ")
}

func (m *ConfirmNewNameMode) Feed(s *Session, line string) Mode {
	if line == "y" || line == "Y" || line == "yes" {
		return &GetPasswordMode{existing: false}
	}
	return &GetNameMode{}
}

// GetPasswordMode handles both the existing-account login path and new
// account creation, distinguished by the existing flag.
type GetPasswordMode struct{ existing bool }

func (m *GetPasswordMode) Enter(s *Session) {
	if m.existing {
		s.Send("Password: ")
	} else {
		s.Send("Choose a password for this new account: ")
	}
}

func (m *GetPasswordMode) Feed(s *Session, line string) Mode {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if !m.existing {
		if err := s.Accounts.Create(ctx, s.pendingName, line); err != nil {
			s.Log.Error("account creation failed", zap.Error(err))
			s.Send("Could not create an account. Please try again later.")
			return &GetNameMode{}
		}
		if err := s.Accounts.LinkCharacter(ctx, s.pendingName, s.pendingName); err != nil {
			s.Log.Error("character link failed", zap.Error(err))
		}
		s.AccountName = s.pendingName
		return m.enterWorld(s)
	}

	acct, err := s.Accounts.Lookup(ctx, s.AccountName)
	if err != nil || acct == nil {
		s.Send("A database error occurred. Please try again.")
		return &GetNameMode{}
	}
	if !s.Accounts.CheckPassword(acct, line) {
		s.Send("Wrong password.")
		return &GetNameMode{}
	}
	if acct.Banned {
		s.Send("That account has been banned.")
		s.Desc.Close()
		return m
	}
	return m.enterWorld(s)
}

func (m *GetPasswordMode) enterWorld(s *Session) Mode {
	p := s.World.SpawnPlayer(s.pendingName, s.AccountName)
	s.Player = p
	p.Caps = world.Capabilities{
		UTF8:        telnetFinalizeUTF8(s),
		ANSI:        s.Desc.TType.HasFlag(1),
		Width256:    s.Desc.TType.HasFlag(8),
		TrueColor:   s.Desc.TType.HasFlag(256),
		ScreenWidth: s.Desc.NAWSWidth,
		MCCP:        s.Desc.MCCPVersion,
		GMCP:        s.Desc.GMCPEnabled,
		MXP:         s.Desc.MXPEnabled,
	}
	s.Send("Welcome, " + p.Name + "!")
	return &PlayingMode{}
}

// PlayingMode is the terminal state: from here on, input lines are handed
// to the command dispatch pipeline rather than consumed by the state
// machine itself.
type PlayingMode struct{}

func (m *PlayingMode) Enter(s *Session) {}

func (m *PlayingMode) Feed(s *Session, line string) Mode {
	// Command dispatch is driven by the scheduler's PhaseInput step calling
	// into the dispatch package directly with s.Player and line; by the
	// time Feed would see it, PlayingMode sessions are no longer fed through
	// this generic path (see session.Manager.Drain). Kept as a safety net.
	return m
}

// LinkDeadMode marks a session whose connection dropped while its player was
// in the world. The player stays in the world; nothing times it out, and no
// later login reattaches to it.
type LinkDeadMode struct{ since time.Time }

func (m *LinkDeadMode) Enter(s *Session) { m.since = time.Now() }
func (m *LinkDeadMode) Feed(s *Session, line string) Mode { return m }
