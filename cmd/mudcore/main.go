package main

import (
	"context"
	"fmt"
	"net"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"github.com/dystopiamud/core/internal/commands"
	"github.com/dystopiamud/core/internal/config"
	"github.com/dystopiamud/core/internal/conn"
	"github.com/dystopiamud/core/internal/copyover"
	"github.com/dystopiamud/core/internal/core/system"
	"github.com/dystopiamud/core/internal/crashlog"
	"github.com/dystopiamud/core/internal/dispatch"
	"github.com/dystopiamud/core/internal/logging"
	"github.com/dystopiamud/core/internal/metrics"
	"github.com/dystopiamud/core/internal/namepolicy"
	"github.com/dystopiamud/core/internal/paths"
	"github.com/dystopiamud/core/internal/persist"
	"github.com/dystopiamud/core/internal/scheduler"
	"github.com/dystopiamud/core/internal/scripting"
	"github.com/dystopiamud/core/internal/session"
	"github.com/dystopiamud/core/internal/world"
	"go.uber.org/zap"
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintf(os.Stderr, "fatal: %v\n", err)
		os.Exit(1)
	}
}

func printBanner(name string) {
	fmt.Println()
	fmt.Println("  -- dystopiamud core --")
	fmt.Printf("  server: %s\n\n", name)
}

func printSection(title string) { fmt.Printf("  -- %s --\n", title) }
func printOK(msg string)        { fmt.Printf("  [ok] %s\n", msg) }
func printReady(msg string)     { fmt.Printf("  [ready] %s\n", msg) }

func run() error {
	cfgPath := "config/server.toml"
	if p := os.Getenv("MUDCORE_CONFIG"); p != "" {
		cfgPath = p
	}
	cfg, err := config.Load(cfgPath)
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}

	log, err := logging.New(cfg.Logging)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	defer log.Sync()

	printBanner(cfg.Server.Name)

	layout := paths.New(cfg.Server.BaseDir)
	for _, dir := range []string{layout.RunDir(), layout.LogDir(), layout.AreaDir(), layout.PlayerDir(), layout.BackupDir(), layout.ScriptsDir(), layout.DataDir()} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create %s: %w", dir, err)
		}
	}

	crash := crashlog.New(layout, log)
	crash.CheckPriorCrash()

	printSection("database")
	acctCtx, acctCancel := context.WithTimeout(context.Background(), 30*time.Second)
	accounts, err := persist.OpenAccounts(acctCtx, cfg.Persistence.AccountsDSN)
	acctCancel()
	if err != nil {
		return fmt.Errorf("open accounts db: %w", err)
	}
	defer accounts.Close()

	migrateCtx, migrateCancel := context.WithTimeout(context.Background(), 30*time.Second)
	err = persist.RunMigrations(migrateCtx, accounts.DB())
	migrateCancel()
	if err != nil {
		return fmt.Errorf("run migrations: %w", err)
	}
	printOK("accounts database ready")

	w := world.NewWorld()

	printSection("world")
	areaCount, err := loadAreas(layout, w)
	if err != nil {
		return fmt.Errorf("load areas: %w", err)
	}
	fmt.Printf("  areas loaded: %d\n", areaCount)
	w.Areas.Each(func(_ world.VNum, a *world.Area) { w.ResetArea(a, true) })

	names, err := namepolicy.Load(filepath.Join(layout.DataDir(), "namepolicy.yaml"))
	if err != nil {
		return fmt.Errorf("load name policy: %w", err)
	}

	engine, err := scripting.NewEngine(layout.ScriptsDir(), log)
	if err != nil {
		return fmt.Errorf("load scripts: %w", err)
	}
	defer engine.Close()

	m := metrics.New(cfg.Server.Name)

	netServer, recoveredNames, err := bringUpListener(cfg, log)
	if err != nil {
		return fmt.Errorf("bring up listener: %w", err)
	}
	go netServer.AcceptLoop()
	printReady(fmt.Sprintf("listening on %s", netServer.Addr().String()))

	table := dispatch.NewTable()
	disp := dispatch.New(table, log)
	manager := session.NewManager(accounts, w, names, disp, 2*time.Minute, log)

	var persistSys *scheduler.PersistSystem
	commands.Register(table, commands.Dependencies{
		World: w,
		RequestQuit: func(id world.PlayerID) {
			w.RemovePlayer(id)
			for _, sess := range manager.Sessions() {
				if sess.Player != nil && sess.Player.ID == id {
					sess.Desc.Close()
				}
			}
		},
		RequestSave: func(world.PlayerID) {
			if persistSys != nil {
				persistSys.SaveAllPlayers()
			}
		},
		Broadcast: func(room world.VNum, exclude world.PlayerID, line string) {
			for _, sess := range manager.Sessions() {
				if sess.Player == nil || sess.Player.ID == exclude || sess.Player.Room != room {
					continue
				}
				sess.Send(line)
			}
		},
		Scripts: engine,
	})

	bw := persist.NewBackgroundWriter(log)

	runner := system.NewRunner()
	acceptSys := scheduler.NewAcceptSystem(netServer, manager, log)
	runner.Register(acceptSys)
	runner.Register(scheduler.NewInputSystem(manager, w, cfg.Network.MaxLinesPerPulse))
	runner.Register(scheduler.NewWorldUpdateSystem(w))
	runner.Register(scheduler.NewOutputSystem(manager))
	persistSys = scheduler.NewPersistSystem(w, layout, bw, m, cfg.Persistence.AutoSaveEvery, log)
	runner.Register(persistSys)
	runner.Register(scheduler.NewCleanupSystem(w))

	for id, name := range recoveredNames {
		acceptSys.NoteName(id, name)
	}

	basePulse := time.Second / time.Duration(cfg.Pulse.PulsesPerSecond)
	sched := scheduler.New(runner, crash, m, basePulse, cfg.Pulse.BudgetWarn, cfg.Pulse.WarningInterval, log)
	sched.SetSpeed(cfg.Pulse.SpeedMultiplier)

	if cfg.Metrics.Enabled {
		metricsCtx, metricsCancel := context.WithCancel(context.Background())
		defer metricsCancel()
		if _, err := metrics.Serve(metricsCtx, cfg.Metrics.BindAddress, m); err != nil {
			log.Warn("metrics server not started", zap.Error(err))
		} else {
			printReady(fmt.Sprintf("metrics on %s", cfg.Metrics.BindAddress))
		}
	}

	runCtx, runCancel := context.WithCancel(context.Background())
	go sched.Run(runCtx)
	printReady("pulse scheduler started")
	fmt.Println()

	shutdownCh := make(chan os.Signal, 1)
	signal.Notify(shutdownCh, syscall.SIGINT, syscall.SIGTERM)

	sig := <-shutdownCh
	log.Info("shutting down", zap.String("signal", sig.String()))
	runCancel()
	persistSys.SaveAllPlayers()
	bw.WaitIdle()
	netServer.Shutdown()
	log.Info("shutdown complete")
	return nil
}

// loadAreas opens every vnum-named *.db file under the area directory and
// brings its rooms, prototypes, resets, and attached scripts into w,
// matching original_source db.c's boot_db scan of area files.
func loadAreas(layout paths.Layout, w *world.World) (int, error) {
	entries, err := os.ReadDir(layout.AreaDir())
	if err != nil {
		if os.IsNotExist(err) {
			return 0, nil
		}
		return 0, err
	}
	count := 0
	for _, entry := range entries {
		if entry.IsDir() || filepath.Ext(entry.Name()) != ".db" {
			continue
		}
		if _, err := strconv.Atoi(strings.TrimSuffix(entry.Name(), ".db")); err != nil {
			continue
		}
		path := filepath.Join(layout.AreaDir(), entry.Name())
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		_, err := persist.LoadArea(ctx, path, w)
		cancel()
		if err != nil {
			return count, fmt.Errorf("load area %s: %w", path, err)
		}
		count++
	}
	return count, nil
}

// bringUpListener starts a fresh listener, unless invoked as
// "mudcore copyover <handoff-path>", in which case it rebinds the
// configured address and recovers every descriptor named in the handoff
// file instead of starting cold.
func bringUpListener(cfg *config.Config, log *zap.Logger) (*conn.Server, map[uint64]string, error) {
	if len(os.Args) >= 3 && os.Args[1] == copyover.Sentinel {
		return resumeFromCopyover(os.Args[2], cfg, log)
	}
	srv, err := conn.NewServer(cfg.Network.BindAddress, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, cfg.Network.RepeatFloodLimit, log)
	if err != nil {
		return nil, nil, err
	}
	return srv, nil, nil
}

func resumeFromCopyover(handoffPath string, cfg *config.Config, log *zap.Logger) (*conn.Server, map[uint64]string, error) {
	_, entries, err := copyover.Parse(handoffPath)
	if err != nil {
		return nil, nil, fmt.Errorf("parse copyover handoff: %w", err)
	}
	os.Remove(handoffPath)

	ln, err := net.Listen("tcp", cfg.Network.BindAddress)
	if err != nil {
		return nil, nil, fmt.Errorf("rebind %s after copyover: %w", cfg.Network.BindAddress, err)
	}
	srv := conn.NewServerFromListener(ln, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, cfg.Network.RepeatFloodLimit, log)

	names := make(map[uint64]string, len(entries))
	for i, e := range entries {
		id := uint64(i + 1)
		d, err := conn.NewDescriptorFromFD(id, e.FD, e.Host, cfg.Network.InQueueSize, cfg.Network.OutQueueSize, cfg.Network.RepeatFloodLimit, log)
		if err != nil {
			log.Warn("failed to recover copyover descriptor", zap.String("name", e.Name), zap.Error(err))
			continue
		}
		d.Start()
		srv.InjectRecovered(d)
		names[id] = e.Name
		log.Info("recovered descriptor across copyover", zap.String("name", e.Name), zap.String("ip", e.Host))
	}
	srv.SeedNextID(uint64(len(entries)) + 1)
	return srv, names, nil
}
