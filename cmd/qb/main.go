package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/caarlos0/env/v11"
	tea "github.com/charmbracelet/bubbletea"
	"golang.org/x/sync/errgroup"
	"golang.org/x/term"

	"github.com/tablemark/quickbar/pkg/dice"
	"github.com/tablemark/quickbar/pkg/grouping"
	"github.com/tablemark/quickbar/pkg/host"
	"github.com/tablemark/quickbar/pkg/panel"
	"github.com/tablemark/quickbar/pkg/table"
	"github.com/tablemark/quickbar/pkg/ui"
	"github.com/tablemark/quickbar/pkg/watcher"
)

// Config is read from the environment; flags override it.
type Config struct {
	Dir    string `env:"QB_DIR" envDefault:"."`
	DBPath string `env:"QB_DB"`
	Token  string `env:"QB_TOKEN"`
	Locale string `env:"QB_LOCALE" envDefault:"en"`
	Seed   int64  `env:"QB_SEED"`
}

func main() {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		fmt.Printf("Error reading environment: %v\n", err)
		os.Exit(1)
	}

	dir := flag.String("dir", cfg.Dir, "Campaign directory containing table.yaml")
	dbPath := flag.String("db", cfg.DBPath, "Path to the quickbar database (default <dir>/quickbar.db)")
	token := flag.String("token", cfg.Token, "Token ID to bind at startup")
	locale := flag.String("locale", cfg.Locale, "BCP 47 locale tag for name sorting")
	seed := flag.Int64("seed", cfg.Seed, "Dice seed (0 seeds from the clock)")
	help := flag.Bool("help", false, "Show help")
	version := flag.Bool("version", false, "Show version")
	flag.Parse()

	if *help {
		fmt.Println("Usage: qb [options]")
		fmt.Println("\nA quick-action dashboard for your token at the table.")
		flag.PrintDefaults()
		os.Exit(0)
	}

	if *version {
		fmt.Println("qb version 0.1.0")
		os.Exit(0)
	}

	if !term.IsTerminal(int(os.Stdout.Fd())) {
		fmt.Println("qb needs an interactive terminal.")
		os.Exit(1)
	}

	if *dbPath == "" {
		*dbPath = filepath.Join(*dir, "quickbar.db")
	}
	if *seed == 0 {
		*seed = time.Now().UnixNano()
	}

	store, err := host.OpenStore(*dbPath)
	if err != nil {
		fmt.Printf("Error opening database: %v\n", err)
		os.Exit(1)
	}
	defer store.Close()

	bus := host.NewBus()
	tbl, skipped, err := table.Load(*dir, bus)
	if err != nil {
		fmt.Printf("Error loading table: %v\n", err)
		fmt.Println("Make sure the directory contains a table.yaml.")
		os.Exit(1)
	}
	if skipped > 0 {
		fmt.Printf("Warning: %d actor file(s) could not be read and were skipped.\n", skipped)
	}

	// Warnings and errors surface in the panel's status bar instead of
	// corrupting the alternate screen.
	handler := ui.NewStatusLogHandler(slog.LevelWarn)
	log := slog.New(handler)
	notify := ui.NewProgramNotifier()

	service := panel.NewService(nil)
	ctrl := service.Open(panel.Deps{
		Registry: tbl,
		Writer:   tbl,
		Bus:      bus,
		Flags:    store,
		Settings: store.SettingsView(),
		Rolls:    dice.NewEngine(*seed),
		Notify:   notify,
		Log:      log,
		Collator: grouping.NewCollator(*locale),
	}, *token)

	p := tea.NewProgram(ctrl, tea.WithAltScreen(), tea.WithMouseAllMotion())
	ctrl.SetSend(p.Send)
	handler.SetProgram(p)
	notify.SetProgram(p)

	ctx, cancel := context.WithCancel(context.Background())
	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		err := watcher.WatchTable(ctx, *dir, log, func() error {
			return table.Reload(tbl, *dir)
		})
		if err != nil && ctx.Err() == nil {
			return err
		}
		return nil
	})

	_, runErr := p.Run()
	cancel()
	service.Close()
	if err := g.Wait(); err != nil {
		fmt.Printf("Watcher error: %v\n", err)
	}
	if runErr != nil {
		fmt.Printf("Error running quickbar: %v\n", runErr)
		os.Exit(1)
	}
}
