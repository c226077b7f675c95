package cli

import (
	"bufio"
	"context"
	"database/sql"
	"fmt"
	"os"
	"time"

	"github.com/dmitrijs2005/healthsync/internal/client/config"
	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/client/notify"
	"github.com/dmitrijs2005/healthsync/internal/client/remote"
	"github.com/dmitrijs2005/healthsync/internal/client/store"
	"github.com/dmitrijs2005/healthsync/internal/client/syncer"
	"github.com/dmitrijs2005/healthsync/internal/filex"
	"github.com/dmitrijs2005/healthsync/internal/logging"
	"golang.org/x/term"
)

type App struct {
	config  *config.Config
	logger  logging.Logger
	db      *sql.DB
	remote  remote.Remote
	store   *store.Store
	session *syncer.Session
	board   *notify.Board
	rng     models.DateRange

	interactive bool
}

// NewApp opens the local database and the configured remote, then starts a
// sync session over them.
func NewApp(ctx context.Context, c *config.Config, logger logging.Logger) (*App, error) {
	if _, err := filex.EnsureDir(c.DBPath); err != nil {
		return nil, fmt.Errorf("prepare db dir: %w", err)
	}

	db, err := store.OpenDatabase(ctx, c.DBPath)
	if err != nil {
		logger.Error(ctx, "error initializing database", "error", err)
		return nil, err
	}

	r, err := remote.New(ctx, c, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	a, err := newApp(ctx, c, logger, db, r)
	if err != nil {
		_ = r.Close()
		_ = db.Close()
		return nil, err
	}
	a.interactive = term.IsTerminal(int(os.Stdin.Fd()))
	return a, nil
}

func newApp(ctx context.Context, c *config.Config, logger logging.Logger, db *sql.DB, r remote.Remote) (*App, error) {
	rng, err := tableRange(c, time.Now())
	if err != nil {
		return nil, err
	}

	a := &App{
		config: c,
		logger: logger.With("module", "cli"),
		db:     db,
		remote: r,
		store:  store.Open(ctx, db, logger),
		board:  notify.NewBoard(c.NoticeTTL, logger),
		rng:    rng,
	}

	a.session, err = syncer.Open(ctx, syncer.Options{
		Store:         a.store,
		Remote:        r,
		Notifier:      a.board,
		Logger:        logger,
		OnRemoteApply: a.onRemoteApply,
		Debounce:      c.PushDebounce,
		PushTimeout:   c.PushTimeout,
		PingTimeout:   c.PingTimeout,
	})
	if err != nil {
		return nil, err
	}
	return a, nil
}

// tableRange resolves the configured period. An empty start means the
// default October window of now's year.
func tableRange(c *config.Config, now time.Time) (models.DateRange, error) {
	if c.RangeStart == "" {
		rng := models.DefaultRange(now.Year())
		if c.RangeDays > 0 {
			rng.Days = c.RangeDays
		}
		return rng, nil
	}
	return models.ParseRange(c.RangeStart, c.RangeDays)
}

// Run prints the table and serves commands from stdin until EOF, exit or
// ctx cancellation.
func (a *App) Run(ctx context.Context) {
	printlnFn(renderTable(a.rng, a.session.Snapshot()))
	if line := a.board.Line(); line != "" {
		printlnFn(line)
	}

	done := make(chan struct{})
	go func() {
		defer close(done)
		runREPL(ctx, a, a.prompt, bufio.NewScanner(os.Stdin))
	}()

	// A blocked stdin read cannot be interrupted; on cancellation the
	// reader goroutine is left behind and the process exits.
	select {
	case <-done:
	case <-ctx.Done():
	}
}

func (a *App) prompt() string {
	if !a.interactive {
		return ""
	}
	st := a.session.Status()
	p := fmt.Sprintf("[%s", st.Mode)
	if st.SyncID != "" {
		p += " " + st.SyncID
	}
	p += "]"
	if line := a.board.Line(); line != "" {
		p += " " + line
	}
	return p + " >"
}

func (a *App) onRemoteApply(m models.RecordMapping) {
	printlnFn()
	printlnFn(renderTable(a.rng, m))
	printlnFn(okStyle.Render("Data updated from cloud"))
}

// Close ends the session, flushing a pending push, and releases the
// remote and the database.
func (a *App) Close(ctx context.Context) error {
	err := a.session.Close(ctx)
	if cerr := a.remote.Close(); cerr != nil {
		a.logger.Warn(ctx, "remote close failed", "error", cerr)
	}
	if cerr := a.db.Close(); cerr != nil && err == nil {
		err = cerr
	}
	return err
}
