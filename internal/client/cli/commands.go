package cli

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/healthsync/internal/client/export"
	"github.com/dmitrijs2005/healthsync/internal/client/models"
	"github.com/dmitrijs2005/healthsync/internal/client/notify"
	"github.com/dmitrijs2005/healthsync/internal/common"
)

const (
	minPlausibleTemp = 35.0
	maxPlausibleTemp = 42.0
)

var ErrUsage = errors.New("usage")

func (a *App) List(ctx context.Context) error {
	printlnFn(renderTable(a.rng, a.session.Snapshot()))
	return nil
}

// Set edits one field of one day and hands the whole table to the session.
func (a *App) Set(ctx context.Context, args []string) error {
	if len(args) != 3 {
		return fmt.Errorf("%w: set <DD.MM> <morning|evening|pain> <value>", ErrUsage)
	}
	label, field, value := args[0], strings.ToLower(args[1]), args[2]

	if !a.rng.Contains(label) {
		return fmt.Errorf("%s is outside %s", label, a.rng)
	}

	m := a.rng.Snapshot(a.session.Snapshot())
	r := m[label]

	switch field {
	case "morning", "m":
		r.MorningTemp = tempValue(value)
		a.warnImplausible(r.MorningTemp)
	case "evening", "e":
		r.EveningTemp = tempValue(value)
		a.warnImplausible(r.EveningTemp)
	case "pain", "p":
		pain, err := parsePain(value)
		if err != nil {
			return err
		}
		r.Pain = pain
	default:
		return fmt.Errorf("unknown field %q", field)
	}
	m[label] = r

	return a.save(ctx, m)
}

// Clear empties one day.
func (a *App) Clear(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: clear <DD.MM>", ErrUsage)
	}
	if !a.rng.Contains(args[0]) {
		return fmt.Errorf("%s is outside %s", args[0], a.rng)
	}

	m := a.rng.Snapshot(a.session.Snapshot())
	m[args[0]] = models.Reading{}
	return a.save(ctx, m)
}

func (a *App) save(ctx context.Context, m models.RecordMapping) error {
	if err := a.session.Edit(ctx, m); err != nil {
		printlnFn(errorStyle.Render("Storage unavailable, changes kept in memory"))
		return nil
	}
	printlnFn(renderTable(a.rng, m))
	return nil
}

// SyncID prints the current id or switches to the given one.
func (a *App) SyncID(ctx context.Context, args []string) error {
	if len(args) == 0 {
		id := a.session.Status().SyncID
		if id == "" {
			printlnFn("No sync id set")
			return nil
		}
		printlnFn("Sync ID:", id)
		return nil
	}
	if err := a.session.SetSyncID(ctx, args[0]); err != nil {
		return err
	}
	printlnFn(okStyle.Render("Sync ID set"))
	return nil
}

func (a *App) GenSync(ctx context.Context) error {
	id, err := a.session.GenerateSyncID(ctx)
	if err != nil {
		return err
	}
	printlnFn(okStyle.Render("New ID created:"), id)
	return nil
}

func (a *App) Sync(ctx context.Context) error {
	err := a.session.Sync(ctx)
	switch {
	case errors.Is(err, common.ErrRemoteUnavailable):
		printlnFn(errorStyle.Render("Cloud sync unavailable, working offline"))
		return nil
	case errors.Is(err, common.ErrInvalidSyncID):
		printlnFn("Set a sync id first (syncid <id> or gensync)")
		return nil
	case err != nil:
		return err
	}
	printlnFn(okStyle.Render("Data synced"))
	return nil
}

func (a *App) Status(ctx context.Context) error {
	st := a.session.Status()
	id := st.SyncID
	if id == "" {
		id = "-"
	}
	printlnFn("Mode:      ", st.Mode)
	printlnFn("Sync ID:   ", id)
	printlnFn("Push:      ", st.Push)
	printlnFn("Subscribed:", st.Subscribed)
	printlnFn("Period:    ", a.rng)
	if line := a.board.Line(); line != "" {
		printlnFn("Notices:   ", line)
	}
	return nil
}

// Export writes the table as JSON or PDF. The path defaults to the
// standard file name in the working directory.
func (a *App) Export(ctx context.Context, args []string) error {
	if len(args) < 1 || len(args) > 2 {
		return fmt.Errorf("%w: export json|pdf [path]", ErrUsage)
	}

	m := a.session.Snapshot()
	var path string
	var err error

	switch strings.ToLower(args[0]) {
	case "json":
		path = pathArg(args, export.DefaultJSONFile)
		err = export.SaveJSON(path, m)
	case "pdf":
		path = pathArg(args, export.DefaultPDFFile)
		err = export.SavePDF(path, a.rng, m)
	default:
		return fmt.Errorf("unknown export format %q", args[0])
	}
	if err != nil {
		a.notifySave(ctx, notify.KindError, "Export failed")
		return err
	}

	a.logger.Info(ctx, "exported", "format", args[0], "path", path)
	a.notifySave(ctx, notify.KindSuccess, "Data exported")
	printlnFn("Written to", filepath.Clean(path))
	return nil
}

// Import replaces the whole table with the mapping stored in a JSON file.
func (a *App) Import(ctx context.Context, args []string) error {
	if len(args) != 1 {
		return fmt.Errorf("%w: import <path>", ErrUsage)
	}

	m, err := export.LoadJSON(args[0])
	if err != nil {
		if errors.Is(err, common.ErrImportMalformed) {
			a.notifySave(ctx, notify.KindError, "Import error")
			printlnFn(errorStyle.Render("Import error"))
			return nil
		}
		return err
	}

	if err := a.session.Import(ctx, m); err != nil {
		printlnFn(errorStyle.Render("Storage unavailable, changes kept in memory"))
		return nil
	}
	printlnFn(renderTable(a.rng, m))
	printlnFn(okStyle.Render("Data imported"))
	return nil
}

// notifySave reports outcomes the session does not produce itself.
func (a *App) notifySave(ctx context.Context, kind notify.Kind, msg string) {
	a.board.Notify(ctx, notify.Status{Channel: notify.ChannelSave, Kind: kind, Message: msg})
}

func pathArg(args []string, def string) string {
	if len(args) == 2 {
		return args[1]
	}
	return def
}

// tempValue keeps the typed text; "-" clears the field.
func tempValue(v string) string {
	if v == "-" {
		return ""
	}
	return v
}

func (a *App) warnImplausible(v string) {
	if v == "" {
		return
	}
	f, err := strconv.ParseFloat(strings.Replace(v, ",", ".", 1), 64)
	if err != nil || f < minPlausibleTemp || f > maxPlausibleTemp {
		printlnFn(errorStyle.Render(fmt.Sprintf("Warning: %q does not look like a body temperature", v)))
	}
}

func parsePain(v string) (bool, error) {
	switch strings.ToLower(v) {
	case "yes", "y", "true", "1":
		return true, nil
	case "no", "n", "false", "0", "-":
		return false, nil
	}
	return false, fmt.Errorf("pain must be yes or no, got %q", v)
}
