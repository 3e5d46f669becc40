package sync

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/spf13/afero"

	"github.com/schaermu/tokensync/internal/config"
	"github.com/schaermu/tokensync/internal/naming"
	"github.com/schaermu/tokensync/internal/tokens"
)

const (
	dirPerm  = 0755
	filePerm = 0644
)

// Engine orchestrates the create and update processes
type Engine struct {
	cfg    *config.Config
	source tokens.Source
	fs     afero.Fs
	namer  naming.Namer
	logger *slog.Logger
	dryRun bool
}

// NewEngine creates a new sync engine operating on fs
func NewEngine(cfg *config.Config, source tokens.Source, fs afero.Fs, logger *slog.Logger, dryRun bool) *Engine {
	return &Engine{
		cfg:    cfg,
		source: source,
		fs:     fs,
		namer:  naming.New(cfg.Naming.Separator, cfg.Naming.Extension),
		logger: logger,
		dryRun: dryRun,
	}
}

// Create makes dir and fills it with one placeholder file per target name.
// It fails with ErrDirectoryExists if dir is already present.
func (e *Engine) Create(ctx context.Context, dir string) error {
	e.logger.Info("starting create", "dir", dir, "dry_run", e.dryRun)

	if _, err := e.fs.Stat(dir); err == nil {
		return fmt.Errorf("%w: %s", ErrDirectoryExists, dir)
	} else if !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, dir, err)
	}

	targets, err := e.targets(ctx)
	if err != nil {
		return err
	}

	plan := &Plan{Create: targets}
	e.logPlan(plan)

	if e.dryRun {
		e.logger.Info("[dry-run] would create directory", "dir", dir)
		e.logPlanDetails(plan)
		e.logger.Info("dry-run complete, no changes applied")
		return nil
	}

	if err := e.fs.Mkdir(dir, dirPerm); err != nil {
		if os.IsExist(err) {
			return fmt.Errorf("%w: %s", ErrDirectoryExists, dir)
		}
		return fmt.Errorf("%w: create directory %s: %w", ErrIO, dir, err)
	}

	if err := e.applyPlan(dir, plan); err != nil {
		return fmt.Errorf("failed to apply sync plan: %w", err)
	}

	e.logger.Info("create completed successfully", "dir", dir, "files", len(plan.Create))
	return nil
}

// Update reconciles the regular files in dir with the current target names.
// It fails with ErrDirectoryNotFound if dir is missing.
func (e *Engine) Update(ctx context.Context, dir string) error {
	e.logger.Info("starting update", "dir", dir, "dry_run", e.dryRun, "prune", e.cfg.PruneEnabled())

	locals, err := Snapshot(e.fs, dir)
	if err != nil {
		return err
	}
	e.logger.Info("discovered local files", "count", len(locals))

	targets, err := e.targets(ctx)
	if err != nil {
		return err
	}

	plan := e.buildPlan(targets, locals)
	e.logPlan(plan)

	if e.dryRun {
		e.logPlanDetails(plan)
		e.logger.Info("dry-run complete, no changes applied")
		return nil
	}

	if plan.Empty() {
		e.logger.Info("directory already up to date", "dir", dir)
		return nil
	}

	if err := e.applyPlan(dir, plan); err != nil {
		return fmt.Errorf("failed to apply sync plan: %w", err)
	}

	e.logger.Info("update completed successfully", "dir", dir)
	return nil
}

// targets fetches the tokens and derives the target names
func (e *Engine) targets(ctx context.Context) ([]string, error) {
	e.logger.Info("fetching tokens")
	toks, err := e.source.Fetch(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch tokens: %w", err)
	}

	for _, tok := range toks {
		if err := naming.CheckToken(tok); err != nil {
			return nil, fmt.Errorf("failed to fetch tokens: %w: %w", tokens.ErrNetwork, err)
		}
	}

	targets := e.namer.Targets(toks)
	for _, name := range targets {
		if err := naming.CheckName(name); err != nil {
			return nil, fmt.Errorf("failed to fetch tokens: %w: %w", tokens.ErrNetwork, err)
		}
	}
	e.logger.Info("computed target names", "tokens", len(toks), "targets", len(targets))
	return targets, nil
}

// buildPlan reconciles targets against locals and applies the prune policy
func (e *Engine) buildPlan(targets, locals []string) *Plan {
	plan := Reconcile(targets, locals, e.namer)
	if !e.cfg.PruneEnabled() {
		plan.Keep = plan.Delete
		plan.Delete = nil
	}
	return plan
}

// applyPlan executes the plan against dir. Renames run first so that no
// create lands on a name a rename still needs, and no delete removes a file
// that was only renamed.
func (e *Engine) applyPlan(dir string, plan *Plan) error {
	for _, op := range plan.Rename {
		e.logger.Info("renaming file", "from", op.From, "to", op.To)
		if err := e.renameFile(dir, op); err != nil {
			return err
		}
	}

	for _, name := range plan.Create {
		e.logger.Info("creating file", "name", name)
		if err := e.createFile(dir, name); err != nil {
			return err
		}
	}

	for _, name := range plan.Delete {
		e.logger.Info("deleting file", "name", name)
		path := filepath.Join(dir, name)
		if err := e.fs.Remove(path); err != nil {
			return fmt.Errorf("%w: delete %s: %w", ErrIO, path, err)
		}
	}

	for _, name := range plan.Keep {
		e.logger.Debug("keeping unmatched file", "name", name)
	}

	return nil
}

// createFile writes the placeholder content to dir/name. A symlink,
// directory or other non-regular entry already holding the name is never
// written through.
func (e *Engine) createFile(dir, name string) error {
	path := filepath.Join(dir, name)

	info, err := e.lstat(path)
	if err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, path, err)
	}
	if err == nil && !info.Mode().IsRegular() {
		return fmt.Errorf("%w: create %s: non-regular entry %s already exists", ErrIO, path, info.Mode().Type())
	}

	if err := afero.WriteFile(e.fs, path, []byte(e.cfg.Naming.Placeholder), filePerm); err != nil {
		return fmt.Errorf("%w: create %s: %w", ErrIO, path, err)
	}
	return nil
}

// lstat stats path without following a final symlink when fs supports it
func (e *Engine) lstat(path string) (os.FileInfo, error) {
	if lst, ok := e.fs.(afero.Lstater); ok {
		info, _, err := lst.LstatIfPossible(path)
		return info, err
	}
	return e.fs.Stat(path)
}

// renameFile moves dir/op.From to dir/op.To, refusing to overwrite
func (e *Engine) renameFile(dir string, op RenameOp) error {
	from := filepath.Join(dir, op.From)
	to := filepath.Join(dir, op.To)

	exists, err := afero.Exists(e.fs, to)
	if err != nil {
		return fmt.Errorf("%w: stat %s: %w", ErrIO, to, err)
	}
	if exists {
		return fmt.Errorf("%w: rename %s: destination %s already exists", ErrIO, from, to)
	}

	if err := e.fs.Rename(from, to); err != nil {
		return fmt.Errorf("%w: rename %s to %s: %w", ErrIO, from, to, err)
	}
	return nil
}

// logPlan logs the operation counts of a plan
func (e *Engine) logPlan(plan *Plan) {
	e.logger.Info("sync plan",
		"rename", len(plan.Rename),
		"create", len(plan.Create),
		"delete", len(plan.Delete),
		"keep", len(plan.Keep))
}

// logPlanDetails logs detailed plan information for dry-run
func (e *Engine) logPlanDetails(plan *Plan) {
	for _, op := range plan.Rename {
		e.logger.Info("[dry-run] would rename", "from", op.From, "to", op.To)
	}
	for _, name := range plan.Create {
		e.logger.Info("[dry-run] would create", "name", name)
	}
	for _, name := range plan.Delete {
		e.logger.Info("[dry-run] would delete", "name", name)
	}
	for _, name := range plan.Keep {
		e.logger.Info("[dry-run] would keep", "name", name)
	}
}
