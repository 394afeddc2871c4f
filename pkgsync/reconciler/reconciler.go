// Package reconciler converges each package manager toward its manifest.
package reconciler

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/steelcutops/pkgsync/logger"
	"github.com/steelcutops/pkgsync/pkgsync/executor"
	"github.com/steelcutops/pkgsync/pkgsync/manifest"
	pm "github.com/steelcutops/pkgsync/pkgsync/packagemanager"
	"github.com/steelcutops/pkgsync/pkgsync/statemanager"
)

// State is where a manager's reconciliation stopped or currently is.
type State int

const (
	Idle State = iota
	CacheLoaded
	Diffed
	NoOp
	AwaitingConfirmation
	Executed
	Committed
	Stale
	// Skipped means the manifest does not exist. Nothing is touched.
	Skipped
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case CacheLoaded:
		return "cache loaded"
	case Diffed:
		return "diffed"
	case NoOp:
		return "no-op"
	case AwaitingConfirmation:
		return "awaiting confirmation"
	case Executed:
		return "executed"
	case Committed:
		return "committed"
	case Stale:
		return "stale"
	case Skipped:
		return "skipped"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Executor applies a diff for one manager.
type Executor interface {
	Execute(ctx context.Context, cfg pm.Config, changes manifest.Changes) executor.Outcome
}

type Reconciler struct {
	// Root is the manifest root directory.
	Root     string
	States   statemanager.StateManager
	Executor Executor
	Logger   logger.Logger
	// Out receives the human readable report.
	Out io.Writer
}

func New(root string, states statemanager.StateManager, exec Executor, l logger.Logger) *Reconciler {
	if l == nil {
		l = logger.NewNop()
	}
	return &Reconciler{
		Root:     root,
		States:   states,
		Executor: exec,
		Logger:   l,
		Out:      io.Discard,
	}
}

// Run reconciles the managers one after the other. A failing manager never
// stops the others.
func (r *Reconciler) Run(ctx context.Context, configs []pm.Config) Report {
	var report Report
	for _, cfg := range configs {
		if err := ctx.Err(); err != nil {
			report.Results = append(report.Results, Result{
				Key:          cfg.Key,
				ManifestPath: cfg.ManifestPath,
				State:        Stale,
				ExitCode:     1,
				Err:          err,
			})
			continue
		}
		report.Results = append(report.Results, r.Reconcile(ctx, cfg))
	}
	return report
}

// Reconcile runs one manager through the state machine.
func (r *Reconciler) Reconcile(ctx context.Context, cfg pm.Config) Result {
	res := Result{Key: cfg.Key, ManifestPath: cfg.ManifestPath, State: Idle}
	log := r.Logger.With("manager", cfg.Key, "manifest", cfg.ManifestPath)

	manifestPath := filepath.Join(r.Root, cfg.ManifestPath)
	if _, err := os.Stat(manifestPath); errors.Is(err, os.ErrNotExist) {
		log.Warn("Manifest not found, skipping", "path", manifestPath)
		fmt.Fprintf(r.out(), "We don't find the package list at %s.\n", manifestPath)
		res.State = Skipped
		res.Err = fmt.Errorf("%w: %s", manifest.ErrManifestNotFound, manifestPath)
		return res
	}

	unlock, err := r.States.Lock(ctx, cfg.ManifestPath)
	if err != nil {
		return res.stale(1, err)
	}
	defer func() {
		if err := unlock(); err != nil {
			log.Warn("Failed to release cache lock", "error", err)
		}
	}()

	// The manifest is read once. The same bytes are diffed, executed and
	// committed, so later edits wait for the next run.
	data, err := os.ReadFile(manifestPath)
	if err != nil {
		return res.stale(1, fmt.Errorf("read manifest: %w", err))
	}
	desired, err := manifest.ParseReader(bytes.NewReader(data))
	if err != nil {
		return res.stale(1, fmt.Errorf("parse manifest %s: %w", manifestPath, err))
	}

	cached, err := r.loadCache(ctx, cfg, data, &res)
	if err != nil {
		return res.stale(1, err)
	}
	res.State = CacheLoaded

	res.Changes = manifest.Diff(cached.Packages, desired)
	res.State = Diffed
	log.Debug("Computed diff",
		"install", res.Changes.ToInstall.String(),
		"delete", res.Changes.ToDelete.String())
	printChanges(r.out(), cfg.ManifestPath, res.Changes)

	if res.Changes.Empty() {
		res.State = NoOp
		return res
	}

	res.State = AwaitingConfirmation
	res.Outcome = r.Executor.Execute(ctx, cfg, res.Changes)
	res.State = Executed
	if !res.Outcome.Success() {
		return res.stale(res.Outcome.ExitCode, res.Outcome.Err)
	}

	if err := r.States.Commit(ctx, cfg.ManifestPath, data); err != nil {
		return res.stale(1, fmt.Errorf("commit cache: %w", err))
	}
	res.State = Committed
	log.Info("Manager synchronized")
	return res
}

func (r *Reconciler) loadCache(ctx context.Context, cfg pm.Config, data []byte, res *Result) (statemanager.State, error) {
	state, err := r.States.Load(ctx, cfg.ManifestPath)
	if !errors.Is(err, statemanager.ErrNotFound) {
		return state, err
	}

	fmt.Fprintf(r.out(), "No cache for %s. Will initialize one.\n", cfg.ManifestPath)
	if err := r.States.Bootstrap(ctx, cfg.ManifestPath, data); err != nil {
		return statemanager.State{}, fmt.Errorf("bootstrap cache: %w", err)
	}
	res.Bootstrapped = true
	return r.States.Load(ctx, cfg.ManifestPath)
}

func (r *Reconciler) out() io.Writer {
	if r.Out == nil {
		return io.Discard
	}
	return r.Out
}
