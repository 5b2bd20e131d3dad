package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/charmbracelet/huh"
	"github.com/spf13/afero"
	"golang.org/x/term"

	"github.com/bolasblack/taskstodo/internal/auth"
	"github.com/bolasblack/taskstodo/internal/config"
	"github.com/bolasblack/taskstodo/internal/lock"
	"github.com/bolasblack/taskstodo/internal/remote"
	"github.com/bolasblack/taskstodo/internal/state"
	"github.com/bolasblack/taskstodo/internal/sync"
	"github.com/bolasblack/taskstodo/internal/todo"
	"github.com/bolasblack/taskstodo/internal/util"
)

// remoteBackend is what the commands need from a remote.
type remoteBackend interface {
	remote.Store
	remote.Lister
	remote.Manager
}

// Replaced in tests.
var (
	appFs afero.Fs = afero.NewOsFs()

	isInteractive = func() bool {
		return term.IsTerminal(int(os.Stdin.Fd()))
	}

	newRemote = newGoogleRemote
)

// app bundles what every command builds from the configuration.
type app struct {
	cfg      config.Config
	env      *util.Env
	closeLog func() error
}

// loadApp loads the configuration and sets up logging. stderr receives
// log output in verbose mode when no log file is configured.
func loadApp(stderr io.Writer) (*app, error) {
	cfg, err := config.LoadConfig(appFs, configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	logger, closeLog := util.NewLogger(util.LogOptions{
		File:       cfg.Log.File,
		MaxSizeMB:  cfg.Log.MaxSizeMB,
		MaxBackups: cfg.Log.MaxBackups,
		Verbose:    verbose,
	}, stderr)

	return &app{cfg: cfg, env: util.NewEnv(appFs, logger), closeLog: closeLog}, nil
}

func (a *app) Close() {
	_ = a.closeLog()
}

func (a *app) lock() *lock.Lock {
	return lock.New(a.env.Fs, filepath.Join(a.cfg.Data.Dir, lock.Filename))
}

func (a *app) localStore() *todo.Store {
	return todo.New(a.env.Fs, a.cfg.Calcurse.Dir)
}

func (a *app) engine(rs remote.Store) *sync.Engine {
	return sync.NewEngine(a.env, a.localStore(), rs, state.New(a.env.Fs, a.cfg.Data.Dir), a.lock())
}

// newGoogleRemote authorizes against Google and returns the Tasks adapter.
// The browser consent flow only runs on an interactive terminal.
func newGoogleRemote(ctx context.Context, a *app, prompt io.Writer) (remoteBackend, error) {
	au := auth.New(a.env.Fs, a.cfg.Remote.CredentialsFile, a.cfg.Remote.TokenFile)
	if isInteractive() {
		au.Authorize = auth.LoopbackFlow(prompt, nil)
	}
	client, err := au.Client(ctx)
	if err != nil {
		return nil, err
	}

	return remote.NewGoogleStore(ctx, client, remote.NewListCache(a.env.Fs, a.cfg.Data.Dir), remote.Options{
		CreateWorkers: a.cfg.Remote.CreateWorkers,
		SubmitDelay:   a.cfg.Remote.SubmitDelay.Duration,
		Logger:        a.env.Logger,
	})
}

// withSelection calls fn with sel. If the title is ambiguous and the
// terminal is interactive, the user picks a list and fn runs again.
func withSelection[T any](sel remote.Selector, fn func(remote.Selector) (T, error)) (T, error) {
	res, err := fn(sel)

	var amb *remote.AmbiguousListError
	if err == nil || !errors.As(err, &amb) || !isInteractive() {
		return res, err
	}

	n, perr := promptListNumber(amb)
	if perr != nil {
		return res, fmt.Errorf("list selection cancelled: %w", perr)
	}
	sel.Index = n
	return fn(sel)
}

func promptListNumber(amb *remote.AmbiguousListError) (int, error) {
	options := make([]huh.Option[int], 0, len(amb.Candidates))
	for i, l := range amb.Candidates {
		options = append(options, huh.NewOption(fmt.Sprintf("%d. %s (ID: %s)", i+1, l.Title, l.ID), i+1))
	}

	var n int
	err := huh.NewSelect[int]().
		Title(fmt.Sprintf("Several task lists are titled %q", amb.Title)).
		Options(options...).
		Value(&n).
		Run()
	return n, err
}

// timeoutRunner applies the configured per-run deadline to every watch run.
type timeoutRunner struct {
	sync.Runner
	a *app
}

func (r timeoutRunner) Run(ctx context.Context, sel remote.Selector) (*sync.Result, error) {
	ctx, cancel := r.a.withTimeout(ctx)
	defer cancel()
	return r.Runner.Run(ctx, sel)
}

// withTimeout applies the configured per-run deadline, if any.
func (a *app) withTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	if d := a.cfg.Remote.Timeout.Duration; d > 0 {
		return context.WithTimeout(ctx, d)
	}
	return context.WithCancel(ctx)
}
