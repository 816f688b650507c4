package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/catalog"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/config"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/database"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/encryption"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/fs"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/mirror"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zenodo"
	"github.com/catalyst-cooperative/pudl-zenodo-storage/internal/zs"
)

// Options configure how the application logs and asks for secrets.
type Options struct {
	// LogLevel is one of debug, info, warn or error. Empty means info.
	LogLevel string

	// Verbose copies log output to Stderr.
	Verbose bool
	Stderr  io.Writer

	// Prompt asks for the token passphrase when ZS_TOKEN_PASSPHRASE is unset.
	// Nil disables prompting.
	Prompt PromptFunc

	// Clock and RunIDs default to wall time and random UUIDs.
	Clock  zs.Clock
	RunIDs zs.IDGenerator
}

// ArchiveRequest names the dataset and local files of one archive run.
type ArchiveRequest struct {
	Dataset string

	// Files are archived as given. Dir adds the regular files found directly
	// inside it.
	Files []string
	Dir   string

	Initialize bool
	DryRun     bool
	NoPublish  bool
}

// ZSApp is the application layer between the CLI and ArchiverService.
// It constructs all dependencies from config, exposes high-level operations
// that accept raw string paths, and records archive runs in the ledger.
// The caller must call Close when done.
type ZSApp struct {
	cfg      *config.Config
	opts     Options
	registry *catalog.Registry
	fsmgr    zs.FilesystemManager
	mirror   zs.Mirror
	ledger   zs.Ledger
	tokens   zs.TokenStore
	store    zs.Store
	logger   *slog.Logger
	logFile  *os.File
	runID    string
	runUsed  bool
}

// NewZSApp creates a ZSApp from the given config. The remote store is built
// on first use, so commands that never reach it need no access token.
func NewZSApp(cfg *config.Config, opts Options) (*ZSApp, error) {
	if opts.Clock == nil {
		opts.Clock = zs.RealClock{}
	}
	if opts.RunIDs == nil {
		opts.RunIDs = zs.UUIDGenerator{}
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}

	level, err := ParseLevel(opts.LogLevel)
	if err != nil {
		return nil, err
	}

	registry, err := catalog.Default()
	if err != nil {
		return nil, fmt.Errorf("loading dataset registry: %w", err)
	}

	runID := opts.RunIDs.New()
	var stderr io.Writer
	if opts.Verbose {
		stderr = opts.Stderr
	}
	logger, logFile, err := newLogger(cfg.LogDir, runID, level, stderr)
	if err != nil {
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	m, err := mirror.NewMirrorFromConfig(context.Background(), cfg.Mirror)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating mirror: %w", err)
	}

	ledger, err := database.NewLedgerFromConfig(cfg.Database, opts.Clock)
	if err != nil {
		logFile.Close()
		return nil, fmt.Errorf("creating database: %w", err)
	}

	a := &ZSApp{
		cfg:      cfg,
		opts:     opts,
		registry: registry,
		fsmgr:    fs.NewOSFilesystemManager(cfg.Filesystem.Ignore),
		mirror:   m,
		ledger:   ledger,
		logger:   logger,
		logFile:  logFile,
		runID:    runID,
	}

	if cfg.Zenodo.TokenFile != "" {
		a.tokens, err = encryption.NewTokenStoreFromConfig(cfg.Zenodo)
		if err != nil {
			a.Close()
			return nil, fmt.Errorf("creating token store: %w", err)
		}
	}

	return a, nil
}

// RunID identifies this invocation in the log and the ledger.
func (a *ZSApp) RunID() string {
	return a.runID
}

// Datasets returns every registered dataset in identifier order.
func (a *ZSApp) Datasets() ([]*zs.Dataset, error) {
	ids := a.registry.IDs()
	out := make([]*zs.Dataset, 0, len(ids))
	for _, id := range ids {
		ds, err := a.registry.Dataset(id)
		if err != nil {
			return nil, err
		}
		out = append(out, ds)
	}
	return out, nil
}

// Archive initializes or syncs the deposition of req.Dataset. Every run,
// including dry runs, is recorded in the ledger.
func (a *ZSApp) Archive(ctx context.Context, req ArchiveRequest) (*zs.Result, error) {
	ds, err := a.registry.Dataset(req.Dataset)
	if err != nil {
		return nil, err
	}

	paths, err := a.collectPaths(req)
	if err != nil {
		return nil, err
	}

	op, err := startOperation(a.ledger, a.nextRunID(), ds.ID, OperationName(req.Initialize, req.DryRun))
	if err != nil {
		return nil, err
	}

	res, runErr := a.archive(ctx, ds, paths, req)
	if runErr != nil {
		a.logger.Error("archive failed", "dataset", ds.ID, "error", runErr)
	}
	if err := op.finish(res, runErr); err != nil {
		if runErr != nil {
			return nil, errors.Join(runErr, err)
		}
		return res, err
	}
	return res, runErr
}

func (a *ZSApp) archive(ctx context.Context, ds *zs.Dataset, paths []string, req ArchiveRequest) (*zs.Result, error) {
	opts := zs.Options{DryRun: req.DryRun, NoPublish: req.NoPublish}

	// A dry-run initialize never reaches the remote store.
	var store zs.Store
	if !(req.Initialize && req.DryRun) {
		var err error
		if store, err = a.Store(); err != nil {
			return nil, err
		}
	}

	if a.mirror != nil && !req.DryRun {
		if err := a.mirror.ValidateSetup(); err != nil {
			a.logger.Warn("manifest mirror unavailable", "error", err)
		}
	}

	svc := zs.NewArchiverService(store, a.fsmgr, a.mirror, &slogAdapter{l: a.logger}, a.opts.Clock)
	a.logger.Info("archive started", "dataset", ds.ID, "files", len(paths), "initialize", req.Initialize, "dry_run", req.DryRun)

	if req.Initialize {
		return svc.Initialize(ctx, ds, paths, opts)
	}
	return svc.Sync(ctx, ds, paths, opts)
}

// nextRunID returns the invocation's run ID for the first archive run so the
// log and the ledger line up, and a fresh ID for any later run.
func (a *ZSApp) nextRunID() string {
	if !a.runUsed {
		a.runUsed = true
		return a.runID
	}
	return a.opts.RunIDs.New()
}

// collectPaths merges the explicit files with the listing of req.Dir.
func (a *ZSApp) collectPaths(req ArchiveRequest) ([]string, error) {
	paths := append([]string(nil), req.Files...)
	if req.Dir != "" {
		dir, err := a.fsmgr.Resolve(req.Dir)
		if err != nil {
			return nil, fmt.Errorf("resolving directory: %w", err)
		}
		if !dir.IsDir() {
			return nil, fmt.Errorf("not a directory: %s", dir.String())
		}
		found, err := a.fsmgr.FindFiles(dir)
		if err != nil {
			return nil, fmt.Errorf("listing %s: %w", dir.String(), err)
		}
		for _, p := range found {
			paths = append(paths, p.String())
		}
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("%w for %s", zs.ErrNoFiles, req.Dataset)
	}
	return paths, nil
}

// Store returns the remote store, building it on first call.
func (a *ZSApp) Store() (zs.Store, error) {
	if a.store != nil {
		return a.store, nil
	}

	var token string
	if a.cfg.Zenodo.Type != "memory" {
		var err error
		if token, err = a.resolveToken(); err != nil {
			return nil, err
		}
	}

	store, err := zenodo.NewStoreFromConfig(a.cfg.Zenodo, token, &slogAdapter{l: a.logger})
	if err != nil {
		return nil, fmt.Errorf("creating zenodo store: %w", err)
	}
	a.store = store
	return store, nil
}

// resolveToken returns the access token from the environment, or else
// decrypts the token file.
func (a *ZSApp) resolveToken() (string, error) {
	envName := a.cfg.Zenodo.TokenEnvName()
	if token := os.Getenv(envName); token != "" {
		a.logger.Debug("using access token from environment", "var", envName)
		return token, nil
	}

	if a.tokens == nil || !a.tokens.Exists() {
		return "", fmt.Errorf("%w: set %s or run 'zs token set'", ErrNoToken, envName)
	}

	passphrase := os.Getenv(EnvTokenPassphrase)
	if passphrase == "" {
		if a.opts.Prompt == nil {
			return "", fmt.Errorf("%w: token file is encrypted and %s is not set", ErrNoToken, EnvTokenPassphrase)
		}
		var err error
		if passphrase, err = a.opts.Prompt("Token passphrase: "); err != nil {
			return "", err
		}
	}

	token, err := a.tokens.Load(passphrase)
	if err != nil {
		return "", fmt.Errorf("decrypting token file: %w", err)
	}
	a.logger.Debug("using access token from token file")
	return token, nil
}

// SetToken encrypts token with passphrase into the configured token file.
func (a *ZSApp) SetToken(token, passphrase string) error {
	if a.tokens == nil {
		return fmt.Errorf("no token_file configured")
	}
	if token == "" {
		return fmt.Errorf("token must not be empty")
	}
	if passphrase == "" {
		return fmt.Errorf("passphrase must not be empty")
	}
	if err := a.tokens.Save(token, passphrase); err != nil {
		return fmt.Errorf("saving token: %w", err)
	}
	a.logger.Info("token saved", "file", a.cfg.Zenodo.TokenFile)
	return nil
}

// History returns the most recent runs recorded in the ledger.
func (a *ZSApp) History(limit int) ([]*zs.Run, error) {
	return a.ledger.ListRuns(limit)
}

// MirrorGet writes the mirrored manifest of a dataset version to w.
func (a *ZSApp) MirrorGet(dataset, version string, w io.Writer) error {
	if a.mirror == nil {
		return fmt.Errorf("no manifest mirror configured")
	}
	if _, err := a.registry.Dataset(dataset); err != nil {
		return err
	}
	return a.mirror.GetManifest(dataset, version, w)
}

// Close closes the ledger and the log file.
func (a *ZSApp) Close() error {
	var firstErr error
	if a.ledger != nil {
		if err := a.ledger.Close(); err != nil {
			firstErr = fmt.Errorf("closing database: %w", err)
		}
	}
	if a.logFile != nil {
		a.logFile.Close()
	}
	return firstErr
}
