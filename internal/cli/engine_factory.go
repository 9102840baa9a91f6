package cli

import (
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/aretw0/weft"
	boltAdapter "github.com/aretw0/weft/pkg/adapters/bolt"
	fileAdapter "github.com/aretw0/weft/pkg/adapters/file"
	"github.com/aretw0/weft/pkg/adapters/memory"
	"github.com/aretw0/weft/pkg/adapters/process"
	redisAdapter "github.com/aretw0/weft/pkg/adapters/redis"
	"github.com/aretw0/weft/pkg/observability"
	"github.com/aretw0/weft/pkg/persistence/middleware"
	"github.com/aretw0/weft/pkg/ports"
)

// EncryptionKeyEnv is read when no key is given on the command line.
const EncryptionKeyEnv = "WEFT_ENCRYPTION_KEY"

// Persistence is an opened transcript store with its optional locker.
type Persistence struct {
	Store  ports.TranscriptStore
	Locker ports.DistributedLocker
	closer io.Closer
}

// Close releases the backend of the store.
func (p *Persistence) Close() error {
	if p == nil || p.closer == nil {
		return nil
	}
	return p.closer.Close()
}

// OpenStore opens the transcript store selected by opts.Store, wrapped by the
// redaction and encryption middlewares when configured. Returns nil when no store is selected.
func OpenStore(opts Options) (*Persistence, error) {
	kind, arg, _ := strings.Cut(opts.Store, ":")
	p := &Persistence{}
	switch kind {
	case "":
		return nil, nil
	case "memory":
		p.Store = memory.NewStore()
	case "file":
		p.Store = fileAdapter.New(arg) // Empty uses .weft/transcripts
	case "bolt":
		if arg == "" {
			arg = filepath.Join(".weft", "transcripts.db")
		}
		if err := os.MkdirAll(filepath.Dir(arg), 0755); err != nil {
			return nil, fmt.Errorf("failed to create %s: %w", filepath.Dir(arg), err)
		}
		store, err := boltAdapter.Open(arg)
		if err != nil {
			return nil, err
		}
		p.Store, p.closer = store, store
	case "redis":
		addr := opts.RedisAddr
		if arg != "" {
			addr = arg
		}
		if addr == "" {
			return nil, errors.New("redis store needs an address")
		}
		store := redisAdapter.New(addr, os.Getenv("REDIS_PASSWORD"), 0)
		p.Store, p.closer = store, store
		p.Locker = redisAdapter.NewLocker(store.Client(), "weft:")
	default:
		return nil, fmt.Errorf("unknown store %q (memory, file, bolt, redis)", opts.Store)
	}

	var mws []middleware.Middleware
	if len(opts.Redact) > 0 {
		mw, err := redact(opts.Redact)
		if err != nil {
			_ = p.Close()
			return nil, err
		}
		mws = append(mws, mw)
	}

	key := opts.EncryptionKey
	if key == "" {
		key = os.Getenv(EncryptionKeyEnv)
	}
	if key != "" {
		raw, err := hex.DecodeString(key)
		if err != nil || len(raw) != 32 {
			_ = p.Close()
			return nil, fmt.Errorf("encryption key must be 64 hex characters (AES-256)")
		}
		mws = append(mws, middleware.NewEncryptionMiddleware(middleware.EncryptionConfig{ActiveKey: raw}))
	}
	p.Store = middleware.Chain(p.Store, mws...)
	return p, nil
}

// redact builds the redaction middleware, reporting invalid patterns as errors.
func redact(patterns []string) (mw middleware.Middleware, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("invalid redact pattern: %v", r)
		}
	}()
	return middleware.NewRedactMiddleware(patterns), nil
}

// NewEngine initializes an engine with the standard CLI conventions.
func NewEngine(opts Options, logger *slog.Logger, metrics *observability.Metrics) (*weft.Engine, *Persistence, error) {
	entry := opts.Entry
	if entry == "" {
		entry = determineEntryPoint(opts.Dir)
	}

	engineOpts := []weft.Option{
		weft.WithLogger(logger),
		weft.WithEntry(entry),
		weft.WithGap(opts.Gap),
	}
	if metrics != nil {
		engineOpts = append(engineOpts, weft.WithMetrics(metrics))
	}

	runner, err := processRunner(opts)
	if err != nil {
		return nil, nil, err
	}
	for name, fn := range runner.Executors() {
		engineOpts = append(engineOpts, weft.WithExecutor(name, fn))
	}

	persistence, err := OpenStore(opts)
	if err != nil {
		return nil, nil, err
	}
	if persistence != nil {
		engineOpts = append(engineOpts, weft.WithStore(persistence.Store))
		if persistence.Locker != nil {
			engineOpts = append(engineOpts, weft.WithLocker(persistence.Locker))
		}
	}

	engine, err := weft.New(opts.Dir, engineOpts...)
	if err != nil {
		_ = persistence.Close()
		return nil, nil, fmt.Errorf("error initializing engine: %w", err)
	}
	return engine, persistence, nil
}

// processRunner loads the allow-listed process tools. Processes run in opts.Dir.
func processRunner(opts Options) (*process.Runner, error) {
	path := opts.Tools
	if path == "" {
		path = filepath.Join(opts.Dir, process.DefaultConfigFile)
	}
	tools, err := process.LoadTools(path)
	if err != nil {
		return nil, err
	}
	return process.NewRunner(process.WithRegistry(tools), process.WithBaseDir(opts.Dir)), nil
}

// determineEntryPoint picks the entry document of dir: main, then index,
// then a document named after the directory. Defaults to main.
func determineEntryPoint(dir string) string {
	candidates := []string{weft.DefaultEntry, "index"}
	if abs, err := filepath.Abs(dir); err == nil {
		candidates = append(candidates, filepath.Base(abs))
	}
	for _, name := range candidates {
		if hasDocument(dir, name) {
			return name
		}
	}
	return weft.DefaultEntry
}

// hasDocument checks if a document exists as a file in the directory.
func hasDocument(dir, name string) bool {
	for _, ext := range []string{".md", ".yaml", ".yml", ".json"} {
		if _, err := os.Stat(filepath.Join(dir, name+ext)); err == nil {
			return true
		}
	}
	return false
}
