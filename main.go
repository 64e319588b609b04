package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"

	"github.com/charmbracelet/log"
	"github.com/spf13/cobra"

	"github.com/harrisonrobin/tugas/pkg/config"
	"github.com/harrisonrobin/tugas/pkg/google"
	"github.com/harrisonrobin/tugas/pkg/logging"
	"github.com/harrisonrobin/tugas/pkg/store"
	"github.com/harrisonrobin/tugas/pkg/todo"
)

const (
	storeFirestore = "firestore"
	storeMemory    = "memory"
	logFile        = "tugas.log"
)

// app carries what every command needs. Tests swap the streams and the store.
type app struct {
	in     io.Reader
	out    io.Writer
	errOut io.Writer

	configPath string
	project    string
	collection string
	storeKind  string
	logLevel   string

	cfg    *config.Config
	dir    string
	logger *log.Logger

	// newStore overrides store selection when set.
	newStore func(ctx context.Context) (store.Store, error)
}

func newApp() *app {
	return &app{in: os.Stdin, out: os.Stdout, errOut: os.Stderr, storeKind: storeFirestore}
}

func main() {
	os.Exit(run())
}

func run() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := newRootCmd(newApp()).ExecuteContext(ctx); err != nil {
		var shown reportedError
		if !errors.As(err, &shown) {
			fmt.Fprintln(os.Stderr, "Error:", err)
		}
		return 1
	}
	return 0
}

func newRootCmd(a *app) *cobra.Command {
	root := &cobra.Command{
		Use:           "tugas",
		Short:         "tugas - a to-do list with deadlines, kept in Firestore",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd)
		},
		RunE: a.runUI,
	}
	root.SetIn(a.in)
	root.SetOut(a.out)
	root.SetErr(a.errOut)

	flags := root.PersistentFlags()
	flags.StringVar(&a.configPath, "config", "", "config file (default ~/.config/tugas/config.json)")
	flags.StringVar(&a.project, "project", "", "Google Cloud project ID (overrides config)")
	flags.StringVar(&a.collection, "collection", "", "Firestore collection holding the tasks (overrides config)")
	flags.StringVar(&a.storeKind, "store", a.storeKind, "task store: firestore or memory")
	flags.StringVar(&a.logLevel, "log-level", "", "debug, info, warn or error (overrides config)")

	root.AddCommand(
		newUICmd(a),
		newListCmd(a),
		newAddCmd(a),
		newEditCmd(a),
		newToggleCmd(a),
		newRemoveCmd(a),
		newImportCmd(a),
		newAuthCmd(a),
		newConfigCmd(a),
	)
	return root
}

// setup loads the config (flag > env > file > defaults) and builds the logger.
func (a *app) setup(cmd *cobra.Command) error {
	if a.configPath == "" {
		path, err := config.GetConfigPath()
		if err != nil {
			return err
		}
		a.configPath = path
	}
	a.dir = filepath.Dir(a.configPath)

	cfg, err := config.LoadFile(a.configPath)
	if err != nil {
		return err
	}
	if a.project != "" {
		cfg.Project = a.project
	}
	if a.collection != "" {
		cfg.Collection = a.collection
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	a.cfg = cfg

	a.logger, err = logging.New(logging.Options{Level: cfg.LogLevel, Output: a.errOut})
	if err != nil {
		return err
	}
	switch a.storeKind {
	case storeFirestore, storeMemory:
	default:
		return fmt.Errorf("unknown store %q, want %s or %s", a.storeKind, storeFirestore, storeMemory)
	}
	return nil
}

func (a *app) openStore(ctx context.Context, logger *log.Logger) (store.Store, error) {
	if a.newStore != nil {
		return a.newStore(ctx)
	}
	if a.storeKind == storeMemory {
		logger.Warn("using the in-memory store, changes are lost on exit")
		return store.NewMemory(), nil
	}
	return google.NewClient(ctx, a.cfg, a.dir, logger)
}

// controller opens the store and loads every task once.
func (a *app) controller(ctx context.Context, p todo.Prompter, logger *log.Logger, opts ...todo.Option) (*todo.Controller, error) {
	s, err := a.openStore(ctx, logger)
	if err != nil {
		return nil, err
	}
	ctl := todo.New(s, p, append([]todo.Option{todo.WithLogger(logger)}, opts...)...)
	if err := ctl.Load(ctx); err != nil {
		return nil, err
	}
	return ctl, nil
}
