package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/and161185/fuel-tracker/internal/archive"
	"github.com/and161185/fuel-tracker/internal/client"
	"github.com/and161185/fuel-tracker/internal/config"
	"github.com/and161185/fuel-tracker/internal/session"
)

var errUsage = errors.New("usage")

// backend is everything the CLI needs from the server connection.
type backend interface {
	session.Authenticator
	archive.Gateway
	Register(ctx context.Context, username, password string) (string, error)
	Close() error
}

type deps struct {
	stdout io.Writer
	stderr io.Writer
	now    func() time.Time
	dial   func(cfg config.Client, tokens client.TokenSource) (backend, error)
}

func defaultDeps() deps {
	return deps{
		stdout: os.Stdout,
		stderr: os.Stderr,
		now:    time.Now,
		dial: func(cfg config.Client, tokens client.TokenSource) (backend, error) {
			c, err := client.Dial(client.Options{
				Addr:      cfg.Addr,
				CACert:    cfg.CACert,
				Insecure:  cfg.Insecure,
				Plaintext: cfg.Plaintext,
				Timeout:   cfg.Timeout,
			}, tokens)
			if err != nil {
				return nil, err
			}
			return c, nil
		},
	}
}

// app is the per-invocation state built by the root command.
type app struct {
	deps

	configDir string
	verbose   bool
	jsonOut   bool

	log     *zap.Logger
	backend backend
	session *session.Session
	store   *archive.Store
	unsub   func()
}

// skipConnect lists commands that run without a backend.
var skipConnect = map[string]bool{"version": true, "help": true, "completion": true}

func newRootCmd(d deps) *cobra.Command {
	a := &app{deps: d}

	root := &cobra.Command{
		Use:           "fuel",
		Short:         "Track refuels and fuel consumption",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if skipConnect[cmd.Name()] {
				return nil
			}
			return a.connect(cmd)
		},
		PersistentPostRunE: func(*cobra.Command, []string) error {
			return a.close()
		},
	}
	root.SetOut(d.stdout)
	root.SetErr(d.stderr)

	pf := root.PersistentFlags()
	config.ClientFlags(pf)
	pf.StringVar(&a.configDir, "config-dir", "", "configuration directory (default: $XDG_CONFIG_HOME/fuel-tracker)")
	pf.BoolVarP(&a.verbose, "verbose", "v", false, "debug logging to stderr")
	pf.BoolVar(&a.jsonOut, "json", false, "output as JSON")

	root.AddCommand(
		newVersionCmd(a),
		newRegisterCmd(a),
		newLoginCmd(a),
		newLogoutCmd(a),
		newStatusCmd(a),
		newVehicleCmd(a),
		newRefuelCmd(a),
		newStatsCmd(a),
		newExportCmd(a),
		newImportCmd(a),
		newReloadCmd(a),
	)
	return root
}

// connect loads the configuration and wires the session to the archive
// store: signing out drops the loaded archive.
func (a *app) connect(cmd *cobra.Command) error {
	dir := a.configDir
	if dir == "" {
		dir = session.DefaultDir()
	}
	cfg, err := config.LoadClient(dir, cmd.Flags())
	if err != nil {
		return fmt.Errorf("%w: %w", errUsage, err)
	}

	a.log = zap.NewNop()
	if a.verbose {
		if l, err := zap.NewDevelopment(); err == nil {
			a.log = l
		}
	}

	tokens := session.NewTokenStore(dir)
	be, err := a.dial(cfg, tokens.Token)
	if err != nil {
		return err
	}
	a.backend = be
	a.session = session.New(tokens, be, a.log.Named("session"))
	a.store = archive.New(be, archive.WithLogger(a.log.Named("archive")), archive.WithClock(a.now))
	a.unsub = a.session.Subscribe(func(st session.Status) {
		if !st.Authenticated {
			a.store.Reset()
		}
	})
	a.log.Debug("connected", zap.String("addr", cfg.Addr), zap.String("config_dir", dir))
	return nil
}

func (a *app) close() error {
	if a.unsub != nil {
		a.unsub()
		a.unsub = nil
	}
	var err error
	if a.backend != nil {
		err = a.backend.Close()
		a.backend = nil
	}
	if a.log != nil {
		_ = a.log.Sync()
	}
	return err
}
