package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/jonwraymond/querysync/auth"
	"github.com/jonwraymond/querysync/catalog"
	"github.com/jonwraymond/querysync/config"
	"github.com/jonwraymond/querysync/health"
	"github.com/jonwraymond/querysync/observe"
	"github.com/jonwraymond/querysync/query"
	"github.com/jonwraymond/querysync/resilience"
	"github.com/jonwraymond/querysync/transport"
)

// screenAnnotation names the catalog screen a command stands in for.
const screenAnnotation = "catalog.screen"

var errDenied = errors.New("access denied")

type app struct {
	stdout io.Writer
	stderr io.Writer
	load   func() (config.Config, error)

	token string

	cfg     config.Config
	obs     observe.Observer
	logger  observe.Logger
	session *auth.Session
	gated   bool
	api     *transport.Client
	catalog *catalog.Catalog
	health  *health.Aggregator
}

// run executes args and releases whatever the command set up.
func run(ctx context.Context, args []string, out, errOut io.Writer, load func() (config.Config, error)) error {
	root, a := newRootCommand(out, errOut, load)
	root.SetArgs(args)
	err := root.ExecuteContext(ctx)
	return errors.Join(err, a.close(context.WithoutCancel(ctx)))
}

// newRootCommand builds the command tree. load defaults to config.Load.
func newRootCommand(out, errOut io.Writer, load func() (config.Config, error)) (*cobra.Command, *app) {
	if load == nil {
		load = config.Load
	}
	a := &app{stdout: out, stderr: errOut, load: load}

	root := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Browse and manage language lessons",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if err := a.setup(cmd.Context()); err != nil {
				return err
			}
			return a.gate(cmd)
		},
	}
	root.SetOut(out)
	root.SetErr(errOut)
	root.PersistentFlags().StringVar(&a.token, "token", "", "bearer token (overrides QUERYSYNC_API_TOKEN)")

	root.AddCommand(newLessonsCmd(a))
	root.AddCommand(newVocabCmd(a))
	root.AddCommand(newUsersCmd(a))
	root.AddCommand(newScreensCmd(a))
	root.AddCommand(newHealthCmd(a))
	return root, a
}

func (a *app) setup(ctx context.Context) error {
	cfg, err := a.load()
	if err != nil {
		return err
	}
	if cfg, err = cfg.ResolveSecrets(ctx, nil); err != nil {
		return err
	}
	a.cfg = cfg

	obs, err := observe.NewObserver(ctx, cfg.Observe())
	if err != nil {
		return err
	}
	a.obs = obs
	a.logger = observe.NewLoggerWithWriter(cfg.LogLevel, a.stderr).With(observe.F("service", cfg.ServiceName))
	metrics, err := observe.NewMetrics(obs.Meter())
	if err != nil {
		return err
	}
	mw := observe.NewMiddleware(observe.NewTracer(obs.Tracer()), metrics, a.logger)

	var authn *auth.JWTAuthenticator
	if cfg.TokenKey != "" {
		authn = auth.NewJWTAuthenticator(auth.JWTConfig{Issuer: cfg.TokenIssuer}, auth.NewStaticKeyProvider([]byte(cfg.TokenKey)))
		a.gated = true
	}
	a.session = auth.NewSession(authn)
	token := cfg.APIToken
	if a.token != "" {
		token = a.token
	}
	if token != "" {
		a.session.SignIn(token)
	}

	onStateChange := func(from, to resilience.State) {
		a.logger.Warn(ctx, "circuit state changed", observe.F("from", from.String()), observe.F("to", to.String()))
	}
	a.api, err = transport.New(cfg.BaseURL,
		transport.WithTokenSource(a.session),
		transport.WithExecutor(cfg.Executor(onStateChange)),
		transport.WithLogger(a.logger),
		transport.WithUserAgent(cfg.ServiceName),
		transport.WithHealthPath(cfg.HealthPath),
	)
	if err != nil {
		return err
	}
	a.catalog, err = catalog.New(a.api, a.api,
		catalog.WithPageSize(cfg.PageSize),
		catalog.WithQueryOptions(query.WithMiddleware(mw)),
	)
	if err != nil {
		return err
	}

	a.health = health.NewAggregator(health.WithTimeout(cfg.RequestTimeout))
	a.health.Register(a.catalog.Client().Store())
	a.health.Register(a.api)
	return nil
}

// gate refuses commands whose screen the caller may not view. Without a
// token key the API is left to authorize on its own.
func (a *app) gate(cmd *cobra.Command) error {
	screen, ok := cmd.Annotations[screenAnnotation]
	if !ok || !a.gated {
		return nil
	}
	id, err := a.identity(cmd.Context())
	if err != nil {
		return fmt.Errorf("%w: %w", errDenied, err)
	}
	d, err := catalog.Gate(id, screen)
	if err != nil {
		return err
	}
	if !d.Allowed {
		return fmt.Errorf("%w: %s (%s)", errDenied, screen, d)
	}
	return nil
}

// identity is the signed-in caller, or nil when signed out or when no
// token key is configured.
func (a *app) identity(ctx context.Context) (*auth.Identity, error) {
	if !a.gated {
		return nil, nil
	}
	return a.session.Identity(ctx)
}

func (a *app) close(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	var errs []error
	if a.catalog != nil {
		errs = append(errs, a.catalog.Close(ctx))
	}
	if a.session != nil {
		a.session.Close()
	}
	if a.obs != nil {
		errs = append(errs, a.obs.Shutdown(ctx))
	}
	return errors.Join(errs...)
}

func screen(path string) map[string]string {
	return map[string]string{screenAnnotation: path}
}
