package app

import (
	"context"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/northgate/atrium/internal/api"
	"github.com/northgate/atrium/internal/config"
	"github.com/northgate/atrium/internal/logging"
	"github.com/northgate/atrium/internal/prefs"
	"github.com/northgate/atrium/internal/push"
	"github.com/northgate/atrium/internal/ui"
)

// Options configure the console.
type Options struct {
	ConfigPath string
	PrefsPath  string // empty uses default ~/.config/atrium/prefs.toml
	LogLevel   string // overrides the configured level when set
}

// Clients are the two connections every command shares.
type Clients struct {
	API  *api.Client
	Push *push.Client
}

// Dial builds the REST and push clients from cfg. Nothing touches the network
// until a request is made or Push.Run is called.
func Dial(cfg config.Config, logger *zap.Logger) (Clients, error) {
	tokens := configToken{cfg: cfg}

	client, err := api.NewClient(cfg.APIURL,
		api.WithTimeout(cfg.RequestTimeout),
		api.WithTokenSource(tokens),
		api.WithLogger(logging.Named(logger, "api")),
	)
	if err != nil {
		return Clients{}, fmt.Errorf("init api client: %w", err)
	}

	pushURL := cfg.PushURL
	if pushURL == "" {
		if pushURL, err = push.URLFromAPI(cfg.APIURL); err != nil {
			return Clients{}, fmt.Errorf("derive push url: %w", err)
		}
	}
	channel, err := push.NewClient(pushURL,
		push.WithToken(tokens.Token),
		push.WithLogger(logging.Named(logger, "push")),
	)
	if err != nil {
		return Clients{}, fmt.Errorf("init push client: %w", err)
	}
	return Clients{API: client, Push: channel}, nil
}

// Run boots the console and blocks until the user quits or ctx is cancelled.
// The push loop, the fallback poller and the UI run as one errgroup: the UI
// exiting stops the other two.
func Run(ctx context.Context, opts Options) error {
	cfg, err := config.Load(opts.ConfigPath)
	if err != nil {
		return fmt.Errorf("load atrium config: %w", err)
	}
	level := cfg.LogLevel
	if opts.LogLevel != "" {
		level = opts.LogLevel
	}
	logger, closeLog, err := logging.File(cfg.LogPath(), level)
	if err != nil {
		return err
	}
	defer func() { _ = closeLog() }()

	userPrefs, err := prefs.Load(opts.PrefsPath)
	if err != nil {
		logger.Warn("prefs unreadable, using defaults", zap.Error(err))
	}

	clients, err := Dial(cfg, logger)
	if err != nil {
		return err
	}

	console := ui.New(ui.Options{
		Backend:   clients.API,
		Channel:   clients.Push,
		Logger:    logging.Named(logger, "listview"),
		PageSize:  cfg.PageSize,
		Prefs:     userPrefs,
		PrefsPath: opts.PrefsPath,
	})
	poller := &Poller{
		Active: func() Reloader {
			if v := console.Active(); v != nil {
				return v
			}
			return nil
		},
		Channel:  clients.Push,
		Interval: cfg.FallbackPoll,
		Logger:   logging.Named(logger, "poller"),
	}

	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	logger.Info("console starting", zap.String("api", clients.API.BaseURL()), zap.String("push", clients.Push.URL()))

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error { return clients.Push.Run(gctx) })
	g.Go(func() error { return poller.Run(gctx) })
	g.Go(func() error {
		defer cancel()
		return console.Run(gctx)
	})
	err = g.Wait()
	logger.Info("console stopped", zap.Error(err))
	return err
}

// configToken reads the bearer token on every request, so a rewritten
// token file takes effect without a restart.
type configToken struct {
	cfg config.Config
}

func (t configToken) Token(context.Context) (string, error) {
	return t.cfg.BearerToken()
}
