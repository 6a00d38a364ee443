package main

import (
	"io"
	"net/http"
	"os"

	"github.com/jrsteele09/wakelni-client/apiclient"
	"github.com/jrsteele09/wakelni-client/carts"
	"github.com/jrsteele09/wakelni-client/complaints"
	"github.com/jrsteele09/wakelni-client/credentials"
	"github.com/jrsteele09/wakelni-client/credentials/filestore"
	"github.com/jrsteele09/wakelni-client/credentials/redisstore"
	"github.com/jrsteele09/wakelni-client/credentials/storefake"
	"github.com/jrsteele09/wakelni-client/dishes"
	"github.com/jrsteele09/wakelni-client/internal/config"
	"github.com/jrsteele09/wakelni-client/orders"
	"github.com/jrsteele09/wakelni-client/payments"
	"github.com/jrsteele09/wakelni-client/reviews"
	"github.com/jrsteele09/wakelni-client/users"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/urfave/cli/v2"
)

// application holds everything the commands share. The services are built in the
// Before hook, once the global flags are known.
type application struct {
	cfg    config.Config
	in     io.Reader
	out    io.Writer
	errOut io.Writer
	logger zerolog.Logger

	store  credentials.Store
	redis  *redis.Client
	client *apiclient.Client

	users      *users.Service
	dishes     *dishes.Service
	carts      *carts.Service
	orders     *orders.Service
	reviews    *reviews.Service
	complaints *complaints.Service
	payments   *payments.Service
}

func newApplication(cfg config.Config, in io.Reader, out, errOut io.Writer) *application {
	return &application{
		cfg:    cfg,
		in:     in,
		out:    out,
		errOut: errOut,
	}
}

func (a *application) cli() *cli.App {
	return &cli.App{
		Name:      "wakelni",
		HelpName:  "wakelni",
		Usage:     "Command line client for the Wakelni home-cooked meals marketplace",
		Version:   "0.1.0",
		Reader:    a.in,
		Writer:    a.out,
		ErrWriter: a.errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "api-url", Aliases: []string{"u"}, Value: a.cfg.GetAPIBaseURL(), Usage: "backend base URL"},
			&cli.StringFlag{Name: "store", Aliases: []string{"s"}, Value: string(a.cfg.GetStoreBackend()), Usage: "credential store: file, redis or memory"},
			&cli.StringFlag{Name: "store-path", Value: a.cfg.GetStorePath(), Usage: "session file used by the file store"},
			&cli.StringFlag{Name: "redis-addr", Aliases: []string{"r"}, Value: a.cfg.GetRedisAddr(), Usage: "redis host:port used by the redis store"},
			&cli.BoolFlag{Name: "debug", Aliases: []string{"d"}, Usage: "print debug information"},
			&cli.BoolFlag{Name: "coalesce", Value: a.cfg.GetCoalesceRenewals(), Usage: "share one token renewal between concurrent requests"},
		},
		Before: a.setup,
		After:  a.teardown,
		Action: func(c *cli.Context) error {
			displayAppname(a.out, a.cfg.GetAppName())
			return cli.ShowAppHelp(c)
		},
		// Errors are reported by run so the session-expired case gets its own exit code.
		ExitErrHandler: func(*cli.Context, error) {},
		Commands: []*cli.Command{
			a.loginCommand(),
			a.logoutCommand(),
			a.whoamiCommand(),
			a.registerCommand(),
			a.profileCommand(),
			a.dishesCommand(),
			a.cartCommand(),
			a.ordersCommand(),
			a.reviewsCommand(),
			a.complaintsCommand(),
			a.checkoutCommand(),
			a.requestCommand(),
		},
	}
}

func (a *application) setup(c *cli.Context) error {
	a.logger = newLogger(a.errOut, a.cfg.GetLogLevel(), c.Bool("debug"))

	if a.store == nil {
		store, err := a.openStore(c)
		if err != nil {
			return err
		}
		a.store = store
	}

	options := []apiclient.Option{
		apiclient.WithLogger(a.logger),
		apiclient.WithRefreshPath(a.cfg.GetRefreshPath()),
		apiclient.WithHTTPClient(&http.Client{Timeout: a.cfg.GetHTTPTimeout()}),
		apiclient.WithSessionTerminated(func(reason apiclient.TerminationReason) {
			a.logger.Debug().Str("reason", string(reason)).Msg("Credentials cleared")
		}),
	}
	if c.Bool("coalesce") {
		options = append(options, apiclient.WithRenewalCoalescing())
	}

	client, err := apiclient.New(c.String("api-url"), a.store, options...)
	if err != nil {
		return err
	}
	a.client = client

	if a.users, err = users.NewService(client, a.store); err != nil {
		return err
	}
	a.dishes = dishes.NewService(client)
	a.carts = carts.NewService(client)
	a.orders = orders.NewService(client)
	a.reviews = reviews.NewService(client)
	a.complaints = complaints.NewService(client)
	a.payments = payments.NewService(client)
	return nil
}

func (a *application) openStore(c *cli.Context) (credentials.Store, error) {
	switch config.ParseStoreBackend(c.String("store")) {
	case config.StoreBackendMemory:
		a.logger.Warn().Msg("Using the memory store; the session ends with this process")
		return storefake.NewFakeStore(), nil
	case config.StoreBackendRedis:
		client, err := redisstore.Connect(c.Context, c.String("redis-addr"), a.cfg.GetRedisPassword(), a.cfg.GetRedisDB())
		if err != nil {
			return nil, err
		}
		a.redis = client
		return redisstore.New(client, a.cfg.GetRedisKey())
	default:
		return filestore.New(c.String("store-path"),
			filestore.WithPassphrase(a.cfg.GetStorePassphrase()),
			filestore.WithLogger(a.logger))
	}
}

func (a *application) teardown(*cli.Context) error {
	if a.redis == nil {
		return nil
	}
	return errors.Wrap(a.redis.Close(), "[application.teardown] redis")
}

func newLogger(w io.Writer, level string, debug bool) zerolog.Logger {
	lvl, err := zerolog.ParseLevel(level)
	if err != nil || level == "" {
		lvl = zerolog.InfoLevel
	}
	if debug {
		lvl = zerolog.DebugLevel
	}
	if w == nil {
		w = os.Stderr
	}
	return zerolog.New(zerolog.ConsoleWriter{Out: w}).Level(lvl).With().Timestamp().Logger()
}
