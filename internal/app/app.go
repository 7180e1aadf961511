// Package app wires the cart subsystem together and drives the interactive
// storefront shell.
package app

import (
	"context"
	"net/http"

	"github.com/go-faster/errors"
	"github.com/go-faster/sdk/app"
	"github.com/go-faster/sdk/zctx"
	"github.com/redis/go-redis/v9"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/xenking/storefront-cart/internal/cartsync"
	"github.com/xenking/storefront-cart/internal/client"
	"github.com/xenking/storefront-cart/internal/domain/product"
	"github.com/xenking/storefront-cart/internal/localstore"
	"github.com/xenking/storefront-cart/internal/notify"
	"github.com/xenking/storefront-cart/internal/session"
	"github.com/xenking/storefront-cart/internal/wishlist"
	"github.com/xenking/storefront-cart/pkg/httptransport"
)

// Run creates all dependencies, hydrates the cart, and runs the interactive
// shell until the context is cancelled. It is the single wiring point for
// the application.
func Run(ctx context.Context, lg *zap.Logger, m *app.Telemetry, cfg *Config) error {
	ctx = zctx.Base(ctx, lg)
	lg.Info("Initializing", zap.String("api", cfg.APIBaseURL))

	store, closeStore, err := newStore(ctx, cfg)
	if err != nil {
		return errors.Wrap(err, "create state store")
	}
	defer closeStore()

	sess := session.New()

	transport := httptransport.Wrap(
		otelhttp.NewTransport(http.DefaultTransport,
			otelhttp.WithTracerProvider(m.TracerProvider()),
			otelhttp.WithMeterProvider(m.MeterProvider()),
		),
		httptransport.RequestID(),
		httptransport.LogRequests(),
		httptransport.UserAgent(cfg.HTTP.UserAgent),
		httptransport.BearerAuth(sess.Token),
	)

	api, err := client.New(client.Config{
		BaseURL:        cfg.APIBaseURL,
		HTTPClient:     &http.Client{Transport: transport, Timeout: cfg.HTTP.Timeout},
		OnUnauthorized: sess.Invalidate,
	})
	if err != nil {
		return errors.Wrap(err, "create api client")
	}

	wish := wishlist.New(store)
	manager := cartsync.New(cartsync.Config{
		Remote:   api,
		Store:    store,
		Session:  sess,
		Notifier: notify.NewLogNotifier(),
		Wishlist: wish,
		Logger:   lg.Named("cartsync"),
	})

	// Warm-up: hydrate the cart and fetch the catalog concurrently.
	var products []product.Product
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		return manager.Hydrate(gctx)
	})
	g.Go(func() error {
		list, lerr := api.List(gctx)
		if lerr != nil {
			// The shell still works without a catalog; products can be
			// loaded later with the "list" command.
			lg.Warn("Catalog warm-up failed", zap.Error(lerr))
			return nil
		}
		products = list
		return nil
	})
	if err := g.Wait(); err != nil {
		return errors.Wrap(err, "warm up")
	}

	sh := newShell(manager, api, sess, wish)
	sh.seedCatalog(products)
	return sh.run(ctx)
}

// newStore picks the state backend: Redis when configured, an atomic file
// store under the data directory otherwise.
func newStore(ctx context.Context, cfg *Config) (localstore.Store, func(), error) {
	if cfg.RedisURL != "" {
		opts, err := redis.ParseURL(cfg.RedisURL)
		if err != nil {
			return nil, nil, errors.Wrap(err, "parse redis URL")
		}
		rdb := redis.NewClient(opts)
		if err := rdb.Ping(ctx).Err(); err != nil {
			_ = rdb.Close()
			return nil, nil, errors.Wrap(err, "ping redis")
		}
		store := localstore.NewRedisStore(rdb, "storefront", cfg.StateTTL)
		return store, func() { _ = rdb.Close() }, nil
	}

	store, err := localstore.NewFileStore(cfg.DataDir)
	if err != nil {
		return nil, nil, errors.Wrap(err, "create file store")
	}
	return store, func() {}, nil
}
