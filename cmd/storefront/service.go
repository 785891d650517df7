package main

import (
	"context"
	"net"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/urfave/cli/v2"
	"golang.org/x/sync/errgroup"
	"google.golang.org/grpc"
	"google.golang.org/grpc/health"
	"google.golang.org/grpc/health/grpc_health_v1"

	"storefront/pkg/common/domain"
	"storefront/pkg/domain/model"
	"storefront/pkg/domain/service"
	"storefront/pkg/infrastructure/event"
	"storefront/pkg/infrastructure/feed"
	"storefront/pkg/infrastructure/generator"
	"storefront/pkg/infrastructure/messaging"
	"storefront/pkg/infrastructure/notice"
	"storefront/pkg/infrastructure/repository"
	"storefront/pkg/infrastructure/storage"
	"storefront/pkg/infrastructure/transport"
)

func runService(ctx *cli.Context) error {
	c, err := parseEnv()
	if err != nil {
		return err
	}
	setupLogging(c)

	db, err := repository.Open(c.DBDriver, c.DBDSN)
	if err != nil {
		return err
	}
	defer db.Close()
	if err := repository.Migrate(db); err != nil {
		return err
	}

	sessions, err := openSessionStorage(c)
	if err != nil {
		return err
	}

	dispatcher, closeDispatcher, err := newDispatcher(c)
	if err != nil {
		return err
	}
	defer closeDispatcher()

	services := newServices(c, db, sessions, dispatcher)
	return serve(ctx.Context, c, transport.Router(services))
}

func openSessionStorage(c *config) (model.SessionStorage, error) {
	if c.SessionStoragePath == "" {
		log.Warn("session storage path is empty, carts will not survive a restart")
		return storage.NewMemoryStorage(), nil
	}
	fileStorage, err := storage.NewFileStorage(c.SessionStoragePath)
	if err != nil {
		return nil, err
	}
	return fileStorage, nil
}

type eventDispatcher struct {
	*event.Dispatcher
	feed    *feed.Feed
	notices *notice.Board
}

// newDispatcher always feeds the in-process subscribers and, when a broker is configured,
// mirrors every event to it.
func newDispatcher(c *config) (*eventDispatcher, func(), error) {
	d := &eventDispatcher{
		feed:    feed.New(c.FeedBuffer),
		notices: notice.NewBoard(c.NoticeLimit),
	}
	subscribers := []domain.EventDispatcher{d.feed, d.notices}
	closer := func() {}

	if c.AMQPURL != "" {
		publisher, err := messaging.Dial(c.AMQPURL, c.AMQPExchange)
		if err != nil {
			return nil, nil, err
		}
		subscribers = append(subscribers, publisher)
		closer = func() {
			if err := publisher.Close(); err != nil {
				log.WithError(err).Error("failed to close event publisher")
			}
		}
		log.WithField("exchange", c.AMQPExchange).Info("publishing domain events to amqp")
	}

	d.Dispatcher = event.NewDispatcher(subscribers...)
	return d, closer, nil
}

func newServices(c *config, db *sqlx.DB, sessions model.SessionStorage, dispatcher *eventDispatcher) transport.Services {
	products := repository.NewProductRepository(db)

	catalog := service.NewCatalogService(products)
	carts := service.NewCartService(sessions, dispatcher)
	accounts := service.NewAccountService(repository.NewAddressRepository(db), repository.NewPaymentMethodRepository(db))
	orders := service.NewOrderService(repository.NewOrderRepository(db), products, carts, accounts, dispatcher)
	checkout := service.NewCheckoutService(carts, orders, products, sessions, service.CheckoutConfig{
		Rates:          c.Pricing.rates(),
		PlacementDelay: c.PlacementDelay,
	})
	assistant := service.NewAssistantService(
		generator.NewClient(c.GeneratorURL, c.GeneratorAPIKey, c.GeneratorTimeout),
		carts,
		catalog,
	)

	return transport.Services{
		Catalog:   catalog,
		Carts:     carts,
		Checkout:  checkout,
		Orders:    orders,
		Accounts:  accounts,
		Assistant: assistant,
		Feed:      dispatcher.feed,
		Notices:   dispatcher.notices,
	}
}

// serve runs the HTTP API and the gRPC health server until a kill signal arrives or one of
// them fails, then shuts both down.
func serve(parent context.Context, c *config, router http.Handler) error {
	baseCtx, cancelRequests := context.WithCancel(context.Background())
	defer cancelRequests()

	httpServer := &http.Server{
		Addr:        c.HTTPAddress,
		Handler:     router,
		BaseContext: func(net.Listener) context.Context { return baseCtx },
	}

	listener, err := net.Listen("tcp", c.GRPCAddress)
	if err != nil {
		return errors.Wrapf(err, "failed to listen on %s", c.GRPCAddress)
	}
	grpcServer := grpc.NewServer()
	healthServer := health.NewServer()
	grpc_health_v1.RegisterHealthServer(grpcServer, healthServer)
	healthServer.SetServingStatus("", grpc_health_v1.HealthCheckResponse_SERVING)
	healthServer.SetServingStatus(appID, grpc_health_v1.HealthCheckResponse_SERVING)

	g, ctx := errgroup.WithContext(parent)
	g.Go(func() error {
		log.WithField("address", c.HTTPAddress).Info("starting http server")
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return errors.Wrap(err, "http server failed")
		}
		return nil
	})
	g.Go(func() error {
		log.WithField("address", c.GRPCAddress).Info("starting grpc health server")
		return errors.Wrap(grpcServer.Serve(listener), "grpc server failed")
	})
	g.Go(func() error {
		waitForKillSignal(ctx, getKillSignalChan())

		healthServer.Shutdown()
		cancelRequests()
		shutdownCtx, cancel := context.WithTimeout(context.Background(), c.ShutdownTimeout)
		defer cancel()
		err := httpServer.Shutdown(shutdownCtx)
		grpcServer.GracefulStop()
		return errors.Wrap(err, "http server shutdown failed")
	})
	return g.Wait()
}

func getKillSignalChan() chan os.Signal {
	osKillSignalChan := make(chan os.Signal, 1)
	signal.Notify(osKillSignalChan, os.Interrupt, syscall.SIGTERM)
	return osKillSignalChan
}

func waitForKillSignal(ctx context.Context, killSignalChan <-chan os.Signal) {
	select {
	case <-ctx.Done():
		log.Info("shutting down after a server stopped")
	case killSignal := <-killSignalChan:
		switch killSignal {
		case os.Interrupt:
			log.Info("Got SIGINT...")
		case syscall.SIGTERM:
			log.Info("Got SIGTERM...")
		}
	}
}
