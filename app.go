package main

import (
	"context"
	"fmt"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pos-dashboard/config"
	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/remote"
	"github.com/yeremiapane/pos-dashboard/router"
	"github.com/yeremiapane/pos-dashboard/services"
	"github.com/yeremiapane/pos-dashboard/utils"
)

// App holds the wired dashboard.
type App struct {
	Hub      *events.Hub
	Metrics  *services.Metrics
	Basket   *services.BasketController
	Registry *services.TrackingRegistry
	Poller   *services.TrackingPoller
	Creator  *services.OrderCreator
	Editor   *services.OrderEditor
	Router   *gin.Engine

	closeStore func() error
}

func NewApp(ctx context.Context, cfg *config.Config) (*App, error) {
	store, closeStore, err := config.OpenStore(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open local storage: %w", err)
	}

	client := remote.NewClient(remote.Config{
		BaseURL:   cfg.BackendBaseURL,
		Timeout:   cfg.BackendTimeout,
		SessionID: cfg.SessionID,
	})
	basketAPI := remote.NewBasketAPI(client)
	orderAPI := remote.NewOrderAPI(client, cfg.OrderStatuses()...)
	orderTypes := remote.NewOrderTypeAPI(client)

	a := &App{
		Hub:        events.NewHub(),
		Metrics:    services.NewMetrics(),
		closeStore: closeStore,
	}
	a.Basket = services.NewBasketController(basketAPI, a.Hub, a.Metrics)
	a.Registry = services.NewTrackingRegistry(store, orderAPI, a.Hub, a.Metrics)
	a.Poller = services.NewTrackingPoller(a.Registry, a.Hub, a.Metrics, cfg.TrackingPollInterval)
	a.Creator = services.NewOrderCreator(a.Basket, orderAPI, orderTypes, a.Registry, a.Hub, a.Metrics)
	a.Creator.OnOrderCreated = func(orderID string) {
		utils.InfoLogger.WithField("order_id", orderID).Info("order handed off")
	}
	a.Editor = services.NewOrderEditor(orderAPI, a.Registry, a.Hub, a.Metrics)

	if err := a.Registry.Restore(ctx); err != nil {
		a.Close()
		return nil, err
	}
	// The backend may still be starting; the cart can be reloaded later.
	if err := a.Basket.Load(ctx); err != nil {
		utils.ErrorLogger.WithError(err).Warn("initial basket load failed")
	}

	a.Router = router.SetupRouter(router.Services{
		Basket:     a.Basket,
		Creator:    a.Creator,
		OrderTypes: orderTypes,
		Registry:   a.Registry,
		Poller:     a.Poller,
		Editor:     a.Editor,
		Hub:        a.Hub,
		Metrics:    a.Metrics,
	}, router.Options{
		CORSOrigin:         cfg.CORSOrigin,
		RateLimitPerSecond: cfg.RateLimitPerSecond,
		RateLimitBurst:     cfg.RateLimitBurst,
	})
	return a, nil
}

// Close stops the poller and releases local storage.
func (a *App) Close() {
	if a.Poller != nil {
		a.Poller.Shutdown()
	}
	if a.closeStore != nil {
		if err := a.closeStore(); err != nil {
			utils.ErrorLogger.WithError(err).Warn("failed to close local storage")
		}
	}
}
