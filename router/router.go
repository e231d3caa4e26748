package router

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/yeremiapane/pos-dashboard/controllers"
	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/middlewares"
	"github.com/yeremiapane/pos-dashboard/services"
)

// Services are the wired components the routes dispatch to.
type Services struct {
	Basket     *services.BasketController
	Creator    *services.OrderCreator
	OrderTypes services.OrderTypeProvider
	Registry   *services.TrackingRegistry
	Poller     *services.TrackingPoller
	Editor     *services.OrderEditor
	Hub        *events.Hub
	Metrics    *services.Metrics
}

type Options struct {
	CORSOrigin         string
	RateLimitPerSecond float64
	RateLimitBurst     int
}

func SetupRouter(svc Services, opts Options) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(middlewares.LoggerMiddleware())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddlewares(opts.CORSOrigin))

	r.GET("/ping", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"message": "pong"})
	})
	if svc.Metrics != nil {
		r.GET("/metrics", gin.WrapH(promhttp.HandlerFor(svc.Metrics.Registry(), promhttp.HandlerOpts{})))
	}

	eventsCtrl := controllers.NewEventsController(svc.Hub, opts.CORSOrigin)
	r.GET("/ws/events", eventsCtrl.Stream)

	// Mutating routes share one limiter; reads are not limited.
	limited := func(c *gin.Context) { c.Next() }
	if opts.RateLimitPerSecond > 0 {
		limited = middlewares.NewRateLimiter(opts.RateLimitPerSecond, opts.RateLimitBurst).RateLimit()
	}

	api := r.Group("/api")

	cartCtrl := controllers.NewCartController(svc.Basket)
	cart := api.Group("/cart")
	{
		cart.GET("", cartCtrl.GetCart)
		cart.POST("/reload", limited, cartCtrl.Reload)
		cart.DELETE("", limited, cartCtrl.Clear)
		cart.POST("/lines/:line_id/increase", limited, cartCtrl.IncreaseLine)
		cart.POST("/lines/:line_id/decrease", limited, cartCtrl.DecreaseLine)
		cart.DELETE("/lines/:line_id", limited, cartCtrl.RemoveLine)
		cart.POST("/lines/:line_id/extras/:extra_id/toggle", limited, cartCtrl.ToggleExtra)
		cart.POST("/lines/:line_id/extras/:extra_id/increase", limited, cartCtrl.IncreaseExtra)
		cart.POST("/lines/:line_id/extras/:extra_id/decrease", limited, cartCtrl.DecreaseExtra)
		cart.POST("/addons/:line_id/increase", limited, cartCtrl.IncreaseAddon)
		cart.POST("/addons/:line_id/decrease", limited, cartCtrl.DecreaseAddon)
	}

	checkoutCtrl := controllers.NewCheckoutController(svc.Creator, svc.OrderTypes)
	checkout := api.Group("/checkout")
	{
		checkout.GET("", checkoutCtrl.GetCheckout)
		checkout.GET("/order-types", checkoutCtrl.GetOrderTypes)
		checkout.GET("/form", checkoutCtrl.GetForm)
		checkout.PUT("/form", checkoutCtrl.UpdateForm)
		checkout.POST("/submit", limited, checkoutCtrl.Submit)
		checkout.POST("/confirm", limited, checkoutCtrl.Confirm)
		checkout.POST("/dismiss", checkoutCtrl.Dismiss)
		checkout.POST("/reset", checkoutCtrl.Reset)
	}

	ordersCtrl := controllers.NewOrdersController(svc.Registry, svc.Poller, svc.Editor)
	orders := api.Group("/orders")
	{
		orders.GET("", ordersCtrl.ListOrders)
		orders.PUT("/view", ordersCtrl.SetView)
		orders.POST("/:tag/refresh", limited, ordersCtrl.Refresh)
		orders.DELETE("/:tag", ordersCtrl.Remove)

		orders.POST("/:tag/edit", ordersCtrl.BeginEdit)
		orders.GET("/:tag/edit", ordersCtrl.GetEdit)
		orders.DELETE("/:tag/edit", ordersCtrl.ExitEdit)
		orders.POST("/:tag/edit/items/:item_id/increase", ordersCtrl.IncreaseItem)
		orders.POST("/:tag/edit/items/:item_id/decrease", ordersCtrl.DecreaseItem)
		orders.POST("/:tag/edit/items/:item_id/delete", ordersCtrl.DeleteItem)
		orders.POST("/:tag/edit/items/:item_id/restore", ordersCtrl.RestoreItem)
		orders.PUT("/:tag/edit/items/:item_id/quantity", ordersCtrl.SetItemQuantity)
		orders.PUT("/:tag/edit/items/:item_id/note", ordersCtrl.SetItemNote)
		orders.POST("/:tag/update", limited, ordersCtrl.SubmitEdit)
		orders.POST("/:tag/update/confirm", limited, ordersCtrl.ConfirmEdit)
		orders.DELETE("/:tag/update/confirm", ordersCtrl.DismissEditConfirmation)

		orders.POST("/:tag/cancel", ordersCtrl.BeginCancel)
		orders.PUT("/:tag/cancel/reason", ordersCtrl.SetCancelReason)
		orders.POST("/:tag/cancel/confirm", limited, ordersCtrl.ConfirmCancel)
		orders.DELETE("/:tag/cancel", ordersCtrl.AbortCancel)
	}

	return r
}
