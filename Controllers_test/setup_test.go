package Controllers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/yeremiapane/pos-dashboard/database"
	"github.com/yeremiapane/pos-dashboard/events"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/remote"
	"github.com/yeremiapane/pos-dashboard/remote/remotetest"
	"github.com/yeremiapane/pos-dashboard/services"
	"github.com/yeremiapane/pos-dashboard/utils"
)

type testEnv struct {
	Backend    *remotetest.Backend
	Hub        *events.Hub
	Basket     *services.BasketController
	Registry   *services.TrackingRegistry
	Poller     *services.TrackingPoller
	Creator    *services.OrderCreator
	Editor     *services.OrderEditor
	OrderTypes *remote.OrderTypeAPI
}

type response struct {
	Status  bool            `json:"status"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func setupTestEnv(t *testing.T) *testEnv {
	utils.SilenceLoggers()
	gin.SetMode(gin.TestMode)

	backend := remotetest.NewBackend()
	t.Cleanup(backend.Close)
	backend.Catalog["nasi-goreng"] = remotetest.Product{Name: "Nasi Goreng", Price: decimal.NewFromInt(25)}
	backend.Catalog["telur"] = remotetest.Product{
		Name:        "Telur",
		Price:       decimal.NewFromInt(5),
		MinQuantity: models.IntPtr(0),
		MaxQuantity: models.IntPtr(1),
	}
	backend.Extras["pedas"] = models.ExtraLine{ExtraID: "pedas", Name: "Extra pedas", UnitPrice: decimal.NewFromInt(2)}
	backend.OrderTypes = []models.OrderType{{ID: "takeaway", Name: "Takeaway"}}

	db, err := gorm.Open(sqlite.Open(filepath.Join(t.TempDir(), "test.db")), &gorm.Config{})
	require.NoError(t, err)
	store, err := database.NewGormStore(db)
	require.NoError(t, err)

	client := remote.NewClient(remote.Config{BaseURL: backend.URL(), Timeout: 5 * time.Second})
	orderAPI := remote.NewOrderAPI(client)

	env := &testEnv{
		Backend:    backend,
		Hub:        events.NewHub(),
		OrderTypes: remote.NewOrderTypeAPI(client),
	}
	metrics := services.NewMetrics()
	env.Basket = services.NewBasketController(remote.NewBasketAPI(client), env.Hub, metrics)
	env.Registry = services.NewTrackingRegistry(store, orderAPI, env.Hub, metrics)
	env.Poller = services.NewTrackingPoller(env.Registry, env.Hub, metrics, time.Hour)
	t.Cleanup(env.Poller.Shutdown)
	env.Creator = services.NewOrderCreator(env.Basket, orderAPI, env.OrderTypes, env.Registry, env.Hub, metrics)
	env.Editor = services.NewOrderEditor(orderAPI, env.Registry, env.Hub, metrics)
	return env
}

// addToBasket puts products on the backend basket the way the menu screen would.
func (e *testEnv) addToBasket(t *testing.T, productID string, quantity int) {
	raw, err := json.Marshal(models.UnifiedItem{ProductID: productID, Quantity: quantity})
	require.NoError(t, err)
	resp, err := http.Post(e.Backend.URL()+"/api/basket/unified-items", "application/json", bytes.NewReader(raw))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
}

// placeOrder checks out the current basket as takeaway and returns its tag.
func (e *testEnv) placeOrder(t *testing.T) string {
	e.addToBasket(t, "nasi-goreng", 1)
	e.Creator.SetForm(models.OrderForm{OrderTypeID: "takeaway", CustomerName: "Budi"})
	require.NoError(t, e.Creator.Submit(context.Background()))
	orders := e.Registry.Orders()
	require.NotEmpty(t, orders)
	return orders[len(orders)-1].OrderTag
}

func performRequest(t *testing.T, router *gin.Engine, method, path string, payload interface{}) (*httptest.ResponseRecorder, response) {
	var body []byte
	if payload != nil {
		var err error
		body, err = json.Marshal(payload)
		require.NoError(t, err)
	}
	req, err := http.NewRequest(method, path, bytes.NewBuffer(body))
	require.NoError(t, err)
	req.Header.Set("Content-Type", "application/json")

	w := httptest.NewRecorder()
	router.ServeHTTP(w, req)

	var resp response
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp), w.Body.String())
	return w, resp
}
