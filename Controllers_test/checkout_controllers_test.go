package Controllers_test

import (
	"context"
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/pos-dashboard/controllers"
	"github.com/yeremiapane/pos-dashboard/models"
	"github.com/yeremiapane/pos-dashboard/services"
)

func setupCheckoutRouter(env *testEnv) *gin.Engine {
	router := gin.New()
	checkoutCtrl := controllers.NewCheckoutController(env.Creator, env.OrderTypes)
	router.GET("/checkout", checkoutCtrl.GetCheckout)
	router.GET("/checkout/order-types", checkoutCtrl.GetOrderTypes)
	router.PUT("/checkout/form", checkoutCtrl.UpdateForm)
	router.POST("/checkout/submit", checkoutCtrl.Submit)
	router.POST("/checkout/confirm", checkoutCtrl.Confirm)
	router.POST("/checkout/dismiss", checkoutCtrl.Dismiss)
	return router
}

func decodeCheckout(t *testing.T, resp response) services.CheckoutSnapshot {
	var snapshot services.CheckoutSnapshot
	require.NoError(t, json.Unmarshal(resp.Data, &snapshot))
	return snapshot
}

func TestGetOrderTypes(t *testing.T) {
	env := setupTestEnv(t)
	router := setupCheckoutRouter(env)

	w, resp := performRequest(t, router, http.MethodGet, "/checkout/order-types", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	var types []models.OrderType
	require.NoError(t, json.Unmarshal(resp.Data, &types))
	require.Len(t, types, 1)
	assert.Equal(t, "takeaway", types[0].ID)
}

func TestSubmitEmptyCart(t *testing.T) {
	env := setupTestEnv(t)
	router := setupCheckoutRouter(env)
	performRequest(t, router, http.MethodPut, "/checkout/form", models.OrderForm{OrderTypeID: "takeaway"})

	w, resp := performRequest(t, router, http.MethodPost, "/checkout/submit", nil)
	assert.Equal(t, http.StatusUnprocessableEntity, w.Code)
	snapshot := decodeCheckout(t, resp)
	assert.Equal(t, services.StateIdle, snapshot.State)
	assert.Contains(t, snapshot.Violations, "Cart is empty")
}

func TestSubmitWithPriceChange(t *testing.T) {
	env := setupTestEnv(t)
	router := setupCheckoutRouter(env)
	env.addToBasket(t, "nasi-goreng", 1)
	require.NoError(t, env.Basket.Load(context.Background()))
	env.Backend.PriceChangePending = true

	performRequest(t, router, http.MethodPut, "/checkout/form", models.OrderForm{OrderTypeID: "takeaway", CustomerName: "Sari"})
	w, resp := performRequest(t, router, http.MethodPost, "/checkout/submit", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, services.StateConflictPending, decodeCheckout(t, resp).State)

	w, resp = performRequest(t, router, http.MethodPost, "/checkout/confirm", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	snapshot := decodeCheckout(t, resp)
	assert.Equal(t, services.StateSucceeded, snapshot.State)
	require.NotNil(t, snapshot.LastOrder)
	assert.Equal(t, "ORD-001", snapshot.LastOrder.OrderTag)
	assert.Len(t, env.Registry.Orders(), 1)
}

func TestDismissWithoutConflict(t *testing.T) {
	env := setupTestEnv(t)
	router := setupCheckoutRouter(env)

	w, resp := performRequest(t, router, http.MethodPost, "/checkout/dismiss", nil)
	assert.Equal(t, http.StatusConflict, w.Code)
	assert.False(t, resp.Status)
}
