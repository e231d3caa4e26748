package Controllers_test

import (
	"encoding/json"
	"net/http"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yeremiapane/pos-dashboard/controllers"
	"github.com/yeremiapane/pos-dashboard/services"
)

func setupCartRouter(env *testEnv) *gin.Engine {
	router := gin.New()
	cartCtrl := controllers.NewCartController(env.Basket)
	router.GET("/cart", cartCtrl.GetCart)
	router.POST("/cart/reload", cartCtrl.Reload)
	router.DELETE("/cart", cartCtrl.Clear)
	router.POST("/cart/lines/:line_id/increase", cartCtrl.IncreaseLine)
	router.POST("/cart/lines/:line_id/decrease", cartCtrl.DecreaseLine)
	router.POST("/cart/lines/:line_id/extras/:extra_id/increase", cartCtrl.IncreaseExtra)
	router.POST("/cart/lines/:line_id/extras/:extra_id/decrease", cartCtrl.DecreaseExtra)
	return router
}

func decodeCart(t *testing.T, resp response) services.CartView {
	var view services.CartView
	require.NoError(t, json.Unmarshal(resp.Data, &view))
	return view
}

func TestReloadAndIncreaseLine(t *testing.T) {
	env := setupTestEnv(t)
	router := setupCartRouter(env)
	env.addToBasket(t, "nasi-goreng", 1)

	w, resp := performRequest(t, router, http.MethodPost, "/cart/reload", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	cart := decodeCart(t, resp)
	require.Len(t, cart.Lines, 1)
	lineID := cart.Lines[0].LineID

	w, resp = performRequest(t, router, http.MethodPost, "/cart/lines/"+lineID+"/increase", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	cart = decodeCart(t, resp)
	assert.Equal(t, 2, cart.Lines[0].Quantity)
	assert.True(t, cart.Total.Equal(decimal.NewFromInt(50)))
}

func TestIncreaseUnknownLine(t *testing.T) {
	env := setupTestEnv(t)
	router := setupCartRouter(env)

	w, resp := performRequest(t, router, http.MethodPost, "/cart/lines/nope/increase", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.False(t, resp.Status)
}

func TestExtraIncreaseAndDecrease(t *testing.T) {
	env := setupTestEnv(t)
	router := setupCartRouter(env)
	env.addToBasket(t, "nasi-goreng", 1)
	_, resp := performRequest(t, router, http.MethodPost, "/cart/reload", nil)
	lineID := decodeCart(t, resp).Lines[0].LineID

	w, resp := performRequest(t, router, http.MethodPost, "/cart/lines/"+lineID+"/extras/pedas/increase", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	cart := decodeCart(t, resp)
	require.Len(t, cart.Lines[0].Extras, 1)
	assert.Equal(t, 1, cart.Lines[0].Extras[0].Quantity)

	w, _ = performRequest(t, router, http.MethodPost, "/cart/lines/"+lineID+"/extras/keju/decrease", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)
}

func TestClearCart(t *testing.T) {
	env := setupTestEnv(t)
	router := setupCartRouter(env)
	env.addToBasket(t, "nasi-goreng", 2)
	performRequest(t, router, http.MethodPost, "/cart/reload", nil)

	w, resp := performRequest(t, router, http.MethodDelete, "/cart", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	cart := decodeCart(t, resp)
	assert.Empty(t, cart.Lines)
	assert.True(t, cart.Total.IsZero())
}
