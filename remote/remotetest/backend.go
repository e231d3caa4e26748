// Package remotetest provides an in-memory restaurant backend for tests. It
// speaks the same envelope and routes as the real basket and order services.
package remotetest

import (
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/yeremiapane/pos-dashboard/models"
)

// Product is a catalog entry. Addons are products too.
type Product struct {
	Name  string
	Price decimal.Decimal
	// Set for addons.
	MinQuantity *int
	MaxQuantity *int
}

// Backend is a stateful fake. Exported fields may be changed between calls
// while holding no lock, as long as no request is in flight.
type Backend struct {
	Server *httptest.Server

	Catalog    map[string]Product
	Extras     map[string]models.ExtraLine
	OrderTypes []models.OrderType

	// PriceChangePending makes unconfirmed order creation and updates fail with a 409.
	PriceChangePending bool

	mu        sync.Mutex
	basket    models.Basket
	orders    map[string]*models.TrackingInfo
	updatable map[string]*models.UpdatableOrder
	nextID    int
	calls     []string
}

func NewBackend() *Backend {
	b := &Backend{
		Catalog:   make(map[string]Product),
		Extras:    make(map[string]models.ExtraLine),
		orders:    make(map[string]*models.TrackingInfo),
		updatable: make(map[string]*models.UpdatableOrder),
	}

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(func(c *gin.Context) {
		b.mu.Lock()
		b.calls = append(b.calls, c.Request.Method+" "+c.Request.URL.Path)
		b.mu.Unlock()
		c.Next()
	})

	api := r.Group("/api")
	api.GET("/basket", b.getBasket)
	api.DELETE("/basket", b.deleteBasket)
	api.POST("/basket/unified-items", b.addUnified)
	api.POST("/basket/items/batch", b.addBatch)
	api.PUT("/basket/lines/:id/extras", b.updateExtras)
	api.DELETE("/basket/lines/:id", b.deleteLine)
	api.POST("/basket/:id/confirm-price-changes", b.confirmPriceChanges)
	api.GET("/order-types", b.getOrderTypes)
	api.POST("/orders", b.createOrder)
	api.POST("/orders/updatable", b.getUpdatable)
	api.GET("/orders/track/:tag", b.track)
	api.PUT("/orders/:tag/pending", b.updatePending)
	api.POST("/orders/:tag/cancel", b.cancel)

	b.Server = httptest.NewServer(r)
	return b
}

func (b *Backend) URL() string {
	return b.Server.URL
}

func (b *Backend) Close() {
	b.Server.Close()
}

// Calls returns "METHOD /path" for every request served so far.
func (b *Backend) Calls() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return append([]string(nil), b.calls...)
}

// Basket returns a copy of the server-side basket.
func (b *Backend) Basket() models.Basket {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := b.basket
	out.Items = append([]models.CartLine(nil), b.basket.Items...)
	return out
}

// SetOrderStatus moves an order along as the kitchen would.
func (b *Backend) SetOrderStatus(tag string, status models.OrderStatus) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if info, ok := b.orders[tag]; ok {
		info.OrderStatus = status
	}
	if u, ok := b.updatable[tag]; ok && status != models.OrderStatusPending {
		u.IsUpdatable = false
	}
}

func (b *Backend) Order(tag string) (models.TrackingInfo, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, ok := b.orders[tag]
	if !ok {
		return models.TrackingInfo{}, false
	}
	return *info, true
}

func ok(c *gin.Context, data interface{}) {
	c.JSON(http.StatusOK, gin.H{"status": true, "message": "ok", "data": data})
}

func fail(c *gin.Context, code int, message string) {
	c.JSON(code, gin.H{"status": false, "message": message})
}

func (b *Backend) id(prefix string) string {
	b.nextID++
	return fmt.Sprintf("%s-%d", prefix, b.nextID)
}

// recompute refreshes every line total. Callers hold b.mu.
func (b *Backend) recompute() {
	for i := range b.basket.Items {
		line := &b.basket.Items[i]
		total := line.UnitPrice.Mul(decimal.NewFromInt(int64(line.Quantity)))
		for _, a := range line.Addons {
			total = total.Add(a.UnitPrice.Mul(decimal.NewFromInt(int64(a.Quantity))))
		}
		for _, e := range line.Extras {
			if !e.IsRemoval {
				total = total.Add(e.UnitPrice.Mul(decimal.NewFromInt(int64(e.Quantity))))
			}
		}
		line.LineTotal = total
	}
}

func (b *Backend) getBasket(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.basket.BasketID == "" {
		fail(c, http.StatusNotFound, "basket not found")
		return
	}
	ok(c, b.basket)
}

func (b *Backend) deleteBasket(c *gin.Context) {
	b.mu.Lock()
	b.basket = models.Basket{}
	b.mu.Unlock()
	ok(c, nil)
}

func (b *Backend) addUnified(c *gin.Context) {
	var item models.UnifiedItem
	if err := c.ShouldBindJSON(&item); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	product, found := b.Catalog[item.ProductID]
	if !found {
		fail(c, http.StatusNotFound, "product not found")
		return
	}
	if b.basket.BasketID == "" {
		b.basket.BasketID = b.id("basket")
	}
	for i := range b.basket.Items {
		line := &b.basket.Items[i]
		if line.ProductID == item.ProductID && line.IsPlain() {
			line.Quantity += item.Quantity
			b.recompute()
			ok(c, nil)
			return
		}
	}
	b.basket.Items = append(b.basket.Items, models.CartLine{
		LineID:      b.id("line"),
		ProductID:   item.ProductID,
		ProductName: product.Name,
		UnitPrice:   product.Price,
		Quantity:    item.Quantity,
	})
	b.recompute()
	ok(c, nil)
}

func (b *Backend) addBatch(c *gin.Context) {
	var items []models.BatchItem
	if err := c.ShouldBindJSON(&items); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	for _, item := range items {
		product, found := b.Catalog[item.ProductID]
		if !found || item.ParentLineID == nil {
			fail(c, http.StatusBadRequest, "unsupported batch item")
			return
		}
		parent := b.findLine(*item.ParentLineID)
		if parent == nil {
			fail(c, http.StatusNotFound, "parent line not found")
			return
		}
		added := false
		for j := range parent.Addons {
			a := &parent.Addons[j]
			if a.ProductID != item.ProductID {
				continue
			}
			if a.MaxQuantity != nil && a.Quantity+item.Quantity > *a.MaxQuantity {
				fail(c, http.StatusBadRequest, "addon quantity exceeds maximum")
				return
			}
			a.Quantity += item.Quantity
			added = true
		}
		if !added {
			parent.Addons = append(parent.Addons, models.AddonLine{
				LineID:      b.id("addon"),
				ProductID:   item.ProductID,
				Name:        product.Name,
				UnitPrice:   product.Price,
				Quantity:    item.Quantity,
				MinQuantity: product.MinQuantity,
				MaxQuantity: product.MaxQuantity,
			})
		}
	}
	b.recompute()
	ok(c, nil)
}

func (b *Backend) findLine(lineID string) *models.CartLine {
	for i := range b.basket.Items {
		if b.basket.Items[i].LineID == lineID {
			return &b.basket.Items[i]
		}
	}
	return nil
}

func (b *Backend) updateExtras(c *gin.Context) {
	var extras []models.ExtraQuantity
	if err := c.ShouldBindJSON(&extras); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	line := b.findLine(c.Param("id"))
	if line == nil {
		fail(c, http.StatusNotFound, "line not found")
		return
	}

	next := make([]models.ExtraLine, 0, len(extras))
	for _, eq := range extras {
		def, found := b.Extras[eq.ExtraID]
		if !found {
			fail(c, http.StatusBadRequest, "unknown extra")
			return
		}
		if eq.Quantity <= 0 {
			continue
		}
		def.Quantity = eq.Quantity
		next = append(next, def)
	}
	line.Extras = next
	b.recompute()
	ok(c, nil)
}

func (b *Backend) deleteLine(c *gin.Context) {
	id := c.Param("id")

	b.mu.Lock()
	defer b.mu.Unlock()
	for i, line := range b.basket.Items {
		if line.LineID == id {
			b.basket.Items = append(b.basket.Items[:i], b.basket.Items[i+1:]...)
			ok(c, nil)
			return
		}
		for j, a := range line.Addons {
			if a.LineID == id {
				b.basket.Items[i].Addons = append(line.Addons[:j], line.Addons[j+1:]...)
				b.recompute()
				ok(c, nil)
				return
			}
		}
	}
	fail(c, http.StatusNotFound, "line not found")
}

func (b *Backend) confirmPriceChanges(c *gin.Context) {
	ok(c, models.PriceChangeSummary{
		Message: "Prices were updated since the items were added.",
	})
}

func (b *Backend) getOrderTypes(c *gin.Context) {
	ok(c, b.OrderTypes)
}

func (b *Backend) createOrder(c *gin.Context) {
	var req models.CreateOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if b.PriceChangePending && !req.PriceChangesConfirmed {
		fail(c, http.StatusConflict, "Unconfirmed price changes detected.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	if b.basket.BasketID == "" || b.basket.BasketID != req.BasketID {
		fail(c, http.StatusBadRequest, "basket not found")
		return
	}

	tag := fmt.Sprintf("ORD-%03d", len(b.orders)+1)
	orderID := b.id("order")
	info := &models.TrackingInfo{
		OrderID:      orderID,
		OrderTag:     tag,
		OrderStatus:  models.OrderStatusPending,
		CustomerName: req.CustomerName,
	}
	updatable := &models.UpdatableOrder{OrderTag: tag, IsUpdatable: true, RowVersion: "1"}
	for _, line := range b.basket.Items {
		info.TotalAmount = info.TotalAmount.Add(line.LineTotal)
		itemID := b.id("item")
		updatable.Items = append(updatable.Items, models.UpdatableOrderItem{
			ItemID:      itemID,
			ProductID:   line.ProductID,
			ProductName: line.ProductName,
			Quantity:    line.Quantity,
			UnitPrice:   line.UnitPrice,
		})
		for _, a := range line.Addons {
			parent := itemID
			updatable.Items = append(updatable.Items, models.UpdatableOrderItem{
				ItemID:       b.id("item"),
				ProductID:    a.ProductID,
				ProductName:  a.Name,
				Quantity:     a.Quantity,
				UnitPrice:    a.UnitPrice,
				ParentItemID: &parent,
				IsAddon:      true,
			})
		}
	}
	updatable.ItemCount = len(updatable.Items)
	b.orders[tag] = info
	b.updatable[tag] = updatable

	ok(c, models.CreateOrderResponse{OrderID: orderID, OrderTag: tag})
}

func (b *Backend) track(c *gin.Context) {
	b.mu.Lock()
	defer b.mu.Unlock()
	info, found := b.orders[c.Param("tag")]
	if !found {
		fail(c, http.StatusNotFound, "order not found")
		return
	}
	ok(c, info)
}

func (b *Backend) getUpdatable(c *gin.Context) {
	var body struct {
		OrderTags []string `json:"orderTags"`
	}
	if err := c.ShouldBindJSON(&body); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	list := make([]models.UpdatableOrder, 0, len(body.OrderTags))
	for _, tag := range body.OrderTags {
		if u, found := b.updatable[tag]; found {
			list = append(list, *u)
		}
	}
	ok(c, list)
}

// checkVersion validates the optimistic-concurrency token. Callers hold b.mu.
func (b *Backend) checkVersion(c *gin.Context, tag, rowVersion string) (*models.UpdatableOrder, bool) {
	u, found := b.updatable[tag]
	if !found {
		fail(c, http.StatusNotFound, "order not found")
		return nil, false
	}
	if u.RowVersion != rowVersion {
		fail(c, http.StatusConflict, "Order was modified by someone else. Please reload.")
		return nil, false
	}
	if !u.IsUpdatable {
		fail(c, http.StatusBadRequest, "order can no longer be changed")
		return nil, false
	}
	return u, true
}

func (b *Backend) updatePending(c *gin.Context) {
	var req models.UpdatePendingOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}
	if b.PriceChangePending && !req.PriceChangesConfirmed {
		fail(c, http.StatusConflict, "Unconfirmed price changes detected.")
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	u, valid := b.checkVersion(c, c.Param("tag"), req.RowVersion)
	if !valid {
		return
	}

	byID := make(map[string]models.UpdatableOrderItem, len(u.Items))
	for _, it := range u.Items {
		byID[it.ItemID] = it
	}
	items := make([]models.UpdatableOrderItem, 0, len(req.Items))
	for _, it := range req.Items {
		prev := byID[it.ItemID]
		prev.Quantity = it.Quantity
		prev.Note = it.Note
		items = append(items, prev)
	}
	u.Items = items
	u.ItemCount = len(items)
	u.RowVersion = bump(u.RowVersion)
	ok(c, nil)
}

func (b *Backend) cancel(c *gin.Context) {
	var req models.CancelOrderRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		fail(c, http.StatusBadRequest, err.Error())
		return
	}

	b.mu.Lock()
	defer b.mu.Unlock()
	tag := c.Param("tag")
	u, valid := b.checkVersion(c, tag, req.RowVersion)
	if !valid {
		return
	}
	u.IsUpdatable = false
	u.RowVersion = bump(u.RowVersion)
	b.orders[tag].OrderStatus = models.OrderStatusCancelled
	ok(c, nil)
}

func bump(version string) string {
	var n int
	fmt.Sscanf(version, "%d", &n)
	return fmt.Sprintf("%d", n+1)
}
