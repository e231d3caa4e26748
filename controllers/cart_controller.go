package controllers

import (
	"context"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/yeremiapane/pos-dashboard/services"
	"github.com/yeremiapane/pos-dashboard/utils"
)

type CartController struct {
	Basket *services.BasketController
}

func NewCartController(basket *services.BasketController) *CartController {
	return &CartController{Basket: basket}
}

// GetCart -> lines, grouped view, total and loading flag
func (cc *CartController) GetCart(c *gin.Context) {
	utils.RespondJSON(c, http.StatusOK, "Cart", cc.Basket.View())
}

// run executes one basket operation and answers with the reloaded cart.
func (cc *CartController) run(c *gin.Context, message string, op func(ctx context.Context) error) {
	if err := op(c.Request.Context()); err != nil {
		respondServiceError(c, err)
		return
	}
	utils.RespondJSON(c, http.StatusOK, message, cc.Basket.View())
}

func (cc *CartController) Reload(c *gin.Context) {
	cc.run(c, "Cart reloaded", cc.Basket.Load)
}

func (cc *CartController) IncreaseLine(c *gin.Context) {
	lineID := c.Param("line_id")
	cc.run(c, "Item quantity increased", func(ctx context.Context) error {
		return cc.Basket.Increase(ctx, lineID)
	})
}

func (cc *CartController) DecreaseLine(c *gin.Context) {
	lineID := c.Param("line_id")
	cc.run(c, "Item quantity decreased", func(ctx context.Context) error {
		return cc.Basket.Decrease(ctx, lineID)
	})
}

func (cc *CartController) RemoveLine(c *gin.Context) {
	lineID := c.Param("line_id")
	cc.run(c, "Item removed", func(ctx context.Context) error {
		return cc.Basket.RemoveLine(ctx, lineID)
	})
}

func (cc *CartController) IncreaseAddon(c *gin.Context) {
	lineID := c.Param("line_id")
	cc.run(c, "Addon added", func(ctx context.Context) error {
		return cc.Basket.AddonIncrease(ctx, lineID)
	})
}

func (cc *CartController) DecreaseAddon(c *gin.Context) {
	lineID := c.Param("line_id")
	cc.run(c, "Addon removed", func(ctx context.Context) error {
		return cc.Basket.AddonDecrease(ctx, lineID)
	})
}

func (cc *CartController) ToggleExtra(c *gin.Context) {
	lineID, extraID := c.Param("line_id"), c.Param("extra_id")
	cc.run(c, "Extra updated", func(ctx context.Context) error {
		return cc.Basket.ExtraToggle(ctx, lineID, extraID)
	})
}

func (cc *CartController) IncreaseExtra(c *gin.Context) {
	lineID, extraID := c.Param("line_id"), c.Param("extra_id")
	cc.run(c, "Extra updated", func(ctx context.Context) error {
		return cc.Basket.ExtraIncrease(ctx, lineID, extraID)
	})
}

func (cc *CartController) DecreaseExtra(c *gin.Context) {
	lineID, extraID := c.Param("line_id"), c.Param("extra_id")
	cc.run(c, "Extra updated", func(ctx context.Context) error {
		return cc.Basket.ExtraDecrease(ctx, lineID, extraID)
	})
}

func (cc *CartController) Clear(c *gin.Context) {
	cc.run(c, "Cart cleared", cc.Basket.Clear)
}
