package services

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/yeremiapane/pos-dashboard/models"
)

func TestAddonGuards(t *testing.T) {
	tests := []struct {
		name        string
		addon       models.AddonLine
		canIncrease bool
		canDecrease bool
	}{
		{"within bounds", models.AddonLine{Quantity: 1, MinQuantity: models.IntPtr(0), MaxQuantity: models.IntPtr(2)}, true, true},
		{"at max", models.AddonLine{Quantity: 2, MinQuantity: models.IntPtr(0), MaxQuantity: models.IntPtr(2)}, false, true},
		{"at min", models.AddonLine{Quantity: 1, MinQuantity: models.IntPtr(1), MaxQuantity: models.IntPtr(3)}, true, false},
		{"zero without bounds", models.AddonLine{Quantity: 0}, true, false},
		{"unbounded", models.AddonLine{Quantity: 5}, true, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.canIncrease, CanIncreaseAddon(tt.addon))
			assert.Equal(t, tt.canDecrease, CanDecreaseAddon(tt.addon))
		})
	}
}

func TestAddonQuantityError(t *testing.T) {
	over := models.AddonLine{Name: "Cheese", Quantity: 3, MaxQuantity: models.IntPtr(2)}
	ok := models.AddonLine{Name: "Cheese", Quantity: 2, MaxQuantity: models.IntPtr(2)}

	assert.NotEmpty(t, AddonQuantityError(over))
	assert.Empty(t, AddonQuantityError(ok))
}

func TestRemovalExtrasAreBinary(t *testing.T) {
	removed := models.ExtraLine{ExtraID: "onion", Quantity: 1, IsRemoval: true, MaxQuantity: models.IntPtr(5)}
	absent := models.ExtraLine{ExtraID: "onion", Quantity: 0, IsRemoval: true}

	assert.False(t, CanIncreaseExtra(removed))
	assert.True(t, CanDecreaseExtra(removed))
	assert.True(t, CanIncreaseExtra(absent))
	assert.False(t, CanDecreaseExtra(absent))
}

func TestCountedExtraBounds(t *testing.T) {
	extra := models.ExtraLine{ExtraID: "bacon", Quantity: 3, MinQuantity: models.IntPtr(1), MaxQuantity: models.IntPtr(3)}
	assert.False(t, CanIncreaseExtra(extra))
	assert.True(t, CanDecreaseExtra(extra))

	extra.Quantity = 1
	assert.True(t, CanIncreaseExtra(extra))
	assert.False(t, CanDecreaseExtra(extra))
}
