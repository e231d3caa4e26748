package services

import (
	"fmt"

	"github.com/yeremiapane/pos-dashboard/models"
)

// The guards below are advisory. The UI uses them to disable controls before a
// call is made; the basket server remains authoritative.

func CanIncreaseAddon(addon models.AddonLine) bool {
	if addon.MaxQuantity != nil && addon.Quantity >= *addon.MaxQuantity {
		return false
	}
	return true
}

func CanDecreaseAddon(addon models.AddonLine) bool {
	if addon.Quantity <= 0 {
		return false
	}
	if addon.MinQuantity != nil && addon.Quantity <= *addon.MinQuantity {
		return false
	}
	return true
}

// AddonQuantityError returns a message when the addon is outside [min, max], "" otherwise.
func AddonQuantityError(addon models.AddonLine) string {
	return boundsError(addon.Name, addon.Quantity, addon.MinQuantity, addon.MaxQuantity)
}

// Removal extras are binary: present or absent.

func CanIncreaseExtra(extra models.ExtraLine) bool {
	if extra.IsRemoval {
		return extra.Quantity == 0
	}
	if extra.MaxQuantity != nil && extra.Quantity >= *extra.MaxQuantity {
		return false
	}
	return true
}

func CanDecreaseExtra(extra models.ExtraLine) bool {
	if extra.Quantity <= 0 {
		return false
	}
	if extra.IsRemoval {
		return true
	}
	if extra.MinQuantity != nil && extra.Quantity <= *extra.MinQuantity {
		return false
	}
	return true
}

func ExtraQuantityError(extra models.ExtraLine) string {
	if extra.IsRemoval {
		return ""
	}
	return boundsError(extra.Name, extra.Quantity, extra.MinQuantity, extra.MaxQuantity)
}

func boundsError(name string, quantity int, min, max *int) string {
	if min != nil && quantity < *min {
		return fmt.Sprintf("%s requires at least %d", name, *min)
	}
	if max != nil && quantity > *max {
		return fmt.Sprintf("%s allows at most %d", name, *max)
	}
	return ""
}
