package cart

import (
	"sort"
	"strings"

	"github.com/google/uuid"

	"github.com/brewbar/bubbletea-backend/pkg/db/models"
)

// NormalizeToppings merges repeated topping ids, drops non-positive quantities
// and sorts by id so two selections compare as multisets.
func NormalizeToppings(selected []models.SelectedTopping) []models.SelectedTopping {
	counts := make(map[uuid.UUID]int, len(selected))
	for _, sel := range selected {
		if sel.Quantity <= 0 || sel.ToppingID == uuid.Nil {
			continue
		}
		counts[sel.ToppingID] += sel.Quantity
	}
	out := make([]models.SelectedTopping, 0, len(counts))
	for id, qty := range counts {
		out = append(out, models.SelectedTopping{ToppingID: id, Quantity: qty})
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].ToppingID.String() < out[j].ToppingID.String()
	})
	return out
}

func sameToppings(a, b []models.SelectedTopping) bool {
	a, b = NormalizeToppings(a), NormalizeToppings(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}

func sameInstructions(a, b *string) bool {
	trim := func(s *string) string {
		if s == nil {
			return ""
		}
		return strings.TrimSpace(*s)
	}
	return trim(a) == trim(b)
}

// sameLine reports whether a new selection should merge into an existing line.
func sameLine(item models.CartItem, productID uuid.UUID, options models.SelectedOptions, toppings []models.SelectedTopping, instructions *string) bool {
	return item.ProductID == productID &&
		item.SelectedOptions.Equal(options) &&
		sameToppings(item.SelectedToppings, toppings) &&
		sameInstructions(item.SpecialInstructions, instructions)
}

// ToppingIDs lists the distinct toppings referenced by items.
func ToppingIDs(items []models.CartItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, item := range items {
		for _, sel := range item.SelectedToppings {
			if _, ok := seen[sel.ToppingID]; ok {
				continue
			}
			seen[sel.ToppingID] = struct{}{}
			ids = append(ids, sel.ToppingID)
		}
	}
	return ids
}

// ProductIDs lists the distinct products referenced by items.
func ProductIDs(items []models.CartItem) []uuid.UUID {
	seen := make(map[uuid.UUID]struct{})
	var ids []uuid.UUID
	for _, item := range items {
		if _, ok := seen[item.ProductID]; ok {
			continue
		}
		seen[item.ProductID] = struct{}{}
		ids = append(ids, item.ProductID)
	}
	return ids
}
