package catalog

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestItem_EffectivePrice(t *testing.T) {
	promo := int64(800)

	tests := []struct {
		name string
		item Item
		want int64
	}{
		{"regular", Item{Price: 1000}, 1000},
		{"on promo", Item{Price: 1000, PromoPrice: &promo, OnPromo: true}, 800},
		{"promo price but not on promo", Item{Price: 1000, PromoPrice: &promo}, 1000},
		{"on promo without promo price", Item{Price: 1000, OnPromo: true}, 1000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.item.EffectivePrice())
		})
	}
}
