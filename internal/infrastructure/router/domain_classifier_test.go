package router

import (
	"testing"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/pkg/logger"

	"github.com/stretchr/testify/assert"
)

func newClassifier() *DomainClassifier {
	return NewDomainClassifier(
		[]string{"ana.co.jp", "booking.jal.com"},
		map[string]entity.Provider{
			"carshares.jp":      entity.ProviderMitsuiCarshares,
			"share.timescar.jp": entity.ProviderTimesCar,
		},
		logger.NewNop(),
	)
}

func TestDomainClassifier_Classify(t *testing.T) {
	c := newClassifier()

	tests := []struct {
		from         string
		wantCategory entity.Category
		wantProvider entity.Provider
	}{
		{"ANA <noreply@mail.ana.co.jp>", entity.CategoryFlight, ""},
		{"JAL <info@booking.jal.com>", entity.CategoryFlight, ""},
		{"三井のカーシェアーズ <info@carshares.jp>", entity.CategoryCarShare, entity.ProviderMitsuiCarshares},
		{"noreply@share.timescar.jp", entity.CategoryCarShare, entity.ProviderTimesCar},
		{"friend@example.com", entity.CategoryUnknown, ""},
		{"", entity.CategoryUnknown, ""},
	}

	for _, tt := range tests {
		t.Run(tt.from, func(t *testing.T) {
			got := c.Classify(&entity.Email{From: tt.from})
			assert.Equal(t, tt.wantCategory, got.Category)
			assert.Equal(t, tt.wantProvider, got.Provider)
		})
	}
}

func TestDomainClassifier_SenderDomains(t *testing.T) {
	assert.Equal(t,
		[]string{"ana.co.jp", "booking.jal.com", "carshares.jp", "share.timescar.jp"},
		newClassifier().SenderDomains())
}
