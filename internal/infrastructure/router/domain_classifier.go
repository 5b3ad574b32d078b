package router

import (
	"sort"

	"booking-calendar-sync/internal/domain/entity"
	"booking-calendar-sync/pkg/logger"
	"booking-calendar-sync/pkg/utils"
)

// DomainClassifier routes emails to a category by sender domain
type DomainClassifier struct {
	flightDomains   []string
	carShareDomains map[string]entity.Provider
	logger          logger.Logger
}

// NewDomainClassifier creates a new classifier. carShareDomains maps a
// sender domain to the provider it belongs to.
func NewDomainClassifier(flightDomains []string, carShareDomains map[string]entity.Provider, logger logger.Logger) *DomainClassifier {
	c := &DomainClassifier{
		flightDomains:   append([]string(nil), flightDomains...),
		carShareDomains: make(map[string]entity.Provider, len(carShareDomains)),
		logger:          logger,
	}
	for d, p := range carShareDomains {
		c.carShareDomains[d] = p
	}
	logger.Info("Registered sender domains",
		"flight", c.flightDomains,
		"carshare", len(c.carShareDomains))
	return c
}

// Classify returns the email's category; unknown senders map to CategoryUnknown
func (c *DomainClassifier) Classify(email *entity.Email) entity.Classified {
	out := entity.Classified{Email: email, Category: entity.CategoryUnknown}
	domain := utils.SenderDomain(email.From)
	if domain == "" {
		return out
	}

	for _, d := range c.flightDomains {
		if utils.DomainMatches(domain, d) {
			out.Category = entity.CategoryFlight
			return out
		}
	}
	for d, p := range c.carShareDomains {
		if utils.DomainMatches(domain, d) {
			out.Category = entity.CategoryCarShare
			out.Provider = p
			return out
		}
	}
	return out
}

// SenderDomains lists every configured domain, sorted for stable queries
func (c *DomainClassifier) SenderDomains() []string {
	out := append([]string(nil), c.flightDomains...)
	for d := range c.carShareDomains {
		out = append(out, d)
	}
	sort.Strings(out)
	return out
}
