package services

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strconv"
	"time"

	gobreaker "github.com/sony/gobreaker/v2"
	"github.com/stripe/stripe-go/v82"
	"github.com/stripe/stripe-go/v82/client"

	"booking-intelligence/internal/config"
	"booking-intelligence/internal/logger"
	"booking-intelligence/internal/metrics"
	"booking-intelligence/internal/models"
	"booking-intelligence/internal/pricing"
)

var (
	ErrRatePublisherDisabled = errors.New("rate publishing is not configured")
	ErrStripeAPIError        = errors.New("stripe API error")
)

// referenceProbability is the demand input used for published rates.
const referenceProbability = 0.5

// RateCatalog is the slice of the Stripe API the publisher needs.
type RateCatalog interface {
	EnsureProduct(id, name string, metadata map[string]string) (string, error)
	CreatePrice(rate *models.PublishedRate) (string, error)
}

// StripeCatalog publishes products and prices through stripe-go.
type StripeCatalog struct {
	client *client.API
	log    *logger.Logger
}

func NewStripeCatalog(secretKey string, log *logger.Logger) (*StripeCatalog, error) {
	if secretKey == "" {
		return nil, ErrRatePublisherDisabled
	}
	sc := client.New(secretKey, nil)
	if sc == nil {
		log.Error("STRIPE", "Failed to initialize Stripe client")
		return nil, fmt.Errorf("%w: client init failed", ErrStripeAPIError)
	}
	log.Info("STRIPE", "Stripe client initialized successfully")
	return &StripeCatalog{client: sc, log: log}, nil
}

func (c *StripeCatalog) EnsureProduct(id, name string, metadata map[string]string) (string, error) {
	product, err := c.client.Products.Get(id, nil)
	if err == nil {
		return product.ID, nil
	}
	var stripeErr *stripe.Error
	if !errors.As(err, &stripeErr) || stripeErr.Code != stripe.ErrorCodeResourceMissing {
		return "", fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}

	params := &stripe.ProductParams{
		ID:   stripe.String(id),
		Name: stripe.String(name),
	}
	for k, v := range metadata {
		params.AddMetadata(k, v)
	}
	product, err = c.client.Products.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}
	c.log.Info("STRIPE", fmt.Sprintf("Created product %s", product.ID))
	return product.ID, nil
}

func (c *StripeCatalog) CreatePrice(rate *models.PublishedRate) (string, error) {
	params := &stripe.PriceParams{
		Product:           stripe.String(rate.ProductID),
		Currency:          stripe.String(rate.Currency),
		UnitAmount:        stripe.Int64(int64(math.Round(rate.NightlyPrice * 100))),
		LookupKey:         stripe.String(rate.LookupKey),
		TransferLookupKey: stripe.Bool(true),
		Nickname:          stripe.String(fmt.Sprintf("%s nightly (%s)", rate.RoomType, rate.Group)),
	}
	params.AddMetadata("room_type", rate.RoomType)
	params.AddMetadata("ab_group", string(rate.Group))
	for name, f := range rate.Factors {
		params.AddMetadata("factor_"+name, strconv.FormatFloat(f, 'f', 4, 64))
	}

	price, err := c.client.Prices.New(params)
	if err != nil {
		return "", fmt.Errorf("%w: %v", ErrStripeAPIError, err)
	}
	return price.ID, nil
}

// RatePublisher pushes reference nightly rates per room type and cohort to
// the payment catalog behind a circuit breaker.
type RatePublisher struct {
	catalog  RateCatalog
	rooms    *CatalogService
	adjuster *pricing.Adjuster
	breaker  *gobreaker.CircuitBreaker[string]
	log      *logger.Logger
}

// NewRatePublisher accepts a nil catalog; Publish then reports
// ErrRatePublisherDisabled.
func NewRatePublisher(catalog RateCatalog, rooms *CatalogService, adjuster *pricing.Adjuster, cfg config.StripeConfig, log *logger.Logger) *RatePublisher {
	threshold := cfg.BreakerThreshold
	if threshold == 0 {
		threshold = 3
	}
	settings := gobreaker.Settings{
		Name:        "stripe-rates",
		MaxRequests: 1,
		Timeout:     cfg.BreakerTimeout,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			return counts.ConsecutiveFailures >= threshold
		},
		OnStateChange: func(name string, from, to gobreaker.State) {
			log.Warn("STRIPE", fmt.Sprintf("Circuit breaker %s: %s -> %s", name, from, to))
			metrics.RatePublisherBreakerState.Set(float64(to))
		},
	}
	return &RatePublisher{
		catalog:  catalog,
		rooms:    rooms,
		adjuster: adjuster,
		breaker:  gobreaker.NewCircuitBreaker[string](settings),
		log:      log,
	}
}

func (p *RatePublisher) Enabled() bool { return p.catalog != nil }

// Publish prices a one-night stay checking in on date, as quoted at noon
// the day before, for every active room type and cohort.
func (p *RatePublisher) Publish(ctx context.Context, date time.Time) (*models.RatePublishResult, error) {
	if p.catalog == nil {
		return nil, ErrRatePublisherDisabled
	}
	y, m, d := date.UTC().Date()
	checkIn := time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
	quotedAt := checkIn.Add(-12 * time.Hour)

	rooms, err := p.rooms.ListRoomTypes(ctx, false)
	if err != nil {
		return nil, err
	}

	result := &models.RatePublishResult{Date: checkIn}
	for _, rt := range rooms {
		if err := ctx.Err(); err != nil {
			return result, err
		}

		productID, err := p.breaker.Execute(func() (string, error) {
			return p.catalog.EnsureProduct("room_"+rt.Code, rt.Name, map[string]string{"room_type": rt.Code})
		})
		if err != nil {
			p.log.Error("STRIPE", fmt.Sprintf("Product for %s unavailable: %v", rt.Code, err))
			for _, g := range models.ABGroups {
				result.Failed = append(result.Failed, lookupKey(rt.Code, g))
			}
			continue
		}

		for _, group := range models.ABGroups {
			prob := referenceProbability
			breakdown, err := p.adjuster.Quote(pricing.QuoteInput{
				BasePrice:          rt.BasePrice,
				Group:              group,
				At:                 quotedAt,
				CheckIn:            checkIn,
				Nights:             1,
				BookingProbability: &prob,
			})
			if err != nil {
				result.Failed = append(result.Failed, lookupKey(rt.Code, group))
				continue
			}

			rate := &models.PublishedRate{
				RoomType:     rt.Code,
				Group:        group,
				LookupKey:    lookupKey(rt.Code, group),
				NightlyPrice: breakdown.NightlyPrice,
				Currency:     rt.Currency,
				Factors:      breakdown.Factors,
				ProductID:    productID,
			}
			priceID, err := p.breaker.Execute(func() (string, error) {
				return p.catalog.CreatePrice(rate)
			})
			if err != nil {
				p.log.Error("STRIPE", fmt.Sprintf("Failed to publish %s: %v", rate.LookupKey, err))
				result.Failed = append(result.Failed, rate.LookupKey)
				continue
			}
			rate.PriceID = priceID
			result.Published = append(result.Published, *rate)
			p.log.LogPricing("PUBLISH", rate.LookupKey, fmt.Sprintf("%.2f %s as %s", rate.NightlyPrice, rate.Currency, priceID))
		}
	}
	return result, nil
}

func (p *RatePublisher) BreakerState() string {
	return p.breaker.State().String()
}

func lookupKey(code string, group models.ABGroup) string {
	return fmt.Sprintf("nightly_%s_%s", code, group)
}
