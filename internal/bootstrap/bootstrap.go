// Package bootstrap assembles the domain services shared by the api, worker
// and cron-worker binaries.
package bootstrap

import (
	"fmt"
	"net/http"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/shopspring/decimal"

	"github.com/angelmondragon/reelpass-backend/internal/bookings"
	"github.com/angelmondragon/reelpass-backend/internal/catalog"
	"github.com/angelmondragon/reelpass-backend/internal/earnings"
	"github.com/angelmondragon/reelpass-backend/internal/inventory"
	"github.com/angelmondragon/reelpass-backend/internal/payments"
	"github.com/angelmondragon/reelpass-backend/internal/payouts"
	"github.com/angelmondragon/reelpass-backend/internal/pricing"
	"github.com/angelmondragon/reelpass-backend/internal/purchases"
	"github.com/angelmondragon/reelpass-backend/internal/tickets"
	"github.com/angelmondragon/reelpass-backend/internal/vendors"
	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/db"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways/cashfree"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways/ccavenue"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways/razorpay"
	"github.com/angelmondragon/reelpass-backend/pkg/gateways/stripe"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
	"github.com/angelmondragon/reelpass-backend/pkg/metrics"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox"
	"github.com/angelmondragon/reelpass-backend/pkg/outbox/idempotency"
	providers "github.com/angelmondragon/reelpass-backend/pkg/payouts"
	cashfreepayouts "github.com/angelmondragon/reelpass-backend/pkg/payouts/cashfree"
	"github.com/angelmondragon/reelpass-backend/pkg/payouts/razorpayx"
)

type Params struct {
	Config     *config.Config
	Logger     *logger.Logger
	DB         *db.Client
	Redis      idempotency.Store
	Registerer prometheus.Registerer
}

// Services is the wired domain layer.
type Services struct {
	Inventory *inventory.Ledger
	Catalog   *catalog.Service
	Tickets   *tickets.Service
	Bookings  *bookings.Service
	Purchases *purchases.Service
	Vendors   *vendors.Service
	Earnings  earnings.Service
	Payments  *payments.Service
	Payouts   *payouts.Service
	Outbox    *outbox.Repository

	DeadLetters *outbox.DeadLetters
}

func Build(params Params) (*Services, error) {
	cfg, logg, dbClient := params.Config, params.Logger, params.DB
	if cfg == nil || logg == nil || dbClient == nil {
		return nil, fmt.Errorf("config, logger and database are required")
	}
	gdb := dbClient.DB()

	outboxRepo := outbox.NewRepository(gdb)
	emitter := outbox.NewService(outboxRepo, logg)
	taxes := pricing.PoliciesFromConfig(cfg.Tax)

	currency, err := enums.ParseCurrency(cfg.Booking.Currency)
	if err != nil {
		return nil, fmt.Errorf("booking currency: %w", err)
	}
	convenienceFee, err := decimal.NewFromString(cfg.Booking.ConvenienceFee)
	if err != nil {
		return nil, fmt.Errorf("booking convenience fee: %w", err)
	}
	vendorFee, err := decimal.NewFromString(cfg.Payments.VendorFeeAmount)
	if err != nil {
		return nil, fmt.Errorf("vendor fee amount: %w", err)
	}
	minPayout, err := decimal.NewFromString(cfg.Payouts.MinAmount)
	if err != nil {
		return nil, fmt.Errorf("payout minimum: %w", err)
	}

	showtimes := inventory.NewRepository(gdb)
	ledger, err := inventory.NewLedger(showtimes)
	if err != nil {
		return nil, fmt.Errorf("inventory ledger: %w", err)
	}

	catalogSvc, err := catalog.NewService(catalog.ServiceParams{
		Logger: logg,
		DB:     dbClient,
		Repo:   catalog.NewRepository(gdb),
	})
	if err != nil {
		return nil, fmt.Errorf("catalog service: %w", err)
	}

	ticketSvc, err := tickets.NewService(gdb, emitter, cfg.Tickets)
	if err != nil {
		return nil, fmt.Errorf("ticket service: %w", err)
	}

	bookingSvc, err := bookings.NewService(bookings.ServiceParams{
		Logger:         logg,
		DB:             dbClient,
		Repo:           bookings.NewRepository(gdb),
		ShowtimeRepo:   showtimes,
		Inventory:      ledger,
		Tickets:        ticketSvc,
		Outbox:         emitter,
		HoldWindow:     cfg.Booking.HoldWindow,
		SweepBatch:     cfg.Booking.SweepBatch,
		ConvenienceFee: convenienceFee,
		Currency:       currency,
		Tax:            taxes.For(enums.PayableBooking),
	})
	if err != nil {
		return nil, fmt.Errorf("booking service: %w", err)
	}

	purchaseSvc, err := purchases.NewService(purchases.ServiceParams{
		Logger:     logg,
		DB:         dbClient,
		Repo:       purchases.NewRepository(gdb),
		Outbox:     emitter,
		HoldWindow: cfg.Booking.HoldWindow,
		SweepBatch: cfg.Booking.SweepBatch,
		Tax:        taxes.For(enums.PayableVideoPurchase),
	})
	if err != nil {
		return nil, fmt.Errorf("purchase service: %w", err)
	}

	vendorSvc, err := vendors.NewService(vendors.ServiceParams{
		Logger:    logg,
		DB:        dbClient,
		Repo:      vendors.NewRepository(gdb),
		Outbox:    emitter,
		JWT:       cfg.JWT,
		Password:  cfg.Password,
		FeeAmount: vendorFee,
		Currency:  currency,
		Tax:       taxes.For(enums.PayableVendorFee),
	})
	if err != nil {
		return nil, fmt.Errorf("vendor service: %w", err)
	}

	earningSvc, err := earnings.NewService(earnings.NewRepository(gdb), cfg.Payments.PlatformCommissionBps)
	if err != nil {
		return nil, fmt.Errorf("earnings service: %w", err)
	}

	registry, err := Gateways(cfg)
	if err != nil {
		return nil, err
	}
	var guard payments.DeliveryGuard
	if params.Redis != nil {
		manager, err := idempotency.NewManager(params.Redis, cfg.Payments.WebhookIdempotencyTTL)
		if err != nil {
			return nil, fmt.Errorf("webhook guard: %w", err)
		}
		guard = manager
	}
	paymentSvc, err := payments.NewService(payments.ServiceParams{
		Logger:   logg,
		DB:       dbClient,
		Repo:     payments.NewRepository(gdb),
		Gateways: registry,
		Fulfillers: []payments.Fulfiller{
			bookingSvc.Fulfiller(),
			purchaseSvc.Fulfiller(),
			vendorSvc.FeeFulfiller(),
		},
		Earnings: earningSvc,
		Outbox:   emitter,
		Guard:    guard,
		Metrics:  metrics.NewPaymentMetrics(params.Registerer),
	})
	if err != nil {
		return nil, fmt.Errorf("payment service: %w", err)
	}

	payoutProviders, defaultProvider, err := PayoutProviders(cfg)
	if err != nil {
		return nil, err
	}
	payoutSvc, err := payouts.NewService(payouts.ServiceParams{
		Logger:          logg,
		DB:              dbClient,
		Repo:            payouts.NewRepository(gdb),
		Earnings:        earningSvc,
		Outbox:          emitter,
		Providers:       payoutProviders,
		DefaultProvider: defaultProvider,
		MinAmount:       minPayout,
		TransferMode:    cfg.Payouts.TransferMode,
		SyncBatch:       cfg.Payouts.SyncBatch,
		Metrics:         metrics.NewPayoutMetrics(params.Registerer),
	})
	if err != nil {
		return nil, fmt.Errorf("payout service: %w", err)
	}

	deadLetters, err := outbox.NewDeadLetters(dbClient, outboxRepo, outbox.NewDLQRepository(gdb), logg)
	if err != nil {
		return nil, fmt.Errorf("dead letters: %w", err)
	}

	return &Services{
		Inventory: ledger,
		Catalog:   catalogSvc,
		Tickets:   ticketSvc,
		Bookings:  bookingSvc,
		Purchases: purchaseSvc,
		Vendors:   vendorSvc,
		Earnings:  earningSvc,
		Payments:  paymentSvc,
		Payouts:   payoutSvc,
		Outbox:    outboxRepo,

		DeadLetters: deadLetters,
	}, nil
}

// Gateways builds a registry holding every gateway with credentials
// configured.
func Gateways(cfg *config.Config) (*gateways.Registry, error) {
	defaultGateway, err := enums.ParseGateway(cfg.Payments.DefaultGateway)
	if err != nil {
		return nil, fmt.Errorf("default gateway: %w", err)
	}
	httpClient := &http.Client{Timeout: cfg.Payments.HTTPTimeout}
	var gws []gateways.Gateway
	if cfg.Razorpay.Enabled() {
		client, err := razorpay.New(cfg.Razorpay, httpClient)
		if err != nil {
			return nil, fmt.Errorf("razorpay: %w", err)
		}
		gws = append(gws, client)
	}
	if cfg.Cashfree.Enabled() {
		client, err := cashfree.New(cfg.Cashfree, httpClient)
		if err != nil {
			return nil, fmt.Errorf("cashfree: %w", err)
		}
		gws = append(gws, client)
	}
	if cfg.CCAvenue.Enabled() {
		client, err := ccavenue.New(cfg.CCAvenue, httpClient)
		if err != nil {
			return nil, fmt.Errorf("ccavenue: %w", err)
		}
		gws = append(gws, client)
	}
	if cfg.Stripe.Enabled() {
		client, err := stripe.New(cfg.Stripe, httpClient)
		if err != nil {
			return nil, fmt.Errorf("stripe: %w", err)
		}
		gws = append(gws, client)
	}
	return gateways.NewRegistry(defaultGateway, gws...), nil
}

// PayoutProviders returns the configured transfer providers and the one new
// withdrawals use.
func PayoutProviders(cfg *config.Config) ([]providers.Provider, enums.PayoutProvider, error) {
	defaultProvider, err := enums.ParsePayoutProvider(cfg.Payouts.Provider)
	if err != nil {
		return nil, "", fmt.Errorf("payout provider: %w", err)
	}
	httpClient := &http.Client{Timeout: cfg.Payouts.HTTPTimeout}
	var out []providers.Provider
	if cfg.CashfreePayouts.Enabled() {
		client, err := cashfreepayouts.New(cfg.CashfreePayouts, httpClient)
		if err != nil {
			return nil, "", fmt.Errorf("cashfree payouts: %w", err)
		}
		out = append(out, client)
	}
	if cfg.RazorpayX.Enabled() {
		client, err := razorpayx.New(cfg.RazorpayX, httpClient)
		if err != nil {
			return nil, "", fmt.Errorf("razorpayx: %w", err)
		}
		out = append(out, client)
	}
	return out, defaultProvider, nil
}
