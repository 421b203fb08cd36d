package routes

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/angelmondragon/reelpass-backend/api/controllers"
	"github.com/angelmondragon/reelpass-backend/api/middleware"
	"github.com/angelmondragon/reelpass-backend/pkg/config"
	"github.com/angelmondragon/reelpass-backend/pkg/enums"
	"github.com/angelmondragon/reelpass-backend/pkg/logger"
)

// redisStore is the slice of the redis client the router needs: health,
// idempotency and request throttling.
type redisStore interface {
	controllers.Pinger
	middleware.ResponseStore
	middleware.RateLimiterStore
}

// Services bundles what the HTTP surface calls into. Nil members answer
// with a 500 so partial wiring in tests stays usable.
type Services struct {
	Catalog   controllers.CatalogService
	Seats     controllers.SeatMapReader
	Bookings  controllers.BookingService
	Payments  controllers.PaymentService
	Recorder  controllers.PaymentRecorder
	Webhooks  controllers.WebhookHandler
	Purchases controllers.PurchaseService
	Vendors   controllers.VendorService
	Earnings  controllers.EarningsReader
	Payouts   controllers.PayoutService
	Tickets   controllers.TicketRedeemer

	DeadLetters controllers.DeadLetterService
}

func NewRouter(
	cfg *config.Config,
	logg *logger.Logger,
	dbP controllers.Pinger,
	redisClient redisStore,
	gatherer prometheus.Gatherer,
	svc Services,
) http.Handler {
	r := chi.NewRouter()
	r.Use(
		middleware.Recoverer(logg),
		middleware.RequestID(logg),
		middleware.Logging(logg),
		middleware.CORS(),
	)

	limits := cfg.RateLimit
	loginThrottle := middleware.Throttle(redisClient, logg,
		middleware.ByClientIP("vendor-login", limits.LoginWindow, limits.LoginIPLimit),
		middleware.ByBodyField("vendor-login", "email", limits.LoginWindow, limits.LoginEmailLimit),
	)
	registerThrottle := middleware.Throttle(redisClient, logg,
		middleware.ByClientIP("vendor-register", time.Hour, limits.RegisterIPLimit),
	)
	// seat holds block inventory for everyone else until they expire
	bookingThrottle := middleware.Throttle(redisClient, logg,
		middleware.ByActor("booking-create", limits.BookingWindow, limits.BookingUserLimit),
	)
	idem := middleware.Idempotency(redisClient, logg)

	r.Route("/health", func(r chi.Router) {
		r.Get("/live", controllers.HealthLive(cfg))
		r.Get("/ready", controllers.HealthReady(cfg, logg, controllers.Dependencies(dbP, redisClient)))
	})
	if gatherer != nil {
		r.Handle("/metrics", promhttp.HandlerFor(gatherer, promhttp.HandlerOpts{}))
	}

	r.Route("/api/v1", func(r chi.Router) {
		// public
		r.Get("/showtimes/{showtimeId}/seats", controllers.ShowtimeSeats(svc.Seats, logg))
		r.Get("/movies", controllers.ListMovies(svc.Catalog, logg))
		r.Get("/movies/{movieId}", controllers.GetMovie(svc.Catalog, logg))
		r.With(middleware.OptionalAuth(cfg.JWT, logg)).Get("/videos/{videoId}", controllers.GetVideo(svc.Catalog, logg))
		r.With(registerThrottle, idem).Post("/vendors/register", controllers.VendorRegister(svc.Vendors, logg))
		r.With(loginThrottle).Post("/vendors/login", controllers.VendorLogin(svc.Vendors, logg))

		webhook := controllers.PaymentWebhook(svc.Webhooks, logg)
		r.Post("/bookings/payment/webhook/{gateway}", webhook)
		r.Post("/video/payment/webhook/{gateway}", webhook)
		r.Post("/vendor/payment/webhook/{gateway}", webhook)

		r.Group(func(r chi.Router) {
			r.Use(middleware.Auth(cfg.JWT, logg))

			r.Post("/movies/{movieId}/reviews", controllers.AddReview(svc.Catalog, logg))

			r.Route("/bookings", func(r chi.Router) {
				r.With(bookingThrottle, idem).Post("/", controllers.CreateBooking(svc.Bookings, logg))
				r.Get("/", controllers.ListBookings(svc.Bookings, logg))
				r.Get("/{bookingId}", controllers.GetBooking(svc.Bookings, logg))
				r.Put("/{bookingId}/cancel", controllers.CancelBooking(svc.Bookings, logg))
				r.Get("/{bookingId}/ticket", controllers.BookingTicket(svc.Bookings, logg))
				r.Get("/{bookingId}/ticket/qr", controllers.BookingTicketQR(svc.Bookings, logg))
				r.With(idem).Post("/{bookingId}/payment", controllers.RecordBookingPayment(svc.Bookings, svc.Recorder, logg))
				r.With(idem).Post("/{bookingId}/payment/order", controllers.CreatePaymentOrder(svc.Payments, enums.PayableBooking, logg))
				r.Post("/{bookingId}/payment/verify", controllers.VerifyPayment(svc.Payments, enums.PayableBooking, logg))
				r.With(idem).Post("/{bookingId}/refund", controllers.RefundBooking(svc.Payments, logg))
			})

			r.Route("/video", func(r chi.Router) {
				r.With(idem).Post("/purchases", controllers.CreateVideoPurchase(svc.Purchases, logg))
				r.Get("/purchases", controllers.ListVideoPurchases(svc.Purchases, logg))
				r.Get("/purchases/{purchaseId}", controllers.GetVideoPurchase(svc.Purchases, logg))
				r.Get("/{videoId}/access", controllers.VideoAccess(svc.Purchases, logg))
				r.With(idem).Post("/payment/order", controllers.CreatePaymentOrder(svc.Payments, enums.PayableVideoPurchase, logg))
				r.Post("/payment/verify", controllers.VerifyPayment(svc.Payments, enums.PayableVideoPurchase, logg))
			})

			r.Route("/vendor", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleVendor), middleware.VendorContext(logg))
				r.Get("/me", controllers.VendorProfile(svc.Vendors, logg))
				r.Put("/bank-details", controllers.VendorUpdateBankDetails(svc.Vendors, logg))
				r.With(idem).Post("/payment/order", controllers.CreatePaymentOrder(svc.Payments, enums.PayableVendorFee, logg))
				r.Post("/payment/verify", controllers.VerifyPayment(svc.Payments, enums.PayableVendorFee, logg))

				r.Get("/earnings", controllers.VendorEarnings(svc.Earnings, logg))
				r.With(idem).Post("/withdrawals", controllers.VendorRequestWithdrawal(svc.Payouts, logg))
				r.Get("/withdrawals", controllers.VendorListWithdrawals(svc.Payouts, logg))
				r.Get("/withdrawals/{withdrawalId}", controllers.VendorGetWithdrawal(svc.Payouts, logg))

				r.Post("/movies", controllers.VendorCreateMovie(svc.Catalog, logg))
				r.Patch("/movies/{movieId}", controllers.VendorUpdateMovie(svc.Catalog, logg))
				r.Delete("/movies/{movieId}", controllers.VendorDeleteMovie(svc.Catalog, logg))
				r.Post("/showtimes", controllers.VendorCreateShowtime(svc.Catalog, logg))
				r.Post("/showtimes/{showtimeId}/cancel", controllers.VendorCancelShowtime(svc.Catalog, logg))
				r.Post("/videos", controllers.VendorCreateVideo(svc.Catalog, logg))
				r.Patch("/videos/{videoId}", controllers.VendorUpdateVideo(svc.Catalog, logg))
				r.Delete("/videos/{videoId}", controllers.VendorDeleteVideo(svc.Catalog, logg))
			})

			r.Route("/admin", func(r chi.Router) {
				r.Use(middleware.RequireRole(logg, enums.RoleAdmin))
				r.Get("/vendors/pending", controllers.AdminPendingVendors(svc.Vendors, logg))
				r.Post("/vendors/{vendorId}/approve", controllers.AdminApproveVendor(svc.Vendors, logg))
				r.Post("/vendors/{vendorId}/reject", controllers.AdminRejectVendor(svc.Vendors, logg))
				r.With(idem).Post("/withdrawals/{withdrawalId}/retry", controllers.AdminRetryWithdrawal(svc.Payouts, logg))
				r.With(idem).Post("/withdrawals/{withdrawalId}/cancel", controllers.AdminCancelWithdrawal(svc.Payouts, logg))
				r.Get("/payouts/transfers/{transferId}", controllers.AdminTransferStatus(svc.Payouts, logg))
				r.Post("/tickets/redeem", controllers.AdminRedeemTicket(svc.Tickets, logg))
				r.With(idem).Post("/payments/{targetType}/{targetId}/refund", controllers.AdminRefund(svc.Payments, logg))
				r.Get("/outbox/dlq", controllers.AdminListDeadLetters(svc.DeadLetters, logg))
				r.With(idem).Post("/outbox/dlq/{eventId}/replay", controllers.AdminReplayDeadLetter(svc.DeadLetters, logg))
			})
		})
	})

	return r
}
