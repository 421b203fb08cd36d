package config

const (
	EnvPrefix = "REELPASS"

	AppEnvDev  = "dev"
	AppEnvProd = "prod"
)

const (
	EnvAppEnv   = "REELPASS_APP_ENV"
	EnvPort     = "REELPASS_APP_PORT"
	EnvLogLevel = "REELPASS_LOG_LEVEL"

	EnvDBDSN    = "REELPASS_DB_DSN"
	EnvDBDriver = "REELPASS_DB_DRIVER"
	EnvDBHost   = "REELPASS_DB_HOST"
	EnvDBUser   = "REELPASS_DB_USER"
	EnvDBName   = "REELPASS_DB_NAME"

	EnvRedisURL = "REELPASS_REDIS_URL"

	EnvJWTSecret  = "REELPASS_JWT_SECRET"
	EnvJWTIssuer  = "REELPASS_JWT_ISSUER"
	EnvJWTExpMins = "REELPASS_JWT_EXPIRATION_MINUTES"

	EnvGCPProjectID = "REELPASS_GCP_PROJECT_ID"

	EnvPubSubBookingsTopic = "REELPASS_PUBSUB_BOOKINGS_TOPIC"
	EnvPubSubPaymentsTopic = "REELPASS_PUBSUB_PAYMENTS_TOPIC"
	EnvPubSubPayoutsTopic  = "REELPASS_PUBSUB_PAYOUTS_TOPIC"
	EnvPubSubPayoutsSub    = "REELPASS_PUBSUB_PAYOUTS_SUBSCRIPTION"

	EnvBookingHoldWindow = "REELPASS_BOOKING_HOLD_WINDOW"
	EnvTaxBookingBps     = "REELPASS_TAX_BOOKING_BPS"
	EnvTaxVideoBps       = "REELPASS_TAX_VIDEO_BPS"
	EnvTaxVendorFeeBps   = "REELPASS_TAX_VENDOR_FEE_BPS"

	EnvTicketsQRSecret = "REELPASS_TICKETS_QR_SECRET"
)

var legacyDBEnvVars = []string{EnvDBHost, EnvDBUser, EnvDBName}
