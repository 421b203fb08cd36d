package config

import (
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config struct {
	App             AppConfig
	Service         ServiceConfig
	DB              DBConfig
	Redis           RedisConfig
	JWT             JWTConfig
	Password        PasswordConfig
	RateLimit       RateLimitConfig
	FeatureFlags    FeatureFlagsConfig
	Eventing        EventingConfig
	GCP             GCPConfig
	PubSub          PubSubConfig
	Outbox          OutboxConfig
	Booking         BookingConfig
	Tax             TaxConfig
	Payments        PaymentsConfig
	Razorpay        RazorpayConfig
	Cashfree        CashfreeConfig
	CCAvenue        CCAvenueConfig
	Stripe          StripeConfig
	Payouts         PayoutsConfig
	RazorpayX       RazorpayXConfig
	CashfreePayouts CashfreePayoutsConfig
	Tickets         TicketsConfig
}

func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	if err := cfg.DB.ensureDSN(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

type AppConfig struct {
	Env          string `envconfig:"REELPASS_APP_ENV" required:"true"`
	Port         string `envconfig:"REELPASS_APP_PORT" required:"true"`
	LogLevel     string `envconfig:"REELPASS_LOG_LEVEL" default:"info"`
	LogWarnStack bool   `envconfig:"REELPASS_LOG_WARN_STACK" default:"false"`
	LogFormat    string `envconfig:"REELPASS_LOG_FORMAT" default:"json"`
}

func (a AppConfig) IsDev() bool {
	return strings.EqualFold(a.Env, AppEnvDev)
}

func (a AppConfig) IsProd() bool {
	return strings.EqualFold(a.Env, AppEnvProd)
}

type ServiceConfig struct {
	Kind string `envconfig:"REELPASS_SERVICE_KIND" default:"api"`
}

type DBConfig struct {
	DSN    string `envconfig:"REELPASS_DB_DSN"`
	Driver string `envconfig:"REELPASS_DB_DRIVER" default:"postgres"`

	LegacyHost     string `envconfig:"REELPASS_DB_HOST"`
	LegacyPort     int    `envconfig:"REELPASS_DB_PORT" default:"5432"`
	LegacyUser     string `envconfig:"REELPASS_DB_USER"`
	LegacyPassword string `envconfig:"REELPASS_DB_PASSWORD"`
	LegacyName     string `envconfig:"REELPASS_DB_NAME"`
	LegacySSLMode  string `envconfig:"REELPASS_DB_SSLMODE" default:"disable"`

	MaxOpenConns    int           `envconfig:"REELPASS_DB_MAX_OPEN_CONNS" default:"20"`
	MaxIdleConns    int           `envconfig:"REELPASS_DB_MAX_IDLE_CONNS" default:"10"`
	ConnMaxLifetime time.Duration `envconfig:"REELPASS_DB_CONN_MAX_LIFETIME" default:"1h"`
	ConnMaxIdleTime time.Duration `envconfig:"REELPASS_DB_CONN_MAX_IDLE_TIME" default:"10m"`
	SlowQuery       time.Duration `envconfig:"REELPASS_DB_SLOW_QUERY" default:"500ms"`
}

type RedisConfig struct {
	URL          string        `envconfig:"REELPASS_REDIS_URL" required:"true"`
	Address      string        `envconfig:"REELPASS_REDIS_ADDR"`
	Password     string        `envconfig:"REELPASS_REDIS_PASSWORD"`
	DB           int           `envconfig:"REELPASS_REDIS_DB" default:"0"`
	PoolSize     int           `envconfig:"REELPASS_REDIS_POOL_SIZE" default:"10"`
	MinIdleConns int           `envconfig:"REELPASS_REDIS_MIN_IDLE_CONNS" default:"2"`
	DialTimeout  time.Duration `envconfig:"REELPASS_REDIS_DIAL_TIMEOUT" default:"5s"`
	ReadTimeout  time.Duration `envconfig:"REELPASS_REDIS_READ_TIMEOUT" default:"5s"`
	WriteTimeout time.Duration `envconfig:"REELPASS_REDIS_WRITE_TIMEOUT" default:"5s"`
	KeyPrefix    string        `envconfig:"REELPASS_REDIS_KEY_PREFIX" default:"rp"`
}

type JWTConfig struct {
	Secret            string `envconfig:"REELPASS_JWT_SECRET" required:"true"`
	Issuer            string `envconfig:"REELPASS_JWT_ISSUER" required:"true"`
	ExpirationMinutes int    `envconfig:"REELPASS_JWT_EXPIRATION_MINUTES" required:"true"`
}

// TokenTTL returns the access token lifetime.
func (j JWTConfig) TokenTTL() time.Duration {
	if j.ExpirationMinutes <= 0 {
		return 0
	}
	return time.Duration(j.ExpirationMinutes) * time.Minute
}

type PasswordConfig struct {
	ArgonMemoryKB    int `envconfig:"REELPASS_ARGON_MEMORY_KB" default:"65536"`
	ArgonTime        int `envconfig:"REELPASS_ARGON_TIME" default:"3"`
	ArgonParallelism int `envconfig:"REELPASS_ARGON_PARALLELISM" default:"2"`
	ArgonSaltLen     int `envconfig:"REELPASS_ARGON_SALT_LEN" default:"16"`
	ArgonKeyLen      int `envconfig:"REELPASS_ARGON_KEY_LEN" default:"32"`
}

type RateLimitConfig struct {
	LoginWindow      time.Duration `envconfig:"REELPASS_AUTH_RATE_LIMIT_LOGIN_WINDOW" default:"1m"`
	LoginEmailLimit  int           `envconfig:"REELPASS_AUTH_RATE_LIMIT_LOGIN_EMAIL_LIMIT" default:"5"`
	LoginIPLimit     int           `envconfig:"REELPASS_AUTH_RATE_LIMIT_LOGIN_IP_LIMIT" default:"20"`
	BookingWindow    time.Duration `envconfig:"REELPASS_RATE_LIMIT_BOOKING_WINDOW" default:"10m"`
	BookingUserLimit int           `envconfig:"REELPASS_RATE_LIMIT_BOOKING_USER_LIMIT" default:"10"`
	RegisterIPLimit  int           `envconfig:"REELPASS_RATE_LIMIT_REGISTER_IP_LIMIT" default:"5"`
}

type FeatureFlagsConfig struct {
	UseSQLite   bool `envconfig:"REELPASS_USE_SQLITE" default:"false"`
	AutoMigrate bool `envconfig:"REELPASS_AUTO_MIGRATE" default:"false"`
}

type EventingConfig struct {
	OutboxIdempotencyTTL time.Duration `envconfig:"REELPASS_EVENTING_IDEMPOTENCY_TTL" default:"720h"`
}

type GCPConfig struct {
	ProjectID              string `envconfig:"REELPASS_GCP_PROJECT_ID" required:"true"`
	CredentialsJSON        string `envconfig:"REELPASS_GCP_CREDENTIALS_JSON"`
	ApplicationCredentials string `envconfig:"REELPASS_GOOGLE_APPLICATION_CREDENTIALS"`
}

type PubSubConfig struct {
	BookingsTopic       string `envconfig:"REELPASS_PUBSUB_BOOKINGS_TOPIC" required:"true"`
	PaymentsTopic       string `envconfig:"REELPASS_PUBSUB_PAYMENTS_TOPIC" required:"true"`
	PayoutsTopic        string `envconfig:"REELPASS_PUBSUB_PAYOUTS_TOPIC" required:"true"`
	PayoutsSubscription string `envconfig:"REELPASS_PUBSUB_PAYOUTS_SUBSCRIPTION" required:"true"`
}

type OutboxConfig struct {
	BatchSize      int           `envconfig:"REELPASS_OUTBOX_PUBLISH_BATCH_SIZE" default:"50"`
	PollIntervalMS int           `envconfig:"REELPASS_OUTBOX_PUBLISH_POLL_MS" default:"500"`
	MaxAttempts    int           `envconfig:"REELPASS_OUTBOX_MAX_ATTEMPTS" default:"10"`
	Retention      time.Duration `envconfig:"REELPASS_OUTBOX_RETENTION" default:"720h"`
}

type BookingConfig struct {
	HoldWindow     time.Duration `envconfig:"REELPASS_BOOKING_HOLD_WINDOW" default:"15m"`
	SweepInterval  time.Duration `envconfig:"REELPASS_BOOKING_SWEEP_INTERVAL" default:"1m"`
	SweepBatch     int           `envconfig:"REELPASS_BOOKING_SWEEP_BATCH" default:"200"`
	Currency       string        `envconfig:"REELPASS_BOOKING_CURRENCY" default:"INR"`
	ConvenienceFee string        `envconfig:"REELPASS_BOOKING_CONVENIENCE_FEE" default:"0"`
}

// TaxConfig carries the tax rate, in basis points, applied to each payable kind.
type TaxConfig struct {
	BookingBps   int64 `envconfig:"REELPASS_TAX_BOOKING_BPS" default:"1800"`
	VideoBps     int64 `envconfig:"REELPASS_TAX_VIDEO_BPS" default:"1800"`
	VendorFeeBps int64 `envconfig:"REELPASS_TAX_VENDOR_FEE_BPS" default:"1800"`
}

type PaymentsConfig struct {
	DefaultGateway        string        `envconfig:"REELPASS_PAYMENTS_DEFAULT_GATEWAY" default:"razorpay"`
	WebhookIdempotencyTTL time.Duration `envconfig:"REELPASS_PAYMENTS_WEBHOOK_IDEMPOTENCY_TTL" default:"72h"`
	PlatformCommissionBps int64         `envconfig:"REELPASS_PAYMENTS_PLATFORM_COMMISSION_BPS" default:"1000"`
	VendorFeeAmount       string        `envconfig:"REELPASS_PAYMENTS_VENDOR_FEE_AMOUNT" default:"999.00"`
	HTTPTimeout           time.Duration `envconfig:"REELPASS_PAYMENTS_HTTP_TIMEOUT" default:"15s"`
}

type RazorpayConfig struct {
	KeyID         string `envconfig:"REELPASS_RAZORPAY_KEY_ID"`
	KeySecret     string `envconfig:"REELPASS_RAZORPAY_KEY_SECRET"`
	WebhookSecret string `envconfig:"REELPASS_RAZORPAY_WEBHOOK_SECRET"`
	BaseURL       string `envconfig:"REELPASS_RAZORPAY_BASE_URL" default:"https://api.razorpay.com"`
}

// Enabled reports whether enough credentials are present to build a client.
func (r RazorpayConfig) Enabled() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != ""
}

type CashfreeConfig struct {
	ClientID     string `envconfig:"REELPASS_CASHFREE_CLIENT_ID"`
	ClientSecret string `envconfig:"REELPASS_CASHFREE_CLIENT_SECRET"`
	APIVersion   string `envconfig:"REELPASS_CASHFREE_API_VERSION" default:"2023-08-01"`
	BaseURL      string `envconfig:"REELPASS_CASHFREE_BASE_URL" default:"https://sandbox.cashfree.com"`
	ReturnURL    string `envconfig:"REELPASS_CASHFREE_RETURN_URL"`
}

func (c CashfreeConfig) Enabled() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

type CCAvenueConfig struct {
	MerchantID     string `envconfig:"REELPASS_CCAVENUE_MERCHANT_ID"`
	AccessCode     string `envconfig:"REELPASS_CCAVENUE_ACCESS_CODE"`
	WorkingKey     string `envconfig:"REELPASS_CCAVENUE_WORKING_KEY"`
	RedirectURL    string `envconfig:"REELPASS_CCAVENUE_REDIRECT_URL"`
	CancelURL      string `envconfig:"REELPASS_CCAVENUE_CANCEL_URL"`
	TransactionURL string `envconfig:"REELPASS_CCAVENUE_TRANSACTION_URL" default:"https://test.ccavenue.com/transaction/transaction.do?command=initiateTransaction"`
	APIURL         string `envconfig:"REELPASS_CCAVENUE_API_URL" default:"https://apitest.ccavenue.com/apis/servlet/DoWebTrans"`
}

func (c CCAvenueConfig) Enabled() bool {
	return strings.TrimSpace(c.MerchantID) != "" && strings.TrimSpace(c.WorkingKey) != ""
}

type StripeConfig struct {
	APIKey string `envconfig:"REELPASS_STRIPE_API_KEY"`
	Secret string `envconfig:"REELPASS_STRIPE_SECRET"`
	Env    string `envconfig:"REELPASS_STRIPE_ENV" default:"test"`
}

// Environment returns the normalized Stripe environment (test/live).
func (s StripeConfig) Environment() string {
	env := strings.TrimSpace(strings.ToLower(s.Env))
	if env == "" {
		return "test"
	}
	return env
}

func (s StripeConfig) Enabled() bool {
	return strings.TrimSpace(s.APIKey) != ""
}

type PayoutsConfig struct {
	Provider     string        `envconfig:"REELPASS_PAYOUTS_PROVIDER" default:"cashfree"`
	SyncBatch    int           `envconfig:"REELPASS_PAYOUTS_SYNC_BATCH" default:"100"`
	MinAmount    string        `envconfig:"REELPASS_PAYOUTS_MIN_AMOUNT" default:"100.00"`
	TransferMode string        `envconfig:"REELPASS_PAYOUTS_TRANSFER_MODE" default:"IMPS"`
	HTTPTimeout  time.Duration `envconfig:"REELPASS_PAYOUTS_HTTP_TIMEOUT" default:"20s"`
	SyncInterval time.Duration `envconfig:"REELPASS_PAYOUTS_SYNC_INTERVAL" default:"10m"`
}

type RazorpayXConfig struct {
	KeyID         string `envconfig:"REELPASS_RAZORPAYX_KEY_ID"`
	KeySecret     string `envconfig:"REELPASS_RAZORPAYX_KEY_SECRET"`
	AccountNumber string `envconfig:"REELPASS_RAZORPAYX_ACCOUNT_NUMBER"`
	BaseURL       string `envconfig:"REELPASS_RAZORPAYX_BASE_URL" default:"https://api.razorpay.com"`
}

func (r RazorpayXConfig) Enabled() bool {
	return strings.TrimSpace(r.KeyID) != "" && strings.TrimSpace(r.KeySecret) != "" && strings.TrimSpace(r.AccountNumber) != ""
}

type CashfreePayoutsConfig struct {
	ClientID     string `envconfig:"REELPASS_CASHFREE_PAYOUTS_CLIENT_ID"`
	ClientSecret string `envconfig:"REELPASS_CASHFREE_PAYOUTS_CLIENT_SECRET"`
	APIVersion   string `envconfig:"REELPASS_CASHFREE_PAYOUTS_API_VERSION" default:"2024-01-01"`
	BaseURL      string `envconfig:"REELPASS_CASHFREE_PAYOUTS_BASE_URL" default:"https://sandbox.cashfree.com/payout"`
}

func (c CashfreePayoutsConfig) Enabled() bool {
	return strings.TrimSpace(c.ClientID) != "" && strings.TrimSpace(c.ClientSecret) != ""
}

type TicketsConfig struct {
	QRSecret string `envconfig:"REELPASS_TICKETS_QR_SECRET" required:"true"`
	QRSize   int    `envconfig:"REELPASS_TICKETS_QR_SIZE" default:"8"`
}

func (db *DBConfig) ensureDSN() error {
	if db.DSN != "" {
		return nil
	}
	if strings.EqualFold(db.Driver, "sqlite") {
		db.DSN = "file:reelpass.db?cache=shared"
		return nil
	}

	missing := []string{}
	legacyValues := map[string]string{
		EnvDBHost: db.LegacyHost,
		EnvDBUser: db.LegacyUser,
		EnvDBName: db.LegacyName,
	}
	for _, env := range legacyDBEnvVars {
		if legacyValues[env] == "" {
			missing = append(missing, env)
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("either %s or %s are required", EnvDBDSN, strings.Join(missing, ", "))
	}

	userInfo := url.User(db.LegacyUser)
	if db.LegacyPassword != "" {
		userInfo = url.UserPassword(db.LegacyUser, db.LegacyPassword)
	}

	u := &url.URL{
		Scheme: "postgres",
		User:   userInfo,
		Host:   fmt.Sprintf("%s:%d", db.LegacyHost, db.LegacyPort),
		Path:   db.LegacyName,
	}

	if db.LegacySSLMode != "" {
		q := u.Query()
		q.Set("sslmode", db.LegacySSLMode)
		u.RawQuery = q.Encode()
	}

	db.DSN = u.String()
	return nil
}
