package config

import (
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/joho/godotenv"
)

const (
	defaultStoreDriver     = "mongo"
	defaultMongoURI        = "mongodb://localhost:27017"
	defaultMongoDB         = "mBuySellDB"
	defaultRedisAddr       = "localhost:6379"
	defaultJWTSecret       = "change-me-in-production"
	defaultTokenTTL        = time.Hour
	defaultAppPort         = "5000"
	defaultAppEnv          = "local"
	defaultStripeAPIBase   = "https://api.stripe.com"
	defaultPaymentCurrency = "usd"
	defaultIntentCacheTTL  = 10 * time.Minute
	defaultReconcileEvery  = 5 * time.Minute
	defaultRateLimitPerMin = 200
	defaultMaxBodyBytes    = 4 << 20
	defaultKafkaTopic      = "mbuysell.events"
)

var (
	loadOnce sync.Once
	loadErr  error

	mu     sync.RWMutex
	values = defaultValues()
)

// Load merges defaults, config/app.json, .env and the process environment,
// in that order of increasing precedence. It runs once per process.
func Load() error {
	loadOnce.Do(func() {
		loadErr = loadFromFiles("config/app.json", ".env")
	})
	return loadErr
}

func defaultValues() map[string]string {
	return map[string]string{
		"APP_ENV":            defaultAppEnv,
		"APP_PORT":           defaultAppPort,
		"STORE_DRIVER":       defaultStoreDriver,
		"MONGO_URI":          defaultMongoURI,
		"MONGO_DB":           defaultMongoDB,
		"REDIS_ADDR":         defaultRedisAddr,
		"REDIS_PASSWORD":     "",
		"JWT_SECRET":         defaultJWTSecret,
		"TOKEN_TTL":          defaultTokenTTL.String(),
		"STRIPE_SECRET_KEY":  "",
		"STRIPE_API_BASE":    defaultStripeAPIBase,
		"PAYMENT_CURRENCY":   defaultPaymentCurrency,
		"INTENT_CACHE_TTL":   defaultIntentCacheTTL.String(),
		"RECONCILE_INTERVAL": defaultReconcileEvery.String(),
		"RATE_LIMIT":         strconv.Itoa(defaultRateLimitPerMin),
		"MAX_BODY_BYTES":     strconv.Itoa(defaultMaxBodyBytes),
		"LOG_MONGO":          "false",
		"CORS_ORIGINS":       "",
		"KAFKA_BROKERS":      "",
		"KAFKA_TOPIC":        defaultKafkaTopic,
	}
}

func AppEnv() string  { _ = Load(); return get("APP_ENV", defaultAppEnv) }
func AppPort() string { _ = Load(); return get("APP_PORT", defaultAppPort) }

// IsProduction reports whether APP_ENV names a production deployment.
func IsProduction() bool {
	switch strings.ToLower(AppEnv()) {
	case "production", "prod":
		return true
	}
	return false
}

// StoreDriver selects the persistence backend: "mongo" or "memory".
func StoreDriver() string {
	_ = Load()

	driver := strings.ToLower(get("STORE_DRIVER", defaultStoreDriver))
	switch driver {
	case "mongo", "memory":
		return driver
	default:
		return defaultStoreDriver
	}
}

func MongoURI() string { _ = Load(); return get("MONGO_URI", defaultMongoURI) }
func MongoDB() string  { _ = Load(); return get("MONGO_DB", defaultMongoDB) }

func RedisAddr() string     { _ = Load(); return get("REDIS_ADDR", defaultRedisAddr) }
func RedisPassword() string { _ = Load(); return get("REDIS_PASSWORD", "") }

func JWTSecret() string {
	_ = Load()
	return get("JWT_SECRET", defaultJWTSecret)
}

// TokenTTL is the lifetime of issued identity tokens.
func TokenTTL() time.Duration {
	_ = Load()
	return duration("TOKEN_TTL", defaultTokenTTL)
}

// ── Payments ────────────────────────────────────────────────────────────────

func StripeSecretKey() string { _ = Load(); return get("STRIPE_SECRET_KEY", "") }
func StripeAPIBase() string   { _ = Load(); return get("STRIPE_API_BASE", defaultStripeAPIBase) }

func PaymentCurrency() string {
	_ = Load()
	return strings.ToLower(get("PAYMENT_CURRENCY", defaultPaymentCurrency))
}

func IntentCacheTTL() time.Duration {
	_ = Load()
	return duration("INTENT_CACHE_TTL", defaultIntentCacheTTL)
}

// ReconcileInterval is how often serve re-applies finalization for recent
// payments. Zero disables the background loop.
func ReconcileInterval() time.Duration {
	_ = Load()
	return duration("RECONCILE_INTERVAL", defaultReconcileEvery)
}

// ── HTTP ────────────────────────────────────────────────────────────────────

func RateLimit() int {
	_ = Load()
	n, err := strconv.Atoi(get("RATE_LIMIT", ""))
	if err != nil || n <= 0 {
		return defaultRateLimitPerMin
	}
	return n
}

func MaxBodyBytes() int64 {
	_ = Load()
	n, err := strconv.ParseInt(get("MAX_BODY_BYTES", ""), 10, 64)
	if err != nil || n <= 0 {
		return defaultMaxBodyBytes
	}
	return n
}

// CORSOrigins is the comma separated list of allowed browser origins. Empty
// allows any origin.
func CORSOrigins() []string {
	_ = Load()
	return list(get("CORS_ORIGINS", ""))
}

// ── Events ──────────────────────────────────────────────────────────────────

// KafkaBrokers is the comma separated broker list. Empty disables the
// Kafka event sink.
func KafkaBrokers() []string {
	_ = Load()
	return list(get("KAFKA_BROKERS", ""))
}

func KafkaTopic() string { _ = Load(); return get("KAFKA_TOPIC", defaultKafkaTopic) }

func LogToMongo() bool {
	_ = Load()
	b, _ := strconv.ParseBool(get("LOG_MONGO", "false"))
	return b
}

func loadFromFiles(configPath, envPath string) error {
	loaded := defaultValues()

	if err := mergeJSONConfig(configPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	if err := mergeDotEnv(envPath, loaded); err != nil {
		if !os.IsNotExist(err) {
			return err
		}
	}

	mergeProcessEnv(loaded)

	mu.Lock()
	values = loaded
	mu.Unlock()

	return nil
}

func mergeJSONConfig(path string, out map[string]string) error {
	file, err := os.Open(path)
	if err != nil {
		return err
	}
	defer file.Close()

	var raw map[string]interface{}
	if err := json.NewDecoder(file).Decode(&raw); err != nil {
		return fmt.Errorf("decode %s: %w", path, err)
	}

	for key, val := range raw {
		var s string
		switch v := val.(type) {
		case string:
			s = v
		case float64:
			s = strconv.FormatFloat(v, 'f', -1, 64)
		case bool:
			s = strconv.FormatBool(v)
		default:
			continue
		}

		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(s)
	}

	return nil
}

func mergeDotEnv(path string, out map[string]string) error {
	if _, err := os.Stat(path); err != nil {
		return err
	}

	env, err := godotenv.Read(path)
	if err != nil {
		return fmt.Errorf("read %s: %w", path, err)
	}

	for key, value := range env {
		k := strings.ToUpper(strings.TrimSpace(key))
		if k == "" {
			continue
		}
		out[k] = strings.TrimSpace(value)
	}
	return nil
}

// mergeProcessEnv lets real environment variables win over files, which is
// how containers and CI inject secrets.
func mergeProcessEnv(out map[string]string) {
	for key := range out {
		if v, ok := os.LookupEnv(key); ok {
			out[key] = strings.TrimSpace(v)
		}
	}
}

func get(key, fallback string) string {
	mu.RLock()
	defer mu.RUnlock()

	if value := strings.TrimSpace(values[key]); value != "" {
		return value
	}

	return fallback
}

func list(raw string) []string {
	var out []string
	for _, item := range strings.Split(raw, ",") {
		if item = strings.TrimSpace(item); item != "" {
			out = append(out, item)
		}
	}
	return out
}

func duration(key string, fallback time.Duration) time.Duration {
	raw := get(key, "")
	if raw == "" {
		return fallback
	}
	d, err := time.ParseDuration(raw)
	if err != nil || d < 0 {
		return fallback
	}
	return d
}

// Get reads any config key by name with an optional fallback.
func Get(key, fallback string) string {
	_ = Load()
	return get(key, fallback)
}

// Set overrides a key for the rest of the process. Intended for tests and CLI
// flags.
func Set(key, value string) {
	_ = Load()
	mu.Lock()
	values[strings.ToUpper(key)] = value
	mu.Unlock()
}
