package config

import (
	"flag"
	"log"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
)

const defaultPaymentDelay = 2 * time.Second

type Options struct {
	runAddr        string
	logLevel       string
	dataBaseDSN    string
	redisURL       string
	migrationsPath string
	paymentDelay   time.Duration
}

func NewOptions() *Options {
	return new(Options)
}

// ParseFlags handles command line arguments
// and stores their values in the corresponding variables.
func (o *Options) ParseFlags() {
	// Load environment variables from the .env file
	loadEnvFile()

	if err := o.Parse(os.Args[1:]); err != nil {
		log.Fatal(err)
	}
}

// Parse reads options from args, falling back to the environment and then to
// built-in defaults.
func (o *Options) Parse(args []string) error {
	fs := flag.NewFlagSet("shopflow", flag.ContinueOnError)

	fs.StringVar(&o.runAddr, "a", getEnvOrDefault("RUN_ADDRESS", ":8080"), "address and port to run server")
	fs.StringVar(&o.logLevel, "l", getEnvOrDefault("LOG_LEVEL", "debug"), "log level")
	fs.StringVar(&o.dataBaseDSN, "d", getEnvOrDefault("DATABASE_URI", ""), "database connection string, empty for the built-in catalog")
	fs.StringVar(&o.redisURL, "r", getEnvOrDefault("REDIS_URL", ""), "redis url for cart and order slots, empty for memory")
	fs.StringVar(&o.migrationsPath, "m", getEnvOrDefault("MIGRATIONS_PATH", "migrations"), "directory with database migrations")
	fs.DurationVar(&o.paymentDelay, "p", getDurationOrDefault("PAYMENT_DELAY", defaultPaymentDelay), "simulated payment processing time")

	// parse the arguments passed to the server into registered variables
	return fs.Parse(args)
}

func (o *Options) RunAddr() string {
	return o.runAddr
}

func (o *Options) LogLevel() string {
	return o.logLevel
}

func (o *Options) DataBaseDSN() string {
	return o.dataBaseDSN
}

func (o *Options) RedisURL() string {
	return o.redisURL
}

func (o *Options) MigrationsPath() string {
	return o.migrationsPath
}

func (o *Options) PaymentDelay() time.Duration {
	return o.paymentDelay
}

// getEnvOrDefault reads an environment variable or returns a default value if the variable is not set or is empty.
func getEnvOrDefault(key string, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}

func getDurationOrDefault(key string, defaultValue time.Duration) time.Duration {
	value := getEnvOrDefault(key, "")
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("Ignoring invalid %s=%q: %v", key, value, err)
		return defaultValue
	}
	return d
}

// loadEnvFile loads environment variables from the first .env file found in
// the working directory or the repository root above cmd/shopflow.
func loadEnvFile() {
	cwd, err := os.Getwd()
	if err != nil {
		log.Fatal(err)
	}

	for _, envPath := range []string{
		filepath.Join(cwd, ".env"),
		filepath.Join(cwd, "..", "..", ".env"),
	} {
		if err := godotenv.Load(envPath); err == nil {
			log.Printf(".env file loaded from %s", envPath)
			return
		}
	}
	log.Printf("No .env file found, proceeding without it")
}
