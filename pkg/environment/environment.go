package environment

import (
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/mitchellh/mapstructure"
)

// Production defines the prod environment
const Production = "prod"

// Staging defines the staging environment
const Staging = "staging"

// Dev defines the dev environment
const Dev = "dev"

// Environment holds every setting the server reads on startup
type Environment struct {
	Environment   string `mapstructure:"APP_ENV"`
	Port          string `mapstructure:"PORT"`
	Secret        string `mapstructure:"SECRET"`
	Database      string `mapstructure:"DATABASE"`
	DatabaseURL   string `mapstructure:"DATABASE_URL"`
	Cors          string `mapstructure:"CORS"`
	Redis         string `mapstructure:"REDIS"`
	RedisPassword string `mapstructure:"REDIS_PASSWORD"`
	UploadDir     string `mapstructure:"UPLOAD_DIR"`
	StorageBucket string `mapstructure:"STORAGE_BUCKET"`
	GCPProjectID  string `mapstructure:"GCP_PROJECT_ID"`
	TokenTTL      string `mapstructure:"TOKEN_TTL"`
	SocketAuth    string `mapstructure:"SOCKET_REQUIRE_TOKEN"`
}

var keys = []string{
	"APP_ENV", "PORT", "SECRET", "DATABASE", "DATABASE_URL", "CORS", "REDIS", "REDIS_PASSWORD",
	"UPLOAD_DIR", "STORAGE_BUCKET", "GCP_PROJECT_ID", "TOKEN_TTL",
	"SOCKET_REQUIRE_TOKEN",
}

// Global is the environment loaded by Initialize
var Global Environment

// Initialize reads .env if present, lets the process environment override it and decodes into Global
func Initialize() {
	env, err := Load(".env")
	if err != nil {
		panic(err)
	}

	Global = *env
}

// Load builds an Environment from the given dotenv file and the process environment
func Load(path string) (*Environment, error) {
	data, err := godotenv.Read(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, err
		}
		data = map[string]string{}
	}

	for _, key := range keys {
		if value, ok := os.LookupEnv(key); ok {
			data[key] = value
		}
	}

	env := defaults()
	err = mapstructure.Decode(data, env)
	if err != nil {
		return nil, err
	}

	return env, nil
}

func defaults() *Environment {
	return &Environment{
		Environment: Dev,
		Port:        "5000",
		Database:    "domaindude",
		DatabaseURL: "mongodb://localhost:27017",
		Cors:        "http://localhost:5173",
		UploadDir:   "uploads",
		TokenTTL:    "1h",
	}
}

// IsProduction tells whether the server runs in prod
func (e *Environment) IsProduction() bool {
	return strings.EqualFold(e.Environment, Production)
}

// TokenDuration parses TOKEN_TTL, falling back to one hour
func (e *Environment) TokenDuration() time.Duration {
	d, err := time.ParseDuration(e.TokenTTL)
	if err != nil || d <= 0 {
		return time.Hour
	}

	return d
}

// SocketRequiresToken tells whether socket joins must carry a login token
func (e *Environment) SocketRequiresToken() bool {
	required, err := strconv.ParseBool(strings.TrimSpace(e.SocketAuth))
	return err == nil && required
}
