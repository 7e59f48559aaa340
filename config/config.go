package config

import (
	"encoding/json"
	"net/http"
	"os"
	"time"

	"github.com/joho/godotenv"
	"go.uber.org/zap"

	"github.com/linesmerrill/civic-report-api/logging"
	"github.com/linesmerrill/civic-report-api/models"
)

// Config holds the project config values
type Config struct {
	URL          string
	DatabaseName string
	BaseURL      string
	Port         string
	Environment  string

	PublicDir      string
	UploadDir      string
	StorageBackend string

	CloudinaryCloudName string
	CloudinaryAPIKey    string
	CloudinaryAPISecret string
	CloudinaryFolder    string

	SendgridAPIKey string
	MailFrom       string

	OrphanSweepSchedule string
	OrphanGracePeriod   time.Duration
	RequestTimeout      time.Duration
}

// New sets up all config related services
func New() *Config {
	// a missing .env is normal outside of local development
	_ = godotenv.Load()

	environment := getEnv("ENVIRONMENT", "production")

	//setup zap logger and replace default logger
	logger, err := logging.New(environment)
	if err != nil {
		logger = zap.NewExample()
	}
	_ = zap.ReplaceGlobals(logger)

	return &Config{
		URL:          getEnv("DB_URI", "mongodb://localhost:27017"),
		DatabaseName: getEnv("DB_NAME", "civic_reports"),
		BaseURL:      os.Getenv("BASE_URL"),
		Port:         getEnv("PORT", "3000"),
		Environment:  environment,

		PublicDir:      getEnv("PUBLIC_DIR", "public"),
		UploadDir:      getEnv("UPLOAD_DIR", "uploads"),
		StorageBackend: getEnv("STORAGE_BACKEND", "local"),

		CloudinaryCloudName: os.Getenv("CLOUDINARY_CLOUD_NAME"),
		CloudinaryAPIKey:    os.Getenv("CLOUDINARY_API_KEY"),
		CloudinaryAPISecret: os.Getenv("CLOUDINARY_API_SECRET"),
		CloudinaryFolder:    getEnv("CLOUDINARY_FOLDER", "reports"),

		SendgridAPIKey: os.Getenv("SENDGRID_API_KEY"),
		MailFrom:       getEnv("MAIL_FROM", "no-reply@civic-reports.local"),

		OrphanSweepSchedule: getEnv("ORPHAN_SWEEP_SCHEDULE", "@hourly"),
		OrphanGracePeriod:   getEnvAsDuration("ORPHAN_GRACE_PERIOD", time.Hour),
		RequestTimeout:      getEnvAsDuration("REQUEST_TIMEOUT", 30*time.Second),
	}
}

// ErrorStatus is a useful function that will log, write http headers and body for a
// give message, status code and err. Server errors only expose the status text to the
// caller, the underlying error goes to the log.
func ErrorStatus(message string, httpStatusCode int, w http.ResponseWriter, err error) {
	zap.S().Errorw(message, "status", httpStatusCode, "error", err)

	detail := http.StatusText(httpStatusCode)
	if httpStatusCode < http.StatusInternalServerError && err != nil {
		detail = err.Error()
	}
	b, _ := json.Marshal(models.ErrorMessageResponse{
		Response: models.MessageError{Message: message, Error: detail},
	})
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(httpStatusCode)
	w.Write(b)
}

func getEnv(key, fallback string) string {
	if value, ok := os.LookupEnv(key); ok && value != "" {
		return value
	}
	return fallback
}

func getEnvAsDuration(key string, fallback time.Duration) time.Duration {
	d, err := time.ParseDuration(os.Getenv(key))
	if err != nil || d <= 0 {
		return fallback
	}
	return d
}
