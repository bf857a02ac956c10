package config

import (
	"log"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	JWTSecret   string
	MongoURI    string
	DBName      string
	SkipAuth    bool
	Environment string
	AppId       string
	ServiceURL  string // Base URL used when rendering share link URLs in mails

	// DLP content scan
	EnableDLPCheck bool
	DLPPostgresDSN string // External DLP verdict database
	DLPScanPoint   string // Directory shared with the scanner
	DLPQueryCron   string // Schedule of the DLP poll job

	// ITA external audit system
	ITAReportEventURL string
	ITAEventDetailURL string
	ITAAuthKey        string
	ITAChannelID      string
	ITAChannelName    string
	ITAEventName      string
	ITAQueryCron      string // Schedule of the ITA poll job
	ITATimeoutSecs    int

	// Side effects
	BackupDir string
	StoreRoot string // Physical directory backing repositories

	// SMTP
	SMTPHost string
	SMTPPort int
	SMTPUser string
	SMTPPass string
	SMTPFrom string

	// Per-client policy hooks
	DMZMode      bool   // DMZ servers gate downloads on the ITA status only
	PolicyScript string // Optional script evaluated on link creation
}

// LoadConfig loads configuration from environment variables
func LoadConfig() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("No .env file found")
	}

	return &Config{
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", "secret"),
		MongoURI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
		DBName:      getEnv("DB_NAME", "go-shareguard"),
		SkipAuth:    getEnv("SKIP_AUTH", "false") == "true",
		Environment: getEnv("ENVIRONMENT", "development"),
		AppId:       getEnv("APP_ID", "go-shareguard"),
		ServiceURL:  getEnv("SERVICE_URL", "http://localhost:8080"),

		EnableDLPCheck: getEnv("ENABLE_DLP_CHECK", "true") == "true",
		DLPPostgresDSN: getEnv("DLP_POSTGRES_DSN", ""),
		DLPScanPoint:   getEnv("DLP_SCAN_POINT", "/tmp/dlp_scan"),
		DLPQueryCron:   getEnv("DLP_QUERY_CRON", "@every 5m"),

		ITAReportEventURL: getEnv("ITA_REPORT_EVENT_URL", ""),
		ITAEventDetailURL: getEnv("ITA_EVENT_DETAIL_URL", ""),
		ITAAuthKey:        getEnv("ITA_AUTH_KEY", ""),
		ITAChannelID:      getEnv("ITA_CHANNEL_ID", ""),
		ITAChannelName:    getEnv("ITA_CHANNEL_NAME", ""),
		ITAEventName:      getEnv("ITA_EVENT_NAME", "share-link-approval"),
		ITAQueryCron:      getEnv("ITA_QUERY_CRON", "@every 10m"),
		ITATimeoutSecs:    getEnvInt("ITA_TIMEOUT_SECS", 30),

		BackupDir: getEnv("BACKUP_DIR", "./backup"),
		StoreRoot: getEnv("STORE_ROOT", "./store"),

		SMTPHost: getEnv("SMTP_HOST", ""),
		SMTPPort: getEnvInt("SMTP_PORT", 25),
		SMTPUser: getEnv("SMTP_USER", ""),
		SMTPPass: getEnv("SMTP_PASS", ""),
		SMTPFrom: getEnv("SMTP_FROM", ""),

		DMZMode:      getEnv("DMZ_MODE", "false") == "true",
		PolicyScript: getEnv("POLICY_SCRIPT", ""),
	}, nil
}

func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, fallback int) int {
	if value, exists := os.LookupEnv(key); exists {
		if n, err := strconv.Atoi(value); err == nil {
			return n
		}
	}
	return fallback
}
