package config

import (
	"errors"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	DatabaseURL string
	SslCertPath string
	Port        string
	JWTSecret   string
	LogMode     string
	LogHashSalt string
	CorsOrigins []string

	// Object storage for archived uploads: "s3", "minio" or "none".
	ObjectStore    string
	AwsAccessKey   string
	AwsSecretKey   string
	AwsRegion      string
	BucketName     string
	MinioEndpoint  string
	MinioAccessKey string
	MinioSecretKey string
	MinioUseSSL    bool

	// Completion service: "gemini" or "openai".
	LLMProvider   string
	AIAPIKey      string
	GenModel      string
	EmbedModel    string
	OpenAIAPIKey  string
	OpenAIBaseURL string
	OpenAIModel   string
	GenTimeout    time.Duration

	WorkDir        string
	OCREngine      string
	OCRLanguage    string
	OCRConcurrency int
	OCRPageTimeout time.Duration
	PdftoppmPath   string
	TesseractPath  string
	MaxUploadBytes int64

	StreakTimezone string
	IndexWorkers   int
}

// LoadConfig loads the environment variables and return config
func LoadConfig() *Config {

	_ = godotenv.Load()

	cfg := &Config{
		DatabaseURL: getEnv("DATABASE_URL", ""),
		SslCertPath: getEnv("SSL_CERT_PATH", ""),
		Port:        getEnv("PORT", "8080"),
		JWTSecret:   getEnv("JWT_SECRET", ""),
		LogMode:     getEnv("LOG_MODE", "development"),
		LogHashSalt: getEnv("LOG_HASH_SALT", ""),
		CorsOrigins: getEnvList("CORS_ORIGINS", []string{"http://localhost:5173"}),

		ObjectStore:    strings.ToLower(getEnv("OBJECT_STORE", "s3")),
		AwsAccessKey:   getEnv("AWS_ACCESS_KEY", ""),
		AwsSecretKey:   getEnv("AWS_SECRET_KEY", ""),
		AwsRegion:      getEnv("AWS_REGION", "us-east-2"),
		BucketName:     getEnv("BUCKET_NAME", "studybuddy-materials"),
		MinioEndpoint:  getEnv("MINIO_ENDPOINT", "localhost:9000"),
		MinioAccessKey: getEnv("MINIO_ACCESS_KEY", ""),
		MinioSecretKey: getEnv("MINIO_SECRET_KEY", ""),
		MinioUseSSL:    getEnvBool("MINIO_USE_SSL", false),

		LLMProvider:   strings.ToLower(getEnv("LLM_PROVIDER", "gemini")),
		AIAPIKey:      getEnv("GEMINI_API_KEY", ""),
		GenModel:      getEnv("GEN_MODEL", "gemini-2.0-flash"),
		EmbedModel:    getEnv("EMBED_MODEL", "text-embedding-004"),
		OpenAIAPIKey:  getEnv("OPENAI_API_KEY", ""),
		OpenAIBaseURL: getEnv("OPENAI_BASE_URL", ""),
		OpenAIModel:   getEnv("OPENAI_MODEL", "gpt-4o-mini"),
		GenTimeout:    getEnvDuration("GEN_TIMEOUT", 90*time.Second),

		WorkDir:        getEnv("WORK_DIR", os.TempDir()+"/studybuddy"),
		OCREngine:      strings.ToLower(getEnv("OCR_ENGINE", "tesseract")),
		OCRLanguage:    getEnv("OCR_LANGUAGE", "eng"),
		OCRConcurrency: getEnvInt("OCR_CONCURRENCY", 4),
		OCRPageTimeout: getEnvDuration("OCR_PAGE_TIMEOUT", 2*time.Minute),
		PdftoppmPath:   getEnv("PDFTOPPM_PATH", "pdftoppm"),
		TesseractPath:  getEnv("TESSERACT_PATH", "tesseract"),
		MaxUploadBytes: int64(getEnvInt("MAX_UPLOAD_MB", 50)) << 20,

		StreakTimezone: getEnv("STREAK_TIMEZONE", "UTC"),
		IndexWorkers:   getEnvInt("INDEX_WORKERS", 2),
	}

	return cfg
}

// Validate reports settings the service cannot start without.
func (c *Config) Validate() error {
	var errs []error
	if c.DatabaseURL == "" {
		errs = append(errs, errors.New("DATABASE_URL not set"))
	}
	if c.JWTSecret == "" {
		errs = append(errs, errors.New("JWT_SECRET not set"))
	}
	switch c.LLMProvider {
	case "gemini":
		if c.AIAPIKey == "" {
			errs = append(errs, errors.New("GEMINI_API_KEY not set"))
		}
	case "openai":
		if c.OpenAIAPIKey == "" && c.OpenAIBaseURL == "" {
			errs = append(errs, errors.New("OPENAI_API_KEY or OPENAI_BASE_URL must be set"))
		}
	default:
		errs = append(errs, errors.New("LLM_PROVIDER must be gemini or openai"))
	}
	switch c.ObjectStore {
	case "s3", "minio", "none":
	default:
		errs = append(errs, errors.New("OBJECT_STORE must be s3, minio or none"))
	}
	switch c.OCREngine {
	case "tesseract", "gosseract":
	default:
		errs = append(errs, errors.New("OCR_ENGINE must be tesseract or gosseract"))
	}
	if c.OCRConcurrency < 1 {
		errs = append(errs, errors.New("OCR_CONCURRENCY must be >= 1"))
	}
	if _, err := time.LoadLocation(c.StreakTimezone); err != nil {
		errs = append(errs, errors.New("STREAK_TIMEZONE is not a valid IANA zone"))
	}
	return errors.Join(errs...)
}

// Helper to read environment variables with a default fallback
func getEnv(key, fallback string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return fallback
}

func getEnvInt(key string, def int) int {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		log.Printf("WARN: %s=%q not an int, using default %d", key, v, def)
		return def
	}
	return n
}

func getEnvBool(key string, def bool) bool {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a bool, using default %t", key, v, def)
		return def
	}
	return b
}

func getEnvDuration(key string, def time.Duration) time.Duration {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		log.Printf("WARN: %s=%q not a duration, using default %s", key, v, def)
		return def
	}
	return d
}

func getEnvList(key string, def []string) []string {
	v := getEnv(key, "")
	if v == "" {
		return def
	}
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
