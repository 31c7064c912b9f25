package config

import (
	"flag"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port        string
	Env         string
	DatabaseDSN string
	LLM         LLMConfig
	Cluster     ClusterConfig
	Audit       AuditArchiveConfig
}

type LLMConfig struct {
	Provider string // "gemini", "groq" or "fake"
	Model    string
	APIKey   string
	Timeout  time.Duration
	Retries  int
	RPS      float64
	Burst    int
}

type ClusterConfig struct {
	BatchSize      int
	CandidateLimit int
}

type AuditArchiveConfig struct {
	Enabled   bool
	Endpoint  string
	Region    string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

func Load() (*Config, error) {
	_ = godotenv.Load()

	port := flag.String("port", ":8081", "server port")
	flag.Parse()

	if envPort := os.Getenv("PORT"); envPort != "" {
		if strings.HasPrefix(envPort, ":") {
			*port = envPort
		} else {
			*port = ":" + envPort
		}
	}

	env := strings.TrimSpace(os.Getenv("APP_ENV"))
	if env == "" {
		env = "local"
	}

	return &Config{
		Port:        *port,
		Env:         env,
		DatabaseDSN: strings.TrimSpace(os.Getenv("DATABASE_DSN")),
		LLM:         loadLLMConfig(),
		Cluster:     loadClusterConfig(),
		Audit:       loadAuditArchiveConfig(env),
	}, nil
}

func loadLLMConfig() LLMConfig {
	provider := strings.ToLower(strings.TrimSpace(os.Getenv("LLM_PROVIDER")))
	if provider == "" {
		provider = "gemini"
	}
	model := strings.TrimSpace(os.Getenv("LLM_MODEL"))
	if model == "" {
		switch provider {
		case "groq":
			model = "llama-3.3-70b-versatile"
		default:
			model = "gemini-2.0-flash"
		}
	}
	return LLMConfig{
		Provider: provider,
		Model:    model,
		APIKey:   firstNonEmpty(strings.TrimSpace(os.Getenv("LLM_API_KEY")), strings.TrimSpace(os.Getenv("GROQ_API_KEY"))),
		Timeout:  envDuration("LLM_TIMEOUT", 60*time.Second),
		Retries:  envInt("LLM_RETRIES", 3),
		RPS:      envFloat("LLM_RPS", 0),
		Burst:    envInt("LLM_BURST", 0),
	}
}

func loadClusterConfig() ClusterConfig {
	return ClusterConfig{
		BatchSize:      envInt("CLUSTER_BATCH_SIZE", 0),
		CandidateLimit: envInt("CLUSTER_CANDIDATE_LIMIT", 0),
	}
}

func loadAuditArchiveConfig(env string) AuditArchiveConfig {
	endpoint := resolveArchiveEndpoint(env)
	return AuditArchiveConfig{
		Enabled:   endpoint != "" && strings.TrimSpace(os.Getenv("AUDIT_S3_ACCESS_KEY")) != "",
		Endpoint:  endpoint,
		Region:    firstNonEmpty(strings.TrimSpace(os.Getenv("AUDIT_S3_REGION")), "us-east-1"),
		AccessKey: firstNonEmpty(strings.TrimSpace(os.Getenv("AUDIT_S3_ACCESS_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_USER"))),
		SecretKey: firstNonEmpty(strings.TrimSpace(os.Getenv("AUDIT_S3_SECRET_KEY")), strings.TrimSpace(os.Getenv("MINIO_ROOT_PASSWORD"))),
		Bucket:    firstNonEmpty(strings.TrimSpace(os.Getenv("AUDIT_S3_BUCKET")), "queryscope-audit"),
		UseSSL:    resolveArchiveUseSSL(env),
	}
}

func resolveArchiveEndpoint(env string) string {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return strings.TrimSpace(os.Getenv("AUDIT_MINIO_ENDPOINT"))
	}
	return strings.TrimSpace(os.Getenv("AUDIT_S3_ENDPOINT"))
}

func resolveArchiveUseSSL(env string) bool {
	if strings.EqualFold(strings.TrimSpace(env), "local") {
		return false
	}
	raw := strings.TrimSpace(os.Getenv("AUDIT_S3_USE_SSL"))
	if raw == "" {
		return true
	}
	v, err := strconv.ParseBool(raw)
	if err != nil {
		return true
	}
	return v
}

func envInt(key string, fallback int) int {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return fallback
	}
	return n
}

func envFloat(key string, fallback float64) float64 {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return fallback
	}
	return f
}

func envDuration(key string, fallback time.Duration) time.Duration {
	v := strings.TrimSpace(os.Getenv(key))
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return fallback
	}
	return d
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
