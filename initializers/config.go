package initializers

import (
	"log"
	"os"
	"strconv"
)

// Config holds everything the server and complyctl read from the environment.
type Config struct {
	DatabaseURL        string
	Addr               string
	GinMode            string
	DBDebug            bool
	ElasticsearchURL   string
	BackupDir          string
	BackupS3Bucket     string
	BackupS3Region     string
	BackupS3Endpoint   string
	RateLimitPerMinute int
}

func LoadConfig() Config {
	cfg := Config{
		DatabaseURL:        os.Getenv("DATABASE_URL"),
		Addr:               getenv("ADDR", ":8080"),
		GinMode:            getenv("GIN_MODE", "release"),
		DBDebug:            getbool("DB_DEBUG", false),
		ElasticsearchURL:   os.Getenv("ELASTICSEARCH_URL"),
		BackupDir:          getenv("BACKUP_DIR", "./backups"),
		BackupS3Bucket:     os.Getenv("BACKUP_S3_BUCKET"),
		BackupS3Region:     getenv("BACKUP_S3_REGION", "us-east-1"),
		BackupS3Endpoint:   os.Getenv("BACKUP_S3_ENDPOINT"),
		RateLimitPerMinute: getint("RATE_LIMIT_PER_MINUTE", 100),
	}
	return cfg
}

func getenv(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

func getbool(key string, def bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		log.Printf("[LoadConfig] ignoring invalid %s=%q", key, v)
		return def
	}
	return b
}

func getint(key string, def int) int {
	v := os.Getenv(key)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n <= 0 {
		log.Printf("[LoadConfig] ignoring invalid %s=%q", key, v)
		return def
	}
	return n
}
