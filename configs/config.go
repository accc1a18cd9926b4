package config

import "os"

type S3 struct {
	AccountID     string
	AccessKey     string
	SecretKey     string
	BucketName    string
	PublicBaseURL string
}

type Config struct {
	GoogleClientID       string
	GoogleClientSecret   string
	GoogleRedirectURI    string
	PostgresURI          string
	RedisURI             string
	FrontendURL          string
	S3                   S3
	SecretKey            string
	CookieName           string
	RequeueAfterMinutes  string
	CountUpdatedChannel  string
	VideosDeletedChannel string
}

func LoadConfig() *Config {
	return &Config{
		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRedirectURI:  getEnv("GOOGLE_REDIRECT_URI", ""),
		PostgresURI:        getEnv("POSTGRES_URI", ""),
		RedisURI:           getEnv("REDIS_URI", ""),
		FrontendURL:        getEnv("FRONTEND_URL", "http://localhost:5173"),
		S3: S3{
			AccountID:     getEnv("S3_ACCOUNT_ID", ""),
			AccessKey:     getEnv("S3_ACCESS_KEY", ""),
			SecretKey:     getEnv("S3_SECRET_KEY", ""),
			BucketName:    getEnv("S3_BUCKET_NAME", ""),
			PublicBaseURL: getEnv("S3_PUBLIC_BASE_URL", ""),
		},
		SecretKey:            getEnv("SECRET_KEY", ""),
		CookieName:           getEnv("COOKIE_NAME", "velora_session"),
		RequeueAfterMinutes:  getEnv("REQUEUE_AFTER_MINUTES", "60"),
		CountUpdatedChannel:  getEnv("COUNT_UPDATED_CHANNEL", "video:count-updated"),
		VideosDeletedChannel: getEnv("VIDEOS_DELETED_CHANNEL", "videos:deleted"),
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
