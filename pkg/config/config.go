package config

import (
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

type Config struct {
	ServerPort          string
	FirebaseProject     string
	Environment         string
	ChatHistoryLimit    int
	ChatHistoryMaxLimit int
	PageSize            int
	PageSizeMax         int
}

func Load() (*Config, error) {
	godotenv.Load()

	config := &Config{
		ServerPort:          getEnv("SERVER_PORT", "8080"),
		FirebaseProject:     getEnv("FIREBASE_PROJECT_ID", ""),
		Environment:         getEnv("ENVIRONMENT", "development"),
		ChatHistoryLimit:    getEnvAsInt("CHAT_HISTORY_LIMIT", 50),
		ChatHistoryMaxLimit: getEnvAsInt("CHAT_HISTORY_MAX_LIMIT", 100),
		PageSize:            getEnvAsInt("PAGE_SIZE", 20),
		PageSizeMax:         getEnvAsInt("PAGE_SIZE_MAX", 100),
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value, exists := os.LookupEnv(key); exists {
		intValue, err := strconv.Atoi(value)
		if err == nil {
			return intValue
		}
	}
	return defaultValue
}
