package ioc

import (
	"os"

	common "github.com/leetgaming/ranked-coordinator/pkg/domain"
)

// EnvironmentConfig reads the CLI/env surface spec §6 names (PORT,
// FRONTEND_URL, DATABASE_URL, REDIS_URL, AUTH_SECRET) plus the Kafka/Mongo
// settings the ambient stack adds, grounded on the teacher's single
// EnvironmentConfig entry point style.
func EnvironmentConfig() (common.Config, error) {
	config := common.Config{
		Port:        getEnv("PORT", "8080"),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:3000"),
		DatabaseURL: getEnv("DATABASE_URL", "postgres://localhost:5432/ranked_coordinator"),
		RedisURL:    getEnv("REDIS_URL", "redis://localhost:6379/0"),
		AuthSecret:  os.Getenv("AUTH_SECRET"),
		Kafka: common.KafkaConfig{
			Brokers: getEnv("KAFKA_BOOTSTRAP_SERVERS", ""),
			Topic:   getEnv("KAFKA_MATCH_LIFECYCLE_TOPIC", "match-lifecycle"),
		},
		Mongo: common.MongoConfig{
			URI:    getEnv("MONGO_URI", "mongodb://localhost:27017"),
			DBName: getEnv("MONGODB_DATABASE", "ranked_coordinator"),
		},
	}

	return config, nil
}

func getEnv(key, defaultValue string) string {
	if value, exists := os.LookupEnv(key); exists && value != "" {
		return value
	}
	return defaultValue
}
