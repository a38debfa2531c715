package config

import (
	"fmt"
	"os"
)

// Config holds the client configuration
type Config struct {
	// RunPod
	RunPodAPIKey     string
	RunPodEndpointID string

	// Object storage
	Bucket       string
	InputPrefix  string
	OutputPrefix string

	// AWS
	AWSRegion          string
	AWSAccessKeyID     string
	AWSSecretAccessKey string

	// Run history (optional)
	DatabaseURL string
}

// Load loads configuration from environment variables
func Load() *Config {
	return &Config{
		RunPodAPIKey:       os.Getenv("RUNPOD_API_KEY"),
		RunPodEndpointID:   os.Getenv("RUNPOD_ENDPOINT_ID"),
		Bucket:             getEnv("DEM_S3_BUCKET", "dem-fill-serverless-file-store"),
		InputPrefix:        getEnv("DEM_INPUT_PREFIX", "to-process/"),
		OutputPrefix:       getEnv("DEM_OUTPUT_PREFIX", "completed/"),
		AWSRegion:          getEnv("AWS_DEFAULT_REGION", "us-east-1"),
		AWSAccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
		AWSSecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
		DatabaseURL:        os.Getenv("DATABASE_URL"),
	}
}

// Validate reports missing required settings
func (c *Config) Validate() error {
	if c.RunPodAPIKey == "" {
		return fmt.Errorf("RUNPOD_API_KEY environment variable not set")
	}
	if c.RunPodEndpointID == "" {
		return fmt.Errorf("RUNPOD_ENDPOINT_ID environment variable not set")
	}
	return nil
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}
