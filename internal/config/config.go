package config

import (
	"log"

	"github.com/spf13/viper"
)

type Config struct {
	ServerPort      string `mapstructure:"SERVER_PORT"`
	DatabaseURL     string `mapstructure:"DATABASE_URL"`
	JWTSecret       string `mapstructure:"JWT_SECRET"`
	ClientOrigin    string `mapstructure:"CLIENT_ORIGIN"`
	AWSRegion       string `mapstructure:"AWS_REGION"`
	NotifyFromEmail string `mapstructure:"NOTIFY_FROM_EMAIL"`
}

func LoadConfig(path string) (*Config, error) {
	viper.AddConfigPath(path)
	viper.SetConfigName(".env")
	viper.SetConfigType("env")

	viper.AutomaticEnv() // Read in environment variables that match

	err := viper.ReadInConfig()
	if err != nil {
		// Handle errors reading the config file, but allow it if it's just "not found"
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No .env file found.")
		} else {
			return nil, err
		}
	}

	var cfg Config
	err = viper.Unmarshal(&cfg)
	if err != nil {
		return nil, err
	}

	if cfg.ServerPort == "" {
		cfg.ServerPort = "8080"
	}

	return &cfg, nil
}
