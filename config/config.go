// Package config loads the receiver daemon configuration from the
// environment (optionally preloaded from a .env file).
package config

import (
	"log"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

type Config struct {
	ListenAddr          string `env:"SKIFF_LISTEN_ADDR" env-default:":5001"`
	Transport           string `env:"SKIFF_TRANSPORT" env-default:"tls"` // tls | quic
	OutDir              string `env:"SKIFF_OUT_DIR" env-default:"."`
	PrivateKeyPath      string `env:"SKIFF_PRIVATE_KEY" env-default:"skiff_key.pem"`
	SenderPublicKeyPath string `env:"SKIFF_SENDER_PUBLIC_KEY"`
	RequireSignature    bool   `env:"SKIFF_REQUIRE_SIGNATURE" env-default:"false"`
	MaxFileSize         uint64 `env:"SKIFF_MAX_FILE_SIZE" env-default:"1099511627776"`
	MaxChunkSize        uint32 `env:"SKIFF_MAX_CHUNK_SIZE" env-default:"4194304"`
}

func MustLoad() *Config {
	_ = godotenv.Load()

	var cfg Config
	if err := cleanenv.ReadEnv(&cfg); err != nil {
		log.Fatalf("config: %v", err)
	}
	return &cfg
}
