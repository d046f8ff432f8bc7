package main

import "time"

type Config struct {
	Host              string        `env:"HOST,default=localhost"`
	Port              int           `env:"PORT,default=8080"`
	BufferSize        int           `env:"BUFFER_SIZE,default=64"`
	RestartInterval   time.Duration `env:"RESTART_INTERVAL,default=200ms"`
	AuthTokenDuration time.Duration `env:"AUTH_TOKEN_DURATION,default=24h"`
	JWTSecret         string        `env:"JWT_SECRET,required=true"`
	BadgerFilepath    string        `env:"BADGER_FILEPATH,required=true"`
	MediaDir          string        `env:"MEDIA_DIR,required=true"`
	MediaBaseURL      string        `env:"MEDIA_BASE_URL,default=/media"`
	LogLevel          string        `env:"LOG_LEVEL,default=info"`
}
