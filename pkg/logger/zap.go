package logger

import (
	"os"

	"go.uber.org/zap"
)

// NewLogger, servis katmanında kullanılan structured logger'ı oluşturur.
// APP_ENV=development iken okunabilir console çıktısı verir.
func NewLogger() *zap.Logger {
	var logger *zap.Logger
	var err error

	if os.Getenv("APP_ENV") == "development" {
		logger, err = zap.NewDevelopment()
	} else {
		logger, err = zap.NewProduction()
	}
	if err != nil {
		// Logger kurulamazsa no-op ile devam et
		return zap.NewNop()
	}

	return logger
}
