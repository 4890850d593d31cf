// internal/server/server.go
package server

import (
	"context"
	"net/http"
	"time"

	"medibot/internal/bot"
	"medibot/pkg/logger"
)

type Server struct {
	server *http.Server
	logger *logger.Logger
}

func NewServer(port string, telegramBot *bot.TelegramBot, logger *logger.Logger) *Server {
	mux := http.NewServeMux()

	// Telegram updates arrive on a route keyed by the bot token.
	mux.HandleFunc(telegramBot.WebhookPath(), telegramBot.HandleTelegramWebhook)
	mux.HandleFunc("/webhook/register", telegramBot.HandleRegisterWebhook)
	mux.HandleFunc("/webhook/payment", telegramBot.HandlePaymentWebhook)

	mux.HandleFunc("/health", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
		w.Write([]byte("OK"))
	})

	httpServer := &http.Server{
		Addr:         ":" + port,
		Handler:      mux,
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
	}

	return &Server{
		server: httpServer,
		logger: logger,
	}
}

func (s *Server) Start() error {
	s.logger.Info("Starting HTTP server", "addr", s.server.Addr)
	return s.server.ListenAndServe()
}

func (s *Server) Stop(ctx context.Context) error {
	s.logger.Info("Stopping HTTP server")
	return s.server.Shutdown(ctx)
}
