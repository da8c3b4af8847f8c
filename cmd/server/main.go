// cmd/server/main.go
package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/joho/godotenv"

	"github.com/unclebandit/lunchly-backend/internal/config"
	"github.com/unclebandit/lunchly-backend/internal/controller"
	"github.com/unclebandit/lunchly-backend/internal/db"
	"github.com/unclebandit/lunchly-backend/internal/queue"
	"github.com/unclebandit/lunchly-backend/internal/repository"
	"github.com/unclebandit/lunchly-backend/internal/service"
	"github.com/unclebandit/lunchly-backend/internal/telemetry"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

	// Load .env
	if err := godotenv.Load(); err != nil {
		log.Println("⚠️ No .env file found, relying on OS environment variables")
	}

	cfg, err := config.LoadOrDefault(configPath())
	if err != nil {
		log.Fatal("failed to load config:", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	shutdownTelemetry, err := telemetry.Setup(cfg.GetTelemetry(nil), nil)
	if err != nil {
		log.Fatal(err)
	}

	// Init DB
	dsn, err := cfg.GetDatabaseURL(nil)
	if err != nil {
		log.Fatal(err)
	}
	conn, err := db.Open(ctx, cfg.GetDriver(nil), dsn)
	if err != nil {
		log.Fatal(err)
	}

	reservationRepo := &repository.ReservationRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn, Reservations: reservationRepo}

	publisher, closePublisher := newPublisher(cfg)

	customerService := &service.CustomerService{
		CustomerRepo:    customerRepo,
		ReservationRepo: reservationRepo,
		Queue:           publisher,
	}

	customerController := &controller.CustomerController{
		CustomerService: customerService,
	}

	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)

	customerController.Routes(r)

	addr := cfg.GetAddr(nil)
	srv := &http.Server{
		Addr:              addr,
		Handler:           r,
		ReadHeaderTimeout: 5 * time.Second,
	}

	go func() {
		log.Printf("🚀 Server running on %s", addr)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatal(err)
		}
	}()

	<-ctx.Done()
	log.Println("🛑 Shutting down server")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Println("⚠️ Server shutdown:", err)
	}
	closePublisher()
	if err := conn.Close(); err != nil {
		log.Println("⚠️ Closing database:", err)
	}
	if err := shutdownTelemetry(shutdownCtx); err != nil {
		log.Println("⚠️ Telemetry shutdown:", err)
	}
}

// newPublisher sends events to RabbitMQ when AMQP_URL is set and keeps them
// in process otherwise.
func newPublisher(cfg *config.Config) (service.Publisher, func()) {
	if url := cfg.GetAMQPURL(nil); url != "" {
		p, err := queue.DialAMQP(url, cfg.GetEventsQueue())
		if err != nil {
			log.Fatal(err)
		}
		log.Printf("📨 Publishing events to %s", cfg.GetEventsQueue())
		return p, func() {
			if err := p.Close(); err != nil {
				log.Println("⚠️ Closing AMQP publisher:", err)
			}
		}
	}

	q := queue.NewInMemoryQueue()
	if err := queue.StartAuditSubscriber(q); err != nil {
		log.Fatal(err)
	}
	return q, q.Wait
}

func configPath() string {
	if p := os.Getenv("LUNCHLY_CONFIG"); p != "" {
		return p
	}
	return "lunchly.yaml"
}
