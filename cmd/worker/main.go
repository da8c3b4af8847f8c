package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/joho/godotenv"
	"github.com/streadway/amqp"

	"github.com/unclebandit/lunchly-backend/internal/config"
	"github.com/unclebandit/lunchly-backend/internal/db"
	"github.com/unclebandit/lunchly-backend/internal/queue"
	"github.com/unclebandit/lunchly-backend/internal/repository"
	"github.com/unclebandit/lunchly-backend/internal/service"
	"github.com/unclebandit/lunchly-backend/internal/telemetry"
)

func main() {
	log.SetFlags(log.Ldate | log.Ltime | log.Lshortfile)

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
	defer func() {
		if err := shutdownTelemetry(context.Background()); err != nil {
			log.Println("⚠️ Telemetry shutdown:", err)
		}
	}()

	dsn, err := cfg.GetDatabaseURL(nil)
	if err != nil {
		log.Fatal(err)
	}
	conn, err := db.Open(ctx, cfg.GetDriver(nil), dsn)
	if err != nil {
		log.Fatal("failed to connect to DB:", err)
	}
	defer conn.Close()

	reservationRepo := &repository.ReservationRepository{DB: conn}
	customerRepo := &repository.CustomerRepository{DB: conn, Reservations: reservationRepo}

	amqpURL := cfg.GetAMQPURL(nil)
	if amqpURL == "" {
		log.Fatal("AMQP_URL is required for the worker")
	}

	mq, err := amqp.Dial(amqpURL)
	if err != nil {
		log.Fatal("Failed to connect to RabbitMQ:", err)
	}
	defer mq.Close()

	ch, err := mq.Channel()
	if err != nil {
		log.Fatal("Failed to open a channel:", err)
	}
	defer ch.Close()

	q, err := queue.DeclareEventsQueue(ch, cfg.GetEventsQueue())
	if err != nil {
		log.Fatal(err)
	}

	msgs, err := ch.Consume(
		q.Name,
		"",
		false, // autoAck = false for reliability
		false,
		false,
		false,
		nil,
	)
	if err != nil {
		log.Fatal("Failed to register consumer:", err)
	}

	worker := service.NewWorker(msgs, service.AuditHandler(customerRepo), ch)
	done := make(chan struct{})
	go func() {
		worker.Start(ctx)
		close(done)
	}()

	log.Printf("👷 Worker consuming %s, waiting for events...", q.Name)

	select {
	case <-ctx.Done():
		log.Println("🛑 Shutting down worker")
	case <-done:
		log.Println("⚠️ Delivery channel closed")
	}
}

func configPath() string {
	if p := os.Getenv("LUNCHLY_CONFIG"); p != "" {
		return p
	}
	return "lunchly.yaml"
}
