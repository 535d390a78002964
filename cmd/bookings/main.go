package main

import (
	"classbook/internal/bookings/events"
	"classbook/internal/bookings/handler"
	"classbook/internal/bookings/repository"
	"classbook/internal/bookings/service"
	"classbook/internal/bookings/validator"
	classrepo "classbook/internal/classes/repository"
	memberrepo "classbook/internal/members/repository"
	"classbook/internal/members/resolver"
	"classbook/pkg/app"
	"classbook/pkg/config"
	"classbook/pkg/kafka"
	kafkaconfig "classbook/pkg/kafka/config"
)

const ServiceName = "bookings"

func main() {
	cfg := config.Load(ServiceName)
	cfg.SetMongo()
	defer cfg.GracefulShutdown()

	cfg.Log.Info("Starting Bookings service")

	publisher, closePublisher := initPublisher(cfg)
	defer closePublisher()

	bookingService := initServices(cfg, publisher)

	serverApp := app.NewApplication()
	serverApp.SetApp(cfg, handler.NewBookingHandler(bookingService, cfg.Log))
	serverApp.Run()
}

func initServices(cfg *config.Config, publisher events.Publisher) service.BookingService {
	bookingValidator := validator.NewBookingValidator(cfg.Log)
	bookingRepo := repository.NewMongoBookingRepository(cfg)
	lockRepo := repository.NewClassLockRepository(cfg)
	classRepo := classrepo.NewMongoClassRepository(cfg)
	memberResolver := resolver.NewMemberResolver(memberrepo.NewMongoMemberRepository(cfg), cfg)

	bookingService := service.NewBookingService(
		bookingRepo,
		lockRepo,
		classRepo,
		memberResolver,
		bookingValidator,
		publisher,
		cfg,
	)

	cfg.Log.Info("Booking service initialized", "database", cfg.MongoDatabaseName)
	return bookingService
}

func initPublisher(cfg *config.Config) (events.Publisher, func()) {
	kafkaCfg := kafkaconfig.Load()
	if !kafkaCfg.Enabled() {
		cfg.Log.Info("Kafka brokers not configured, booking events disabled")
		return events.NewNoopPublisher(), func() {}
	}

	producer, err := kafka.NewProducer(kafkaCfg, cfg.KafkaBookingsTopic)
	if err != nil {
		cfg.Log.Fatal("Failed to initialize Kafka producer", "error", err)
	}

	cfg.Log.Info("Kafka producer initialized", "topic", cfg.KafkaBookingsTopic)
	return events.NewKafkaPublisher(producer, cfg.Log), func() {
		if err := producer.Close(); err != nil {
			cfg.Log.Error("Failed to close Kafka producer", "error", err)
		}
	}
}
