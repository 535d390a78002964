package config

import "time"

const (
	DefaultMongoURI          = "mongodb://localhost:27017"
	DefaultMongoDatabaseName = "classbook"
	DefaultMongoConnTimeout  = 10 * time.Second

	DefaultPort     = "8080"
	DefaultLogLevel = "info"

	DefaultRequestTimeout = 30 * time.Second
	DefaultMaxRequestSize = 1 * 1024 * 1024 // 1MB

	DefaultReadTimeout     = 15 * time.Second
	DefaultWriteTimeout    = 15 * time.Second
	DefaultIdleTimeout     = 60 * time.Second
	DefaultShutdownTimeout = 30 * time.Second

	// Advisory lock auto-expiry and the longest a writer waits to acquire
	// the per-class lock before giving up with a conflict.
	DefaultCapacityLockTTL  = 10 * time.Second
	DefaultCapacityLockWait = 5 * time.Second

	// Domain used when synthesizing placeholder emails for members booked
	// without an email address.
	DefaultPlaceholderEmailDomain = "bookings.local"

	DefaultKafkaBookingsTopic = "booking-events"

	DefaultPaginationLimit = 20
	MaxPaginationLimit     = 100
)
