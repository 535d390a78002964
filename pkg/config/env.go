package config

const (
	EnvMongoURI          = "MONGO_URI"
	EnvMongoDatabaseName = "MONGO_DATABASE_NAME"
	EnvMongoConnTimeout  = "MONGO_CONN_TIMEOUT"

	EnvPort     = "PORT"
	EnvLogLevel = "LOG_LEVEL"

	EnvRequestTimeout = "REQUEST_TIMEOUT"
	EnvMaxRequestSize = "MAX_REQUEST_SIZE"

	EnvReadTimeout     = "READ_TIMEOUT"
	EnvWriteTimeout    = "WRITE_TIMEOUT"
	EnvIdleTimeout     = "IDLE_TIMEOUT"
	EnvShutdownTimeout = "SHUTDOWN_TIMEOUT"

	EnvCapacityLockTTL  = "CAPACITY_LOCK_TTL"
	EnvCapacityLockWait = "CAPACITY_LOCK_WAIT"

	EnvPlaceholderEmailDomain = "PLACEHOLDER_EMAIL_DOMAIN"

	EnvKafkaBookingsTopic = "KAFKA_TOPIC_BOOKINGS"
)
