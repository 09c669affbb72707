package testcontainers

// Container names and images shared by integration suites.
const (
	PostgresContainerName = "dispatch-postgres"
	PostgresImageName     = "postgres:17-alpine"
	PostgresDatabase      = "dispatch"
	PostgresUser          = "dispatch"
	PostgresPassword      = "dispatch" //nolint:gosec

	MongoContainerName = "dispatch-mongo"
	MongoImageName     = "mongo:8.0"
	MongoDatabase      = "inventory"

	RedisContainerName = "dispatch-redis"
	RedisImageName     = "redis:7-alpine"
)
