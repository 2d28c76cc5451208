// Package config loads the service configuration.
//
// # Sources
//
// Defaults are overlaid by the YAML file named in BOQ_CONFIG_FILE, if any,
// and then by BOQ_* environment variables. The result is validated before
// use; token secrets have no default and must be supplied.
//
// # Environment
//
// Auth:
//
//	BOQ_ACCESS_TOKEN_SECRET="..."   # >= 32 bytes
//	BOQ_REFRESH_TOKEN_SECRET="..."  # >= 32 bytes, different from the access secret
//	BOQ_ACCESS_TOKEN_TTL="15m"
//	BOQ_REFRESH_TOKEN_TTL="168h"
//	BOQ_REVOCATION_SWEEP_THRESHOLD="1000"
//	BOQ_PASSWORD_ALGORITHM="argon2id"  # or bcrypt
//	BOQ_INVITATION_TTL="168h"
//	BOQ_COOKIE_SECURE="true"
//	BOQ_AUDIT_LOG_DIR="/var/log/boq"
//
// Rate limiting (register and login only):
//
//	BOQ_RATE_LIMIT_WINDOW="15m"
//	BOQ_RATE_LIMIT_MAX="100"
//	BOQ_RATE_LIMIT_BACKEND="memory"  # or redis, requires BOQ_REDIS_URL
//
// Server:
//
//	BOQ_HOST="0.0.0.0"
//	BOQ_PORT="8080"
//	BOQ_HEALTH_PORT="9090"
//	BOQ_TRUST_PROXY="false"
//	BOQ_CORS_ORIGINS="https://app.example.com"
//
// Storage:
//
//	BOQ_DATABASE_URL="postgres://localhost/boq"  # unset selects in-memory stores
//	BOQ_REDIS_URL="redis://localhost:6379"
//	BOQ_ACCOUNT_CACHE_SIZE="1024"
//
// Observability:
//
//	BOQ_LOG_LEVEL="info"
//	BOQ_METRICS_ENABLED="true"
//	BOQ_OTEL_ENABLED="false"
//	BOQ_OTEL_ENDPOINT="localhost:4317"
package config
