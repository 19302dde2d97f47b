/*
Package handlers implements the request handlers of the semcache HTTP API.

# Core types

  - CacheHandler    : lookup, store, clear, and stats endpoints
  - HealthHandler   : service health checks (/health, /healthz, /ready)
  - Response        : unified JSON envelope (success + data + error + timestamp)
  - ErrorInfo       : structured error with code, message, retryable flag
  - ResponseWriter  : wraps http.ResponseWriter to capture the status code
  - HealthCheck     : pluggable readiness check interface (Redis, embedding)

# Capabilities

  - Unified response format: WriteSuccess / WriteError / WriteJSON helpers
  - Request validation: DecodeJSONBody (strict mode), ValidateContentType
  - ErrorCode to HTTP status mapping (4xx/5xx)
  - Extensible readiness: RegisterCheck accepts custom HealthCheck implementations
*/
package handlers
