// Package api defines the request and response types of the semcache HTTP
// API.
//
// # API Overview
//
// semcache exposes a small RESTful surface for the LLM gateway:
//   - POST /api/v1/cache/lookup  : exact-then-semantic cache lookup
//   - POST /api/v1/cache/store   : persist a fresh upstream response
//   - POST /api/v1/cache/clear   : bulk removal by workspace/endpoint
//   - GET  /api/v1/cache/stats   : operational statistics
//
// # Authentication
//
// When API keys are configured, endpoints require the X-API-Key header:
//
//	X-API-Key: your-api-key
//
// Health and metrics endpoints are always unauthenticated.
package api
