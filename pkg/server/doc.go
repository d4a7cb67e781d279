// Package server exposes the generation pipeline over HTTP.
//
// # Endpoints
//
//	GET  /healthz            liveness and build version
//	GET  /v1/sizes           supported wafer sizes and flat geometry
//	GET  /v1/structures      structure kinds accepted in sections
//	POST /v1/sections        section table of a job
//	POST /v1/masks           generate a job (?format=gds|svg|png|pdf|json)
//	GET  /v1/runs            run history (?limit=n)
//	GET  /v1/runs/{id}       one run record
//
// Job bodies are TOML unless the request sets Content-Type to
// application/json. Errors are returned as {"code": ..., "message": ...}
// with a status derived from the error code.
package server
