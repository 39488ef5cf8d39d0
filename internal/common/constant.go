// Package common contains shared constants and sentinel errors used across
// triagekeeper components.
package common

// AuthorizationHeaderName is the HTTP header carrying the bearer credential.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the token inside the Authorization header.
const BearerPrefix = "Bearer "

// ErasureAction is the only action accepted by the erasure endpoint.
const ErasureAction = "delete_all_data"
