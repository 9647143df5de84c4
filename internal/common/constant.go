// Package common contains shared constants and helpers used across the
// gophauth client components.
package common

const (
	// AuthorizationHeaderName carries the bearer token on outbound requests.
	AuthorizationHeaderName = "Authorization"

	// BearerPrefix precedes the access token in the Authorization header.
	BearerPrefix = "Bearer "

	// StorageSaltKey names the metadata entry holding the key-derivation salt
	// for sealed session records.
	StorageSaltKey = "storage_salt"
)
