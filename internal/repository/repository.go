// Package repository handles all interactions with the listings store.
//
// It defines the ListingRepository contract and its backends (MongoDB,
// PostgreSQL JSONB and in-memory), abstracting the query logic of each
// database away from the service layer.
package repository
