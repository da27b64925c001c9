// Package httpapi exposes paged, filtered and translated entity listings
// over Gin.
package httpapi
