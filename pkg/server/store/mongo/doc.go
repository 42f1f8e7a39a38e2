// Package mongo implements the store interfaces on MongoDB.
package mongo
