// Package shortener generates collision-free short codes, resolves them back
// to destination URLs and manages owner-scoped links.
//
// Uniqueness is decided by the record store's unique index. The Allocator
// pre-checks candidates and retries a bounded number of times, treating a
// uniqueness violation on insert the same as a pre-check collision.
package shortener
