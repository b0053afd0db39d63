// Package queue provides the bounded top-k collector used by vector search.
//
// Items are ordered by ascending distance with ties broken by the lower id,
// which makes search results deterministic.
package queue
