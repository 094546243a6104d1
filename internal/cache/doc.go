// Package cache provides a generic sharded concurrent map.
//
// Keys are distributed over a fixed number of shards by a seeded
// maphash of the key. Each shard owns an RWMutex and a plain map, so
// point operations contend only with operations on the same shard.
// Batch inserts group entries by shard first and take each shard lock
// once, optionally fanning out one goroutine per non-empty shard.
//
// There is no eviction. Entries live until Remove or Clear.
package cache
