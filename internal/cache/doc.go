// Package cache implements the two cache tiers of the offline data layer.
//
// Volatile is a process-lifetime cache with a short TTL that avoids
// redundant calls to the schedule provider. Offline keeps payloads in the
// durable store under a single key, as a map of dataset name to
// {data, timestamp}, with a long TTL; it is the last-resort source when
// the network is unreachable.
//
// Validity is checked lazily at read time: an entry is valid while
// now - storedAt <= ttl.
package cache
