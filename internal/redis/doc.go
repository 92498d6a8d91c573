// Package redis provides the Redis client and the alarm channel pub/sub
// used to fan envelopes out across server instances.
package redis
