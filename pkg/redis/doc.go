// Package redis provides Redis client construction with startup retries and
// a healthcheck closure. Redis backs the cross-instance session store and
// the shared organization cache.
package redis
