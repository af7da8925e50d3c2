// Package redis opens the go-redis client shared by the inbound stream
// consumer and the Redis kind cache.
//
//	client, err := redis.Open(ctx, cfg.Redis)
//	if err != nil {
//		return err
//	}
//	defer client.Close()
//
// Open pings the server and retries a failed connection RetryAttempts times.
// Healthcheck and Shutdown plug the client into the readiness endpoint and
// the server's shutdown hooks.
package redis
