package service

import "github.com/cenkalti/backoff/v5"

func SetBackOffFactory(c *SettlementCoordinator, f func() backoff.BackOff) {
	c.newBackOff = f
}
