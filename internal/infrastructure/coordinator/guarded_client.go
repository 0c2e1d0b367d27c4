// Package coordinator provides decorators for the clients of coinjoin
// coordinators.
package coordinator

import (
	"context"
	"errors"
	"fmt"

	"github.com/sony/gobreaker"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	"github.com/tdex-network/coinjoind/pkg/circuitbreaker"
)

type guardedClient struct {
	client ports.CoinjoinClient
	cb     *gobreaker.CircuitBreaker
}

// NewGuardedClient wraps the given client so that all the requests to the
// coordinator go through a circuit breaker. While the breaker is open,
// requests fail with domain.ErrTransientCoordinator without reaching the
// coordinator.
func NewGuardedClient(
	network string, client ports.CoinjoinClient, settings circuitbreaker.Settings,
) ports.CoinjoinClient {
	return &guardedClient{
		client: client,
		cb:     circuitbreaker.NewCircuitBreaker("coordinator-"+network, settings),
	}
}

func (c *guardedClient) Enable(ctx context.Context) (*domain.CoordinatorStatus, error) {
	res, err := c.cb.Execute(func() (interface{}, error) {
		return c.client.Enable(ctx)
	})
	if err != nil {
		return nil, mapBreakerError(err)
	}
	status, _ := res.(*domain.CoordinatorStatus)
	return status, nil
}

func (c *guardedClient) RegisterAccount(
	ctx context.Context, params domain.RegisterAccountParams,
) error {
	return c.execute(func() error {
		return c.client.RegisterAccount(ctx, params)
	})
}

func (c *guardedClient) UpdateAccount(
	ctx context.Context, accountKey string, params domain.UpdateAccountParams,
) error {
	return c.execute(func() error {
		return c.client.UpdateAccount(ctx, accountKey, params)
	})
}

func (c *guardedClient) UnregisterAccount(ctx context.Context, accountKey string) error {
	return c.execute(func() error {
		return c.client.UnregisterAccount(ctx, accountKey)
	})
}

func (c *guardedClient) ResolveRequest(
	ctx context.Context, resp ports.RequestResponse,
) error {
	return c.execute(func() error {
		return c.client.ResolveRequest(ctx, resp)
	})
}

func (c *guardedClient) Events() <-chan ports.CoordinatorEvent {
	return c.client.Events()
}

func (c *guardedClient) Close() {
	c.client.Close()
}

func (c *guardedClient) execute(fn func() error) error {
	_, err := c.cb.Execute(func() (interface{}, error) {
		return nil, fn()
	})
	return mapBreakerError(err)
}

func mapBreakerError(err error) error {
	if errors.Is(err, gobreaker.ErrOpenState) ||
		errors.Is(err, gobreaker.ErrTooManyRequests) {
		return fmt.Errorf("%w: %s", domain.ErrTransientCoordinator, err)
	}
	return err
}
