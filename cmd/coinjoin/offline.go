package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
)

var (
	errCoordinatorOffline = errors.New("coordinator is not reachable from the cli")
	errDeviceOffline      = errors.New("device is not connected to the cli")
)

// offlineFactory never connects to a coordinator. The cli only works on the
// persisted state, so any operation requiring a client fails.
type offlineFactory struct{}

func (offlineFactory) NewClient(
	network string, _ *chaincfg.Params,
) (ports.CoinjoinClient, ports.CoinjoinBackend, error) {
	return nil, nil, fmt.Errorf("%w: %s", errCoordinatorOffline, network)
}

type offlineDevice struct{}

func (offlineDevice) AuthorizeCoinjoin(
	context.Context, ports.AuthorizeCoinjoinRequest,
) error {
	return errDeviceOffline
}

func (offlineDevice) SignTransaction(
	context.Context, domain.SignRequest,
) (*domain.SignResult, error) {
	return nil, errDeviceOffline
}
