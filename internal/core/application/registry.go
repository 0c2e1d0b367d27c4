package application

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	log "github.com/sirupsen/logrus"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
)

const eventsBufferSize = 100

// NetworkParams maps the network symbols supported for coinjoin to their
// chain params.
var NetworkParams = map[string]*chaincfg.Params{
	"btc":     &chaincfg.MainNetParams,
	"test":    &chaincfg.TestNet3Params,
	"regtest": &chaincfg.RegressionNetParams,
}

// ClientDecorator wraps the coordinator clients created by the registry.
type ClientDecorator func(network string, client ports.CoinjoinClient) ports.CoinjoinClient

// ClientInstance is the coordinator client, and the related backend,
// shared by all the coinjoin accounts of a network.
type ClientInstance struct {
	Network string
	Params  *chaincfg.Params
	Client  ports.CoinjoinClient
	Backend ports.CoinjoinBackend

	status *domain.CoordinatorStatus
	done   chan struct{}
}

// ClientRegistry keeps at most one coordinator client per network and
// relays their events into a single channel.
type ClientRegistry struct {
	lock sync.RWMutex

	factory   ports.CoordinatorFactory
	decorator ClientDecorator
	networks  map[string]*chaincfg.Params
	clients   map[string]*ClientInstance
	events    chan Event
}

// NewClientRegistry returns a registry supporting the given networks. All
// the known networks are supported if none is given.
func NewClientRegistry(
	factory ports.CoordinatorFactory, networks []string, decorator ClientDecorator,
) (*ClientRegistry, error) {
	if factory == nil {
		return nil, fmt.Errorf("missing coordinator factory")
	}

	supported := make(map[string]*chaincfg.Params)
	if len(networks) <= 0 {
		for n, p := range NetworkParams {
			supported[n] = p
		}
	}
	for _, n := range networks {
		params, ok := NetworkParams[n]
		if !ok {
			return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedNetwork, n)
		}
		supported[n] = params
	}

	return &ClientRegistry{
		factory:   factory,
		decorator: decorator,
		networks:  supported,
		clients:   make(map[string]*ClientInstance),
		events:    make(chan Event, eventsBufferSize),
	}, nil
}

// IsSupported ...
func (r *ClientRegistry) IsSupported(network string) bool {
	_, ok := r.networks[network]
	return ok
}

// Create returns the client of the given network, creating it if needed.
func (r *ClientRegistry) Create(network string) (*ClientInstance, error) {
	params, ok := r.networks[network]
	if !ok {
		return nil, fmt.Errorf("%w: %s", domain.ErrUnsupportedNetwork, network)
	}

	r.lock.Lock()
	defer r.lock.Unlock()

	if instance, ok := r.clients[network]; ok {
		return instance, nil
	}

	client, backend, err := r.factory.NewClient(network, params)
	if err != nil {
		return nil, err
	}
	if r.decorator != nil {
		client = r.decorator(network, client)
	}

	instance := &ClientInstance{
		Network: network,
		Params:  params,
		Client:  client,
		Backend: backend,
		done:    make(chan struct{}),
	}
	r.clients[network] = instance

	go r.relay(instance)

	log.Debugf("created coordinator client for network %s", network)
	return instance, nil
}

// Get ...
func (r *ClientRegistry) Get(network string) (*ClientInstance, bool) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	instance, ok := r.clients[network]
	return instance, ok
}

// List returns all the clients, sorted by network.
func (r *ClientRegistry) List() []*ClientInstance {
	r.lock.RLock()
	defer r.lock.RUnlock()

	list := make([]*ClientInstance, 0, len(r.clients))
	for _, instance := range r.clients {
		list = append(list, instance)
	}
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Network < list[j].Network
	})
	return list
}

// Remove stops relaying the events of the client of the given network and
// discards it. Removing a missing client is a no-op.
func (r *ClientRegistry) Remove(network string) {
	r.lock.Lock()
	defer r.lock.Unlock()

	instance, ok := r.clients[network]
	if !ok {
		return
	}
	delete(r.clients, network)
	close(instance.done)
	instance.Client.Close()

	log.Debugf("removed coordinator client for network %s", network)
}

// Enable performs the handshake with the coordinator of the given network
// and stores the returned status.
func (r *ClientRegistry) Enable(
	ctx context.Context, network string,
) (*domain.CoordinatorStatus, error) {
	instance, ok := r.Get(network)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrClientNotFound, network)
	}

	status, err := instance.Client.Enable(ctx)
	if err != nil {
		if errors.Is(err, domain.ErrTransientCoordinator) {
			return nil, err
		}
		return nil, fmt.Errorf("%w: %s", domain.ErrRegistrationFailure, err)
	}
	if status == nil {
		return nil, fmt.Errorf(
			"%w: missing coordinator status", domain.ErrRegistrationFailure,
		)
	}

	normalized := TransformCoinjoinStatus(*status)
	r.SetStatus(network, normalized)
	return &normalized, nil
}

// Status returns the last known coordinator status of the given network, or
// nil if the client is missing or not enabled.
func (r *ClientRegistry) Status(network string) *domain.CoordinatorStatus {
	r.lock.RLock()
	defer r.lock.RUnlock()

	instance, ok := r.clients[network]
	if !ok || instance.status == nil {
		return nil
	}
	status := *instance.status
	return &status
}

// SetStatus ...
func (r *ClientRegistry) SetStatus(network string, status domain.CoordinatorStatus) {
	r.lock.Lock()
	defer r.lock.Unlock()

	if instance, ok := r.clients[network]; ok {
		instance.status = &status
	}
}

// Events returns the channel where the events of all the clients are
// relayed, tagged with their network.
func (r *ClientRegistry) Events() <-chan Event {
	return r.events
}

// Close removes all the clients.
func (r *ClientRegistry) Close() {
	for _, instance := range r.List() {
		r.Remove(instance.Network)
	}
}

func (r *ClientRegistry) relay(instance *ClientInstance) {
	events := instance.Client.Events()
	for {
		select {
		case <-instance.done:
			return
		case e, ok := <-events:
			if !ok {
				return
			}
			event := coordinatorEvent(instance.Network, e)
			if event == nil {
				continue
			}
			select {
			case r.events <- event:
			case <-instance.done:
				return
			}
		}
	}
}
