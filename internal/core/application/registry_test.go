package application_test

import (
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"github.com/tdex-network/coinjoind/internal/core/application"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
)

func TestNewClientRegistry(t *testing.T) {
	t.Run("all_networks", func(t *testing.T) {
		registry, err := application.NewClientRegistry(newMockFactory(), nil, nil)
		require.NoError(t, err)
		for network := range application.NetworkParams {
			require.True(t, registry.IsSupported(network))
		}
		require.False(t, registry.IsSupported("ltc"))
	})

	t.Run("subset", func(t *testing.T) {
		registry, err := application.NewClientRegistry(
			newMockFactory(), []string{testNetwork}, nil,
		)
		require.NoError(t, err)
		require.True(t, registry.IsSupported(testNetwork))
		require.False(t, registry.IsSupported("btc"))
	})

	t.Run("unknown_network", func(t *testing.T) {
		registry, err := application.NewClientRegistry(
			newMockFactory(), []string{"ltc"}, nil,
		)
		require.ErrorIs(t, err, domain.ErrUnsupportedNetwork)
		require.Nil(t, registry)
	})

	t.Run("missing_factory", func(t *testing.T) {
		registry, err := application.NewClientRegistry(nil, nil, nil)
		require.Error(t, err)
		require.Nil(t, registry)
	})
}

func TestClientRegistry(t *testing.T) {
	factory := newMockFactory()
	client, backend := factory.add(testNetwork)
	factory.add("test")

	decorated := 0
	registry, err := application.NewClientRegistry(
		factory, nil,
		func(network string, c ports.CoinjoinClient) ports.CoinjoinClient {
			decorated++
			return c
		},
	)
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	_, err = registry.Create("ltc")
	require.ErrorIs(t, err, domain.ErrUnsupportedNetwork)
	require.Zero(t, factory.calls)

	instance, err := registry.Create(testNetwork)
	require.NoError(t, err)
	require.Equal(t, testNetwork, instance.Network)
	require.Equal(t, testNet, instance.Params)
	require.Equal(t, backend, instance.Backend)

	again, err := registry.Create(testNetwork)
	require.NoError(t, err)
	require.True(t, instance == again)
	require.Equal(t, 1, factory.calls)
	require.Equal(t, 1, decorated)

	_, err = registry.Create("test")
	require.NoError(t, err)
	list := registry.List()
	require.Len(t, list, 2)
	require.Equal(t, testNetwork, list[0].Network)
	require.Equal(t, "test", list[1].Network)

	require.Nil(t, registry.Status(testNetwork))
	client.On("Enable").Return(testCoordinatorStatus(), nil).Once()
	status, err := registry.Enable(ctx, testNetwork)
	require.NoError(t, err)
	require.NotNil(t, status)
	require.Equal(t, status, registry.Status(testNetwork))

	client.events <- ports.RoundEvent{
		Round:       domain.Round{ID: "r1", Phase: domain.RoundPhaseConnectionConfirmation},
		AccountKeys: []string{"acc"},
	}
	select {
	case event := <-registry.Events():
		e, ok := event.(application.RoundPhaseChanged)
		require.True(t, ok)
		require.Equal(t, testNetwork, e.Network)
		require.Equal(t, "r1", e.Event.Round.ID)
	case <-time.After(time.Second):
		t.Fatal("coordinator event not relayed")
	}

	registry.Remove(testNetwork)
	_, ok := registry.Get(testNetwork)
	require.False(t, ok)
	require.Nil(t, registry.Status(testNetwork))
	require.Len(t, registry.List(), 1)
	// Removing twice is a no-op.
	registry.Remove(testNetwork)
}

func TestFailingClientRegistryEnable(t *testing.T) {
	factory := newMockFactory()
	client, _ := factory.add(testNetwork)
	registry, err := application.NewClientRegistry(factory, nil, nil)
	require.NoError(t, err)
	t.Cleanup(registry.Close)

	_, err = registry.Enable(ctx, testNetwork)
	require.ErrorIs(t, err, application.ErrClientNotFound)

	_, err = registry.Create(testNetwork)
	require.NoError(t, err)

	client.On("Enable").Return(nil, errors.New("handshake rejected")).Once()
	status, err := registry.Enable(ctx, testNetwork)
	require.ErrorIs(t, err, domain.ErrRegistrationFailure)
	require.Nil(t, status)
	require.Nil(t, registry.Status(testNetwork))

	client.On("Enable").Return(nil, domain.ErrTransientCoordinator).Once()
	_, err = registry.Enable(ctx, testNetwork)
	require.ErrorIs(t, err, domain.ErrTransientCoordinator)
	require.NotErrorIs(t, err, domain.ErrRegistrationFailure)
}
