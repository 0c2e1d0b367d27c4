package application_test

import (
	"context"
	"fmt"
	"sync"

	"github.com/btcsuite/btcd/chaincfg"
	"github.com/stretchr/testify/mock"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
)

// **** Coordinator client ****

type mockClient struct {
	mock.Mock

	events    chan ports.CoordinatorEvent
	closeOnce sync.Once
}

func newMockClient() *mockClient {
	return &mockClient{events: make(chan ports.CoordinatorEvent, 10)}
}

func (m *mockClient) Enable(ctx context.Context) (*domain.CoordinatorStatus, error) {
	args := m.Called()

	var res *domain.CoordinatorStatus
	if a := args.Get(0); a != nil {
		res = a.(*domain.CoordinatorStatus)
	}
	return res, args.Error(1)
}

func (m *mockClient) RegisterAccount(
	ctx context.Context, params domain.RegisterAccountParams,
) error {
	args := m.Called(params)
	return args.Error(0)
}

func (m *mockClient) UpdateAccount(
	ctx context.Context, accountKey string, params domain.UpdateAccountParams,
) error {
	args := m.Called(accountKey, params)
	return args.Error(0)
}

func (m *mockClient) UnregisterAccount(ctx context.Context, accountKey string) error {
	args := m.Called(accountKey)
	return args.Error(0)
}

func (m *mockClient) ResolveRequest(
	ctx context.Context, resp ports.RequestResponse,
) error {
	args := m.Called(resp)
	return args.Error(0)
}

func (m *mockClient) Events() <-chan ports.CoordinatorEvent {
	return m.events
}

func (m *mockClient) Close() {
	m.closeOnce.Do(func() { close(m.events) })
}

// **** Coinjoin backend ****

type mockBackend struct {
	lock      sync.Mutex
	chunks    []ports.ScanEvent
	err       error
	requests  []ports.ScanAccountRequest
	cancelled int
}

func (m *mockBackend) ScanAccount(
	ctx context.Context, req ports.ScanAccountRequest,
) (<-chan ports.ScanEvent, error) {
	m.lock.Lock()
	defer m.lock.Unlock()

	m.requests = append(m.requests, req)
	if m.err != nil {
		return nil, m.err
	}
	ch := make(chan ports.ScanEvent, len(m.chunks))
	for _, c := range m.chunks {
		ch <- c
	}
	close(ch)
	return ch, nil
}

func (m *mockBackend) Cancel() {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.cancelled++
}

func (m *mockBackend) setChunks(chunks ...ports.ScanEvent) {
	m.lock.Lock()
	defer m.lock.Unlock()
	m.chunks = chunks
}

func (m *mockBackend) cancelCount() int {
	m.lock.Lock()
	defer m.lock.Unlock()
	return m.cancelled
}

// **** Coordinator factory ****

type mockFactory struct {
	lock     sync.Mutex
	clients  map[string]*mockClient
	backends map[string]*mockBackend
	err      error
	calls    int
}

func newMockFactory() *mockFactory {
	return &mockFactory{
		clients:  make(map[string]*mockClient),
		backends: make(map[string]*mockBackend),
	}
}

// add registers the client and backend returned for the given network.
func (f *mockFactory) add(network string) (*mockClient, *mockBackend) {
	f.lock.Lock()
	defer f.lock.Unlock()

	client, backend := newMockClient(), &mockBackend{}
	f.clients[network] = client
	f.backends[network] = backend
	return client, backend
}

func (f *mockFactory) NewClient(
	network string, _ *chaincfg.Params,
) (ports.CoinjoinClient, ports.CoinjoinBackend, error) {
	f.lock.Lock()
	defer f.lock.Unlock()

	f.calls++
	if f.err != nil {
		return nil, nil, f.err
	}
	client, ok := f.clients[network]
	if !ok {
		return nil, nil, fmt.Errorf("no client for network %s", network)
	}
	return client, f.backends[network], nil
}

// **** Device ****

type mockDevice struct {
	mock.Mock
}

func (m *mockDevice) AuthorizeCoinjoin(
	ctx context.Context, req ports.AuthorizeCoinjoinRequest,
) error {
	args := m.Called(req)
	return args.Error(0)
}

func (m *mockDevice) SignTransaction(
	ctx context.Context, req domain.SignRequest,
) (*domain.SignResult, error) {
	args := m.Called(req)

	var res *domain.SignResult
	if a := args.Get(0); a != nil {
		res = a.(*domain.SignResult)
	}
	return res, args.Error(1)
}

// **** Wallet account store ****

type walletStore struct {
	lock     sync.RWMutex
	accounts map[string]domain.Account
}

func newWalletStore(accounts ...domain.Account) *walletStore {
	s := &walletStore{accounts: make(map[string]domain.Account)}
	for _, a := range accounts {
		s.accounts[a.Key] = a
	}
	return s
}

func (s *walletStore) GetAccount(
	_ context.Context, key string,
) (*domain.Account, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	account, ok := s.accounts[key]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (s *walletStore) ListAccounts(_ context.Context) ([]domain.Account, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	accounts := make([]domain.Account, 0, len(s.accounts))
	for _, a := range s.accounts {
		accounts = append(accounts, a)
	}
	return accounts, nil
}

func (s *walletStore) UpdateAccount(_ context.Context, account domain.Account) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	s.accounts[account.Key] = account
	return nil
}

func (s *walletStore) setStatus(key string, status domain.AccountStatus) {
	s.lock.Lock()
	defer s.lock.Unlock()

	account := s.accounts[key]
	account.Status = status
	s.accounts[key] = account
}

// **** Action observer ****

type actionRecorder struct {
	lock    sync.Mutex
	actions []ports.Action
}

func (r *actionRecorder) Notify(action ports.Action) {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.actions = append(r.actions, action)
}

func (r *actionRecorder) types() []string {
	r.lock.Lock()
	defer r.lock.Unlock()

	types := make([]string, 0, len(r.actions))
	for _, a := range r.actions {
		types = append(types, a.Type)
	}
	return types
}

func (r *actionRecorder) last() ports.Action {
	r.lock.Lock()
	defer r.lock.Unlock()

	if len(r.actions) <= 0 {
		return ports.Action{}
	}
	return r.actions[len(r.actions)-1]
}

func (r *actionRecorder) reset() {
	r.lock.Lock()
	defer r.lock.Unlock()
	r.actions = nil
}
