package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io/ioutil"
	"os"
	"sort"
	"sync"

	"github.com/tdex-network/coinjoind/internal/core/domain"
)

// fileWalletStore is a wallet account store backed by the json file exported
// by the wallet, a list of accounts. A missing file means no accounts.
type fileWalletStore struct {
	lock sync.RWMutex
	path string
}

func newFileWalletStore(path string) *fileWalletStore {
	return &fileWalletStore{path: path}
}

func (s *fileWalletStore) GetAccount(
	_ context.Context, key string,
) (*domain.Account, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	accounts, err := s.read()
	if err != nil {
		return nil, err
	}
	account, ok := accounts[key]
	if !ok {
		return nil, nil
	}
	return &account, nil
}

func (s *fileWalletStore) ListAccounts(
	_ context.Context,
) ([]domain.Account, error) {
	s.lock.RLock()
	defer s.lock.RUnlock()

	accounts, err := s.read()
	if err != nil {
		return nil, err
	}
	list := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })
	return list, nil
}

func (s *fileWalletStore) UpdateAccount(
	_ context.Context, account domain.Account,
) error {
	s.lock.Lock()
	defer s.lock.Unlock()

	accounts, err := s.read()
	if err != nil {
		return err
	}
	accounts[account.Key] = account

	list := make([]domain.Account, 0, len(accounts))
	for _, a := range accounts {
		list = append(list, a)
	}
	sort.Slice(list, func(i, j int) bool { return list[i].Key < list[j].Key })

	buf, err := json.MarshalIndent(list, "", "  ")
	if err != nil {
		return err
	}
	if err := ioutil.WriteFile(s.path, buf, 0644); err != nil {
		return fmt.Errorf("writing to file: %w", err)
	}
	return nil
}

func (s *fileWalletStore) read() (map[string]domain.Account, error) {
	accounts := make(map[string]domain.Account)

	buf, err := ioutil.ReadFile(s.path)
	if err != nil {
		if os.IsNotExist(err) {
			return accounts, nil
		}
		return nil, err
	}

	list := make([]domain.Account, 0)
	if err := json.Unmarshal(buf, &list); err != nil {
		return nil, fmt.Errorf("invalid wallet accounts file %s: %w", s.path, err)
	}
	for _, a := range list {
		accounts[a.Key] = a
	}
	return accounts, nil
}
