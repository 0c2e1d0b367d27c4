package inmemory

import (
	"context"
	"sync"

	"github.com/tdex-network/coinjoind/internal/core/domain"
)

type debugSettingsRepositoryImpl struct {
	settings domain.DebugSettings
	lock     *sync.RWMutex
}

// NewDebugSettingsRepositoryImpl ...
func NewDebugSettingsRepositoryImpl() domain.DebugSettingsRepository {
	return &debugSettingsRepositoryImpl{lock: &sync.RWMutex{}}
}

func (r *debugSettingsRepositoryImpl) GetDebugSettings(
	_ context.Context,
) (*domain.DebugSettings, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	settings := copySettings(r.settings)
	return &settings, nil
}

func (r *debugSettingsRepositoryImpl) SaveDebugSettings(
	_ context.Context, settings domain.DebugSettings,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	r.settings = copySettings(settings)
	return nil
}

func copySettings(s domain.DebugSettings) domain.DebugSettings {
	if s.CoordinatorURLs != nil {
		urls := make(map[string]string, len(s.CoordinatorURLs))
		for k, v := range s.CoordinatorURLs {
			urls[k] = v
		}
		s.CoordinatorURLs = urls
	}
	return s
}
