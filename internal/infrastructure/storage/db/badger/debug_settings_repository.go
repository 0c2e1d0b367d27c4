package dbbadger

import (
	"context"

	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

const debugSettingsKey = "debug_settings"

type debugSettingsRepositoryImpl struct {
	store *badgerhold.Store
}

// NewDebugSettingsRepositoryImpl ...
func NewDebugSettingsRepositoryImpl(
	store *badgerhold.Store,
) domain.DebugSettingsRepository {
	return &debugSettingsRepositoryImpl{store}
}

func (r *debugSettingsRepositoryImpl) GetDebugSettings(
	_ context.Context,
) (*domain.DebugSettings, error) {
	var settings domain.DebugSettings
	if err := r.store.Get(debugSettingsKey, &settings); err != nil {
		if err == badgerhold.ErrNotFound {
			return &domain.DebugSettings{}, nil
		}
		return nil, err
	}
	return &settings, nil
}

func (r *debugSettingsRepositoryImpl) SaveDebugSettings(
	_ context.Context, settings domain.DebugSettings,
) error {
	return r.store.Upsert(debugSettingsKey, settings)
}
