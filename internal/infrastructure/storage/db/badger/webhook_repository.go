package dbbadger

import (
	"context"
	"sort"

	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/timshannon/badgerhold/v4"
)

type webhookRepositoryImpl struct {
	store *badgerhold.Store
}

// NewWebhookRepositoryImpl returns a badger implementation of the
// domain.WebhookRepository. Hooks are stored by id.
func NewWebhookRepositoryImpl(store *badgerhold.Store) domain.WebhookRepository {
	return &webhookRepositoryImpl{store}
}

func (r *webhookRepositoryImpl) AddWebhook(
	_ context.Context, hook domain.Webhook,
) error {
	if err := r.store.Insert(hook.ID, hook); err != nil {
		if err == badgerhold.ErrKeyExists {
			return domain.ErrWebhookAlreadyExists
		}
		return err
	}
	return nil
}

func (r *webhookRepositoryImpl) GetWebhook(
	_ context.Context, id string,
) (*domain.Webhook, error) {
	var hook domain.Webhook
	if err := r.store.Get(id, &hook); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil, domain.ErrWebhookNotFound
		}
		return nil, err
	}
	return &hook, nil
}

func (r *webhookRepositoryImpl) GetWebhooksByAction(
	_ context.Context, actionType string,
) ([]domain.Webhook, error) {
	return r.findWebhooks(badgerhold.Where("ActionType").Eq(actionType))
}

func (r *webhookRepositoryImpl) GetAllWebhooks(
	_ context.Context,
) ([]domain.Webhook, error) {
	return r.findWebhooks(nil)
}

func (r *webhookRepositoryImpl) DeleteWebhook(
	_ context.Context, id string,
) error {
	if err := r.store.Delete(id, domain.Webhook{}); err != nil {
		if err == badgerhold.ErrNotFound {
			return nil
		}
		return err
	}
	return nil
}

func (r *webhookRepositoryImpl) findWebhooks(
	query *badgerhold.Query,
) ([]domain.Webhook, error) {
	hooks := make([]domain.Webhook, 0)
	if err := r.store.Find(&hooks, query); err != nil {
		return nil, err
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].ID < hooks[j].ID })
	return hooks, nil
}
