package inmemory

import (
	"context"
	"sort"
	"sync"

	"github.com/tdex-network/coinjoind/internal/core/domain"
)

type webhookRepositoryImpl struct {
	hooks map[string]domain.Webhook
	lock  *sync.RWMutex
}

// NewWebhookRepositoryImpl ...
func NewWebhookRepositoryImpl() domain.WebhookRepository {
	return &webhookRepositoryImpl{
		hooks: make(map[string]domain.Webhook),
		lock:  &sync.RWMutex{},
	}
}

func (r *webhookRepositoryImpl) AddWebhook(
	_ context.Context, hook domain.Webhook,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	if _, ok := r.hooks[hook.ID]; ok {
		return domain.ErrWebhookAlreadyExists
	}
	r.hooks[hook.ID] = hook
	return nil
}

func (r *webhookRepositoryImpl) GetWebhook(
	_ context.Context, id string,
) (*domain.Webhook, error) {
	r.lock.RLock()
	defer r.lock.RUnlock()

	hook, ok := r.hooks[id]
	if !ok {
		return nil, domain.ErrWebhookNotFound
	}
	return &hook, nil
}

func (r *webhookRepositoryImpl) GetWebhooksByAction(
	_ context.Context, actionType string,
) ([]domain.Webhook, error) {
	return r.find(func(h domain.Webhook) bool {
		return h.ActionType == actionType
	}), nil
}

func (r *webhookRepositoryImpl) GetAllWebhooks(
	_ context.Context,
) ([]domain.Webhook, error) {
	return r.find(func(domain.Webhook) bool { return true }), nil
}

func (r *webhookRepositoryImpl) DeleteWebhook(
	_ context.Context, id string,
) error {
	r.lock.Lock()
	defer r.lock.Unlock()

	delete(r.hooks, id)
	return nil
}

func (r *webhookRepositoryImpl) find(
	filter func(h domain.Webhook) bool,
) []domain.Webhook {
	r.lock.RLock()
	defer r.lock.RUnlock()

	hooks := make([]domain.Webhook, 0)
	for _, h := range r.hooks {
		if filter(h) {
			hooks = append(hooks, h)
		}
	}
	sort.Slice(hooks, func(i, j int) bool { return hooks[i].ID < hooks[j].ID })
	return hooks
}
