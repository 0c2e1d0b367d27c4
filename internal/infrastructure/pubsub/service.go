package pubsub

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt"
	log "github.com/sirupsen/logrus"
	"github.com/sony/gobreaker"
	"github.com/tdex-network/coinjoind/internal/core/application"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	"github.com/tdex-network/coinjoind/pkg/circuitbreaker"
	"golang.org/x/sync/errgroup"
)

const defaultRequestTimeout = 15 * time.Second

// Message is the body posted to the webhook endpoints.
type Message struct {
	Type       string      `json:"type"`
	AccountKey string      `json:"account_key,omitempty"`
	Network    string      `json:"network,omitempty"`
	Payload    interface{} `json:"payload,omitempty"`
}

// Service notifies the coinjoin actions to the subscribed webhooks. It's an
// action observer, deliveries happen in background and go through a circuit
// breaker.
type Service struct {
	repo       domain.WebhookRepository
	httpClient *client
	cb         *gobreaker.CircuitBreaker

	wg sync.WaitGroup
}

// NewService returns a webhook pubsub service. A non positive timeout falls
// back to the default one.
func NewService(
	repo domain.WebhookRepository,
	requestTimeout time.Duration,
	settings circuitbreaker.Settings,
) (*Service, error) {
	if repo == nil {
		return nil, ErrNullRepository
	}
	if requestTimeout <= 0 {
		requestTimeout = defaultRequestTimeout
	}

	return &Service{
		repo:       repo,
		httpClient: newHTTPClient(requestTimeout),
		cb:         circuitbreaker.NewCircuitBreaker("webhooks", settings),
	}, nil
}

// Subscribe adds a webhook for the given action type, or for all of them if
// it's domain.AllActions, and returns its id.
func (s *Service) Subscribe(
	ctx context.Context, actionType, endpoint, secret string,
) (string, error) {
	if _, ok := application.ActionTypes[actionType]; !ok &&
		actionType != domain.AllActions {
		return "", fmt.Errorf("%w: %s", ErrUnknownAction, actionType)
	}

	hook, err := domain.NewWebhook(actionType, endpoint, secret)
	if err != nil {
		return "", err
	}
	if err := s.repo.AddWebhook(ctx, *hook); err != nil {
		return "", err
	}
	return hook.ID, nil
}

func (s *Service) Unsubscribe(ctx context.Context, id string) error {
	return s.repo.DeleteWebhook(ctx, id)
}

// ListSubscriptions returns the hooks notified of the given action type,
// those subscribed to all actions included. An empty action type returns
// all the hooks.
func (s *Service) ListSubscriptions(
	ctx context.Context, actionType string,
) ([]domain.Webhook, error) {
	if actionType == "" {
		return s.repo.GetAllWebhooks(ctx)
	}

	hooks, err := s.repo.GetWebhooksByAction(ctx, actionType)
	if err != nil {
		return nil, err
	}
	if actionType == domain.AllActions {
		return hooks, nil
	}
	hooksForAllActions, err := s.repo.GetWebhooksByAction(ctx, domain.AllActions)
	if err != nil {
		return nil, err
	}
	return append(hooks, hooksForAllActions...), nil
}

// Publish posts the action to every hook subscribed to its type and waits
// for all the requests to complete.
func (s *Service) Publish(ctx context.Context, action ports.Action) error {
	hooks, err := s.ListSubscriptions(ctx, action.Type)
	if err != nil {
		return err
	}
	if len(hooks) <= 0 {
		return nil
	}

	message, err := json.Marshal(Message{
		Type:       action.Type,
		AccountKey: action.AccountKey,
		Network:    action.Network,
		Payload:    action.Payload,
	})
	if err != nil {
		return err
	}

	eg := &errgroup.Group{}
	for i := range hooks {
		hook := hooks[i]
		eg.Go(func() error { return s.doRequest(ctx, hook, string(message)) })
	}
	return eg.Wait()
}

// Notify implements ports.ActionObserver.
func (s *Service) Notify(action ports.Action) {
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()

		if err := s.Publish(context.Background(), action); err != nil {
			log.WithError(err).Warnf(
				"failed to notify webhooks of action %s", action.Type,
			)
		}
	}()
}

// Close waits for the pending notifications to complete.
func (s *Service) Close() {
	s.wg.Wait()
}

func (s *Service) doRequest(
	ctx context.Context, hook domain.Webhook, payload string,
) error {
	_, err := s.cb.Execute(func() (interface{}, error) {
		headers := map[string]string{
			"Content-Type": "application/json",
		}
		if hook.IsSecured() {
			token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.StandardClaims{
				Subject:  hook.ID,
				IssuedAt: time.Now().Unix(),
			})
			tokenString, err := token.SignedString([]byte(hook.Secret))
			if err != nil {
				return nil, err
			}
			headers["Authorization"] = fmt.Sprintf("Bearer %s", tokenString)
		}

		status, resp, err := s.httpClient.post(ctx, hook.Endpoint, payload, headers)
		if err != nil {
			return nil, err
		}
		if status < 200 || status >= 300 {
			return nil, fmt.Errorf(
				"webhook %s replied with status %d: %s", hook.ID, status, resp,
			)
		}
		return nil, nil
	})
	return err
}
