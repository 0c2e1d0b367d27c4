package pubsub_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt"
	"github.com/stretchr/testify/require"
	"github.com/tdex-network/coinjoind/internal/core/application"
	"github.com/tdex-network/coinjoind/internal/core/domain"
	"github.com/tdex-network/coinjoind/internal/core/ports"
	"github.com/tdex-network/coinjoind/internal/infrastructure/pubsub"
	"github.com/tdex-network/coinjoind/internal/infrastructure/storage/db/inmemory"
	"github.com/tdex-network/coinjoind/pkg/circuitbreaker"
)

var ctx = context.Background()

const secret = "supersecret"

type request struct {
	path    string
	auth    string
	message pubsub.Message
}

type testServer struct {
	*httptest.Server

	lock     sync.Mutex
	requests []request
}

func newTestServer(t *testing.T) *testServer {
	s := &testServer{}
	s.Server = httptest.NewServer(http.HandlerFunc(
		func(w http.ResponseWriter, r *http.Request) {
			if r.URL.Path == "/failing" {
				w.WriteHeader(http.StatusInternalServerError)
				return
			}
			buf, _ := io.ReadAll(r.Body)
			var msg pubsub.Message
			//nolint
			json.Unmarshal(buf, &msg)

			s.lock.Lock()
			s.requests = append(s.requests, request{
				r.URL.Path, r.Header.Get("Authorization"), msg,
			})
			s.lock.Unlock()
			w.WriteHeader(http.StatusOK)
		},
	))
	t.Cleanup(s.Close)
	return s
}

func (s *testServer) received() []request {
	s.lock.Lock()
	defer s.lock.Unlock()
	return append([]request{}, s.requests...)
}

func newTestService(t *testing.T) *pubsub.Service {
	svc, err := pubsub.NewService(
		inmemory.NewWebhookRepositoryImpl(), time.Second,
		circuitbreaker.DefaultSettings(),
	)
	require.NoError(t, err)
	return svc
}

func TestPubSubService(t *testing.T) {
	server := newTestServer(t)
	svc := newTestService(t)

	signedID, err := svc.Subscribe(
		ctx, application.ActionSessionTxSigned, server.URL+"/signed", secret,
	)
	require.NoError(t, err)
	allID, err := svc.Subscribe(ctx, domain.AllActions, server.URL+"/all", "")
	require.NoError(t, err)

	hooks, err := svc.ListSubscriptions(ctx, application.ActionSessionTxSigned)
	require.NoError(t, err)
	require.Len(t, hooks, 2)

	hooks, err = svc.ListSubscriptions(ctx, domain.AllActions)
	require.NoError(t, err)
	require.Len(t, hooks, 1)
	require.Equal(t, allID, hooks[0].ID)

	hooks, err = svc.ListSubscriptions(ctx, "")
	require.NoError(t, err)
	require.Len(t, hooks, 2)

	err = svc.Publish(ctx, ports.Action{
		Type:       application.ActionSessionTxSigned,
		AccountKey: "acc",
		Network:    "regtest",
		Payload:    application.TxSignedPayload{RoundID: "round-1", SignedRounds: 1},
	})
	require.NoError(t, err)

	requests := server.received()
	require.Len(t, requests, 2)
	for _, r := range requests {
		require.Equal(t, application.ActionSessionTxSigned, r.message.Type)
		require.Equal(t, "acc", r.message.AccountKey)
		require.Equal(t, "regtest", r.message.Network)

		if r.path == "/all" {
			require.Empty(t, r.auth)
			continue
		}
		require.Equal(t, "/signed", r.path)
		require.True(t, strings.HasPrefix(r.auth, "Bearer "))

		claims := &jwt.StandardClaims{}
		token, err := jwt.ParseWithClaims(
			strings.TrimPrefix(r.auth, "Bearer "), claims,
			func(*jwt.Token) (interface{}, error) { return []byte(secret), nil },
		)
		require.NoError(t, err)
		require.True(t, token.Valid)
		require.Equal(t, signedID, claims.Subject)
	}

	// Only the hook for all actions is notified of other action types.
	svc.Notify(ports.Action{Type: application.ActionClientRemove, Network: "regtest"})
	svc.Close()

	requests = server.received()
	require.Len(t, requests, 3)
	require.Equal(t, "/all", requests[2].path)
	require.Equal(t, application.ActionClientRemove, requests[2].message.Type)

	require.NoError(t, svc.Unsubscribe(ctx, allID))
	require.NoError(t, svc.Publish(ctx, ports.Action{
		Type: application.ActionClientRemove,
	}))
	require.Len(t, server.received(), 3)
}

func TestFailingPubSubService(t *testing.T) {
	server := newTestServer(t)
	svc := newTestService(t)

	_, err := pubsub.NewService(nil, 0, circuitbreaker.Settings{})
	require.ErrorIs(t, err, pubsub.ErrNullRepository)

	_, err = svc.Subscribe(ctx, "TRADE_SETTLED", server.URL, "")
	require.ErrorIs(t, err, pubsub.ErrUnknownAction)

	_, err = svc.Subscribe(ctx, application.ActionSessionStart, "not an url", "")
	require.ErrorIs(t, err, domain.ErrInvalidWebhook)

	_, err = svc.Subscribe(
		ctx, application.ActionSessionStart, server.URL+"/failing", "",
	)
	require.NoError(t, err)

	err = svc.Publish(ctx, ports.Action{Type: application.ActionSessionStart})
	require.Error(t, err)
	require.Contains(t, err.Error(), "status 500")
}
