package worker

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bakery-bliss/bakery/internal/config"
	"github.com/bakery-bliss/bakery/internal/messaging"
)

// fakeClient replays queued messages once, then blocks until cancelled.
type fakeClient struct {
	mu       sync.Mutex
	messages []messaging.Message
	errs     []error
}

func (f *fakeClient) Publish(context.Context, []byte, []byte) error { return nil }

func (f *fakeClient) Consume(ctx context.Context, handler messaging.Handler) error {
	f.mu.Lock()
	msgs := f.messages
	f.messages = nil
	f.mu.Unlock()

	for _, m := range msgs {
		err := handler(ctx, m)
		f.mu.Lock()
		f.errs = append(f.errs, err)
		f.mu.Unlock()
	}
	<-ctx.Done()
	return ctx.Err()
}

func (f *fakeClient) Topic() string { return "bakery.orders" }

func testConfig(enabled bool) config.Config {
	var cfg config.Config
	cfg.Messaging.Enabled = enabled
	cfg.Messaging.Workers = config.Worker{Enabled: true, Concurrency: 1, PollInterval: 10 * time.Millisecond}
	return cfg
}

func TestEngine_DispatchFansOut(t *testing.T) {
	var calls []string
	first := func(context.Context, messaging.Message) error {
		calls = append(calls, "first")
		return errors.New("store down")
	}
	second := func(context.Context, messaging.Message) error {
		calls = append(calls, "second")
		return nil
	}

	e, err := NewEngine(Params{
		Client: &fakeClient{},
		Config: testConfig(true),
		Registrations: []HandlerRegistration{
			{Topic: "bakery.orders", Handler: first},
			{Topic: "bakery.orders", Handler: second},
			{Topic: "", Handler: second},
		},
	})
	require.NoError(t, err)

	err = e.Dispatch(context.Background(), messaging.Message{Topic: "bakery.orders"})

	assert.EqualError(t, err, "store down")
	assert.Equal(t, []string{"first", "second"}, calls)
}

func TestEngine_DispatchUnknownTopic(t *testing.T) {
	e, err := NewEngine(Params{Client: &fakeClient{}, Config: testConfig(true)})
	require.NoError(t, err)

	assert.NoError(t, e.Dispatch(context.Background(), messaging.Message{Topic: "elsewhere"}))
}

func TestEngine_DispatchRecoversPanics(t *testing.T) {
	e, err := NewEngine(Params{
		Client: &fakeClient{},
		Config: testConfig(true),
		Registrations: []HandlerRegistration{{Topic: "t", Handler: func(context.Context, messaging.Message) error {
			panic("boom")
		}}},
	})
	require.NoError(t, err)

	err = e.Dispatch(context.Background(), messaging.Message{Topic: "t"})

	assert.ErrorContains(t, err, "handler panic: boom")
}

func TestEngine_StartConsumesAndStops(t *testing.T) {
	handled := make(chan messaging.Message, 1)
	client := &fakeClient{messages: []messaging.Message{{Topic: "bakery.orders", Offset: 3}}}
	e, err := NewEngine(Params{
		Client: client,
		Config: testConfig(true),
		Registrations: []HandlerRegistration{{Topic: "bakery.orders", Handler: func(_ context.Context, m messaging.Message) error {
			handled <- m
			return nil
		}}},
	})
	require.NoError(t, err)

	require.NoError(t, e.Start(context.Background()))

	select {
	case m := <-handled:
		assert.Equal(t, int64(3), m.Offset)
	case <-time.After(time.Second):
		t.Fatal("message was not handled")
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, e.Stop(ctx))
}

func TestEngine_DisabledIsNoop(t *testing.T) {
	e, err := NewEngine(Params{
		Client:        &fakeClient{},
		Config:        testConfig(false),
		Registrations: []HandlerRegistration{{Topic: "t", Handler: func(context.Context, messaging.Message) error { return nil }}},
	})
	require.NoError(t, err)

	require.NoError(t, e.Start(context.Background()))
	assert.Nil(t, e.cancel)
	assert.NoError(t, e.Stop(context.Background()))
}
