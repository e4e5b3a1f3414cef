package adapter

import (
	"context"
	"testing"
	"time"

	"github.com/ThreeDotsLabs/watermill/pubsub/gochannel"
	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/mateusmacedo/go-seatbooking/pkg/domain"
	zapAdapter "github.com/mateusmacedo/go-seatbooking/pkg/infrastructure/zaplogger/adapter"
)

type seatEvent struct {
	VehicleID string `json:"vehicle_id"`
	Row       int    `json:"row"`
}

type seatBooked struct{ data seatEvent }

func (e seatBooked) EventName() string  { return "SeatBooked" }
func (e seatBooked) Payload() seatEvent { return e.data }

type captureHandler struct{ got []seatEvent }

func (h *captureHandler) Handle(_ context.Context, e domain.Event[seatEvent]) error {
	h.got = append(h.got, e.Payload())
	return nil
}

func TestWatermillEventBusPublishesToTopicAndHandlers(t *testing.T) {
	appLogger := zapAdapter.NewZapAppLoggerFrom(zaptest.NewLogger(t))
	pubSub := gochannel.NewGoChannel(gochannel.Config{}, NewWatermillLoggerAdapter(appLogger))
	t.Cleanup(func() { _ = pubSub.Close() })

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	messages, err := pubSub.Subscribe(ctx, "SeatBooked")
	require.NoError(t, err)

	bus := NewWatermillEventBus[domain.Event[seatEvent], seatEvent](pubSub, appLogger)
	handler := &captureHandler{}
	bus.RegisterHandler("SeatBooked", handler)

	require.NoError(t, bus.Publish(ctx, seatBooked{data: seatEvent{VehicleID: "v-1", Row: 2}}))

	select {
	case msg := <-messages:
		assert.JSONEq(t, `{"vehicle_id":"v-1","row":2}`, string(msg.Payload))
		assert.Equal(t, "SeatBooked", msg.Metadata.Get("event_name"))
		msg.Ack()
	case <-ctx.Done():
		t.Fatal("message was not delivered")
	}

	assert.Equal(t, []seatEvent{{VehicleID: "v-1", Row: 2}}, handler.got)
}

func TestNewPublisherDrivers(t *testing.T) {
	logger := NewWatermillLoggerAdapter(zapAdapter.NewZapAppLoggerFrom(zaptest.NewLogger(t)))

	pub, err := NewPublisher(PublisherConfig{}, nil, logger)
	require.NoError(t, err)
	require.NoError(t, pub.Close())

	_, err = NewPublisher(PublisherConfig{Driver: DriverRedis}, nil, logger)
	assert.Error(t, err)

	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	pub, err = NewPublisher(PublisherConfig{Driver: DriverRedis}, client, logger)
	require.NoError(t, err)
	assert.NotNil(t, pub)

	_, err = NewPublisher(PublisherConfig{Driver: DriverKafka}, nil, logger)
	assert.Error(t, err)

	_, err = NewPublisher(PublisherConfig{Driver: "carrier-pigeon"}, nil, logger)
	assert.Error(t, err)
}
