package events

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/google/uuid"
	amqp "github.com/rabbitmq/amqp091-go"
	"github.com/segmentio/kafka-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeWriter struct {
	msgs []kafka.Message
	err  error
}

func (f *fakeWriter) WriteMessages(_ context.Context, msgs ...kafka.Message) error {
	if f.err != nil {
		return f.err
	}
	f.msgs = append(f.msgs, msgs...)
	return nil
}

func (f *fakeWriter) Close() error { return nil }

type fakeChannel struct {
	published []amqp.Publishing
	keys      []string
	closed    bool
}

func (f *fakeChannel) PublishWithContext(_ context.Context, _, key string, _, _ bool, msg amqp.Publishing) error {
	f.keys = append(f.keys, key)
	f.published = append(f.published, msg)
	return nil
}

func (f *fakeChannel) Close() error {
	f.closed = true
	return nil
}

func sampleEvent() Event {
	return New(TypeFolioClosed, uuid.New(), uuid.New(), "staff:test", map[string]any{"total": "374.00"})
}

func TestKafkaEmitter_KeysByFolio(t *testing.T) {
	fw := &fakeWriter{}
	e := sampleEvent()

	err := NewKafkaEmitterWithWriter(fw).Emit(context.Background(), e)
	require.NoError(t, err)
	require.Len(t, fw.msgs, 1)

	msg := fw.msgs[0]
	assert.Equal(t, e.FolioID.String(), string(msg.Key))
	require.Len(t, msg.Headers, 1)
	assert.Equal(t, TypeFolioClosed, string(msg.Headers[0].Value))

	var decoded Event
	require.NoError(t, json.Unmarshal(msg.Value, &decoded))
	assert.Equal(t, e.ID, decoded.ID)
	assert.Equal(t, "374.00", decoded.Data["total"])
}

func TestKafkaEmitter_WriteError(t *testing.T) {
	fw := &fakeWriter{err: errors.New("broker down")}

	err := NewKafkaEmitterWithWriter(fw).Emit(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "broker down")
}

func TestRabbitEmitter_PublishesPersistentJSON(t *testing.T) {
	ch := &fakeChannel{}
	em := NewRabbitEmitterWithChannel(ch, "folio-events")
	e := sampleEvent()

	require.NoError(t, em.Emit(context.Background(), e))
	require.Len(t, ch.published, 1)
	assert.Equal(t, "folio-events", ch.keys[0])
	assert.Equal(t, amqp.Persistent, ch.published[0].DeliveryMode)
	assert.Equal(t, "application/json", ch.published[0].ContentType)
	assert.Equal(t, e.ID.String(), ch.published[0].MessageId)

	require.NoError(t, em.Close())
	assert.True(t, ch.closed)
}

func TestMulti_JoinsErrors(t *testing.T) {
	ok := &fakeWriter{}
	failing := &fakeWriter{err: errors.New("nope")}
	m := Multi{NewKafkaEmitterWithWriter(ok), NewKafkaEmitterWithWriter(failing), NopEmitter{}}

	err := m.Emit(context.Background(), sampleEvent())
	require.Error(t, err)
	assert.Len(t, ok.msgs, 1)
}

func TestLogEmitter(t *testing.T) {
	var buf bytes.Buffer
	logger := slog.New(slog.NewJSONHandler(&buf, nil))

	require.NoError(t, NewLogEmitter(logger).Emit(context.Background(), sampleEvent()))
	assert.Contains(t, buf.String(), `"event_type":"folio.closed"`)
}
