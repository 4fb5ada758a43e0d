package messaging

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeBroker struct {
	msgs [][]byte
	err  error
}

func (f *fakeBroker) Publish(ctx context.Context, channel string, message interface{}) error {
	return nil
}

func (f *fakeBroker) Subscribe(ctx context.Context, channel string) (<-chan []byte, error) {
	if f.err != nil {
		return nil, f.err
	}
	ch := make(chan []byte, len(f.msgs))
	for _, m := range f.msgs {
		ch <- m
	}
	close(ch)
	return ch, nil
}

func (f *fakeBroker) Close() error { return nil }

var _ Broker = (*fakeBroker)(nil)

func TestConsume(t *testing.T) {
	broker := &fakeBroker{msgs: [][]byte{
		[]byte(`{"id":"1","type":"RECEIPT_SHARED","payload":{"types":["cash"]}}`),
		[]byte(`not json`),
		[]byte(`{"id":"2","type":"RECORD_CREATE","payload":{}}`),
	}}

	var got []string
	var errs []error
	err := Consume(context.Background(), broker, ChannelReceipts, func(ctx context.Context, msg Message) error {
		got = append(got, msg.Type)
		return nil
	}, func(err error) { errs = append(errs, err) })

	require.NoError(t, err)
	assert.Equal(t, []string{"RECEIPT_SHARED", "RECORD_CREATE"}, got)
	assert.Len(t, errs, 1)
}

func TestConsume_SubscribeError(t *testing.T) {
	broker := &fakeBroker{err: errors.New("down")}
	err := Consume(context.Background(), broker, ChannelRecords, func(ctx context.Context, msg Message) error {
		return nil
	}, nil)
	assert.EqualError(t, err, "down")
}

func TestChannelFor(t *testing.T) {
	assert.Equal(t, ChannelReceipts, ChannelFor("RECEIPT_SHARED"))
	assert.Equal(t, ChannelRecords, ChannelFor("RECORD_DELETE"))
	assert.Equal(t, ChannelRecords, ChannelFor(""))
}
