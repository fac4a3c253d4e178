package bus

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type pingCommand struct {
	Value string
}

func (c pingCommand) Validate() error {
	if c.Value == "" {
		return errors.New("value required")
	}
	return nil
}

type recordingRecorder struct {
	names []string
	errs  []error
}

func (r *recordingRecorder) RecordCommand(_ context.Context, name string, _ time.Duration, err error) {
	r.names = append(r.names, name)
	r.errs = append(r.errs, err)
}

func TestCommandBus_Send(t *testing.T) {
	t.Run("Should dispatch to the registered handler", func(t *testing.T) {
		recorder := &recordingRecorder{}
		b := NewCommandBus(LoggingMiddleware(zap.NewNop()), MetricsMiddleware(recorder))
		require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
			return cmd.(pingCommand).Value + "!", nil
		})))

		result, err := b.Send(context.Background(), pingCommand{Value: "hi"})

		require.NoError(t, err)
		assert.Equal(t, "hi!", result)
		assert.Equal(t, []string{"pingCommand"}, recorder.names)
	})

	t.Run("Should reject invalid commands before dispatch", func(t *testing.T) {
		recorder := &recordingRecorder{}
		b := NewCommandBus(MetricsMiddleware(recorder))
		require.NoError(t, b.Register(pingCommand{}, CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) {
			return nil, nil
		})))

		_, err := b.Send(context.Background(), pingCommand{})

		assert.EqualError(t, err, "value required")
		assert.Empty(t, recorder.names)
	})

	t.Run("Should fail for unknown commands", func(t *testing.T) {
		b := NewCommandBus()
		_, err := b.Send(context.Background(), pingCommand{Value: "x"})
		assert.ErrorIs(t, err, ErrHandlerNotFound)
	})

	t.Run("Should refuse duplicate registration", func(t *testing.T) {
		b := NewCommandBus()
		h := CommandHandlerFunc(func(ctx context.Context, cmd Command) (interface{}, error) { return nil, nil })
		require.NoError(t, b.Register(pingCommand{}, h))
		assert.Error(t, b.Register(pingCommand{}, h))
	})
}
