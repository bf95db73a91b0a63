package scan

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"google.golang.org/api/iterator"

	"dental-bot/api/internal/dental"
)

type stubStream struct {
	fragments []string
	err       error // returned after fragments are exhausted instead of iterator.Done
	onNext    func(call int)
	calls     int
	closed    bool
}

func (s *stubStream) Next() (string, error) {
	s.calls++
	if s.onNext != nil {
		s.onNext(s.calls)
	}
	if len(s.fragments) == 0 {
		if s.err != nil {
			return "", s.err
		}
		return "", iterator.Done
	}
	f := s.fragments[0]
	s.fragments = s.fragments[1:]
	return f, nil
}

func (s *stubStream) Close() error {
	s.closed = true
	return nil
}

func TestCollectConcatenatesInOrder(t *testing.T) {
	st := &stubStream{fragments: []string{"Sure! {", `"a":`, "", "1}"}}

	raw, err := Collect(context.Background(), "gemini", st)
	require.NoError(t, err)
	assert.Equal(t, `Sure! {"a":1}`, raw)
	assert.True(t, st.closed)
}

func TestCollectEmptyStream(t *testing.T) {
	raw, err := Collect(context.Background(), "gemini", &stubStream{})
	require.NoError(t, err)
	assert.Empty(t, raw)
}

func TestCollectTransportFailure(t *testing.T) {
	boom := errors.New("connection reset")
	st := &stubStream{fragments: []string{"partial"}, err: boom}

	raw, err := Collect(context.Background(), "gemini", st)
	assert.Empty(t, raw)

	var se *dental.StreamError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, "gemini", se.Engine)
	assert.ErrorIs(t, err, boom)
	assert.True(t, st.closed)
}

func TestCollectStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	st := &stubStream{
		fragments: []string{"one", "two", "three", "four"},
		onNext: func(call int) {
			if call == 2 {
				cancel()
			}
		},
	}

	raw, err := Collect(ctx, "gemini", st)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, raw)
	assert.Equal(t, 2, st.calls)
	assert.True(t, st.closed)
}

func TestCollectCancelledBeforeStart(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	st := &stubStream{fragments: []string{"one"}}
	_, err := Collect(ctx, "gemini", st)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Zero(t, st.calls)
}

func TestCollectPrefersContextErrorOverTransportError(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	st := &stubStream{
		err:    errors.New("stream aborted"),
		onNext: func(int) { cancel() },
	}

	_, err := Collect(ctx, "gpt", st)
	assert.ErrorIs(t, err, context.Canceled)

	var se *dental.StreamError
	assert.False(t, errors.As(err, &se))
}
