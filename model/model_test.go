package model

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Interface compliance (compile-time assertions)
var _ Model = (*MockModel)(nil)

func TestMockModel_CannedAndDefaultResponses(t *testing.T) {
	m := NewMockModel("mock-1", "mock")
	m.AddResponse("hello", "world")

	resp, err := m.Generate(context.Background(), Request{Instructions: "ctx", Prompt: "hello"})
	require.NoError(t, err)
	assert.Equal(t, "world", resp.Text)
	assert.Equal(t, "stop", resp.FinishReason)

	resp, err = m.Generate(context.Background(), Request{Prompt: "other"})
	require.NoError(t, err)
	assert.Equal(t, "Mock response to: other", resp.Text)

	assert.Equal(t, 2, m.Calls())
	reqs := m.Requests()
	require.Len(t, reqs, 2)
	assert.Equal(t, "ctx", reqs[0].Instructions)
	assert.Equal(t, Info{Name: "mock-1", Provider: "mock"}, m.Info())
}

func TestMockModel_Error(t *testing.T) {
	m := NewMockModel("mock", "mock")
	boom := errors.New("boom")
	m.SetError(boom)

	_, err := m.Generate(context.Background(), Request{Prompt: "x"})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 1, m.Calls())
}

func TestMockModel_HangHonorsDeadline(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.Hang()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	_, err := m.Generate(ctx, Request{Prompt: "x"})
	assert.ErrorIs(t, err, context.DeadlineExceeded)
}

func TestMockModel_DelayHonorsCancel(t *testing.T) {
	m := NewMockModel("mock", "mock")
	m.SetDelay(time.Hour)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := m.Generate(ctx, Request{Prompt: "x"})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockModel_Concurrent(t *testing.T) {
	m := NewMockModel("mock", "mock")
	var wg sync.WaitGroup
	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Generate(context.Background(), Request{Prompt: "p"}); err != nil {
				t.Errorf("generate: %v", err)
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, m.Calls())
	assert.Len(t, m.Requests(), 20)
}

func TestAPIError_Unwrap(t *testing.T) {
	inner := errors.New("unauthorized")
	err := error(&APIError{Provider: "openai", StatusCode: 401, Err: inner})

	var apiErr *APIError
	require.True(t, errors.As(err, &apiErr))
	assert.Equal(t, 401, apiErr.StatusCode)
	assert.ErrorIs(t, err, inner)
	assert.Contains(t, err.Error(), "status 401")
}
