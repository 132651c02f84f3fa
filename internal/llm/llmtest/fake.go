// Package llmtest provides a scripted llm.Client for tests.
package llmtest

import (
	"context"
	"strings"
	"sync"

	"github.com/capitalize-ai/theology-chat/internal/llm"
)

// Fake answers every request with Reply, or fails with Err.
type Fake struct {
	Reply string
	Err   error

	mu       sync.Mutex
	requests []*llm.CompletionRequest
}

// Complete implements llm.Client.
func (f *Fake) Complete(_ context.Context, req *llm.CompletionRequest) (*llm.CompletionResponse, error) {
	f.mu.Lock()
	f.requests = append(f.requests, req)
	f.mu.Unlock()
	if f.Err != nil {
		return nil, f.Err
	}
	return &llm.CompletionResponse{
		Content:    f.Reply,
		Model:      "fake",
		TokensIn:   1,
		TokensOut:  len(strings.Fields(f.Reply)),
		StopReason: "stop",
	}, nil
}

// CompleteStream implements llm.Client. The reply is streamed word by word.
func (f *Fake) CompleteStream(ctx context.Context, req *llm.CompletionRequest, callback llm.StreamCallback) (*llm.CompletionResponse, error) {
	resp, err := f.Complete(ctx, req)
	if err != nil {
		return nil, err
	}
	for i, word := range strings.SplitAfter(f.Reply, " ") {
		if word == "" {
			continue
		}
		if err := callback(word, i); err != nil {
			return nil, err
		}
	}
	return resp, nil
}

// Name implements llm.Client.
func (f *Fake) Name() string { return "fake" }

// DefaultModel implements llm.Client.
func (f *Fake) DefaultModel() string { return "fake" }

// Requests returns every request received so far.
func (f *Fake) Requests() []*llm.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]*llm.CompletionRequest(nil), f.requests...)
}

// Last returns the most recent request, or nil.
func (f *Fake) Last() *llm.CompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(f.requests) == 0 {
		return nil
	}
	return f.requests[len(f.requests)-1]
}
