package fallback

import (
	"context"
	"fmt"
	"os"
	"sync"
	"testing"
	"time"

	"github.com/pdiddy/imrad-graph/pkg/types"
)

func TestMain(m *testing.M) {
	// Override backoff to avoid real sleeps in retry tests.
	backoffBase = time.Millisecond
	os.Exit(m.Run())
}

// mockBackend returns a fixed response per sentence, optionally delayed.
type mockBackend struct {
	mu        sync.Mutex
	calls     int
	delay     time.Duration
	responses map[string]Response
	err       error
}

func (m *mockBackend) Classify(ctx context.Context, req Request) (Response, error) {
	m.mu.Lock()
	m.calls++
	m.mu.Unlock()

	if m.delay > 0 {
		select {
		case <-ctx.Done():
			return Response{}, ctx.Err()
		case <-time.After(m.delay):
		}
	}
	if m.err != nil {
		return Response{}, m.err
	}
	if resp, ok := m.responses[req.Sentence]; ok {
		return resp, nil
	}
	return Response{Type: types.NodeConclusion, Confidence: 0.5}, nil
}

func (m *mockBackend) callCount() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.calls
}

// failNTimesBackend fails the first N calls, then succeeds.
type failNTimesBackend struct {
	mu       sync.Mutex
	failures int
	calls    int
	response Response
}

func (f *failNTimesBackend) Classify(_ context.Context, _ Request) (Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.calls <= f.failures {
		return Response{}, fmt.Errorf("transient error (call %d)", f.calls)
	}
	return f.response, nil
}

func TestResponseValidate(t *testing.T) {
	tests := []struct {
		name    string
		resp    Response
		wantErr bool
	}{
		{"valid", Response{Type: types.NodeHypothesis, Confidence: 0.9}, false},
		{"zero confidence", Response{Type: types.NodeDataset, Confidence: 0}, false},
		{"unknown type", Response{Type: "Speculation", Confidence: 0.9}, true},
		{"confidence above one", Response{Type: types.NodeAnalysis, Confidence: 1.2}, true},
		{"negative confidence", Response{Type: types.NodeAnalysis, Confidence: -0.1}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.resp.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestParseDecision(t *testing.T) {
	tests := []struct {
		name     string
		text     string
		wantType types.NodeType
		wantErr  bool
	}{
		{
			name:     "bare JSON",
			text:     `{"type": "Experiment", "confidence": 0.85}`,
			wantType: types.NodeExperiment,
		},
		{
			name:     "JSON with surrounding prose",
			text:     "Sure, here is the classification:\n{\"type\": \"Dataset\", \"confidence\": 0.7}\nLet me know.",
			wantType: types.NodeDataset,
		},
		{name: "no JSON", text: "Hypothesis", wantErr: true},
		{name: "invalid type", text: `{"type": "Other", "confidence": 0.9}`, wantErr: true},
		{name: "malformed", text: `{"type": `, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			resp, err := parseDecision(tt.text)
			if (err != nil) != tt.wantErr {
				t.Fatalf("parseDecision() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && resp.Type != tt.wantType {
				t.Errorf("type = %s, want %s", resp.Type, tt.wantType)
			}
		})
	}
}

func TestRunnerOrderIndependence(t *testing.T) {
	// The slowest task is the first one; outcomes must still land in their
	// own positions.
	backend := &mockBackend{
		responses: map[string]Response{
			"slow": {Type: types.NodeHypothesis, Confidence: 0.9},
			"fast": {Type: types.NodeAnalysis, Confidence: 0.8},
		},
	}
	r := NewRunner(backend, types.FallbackConfig{Concurrency: 2, MaxRetries: 1})

	tasks := []Task{
		{Position: 4, Request: Request{Sentence: "slow"}},
		{Position: 9, Request: Request{Sentence: "fast"}},
	}
	outcomes := r.Run(context.Background(), tasks)

	if len(outcomes) != 2 {
		t.Fatalf("got %d outcomes, want 2", len(outcomes))
	}
	if outcomes[4].Err != nil || outcomes[4].Response.Type != types.NodeHypothesis {
		t.Errorf("position 4 = %+v, want Hypothesis", outcomes[4])
	}
	if outcomes[9].Err != nil || outcomes[9].Response.Type != types.NodeAnalysis {
		t.Errorf("position 9 = %+v, want Analysis", outcomes[9])
	}
}

func TestRunnerRetriesTransientFailure(t *testing.T) {
	backend := &failNTimesBackend{
		failures: 2,
		response: Response{Type: types.NodeDataset, Confidence: 0.9},
	}
	r := NewRunner(backend, types.FallbackConfig{MaxRetries: 3})

	outcomes := r.Run(context.Background(), []Task{{Position: 0, Request: Request{Sentence: "x"}}})
	if outcomes[0].Err != nil {
		t.Fatalf("outcome error = %v, want success after retries", outcomes[0].Err)
	}
	if backend.calls != 3 {
		t.Errorf("backend called %d times, want 3", backend.calls)
	}
}

func TestRunnerExhaustsRetries(t *testing.T) {
	backend := &mockBackend{err: fmt.Errorf("unavailable")}
	r := NewRunner(backend, types.FallbackConfig{MaxRetries: 2})

	outcomes := r.Run(context.Background(), []Task{{Position: 0, Request: Request{Sentence: "x"}}})
	if outcomes[0].Err == nil {
		t.Fatal("expected error after exhausted retries")
	}
	if backend.callCount() != 3 {
		t.Errorf("backend called %d times, want 3", backend.callCount())
	}
}

func TestRunnerInvalidResponseIsFailure(t *testing.T) {
	backend := &mockBackend{
		responses: map[string]Response{"x": {Type: "Nonsense", Confidence: 0.9}},
	}
	r := NewRunner(backend, types.FallbackConfig{MaxRetries: 1})

	outcomes := r.Run(context.Background(), []Task{{Position: 0, Request: Request{Sentence: "x"}}})
	if outcomes[0].Err == nil {
		t.Fatal("expected error for invalid backend response")
	}
}

func TestRunnerCancellation(t *testing.T) {
	backend := &mockBackend{delay: time.Second}
	r := NewRunner(backend, types.FallbackConfig{MaxRetries: 3})

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	outcomes := r.Run(ctx, []Task{{Position: 0, Request: Request{Sentence: "x"}}})
	if outcomes[0].Err == nil {
		t.Fatal("expected error from cancelled context")
	}
	// No retries after cancellation.
	if backend.callCount() != 1 {
		t.Errorf("backend called %d times after cancel, want 1", backend.callCount())
	}
}

func TestRunnerBoundedConcurrency(t *testing.T) {
	var (
		mu       sync.Mutex
		inFlight int
		peak     int
	)
	backend := backendFunc(func(ctx context.Context, req Request) (Response, error) {
		mu.Lock()
		inFlight++
		if inFlight > peak {
			peak = inFlight
		}
		mu.Unlock()

		time.Sleep(5 * time.Millisecond)

		mu.Lock()
		inFlight--
		mu.Unlock()
		return Response{Type: types.NodeAnalysis, Confidence: 0.8}, nil
	})

	r := NewRunner(backend, types.FallbackConfig{Concurrency: 2, MaxRetries: 1})
	tasks := make([]Task, 10)
	for i := range tasks {
		tasks[i] = Task{Position: i, Request: Request{Sentence: fmt.Sprintf("s%d", i)}}
	}

	r.Run(context.Background(), tasks)

	if peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

// backendFunc adapts a function to the Backend interface.
type backendFunc func(ctx context.Context, req Request) (Response, error)

func (f backendFunc) Classify(ctx context.Context, req Request) (Response, error) {
	return f(ctx, req)
}

func TestNewBackend(t *testing.T) {
	tests := []struct {
		name    string
		cfg     types.FallbackConfig
		wantNil bool
		wantErr bool
	}{
		{"disabled empty", types.FallbackConfig{}, true, false},
		{"disabled none", types.FallbackConfig{Provider: "none"}, true, false},
		{"claude", types.FallbackConfig{Provider: "claude", APIKey: "k", Model: "m"}, false, false},
		{"claude without key", types.FallbackConfig{Provider: "claude"}, false, true},
		{"openai", types.FallbackConfig{Provider: "openai", APIKey: "k", Model: "m"}, false, false},
		{"unknown", types.FallbackConfig{Provider: "carrier-pigeon"}, false, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b, err := NewBackend(tt.cfg)
			if (err != nil) != tt.wantErr {
				t.Fatalf("NewBackend() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err == nil && (b == nil) != tt.wantNil {
				t.Errorf("NewBackend() nil = %v, want %v", b == nil, tt.wantNil)
			}
		})
	}
}
