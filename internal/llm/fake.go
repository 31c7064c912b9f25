package llm

import (
	"context"
	"encoding/json"
)

// FakeClient returns scripted JSON payloads for offline runs and tests.
// Respond, when set, is called per request; otherwise each call pops the
// next canned response.
type FakeClient struct {
	Respond   func(system string, input any) (json.RawMessage, error)
	Responses []json.RawMessage
	Err       error

	calls int
}

func NewFakeClient(responses ...json.RawMessage) *FakeClient {
	return &FakeClient{Responses: responses}
}

func (f *FakeClient) Name() string { return "FakeLLM" }
func (f *FakeClient) Close() error { return nil }

// Calls reports how many times GenerateJSON was invoked.
func (f *FakeClient) Calls() int { return f.calls }

func (f *FakeClient) GenerateJSON(_ context.Context, system string, input any) (json.RawMessage, error) {
	f.calls++
	if f.Respond != nil {
		return f.Respond(system, input)
	}
	if f.Err != nil {
		return nil, f.Err
	}
	if len(f.Responses) == 0 {
		return json.RawMessage(`{}`), nil
	}
	resp := f.Responses[0]
	if len(f.Responses) > 1 {
		f.Responses = f.Responses[1:]
	}
	return resp, nil
}
