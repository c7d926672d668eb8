package llm

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/cloudwego/eino/components/model"
	"github.com/cloudwego/eino/schema"

	"github.com/iWorld-y/orda/app/orda/pkg/retry"
)

// scriptedModel 依次返回预设回复
type scriptedModel struct {
	replies []string
	errs    []error
	calls   int
}

func (m *scriptedModel) Generate(_ context.Context, _ []*schema.Message, _ ...model.Option) (*schema.Message, error) {
	i := m.calls
	m.calls++
	if i < len(m.errs) && m.errs[i] != nil {
		return nil, m.errs[i]
	}
	if i >= len(m.replies) {
		return schema.AssistantMessage("", nil), nil
	}
	return schema.AssistantMessage(m.replies[i], nil), nil
}

func (m *scriptedModel) Stream(context.Context, []*schema.Message, ...model.Option) (*schema.StreamReader[*schema.Message], error) {
	return nil, errors.New("not implemented")
}

var fastPolicy = retry.Policy{
	MaxAttempts: 4,
	Backoff:     retry.Constant(time.Millisecond),
	Retryable: func(err error) bool {
		return errors.Is(err, errParse) || retry.RateLimited(err)
	},
}

func TestGenerateJSONStripsFences(t *testing.T) {
	m := &scriptedModel{replies: []string{"```json\n{\"score\": 7}\n```"}}
	c := New(m, nil).WithPolicy(fastPolicy)

	var out struct{ Score int }
	if err := c.GenerateJSON(context.Background(), []*schema.Message{schema.UserMessage("q")}, &out); err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if out.Score != 7 {
		t.Errorf("score = %d", out.Score)
	}
}

func TestGenerateJSONRetries(t *testing.T) {
	m := &scriptedModel{
		errs:    []error{errors.New("error, status code: 429, Too Many Requests"), nil, nil},
		replies: []string{"", "not json", `{"score": 3}`},
	}
	c := New(m, nil).WithPolicy(fastPolicy)

	var out struct{ Score int }
	if err := c.GenerateJSON(context.Background(), nil, &out); err != nil {
		t.Fatalf("GenerateJSON() error = %v", err)
	}
	if out.Score != 3 || m.calls != 3 {
		t.Errorf("score = %d, calls = %d", out.Score, m.calls)
	}
}

func TestGenerateJSONPermanentError(t *testing.T) {
	m := &scriptedModel{errs: []error{errors.New("invalid api key")}}
	c := New(m, nil).WithPolicy(fastPolicy)

	var out map[string]any
	if err := c.GenerateJSON(context.Background(), nil, &out); err == nil {
		t.Fatal("expected error")
	}
	if m.calls != 1 {
		t.Errorf("calls = %d, want 1", m.calls)
	}
}

func TestDisabledClient(t *testing.T) {
	c := New(nil, nil)
	if c.Enabled() {
		t.Fatal("client without model should be disabled")
	}
	if _, err := c.GenerateText(context.Background(), nil); !errors.Is(err, ErrNoModel) {
		t.Errorf("err = %v, want ErrNoModel", err)
	}
}

func TestStripFences(t *testing.T) {
	tests := map[string]string{
		"```json\n{}\n```": "{}",
		"```\n[]```":       "[]",
		"  {\"a\":1} ":     `{"a":1}`,
	}
	for in, want := range tests {
		if got := StripFences(in); got != want {
			t.Errorf("StripFences(%q) = %q, want %q", in, got, want)
		}
	}
}
