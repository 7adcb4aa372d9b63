package intent

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/nikhilbhutani/gethelp/internal/llm"
	"github.com/nikhilbhutani/gethelp/internal/tasks"
)

type cannedGateway struct {
	content     string
	err         error
	last        llm.ChatRequest
	deadline    time.Time
	hasDeadline bool
}

func (g *cannedGateway) Chat(ctx context.Context, req llm.ChatRequest) (*llm.ChatResponse, error) {
	g.last = req
	g.deadline, g.hasDeadline = ctx.Deadline()
	if g.err != nil {
		return nil, g.err
	}
	return &llm.ChatResponse{Provider: "openai", Model: req.Model, Content: g.content, InputTokens: 80, OutputTokens: 20}, nil
}

func (g *cannedGateway) Provider(string) (llm.Provider, error) { return nil, errors.New("unused") }

func descriptors() []tasks.Descriptor {
	return tasks.NewRegistry(tasks.Builtin()...).List()
}

func TestDetect(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		content  string
		err      error
		wantOK   bool
		wantTask string
	}{
		{name: "confident match", content: `{"task":"order_tracking","confidence":0.92,"parameters":{"orderNumber":"ORD-1"}}`, wantOK: true, wantTask: "order_tracking"},
		{name: "fenced json", content: "```json\n{\"task\":\"bill_payment\",\"confidence\":0.8}\n```", wantOK: true, wantTask: "bill_payment"},
		{name: "low confidence", content: `{"task":"order_tracking","confidence":0.3}`},
		{name: "none", content: `{"task":"none","confidence":0.99}`},
		{name: "unregistered task", content: `{"task":"launch_rocket","confidence":0.99}`},
		{name: "prose", content: "I think they want their order."},
		{name: "gateway error", err: errors.New("timeout")},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			gw := &cannedGateway{content: tt.content, err: tt.err}
			m, ok := NewDetector(gw, descriptors(), Options{MinConfidence: 0.6}).Detect(context.Background(), "where is my order ORD-1?")
			require.Equal(t, tt.wantOK, ok)
			require.Equal(t, tt.wantTask, m.TaskType)
			require.Equal(t, "gpt-4o-mini", gw.last.Model)
		})
	}
}

func TestDetectCarriesParametersAndListsTasks(t *testing.T) {
	t.Parallel()

	gw := &cannedGateway{content: `{"task":"order_tracking","confidence":0.9,"parameters":{"orderNumber":"ORD-7"}}`}
	m, ok := NewDetector(gw, descriptors(), Options{Model: "gpt-4o", MinConfidence: 0.5}).Detect(context.Background(), "track ORD-7")
	require.True(t, ok)
	require.Equal(t, map[string]any{"orderNumber": "ORD-7"}, m.Parameters)

	system := gw.last.Messages[0].Content
	for _, d := range descriptors() {
		require.Contains(t, system, d.ID)
	}
	require.Equal(t, "track ORD-7", gw.last.Messages[1].Content)
}

type usageSink struct{ records []llm.UsageRecord }

func (u *usageSink) RecordUsage(_ context.Context, rec llm.UsageRecord) {
	u.records = append(u.records, rec)
}

func TestDetectBoundsTheClassifierCall(t *testing.T) {
	t.Parallel()

	gw := &cannedGateway{content: `{"task":"none","confidence":1}`}
	before := time.Now()
	NewDetector(gw, descriptors(), Options{Timeout: 5 * time.Second}).Detect(context.Background(), "where is my order")

	require.True(t, gw.hasDeadline)
	require.WithinDuration(t, before.Add(5*time.Second), gw.deadline, time.Second)
}

func TestDetectWithoutTimeoutKeepsCallerContext(t *testing.T) {
	t.Parallel()

	gw := &cannedGateway{content: `{"task":"none","confidence":1}`}
	NewDetector(gw, descriptors(), Options{}).Detect(context.Background(), "hello")
	require.False(t, gw.hasDeadline)
}

func TestDetectReportsUsage(t *testing.T) {
	t.Parallel()

	usage := &usageSink{}
	gw := &cannedGateway{content: `{"task":"order_tracking","confidence":0.9}`}
	_, ok := NewDetector(gw, descriptors(), Options{Usage: usage}).Detect(context.Background(), "track my order")
	require.True(t, ok)

	require.Len(t, usage.records, 1)
	require.Equal(t, "intent", usage.records[0].Endpoint)
	require.Equal(t, "gpt-4o-mini", usage.records[0].Model)
	require.Equal(t, 100, usage.records[0].TotalTokens)

	failing := &cannedGateway{err: errors.New("down")}
	NewDetector(failing, descriptors(), Options{Usage: usage}).Detect(context.Background(), "track my order")
	require.Len(t, usage.records, 1)
}
