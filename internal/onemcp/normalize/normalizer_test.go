package normalize_test

import (
	"context"
	"testing"
	"time"

	"onemcp/internal/onemcp/llm"
	"onemcp/internal/onemcp/model"
	"onemcp/internal/onemcp/normalize"
	"onemcp/internal/onemcp/onemcperr"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	langchainllms "github.com/tmc/langchaingo/llms"
)

type scriptedClient struct {
	text string
	err  error
}

func (c scriptedClient) Chat(ctx context.Context, messages []llm.Message, tools []langchainllms.Tool, timeout time.Duration) (*llm.Completion, error) {
	if c.err != nil {
		return nil, c.err
	}
	return &llm.Completion{Text: c.text}, nil
}

func TestNormalizeAcceptsValidProjection(t *testing.T) {
	client := scriptedClient{text: `{"action":"summarize","entities":["Sale"],"fields":["amount"],"groupBy":["state"]}`}
	n := normalize.New(client, time.Second)

	schema, err := n.Normalize(context.Background(), "total sales by state", normalize.Dictionary{
		Actions:  allowedActions(),
		Entities: []string{"Sale"},
		Fields:   []string{"amount", "state"},
	})
	require.NoError(t, err)
	assert.Equal(t, "summarize", string(schema.Action))
	assert.Equal(t, []string{"Sale"}, schema.Entities)
}

func TestNormalizeRejectsUnknownEntity(t *testing.T) {
	client := scriptedClient{text: `{"action":"summarize","entities":["Ghost"],"fields":["amount"]}`}
	n := normalize.New(client, time.Second)

	_, err := n.Normalize(context.Background(), "anything", normalize.Dictionary{
		Actions:  allowedActions(),
		Entities: []string{"Sale"},
		Fields:   []string{"amount"},
	})
	require.Error(t, err)
	var onemcpErr *onemcperr.Error
	require.ErrorAs(t, err, &onemcpErr)
	assert.Equal(t, onemcperr.Normalization, onemcpErr.Code)
}

func TestNormalizeRejectsInvalidJSON(t *testing.T) {
	client := scriptedClient{text: "not json at all"}
	n := normalize.New(client, time.Second)

	_, err := n.Normalize(context.Background(), "anything", normalize.Dictionary{Actions: allowedActions()})
	require.Error(t, err)
}

func allowedActions() []model.Action {
	return []model.Action{model.ActionSummarize, model.ActionList}
}
