package bedrock

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/bedrockruntime"
	"github.com/mikey/llm-mail-digest/internal/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakeRuntime struct {
	input *bedrockruntime.InvokeModelInput
	body  string
	err   error
}

func (f *fakeRuntime) InvokeModel(_ context.Context, params *bedrockruntime.InvokeModelInput, _ ...func(*bedrockruntime.Options)) (*bedrockruntime.InvokeModelOutput, error) {
	f.input = params
	if f.err != nil {
		return nil, f.err
	}
	return &bedrockruntime.InvokeModelOutput{Body: []byte(f.body)}, nil
}

func TestComplete_Claude(t *testing.T) {
	runtime := &fakeRuntime{body: `{"completion": " {\"importance_score\": 9}"}`}
	client := NewBedrockClient(runtime, "anthropic.claude-v2", 300, 0.1, 0.9, zap.NewNop())

	reply, err := client.Complete(context.Background(), "Rate this")

	require.NoError(t, err)
	assert.Equal(t, ` {"importance_score": 9}`, reply)
	assert.Equal(t, "anthropic.claude-v2", aws.ToString(runtime.input.ModelId))

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(runtime.input.Body, &sent))
	assert.Contains(t, sent["prompt"], "Human: Rate this")
	assert.EqualValues(t, 300, sent["max_tokens_to_sample"])
}

func TestComplete_Titan(t *testing.T) {
	runtime := &fakeRuntime{body: `{"results": [{"outputText": "titan says hi"}]}`}
	client := NewBedrockClient(runtime, "amazon.titan-text-express-v1", 300, 0.1, 0.9, zap.NewNop())

	reply, err := client.Complete(context.Background(), "Rate this")

	require.NoError(t, err)
	assert.Equal(t, "titan says hi", reply)

	var sent map[string]interface{}
	require.NoError(t, json.Unmarshal(runtime.input.Body, &sent))
	assert.Equal(t, "Rate this", sent["inputText"])
}

func TestComplete_TitanEmpty(t *testing.T) {
	runtime := &fakeRuntime{body: `{"results": []}`}
	client := NewBedrockClient(runtime, "amazon.titan-text-express-v1", 300, 0.1, 0.9, zap.NewNop())

	_, err := client.Complete(context.Background(), "Rate this")

	assert.ErrorIs(t, err, core.ErrEmptyResponse)
}

func TestComplete_GenericModel(t *testing.T) {
	runtime := &fakeRuntime{body: `{"generation": "llama reply"}`}
	client := NewBedrockClient(runtime, "meta.llama3-70b-instruct-v1:0", 300, 0.1, 0.9, zap.NewNop())

	reply, err := client.Complete(context.Background(), "Rate this")

	require.NoError(t, err)
	assert.Equal(t, "llama reply", reply)
}

func TestComplete_InvokeError(t *testing.T) {
	boom := errors.New("throttled")
	client := NewBedrockClient(&fakeRuntime{err: boom}, "anthropic.claude-v2", 300, 0.1, 0.9, zap.NewNop())

	_, err := client.Complete(context.Background(), "Rate this")

	assert.ErrorIs(t, err, boom)
}
