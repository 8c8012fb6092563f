package smoke

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"greeter/internal/handlers"
)

type fakeLambda struct {
	out   *lambdasvc.InvokeOutput
	err   error
	input *lambdasvc.InvokeInput
}

func (f *fakeLambda) Invoke(ctx context.Context, params *lambdasvc.InvokeInput, _ ...func(*lambdasvc.Options)) (*lambdasvc.InvokeOutput, error) {
	f.input = params
	return f.out, f.err
}

type fakeSNS struct {
	published []*sns.PublishInput
	err       error
}

func (f *fakeSNS) Publish(ctx context.Context, params *sns.PublishInput, _ ...func(*sns.Options)) (*sns.PublishOutput, error) {
	f.published = append(f.published, params)
	return &sns.PublishOutput{}, f.err
}

const validPayload = `{"statusCode":200,"body":"{\"message\":\"Hello from AWS Lambda 🚀\"}"}`

func newChecker(l Invoker, p Publisher, topic string) *Checker {
	c := NewChecker("hello", topic, l, p, zap.NewNop())
	c.now = func() time.Time { return time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC) }
	return c
}

func TestRun_Pass(t *testing.T) {
	l := &fakeLambda{out: &lambdasvc.InvokeOutput{StatusCode: 200, Payload: []byte(validPayload)}}
	p := &fakeSNS{}

	err := newChecker(l, p, "arn:aws:sns:us-east-1:123456789012:alerts").Run(context.Background())
	require.NoError(t, err)

	require.NotNil(t, l.input)
	assert.Equal(t, "hello", aws.ToString(l.input.FunctionName))
	assert.Equal(t, lambdatypes.InvocationTypeRequestResponse, l.input.InvocationType)
	assert.Equal(t, []byte("{}"), l.input.Payload)
	assert.Empty(t, p.published)
}

func TestRun_Failures(t *testing.T) {
	tests := []struct {
		name    string
		lambda  *fakeLambda
		wantErr error
	}{
		{
			name:   "invoke error",
			lambda: &fakeLambda{err: errors.New("access denied")},
		},
		{
			name: "function error",
			lambda: &fakeLambda{out: &lambdasvc.InvokeOutput{
				StatusCode:    200,
				FunctionError: aws.String("Unhandled"),
				Payload:       []byte(`{"errorMessage":"boom"}`),
			}},
			wantErr: ErrFunctionError,
		},
		{
			name: "wrong message",
			lambda: &fakeLambda{out: &lambdasvc.InvokeOutput{
				StatusCode: 200,
				Payload:    []byte(`{"statusCode":200,"body":"{\"message\":\"hi\"}"}`),
			}},
			wantErr: handlers.ErrUnexpectedMessage,
		},
		{
			name: "wrong status",
			lambda: &fakeLambda{out: &lambdasvc.InvokeOutput{
				StatusCode: 200,
				Payload:    []byte(`{"statusCode":404,"body":"{}"}`),
			}},
			wantErr: handlers.ErrUnexpectedStatus,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &fakeSNS{}
			err := newChecker(tt.lambda, p, "arn:aws:sns:us-east-1:123456789012:alerts").Run(context.Background())

			require.Error(t, err)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
			}

			require.Len(t, p.published, 1)
			assert.Equal(t, "arn:aws:sns:us-east-1:123456789012:alerts", aws.ToString(p.published[0].TopicArn))
			assert.Equal(t, "Smoke check failed: hello", aws.ToString(p.published[0].Subject))
			assert.Contains(t, aws.ToString(p.published[0].Message), "2026-01-02T03:04:05Z")
			assert.Contains(t, aws.ToString(p.published[0].Message), err.Error())
		})
	}
}

func TestRun_NoAlertWithoutTopic(t *testing.T) {
	l := &fakeLambda{err: errors.New("throttled")}
	p := &fakeSNS{}

	err := newChecker(l, p, "").Run(context.Background())
	require.Error(t, err)
	assert.Empty(t, p.published)
}

func TestRun_PublishFailureKeepsCheckError(t *testing.T) {
	l := &fakeLambda{out: &lambdasvc.InvokeOutput{StatusCode: 200, Payload: []byte(`not json`)}}
	p := &fakeSNS{err: errors.New("sns down")}

	err := newChecker(l, p, "arn:aws:sns:us-east-1:123456789012:alerts").Run(context.Background())
	require.Error(t, err)
	assert.ErrorIs(t, err, handlers.ErrMalformedResponse)
	assert.Len(t, p.published, 1)
}

func TestRun_AgainstLocalHandler(t *testing.T) {
	resp, err := handlers.Hello(context.Background(), handlers.Event{})
	require.NoError(t, err)

	payload, err := json.Marshal(resp)
	require.NoError(t, err)
	l := &fakeLambda{out: &lambdasvc.InvokeOutput{StatusCode: 200, Payload: payload}}

	assert.NoError(t, newChecker(l, nil, "").Run(context.Background()))
}
