// Package smoke invokes a deployed hello function and verifies the response
// still honours the wire contract external consumers depend on.
package smoke

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	lambdasvc "github.com/aws/aws-sdk-go-v2/service/lambda"
	lambdatypes "github.com/aws/aws-sdk-go-v2/service/lambda/types"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"go.uber.org/zap"

	"greeter/internal/handlers"
)

var ErrFunctionError = errors.New("function returned an error")

// Invoker is satisfied by *lambda.Client.
type Invoker interface {
	Invoke(ctx context.Context, params *lambdasvc.InvokeInput, optFns ...func(*lambdasvc.Options)) (*lambdasvc.InvokeOutput, error)
}

// Publisher is satisfied by *sns.Client.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

type Checker struct {
	FunctionName  string
	AlertTopicArn string

	Lambda Invoker
	SNS    Publisher
	Log    *zap.Logger

	now func() time.Time
}

func NewChecker(functionName, alertTopicArn string, l Invoker, p Publisher, log *zap.Logger) *Checker {
	return &Checker{
		FunctionName:  functionName,
		AlertTopicArn: alertTopicArn,
		Lambda:        l,
		SNS:           p,
		Log:           log,
		now:           time.Now,
	}
}

// Run invokes the function with an empty event and checks the result. When
// the check fails and an alert topic is configured, an alert is published
// before the error is returned.
func (c *Checker) Run(ctx context.Context) error {
	err := c.check(ctx)
	if err == nil {
		c.Log.Info("smoke check passed", zap.String("function", c.FunctionName))
		return nil
	}

	c.Log.Error("smoke check failed", zap.String("function", c.FunctionName), zap.Error(err))
	c.alert(ctx, err)
	return err
}

func (c *Checker) check(ctx context.Context) error {
	out, err := c.Lambda.Invoke(ctx, &lambdasvc.InvokeInput{
		FunctionName:   aws.String(c.FunctionName),
		InvocationType: lambdatypes.InvocationTypeRequestResponse,
		Payload:        []byte("{}"),
	})
	if err != nil {
		return fmt.Errorf("invoke %s: %w", c.FunctionName, err)
	}

	if fe := aws.ToString(out.FunctionError); fe != "" {
		return fmt.Errorf("%w: %s: %s", ErrFunctionError, fe, strings.TrimSpace(string(out.Payload)))
	}

	if err := handlers.CheckResponse(out.Payload); err != nil {
		return fmt.Errorf("check %s response: %w", c.FunctionName, err)
	}
	return nil
}

func (c *Checker) alert(ctx context.Context, cause error) {
	if c.SNS == nil || strings.TrimSpace(c.AlertTopicArn) == "" {
		return
	}

	subject := fmt.Sprintf("Smoke check failed: %s", c.FunctionName)
	// SNS subjects are capped at 100 characters.
	if len(subject) > 100 {
		subject = subject[:100]
	}
	message := fmt.Sprintf("Function: %s\nTime: %s\nError: %v\n",
		c.FunctionName, c.now().UTC().Format(time.RFC3339), cause)

	_, err := c.SNS.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(c.AlertTopicArn),
		Subject:  aws.String(subject),
		Message:  aws.String(message),
	})
	if err != nil {
		c.Log.Warn("publish smoke alert failed", zap.String("topic", c.AlertTopicArn), zap.Error(err))
	}
}
