// Package ses implements a backend that delivers emails through AWS SES v2.
package ses

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	sesv2 "github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"

	"github.com/dmitrymomot/mailroom/pkg/backend"
)

// Name is the registry name of the SES backend.
const Name = "ses"

// Config holds SES connection settings. Empty credentials fall back to the
// default AWS credential chain.
type Config struct {
	Region               string `yaml:"region" env:"SES_REGION"`
	AccessKeyID          string `yaml:"access_key_id" env:"SES_ACCESS_KEY_ID"`
	SecretAccessKey      string `yaml:"secret_access_key" env:"SES_SECRET_ACCESS_KEY"`
	ConfigurationSetName string `yaml:"configuration_set" env:"SES_CONFIGURATION_SET"`
}

// SendEmailAPI is the SES v2 SendEmail operation.
type SendEmailAPI interface {
	SendEmail(ctx context.Context, params *sesv2.SendEmailInput, optFns ...func(*sesv2.Options)) (*sesv2.SendEmailOutput, error)
}

// Transport sends messages with SES.
type Transport struct {
	client    SendEmailAPI
	configSet string
}

// New loads the AWS configuration and creates a transport.
func New(ctx context.Context, cfg Config) (*Transport, error) {
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("ses: load aws config: %w", err)
	}

	return &Transport{
		client:    sesv2.NewFromConfig(awsCfg),
		configSet: cfg.ConfigurationSetName,
	}, nil
}

// NewWithClient creates a transport over a custom client.
func NewWithClient(client SendEmailAPI) *Transport {
	return &Transport{client: client}
}

// Send implements backend.Transport. It returns *backend.Response: queued
// with the SES message id on success, rejected when SES refuses the message.
func (t *Transport) Send(ctx context.Context, msg *backend.Message) (any, error) {
	raw, err := buildRawMessage(msg)
	if err != nil {
		return nil, fmt.Errorf("ses: build raw message: %w", err)
	}

	input := &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(msg.From),
		Destination:      &types.Destination{ToAddresses: msg.To},
		ReplyToAddresses: msg.ReplyTo,
		Content: &types.EmailContent{
			Raw: &types.RawMessage{Data: raw},
		},
		EmailTags: emailTags(msg.Metadata),
	}
	if t.configSet != "" {
		input.ConfigurationSetName = aws.String(t.configSet)
	}

	out, err := t.client.SendEmail(ctx, input)
	if err != nil {
		var rejected *types.MessageRejected
		if errors.As(err, &rejected) {
			return &backend.Response{
				Status:       backend.StatusRejected,
				RejectReason: rejected.ErrorMessage(),
			}, nil
		}
		return nil, fmt.Errorf("ses: send email: %w", err)
	}

	return &backend.Response{
		ID:     aws.ToString(out.MessageId),
		Status: backend.StatusQueued,
	}, nil
}

func emailTags(md map[string]any) []types.MessageTag {
	if len(md) == 0 {
		return nil
	}
	out := make([]types.MessageTag, 0, len(md))
	for name, value := range md {
		out = append(out, types.MessageTag{
			Name:  aws.String(sanitizeTag(name)),
			Value: aws.String(sanitizeTag(fmt.Sprint(value))),
		})
	}
	return out
}

// sanitizeTag keeps the characters SES allows in tag names and values.
func sanitizeTag(s string) string {
	b := []byte(s)
	for i, c := range b {
		switch {
		case c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z', c >= '0' && c <= '9', c == '_', c == '-':
		default:
			b[i] = '_'
		}
	}
	if len(b) == 0 {
		return "_"
	}
	return string(b)
}
