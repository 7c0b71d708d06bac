package senders

import (
	"context"
	"net/http"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/ses"
	"github.com/aws/aws-sdk-go-v2/service/ses/types"
)

type SESAPI interface {
	SendEmail(ctx context.Context, params *ses.SendEmailInput, optFns ...func(*ses.Options)) (*ses.SendEmailOutput, error)
}

type sesSender struct {
	base

	once   sync.Once
	client SESAPI
	err    error
}

func (e *sesSender) sesClient(ctx context.Context) (SESAPI, error) {
	e.once.Do(func() {
		if e.client != nil {
			return
		}
		awsCfg, err := awsconfig.LoadDefaultConfig(ctx,
			awsconfig.WithRegion(e.cfg.SES.Region),
			awsconfig.WithHTTPClient(&http.Client{Transport: e.transport}),
		)
		if err != nil {
			e.err = err
			return
		}
		e.client = ses.NewFromConfig(awsCfg)
	})
	return e.client, e.err
}

func (e *sesSender) Send(ctx context.Context, subject, body, recipient string) (string, error) {
	client, err := e.sesClient(ctx)
	if err != nil {
		return "", err
	}

	out, err := client.SendEmail(ctx, &ses.SendEmailInput{
		Source: aws.String(e.cfg.SES.SenderFrom),
		Destination: &types.Destination{
			ToAddresses: []string{recipient},
		},
		Message: &types.Message{
			Subject: &types.Content{Data: aws.String(subject)},
			Body: &types.Body{
				Html: &types.Content{Data: aws.String(body)},
			},
		},
	})
	if err != nil {
		return "", err
	}
	return aws.ToString(out.MessageId), nil
}
