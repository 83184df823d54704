package sns

import (
	"context"
	"fmt"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/go-event-bus/internal/config"
	"github.com/go-event-bus/internal/domain"
)

// Publisher is the subset of the SNS client both senders use.
type Publisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// PhoneResolver maps a user id to an SMS-capable phone number.
type PhoneResolver interface {
	PhoneNumber(ctx context.Context, userID string) (string, error)
}

// PushTargetResolver maps a user id to an SNS platform endpoint ARN.
type PushTargetResolver interface {
	PushTarget(ctx context.Context, userID string) (string, error)
}

// NewClient builds the SNS client shared by the sms and push senders.
func NewClient(cfg *config.Config) (*sns.Client, error) {
	awsCfg, err := awsconfig.LoadDefaultConfig(context.Background(),
		awsconfig.WithRegion(cfg.SNSRegion),
	)
	if err != nil {
		return nil, err
	}
	return sns.NewFromConfig(awsCfg), nil
}

// SMSSender delivers notifications over the sms channel.
type SMSSender struct {
	client   Publisher
	resolver PhoneResolver
}

func NewSMSSender(client Publisher, r PhoneResolver) *SMSSender {
	return &SMSSender{client: client, resolver: r}
}

func (s *SMSSender) Send(ctx context.Context, n *domain.Notification) error {
	to, err := s.resolver.PhoneNumber(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("resolve phone for %s: %w", n.UserID, err)
	}
	msg := n.Title
	if n.Body != "" {
		msg = fmt.Sprintf("%s: %s", n.Title, n.Body)
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		PhoneNumber: &to,
		Message:     &msg,
	})
	return err
}

// PushSender delivers notifications to mobile devices through an SNS
// platform endpoint.
type PushSender struct {
	client   Publisher
	resolver PushTargetResolver
}

func NewPushSender(client Publisher, r PushTargetResolver) *PushSender {
	return &PushSender{client: client, resolver: r}
}

func (s *PushSender) Send(ctx context.Context, n *domain.Notification) error {
	target, err := s.resolver.PushTarget(ctx, n.UserID)
	if err != nil {
		return fmt.Errorf("resolve push target for %s: %w", n.UserID, err)
	}
	msg := n.Body
	if msg == "" {
		msg = n.Title
	}
	_, err = s.client.Publish(ctx, &sns.PublishInput{
		TargetArn: &target,
		Message:   &msg,
	})
	return err
}
