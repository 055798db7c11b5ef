package notify

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/sns"
	"github.com/aws/aws-sdk-go-v2/service/sns/types"
)

// SNSPublisher is the subset of the SNS client used here.
type SNSPublisher interface {
	Publish(ctx context.Context, params *sns.PublishInput, optFns ...func(*sns.Options)) (*sns.PublishOutput, error)
}

// SNSNotifier publishes messages to a topic. A downstream subscriber
// (e.g. a mailer lambda) routes on the recipient attribute.
type SNSNotifier struct {
	client   SNSPublisher
	topicARN string
}

// NewSNSNotifier creates an SNSNotifier.
func NewSNSNotifier(client SNSPublisher, topicARN string) *SNSNotifier {
	return &SNSNotifier{client: client, topicARN: topicARN}
}

// Deliver publishes msg to the topic.
func (n *SNSNotifier) Deliver(ctx context.Context, msg Message) (Receipt, error) {
	out, err := n.client.Publish(ctx, &sns.PublishInput{
		TopicArn: aws.String(n.topicARN),
		Subject:  aws.String(msg.Subject),
		Message:  aws.String(msg.Body),
		MessageAttributes: map[string]types.MessageAttributeValue{
			"recipient": {DataType: aws.String("String"), StringValue: aws.String(msg.To)},
			"sender":    {DataType: aws.String("String"), StringValue: aws.String(msg.From)},
		},
	})
	if err != nil {
		return Receipt{}, fmt.Errorf("sns publish: %w", err)
	}

	id := aws.ToString(out.MessageId)
	if id == "" {
		id = newReceiptID()
	}
	return Receipt{ID: id, Channel: ChannelSNS}, nil
}
