// Package notify sends transactional email to vendors, currently the shelf
// booking expiry warnings produced by the sweeper.
package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sesv2"
	"github.com/aws/aws-sdk-go-v2/service/sesv2/types"
)

// ServiceInterface defines the contract for the notifier consumed by the
// shelf booking service.
type ServiceInterface interface {
	SendBookingExpiryWarning(ctx context.Context, toEmail, microhubName string, endDate time.Time) error
}

// SESService sends email through AWS SES v2.
type SESService struct {
	client *sesv2.Client
	from   string
}

// NewSESService builds a notifier from the ambient AWS credential chain.
func NewSESService(ctx context.Context, region, fromEmail string) (*SESService, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("notify.NewSESService: load aws config: %w", err)
	}
	return &SESService{client: sesv2.NewFromConfig(cfg), from: fromEmail}, nil
}

// SendBookingExpiryWarning emails a vendor that one of their shelf bookings
// ends within the warning window.
func (s *SESService) SendBookingExpiryWarning(ctx context.Context, toEmail, microhubName string, endDate time.Time) error {
	subject := "Your shelf booking is expiring soon"
	body := fmt.Sprintf(
		"Your shelf booking at %s expires on %s. Renew it to keep your shelf space.",
		microhubName, endDate.Format("2 Jan 2006"),
	)

	_, err := s.client.SendEmail(ctx, &sesv2.SendEmailInput{
		FromEmailAddress: aws.String(s.from),
		Destination:      &types.Destination{ToAddresses: []string{toEmail}},
		Content: &types.EmailContent{
			Simple: &types.Message{
				Subject: &types.Content{Data: aws.String(subject)},
				Body:    &types.Body{Text: &types.Content{Data: aws.String(body)}},
			},
		},
	})
	if err != nil {
		return fmt.Errorf("notify.SendBookingExpiryWarning: %w", err)
	}
	return nil
}
