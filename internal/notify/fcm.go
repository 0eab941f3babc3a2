package notify

import (
	"context"
	"fmt"

	firebase "firebase.google.com/go/v4"
	"firebase.google.com/go/v4/messaging"
	"google.golang.org/api/option"
)

// fcmMulticastLimit is the maximum number of tokens FCM accepts per multicast.
const fcmMulticastLimit = 500

// FCMNotifier sends through Firebase Cloud Messaging.
type FCMNotifier struct {
	client *messaging.Client
}

// NewFCMNotifier initialises the Firebase app from a service account file.
func NewFCMNotifier(ctx context.Context, credentialsFile string) (*FCMNotifier, error) {
	app, err := firebase.NewApp(ctx, nil, option.WithCredentialsFile(credentialsFile))
	if err != nil {
		return nil, fmt.Errorf("firebase app: %w", err)
	}
	client, err := app.Messaging(ctx)
	if err != nil {
		return nil, fmt.Errorf("firebase messaging: %w", err)
	}
	return &FCMNotifier{client: client}, nil
}

func (n *FCMNotifier) Send(ctx context.Context, token string, msg Message) error {
	_, err := n.client.Send(ctx, &messaging.Message{
		Token:        token,
		Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
		Data:         msg.Data,
	})
	return err
}

func (n *FCMNotifier) SendMulticast(ctx context.Context, tokens []string, msg Message) (*MulticastReport, error) {
	report := &MulticastReport{}
	for start := 0; start < len(tokens); start += fcmMulticastLimit {
		end := min(start+fcmMulticastLimit, len(tokens))
		batch := tokens[start:end]

		resp, err := n.client.SendEachForMulticast(ctx, &messaging.MulticastMessage{
			Tokens:       batch,
			Notification: &messaging.Notification{Title: msg.Title, Body: msg.Body},
			Data:         msg.Data,
		})
		if err != nil {
			return nil, err
		}

		report.SuccessCount += resp.SuccessCount
		report.FailureCount += resp.FailureCount
		for i, r := range resp.Responses {
			if !r.Success {
				report.FailedTokens = append(report.FailedTokens, batch[i])
			}
		}
	}
	return report, nil
}
