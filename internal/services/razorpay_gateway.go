package services

import (
	"context"
	"errors"
	"log"

	"github.com/google/uuid"
	razorpay "github.com/razorpay/razorpay-go"
)

// RazorpayGateway creates orders through the Razorpay Orders API.
type RazorpayGateway struct {
	client *razorpay.Client
}

func NewRazorpayGateway(keyID, keySecret string) *RazorpayGateway {
	return &RazorpayGateway{client: razorpay.NewClient(keyID, keySecret)}
}

func (g *RazorpayGateway) CreateOrder(ctx context.Context, req OrderRequest) (string, error) {
	notes := make(map[string]interface{}, len(req.Notes))
	for k, v := range req.Notes {
		notes[k] = v
	}
	data := map[string]interface{}{
		"amount":   req.AmountMinor,
		"currency": req.Currency,
		"receipt":  req.Receipt,
		"notes":    notes,
	}

	body, err := g.client.Order.Create(data, nil)
	if err != nil {
		return "", err
	}
	id, _ := body["id"].(string)
	if id == "" {
		return "", errors.New("razorpay: order response has no id")
	}
	return id, nil
}

// StubGateway issues local order ids when no gateway keys are configured.
type StubGateway struct{}

func (StubGateway) CreateOrder(_ context.Context, req OrderRequest) (string, error) {
	id := "order_stub_" + uuid.NewString()
	log.Printf("[Payment] stub order %s for %s (%d %s)", id, req.Receipt, req.AmountMinor, req.Currency)
	return id, nil
}
