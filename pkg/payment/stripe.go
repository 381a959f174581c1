package payment

import (
	"github.com/stripe/stripe-go/v74"
	"github.com/stripe/stripe-go/v74/paymentintent"
)

type StripeService struct {
	secretKey string
}

func NewStripeService(secretKey string) *StripeService {
	stripe.Key = secretKey
	return &StripeService{
		secretKey: secretKey,
	}
}

// CreatePaymentIntent creates an intent for a credit-package purchase. The
// metadata carries everything the webhook needs to fulfill the purchase
// without a second lookup.
func (s *StripeService) CreatePaymentIntent(amountCents int64, userEmail string, metadata map[string]string) (*stripe.PaymentIntent, error) {
	params := &stripe.PaymentIntentParams{
		Amount:       stripe.Int64(amountCents),
		Currency:     stripe.String(string(stripe.CurrencyUSD)),
		ReceiptEmail: stripe.String(userEmail),
		AutomaticPaymentMethods: &stripe.PaymentIntentAutomaticPaymentMethodsParams{
			Enabled: stripe.Bool(true),
		},
	}

	for k, v := range metadata {
		params.AddMetadata(k, v)
	}

	return paymentintent.New(params)
}
