package service

import (
	"context"
	"encoding/json"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"kimora-storefront/internal/client"
	"kimora-storefront/internal/model"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	// One connection so every session sees the same in-memory database.
	sqlDB.SetMaxOpenConns(1)

	require.NoError(t, db.AutoMigrate(&model.Order{}, &model.OrderItem{}))
	return db
}

// fakeStripeClient implements client.StripeClient for tests. VerifyWebhook
// decodes the event envelope without checking any signature unless verifyErr
// is set.
type fakeStripeClient struct {
	mu sync.Mutex

	verifyErr error

	createSessionIn  *client.CreateSessionInput
	createSessionOut *client.CreateSessionOutput
	createSessionErr error

	sessionInfo    *client.CheckoutSessionInfo
	getSessionErr  error
	lineItems      []*client.LineItem
	listErr        error
	subCustomerID  string
	subErr         error
	subLookups     int
	portalURL      string
	portalErr      error
	portalCustomer string
	portalCalls    int
}

var _ client.StripeClient = (*fakeStripeClient)(nil)

func (f *fakeStripeClient) CreateCheckoutSession(_ context.Context, in *client.CreateSessionInput) (*client.CreateSessionOutput, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createSessionIn = in
	if f.createSessionErr != nil {
		return nil, f.createSessionErr
	}
	if f.createSessionOut != nil {
		return f.createSessionOut, nil
	}
	return &client.CreateSessionOutput{SessionID: "cs_test", URL: "https://checkout.stripe.test/cs_test"}, nil
}

func (f *fakeStripeClient) GetCheckoutSession(_ context.Context, sessionID string) (*client.CheckoutSessionInfo, error) {
	if f.getSessionErr != nil {
		return nil, f.getSessionErr
	}
	if f.sessionInfo != nil {
		return f.sessionInfo, nil
	}
	return &client.CheckoutSessionInfo{ID: sessionID}, nil
}

func (f *fakeStripeClient) ListLineItems(_ context.Context, _ string) ([]*client.LineItem, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.listErr != nil {
		return nil, f.listErr
	}
	return f.lineItems, nil
}

func (f *fakeStripeClient) SubscriptionCustomerID(_ context.Context, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.subLookups++
	if f.subErr != nil {
		return "", f.subErr
	}
	return f.subCustomerID, nil
}

func (f *fakeStripeClient) CreateBillingPortalSession(_ context.Context, customerID, _ string) (string, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.portalCalls++
	f.portalCustomer = customerID
	if f.portalErr != nil {
		return "", f.portalErr
	}
	return f.portalURL, nil
}

func (f *fakeStripeClient) VerifyWebhook(payload []byte, _ string) (*model.StripeEvent, error) {
	if f.verifyErr != nil {
		return nil, f.verifyErr
	}
	var envelope struct {
		ID   string `json:"id"`
		Type string `json:"type"`
		Data struct {
			Object json.RawMessage `json:"object"`
		} `json:"data"`
	}
	if err := json.Unmarshal(payload, &envelope); err != nil {
		return nil, err
	}
	return &model.StripeEvent{ID: envelope.ID, Type: envelope.Type, Data: envelope.Data.Object}, nil
}

// fakeMailer records sends.
type fakeMailer struct {
	mu    sync.Mutex
	sends []sentMail
}

type sentMail struct {
	to, subject, text, html string
}

func (m *fakeMailer) Send(to, subject, text, html string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.sends = append(m.sends, sentMail{to: to, subject: subject, text: text, html: html})
	return nil
}
