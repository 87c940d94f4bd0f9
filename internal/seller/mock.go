package seller

import (
	"context"
	"io"

	"github.com/stretchr/testify/mock"
)

// MockGateway is a Gateway whose answers are set up with On.
type MockGateway struct {
	mock.Mock
}

var _ Gateway = (*MockGateway)(nil)

func (m *MockGateway) result(args mock.Arguments) (*Result, error) {
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Result), args.Error(1)
}

func (m *MockGateway) PlaceOrder(ctx context.Context, payload any, token string) (*Result, error) {
	return m.result(m.Called(ctx, payload, token))
}

func (m *MockGateway) CancelOrder(ctx context.Context, payload any, token string) (*Result, error) {
	return m.result(m.Called(ctx, payload, token))
}

func (m *MockGateway) MoveOrder(ctx context.Context, payload any, token string) (*Result, error) {
	return m.result(m.Called(ctx, payload, token))
}

func (m *MockGateway) DeinstallOrder(ctx context.Context, payload any, token string) (*Result, error) {
	return m.result(m.Called(ctx, payload, token))
}

func (m *MockGateway) GetOrderDetails(ctx context.Context, payload any, token string) (*Result, error) {
	return m.result(m.Called(ctx, payload, token))
}

func (m *MockGateway) ListOrders(ctx context.Context, payload any, token string) (*Result, error) {
	return m.result(m.Called(ctx, payload, token))
}

func (m *MockGateway) UploadAttachment(ctx context.Context, filename string, content io.Reader, token string) (*Result, error) {
	return m.result(m.Called(ctx, filename, content, token))
}

func (m *MockGateway) DeleteAttachment(ctx context.Context, attachmentID, token string) (*Result, error) {
	return m.result(m.Called(ctx, attachmentID, token))
}
