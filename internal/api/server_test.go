package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/goinginblind/lso-gateway/internal/apierror"
	"github.com/goinginblind/lso-gateway/internal/config"
	"github.com/goinginblind/lso-gateway/internal/domain"
	"github.com/goinginblind/lso-gateway/internal/fieldmap"
	"github.com/goinginblind/lso-gateway/internal/pkg/logger"
	"github.com/goinginblind/lso-gateway/internal/seller"
	"github.com/goinginblind/lso-gateway/internal/service"
	"github.com/goinginblind/lso-gateway/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

var fixedNow = time.Date(2026, 10, 16, 12, 0, 0, 0, time.UTC)

type healthStub bool

func (h healthStub) IsHealthy() bool { return bool(h) }

type testEnv struct {
	srv   *Server
	gw    *seller.MockGateway
	repos *service.Repositories
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	repos := service.NewRepositories(store.NewMemoryStore())
	gw := new(seller.MockGateway)
	log := logger.NewMockLogger()
	ids := 0
	nextID := func() string {
		ids++
		return fmt.Sprintf("ID-%d", ids)
	}
	lc := service.NewLifecycle(repos, gw, fieldmap.NewMapper(fieldmap.DefaultDictionary()), config.DefaultTemplates(), log,
		service.WithClock(func() time.Time { return fixedNow }),
		service.WithIDGenerator(nextID),
	)
	hub := service.NewHub(repos, log, service.WithIDGenerator(nextID))
	srv := NewServer(lc, hub, service.NewNotifier(repos, log), healthStub(true), log, config.HTTPServerConfig{})
	t.Cleanup(func() { gw.AssertExpectations(t) })
	return &testEnv{srv: srv, gw: gw, repos: repos}
}

func (e *testEnv) do(method, target string, body any, token string) *httptest.ResponseRecorder {
	var r io.Reader
	switch b := body.(type) {
	case nil:
	case string:
		r = bytes.NewBufferString(b)
	default:
		raw, _ := json.Marshal(b)
		r = bytes.NewReader(raw)
	}
	req := httptest.NewRequest(method, target, r)
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rr := httptest.NewRecorder()
	e.srv.Handler().ServeHTTP(rr, req)
	return rr
}

func (e *testEnv) seedOrder(t *testing.T, id string) {
	t.Helper()
	o := order(fixedNow.Add(72 * time.Hour))
	o.ID = id
	o.Href = patchOrderPath + "/" + id
	o.OrderDate = &fixedNow
	o.State = domain.OrderAcknowledged
	o.BuyerID, o.SellerID = "ONS", "EQX"
	o.ProductOrderItem[0].State = domain.ItemAcknowledged
	o.ProductOrderItem[0].PreviousState = domain.ItemAcknowledged
	require.NoError(t, e.repos.Orders.Put(context.Background(), id, o))
}

func order(due time.Time) *domain.ProductOrder {
	iaid := "IA-1"
	return &domain.ProductOrder{
		ExternalID: "BUYER-1",
		RelatedContactInformation: []domain.RelatedContactInformation{
			{Name: "Ann", Number: "+1-555-0101", Role: domain.ContactRoleOrder},
		},
		ProductOrderItem: []domain.ProductOrderItem{{
			Action:                  domain.ActionAdd,
			ID:                      "1",
			BillingAccount:          &domain.BillingAccountRef{ID: "BA-1"},
			RequestedCompletionDate: &due,
			RequestedItemTerm: &domain.ItemTerm{
				Name:            "12 months",
				Duration:        domain.Duration{Amount: 12, Units: "calendarMonths"},
				EndOfTermAction: domain.EndOfTermAutoDisconnect,
			},
			Product: &domain.Product{
				ProductConfiguration: map[string]any{"@type": "crossConnect"},
				ProductOffering:      &domain.ProductOfferingRef{ID: "CC"},
			},
		}},
		TransactionData: &domain.TransactionData{
			SourceFields: &domain.SourceFields{
				IAID: &iaid,
				ItemDetails: []domain.ItemDetails{{
					InventoryItemName: domain.CrossConnectItemName,
					CrossConnectDetails: &domain.CrossConnectDetails{
						CCASideDetails: domain.ASideDetails{CCAccountID: "ACC", CCPortID: "P1"},
						CCZSideDetails: domain.ZSideDetails{CCZSideProviderName: "Carrier"},
					},
					CCDeinstallDetails: &domain.DeinstallDetails{CCDeinstallID: "D1", CCRemovalDate: "2026-11-01"},
				}},
			},
		},
	}
}

func decodeEnvelope(t *testing.T, rr *httptest.ResponseRecorder, status int) apierror.Error {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	assert.Equal(t, contentType, rr.Header().Get("Content-Type"))
	var got apierror.Error
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	return got
}

func decodeBody(t *testing.T, rr *httptest.ResponseRecorder, status int) map[string]any {
	t.Helper()
	require.Equal(t, status, rr.Code, rr.Body.String())
	var got map[string]any
	require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &got))
	return got
}

const party = "buyerId=ONS&sellerId=EQX"

func TestHealthCheck(t *testing.T) {
	tests := []struct {
		name    string
		checker HealthChecker
		status  int
		message string
	}{
		{"no checker", nil, http.StatusOK, "Server is up"},
		{"store reachable", healthStub(true), http.StatusOK, "Server is up"},
		{"store down", healthStub(false), http.StatusServiceUnavailable, "Store is unreachable"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := NewServer(nil, nil, nil, tt.checker, logger.NewMockLogger(), config.HTTPServerConfig{})
			rr := httptest.NewRecorder()
			srv.Handler().ServeHTTP(rr, httptest.NewRequest(http.MethodGet, healthPath, nil))

			body := decodeBody(t, rr, tt.status)
			detail := body["detail"].(map[string]any)
			assert.Equal(t, tt.message, detail["message"])
			assert.EqualValues(t, tt.status, detail["statusCode"])
		})
	}
}

func TestCreateOrder(t *testing.T) {
	target := orderPath + "?action=add&" + party

	t.Run("accepted", func(t *testing.T) {
		e := newTestEnv(t)
		e.gw.On("PlaceOrder", mock.Anything, mock.Anything, "tok").Return(&seller.Result{
			StatusCode: http.StatusCreated,
			Body:       []byte(`{"lattice_transaction_id":"T1"}`),
		}, nil).Once()

		body := decodeBody(t, e.do(http.MethodPost, target, order(fixedNow.Add(72*time.Hour)), "tok"), http.StatusCreated)

		assert.Equal(t, "T1", body["id"])
		assert.Equal(t, "acknowledged", body["state"])
		assert.NotContains(t, body, "buyerId")
		assert.NotContains(t, body, "transactionData")
	})

	t.Run("no token", func(t *testing.T) {
		e := newTestEnv(t)
		got := decodeEnvelope(t, e.do(http.MethodPost, target, order(fixedNow.Add(72*time.Hour)), ""), http.StatusUnauthorized)
		assert.Equal(t, apierror.MissingCredentials, got.Code)
	})

	t.Run("malformed body", func(t *testing.T) {
		e := newTestEnv(t)
		got := decodeEnvelope(t, e.do(http.MethodPost, target, `{"productOrderItem":`, "tok"), http.StatusBadRequest)
		assert.Equal(t, apierror.InvalidBody, got.Code)
	})

	t.Run("unknown action", func(t *testing.T) {
		e := newTestEnv(t)
		got := decodeEnvelope(t, e.do(http.MethodPost, orderPath+"?action=replace&"+party, order(fixedNow), "tok"),
			http.StatusUnprocessableEntity)
		assert.Equal(t, "action", got.PropertyPath)
	})

	t.Run("seller unreachable", func(t *testing.T) {
		e := newTestEnv(t)
		e.gw.On("PlaceOrder", mock.Anything, mock.Anything, "tok").Return(nil, seller.ErrUpstreamUnavailable).Once()

		got := decodeEnvelope(t, e.do(http.MethodPost, target, order(fixedNow.Add(72*time.Hour)), "tok"), http.StatusServiceUnavailable)
		assert.Equal(t, apierror.InternalError, got.Code)
	})
}

func TestGetOrder(t *testing.T) {
	e := newTestEnv(t)
	e.seedOrder(t, "T1")
	e.gw.On("GetOrderDetails", mock.Anything, mock.Anything, "tok").Return(&seller.Result{
		StatusCode: http.StatusOK,
		Body:       []byte(`{"lattice_status":"PROVISIONING"}`),
	}, nil).Once()

	body := decodeBody(t, e.do(http.MethodGet, orderPath+"/T1?"+party, nil, "tok"), http.StatusOK)
	assert.Equal(t, "T1", body["id"])
	assert.Equal(t, "PROVISIONING", body["lattice_status"])

	got := decodeEnvelope(t, e.do(http.MethodGet, orderPath+"/T1", nil, "tok"), http.StatusBadRequest)
	assert.Equal(t, apierror.MissingQueryValue, got.Code)
}

func TestListOrders(t *testing.T) {
	t.Run("rows", func(t *testing.T) {
		e := newTestEnv(t)
		e.seedOrder(t, "T1")
		e.gw.On("ListOrders", mock.Anything, mock.Anything, "tok").Return(&seller.Result{
			StatusCode: http.StatusOK,
			Body:       []byte(`{"data":[{"lattice_status":"A"}]}`),
		}, nil).Once()

		rr := e.do(http.MethodGet, orderPath+"?"+party+"&orderDate.gt=2026-10-01T00:00:00.000Z", nil, "tok")

		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())
		var rows []map[string]any
		require.NoError(t, json.Unmarshal(rr.Body.Bytes(), &rows))
		require.Len(t, rows, 1)
		assert.Equal(t, "T1", rows[0]["id"])
	})

	t.Run("item completion dates", func(t *testing.T) {
		e := newTestEnv(t)
		e.seedOrder(t, "T1")
		e.gw.On("ListOrders", mock.Anything, mock.Anything, "tok").Return(&seller.Result{StatusCode: http.StatusOK}, nil).Once()

		rr := e.do(http.MethodGet, orderPath+"?"+party+"&itemRequestedCompletionDate.lt=2026-10-20T00:00:00.000Z", nil, "tok")
		require.Equal(t, http.StatusOK, rr.Code, rr.Body.String())

		got := decodeEnvelope(t, e.do(http.MethodGet, orderPath+"?"+party+"&itemRequestedCompletionDate.gt=2026-10-20T00:00:00.000Z", nil, "tok"), http.StatusNotFound)
		assert.Equal(t, apierror.NotFoundCode, got.Code)
	})

	tests := []struct {
		name   string
		query  string
		status int
		code   apierror.Code
		path   string
	}{
		{"bad date", "&orderDate.gt=2026-10-01", http.StatusUnprocessableEntity, apierror.InvalidFormat, "orderDate.gt"},
		{"bad completion date", "&completionDate.lt=today", http.StatusUnprocessableEntity, apierror.InvalidFormat, "completionDate.lt"},
		{"bad item date", "&itemExpectedCompletionDate.gt=soon", http.StatusUnprocessableEntity, apierror.InvalidFormat, "itemExpectedCompletionDate.gt"},
		{"offset not a number", "&offset=ten", http.StatusBadRequest, apierror.InvalidQuery, "offset"},
		{"negative limit", "&limit=-1", http.StatusBadRequest, apierror.InvalidQuery, "limit"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newTestEnv(t)
			got := decodeEnvelope(t, e.do(http.MethodGet, orderPath+"?"+party+tt.query, nil, "tok"), tt.status)
			assert.Equal(t, tt.code, got.Code)
			assert.Equal(t, tt.path, got.PropertyPath)
		})
	}
}

func TestPatchOrder(t *testing.T) {
	e := newTestEnv(t)
	e.seedOrder(t, "T1")

	body := decodeBody(t, e.do(http.MethodPatch, patchOrderPath+"/T1", `{"projectId":"P-9"}`, ""), http.StatusOK)
	assert.Equal(t, "P-9", body["projectId"])

	got := decodeEnvelope(t, e.do(http.MethodPatch, patchOrderPath+"/T9", `{"projectId":"P-9"}`, ""), http.StatusNotFound)
	assert.Equal(t, apierror.NotFoundCode, got.Code)
}

func TestListener(t *testing.T) {
	e := newTestEnv(t)
	e.seedOrder(t, "T1")
	ev := domain.Event{
		EventID:   "E1",
		EventTime: fixedNow,
		EventType: domain.ProductOrderStateChangeEvent,
		Event:     domain.EventPayload{ID: "T1"},
	}
	target := listenerPath + "/" + string(domain.ProductOrderStateChangeEvent)

	rr := e.do(http.MethodPost, target, ev, "")
	assert.Equal(t, http.StatusNoContent, rr.Code, rr.Body.String())
	assert.Empty(t, rr.Body.String())

	got := decodeEnvelope(t, e.do(http.MethodPost, target, ev, ""), http.StatusRequestTimeout)
	assert.Equal(t, apierror.TimeOutCode, got.Code)

	got = decodeEnvelope(t, e.do(http.MethodPost, listenerPath+"/"+string(domain.ChargeTimeoutEvent), ev, ""), http.StatusNotFound)
	assert.Equal(t, apierror.NotFoundCode, got.Code)

	decodeEnvelope(t, e.do(http.MethodPost, target, "not json", ""), http.StatusBadRequest)
}

func TestHub(t *testing.T) {
	e := newTestEnv(t)

	body := decodeBody(t, e.do(http.MethodPost, hubPath+"?"+party, domain.EventSubscriptionInput{
		Callback: "https://buyer.example/listener",
		Query:    "eventType=productOrderStateChangeEvent",
	}, ""), http.StatusCreated)
	id, _ := body["id"].(string)
	require.NotEmpty(t, id)

	body = decodeBody(t, e.do(http.MethodGet, hubPath+"/"+id+"?"+party, nil, ""), http.StatusOK)
	assert.Equal(t, "https://buyer.example/listener", body["callback"])

	rr := e.do(http.MethodDelete, hubPath+"/"+id+"?"+party, nil, "")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	decodeEnvelope(t, e.do(http.MethodDelete, hubPath+"/"+id+"?"+party, nil, ""), http.StatusNotFound)
}

func TestMoveCrossConnect(t *testing.T) {
	e := newTestEnv(t)
	e.gw.On("MoveOrder", mock.Anything, mock.Anything, "tok").Return(&seller.Result{
		StatusCode: http.StatusCreated,
		Body:       []byte(`{"lattice_transaction_id":"MV1"}`),
	}, nil).Once()

	mv := domain.CrossConnectMove{
		GenericData: &domain.MoveGenericData{SourceID: "ONS", DestinationID: "EQX"},
		TransactionData: &domain.MoveTransactionData{
			SourceFields: &domain.MoveSourceFields{
				IAID: "IA-1",
				ItemDetails: []domain.MoveItemDetails{{
					InventoryItemID:   "INV-1",
					InventoryItemName: domain.CrossConnectItemName,
					CCMoveDetails: &domain.MoveDetails{
						CCMoveType:        "z",
						CCPortID:          "P9",
						CCID:              "XC-1",
						CCMoveRequestDate: "2026-11-02",
					},
				}},
			},
		},
	}
	body := decodeBody(t, e.do(http.MethodPost, movePath, mv, "tok"), http.StatusCreated)
	assert.Equal(t, "MV1", body["latticeTransactionId"])

	decodeEnvelope(t, e.do(http.MethodPost, movePath, mv, ""), http.StatusUnauthorized)
}

func multipartUpload(t *testing.T, field, filename string) (*bytes.Buffer, string) {
	t.Helper()
	buf := new(bytes.Buffer)
	mw := multipart.NewWriter(buf)
	part, err := mw.CreateFormFile(field, filename)
	require.NoError(t, err)
	_, err = part.Write([]byte("%PDF-1.7"))
	require.NoError(t, err)
	require.NoError(t, mw.Close())
	return buf, mw.FormDataContentType()
}

func TestUploadAttachment(t *testing.T) {
	upload := func(e *testEnv, field string) *httptest.ResponseRecorder {
		body, ct := multipartUpload(t, field, "loa.pdf")
		req := httptest.NewRequest(http.MethodPost, uploadPath, body)
		req.Header.Set("Content-Type", ct)
		req.Header.Set("Authorization", "Bearer tok")
		rr := httptest.NewRecorder()
		e.srv.Handler().ServeHTTP(rr, req)
		return rr
	}

	t.Run("stored", func(t *testing.T) {
		e := newTestEnv(t)
		e.gw.On("UploadAttachment", mock.Anything, "loa.pdf", mock.Anything, "tok").Return(&seller.Result{
			StatusCode: http.StatusCreated,
			Body:       []byte(`{"attachment_id":"A1"}`),
		}, nil).Once()

		body := decodeBody(t, upload(e, "file"), http.StatusOK)
		assert.Equal(t, "A1", body["attachmentId"])
	})

	t.Run("no file part", func(t *testing.T) {
		e := newTestEnv(t)
		got := decodeEnvelope(t, upload(e, "document"), http.StatusUnprocessableEntity)
		assert.Equal(t, apierror.MissingProperty, got.Code)
		assert.Equal(t, "file", got.PropertyPath)
	})

	t.Run("not multipart", func(t *testing.T) {
		e := newTestEnv(t)
		decodeEnvelope(t, e.do(http.MethodPost, uploadPath, `{}`, "tok"), http.StatusBadRequest)
	})
}

func TestDeleteAttachment(t *testing.T) {
	e := newTestEnv(t)
	e.gw.On("DeleteAttachment", mock.Anything, "A1", "tok").Return(&seller.Result{StatusCode: http.StatusNoContent}, nil).Once()

	rr := e.do(http.MethodDelete, attachmentDeletePath+"/A1", nil, "tok")
	assert.Equal(t, http.StatusNoContent, rr.Code)

	decodeEnvelope(t, e.do(http.MethodDelete, attachmentDeletePath+"/A1", nil, ""), http.StatusUnauthorized)
}

func Test_toAPIError(t *testing.T) {
	tests := []struct {
		name   string
		err    error
		status int
		code   apierror.Code
	}{
		{"envelope passes through", fmt.Errorf("x: %w", apierror.Conflict("c")), http.StatusConflict, apierror.ConflictCode},
		{"missing record", fmt.Errorf("get: %w", store.ErrNotFound), http.StatusNotFound, apierror.NotFoundCode},
		{"store down", store.ErrConnectionFailed, http.StatusServiceUnavailable, apierror.InternalError},
		{"seller down", fmt.Errorf("place: %w", seller.ErrUpstreamUnavailable), http.StatusServiceUnavailable, apierror.InternalError},
		{"seller slow", seller.ErrUpstreamTimeout, http.StatusGatewayTimeout, apierror.TimeOutCode},
		{"template missing", config.ErrConfigurationMissing, http.StatusInternalServerError, apierror.InternalError},
		{"anything else", io.ErrUnexpectedEOF, http.StatusInternalServerError, apierror.InternalError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := toAPIError(tt.err)
			assert.Equal(t, tt.status, got.Status)
			assert.Equal(t, tt.code, got.Code)
		})
	}
}

func Test_bearerToken(t *testing.T) {
	tests := []struct {
		header string
		want   string
		ok     bool
	}{
		{"Bearer abc", "abc", true},
		{"bearer abc", "abc", true},
		{"Basic abc", "", false},
		{"Bearer ", "", false},
		{"", "", false},
	}
	for _, tt := range tests {
		t.Run(tt.header, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Header.Set("Authorization", tt.header)
			got, err := bearerToken(req)
			if !tt.ok {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
