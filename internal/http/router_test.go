package http_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"
	"golang.org/x/crypto/bcrypt"

	"github.com/MrJamesThe3rd/expensight/internal/auth"
	"github.com/MrJamesThe3rd/expensight/internal/expense"
	"github.com/MrJamesThe3rd/expensight/internal/fx"
	apphttp "github.com/MrJamesThe3rd/expensight/internal/http"
	authHTTP "github.com/MrJamesThe3rd/expensight/internal/http/auth"
	"github.com/MrJamesThe3rd/expensight/internal/http/authn"
	dashboardHTTP "github.com/MrJamesThe3rd/expensight/internal/http/dashboard"
	expenseHTTP "github.com/MrJamesThe3rd/expensight/internal/http/expense"
	receiptHTTP "github.com/MrJamesThe3rd/expensight/internal/http/receipt"
	reconcileHTTP "github.com/MrJamesThe3rd/expensight/internal/http/reconcile"
	userHTTP "github.com/MrJamesThe3rd/expensight/internal/http/user"
	"github.com/MrJamesThe3rd/expensight/internal/receipt"
	"github.com/MrJamesThe3rd/expensight/internal/reconcile"
	"github.com/MrJamesThe3rd/expensight/internal/user"
)

var (
	fixedNow = time.Date(2024, 3, 20, 9, 0, 0, 0, time.UTC)
	txDate   = time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC)
	caller   = &user.User{ID: 1, Email: "ana@example.com", BaseCurrency: "INR"}
)

type env struct {
	handler http.Handler
	token   string
	issuer  *auth.TokenIssuer

	users     *user.MockRepository
	expenses  *expense.MockRepository
	recon     *reconcile.MockRepository
	reconTx   *reconcile.MockReconcileTx
	rates     *fx.MockProvider
	uploads   *receipt.MockRepository
	uploadTx  *receipt.MockUploadTx
	extractor *receipt.MockExtractor
}

func newEnv(t *testing.T, withReceipts bool) *env {
	t.Helper()

	ctrl := gomock.NewController(t)
	e := &env{
		issuer:    auth.NewTokenIssuer("test-secret", time.Hour),
		users:     user.NewMockRepository(ctrl),
		expenses:  expense.NewMockRepository(ctrl),
		recon:     reconcile.NewMockRepository(ctrl),
		reconTx:   reconcile.NewMockReconcileTx(ctrl),
		rates:     fx.NewMockProvider(ctrl),
		uploads:   receipt.NewMockRepository(ctrl),
		uploadTx:  receipt.NewMockUploadTx(ctrl),
		extractor: receipt.NewMockExtractor(ctrl),
	}

	userSvc := user.NewService(e.users)
	expenseSvc := expense.NewService(e.expenses, expense.WithClock(func() time.Time { return fixedNow }))
	reconcileSvc := reconcile.NewService(e.recon, expenseSvc, e.rates, nil)

	handlers := apphttp.Handlers{
		Auth:      authHTTP.NewHandler(userSvc, e.issuer),
		User:      userHTTP.NewHandler(userSvc),
		Expense:   expenseHTTP.NewHandler(expenseSvc),
		Reconcile: reconcileHTTP.NewHandler(reconcileSvc),
		Dashboard: dashboardHTTP.NewHandler(expenseSvc),
	}
	if withReceipts {
		handlers.Receipt = receiptHTTP.NewHandler(receipt.NewService(e.uploads, e.extractor, nil))
	}

	e.handler = apphttp.New(handlers, apphttp.Options{
		AllowedOrigins: []string{"http://localhost:5173"},
		Authenticate:   authn.Middleware(e.issuer, userSvc),
	})

	token, err := e.issuer.Issue(caller.ID)
	require.NoError(t, err)
	e.token = token

	e.users.EXPECT().GetUser(gomock.Any(), caller.ID).Return(caller, nil).AnyTimes()

	return e
}

func (e *env) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()

	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")

	if e.token != "" {
		req.Header.Set("Authorization", "Bearer "+e.token)
	}

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)

	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()

	dec := json.NewDecoder(rec.Body)
	dec.UseNumber()

	var body map[string]any
	require.NoError(t, dec.Decode(&body))

	return body
}

func usdExpense() *expense.Expense {
	return &expense.Expense{
		ID:        10,
		UserID:    caller.ID,
		Amount:    decimal.RequireFromString("100.00"),
		Currency:  "USD",
		Category:  "Travel",
		Date:      txDate,
		Status:    expense.StatusPending,
		CreatedAt: txDate,
	}
}

func (e *env) expectPersist() {
	e.recon.EXPECT().BeginReconcile(gomock.Any(), int64(10)).Return(e.reconTx, nil)
	e.reconTx.EXPECT().InsertRecord(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *reconcile.Record) error {
			r.ID = 501
			r.CreatedAt = fixedNow
			return nil
		})
	e.reconTx.EXPECT().UpdateProjection(gomock.Any(), int64(10), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _ int64, converted decimal.Decimal, code string) (*expense.Expense, error) {
			ex := usdExpense()
			ex.Status = expense.StatusReconciled
			ex.ConvertedAmount = &converted
			ex.ConversionCurrency = &code
			return ex, nil
		})
	e.reconTx.EXPECT().Commit().Return(nil)
	e.reconTx.EXPECT().Rollback().Return(nil)
}

func TestReconcile_Success(t *testing.T) {
	e := newEnv(t, false)

	e.expenses.EXPECT().GetExpense(gomock.Any(), int64(10)).Return(usdExpense(), nil)
	e.rates.EXPECT().HistoricalRate(gomock.Any(), "USD", "INR", txDate).
		Return(decimal.RequireFromString("83.12"), nil)
	e.expectPersist()

	rec := e.do(t, http.MethodPost, "/v1/reconcile/", `{"expenseId": 10, "conversionCurrency": "inr"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, json.Number("501"), body["id"])
	assert.Equal(t, "RECONCILED", body["status"])
	assert.Equal(t, json.Number("8312.00"), body["convertedAmount"])
	assert.Equal(t, "USD", body["baseCurrency"])
	assert.Equal(t, "INR", body["conversionCurrency"])
	assert.Equal(t, json.Number("83.12"), body["fxRate"])

	exp, ok := body["expense"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "RECONCILED", exp["status"])
	assert.Equal(t, json.Number("8312.00"), exp["convertedAmount"])
	assert.Equal(t, "INR", exp["conversionCurrency"])
}

func TestReconcile_Errors(t *testing.T) {
	tests := []struct {
		name       string
		body       string
		noToken    bool
		badToken   bool
		setup      func(e *env)
		wantStatus int
		wantDetail string
	}{
		{
			name:       "MissingToken",
			body:       `{"expenseId": 10}`,
			noToken:    true,
			wantStatus: http.StatusUnauthorized,
			wantDetail: "could not validate credentials",
		},
		{
			name:       "BadToken",
			body:       `{"expenseId": 10}`,
			badToken:   true,
			wantStatus: http.StatusUnauthorized,
		},
		{
			name:       "MalformedBody",
			body:       `{"expenseId": "ten"`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name:       "NonPositiveID",
			body:       `{"expenseId": 0}`,
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "NotFound",
			body: `{"expenseId": 10}`,
			setup: func(e *env) {
				e.expenses.EXPECT().GetExpense(gomock.Any(), int64(10)).Return(nil, expense.ErrNotFound)
			},
			wantStatus: http.StatusNotFound,
			wantDetail: "expense not found",
		},
		{
			name: "Forbidden",
			body: `{"expenseId": 10}`,
			setup: func(e *env) {
				other := usdExpense()
				other.UserID = 99
				e.expenses.EXPECT().GetExpense(gomock.Any(), int64(10)).Return(other, nil)
			},
			wantStatus: http.StatusForbidden,
			wantDetail: reconcile.ErrForbidden.Error(),
		},
		{
			name: "UnsupportedCurrency",
			body: `{"expenseId": 10, "conversionCurrency": "BTN"}`,
			setup: func(e *env) {
				e.expenses.EXPECT().GetExpense(gomock.Any(), int64(10)).Return(usdExpense(), nil)
				e.rates.EXPECT().HistoricalRate(gomock.Any(), "USD", "BTN", txDate).
					Return(decimal.Zero, fx.ErrInvalidCurrency)
			},
			wantStatus: http.StatusBadRequest,
		},
		{
			name: "ProviderDown",
			body: `{"expenseId": 10}`,
			setup: func(e *env) {
				e.expenses.EXPECT().GetExpense(gomock.Any(), int64(10)).Return(usdExpense(), nil)
				e.rates.EXPECT().HistoricalRate(gomock.Any(), "USD", "INR", txDate).
					Return(decimal.Zero, fx.ErrProviderUnreachable)
			},
			wantStatus: http.StatusServiceUnavailable,
			wantDetail: fx.ErrProviderUnreachable.Error(),
		},
		{
			name: "CommitFailure",
			body: `{"expenseId": 10}`,
			setup: func(e *env) {
				e.expenses.EXPECT().GetExpense(gomock.Any(), int64(10)).Return(usdExpense(), nil)
				e.rates.EXPECT().HistoricalRate(gomock.Any(), "USD", "INR", txDate).
					Return(decimal.RequireFromString("83.12"), nil)
				e.recon.EXPECT().BeginReconcile(gomock.Any(), int64(10)).Return(e.reconTx, nil)
				e.reconTx.EXPECT().InsertRecord(gomock.Any(), gomock.Any()).Return(nil)
				e.reconTx.EXPECT().UpdateProjection(gomock.Any(), int64(10), gomock.Any(), "INR").Return(usdExpense(), nil)
				e.reconTx.EXPECT().Commit().Return(context.DeadlineExceeded)
				e.reconTx.EXPECT().Rollback().Return(nil)
			},
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, false)

			switch {
			case tt.noToken:
				e.token = ""
			case tt.badToken:
				e.token = "not-a-jwt"
			}

			if tt.setup != nil {
				tt.setup(e)
			}

			rec := e.do(t, http.MethodPost, "/v1/reconcile", tt.body)
			require.Equal(t, tt.wantStatus, rec.Code, rec.Body.String())

			body := decode(t, rec)
			assert.NotEmpty(t, body["detail"])

			if tt.wantDetail != "" {
				assert.Equal(t, tt.wantDetail, body["detail"])
			}
		})
	}
}

func TestReconcile_History(t *testing.T) {
	e := newEnv(t, false)

	converted := decimal.RequireFromString("8312")
	e.recon.EXPECT().ListByUser(gomock.Any(), caller.ID).Return([]*reconcile.Record{
		{
			ID:                 2,
			ExpenseID:          10,
			UserID:             caller.ID,
			BaseCurrency:       "USD",
			ConversionCurrency: "INR",
			FXRate:             decimal.RequireFromString("83.12"),
			ConvertedAmount:    converted,
			CreatedAt:          fixedNow,
			Expense:            usdExpense(),
		},
	}, nil)

	rec := e.do(t, http.MethodGet, "/v1/reconcile/history", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "History fetched successfully", body["message"])

	history, ok := body["reconciliation_history"].([]any)
	require.True(t, ok)
	require.Len(t, history, 1)

	first := history[0].(map[string]any)
	assert.Equal(t, json.Number("8312.00"), first["convertedAmount"])
	assert.NotNil(t, first["expense"])
}

func TestReconcile_HistoryForExpense(t *testing.T) {
	t.Run("WithID", func(t *testing.T) {
		e := newEnv(t, false)
		e.recon.EXPECT().ListByExpense(gomock.Any(), int64(10), caller.ID).Return([]*reconcile.Record{}, nil)

		rec := e.do(t, http.MethodGet, "/v1/reconcile/history_specific?expense_id=10", "")
		require.Equal(t, http.StatusOK, rec.Code)

		body := decode(t, rec)
		assert.Equal(t, "History for expense ID 10 fetched successfully", body["message"])
		assert.Equal(t, []any{}, body["reconciliation_history"])
	})

	t.Run("MissingID", func(t *testing.T) {
		e := newEnv(t, false)

		rec := e.do(t, http.MethodGet, "/v1/reconcile/history_specific", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []any{}, decode(t, rec)["reconciliation_history"])
	})

	t.Run("BadID", func(t *testing.T) {
		e := newEnv(t, false)

		rec := e.do(t, http.MethodGet, "/v1/reconcile/history_specific?expense_id=abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestAuth_Login(t *testing.T) {
	e := newEnv(t, false)
	e.token = ""

	hash, err := bcrypt.GenerateFromPassword([]byte("hunter2"), bcrypt.MinCost)
	require.NoError(t, err)

	stored := *caller
	stored.PasswordHash = string(hash)
	e.users.EXPECT().GetUserByEmail(gomock.Any(), "ana@example.com").Return(&stored, nil).Times(2)

	rec := e.do(t, http.MethodPost, "/v1/auth/login", `{"email": "ana@example.com", "password": "hunter2"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, "bearer", body["token_type"])

	token, ok := body["access_token"].(string)
	require.True(t, ok)

	id, err := e.issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, caller.ID, id)

	rec = e.do(t, http.MethodPost, "/v1/auth/login", `{"email": "ana@example.com", "password": "nope"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Equal(t, user.ErrInvalidCredentials.Error(), decode(t, rec)["detail"])
}

func TestAuthenticate_UserLookup(t *testing.T) {
	tests := []struct {
		name       string
		userID     int64
		lookupErr  error
		wantStatus int
		wantDetail string
	}{
		{
			name:       "DeletedUserIsUnauthorized",
			userID:     41,
			lookupErr:  user.ErrNotFound,
			wantStatus: http.StatusUnauthorized,
			wantDetail: "could not validate credentials",
		},
		{
			name:       "StorageFailureIsServerError",
			userID:     42,
			lookupErr:  errors.New("connection refused"),
			wantStatus: http.StatusInternalServerError,
			wantDetail: "internal server error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e := newEnv(t, false)

			token, err := e.issuer.Issue(tt.userID)
			require.NoError(t, err)
			e.token = token

			e.users.EXPECT().GetUser(gomock.Any(), tt.userID).Return(nil, tt.lookupErr)

			rec := e.do(t, http.MethodGet, "/v1/user/profile", "")
			assert.Equal(t, tt.wantStatus, rec.Code)
			assert.Equal(t, tt.wantDetail, decode(t, rec)["detail"])
		})
	}
}

func TestUser_Profile(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(t, http.MethodGet, "/v1/user/profile/", "")
	require.Equal(t, http.StatusOK, rec.Code)

	body := decode(t, rec)
	assert.Equal(t, "ana@example.com", body["email"])
	assert.Equal(t, "INR", body["baseCurrency"])

	e.users.EXPECT().UpdateBaseCurrency(gomock.Any(), caller.ID, "EUR").
		Return(&user.User{ID: caller.ID, BaseCurrency: "EUR"}, nil)

	rec = e.do(t, http.MethodPatch, "/v1/user/profile/settings/update/", `{"baseCurrency": "eur"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Equal(t, "Base currency updated to EUR successfully.", decode(t, rec)["message"])
}

func TestExpense_CreateAndList(t *testing.T) {
	e := newEnv(t, false)

	e.expenses.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ex *expense.Expense) error {
			ex.ID = 77
			return nil
		})

	rec := e.do(t, http.MethodPost, "/v1/expense/",
		`{"amount": 12.5, "currency": "usd", "category": "Food", "date": "2024-01-15"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	body := decode(t, rec)
	assert.Equal(t, json.Number("77"), body["id"])
	assert.Equal(t, json.Number("12.50"), body["amount"])
	assert.Equal(t, "USD", body["currency"])
	assert.Equal(t, "PENDING", body["status"])
	assert.Equal(t, "2024-01-15", body["date"])
	assert.Nil(t, body["convertedAmount"])

	rec = e.do(t, http.MethodPost, "/v1/expense/", `{"amount": -1, "currency": "usd", "category": "Food"}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	e.expenses.EXPECT().
		ListExpenses(gomock.Any(), expense.ListFilter{UserID: caller.ID, StartDate: &start, Limit: 5}).
		Return([]*expense.Expense{usdExpense()}, nil)

	rec = e.do(t, http.MethodGet, "/v1/expense/?start_date=2024-01-01&limit=5", "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Body.String(), `"currency":"USD"`)
}

func TestDashboard(t *testing.T) {
	e := newEnv(t, false)

	e.expenses.EXPECT().Stats(gomock.Any(), caller.ID, gomock.Any()).
		Return(&expense.Stats{Total: 5, Converted: 2, ThisMonth: 1}, nil)

	rec := e.do(t, http.MethodGet, "/v1/dashboard/stats", "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"totalReceipts":5,"converted":2,"pending":3,"thisMonth":1}`, rec.Body.String())

	e.expenses.EXPECT().MonthlyTotals(gomock.Any(), caller.ID, gomock.Any()).Return(nil, nil)

	rec = e.do(t, http.MethodGet, "/v1/dashboard/trends", "")
	require.Equal(t, http.StatusOK, rec.Code)

	data, ok := decode(t, rec)["data"].([]any)
	require.True(t, ok)
	require.Len(t, data, 6)
	assert.Equal(t, "Oct", data[0].(map[string]any)["name"])
	assert.Equal(t, "Mar", data[5].(map[string]any)["name"])
}

func multipartBody(t *testing.T, filename string, content []byte) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer

	w := multipart.NewWriter(&buf)
	part, err := w.CreateFormFile("file", filename)
	require.NoError(t, err)

	_, err = part.Write(content)
	require.NoError(t, err)
	require.NoError(t, w.Close())

	return &buf, w.FormDataContentType()
}

func TestReceipt_Upload(t *testing.T) {
	e := newEnv(t, true)

	e.extractor.EXPECT().Extract(gomock.Any(), []byte("jpeg-bytes"), "image/jpeg").
		Return(&receipt.Extraction{
			Amount:   decimal.RequireFromString("23.40"),
			Currency: "usd",
			Category: "Food",
			Date:     txDate,
		}, nil)
	e.uploads.EXPECT().BeginUpload(gomock.Any()).Return(e.uploadTx, nil)
	e.uploadTx.EXPECT().CreateExpense(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, ex *expense.Expense) error {
			ex.ID = 12
			ex.Status = expense.StatusPending
			return nil
		})
	e.uploadTx.EXPECT().CreateReceipt(gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, r *receipt.Receipt) error {
			r.ID = 3
			return nil
		})
	e.uploadTx.EXPECT().Commit().Return(nil)
	e.uploadTx.EXPECT().Rollback().Return(nil)

	body, contentType := multipartBody(t, "lunch.jpg", []byte("jpeg-bytes"))

	req := httptest.NewRequest(http.MethodPost, "/v1/receipt/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+e.token)

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

	resp := decode(t, rec)
	assert.Equal(t, "Receipt uploaded and processed successfully.", resp["message"])
	assert.Equal(t, json.Number("12"), resp["receipt"].(map[string]any)["expenseId"])
	assert.Equal(t, "USD", resp["expense"].(map[string]any)["currency"])
}

func TestReceipt_RejectsUnsupportedType(t *testing.T) {
	e := newEnv(t, true)

	body, contentType := multipartBody(t, "notes.txt", []byte("hello"))

	req := httptest.NewRequest(http.MethodPost, "/v1/receipt/upload", body)
	req.Header.Set("Content-Type", contentType)
	req.Header.Set("Authorization", "Bearer "+e.token)

	rec := httptest.NewRecorder()
	e.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestReceipt_NotMountedWithoutExtractor(t *testing.T) {
	e := newEnv(t, false)

	rec := e.do(t, http.MethodPost, "/v1/receipt/upload", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}
