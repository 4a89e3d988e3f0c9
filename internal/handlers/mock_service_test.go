package handlers

import (
	"context"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"time"

	"finance_tracker/internal/models"
	"finance_tracker/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	registerUser *models.User
	registerErr  error
	loginPair    service.TokenPair
	loginErr     error
	refreshPair  service.TokenPair
	refreshErr   error
	logoutErr    error
	parseID      int64
	parseErr     error

	lastUsername string
	lastPassword string
	lastRefresh  string
	lastLogout   string
	logoutCalls  int
	lastParse    string
}

func (m *mockAuth) Register(_ context.Context, username, password string) (*models.User, error) {
	m.lastUsername, m.lastPassword = username, password
	return m.registerUser, m.registerErr
}
func (m *mockAuth) Login(_ context.Context, username, password string) (service.TokenPair, error) {
	m.lastUsername, m.lastPassword = username, password
	return m.loginPair, m.loginErr
}
func (m *mockAuth) Refresh(_ context.Context, token string) (service.TokenPair, error) {
	m.lastRefresh = token
	return m.refreshPair, m.refreshErr
}
func (m *mockAuth) Logout(_ context.Context, token string) error {
	m.logoutCalls++
	m.lastLogout = token
	return m.logoutErr
}
func (m *mockAuth) ParseAccessToken(token string) (int64, error) {
	m.lastParse = token
	return m.parseID, m.parseErr
}

type mockUsers struct {
	user      *models.User
	err       error
	lastID    int64
	lastPatch service.UserPatch
	deleted   int
}

func (m *mockUsers) GetProfile(_ context.Context, userID int64) (*models.User, error) {
	m.lastID = userID
	return m.user, m.err
}
func (m *mockUsers) UpdateProfile(_ context.Context, userID int64, p service.UserPatch) (*models.User, error) {
	m.lastID, m.lastPatch = userID, p
	return m.user, m.err
}
func (m *mockUsers) DeleteAccount(_ context.Context, userID int64) error {
	m.lastID = userID
	m.deleted++
	return m.err
}

type mockCategories struct {
	cat  *models.Category
	list []models.Category
	err  error

	lastUser  int64
	lastID    int64
	lastInput service.CategoryInput
	lastPatch service.CategoryPatch
	lastPage  service.Page
}

func (m *mockCategories) CreateCategory(_ context.Context, userID int64, in service.CategoryInput) (*models.Category, error) {
	m.lastUser, m.lastInput = userID, in
	return m.cat, m.err
}
func (m *mockCategories) ListCategories(_ context.Context, userID int64, page service.Page) ([]models.Category, error) {
	m.lastUser, m.lastPage = userID, page
	return m.list, m.err
}
func (m *mockCategories) GetCategory(_ context.Context, userID, id int64) (*models.Category, error) {
	m.lastUser, m.lastID = userID, id
	return m.cat, m.err
}
func (m *mockCategories) UpdateCategory(_ context.Context, userID, id int64, p service.CategoryPatch) (*models.Category, error) {
	m.lastUser, m.lastID, m.lastPatch = userID, id, p
	return m.cat, m.err
}
func (m *mockCategories) DeleteCategory(_ context.Context, userID, id int64) error {
	m.lastUser, m.lastID = userID, id
	return m.err
}

type mockTransactions struct {
	tx     *models.Transaction
	list   []models.Transaction
	err    error
	sum    models.Summary
	sumErr error

	lastUser   int64
	lastID     int64
	lastInput  service.TransactionInput
	lastPatch  service.TransactionPatch
	lastFilter service.TransactionFilter

	mu       sync.Mutex
	lastFrom time.Time
	lastTo   time.Time
	sumCalls int
}

func (m *mockTransactions) CreateTransaction(_ context.Context, userID int64, in service.TransactionInput) (*models.Transaction, error) {
	m.lastUser, m.lastInput = userID, in
	return m.tx, m.err
}
func (m *mockTransactions) ListTransactions(_ context.Context, userID int64, f service.TransactionFilter) ([]models.Transaction, error) {
	m.lastUser, m.lastFilter = userID, f
	return m.list, m.err
}
func (m *mockTransactions) GetTransaction(_ context.Context, userID, id int64) (*models.Transaction, error) {
	m.lastUser, m.lastID = userID, id
	return m.tx, m.err
}
func (m *mockTransactions) UpdateTransaction(_ context.Context, userID, id int64, p service.TransactionPatch) (*models.Transaction, error) {
	m.lastUser, m.lastID, m.lastPatch = userID, id, p
	return m.tx, m.err
}
func (m *mockTransactions) DeleteTransaction(_ context.Context, userID, id int64) error {
	m.lastUser, m.lastID = userID, id
	return m.err
}
func (m *mockTransactions) Summary(_ context.Context, userID int64, from, to time.Time) (models.Summary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastUser, m.lastFrom, m.lastTo = userID, from, to
	m.sumCalls++
	return m.sum, m.sumErr
}

func (m *mockTransactions) summaryCalls() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sumCalls
}

type mockPortability struct {
	doc       *models.ExportDocument
	exportErr error
	result    *models.ImportResult
	importErr error

	imported []byte
}

func (m *mockPortability) ExportData(_ context.Context, _ int64) (*models.ExportDocument, error) {
	return m.doc, m.exportErr
}
func (m *mockPortability) ImportData(_ context.Context, _ int64, r io.Reader) (*models.ImportResult, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	m.imported = b
	return m.result, m.importErr
}

type mockCurrency struct {
	rates *models.Rates
	conv  *models.Conversion
	err   error

	lastDate    string
	lastConvert service.ConvertParams
}

func (m *mockCurrency) Rates(_ context.Context, date string) (*models.Rates, error) {
	m.lastDate = date
	return m.rates, m.err
}
func (m *mockCurrency) Convert(_ context.Context, p service.ConvertParams) (*models.Conversion, error) {
	m.lastConvert = p
	return m.conv, m.err
}

// ---- Shared Test Helpers ----

const testUserID int64 = 7

func newTestRouter(s *service.Service) *gin.Engine {
	return newTestRouterWith(s, Config{})
}

func newTestRouterWith(s *service.Service, cfg Config) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewHandler(s, nil, cfg)
	return h.InitRoutes()
}

// authedService returns a Service whose access-token check accepts any
// token as testUserID.
func authedService() *service.Service {
	return &service.Service{Authorization: &mockAuth{parseID: testUserID}}
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}

// doRequest serves one request; a non-empty body is sent as JSON.
func doRequest(r http.Handler, method, target, body string, hdr http.Header) *httptest.ResponseRecorder {
	var rd io.Reader
	if body != "" {
		rd = strings.NewReader(body)
	}
	req := httptest.NewRequest(method, target, rd)
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	for k, vs := range hdr {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)
	return w
}
