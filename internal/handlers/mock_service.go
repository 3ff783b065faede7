package handlers

import (
	"context"
	"net/http"
	"time"

	"heating_bridge/internal/models"
	"heating_bridge/internal/service"

	"github.com/gin-gonic/gin"
)

// ---- Service Mocks ----

type mockAuth struct {
	signUpID      int
	signUpErr     error
	genTokenToken string
	genTokenErr   error
	parseID       int
	parseErr      error

	lastSignUpUsername string
	lastSignUpPassword string
	lastGenUsername    string
	lastGenPassword    string
	lastParseToken     string
}

func (m *mockAuth) SignUp(username, password string) (int, error) {
	m.lastSignUpUsername = username
	m.lastSignUpPassword = password
	return m.signUpID, m.signUpErr
}
func (m *mockAuth) GenerateToken(username, password string) (string, error) {
	m.lastGenUsername = username
	m.lastGenPassword = password
	return m.genTokenToken, m.genTokenErr
}
func (m *mockAuth) ParseToken(token string) (int, error) {
	m.lastParseToken = token
	return m.parseID, m.parseErr
}

type mockHeating struct {
	report    models.OperationReport
	applyErr  error
	snap      models.StateSnapshot
	statusErr error

	applyCalls  int
	statusCalls int
	lastReq     models.ModeRequest
}

func (m *mockHeating) ApplyMode(ctx context.Context, req models.ModeRequest) (models.OperationReport, error) {
	m.applyCalls++
	m.lastReq = req
	return m.report, m.applyErr
}
func (m *mockHeating) GetStatus(ctx context.Context) (models.StateSnapshot, error) {
	m.statusCalls++
	return m.snap, m.statusErr
}

type mockTelemetry struct {
	recordErr   error
	recordCalls int
	lastSnap    models.StateSnapshot
}

func (m *mockTelemetry) Record(ctx context.Context, snap models.StateSnapshot) error {
	m.recordCalls++
	m.lastSnap = snap
	return m.recordErr
}
func (m *mockTelemetry) Run(ctx context.Context, interval time.Duration) {}

type mockReporting struct {
	report   models.WeeklyReport
	err      error
	lastRoom string
}

func (m *mockReporting) Weekly(ctx context.Context, room string) (models.WeeklyReport, error) {
	m.lastRoom = room
	return m.report, m.err
}

type mockOperationLog struct {
	resp     []models.OperationEvent
	err      error
	lastFrom time.Time
	lastTo   time.Time
	lastType string
}

func (m *mockOperationLog) List(ctx context.Context, f service.LogFilter) ([]models.OperationEvent, error) {
	m.lastFrom = f.From
	m.lastTo = f.To
	m.lastType = f.Type
	return m.resp, m.err
}

// ---- Shared Test Helpers ----

func newTestRouter(s *service.Service) *gin.Engine {
	h := NewHandler(s, nil)
	gin.SetMode(gin.TestMode)
	return h.InitRoutes()
}

func authHeader(token string) http.Header {
	h := http.Header{}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
	return h
}
