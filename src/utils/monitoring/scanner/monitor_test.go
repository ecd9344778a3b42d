package monitor_scanner

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

func TestMonitorTestSuite(t *testing.T) {
	suite.Run(t, new(MonitorTestSuite))
}

type MonitorTestSuite struct {
	suite.Suite
	monitor *Monitor
	router  *gin.Engine
}

func (s *MonitorTestSuite) SetupTest() {
	gin.SetMode(gin.TestMode)
	s.monitor = NewMonitor().WithHealthThreshold(120 * time.Second)
	s.router = gin.New()
	s.router.GET("/health", s.monitor.OnGetHealth)
	s.router.GET("/state", s.monitor.OnGetState)
}

func (s *MonitorTestSuite) get(path string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, path, nil)
	s.router.ServeHTTP(w, req)
	return w
}

func (s *MonitorTestSuite) TestHealthyAfterStart() {
	require.True(s.T(), s.monitor.IsOK())
	require.Equal(s.T(), http.StatusOK, s.get("/health").Code)
}

func (s *MonitorTestSuite) TestUnhealthyWithoutSuccessfulCycle() {
	s.monitor.Report.Run.State.StartTimestamp.Store(time.Now().Add(-10 * time.Minute).Unix())
	require.False(s.T(), s.monitor.IsOK())
	require.Equal(s.T(), http.StatusServiceUnavailable, s.get("/health").Code)

	s.monitor.Report.Scanner.State.LastSuccessfulCycleTimestamp.Store(time.Now().Unix())
	require.True(s.T(), s.monitor.IsOK())
}

func (s *MonitorTestSuite) TestStaleSuccess() {
	s.monitor.Report.Scanner.State.LastSuccessfulCycleTimestamp.Store(time.Now().Add(-121 * time.Second).Unix())
	require.False(s.T(), s.monitor.IsOK())

	// Settlement failures don't matter
	s.monitor.Report.Scanner.State.LastSuccessfulCycleTimestamp.Store(time.Now().Unix())
	s.monitor.Report.Settlement.Errors.SubmissionFailures.Add(10)
	require.True(s.T(), s.monitor.IsOK())
}

func (s *MonitorTestSuite) TestState() {
	s.monitor.Report.Scanner.State.LatestHeight.Store(120)
	s.monitor.Report.Scanner.State.LastConfirmedHeight.Store(100)

	w := s.get("/state")
	require.Equal(s.T(), http.StatusOK, w.Code)

	var body map[string]map[string]map[string]interface{}
	require.Nil(s.T(), json.Unmarshal(w.Body.Bytes(), &body))
	require.Equal(s.T(), float64(20), body["scanner"]["state"]["blocks_behind"])
}

func (s *MonitorTestSuite) TestSpeed() {
	s.monitor.Report.Scanner.State.BlocksScanned.Store(10)
	require.Nil(s.T(), s.monitor.monitorBlocks())
	s.monitor.Report.Scanner.State.BlocksScanned.Store(30)
	require.Nil(s.T(), s.monitor.monitorBlocks())

	require.Equal(s.T(), float64(10), s.monitor.Report.Scanner.State.AverageBlocksProcessedPerMinute.Load())
}

func (s *MonitorTestSuite) TestCollector() {
	registry := prometheus.NewRegistry()
	require.Nil(s.T(), registry.Register(s.monitor.GetPrometheusCollector()))

	families, err := registry.Gather()
	require.Nil(s.T(), err)
	require.NotEmpty(s.T(), families)
}
