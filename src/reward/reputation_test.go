package reward

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/warp-contracts/cashback-scanner/src/utils/config"

	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
	"go.uber.org/atomic"
)

func TestReputationTestSuite(t *testing.T) {
	suite.Run(t, new(ReputationTestSuite))
}

type ReputationTestSuite struct {
	suite.Suite
	server *httptest.Server
	calls  atomic.Int32
}

func (s *ReputationTestSuite) SetupTest() {
	s.calls.Store(0)
	s.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.calls.Inc()
		w.Header().Set("Content-Type", "application/json")
		switch r.URL.Path {
		case "/whale/0xaaaa":
			_, _ = w.Write([]byte(`{"high_volume": true}`))
		case "/whale/0xbbbb":
			_, _ = w.Write([]byte(`{"high_volume": false}`))
		case "/whale/0xdead":
			w.WriteHeader(http.StatusInternalServerError)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
}

func (s *ReputationTestSuite) TearDownTest() {
	s.server.Close()
}

func (s *ReputationTestSuite) source() ReputationSource {
	return NewReputationSource(&config.Reputation{
		Enabled:        true,
		Url:            s.server.URL + "/whale/",
		RequestTimeout: time.Second,
		CacheTTL:       time.Minute,
	})
}

func (s *ReputationTestSuite) TestHighVolume() {
	source := s.source()

	v, err := source.IsHighVolume(context.Background(), "0xAAAA")
	require.Nil(s.T(), err)
	require.True(s.T(), v)

	v, err = source.IsHighVolume(context.Background(), "0xbbbb")
	require.Nil(s.T(), err)
	require.False(s.T(), v)

	v, err = source.IsHighVolume(context.Background(), "0xcccc")
	require.Nil(s.T(), err)
	require.False(s.T(), v)
}

func (s *ReputationTestSuite) TestCache() {
	source := s.source()
	for i := 0; i < 3; i++ {
		_, err := source.IsHighVolume(context.Background(), "0xaaaa")
		require.Nil(s.T(), err)
	}
	require.Equal(s.T(), int32(1), s.calls.Load())
}

func (s *ReputationTestSuite) TestServerError() {
	_, err := s.source().IsHighVolume(context.Background(), "0xdead")
	require.NotNil(s.T(), err)
}

func (s *ReputationTestSuite) TestDisabled() {
	source := NewReputationSource(&config.Reputation{Enabled: false, Url: s.server.URL})
	_, ok := source.(NeverHighVolume)
	require.True(s.T(), ok)
}
