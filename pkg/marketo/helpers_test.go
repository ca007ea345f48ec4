package marketo

import (
	"context"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/natserract/mkto/pkg/config"
	httpclient "github.com/natserract/mkto/pkg/http"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// step is one scripted engine outcome.
type step struct {
	status int
	body   string
	err    error
}

func okStep(body string) step              { return step{status: 200, body: body} }
func statusStep(code int, body string) step { return step{status: code, body: body} }
func transportStep(err error) step          { return step{err: err} }

func apiErrorStep(code, message string) step {
	return okStep(`{"requestId":"r1","success":false,"errors":[{"code":"` + code + `","message":"` + message + `"}]}`)
}

// fakeEngine replays scripted outcomes, separately for the identity endpoint
// and for everything else. The last step of a script repeats.
type fakeEngine struct {
	mu       sync.Mutex
	identity []step
	data     []step

	identityRequests []httpclient.Request
	dataRequests     []httpclient.Request
	dataCallTimes    []time.Time
}

func (f *fakeEngine) Do(_ context.Context, req httpclient.Request) (*httpclient.Response, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	var s step
	if strings.HasSuffix(req.URL, identityTokenPath) {
		f.identityRequests = append(f.identityRequests, req)
		s = next(f.identity, len(f.identityRequests))
	} else {
		f.dataRequests = append(f.dataRequests, req)
		f.dataCallTimes = append(f.dataCallTimes, time.Now())
		s = next(f.data, len(f.dataRequests))
	}

	if s.err != nil {
		return nil, s.err
	}
	return &httpclient.Response{StatusCode: s.status, Body: []byte(s.body)}, nil
}

func next(script []step, call int) step {
	if len(script) == 0 {
		return okStep(`{}`)
	}
	if call > len(script) {
		return script[len(script)-1]
	}
	return script[call-1]
}

func (f *fakeEngine) identityCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.identityRequests)
}

func (f *fakeEngine) dataCalls() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.dataRequests)
}

const tokenBody = `{"access_token":"access_token","token_type":"bearer","expires_in":3599,"scope":"api@example.com"}`

func testConfig() *config.Config {
	return &config.Config{
		IdentityBaseURI: "https://123-abc.mktorest.com",
		RestBaseURI:     "https://123-abc.mktorest.com/rest",
		ClientID:        "clientId",
		ClientSecret:    "clientSecret",
		RequestTimeout:  time.Second,
		MaxRetries:      3,
		RetryDelay:      time.Millisecond,
	}
}

func newTestClient(t *testing.T, engine Engine, mutate ...func(*config.Config)) *Client {
	t.Helper()
	cfg := testConfig()
	for _, m := range mutate {
		m(cfg)
	}
	c, err := New(cfg, WithEngine(engine), WithLogger(zap.NewNop()))
	require.NoError(t, err)
	return c
}
