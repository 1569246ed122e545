package http_test

import (
	"bufio"
	"bytes"
	"context"
	"encoding/json"
	"io"
	nethttp "net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/aretw0/arcade"
	"github.com/aretw0/arcade/internal/videogames"
	"github.com/aretw0/arcade/pkg/adapters/http"
	"github.com/aretw0/arcade/pkg/adapters/memory"
	"github.com/aretw0/arcade/pkg/domain"
	"github.com/aretw0/arcade/pkg/observability"
	"github.com/aretw0/arcade/pkg/session"
)

func newServer(t *testing.T, opts ...http.Option) (*http.Server, *httptest.Server) {
	t.Helper()
	eng, err := videogames.NewEngine(videogames.Options{})
	require.NoError(t, err)

	srv := http.NewServer(eng, session.NewManager(memory.NewStore()), opts...)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func post(t *testing.T, url string, body any) *nethttp.Response {
	t.Helper()
	data, err := json.Marshal(body)
	require.NoError(t, err)
	resp, err := nethttp.Post(url, "application/json", bytes.NewReader(data))
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func decode[T any](t *testing.T, resp *nethttp.Response) T {
	t.Helper()
	var v T
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&v))
	return v
}

func TestServer_Conversation(t *testing.T) {
	_, ts := newServer(t)

	resp := post(t, ts.URL+"/sessions", http.StartRequest{SessionID: "abc"})
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	started := decode[http.TurnResponse](t, resp)
	assert.Equal(t, "abc", started.SessionID)
	assert.Equal(t, []string{"Hi, do you play video games?"}, started.Turn.Output)
	assert.True(t, started.Turn.AwaitingInput)

	resp = post(t, ts.URL+"/sessions/abc/turns", http.TurnRequest{Utterance: "yeah"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	turn := decode[http.TurnResponse](t, resp)
	assert.Equal(t, []string{"What do you most often play video games on?"}, turn.Turn.Output)
	require.NotNil(t, turn.Diff)
	require.NotNil(t, turn.Diff.Current)
	assert.Equal(t, videogames.Ans1.ID(), *turn.Diff.Current)

	resp = post(t, ts.URL+"/sessions/abc/turns", http.TurnRequest{Utterance: "ps4"})
	turn = decode[http.TurnResponse](t, resp)
	assert.Equal(t, "playstation", turn.Diff.Vars["device"])

	resp, err := nethttp.Get(ts.URL + "/sessions/abc")
	require.NoError(t, err)
	defer resp.Body.Close()
	sess := decode[domain.Session](t, resp)
	assert.Equal(t, videogames.FavAns.ID(), sess.Current)
	assert.Equal(t, 2, sess.Turns)
}

func TestServer_StartGeneratesID(t *testing.T) {
	_, ts := newServer(t)

	resp, err := nethttp.Post(ts.URL+"/sessions", "application/json", nil)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, nethttp.StatusCreated, resp.StatusCode)
	started := decode[http.TurnResponse](t, resp)
	assert.NotEmpty(t, started.SessionID)

	resp = post(t, ts.URL+"/sessions", http.StartRequest{SessionID: started.SessionID})
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
}

func TestServer_NoMatchKeepsSession(t *testing.T) {
	_, ts := newServer(t)
	post(t, ts.URL+"/sessions", http.StartRequest{SessionID: "s"})

	resp := post(t, ts.URL+"/sessions/s/turns", http.TurnRequest{Utterance: "nah"})
	require.Equal(t, nethttp.StatusOK, resp.StatusCode)
	turn := decode[http.TurnResponse](t, resp)
	assert.False(t, turn.NoMatch, "INIT_PROMPT has an error successor")
	assert.Equal(t, []string{"Sorry, I didn't get that. Do you play video games?"}, turn.Turn.Output)
}

func TestServer_ConcurrentTurnsDiffOneTurnEach(t *testing.T) {
	_, ts := newServer(t)
	post(t, ts.URL+"/sessions", http.StartRequest{SessionID: "busy"})

	const turns = 6
	diffs := make(chan *domain.SessionDiff, turns)
	var wg sync.WaitGroup
	for i := 0; i < turns; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, _ := json.Marshal(http.TurnRequest{Utterance: "nah"})
			resp, err := nethttp.Post(ts.URL+"/sessions/busy/turns", "application/json", bytes.NewReader(data))
			if !assert.NoError(t, err) {
				return
			}
			defer resp.Body.Close()
			var tr http.TurnResponse
			if assert.NoError(t, json.NewDecoder(resp.Body).Decode(&tr)) {
				diffs <- tr.Diff
			}
		}()
	}
	wg.Wait()
	close(diffs)

	n := 0
	for d := range diffs {
		n++
		require.NotNil(t, d)
		assert.Equal(t, []domain.StateID{videogames.Err.ID(), videogames.InitPrompt.ID()}, d.Visited)
	}
	assert.Equal(t, turns, n)
}

func TestServer_DuplicateStartsConflict(t *testing.T) {
	_, ts := newServer(t)

	const tries = 6
	codes := make(chan int, tries)
	var wg sync.WaitGroup
	for i := 0; i < tries; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, _ := json.Marshal(http.StartRequest{SessionID: "same"})
			resp, err := nethttp.Post(ts.URL+"/sessions", "application/json", bytes.NewReader(data))
			if !assert.NoError(t, err) {
				return
			}
			resp.Body.Close()
			codes <- resp.StatusCode
		}()
	}
	wg.Wait()
	close(codes)

	created := 0
	for code := range codes {
		if code == nethttp.StatusCreated {
			created++
			continue
		}
		assert.Equal(t, nethttp.StatusConflict, code)
	}
	assert.Equal(t, 1, created)
}

func TestServer_Errors(t *testing.T) {
	_, ts := newServer(t)

	resp := post(t, ts.URL+"/sessions/missing/turns", http.TurnRequest{Utterance: "yes"})
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	resp, err := nethttp.Get(ts.URL + "/sessions/missing")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, resp.StatusCode)

	post(t, ts.URL+"/sessions", http.StartRequest{SessionID: "s"})
	resp, err = nethttp.Post(ts.URL+"/sessions/s/turns", "application/json", strings.NewReader("{"))
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)

	resp = post(t, ts.URL+"/sessions/s/turns", http.TurnRequest{Utterance: strings.Repeat("a", 5000)})
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)

	resp = post(t, ts.URL+"/sessions/s/turns", http.TurnRequest{Utterance: "no"})
	require.True(t, decode[http.TurnResponse](t, resp).Turn.Ended)
	resp = post(t, ts.URL+"/sessions/s/turns", http.TurnRequest{Utterance: "hello?"})
	assert.Equal(t, nethttp.StatusConflict, resp.StatusCode)
}

func TestServer_ListAndDelete(t *testing.T) {
	_, ts := newServer(t)
	post(t, ts.URL+"/sessions", http.StartRequest{SessionID: "a"})
	post(t, ts.URL+"/sessions", http.StartRequest{SessionID: "b"})

	resp, err := nethttp.Get(ts.URL + "/sessions")
	require.NoError(t, err)
	defer resp.Body.Close()
	list := decode[map[string][]string](t, resp)
	assert.Equal(t, []string{"a", "b"}, list["sessions"])

	req, err := nethttp.NewRequest(nethttp.MethodDelete, ts.URL+"/sessions/a", nil)
	require.NoError(t, err)
	del, err := nethttp.DefaultClient.Do(req)
	require.NoError(t, err)
	del.Body.Close()
	assert.Equal(t, nethttp.StatusNoContent, del.StatusCode)

	get, err := nethttp.Get(ts.URL + "/sessions/a")
	require.NoError(t, err)
	get.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, get.StatusCode)
}

func TestServer_GraphHealthAndInfo(t *testing.T) {
	_, ts := newServer(t, http.WithVersion("1.2.3"))

	resp, err := nethttp.Get(ts.URL + "/graph")
	require.NoError(t, err)
	defer resp.Body.Close()
	g := decode[domain.Graph](t, resp)
	assert.Equal(t, videogames.Start.ID(), g.Start)
	assert.Len(t, g.Nodes, len(videogames.All()))

	health, err := nethttp.Get(ts.URL + "/health")
	require.NoError(t, err)
	defer health.Body.Close()
	assert.Equal(t, nethttp.StatusOK, health.StatusCode)

	info, err := nethttp.Get(ts.URL + "/info")
	require.NoError(t, err)
	defer info.Body.Close()
	assert.Equal(t, "1.2.3", decode[map[string]string](t, info)["version"])

	metrics, err := nethttp.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	metrics.Body.Close()
	assert.Equal(t, nethttp.StatusNotFound, metrics.StatusCode, "metrics are opt-in")
}

func TestServer_Metrics(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := observability.NewMetrics(reg)

	eng, err := videogames.NewEngine(videogames.Options{}, arcade.WithLifecycleHooks(m.Hooks()))
	require.NoError(t, err)
	srv := http.NewServer(eng, session.NewManager(memory.NewStore()), http.WithMetrics(reg))
	ts := httptest.NewServer(srv.Handler())
	defer ts.Close()

	post(t, ts.URL+"/sessions", http.StartRequest{SessionID: "m"})

	resp, err := nethttp.Get(ts.URL + "/metrics")
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, nethttp.StatusOK, resp.StatusCode)
	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	assert.Contains(t, string(body), `arcade_state_visits_total{state="START"} 1`)
}

func TestServer_StreamsDiffs(t *testing.T) {
	_, ts := newServer(t)
	post(t, ts.URL+"/sessions", http.StartRequest{SessionID: "live"})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	req, err := nethttp.NewRequestWithContext(ctx, nethttp.MethodGet, ts.URL+"/events?session_id=live&watch=vars", nil)
	require.NoError(t, err)
	resp, err := nethttp.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	assert.Equal(t, "text/event-stream", resp.Header.Get("Content-Type"))

	lines := bufio.NewScanner(resp.Body)
	require.True(t, lines.Scan())
	assert.Equal(t, "event: ping", lines.Text())

	// "yes" changes only the current state, which is filtered out.
	post(t, ts.URL+"/sessions/live/turns", http.TurnRequest{Utterance: "yes"})
	post(t, ts.URL+"/sessions/live/turns", http.TurnRequest{Utterance: "xbox"})

	var data string
	for lines.Scan() {
		if strings.HasPrefix(lines.Text(), "data: {") {
			data = strings.TrimPrefix(lines.Text(), "data: ")
			break
		}
	}
	var diff domain.SessionDiff
	require.NoError(t, json.Unmarshal([]byte(data), &diff))
	assert.Equal(t, "live", diff.SessionID)
	assert.Equal(t, "xbox", diff.Vars["device"])
}

func TestServer_EventsRequireSession(t *testing.T) {
	_, ts := newServer(t)
	resp, err := nethttp.Get(ts.URL + "/events")
	require.NoError(t, err)
	resp.Body.Close()
	assert.Equal(t, nethttp.StatusBadRequest, resp.StatusCode)
}

func TestStreamManager_DropsWhenFull(t *testing.T) {
	sm := http.NewStreamManager()
	ch, cancel := sm.Subscribe("s")
	for i := 0; i < 20; i++ {
		sm.Broadcast("s", "msg")
	}
	assert.Len(t, ch, 10)
	cancel()

	for range ch {
	}
	_, open := <-ch
	assert.False(t, open)
	sm.Broadcast("s", "after cancel")
}
