package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/require"

	"github.com/noventrax/tutor/internal/completion"
	"github.com/noventrax/tutor/internal/config"
	"github.com/noventrax/tutor/internal/feedback"
	"github.com/noventrax/tutor/internal/observability"
	"github.com/noventrax/tutor/internal/protocol"
	"github.com/noventrax/tutor/internal/transcript"
	"github.com/noventrax/tutor/internal/tutor"
)

type stubCompleter struct {
	mu    sync.Mutex
	calls int
	reply string
	err   error
}

func (s *stubCompleter) Complete(context.Context, []transcript.Turn) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.calls++
	return s.reply, s.err
}

type harness struct {
	ts       *httptest.Server
	engine   *tutor.Engine
	recorder *feedback.Recorder
	store    *transcript.Store
}

func newHarness(t *testing.T, cfg config.Config, completer tutor.Completer) harness {
	t.Helper()
	if cfg.MemoryLimit == 0 {
		cfg.MemoryLimit = 20
	}
	if cfg.AllowedOrigins == nil {
		cfg.AllowedOrigins = []string{"*"}
	}
	logger, _ := test.NewNullLogger()
	metrics := observability.NewMetrics("test_httpapi")
	store := transcript.NewStore(tutor.BasePrompt, cfg.MemoryLimit)
	recorder := feedback.NewRecorder(logger)
	engine, err := tutor.NewEngine(store, recorder, completer, tutor.Options{Log: logger, Metrics: metrics})
	require.NoError(t, err)

	ts := httptest.NewServer(New(cfg, engine, metrics, logger).Router())
	t.Cleanup(ts.Close)
	return harness{ts: ts, engine: engine, recorder: recorder, store: store}
}

func postJSON(t *testing.T, url, body string) (int, map[string]any) {
	t.Helper()
	res, err := http.Post(url, "application/json", strings.NewReader(body))
	require.NoError(t, err)
	defer res.Body.Close()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	return res.StatusCode, payload
}

func getJSON(t *testing.T, url string) (int, map[string]any) {
	t.Helper()
	res, err := http.Get(url)
	require.NoError(t, err)
	defer res.Body.Close()
	var payload map[string]any
	require.NoError(t, json.NewDecoder(res.Body).Decode(&payload))
	return res.StatusCode, payload
}

func TestHealth(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{})
	status, payload := getJSON(t, h.ts.URL+"/health")
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{"status": "ok"}, payload)
}

func TestDebugEnvReportsPresenceOnly(t *testing.T) {
	h := newHarness(t, config.Config{Endpoint: "https://example.test", APIKey: "secret"}, &stubCompleter{})

	res, err := http.Get(h.ts.URL + "/debug-env")
	require.NoError(t, err)
	defer res.Body.Close()
	raw, err := io.ReadAll(res.Body)
	require.NoError(t, err)
	require.JSONEq(t, `{"endpoint_set":true,"api_key_set":true,"model":null}`, string(raw))
	require.NotContains(t, string(raw), "secret")
}

func TestFeedbackEndpointRecordsPageSource(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{})

	status, payload := postJSON(t, h.ts.URL+"/feedback", `{"rating":4,"comment":" clear lesson ","page_url":"/labs/firewalls"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{"status": "received"}, payload)

	records := h.recorder.List()
	require.Len(t, records, 1)
	require.Equal(t, feedback.Some(4), records[0].Rating)
	require.Equal(t, "clear lesson", records[0].Comment)
	require.Equal(t, "/labs/firewalls", records[0].Source)
}

func TestFeedbackEndpointWithoutRating(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{})

	status, _ := postJSON(t, h.ts.URL+"/feedback", `{"comment":"ok"}`)
	require.Equal(t, http.StatusOK, status)
	require.False(t, h.recorder.List()[0].Rating.Valid)
	require.Equal(t, "", h.recorder.List()[0].Source)
}

func TestFeedbackEndpointRejectsMalformedBody(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{})

	status, payload := postJSON(t, h.ts.URL+"/feedback", `{"rating":"five","comment":"x"}`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_request", payload["code"])
	require.Zero(t, h.recorder.Len())
}

func TestFeedbackEndpointRequiresComment(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{})

	for _, body := range []string{`{}`, `{"rating":5}`, `{"comment":null}`, `{"rating":5,"page_url":"/labs"}`} {
		status, payload := postJSON(t, h.ts.URL+"/feedback", body)
		require.Equal(t, http.StatusBadRequest, status, body)
		require.Equal(t, "invalid_request", payload["code"], body)
		require.Equal(t, "comment is required", payload["error"], body)
	}
	require.Zero(t, h.recorder.Len())
}

func TestChatReturnsReply(t *testing.T) {
	c := &stubCompleter{reply: "A VPN encrypts traffic."}
	h := newHarness(t, config.Config{}, c)

	status, payload := postJSON(t, h.ts.URL+"/chat", `{"message":"what is a VPN?"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{"reply": "A VPN encrypts traffic."}, payload)
	require.Equal(t, 3, h.store.Len())
}

func TestChatCommandsDoNotCallProvider(t *testing.T) {
	c := &stubCompleter{}
	h := newHarness(t, config.Config{}, c)

	_, payload := postJSON(t, h.ts.URL+"/chat", `{"message":"give me a cloud quiz"}`)
	require.Contains(t, payload["reply"], "Cloud Security Quiz")

	_, payload = postJSON(t, h.ts.URL+"/chat", `{"message":"rate: 5 - very helpful"}`)
	require.Equal(t, tutor.FeedbackAckReply, payload["reply"])

	_, payload = postJSON(t, h.ts.URL+"/chat", `{"message":""}`)
	require.Equal(t, tutor.EmptyReply, payload["reply"])

	require.Zero(t, c.calls)
}

func TestChatReportsConfigurationErrorInPayload(t *testing.T) {
	gateway, err := completion.New(completion.Config{Mode: "openai", Timeout: time.Second})
	require.NoError(t, err)
	h := newHarness(t, config.Config{}, gateway)

	status, payload := postJSON(t, h.ts.URL+"/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{"error": completion.MsgNotConfigured}, payload)
}

func TestChatReportsProviderErrorInPayload(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{err: errors.New("upstream exploded")})

	status, payload := postJSON(t, h.ts.URL+"/chat", `{"message":"hello"}`)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, "upstream exploded", payload["error"])
	_, hasReply := payload["reply"]
	require.False(t, hasReply)
}

func TestChatRejectsMalformedBody(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{})

	status, payload := postJSON(t, h.ts.URL+"/chat", `{"message":`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_request", payload["code"])
}

func TestChatRequiresMessage(t *testing.T) {
	c := &stubCompleter{}
	h := newHarness(t, config.Config{}, c)

	for _, body := range []string{`{}`, `{"message":null}`} {
		status, payload := postJSON(t, h.ts.URL+"/chat", body)
		require.Equal(t, http.StatusBadRequest, status, body)
		require.Equal(t, "invalid_request", payload["code"], body)
		require.Equal(t, "message is required", payload["error"], body)
	}
	require.Zero(t, c.calls)
	require.Equal(t, 1, h.store.Len())
}

func TestDecodeDistinguishesEmptyFromTruncatedBody(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{})

	status, payload := postJSON(t, h.ts.URL+"/chat", ``)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "empty body", payload["error"])

	status, payload = postJSON(t, h.ts.URL+"/chat", `{"message":"hi"`)
	require.Equal(t, http.StatusBadRequest, status)
	require.Equal(t, "invalid_request", payload["code"])
	require.NotEqual(t, "empty body", payload["error"])
}

func TestResetRestoresBasePrompt(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{reply: "ok"})
	postJSON(t, h.ts.URL+"/chat", `{"message":"beginner"}`)
	postJSON(t, h.ts.URL+"/chat", `{"message":"hello"}`)
	require.Equal(t, 4, h.store.Len())

	status, payload := postJSON(t, h.ts.URL+"/reset", ``)
	require.Equal(t, http.StatusOK, status)
	require.Equal(t, map[string]any{"status": "conversation reset"}, payload)
	require.Equal(t, []transcript.Turn{transcript.System(tutor.BasePrompt)}, h.store.Snapshot())
}

func TestTranscriptAndFeedbackListing(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{reply: "ok"})
	postJSON(t, h.ts.URL+"/chat", `{"message":"feedback: nice"}`)
	postJSON(t, h.ts.URL+"/chat", `{"message":"intermediate"}`)

	_, payload := getJSON(t, h.ts.URL+"/v1/feedback")
	require.EqualValues(t, 1, payload["count"])

	_, payload = getJSON(t, h.ts.URL+"/v1/transcript")
	require.EqualValues(t, 20, payload["limit"])
	turns, ok := payload["turns"].([]any)
	require.True(t, ok)
	require.Len(t, turns, 2)
}

func TestMetricsAndLatencyEndpoints(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{reply: "ok"})
	postJSON(t, h.ts.URL+"/chat", `{"message":"hello"}`)

	_, payload := getJSON(t, h.ts.URL+"/v1/perf/latency")
	require.NotEmpty(t, payload["stages"])

	res, err := http.Get(h.ts.URL + "/metrics")
	require.NoError(t, err)
	defer res.Body.Close()
	var body bytes.Buffer
	_, err = body.ReadFrom(res.Body)
	require.NoError(t, err)
	require.Contains(t, body.String(), `test_httpapi_messages_routed_total{kind="chat"} 1`)
	require.Contains(t, body.String(), "test_httpapi_completion_latency_ms_count 1")
}

func TestCORSPreflight(t *testing.T) {
	h := newHarness(t, config.Config{AllowedOrigins: []string{"https://academy.example"}}, &stubCompleter{})

	req, err := http.NewRequest(http.MethodOptions, h.ts.URL+"/chat", nil)
	require.NoError(t, err)
	req.Header.Set("Origin", "https://academy.example")
	req.Header.Set("Access-Control-Request-Method", "POST")
	res, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer res.Body.Close()
	require.Equal(t, "https://academy.example", res.Header.Get("Access-Control-Allow-Origin"))
}

func TestChatWebSocket(t *testing.T) {
	h := newHarness(t, config.Config{}, &stubCompleter{reply: "Zero trust means verify everything."})

	wsURL := "ws" + strings.TrimPrefix(h.ts.URL, "http") + "/v1/chat/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.WriteJSON(protocol.ClientChat{Type: protocol.TypeClientChat, Message: "explain zero trust"}))
	var reply protocol.AssistantReply
	require.NoError(t, conn.ReadJSON(&reply))
	require.Equal(t, protocol.TypeAssistantReply, reply.Type)
	require.Equal(t, "chat", reply.Kind)
	require.Equal(t, "Zero trust means verify everything.", reply.Reply)
	require.NotEmpty(t, reply.RequestID)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"client_feedback","rating":"x","comment":"good"}`)))
	var ev protocol.SystemEvent
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "feedback_received", ev.Code)
	require.False(t, h.recorder.List()[0].Rating.Valid)

	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(`{"type":"nope"}`)))
	var errEv protocol.ErrorEvent
	require.NoError(t, conn.ReadJSON(&errEv))
	require.Equal(t, "invalid_client_message", errEv.Code)

	require.NoError(t, conn.WriteJSON(protocol.ClientControl{Type: protocol.TypeClientControl, Action: protocol.ActionReset}))
	require.NoError(t, conn.ReadJSON(&ev))
	require.Equal(t, "conversation_reset", ev.Code)
	require.Equal(t, 1, h.store.Len())
}
