package notify

import (
	"context"
	"crypto/hmac"
	"crypto/sha256"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/devgate/swagsync/synclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSendWithoutWebhookIsNoOp(t *testing.T) {
	n := &Notifier{Logger: slog.New(slog.DiscardHandler)}
	err := n.Send(context.Background(), TextMessage("hello"))
	assert.NoError(t, err)
}

func TestSendPostsMarkdownPayload(t *testing.T) {
	var gotBody map[string]any
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &gotBody))
		fmt.Fprint(w, `{"errcode":0,"errmsg":"ok"}`)
	}))
	defer srv.Close()

	n := New(srv.URL, "")
	err := n.Send(context.Background(), MarkdownMessage("title", "**text**"))
	require.NoError(t, err)

	assert.Equal(t, "markdown", gotBody["msgtype"])
	md, ok := gotBody["markdown"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "title", md["title"])
	assert.Equal(t, "**text**", md["text"])
}

func TestSendSignsRequest(t *testing.T) {
	const secret = "s3cret"
	fixed := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)

	var gotTS, gotSign string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTS = r.URL.Query().Get("timestamp")
		gotSign = r.URL.Query().Get("sign")
		fmt.Fprint(w, `{"errcode":0}`)
	}))
	defer srv.Close()

	n := New(srv.URL, secret)
	n.now = func() time.Time { return fixed }
	require.NoError(t, n.Send(context.Background(), TextMessage("x")))

	wantTS := fmt.Sprintf("%d", fixed.UnixMilli())
	assert.Equal(t, wantTS, gotTS)

	mac := hmac.New(sha256.New, []byte(secret))
	fmt.Fprintf(mac, "%s\n%s", wantTS, secret)
	assert.Equal(t, base64.StdEncoding.EncodeToString(mac.Sum(nil)), gotSign)
}

func TestSendWebhookErrorCode(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"errcode":310000,"errmsg":"sign not match"}`)
	}))
	defer srv.Close()

	err := New(srv.URL, "").Send(context.Background(), TextMessage("x"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "310000")
}

func TestSendNonJSONResponse(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, "<html>gateway error</html>")
	}))
	defer srv.Close()

	n := New(srv.URL, "")
	n.Logger = slog.New(slog.DiscardHandler)
	err := n.Send(context.Background(), TextMessage("x"))
	require.Error(t, err, "direct callers see the parse error")
}

func TestSendHTTPFailureStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer srv.Close()

	err := New(srv.URL, "").Send(context.Background(), TextMessage("x"))
	require.Error(t, err)
}

func TestBuildSyncSuccessMessage(t *testing.T) {
	counters := synclog.Counters{EndpointCreated: 3, EndpointUpdated: 1, SchemaIgnored: 2}
	msg := BuildSyncSuccessMessage("payments (10001)", counters, nil)

	assert.Equal(t, "markdown", msg.MsgType)
	assert.Contains(t, msg.Text, "payments (10001)")
	assert.Contains(t, msg.Text, "新增")
	assert.Contains(t, msg.Text, "| 接口 | 3 | 1 | 0 |")
	assert.NotContains(t, msg.Text, "部分导入错误")
}

func TestBuildSyncSuccessMessageWithPartialErrors(t *testing.T) {
	msg := BuildSyncSuccessMessage("p", synclog.Counters{}, []string{"schema Pet skipped"})
	assert.Contains(t, msg.Text, "部分导入错误")
	assert.Contains(t, msg.Text, "schema Pet skipped")
}

func TestBuildSyncFailureMessage(t *testing.T) {
	msg := BuildSyncFailureMessage("p (1)", "upstream returned 502")
	assert.Equal(t, "markdown", msg.MsgType)
	assert.Contains(t, msg.Text, "同步失败")
	assert.Contains(t, msg.Text, "upstream returned 502")
}

func TestBuildDiffMessageTruncatesRows(t *testing.T) {
	rows := make([]string, 15)
	for i := range rows {
		rows[i] = fmt.Sprintf("GET /path/%d", i)
	}
	msg := BuildDiffMessage("", DiffSummary{Added: 15}, rows, nil, nil)

	assert.Contains(t, msg.Text, "GET /path/0")
	assert.Contains(t, msg.Text, "共 15 条")
	assert.NotContains(t, msg.Text, "GET /path/12")
}
