package sms

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/oggyb/sms-framework/internal/domain/message"
	"github.com/oggyb/sms-framework/internal/request"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestWebhookPlugin_Send(t *testing.T) {
	var got []request.WebhookRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "secret", r.Header.Get("x-ins-auth-key"))
		var body request.WebhookRequest
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		got = append(got, body)
		w.WriteHeader(http.StatusAccepted)
		_, _ = w.Write([]byte(`{"message":"Accepted","messageId":"ext-` + body.To + `"}`))
	}))
	defer srv.Close()

	p, err := NewWebhookPlugin(map[string]string{"url": srv.URL, "key": "secret"})
	require.NoError(t, err)

	m := message.New("hello", "+1", "+2")
	res, err := p.Send(context.Background(), m)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "hello", got[0].Content)
	require.Len(t, res.Reports, 2)
	assert.Equal(t, "ext-+1", res.Reports[0].MessageID)
	assert.Equal(t, message.StatusQueued, res.Reports[1].Status)
	assert.NoError(t, message.CheckIntegrity(&message.Message{Recipients: m.Recipients, Result: res}))
}

func TestWebhookPlugin_SendFailures(t *testing.T) {
	tests := []struct {
		name   string
		status int
		body   string
	}{
		{name: "non-2xx", status: http.StatusInternalServerError, body: `{}`},
		{name: "missing id", status: http.StatusOK, body: `{"message":"ok"}`},
		{name: "bad json", status: http.StatusOK, body: `nope`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := NewWebhookClient(srv.URL, "").Send(context.Background(), message.New("x", "+1"))
			assert.Error(t, err)
		})
	}
}

func TestWebhookPlugin_RequiresURL(t *testing.T) {
	_, err := NewWebhookPlugin(map[string]string{})
	assert.Error(t, err)
}

func TestWebhookPlugin_ParseDeliveryReports(t *testing.T) {
	p := NewWebhookClient("http://unused", "k")
	body := `{"reports":[{"message_id":"m1","recipient":"+1","status":"delivered","status_time":1700000000,"status_message":"ok"}]}`

	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	_, err := p.ParseDeliveryReports(req)
	assert.Error(t, err, "missing auth key must be rejected")

	req = httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
	req.Header.Set("x-ins-auth-key", "k")
	reports, err := p.ParseDeliveryReports(req)
	require.NoError(t, err)
	require.Len(t, reports, 1)
	assert.Equal(t, "m1", reports[0].MessageID)
	assert.Equal(t, message.StatusDelivered, reports[0].Status)
	assert.Equal(t, time.Unix(1700000000, 0).UTC(), reports[0].StatusTime)
}

func TestDecodeDeliveryReports_Invalid(t *testing.T) {
	for _, body := range []string{
		`not json`,
		`{"reports":[{"message_id":"","recipient":"+1","status":"delivered"}]}`,
		`{"reports":[{"message_id":"m","recipient":"+1","status":"lost"}]}`,
	} {
		req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))
		_, err := decodeDeliveryReports(req)
		assert.Error(t, err, body)
	}
}

func TestLogPlugin_ParseIncoming(t *testing.T) {
	p, err := NewLogPlugin(nil)
	require.NoError(t, err)

	body := `{"messages":[{"message":"hi there","recipients":["+1","+2"]},{"message":"second","recipients":["+3"]}]}`
	req := httptest.NewRequest(http.MethodPost, "/", strings.NewReader(body))

	msgs, err := p.(*LogPlugin).ParseIncoming(req)
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, message.DirectionIncoming, msgs[0].Direction)
	assert.Equal(t, []string{"+1", "+2"}, msgs[0].Recipients)
	assert.NoError(t, message.CheckIntegrity(msgs[0]))
}

func TestLogPlugin_CreditBalance(t *testing.T) {
	p, err := NewLogPlugin(map[string]string{"credits": "12.5"})
	require.NoError(t, err)
	assert.True(t, p.Capabilities().SupportsCreditBalanceQuery)

	bal, err := p.(*LogPlugin).CreditBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12.5, bal)

	_, err = NewLogPlugin(map[string]string{"credits": "lots"})
	assert.Error(t, err)
}
