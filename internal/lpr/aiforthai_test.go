package lpr

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"net"
	"net/http"
	"testing"

	"github.com/jarcoal/httpmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/techit45/Thai-Vehicle-License-Plate-OCR/internal/domain"
)

const testURL = "https://lpr.test/lpr-iapp"

func newTestClient(t *testing.T) *AIForThai {
	t.Helper()
	client := &http.Client{}
	httpmock.ActivateNonDefault(client)
	t.Cleanup(httpmock.DeactivateAndReset)
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	return NewAIForThai(AIForThaiConfig{URL: testURL, APIKey: "secret"}, client, logger)
}

func TestAIForThaiSendsMultipartWithKey(t *testing.T) {
	c := newTestClient(t)
	httpmock.RegisterResponder(http.MethodPost, testURL, func(req *http.Request) (*http.Response, error) {
		assert.Equal(t, "secret", req.Header.Get("apikey"))
		file, header, err := req.FormFile("file")
		require.NoError(t, err)
		defer file.Close()
		assert.Equal(t, "image.jpg", header.Filename)
		assert.Equal(t, "image/jpeg", header.Header.Get("Content-Type"))
		data, _ := io.ReadAll(file)
		assert.Equal(t, []byte("jpeg-bytes"), data)
		return httpmock.NewStringResponse(200, `{"status":200,"lp_number":"กข 1234","conf":87.5}`), nil
	})

	res, err := c.Recognize(context.Background(), []byte("jpeg-bytes"))
	require.NoError(t, err)
	assert.True(t, res.Success)
	assert.Equal(t, "กข 1234", res.LicensePlate)
	assert.InDelta(t, 0.875, res.Confidence, 1e-9)
	assert.Equal(t, "กข 1234", res.RawResponse["lp_number"])
	assert.Equal(t, 1, httpmock.GetTotalCallCount())
}

func TestAIForThaiResponseMapping(t *testing.T) {
	tests := []struct {
		name        string
		status      int
		body        string
		wantSuccess bool
		wantPlate   string
		wantConf    float64
		wantError   string
		wantMessage string
	}{
		{name: "legacy LPR array", status: 200, body: `{"LPR":[{"plate":"1กก 2345","confidence":0.66}]}`,
			wantSuccess: true, wantPlate: "1กก 2345", wantConf: 0.66},
		{name: "numeric strings", status: 200, body: `{"status":"200","lp_number":"ตณ 3754","conf":"90"}`,
			wantSuccess: true, wantPlate: "ตณ 3754", wantConf: 0.9},
		{name: "empty plate", status: 200, body: `{"status":200,"lp_number":""}`, wantError: MsgNotFound},
		{name: "empty LPR array", status: 200, body: `{"LPR":[]}`, wantError: MsgNotFound},
		{name: "bad key", status: 401, body: `denied`, wantError: MsgInvalidKey, wantMessage: "denied"},
		{name: "rate limited", status: 429, body: `slow down`, wantError: MsgRateLimited, wantMessage: "slow down"},
		{name: "server error", status: 503, body: `down`, wantError: "API Error: 503", wantMessage: "down"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t)
			httpmock.RegisterResponder(http.MethodPost, testURL, httpmock.NewStringResponder(tt.status, tt.body))

			res, err := c.Recognize(context.Background(), []byte("img"))
			require.NoError(t, err)
			assert.Equal(t, tt.wantSuccess, res.Success)
			assert.Equal(t, tt.wantPlate, res.LicensePlate)
			assert.InDelta(t, tt.wantConf, res.Confidence, 1e-9)
			assert.Equal(t, tt.wantError, res.Error)
			assert.Equal(t, tt.wantMessage, res.Message)
		})
	}
}

func TestAIForThaiTransportErrors(t *testing.T) {
	tests := []struct {
		name string
		err  error
		want string
	}{
		{name: "timeout", err: context.DeadlineExceeded, want: MsgTimeout},
		{name: "connection", err: &net.OpError{Op: "dial", Net: "tcp", Err: errors.New("connection refused")}, want: MsgConnection},
		{name: "other", err: errors.New("tls handshake"), want: "Error calling LPR API: "},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t)
			httpmock.RegisterResponder(http.MethodPost, testURL, httpmock.NewErrorResponder(tt.err))

			res, err := c.Recognize(context.Background(), []byte("img"))
			require.NoError(t, err)
			assert.False(t, res.Success)
			assert.Contains(t, res.Error, tt.want)
		})
	}
}

func TestAIForThaiRejectsEmptyImage(t *testing.T) {
	c := newTestClient(t)
	_, err := c.Recognize(context.Background(), nil)
	assert.Error(t, err)
	assert.Zero(t, httpmock.GetTotalCallCount())
}

func TestOutcome(t *testing.T) {
	res := mapAIForThaiResponse(200, []byte(`{"status":200,"lp_number":"x","conf":50}`))
	assert.Equal(t, "found", Outcome(res))
	assert.Equal(t, "not_found", Outcome(mapAIForThaiResponse(200, []byte(`{}`))))
	assert.Equal(t, "error", Outcome(mapAIForThaiResponse(500, nil)))
}

func TestTransient(t *testing.T) {
	tests := []struct {
		name   string
		result *domain.LPRResult
		want   bool
	}{
		{"server error", mapAIForThaiResponse(502, nil), true},
		{"rate limited", mapAIForThaiResponse(429, nil), true},
		{"timeout", &domain.LPRResult{Error: MsgTimeout}, true},
		{"connection", &domain.LPRResult{Error: MsgConnection}, true},
		{"invalid key", mapAIForThaiResponse(401, nil), false},
		{"bad request", mapAIForThaiResponse(400, nil), false},
		{"not found", mapAIForThaiResponse(200, []byte(`{}`)), false},
		{"found", mapAIForThaiResponse(200, []byte(`{"status":200,"lp_number":"x","conf":50}`)), false},
		{"nil", nil, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Transient(tt.result))
		})
	}
}
