package aad

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"net/url"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmcdole/azspray/pkg/classify"
	"github.com/mmcdole/azspray/pkg/logging"
)

type capturedRequest struct {
	path    string
	headers http.Header
	form    url.Values
}

func newTokenServer(t *testing.T, handler func(form url.Values) (int, string)) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var mu sync.Mutex
	var captured []capturedRequest

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		form, _ := url.ParseQuery(string(body))

		mu.Lock()
		captured = append(captured, capturedRequest{path: r.URL.Path, headers: r.Header.Clone(), form: form})
		mu.Unlock()

		status, payload := handler(form)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(payload))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func newTestClient(t *testing.T, srv *httptest.Server) *Client {
	t.Helper()
	c, err := NewClient(Config{BaseURL: srv.URL, UserAgent: "azspray-test", Transport: srv.Client()}, nil)
	require.NoError(t, err)
	return c
}

func TestClient_Attempt_Success(t *testing.T) {
	srv, captured := newTokenServer(t, func(form url.Values) (int, string) {
		return http.StatusOK, `{"token_type":"Bearer","access_token":"eyJ0"}`
	})
	c := newTestClient(t, srv)

	resp, err := c.Attempt(context.Background(), "bob@corp.com", "rightpass")
	require.NoError(t, err)
	assert.True(t, resp.Success)
	assert.Equal(t, classify.KindValidCredential, classify.Classify(resp).Kind)

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, "/common/oauth2/token", req.path)
	assert.Equal(t, "application/json", req.headers.Get("Accept"))
	assert.Equal(t, "azspray-test", req.headers.Get("User-Agent"))
	assert.Equal(t, "application/x-www-form-urlencoded", req.headers.Get("Content-Type"))
	_, err = uuid.Parse(req.headers.Get("client-request-id"))
	assert.NoError(t, err)

	assert.Equal(t, "password", req.form.Get("grant_type"))
	assert.Equal(t, "bob@corp.com", req.form.Get("username"))
	assert.Equal(t, "rightpass", req.form.Get("password"))
	assert.Equal(t, "openid", req.form.Get("scope"))
	assert.Equal(t, "1", req.form.Get("client_info"))
	assert.Equal(t, DefaultClientID, req.form.Get("client_id"))
	assert.Equal(t, DefaultResource, req.form.Get("resource"))
}

func TestClient_Attempt_ErrorCodes(t *testing.T) {
	srv, _ := newTokenServer(t, func(form url.Values) (int, string) {
		switch form.Get("username") {
		case "locked@corp.com":
			return http.StatusBadRequest, `{"error":"invalid_grant","error_description":"AADSTS50053: locked","error_codes":[50053,9999]}`
		case "mfa@corp.com":
			return http.StatusBadRequest, `{"error":"interaction_required","error_description":"AADSTS50076: MFA","error_codes":[50076]}`
		default:
			return http.StatusBadRequest, `{"error":"invalid_grant","error_description":"AADSTS50126: bad","error_codes":[50126]}`
		}
	})
	c := newTestClient(t, srv)

	resp, err := c.Attempt(context.Background(), "locked@corp.com", "x")
	require.NoError(t, err)
	assert.False(t, resp.Success)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
	assert.Equal(t, classify.CodeAccountLocked, resp.Code)
	assert.Equal(t, "AADSTS50053: locked", resp.Description)

	resp, err = c.Attempt(context.Background(), "mfa@corp.com", "x")
	require.NoError(t, err)
	assert.Equal(t, classify.CodeMFARequired, resp.Code)

	resp, err = c.Attempt(context.Background(), "alice@corp.com", "x")
	require.NoError(t, err)
	assert.Equal(t, classify.CodeInvalidUserOrPassword, resp.Code)
}

func TestClient_Attempt_UnexpectedBody(t *testing.T) {
	t.Run("not json", func(t *testing.T) {
		srv, _ := newTokenServer(t, func(url.Values) (int, string) {
			return http.StatusBadGateway, `<html>bad gateway</html>`
		})
		_, err := newTestClient(t, srv).Attempt(context.Background(), "alice@corp.com", "x")
		require.Error(t, err)
		assert.ErrorIs(t, err, ErrUnexpectedResponse)
		var respErr *ResponseError
		require.True(t, errors.As(err, &respErr))
		assert.Equal(t, http.StatusBadGateway, respErr.StatusCode)
	})

	t.Run("no error codes", func(t *testing.T) {
		srv, _ := newTokenServer(t, func(url.Values) (int, string) {
			return http.StatusTooManyRequests, `{"error":"throttled"}`
		})
		_, err := newTestClient(t, srv).Attempt(context.Background(), "alice@corp.com", "x")
		assert.ErrorIs(t, err, ErrUnexpectedResponse)
	})
}

func TestClient_Attempt_TransportError(t *testing.T) {
	srv, _ := newTokenServer(t, func(url.Values) (int, string) { return http.StatusOK, "{}" })
	c := newTestClient(t, srv)
	srv.Close()

	_, err := c.Attempt(context.Background(), "alice@corp.com", "x")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token request")
}

func TestClient_DebugLogsAttempt(t *testing.T) {
	srv, _ := newTokenServer(t, func(url.Values) (int, string) { return http.StatusOK, "{}" })
	var buf bytes.Buffer
	c, err := NewClient(Config{BaseURL: srv.URL, Transport: srv.Client()}, logging.NewAppLogger(&buf, logging.LogLevelDebug))
	require.NoError(t, err)

	_, err = c.Attempt(context.Background(), "alice@corp.com", "Winter2024")
	require.NoError(t, err)
	assert.Contains(t, buf.String(), "debug: Trying credential user=alice@corp.com password=Winter2024")
}

func TestNewClient(t *testing.T) {
	c, err := NewClient(Config{}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://login.microsoft.com/common/oauth2/token", c.Endpoint())

	c, err = NewClient(Config{BaseURL: "https://abc.execute-api.us-east-1.amazonaws.com/fireprox/"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "https://abc.execute-api.us-east-1.amazonaws.com/fireprox/common/oauth2/token", c.Endpoint())

	_, err = NewClient(Config{BaseURL: "login.microsoft.com"}, nil)
	assert.Error(t, err)
}

func TestBaseURLForCloud(t *testing.T) {
	testCases := []struct {
		name string
		want string
	}{
		{"", DefaultBaseURL},
		{"public", "https://login.microsoftonline.com"},
		{"China", "https://login.chinacloudapi.cn"},
		{"usgov", "https://login.microsoftonline.us"},
	}
	for _, tc := range testCases {
		got, err := BaseURLForCloud(tc.name)
		require.NoError(t, err, tc.name)
		assert.Equal(t, tc.want, got, tc.name)
	}

	_, err := BaseURLForCloud("mars")
	assert.ErrorIs(t, err, ErrUnknownCloud)
}
