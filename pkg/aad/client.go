package aad

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/policy"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/runtime"
	"github.com/Azure/azure-sdk-for-go/sdk/azcore/streaming"
	golog "github.com/fclairamb/go-log"
	"github.com/google/uuid"

	"github.com/mmcdole/azspray/pkg/classify"
)

const (
	moduleName    = "azspray"
	moduleVersion = "v0.1.0"

	tokenPath = "/common/oauth2/token"

	// Azure CLI public client
	DefaultClientID = "04b07795-8ddb-461a-bbee-02f9e1bf7b46"
	DefaultResource = "https://graph.microsoft.com"

	DefaultUserAgent = "Mozilla/5.0 (X11; Ubuntu; Linux x86_64; rv:109.0) Gecko/20100101 Firefox/119.0"
	DefaultTimeout   = 30 * time.Second
)

// Config holds password-grant client settings
type Config struct {
	// BaseURL is scheme and host without path, e.g. https://login.microsoft.com
	BaseURL   string
	ClientID  string
	Resource  string
	UserAgent string
	Timeout   time.Duration
	// Transport replaces the HTTP client, mostly for tests
	Transport policy.Transporter
}

// Client performs resource owner password credential grants against the
// Azure AD v1 token endpoint and reports the AADSTS error code
type Client struct {
	endpoint string
	clientID string
	resource string
	pipeline runtime.Pipeline
	logger   golog.Logger
}

// tokenError is the JSON body of a failed token request
type tokenError struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
	ErrorCodes       []int  `json:"error_codes"`
}

// NewClient creates a Client. Retries are disabled: a failed request is
// surfaced to the caller rather than repeated against the account.
func NewClient(cfg Config, logger golog.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultBaseURL
	}
	base, err := url.Parse(cfg.BaseURL)
	if err != nil || base.Scheme == "" || base.Host == "" {
		return nil, fmt.Errorf("invalid base url %q", cfg.BaseURL)
	}
	if cfg.ClientID == "" {
		cfg.ClientID = DefaultClientID
	}
	if cfg.Resource == "" {
		cfg.Resource = DefaultResource
	}
	if cfg.UserAgent == "" {
		cfg.UserAgent = DefaultUserAgent
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	transport := cfg.Transport
	if transport == nil {
		transport = &http.Client{Timeout: cfg.Timeout}
	}

	opts := &policy.ClientOptions{
		Retry:     policy.RetryOptions{MaxRetries: -1},
		Telemetry: policy.TelemetryOptions{Disabled: true},
		Transport: transport,
		PerCallPolicies: []policy.Policy{
			headerPolicy{userAgent: cfg.UserAgent},
		},
	}

	return &Client{
		endpoint: strings.TrimSuffix(cfg.BaseURL, "/") + tokenPath,
		clientID: cfg.ClientID,
		resource: cfg.Resource,
		pipeline: runtime.NewPipeline(moduleName, moduleVersion, runtime.PipelineOptions{}, opts),
		logger:   logger,
	}, nil
}

// Endpoint returns the token URL requests are sent to
func (c *Client) Endpoint() string {
	return c.endpoint
}

// Attempt tries one username/password pair. Any provider answer, success or
// AADSTS error, is returned as a Response; err is reserved for transport
// failures and bodies that are not a token error document.
func (c *Client) Attempt(ctx context.Context, username, password string) (classify.Response, error) {
	form := url.Values{
		"resource":    {c.resource},
		"client_id":   {c.clientID},
		"client_info": {"1"},
		"grant_type":  {"password"},
		"username":    {username},
		"password":    {password},
		"scope":       {"openid"},
	}

	req, err := runtime.NewRequest(ctx, http.MethodPost, c.endpoint)
	if err != nil {
		return classify.Response{}, fmt.Errorf("creating token request: %w", err)
	}
	req.Raw().Header.Set("Accept", "application/json")
	req.Raw().Header.Set("client-request-id", uuid.NewString())
	req.Raw().Header.Set("return-client-request-id", "true")
	if err := req.SetBody(streaming.NopCloser(strings.NewReader(form.Encode())), "application/x-www-form-urlencoded"); err != nil {
		return classify.Response{}, fmt.Errorf("setting token request body: %w", err)
	}

	if c.logger != nil {
		c.logger.Debug("Trying credential", "user", username, "password", password)
	}

	resp, err := c.pipeline.Do(req)
	if err != nil {
		return classify.Response{}, fmt.Errorf("token request: %w", err)
	}
	defer resp.Body.Close()

	body, err := runtime.Payload(resp)
	if err != nil {
		return classify.Response{}, fmt.Errorf("reading token response: %w", err)
	}

	if resp.StatusCode == http.StatusOK {
		return classify.Response{Success: true, StatusCode: resp.StatusCode}, nil
	}

	var te tokenError
	if err := json.Unmarshal(body, &te); err != nil {
		return classify.Response{}, &ResponseError{StatusCode: resp.StatusCode, Body: string(body), Err: err}
	}
	if len(te.ErrorCodes) == 0 {
		return classify.Response{}, &ResponseError{StatusCode: resp.StatusCode, Body: string(body)}
	}

	return classify.Response{
		StatusCode:  resp.StatusCode,
		Code:        te.ErrorCodes[0],
		Description: te.ErrorDescription,
	}, nil
}

// headerPolicy sets the User-Agent on every request
type headerPolicy struct {
	userAgent string
}

func (p headerPolicy) Do(req *policy.Request) (*http.Response, error) {
	req.Raw().Header.Set("User-Agent", p.userAgent)
	return req.Next()
}
