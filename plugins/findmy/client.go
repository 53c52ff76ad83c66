package findmy

import (
	"bytes"
	"context"
	"crypto/tls"
	"crypto/x509"
	"encoding/base64"
	"fmt"
	"io"
	"net/http"
	"os"
	"strings"
)

const (
	devicePath = "/fmipservice/device/"

	CommandInitClient  = "/initClient"
	CommandPlaySound   = "/playSound"
	CommandLostMode    = "/lostDevice"
	CommandSendMessage = "/sendMessage"
)

var requestHeaders = map[string]string{
	"User-Agent":            "FindMyiPhone/500 CFNetwork/758.4.3 Darwin/15.5.0",
	"Accept-Language":       "en-US",
	"X-Apple-Find-Api-Ver":  "3.0",
	"X-Apple-Authscheme":    "UserIdGuest",
	"X-Apple-Realm-Support": "1.0",
	"Content-Type":          "application/json",
}

// Connection talks to the Find My device API on behalf of one account.
type Connection struct {
	baseURL       string
	accountID     string
	authorization string

	httpClient *http.Client
}

func NewConnection(cfg Config) (*Connection, error) {
	accountID := strings.TrimSpace(cfg.AccountID)
	if accountID == "" || cfg.Password == "" {
		return nil, ErrMissingCredentials
	}

	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	httpClient := &http.Client{Timeout: timeout}
	if cfg.RootCAFile != "" {
		pool, err := loadRootCAs(cfg.RootCAFile)
		if err != nil {
			return nil, err
		}
		httpClient.Transport = &http.Transport{
			Proxy: http.ProxyFromEnvironment,
			TLSClientConfig: &tls.Config{
				MinVersion: tls.VersionTLS12,
				RootCAs:    pool,
			},
		}
	}

	return &Connection{
		baseURL:       baseURL,
		accountID:     accountID,
		authorization: base64.StdEncoding.EncodeToString([]byte(accountID + ":" + cfg.Password)),
		httpClient:    httpClient,
	}, nil
}

// Authorization returns the encoded basic-auth credential.
func (c *Connection) Authorization() string {
	return c.authorization
}

func (c *Connection) AccountID() string {
	return c.accountID
}

// Endpoint builds the account-scoped URL for a device command such as
// CommandInitClient.
func (c *Connection) Endpoint(command string) string {
	return c.baseURL + devicePath + c.accountID + command
}

// Call POSTs payload to url and returns the response body on a 2xx status.
func (c *Connection) Call(ctx context.Context, url string, payload []byte) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	for key, value := range requestHeaders {
		req.Header.Set(key, value)
	}
	req.Header.Set("Authorization", "Basic "+c.authorization)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrAuthentication
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, APIError{Status: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}

func loadRootCAs(path string) (*x509.CertPool, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read root ca file: %w", err)
	}
	pool := x509.NewCertPool()
	if !pool.AppendCertsFromPEM(data) {
		return nil, fmt.Errorf("root ca file %s has no PEM certificates", path)
	}
	return pool, nil
}
