// Copyright 2026 The LOD-GEOSS Databus Authors
// SPDX-License-Identifier: Apache-2.0

package publish

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	log "github.com/sirupsen/logrus"
	"github.com/tidwall/gjson"
)

const apiKeyHeader = "X-API-Key"

// A token is exchanged again this long before it expires
const expiryLeeway = 10 * time.Second

// Returned when no usable credentials could be obtained.
// Publishing cannot continue after an AuthError
type AuthError struct {
	Endpoint   string
	StatusCode int
	Err        error
}

func (e *AuthError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("authentication against %s failed with status %d: %v", e.Endpoint, e.StatusCode, e.Err)
	}
	return fmt.Sprintf("authentication against %s failed: %v", e.Endpoint, e.Err)
}

func (e *AuthError) Unwrap() error {
	return e.Err
}

// Authenticator adds databus credentials to publish requests
type Authenticator interface {
	// Apply sets the credential headers on req
	Apply(ctx context.Context, req *http.Request) error
	// Check makes sure credentials are usable without publishing anything
	Check(ctx context.Context) error
}

// APIKeyAuth sends a static key in the X-API-Key header
type APIKeyAuth struct {
	Key string
}

func (a APIKeyAuth) Check(context.Context) error {
	if strings.TrimSpace(a.Key) == "" {
		return &AuthError{Endpoint: apiKeyHeader, Err: errors.New("no api key was provided; set DATABUS_API_KEY")}
	}
	return nil
}

func (a APIKeyAuth) Apply(ctx context.Context, req *http.Request) error {
	if err := a.Check(ctx); err != nil {
		return err
	}
	req.Header.Set(apiKeyHeader, a.Key)
	return nil
}

// TokenAuth exchanges a username and password for a bearer token
// with the password grant. The token is reused until its exp claim passes
type TokenAuth struct {
	Endpoint string
	ClientID string
	Username string
	Password string

	client *http.Client
	now    func() time.Time

	mu     sync.Mutex
	token  string
	expiry time.Time
}

func NewTokenAuth(client *http.Client, endpoint, clientID, username, password string) *TokenAuth {
	return &TokenAuth{
		Endpoint: endpoint,
		ClientID: clientID,
		Username: username,
		Password: password,
		client:   client,
		now:      time.Now,
	}
}

func (a *TokenAuth) Check(ctx context.Context) error {
	_, err := a.Token(ctx)
	return err
}

func (a *TokenAuth) Apply(ctx context.Context, req *http.Request) error {
	token, err := a.Token(ctx)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+token)
	return nil
}

// Token returns the cached token or exchanges a new one
func (a *TokenAuth) Token(ctx context.Context) (string, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.token != "" && (a.expiry.IsZero() || a.now().Add(expiryLeeway).Before(a.expiry)) {
		return a.token, nil
	}

	token, err := a.exchange(ctx)
	if err != nil {
		a.token = ""
		return "", err
	}
	a.token = token
	a.expiry = tokenExpiry(token)
	return token, nil
}

func (a *TokenAuth) exchange(ctx context.Context) (string, error) {
	log.Info("Accessing new token...")

	form := url.Values{
		"client_id":  {a.ClientID},
		"username":   {a.Username},
		"password":   {a.Password},
		"grant_type": {"password"},
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.Endpoint, strings.NewReader(form.Encode()))
	if err != nil {
		return "", &AuthError{Endpoint: a.Endpoint, Err: err}
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Accept", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return "", &AuthError{Endpoint: a.Endpoint, Err: err}
	}
	defer func() { _ = resp.Body.Close() }()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return "", &AuthError{Endpoint: a.Endpoint, StatusCode: resp.StatusCode, Err: err}
	}
	if resp.StatusCode != http.StatusOK {
		return "", &AuthError{Endpoint: a.Endpoint, StatusCode: resp.StatusCode, Err: fmt.Errorf("token endpoint answered %s", strings.TrimSpace(string(body)))}
	}

	token := gjson.GetBytes(body, "access_token").String()
	if token == "" {
		return "", &AuthError{Endpoint: a.Endpoint, StatusCode: resp.StatusCode, Err: errors.New("response has no access_token")}
	}
	return token, nil
}

// tokenExpiry reads the exp claim without verifying the signature.
// Opaque tokens have no expiry and are kept for the whole run
func tokenExpiry(token string) time.Time {
	parsed, _, err := jwt.NewParser().ParseUnverified(token, jwt.MapClaims{})
	if err != nil {
		log.Debugf("access token is not a jwt, keeping it for the whole run: %v", err)
		return time.Time{}
	}
	exp, err := parsed.Claims.GetExpirationTime()
	if err != nil || exp == nil {
		return time.Time{}
	}
	return exp.Time
}
