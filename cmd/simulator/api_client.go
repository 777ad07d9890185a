package main

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"github.com/gorilla/websocket"
)

// APIClient handles HTTP communication with the backend. The cookie jar
// carries the session between calls.
type APIClient struct {
	baseURL    string
	httpClient *http.Client
}

// NewAPIClient creates a new API client
func NewAPIClient(baseURL string) *APIClient {
	jar, _ := cookiejar.New(nil)
	return &APIClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: 30 * time.Second,
			Jar:     jar,
		},
	}
}

// Response types matching backend

type LoginResponse struct {
	Message  string `json:"message"`
	Redirect string `json:"redirect"`
	User     struct {
		ID       string `json:"id"`
		Username string `json:"username"`
	} `json:"user"`
}

type CreatedResponse struct {
	Message string `json:"message"`
	ID      string `json:"id"`
}

type FeedEvent struct {
	Type      string          `json:"type"`
	Payload   json.RawMessage `json:"payload"`
	Timestamp int64           `json:"timestamp"`
}

// Login starts a session for the client
func (c *APIClient) Login(username, password string) (*LoginResponse, error) {
	resp, err := c.do(http.MethodPost, "/login", map[string]string{
		"username": username,
		"password": password,
	})
	if err != nil {
		return nil, fmt.Errorf("login request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("login: %w", err)
	}

	var result LoginResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return &result, nil
}

// Logout ends the session
func (c *APIClient) Logout() error {
	resp, err := c.do(http.MethodPost, "/logout", nil)
	if err != nil {
		return fmt.Errorf("logout request failed: %w", err)
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

// CreateListing posts one listing and returns its id
func (c *APIClient) CreateListing(fields map[string]interface{}) (string, error) {
	resp, err := c.do(http.MethodPost, "/listings", fields)
	if err != nil {
		return "", fmt.Errorf("create listing request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusCreated); err != nil {
		return "", fmt.Errorf("create listing: %w", err)
	}

	var result CreatedResponse
	if err := json.NewDecoder(resp.Body).Decode(&result); err != nil {
		return "", fmt.Errorf("failed to decode response: %w", err)
	}
	return result.ID, nil
}

// ListListings fetches every listing, newest first
func (c *APIClient) ListListings() ([]map[string]interface{}, error) {
	resp, err := c.do(http.MethodGet, "/listings", nil)
	if err != nil {
		return nil, fmt.Errorf("list listings request failed: %w", err)
	}
	defer resp.Body.Close()

	if err := expectStatus(resp, http.StatusOK); err != nil {
		return nil, fmt.Errorf("list listings: %w", err)
	}

	var listings []map[string]interface{}
	if err := json.NewDecoder(resp.Body).Decode(&listings); err != nil {
		return nil, fmt.Errorf("failed to decode response: %w", err)
	}
	return listings, nil
}

// DeleteListing removes a listing by id
func (c *APIClient) DeleteListing(id string) error {
	resp, err := c.do(http.MethodDelete, "/listings/"+url.PathEscape(id), nil)
	if err != nil {
		return fmt.Errorf("delete listing request failed: %w", err)
	}
	defer resp.Body.Close()
	return expectStatus(resp, http.StatusOK)
}

// Watch subscribes to the listing feed and calls fn for every event until
// the connection drops.
func (c *APIClient) Watch(fn func(FeedEvent)) error {
	wsURL := "ws" + strings.TrimPrefix(c.baseURL, "http") + "/ws/listings"

	header := http.Header{}
	if u, err := url.Parse(c.baseURL); err == nil {
		for _, cookie := range c.httpClient.Jar.Cookies(u) {
			header.Add("Cookie", cookie.Name+"="+cookie.Value)
		}
	}

	conn, _, err := websocket.DefaultDialer.Dial(wsURL, header)
	if err != nil {
		return fmt.Errorf("dial feed: %w", err)
	}
	defer conn.Close()

	for {
		var event FeedEvent
		if err := conn.ReadJSON(&event); err != nil {
			return err
		}
		fn(event)
	}
}

func (c *APIClient) do(method, path string, body interface{}) (*http.Response, error) {
	var reqBody io.Reader
	if body != nil {
		jsonBody, err := json.Marshal(body)
		if err != nil {
			return nil, err
		}
		reqBody = bytes.NewBuffer(jsonBody)
	}

	req, err := http.NewRequest(method, c.baseURL+path, reqBody)
	if err != nil {
		return nil, err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	return c.httpClient.Do(req)
}

func expectStatus(resp *http.Response, want int) error {
	if resp.StatusCode == want {
		return nil
	}
	bodyBytes, _ := io.ReadAll(resp.Body)
	return fmt.Errorf("status %d: %s", resp.StatusCode, strings.TrimSpace(string(bodyBytes)))
}
