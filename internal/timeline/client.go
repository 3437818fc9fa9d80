// Package timeline is the HTTP client for the remote timeline/notification
// API. Every client is bound to one user's authorization token; resolve a
// client per user through the credential store.
package timeline

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/textproto"
	"net/url"
	"strconv"
	"strings"
	"time"
)

// Client talks to the remote timeline API on behalf of a single user.
type Client struct {
	apiURL string
	token  string
	client *http.Client
}

// NewClient creates a client authorized with the given user token.
func NewClient(apiURL, token string) *Client {
	apiURL = strings.TrimRight(apiURL, "/")
	return &Client{
		apiURL: apiURL,
		token:  token,
		client: &http.Client{Timeout: 30 * time.Second},
	}
}

// NotificationConfig controls how the device announces a timeline item.
type NotificationConfig struct {
	Level string `json:"level"`
}

// Creator identifies the application that produced a timeline item.
type Creator struct {
	DisplayName string `json:"displayName"`
	ID          string `json:"id"`
}

// MenuValue is one display state of a menu item.
type MenuValue struct {
	DisplayName string `json:"displayName"`
	State       string `json:"state,omitempty"`
}

// MenuItem is an action attached to a timeline item.
type MenuItem struct {
	Action  string      `json:"action"`
	Payload string      `json:"payload,omitempty"`
	Values  []MenuValue `json:"values,omitempty"`
}

// Item is a single card in a user's timeline.
type Item struct {
	ID           string              `json:"id,omitempty"`
	Text         string              `json:"text,omitempty"`
	HTML         []string            `json:"html,omitempty"`
	Creator      *Creator            `json:"creator,omitempty"`
	Notification *NotificationConfig `json:"notification,omitempty"`
	MenuItems    []MenuItem          `json:"menuItems,omitempty"`
}

// AcceptCommand is a voice command a contact can receive.
type AcceptCommand struct {
	Type string `json:"type"`
}

// Contact is a sharing target registered with the remote API.
type Contact struct {
	ID             string          `json:"id"`
	DisplayName    string          `json:"displayName"`
	ImageURLs      []string        `json:"imageUrls,omitempty"`
	AcceptCommands []AcceptCommand `json:"acceptCommands,omitempty"`
}

// Subscription registers a callback for remote events on a collection.
type Subscription struct {
	ID          string `json:"id,omitempty"`
	Collection  string `json:"collection"`
	UserToken   string `json:"userToken,omitempty"`
	CallbackURL string `json:"callbackUrl,omitempty"`
}

type itemListResponse struct {
	Items []Item `json:"items"`
}

type subscriptionListResponse struct {
	Items []Subscription `json:"items"`
}

func (c *Client) do(req *http.Request) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("timeline API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("timeline API returned %d: %s", resp.StatusCode, string(respBody))
	}
	return nil
}

func (c *Client) doJSON(req *http.Request, dest interface{}) error {
	resp, err := c.client.Do(req)
	if err != nil {
		return fmt.Errorf("timeline API request failed: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= 400 {
		respBody, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("timeline API returned %d: %s", resp.StatusCode, string(respBody))
	}

	if err := json.NewDecoder(resp.Body).Decode(dest); err != nil {
		return fmt.Errorf("failed to decode response: %w", err)
	}
	return nil
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.apiURL+path, body)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+c.token)
	return req, nil
}

// InsertItem creates a timeline item in the user's feed.
func (c *Client) InsertItem(ctx context.Context, item Item) error {
	body, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", "/timeline", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// InsertItemWithImage creates a timeline item with attached image bytes using
// a multipart upload.
func (c *Client) InsertItemWithImage(ctx context.Context, item Item, image []byte, mimeType string) error {
	itemJSON, err := json.Marshal(item)
	if err != nil {
		return fmt.Errorf("failed to marshal item: %w", err)
	}

	var buf bytes.Buffer
	mw := multipart.NewWriter(&buf)

	metaHeader := textproto.MIMEHeader{}
	metaHeader.Set("Content-Disposition", `form-data; name="item"`)
	metaHeader.Set("Content-Type", "application/json")
	metaPart, err := mw.CreatePart(metaHeader)
	if err != nil {
		return fmt.Errorf("failed to create metadata part: %w", err)
	}
	if _, err := metaPart.Write(itemJSON); err != nil {
		return fmt.Errorf("failed to write metadata part: %w", err)
	}

	imageHeader := textproto.MIMEHeader{}
	imageHeader.Set("Content-Disposition", `form-data; name="image"; filename="attachment"`)
	imageHeader.Set("Content-Type", mimeType)
	imagePart, err := mw.CreatePart(imageHeader)
	if err != nil {
		return fmt.Errorf("failed to create image part: %w", err)
	}
	if _, err := imagePart.Write(image); err != nil {
		return fmt.Errorf("failed to write image part: %w", err)
	}

	if err := mw.Close(); err != nil {
		return fmt.Errorf("failed to finalize multipart body: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", "/timeline", &buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", mw.FormDataContentType())

	return c.do(req)
}

// DeleteItem removes a timeline item by id.
func (c *Client) DeleteItem(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, "DELETE", "/timeline/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

// ListItems fetches the newest timeline items, capped at maxResults.
func (c *Client) ListItems(ctx context.Context, maxResults int) ([]Item, error) {
	req, err := c.newRequest(ctx, "GET", "/timeline", nil)
	if err != nil {
		return nil, err
	}

	q := req.URL.Query()
	if maxResults > 0 {
		q.Set("maxResults", strconv.Itoa(maxResults))
	}
	req.URL.RawQuery = q.Encode()

	var listResp itemListResponse
	if err := c.doJSON(req, &listResp); err != nil {
		return nil, err
	}
	return listResp.Items, nil
}

// GetContact fetches a contact by id.
func (c *Client) GetContact(ctx context.Context, id string) (*Contact, error) {
	req, err := c.newRequest(ctx, "GET", "/contacts/"+url.PathEscape(id), nil)
	if err != nil {
		return nil, err
	}

	var contact Contact
	if err := c.doJSON(req, &contact); err != nil {
		return nil, err
	}
	return &contact, nil
}

// InsertContact registers a sharing contact.
func (c *Client) InsertContact(ctx context.Context, contact Contact) error {
	body, err := json.Marshal(contact)
	if err != nil {
		return fmt.Errorf("failed to marshal contact: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", "/contacts", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// DeleteContact removes a contact by id.
func (c *Client) DeleteContact(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, "DELETE", "/contacts/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req)
}

// ListSubscriptions fetches the user's active subscriptions.
func (c *Client) ListSubscriptions(ctx context.Context) ([]Subscription, error) {
	req, err := c.newRequest(ctx, "GET", "/subscriptions", nil)
	if err != nil {
		return nil, err
	}

	var listResp subscriptionListResponse
	if err := c.doJSON(req, &listResp); err != nil {
		return nil, err
	}
	return listResp.Items, nil
}

// InsertSubscription registers a notification callback.
func (c *Client) InsertSubscription(ctx context.Context, sub Subscription) error {
	body, err := json.Marshal(sub)
	if err != nil {
		return fmt.Errorf("failed to marshal subscription: %w", err)
	}

	req, err := c.newRequest(ctx, "POST", "/subscriptions", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	return c.do(req)
}

// DeleteSubscription removes a subscription by id.
func (c *Client) DeleteSubscription(ctx context.Context, id string) error {
	req, err := c.newRequest(ctx, "DELETE", "/subscriptions/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req)
}
