package client

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"

	"spear/internal/model"
)

type (
	// Client talks to the relay's REST surface.
	Client struct {
		base string
		http *http.Client
	}

	// APIError carries the server's classified failure body.
	APIError struct {
		Status          int
		Message         string
		ExpectedCounter *int64
		ReceivedCounter *int64
	}
)

func (e *APIError) Error() string {
	if e.ExpectedCounter != nil && e.ReceivedCounter != nil {
		return fmt.Sprintf("%s (expected counter %d, received %d)",
			e.Message, *e.ExpectedCounter, *e.ReceivedCounter)
	}
	return e.Message
}

func New(base string) *Client {
	return &Client{
		base: base,
		http: http.DefaultClient,
	}
}

func (c *Client) Register(username, publicKey, signingPublicKey string) (*model.RegisterResponse, error) {
	req := model.RegisterRequest{
		Username:         username,
		PublicKey:        publicKey,
		SigningPublicKey: signingPublicKey,
	}
	var resp model.RegisterResponse
	if err := c.post("/api/register", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetUser(username string) (*model.UserResponse, error) {
	var resp model.UserResponse
	if err := c.get("/api/users/"+url.PathEscape(username), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) ListUsers() (*model.UserListResponse, error) {
	var resp model.UserListResponse
	if err := c.get("/api/users", &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) GetOrCreateSession(username1, username2 string) (*model.SessionResponse, error) {
	req := model.SessionRequest{Username1: username1, Username2: username2}
	var resp model.SessionResponse
	if err := c.post("/api/sessions", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) AdvanceCounter(username1, username2, fromUser string, counter int64) (*model.CounterResponse, error) {
	req := model.CounterRequest{
		Username1: username1,
		Username2: username2,
		Counter:   &counter,
		FromUser:  fromUser,
	}
	var resp model.CounterResponse
	if err := c.post("/api/sessions/counter", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) PostMessage(req model.SendMessageRequest) (*model.SendMessageResponse, error) {
	var resp model.SendMessageResponse
	if err := c.post("/api/messages", req, &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) FetchMessages(username string) (*model.MessageListResponse, error) {
	var resp model.MessageListResponse
	if err := c.get("/api/messages/"+url.PathEscape(username), &resp); err != nil {
		return nil, err
	}
	return &resp, nil
}

func (c *Client) Acknowledge(id string) error {
	req, err := http.NewRequest(http.MethodDelete, c.base+"/api/messages/"+url.PathEscape(id), nil)
	if err != nil {
		return err
	}
	return c.do(req, nil)
}

func (c *Client) get(path string, out any) error {
	req, err := http.NewRequest(http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) post(path string, in, out any) error {
	data, err := json.Marshal(in)
	if err != nil {
		return err
	}
	req, err := http.NewRequest(http.MethodPost, c.base+path, bytes.NewReader(data))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	defer io.Copy(io.Discard, resp.Body)

	if resp.StatusCode/100 != 2 {
		apiErr := &APIError{Status: resp.StatusCode, Message: resp.Status}
		var body model.ErrorResponse
		if err := json.NewDecoder(resp.Body).Decode(&body); err == nil && body.Error != "" {
			apiErr.Message = body.Error
			apiErr.ExpectedCounter = body.ExpectedCounter
			apiErr.ReceivedCounter = body.ReceivedCounter
		}
		return apiErr
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}
