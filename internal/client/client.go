package client

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/cookiejar"
	"net/url"

	"sealchat/internal/domain"
)

// Client talks to one server. The zero value is not usable; construct with
// New. Safe for concurrent use once logged in.
type Client struct {
	base string
	http *http.Client
}

// New returns a client for the server at base (e.g. http://127.0.0.1:8080).
func New(base string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	return &Client{base: base, http: &http.Client{Jar: jar}}, nil
}

// RegisterInput is the signup form.
type RegisterInput struct {
	Username           string `json:"username"`
	Email              string `json:"email"`
	Password           string `json:"password"`
	KyberPublicKey     string `json:"kyber_public_key"`
	DilithiumPublicKey string `json:"dilithium_public_key"`
}

// Registration is the server's answer to a successful signup.
type Registration struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	InviteCode string `json:"invite_code"`
}

// Session identifies the logged-in account after OTP verification. The
// session token itself travels in the cookie jar.
type Session struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

// Profile is the authenticated account's own view.
type Profile struct {
	UserID     string `json:"user_id"`
	Username   string `json:"username"`
	Email      string `json:"email"`
	InviteCode string `json:"invite_code"`
}

// Peer names another account.
type Peer struct {
	Username string `json:"username"`
	UserID   string `json:"user_id"`
}

// PublicKeys carries another account's registered key material.
type PublicKeys struct {
	KyberPublicKey     string `json:"kyber_public_key"`
	DilithiumPublicKey string `json:"dilithium_public_key"`
}

// Register creates an account.
func (c *Client) Register(ctx context.Context, in RegisterInput) (Registration, error) {
	var out Registration
	err := c.post(ctx, "/api/v1/auth/register", in, &out)
	return out, err
}

// Login starts the two-step login; on success the server emails an OTP.
func (c *Client) Login(ctx context.Context, username, password string) error {
	in := map[string]string{"username": username, "password": password}
	return c.post(ctx, "/api/v1/auth/login", in, nil)
}

// SendOTP re-issues the login code.
func (c *Client) SendOTP(ctx context.Context, username string) error {
	in := map[string]string{"username": username}
	return c.post(ctx, "/api/v1/auth/send-otp", in, nil)
}

// VerifyOTP completes the login. The session cookie lands in the jar.
func (c *Client) VerifyOTP(ctx context.Context, username, otp string) (Session, error) {
	var out Session
	in := map[string]string{"username": username, "otp": otp}
	err := c.post(ctx, "/api/v1/auth/verify-otp", in, &out)
	return out, err
}

// Me returns the authenticated account's profile.
func (c *Client) Me(ctx context.Context) (Profile, error) {
	var out Profile
	err := c.get(ctx, "/api/v1/user/me", &out)
	return out, err
}

// Connect redeems an invite code, creating a mutual contact.
func (c *Client) Connect(ctx context.Context, inviteCode string) (Peer, error) {
	var out Peer
	in := map[string]string{"invite_code": inviteCode}
	err := c.post(ctx, "/api/v1/user/connect", in, &out)
	return out, err
}

// Connections lists the account's contacts.
func (c *Client) Connections(ctx context.Context) ([]Peer, error) {
	var out struct {
		Connections []Peer `json:"connections"`
	}
	err := c.get(ctx, "/api/v1/user/connections", &out)
	return out.Connections, err
}

// Keys fetches another account's public keys.
func (c *Client) Keys(ctx context.Context, userID string) (PublicKeys, error) {
	var out PublicKeys
	err := c.get(ctx, "/api/v1/user/keys/"+url.PathEscape(userID), &out)
	return out, err
}

// Messages returns the stored conversation with peer, oldest first.
func (c *Client) Messages(ctx context.Context, peerID string) ([]domain.MessageRecord, error) {
	var out struct {
		Messages []domain.MessageRecord `json:"messages"`
	}
	err := c.get(ctx, "/api/v1/messages/"+url.PathEscape(peerID), &out)
	return out.Messages, err
}

func (c *Client) post(ctx context.Context, path string, in, out any) error {
	buf := new(bytes.Buffer)
	if err := json.NewEncoder(buf).Encode(in); err != nil {
		return err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, buf)
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")
	return c.do(req, out)
}

func (c *Client) get(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.base+path, nil)
	if err != nil {
		return err
	}
	return c.do(req, out)
}

func (c *Client) do(req *http.Request, out any) error {
	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode/100 != 2 {
		var apiErr struct {
			Detail string `json:"detail"`
		}
		if json.NewDecoder(resp.Body).Decode(&apiErr) == nil && apiErr.Detail != "" {
			return &APIError{Status: resp.StatusCode, Detail: apiErr.Detail}
		}
		return &APIError{Status: resp.StatusCode, Detail: resp.Status}
	}
	if out != nil {
		return json.NewDecoder(resp.Body).Decode(out)
	}
	return nil
}

// APIError is a non-2xx REST response.
type APIError struct {
	Status int
	Detail string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("api error %d: %s", e.Status, e.Detail)
}
