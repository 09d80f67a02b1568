package e2etest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	neturl "net/url"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/myrjola/casefile/internal/content"
	"github.com/myrjola/casefile/internal/errors"
	"github.com/myrjola/casefile/internal/framing"
	"github.com/myrjola/casefile/internal/game"
)

var ErrUnexpectedStatus = errors.NewSentinel("unexpected status code")

type Client struct {
	client *http.Client
	url    string
}

// insecureJar keeps Secure cookies on plain HTTP so that tests can talk to a local server.
type insecureJar struct {
	*cookiejar.Jar
}

func (j insecureJar) SetCookies(u *neturl.URL, cookies []*http.Cookie) {
	for _, c := range cookies {
		c.Secure = false
	}
	j.Jar.SetCookies(u, cookies)
}

// NewClient creates an HTTP client that keeps the session cookie between requests.
func NewClient(url string) (*Client, error) {
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, errors.Wrap(err, "new cookie jar")
	}
	return &Client{
		client: &http.Client{Jar: insecureJar{Jar: jar}},
		url:    url,
	}, nil
}

// WaitForReady calls the specified endpoint until it gets a HTTP 200 Success
// response or until the context is cancelled or the 1-second timeout is reached.
func (c *Client) WaitForReady(ctx context.Context, urlPath string) error {
	timeout := 1 * time.Second
	startTime := time.Now()
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	for {
		if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
			return errors.Wrap(err, "create request")
		}

		if resp, err = c.client.Do(req); err == nil {
			if resp.StatusCode == http.StatusOK {
				if err = resp.Body.Close(); err != nil {
					return errors.Wrap(err, "close response body")
				}
				return nil
			}
			if err = resp.Body.Close(); err != nil {
				return errors.Wrap(err, "close response body")
			}
		}
		select {
		case <-ctx.Done():
			return errors.Wrap(ctx.Err(), "context cancelled")
		default:
			if time.Since(startTime) >= timeout {
				return errors.New("timeout waiting for endpoint to be ready")
			}
			time.Sleep(100 * time.Millisecond) //nolint:mnd // 100ms
		}
	}
}

// Get fetches a URL and returns the response.
func (c *Client) Get(ctx context.Context, urlPath string) (*http.Response, error) {
	var (
		err  error
		req  *http.Request
		resp *http.Response
	)
	if req, err = c.newRequestWithContext(ctx, http.MethodGet, urlPath, nil); err != nil {
		return nil, errors.Wrap(err, "create request with context")
	}
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// Post sends in as JSON to urlPath and returns the response whatever its status. in may be nil.
func (c *Client) Post(ctx context.Context, urlPath string, in any) (*http.Response, error) {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return nil, errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequestWithContext(ctx, http.MethodPost, urlPath, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request with context")
	}
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	return resp, nil
}

// GetDoc fetches a URL and returns a goquery document.
func (c *Client) GetDoc(ctx context.Context, urlPath string) (*goquery.Document, error) {
	var (
		err  error
		resp *http.Response
		doc  *goquery.Document
	)
	if resp, err = c.Get(ctx, urlPath); err != nil {
		return nil, errors.Wrap(err, "client get")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, errors.Wrap(ErrUnexpectedStatus, "get document", slog.Int("status", resp.StatusCode))
	}
	if doc, err = goquery.NewDocumentFromReader(resp.Body); err != nil {
		return nil, errors.Wrap(err, "create document from reader")
	}
	return doc, nil
}

// GetJSON fetches urlPath and decodes the JSON body into out.
func (c *Client) GetJSON(ctx context.Context, urlPath string, out any) error {
	return c.doJSON(ctx, http.MethodGet, urlPath, nil, out)
}

// PostJSON posts in as JSON to urlPath and decodes the response into out. Both may be nil.
func (c *Client) PostJSON(ctx context.Context, urlPath string, in, out any) error {
	return c.doJSON(ctx, http.MethodPost, urlPath, in, out)
}

func (c *Client) doJSON(ctx context.Context, method, urlPath string, in, out any) error {
	var body io.Reader
	if in != nil {
		raw, err := json.Marshal(in)
		if err != nil {
			return errors.Wrap(err, "encode request")
		}
		body = bytes.NewReader(raw)
	}
	req, err := c.newRequestWithContext(ctx, method, urlPath, body)
	if err != nil {
		return errors.Wrap(err, "new request with context")
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return errors.Wrap(err, "do request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return errors.Wrap(ErrUnexpectedStatus, "json request",
			slog.String("path", urlPath), slog.Int("status", resp.StatusCode))
	}
	if out == nil {
		return nil
	}
	if err = json.NewDecoder(resp.Body).Decode(out); err != nil {
		return errors.Wrap(err, "decode response")
	}
	return nil
}

// newRequestWithContext creates a new HTTP request to the server that respects the given context.
func (c *Client) newRequestWithContext(
	ctx context.Context,
	method, urlPath string,
	body io.Reader,
) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.url+urlPath, body)
	if err != nil {
		return nil, errors.Wrap(err, "create request")
	}
	return req, nil
}

// NewGameResponse is returned when a game is started.
type NewGameResponse struct {
	GameID   string        `json:"game_id"`
	Progress game.Progress `json:"progress"`
}

// IntentResponse is returned for every applied or rejected intent.
type IntentResponse struct {
	Delta    game.Delta    `json:"delta"`
	Progress game.Progress `json:"progress"`
}

// EndingResponse describes how the case ended.
type EndingResponse struct {
	Kind  game.EndingKind `json:"kind"`
	Title string          `json:"title"`
	Text  string          `json:"text"`
	Score int             `json:"score"`
}

// FramingResponse is the player's view of the timed variant. Recap is set once the run has an outcome.
type FramingResponse struct {
	Applied bool           `json:"applied"`
	View    framing.View   `json:"view"`
	Recap   *framing.Recap `json:"recap,omitempty"`
}

// NewGame starts a new game bound to the client's session cookie.
func (c *Client) NewGame(ctx context.Context) (NewGameResponse, error) {
	var out NewGameResponse
	if err := c.PostJSON(ctx, "/api/games", nil, &out); err != nil {
		return out, errors.Wrap(err, "new game")
	}
	return out, nil
}

// Apply sends one intent to the current game.
func (c *Client) Apply(ctx context.Context, in game.Intent) (IntentResponse, error) {
	var out IntentResponse
	if err := c.PostJSON(ctx, "/api/game/intents", in, &out); err != nil {
		return out, errors.Wrap(err, "apply intent", slog.String("kind", string(in.Kind)))
	}
	return out, nil
}

// Progress fetches the current game's progress view.
func (c *Client) Progress(ctx context.Context) (game.Progress, error) {
	var out game.Progress
	if err := c.GetJSON(ctx, "/api/game", &out); err != nil {
		return out, errors.Wrap(err, "get progress")
	}
	return out, nil
}

// StartFraming starts or restarts the timed framing run of the current game.
func (c *Client) StartFraming(ctx context.Context) (FramingResponse, error) {
	var out FramingResponse
	if err := c.PostJSON(ctx, "/api/framing", nil, &out); err != nil {
		return out, errors.Wrap(err, "start framing")
	}
	return out, nil
}

// FramingStep sends one scripted framing action to the matching endpoint.
func (c *Client) FramingStep(ctx context.Context, step content.FramingStep) (FramingResponse, error) {
	var (
		out  FramingResponse
		path string
		body any
	)
	switch {
	case step.Choose != "":
		path, body = "/api/framing/choose", map[string]string{"edge_id": step.Choose}
	case step.Acknowledge:
		path = "/api/framing/acknowledge"
	case step.Backtrack:
		path = "/api/framing/backtrack"
	case step.Frame != "":
		path, body = "/api/framing/framing-choice", map[string]string{"framing_id": step.Frame}
	case step.Submit != nil:
		path, body = "/api/framing/submit", step.Submit
	default:
		return out, errors.New("empty framing step")
	}
	if err := c.PostJSON(ctx, path, body, &out); err != nil {
		return out, errors.Wrap(err, "framing step", slog.String("action", step.String()))
	}
	return out, nil
}

func (c *Client) extractCSRFToken(doc *goquery.Document, formActionURLPath string) (string, error) {
	formSelector := fmt.Sprintf("form[action='%s']", formActionURLPath)
	form := doc.Find(formSelector)
	csrfToken, ok := form.Find("input[name=csrf_token]").Attr("value")
	if !ok {
		return "", errors.New("csrf_token not found in form", slog.String("action", formActionURLPath))
	}
	return csrfToken, nil
}

// SubmitForm submits a form at formUrlPath with action formActionUrlPath and returns the response document.
func (c *Client) SubmitForm(
	ctx context.Context,
	formURLPath string,
	formActionURLPath string,
) (*goquery.Document, error) {
	var (
		doc *goquery.Document
		err error
	)
	if doc, err = c.GetDoc(ctx, formURLPath); err != nil {
		return nil, errors.Wrap(err, "get document")
	}

	// Extract CSRF token from the form.
	var csrfToken string
	if csrfToken, err = c.extractCSRFToken(doc, formActionURLPath); err != nil {
		return nil, errors.Wrap(err, "extract CSRF token")
	}

	// Build form data
	formData := neturl.Values{}
	formData.Add("csrf_token", csrfToken)
	data := strings.NewReader(formData.Encode())

	// Submit the form
	var req *http.Request
	if req, err = c.newRequestWithContext(ctx, http.MethodPost, formActionURLPath, data); err != nil {
		return nil, errors.Wrap(err, "new request with context")
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	// nosurf compares the Referer with the host on HTTPS requests only.
	req.Header.Set("Referer", c.url+formURLPath)
	var resp *http.Response
	if resp, err = c.client.Do(req); err != nil {
		return nil, errors.Wrap(err, "do request")
	}
	defer func() {
		_ = resp.Body.Close()
	}()
	if http.StatusOK != resp.StatusCode {
		return nil, errors.Wrap(ErrUnexpectedStatus, "submit form", slog.Int("status", resp.StatusCode))
	}

	// Parse the response
	if doc, err = goquery.NewDocumentFromReader(resp.Body); err != nil {
		return nil, errors.Wrap(err, "create document from reader")
	}
	return doc, nil
}
