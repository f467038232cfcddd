package api

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"golang.org/x/mod/semver"
	"golang.org/x/sync/singleflight"

	"github.com/abhisek/cognigen/internal/content"
	"github.com/abhisek/cognigen/internal/logger"
)

// VersionHeader carries the server's API version.
const VersionHeader = "X-API-Version"

// Config configures the HTTP client.
type Config struct {
	BaseURL string

	// Timeout bounds ordinary requests.
	Timeout time.Duration

	// GenerateTimeout bounds path generation, which can take minutes.
	GenerateTimeout time.Duration

	// MinServerVersion is the oldest server API accepted ("" disables the check).
	MinServerVersion string
}

// DefaultConfig returns the client defaults.
func DefaultConfig() Config {
	return Config{
		BaseURL:          "http://localhost:5000/api",
		Timeout:          30 * time.Second,
		GenerateTimeout:  5 * time.Minute,
		MinServerVersion: "v1.0.0",
	}
}

// Client talks JSON over HTTP to the learning API. It keeps the session cookie
// in a jar. It performs no retries.
type Client struct {
	cfg  Config
	base *url.URL
	http *http.Client
	log  *logger.Logger

	fetches singleflight.Group
}

var (
	_ Remote     = (*Client)(nil)
	_ AuthRemote = (*Client)(nil)
)

// NewClient builds a client for cfg.BaseURL.
func NewClient(cfg Config, log *logger.Logger) (*Client, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = DefaultConfig().BaseURL
	}
	base, err := url.Parse(strings.TrimRight(cfg.BaseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultConfig().Timeout
	}
	if cfg.GenerateTimeout <= 0 {
		cfg.GenerateTimeout = DefaultConfig().GenerateTimeout
	}
	if cfg.MinServerVersion != "" && !semver.IsValid(cfg.MinServerVersion) {
		return nil, fmt.Errorf("invalid minimum server version %q", cfg.MinServerVersion)
	}
	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, fmt.Errorf("cookie jar: %w", err)
	}
	return &Client{
		cfg:  cfg,
		base: base,
		http: &http.Client{Jar: jar},
		log:  logger.OrNop(log).With("component", "api"),
	}, nil
}

// SessionCookie returns the value of the named cookie held for the API host.
func (c *Client) SessionCookie(name string) string {
	for _, ck := range c.http.Jar.Cookies(c.base) {
		if ck.Name == name {
			return ck.Value
		}
	}
	return ""
}

func (c *Client) ListPaths(ctx context.Context) ([]content.Path, error) {
	raw, err := c.do(ctx, http.MethodGet, "/learning-paths", nil, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	var paths []content.Path
	if err := unwrap(raw, "paths", &paths); err != nil {
		return nil, err
	}
	return paths, nil
}

// FetchPath loads one full path. Concurrent fetches of the same id share one
// request; each caller gets its own copy.
func (c *Client) FetchPath(ctx context.Context, pathID string) (*content.Path, error) {
	v, err, _ := c.fetches.Do(pathID, func() (any, error) {
		raw, err := c.do(ctx, http.MethodGet, "/learning-paths/"+url.PathEscape(pathID), nil, c.cfg.Timeout)
		if err != nil {
			return nil, err
		}
		return decodePath(raw)
	})
	if err != nil {
		return nil, err
	}
	return v.(*content.Path).Clone(), nil
}

func (c *Client) GeneratePath(ctx context.Context, params GenerateParams) (*content.Path, error) {
	raw, err := c.do(ctx, http.MethodPost, "/learning-paths/generate", params, c.cfg.GenerateTimeout)
	if err != nil {
		return nil, err
	}
	p, err := decodePath(raw)
	if err != nil {
		return nil, err
	}
	if p.Status == "" {
		p.Status = content.StatusDraft
	}
	return p, nil
}

func (c *Client) UpdatePathTitle(ctx context.Context, pathID, title string) (*content.Path, error) {
	raw, err := c.do(ctx, http.MethodPatch, "/learning-paths/"+url.PathEscape(pathID), map[string]string{"title": title}, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return decodePath(raw)
}

func (c *Client) DeletePath(ctx context.Context, pathID string) error {
	_, err := c.do(ctx, http.MethodDelete, "/learning-paths/"+url.PathEscape(pathID), nil, c.cfg.Timeout)
	return err
}

// topicBody is the full topic state sent on create and update.
type topicBody struct {
	Name                 string              `json:"name"`
	Difficulty           content.Difficulty  `json:"difficulty"`
	EstimatedTimeMinutes int                 `json:"estimatedTimeMinutes"`
	Submodules           []content.Submodule `json:"submodules"`
}

func newTopicBody(t content.Topic) topicBody {
	return topicBody{
		Name:                 t.Name,
		Difficulty:           t.Difficulty,
		EstimatedTimeMinutes: t.EstimatedTimeMinutes,
		Submodules:           t.Submodules,
	}
}

func (c *Client) AddTopic(ctx context.Context, pathID string, topic content.Topic) (*content.Topic, error) {
	raw, err := c.do(ctx, http.MethodPost, topicsURL(pathID), newTopicBody(topic), c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	var out content.Topic
	if err := unwrap(raw, "topic", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdateTopic(ctx context.Context, pathID string, topic content.Topic) (*content.Topic, error) {
	raw, err := c.do(ctx, http.MethodPatch, topicURL(pathID, topic.ID), newTopicBody(topic), c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	var out content.Topic
	if err := unwrap(raw, "topic", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) DeleteTopic(ctx context.Context, pathID, topicID string) error {
	_, err := c.do(ctx, http.MethodDelete, topicURL(pathID, topicID), nil, c.cfg.Timeout)
	return err
}

func (c *Client) ReorderTopics(ctx context.Context, pathID string, orderedIDs []string) ([]content.Topic, error) {
	body := map[string][]string{"orderedTopicIds": orderedIDs}
	raw, err := c.do(ctx, http.MethodPatch, "/learning-paths/"+url.PathEscape(pathID)+"/reorder-topics", body, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	var topics []content.Topic
	if err := unwrap(raw, "topics", &topics); err != nil {
		return nil, err
	}
	return topics, nil
}

func (c *Client) ReorderSubmodules(ctx context.Context, pathID, topicID string, orderedIDs []string) ([]content.Submodule, error) {
	body := map[string][]string{"orderedSubmoduleIds": orderedIDs}
	raw, err := c.do(ctx, http.MethodPatch, topicURL(pathID, topicID)+"/reorder-submodules", body, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	var subs []content.Submodule
	if err := unwrap(raw, "submodules", &subs); err != nil {
		return nil, err
	}
	return subs, nil
}

func (c *Client) GenerateTopicContent(ctx context.Context, pathID, topicID string, subs []SubmoduleOutline) (*content.Topic, error) {
	body := map[string][]SubmoduleOutline{"submodules": subs}
	raw, err := c.do(ctx, http.MethodPost, topicURL(pathID, topicID)+"/generate-content", body, c.cfg.GenerateTimeout)
	if err != nil {
		return nil, err
	}
	var out content.Topic
	if err := unwrap(raw, "updatedTopic", &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) GenerateQuiz(ctx context.Context, pathID, topicID, subID string) ([]content.QuizQuestion, error) {
	raw, err := c.do(ctx, http.MethodPost, subURL(SubmoduleRef{PathID: pathID, TopicID: topicID, SubID: subID})+"/generate-quiz", nil, c.cfg.GenerateTimeout)
	if err != nil {
		return nil, err
	}
	var qs []content.QuizQuestion
	if err := unwrap(raw, "miniQuiz", &qs); err != nil {
		return nil, err
	}
	return qs, nil
}

func (c *Client) MarkComplete(ctx context.Context, pathID, topicID, subID string) (*content.Path, error) {
	raw, err := c.do(ctx, http.MethodPatch, subURL(SubmoduleRef{PathID: pathID, TopicID: topicID, SubID: subID})+"/complete", nil, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	return decodePath(raw)
}

func (c *Client) AddCell(ctx context.Context, ref SubmoduleRef, cell content.Cell, position int) ([]content.Cell, error) {
	body := struct {
		Cell     content.Cell `json:"cell"`
		Position int          `json:"position"`
	}{cell, position}
	return c.cellsCall(ctx, http.MethodPost, subURL(ref)+"/cells", body)
}

func (c *Client) EditCell(ctx context.Context, ref SubmoduleRef, index int, text string) ([]content.Cell, error) {
	body := map[string]string{"content": text}
	return c.cellsCall(ctx, http.MethodPatch, fmt.Sprintf("%s/cells/%d", subURL(ref), index), body)
}

func (c *Client) DeleteCell(ctx context.Context, ref SubmoduleRef, index int) ([]content.Cell, error) {
	return c.cellsCall(ctx, http.MethodDelete, fmt.Sprintf("%s/cells/%d", subURL(ref), index), nil)
}

func (c *Client) cellsCall(ctx context.Context, method, path string, body any) ([]content.Cell, error) {
	raw, err := c.do(ctx, method, path, body, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	var cells []content.Cell
	if err := unwrap(raw, "cells", &cells); err != nil {
		return nil, err
	}
	if cells == nil {
		cells = []content.Cell{}
	}
	return cells, nil
}

func (c *Client) Me(ctx context.Context) (*User, error) {
	return c.userCall(ctx, http.MethodGet, "/auth/me", nil)
}

func (c *Client) Login(ctx context.Context, email, password string) (*User, error) {
	return c.userCall(ctx, http.MethodPost, "/auth/login", map[string]string{"email": email, "password": password})
}

func (c *Client) Signup(ctx context.Context, name, email, password string) (*User, error) {
	return c.userCall(ctx, http.MethodPost, "/auth/signup", map[string]string{"name": name, "email": email, "password": password})
}

func (c *Client) Logout(ctx context.Context) error {
	_, err := c.do(ctx, http.MethodPost, "/auth/logout", nil, c.cfg.Timeout)
	return err
}

func (c *Client) userCall(ctx context.Context, method, path string, body any) (*User, error) {
	raw, err := c.do(ctx, method, path, body, c.cfg.Timeout)
	if err != nil {
		return nil, err
	}
	var u *User
	if err := unwrap(raw, "user", &u); err != nil {
		return nil, err
	}
	if u == nil {
		return nil, &Error{Status: http.StatusUnauthorized, Err: ErrUnauthorized}
	}
	return u, nil
}

// do performs one request and returns the raw response body for 2xx answers.
func (c *Client) do(ctx context.Context, method, path string, body any, timeout time.Duration) (json.RawMessage, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var reader io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		reader = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.base.String()+path, reader)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if method != http.MethodGet {
		if key := IdempotencyKeyFrom(ctx); key != "" {
			req.Header.Set("Idempotency-Key", key)
		}
	}

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		c.log.Warn("request failed", "method", method, "path", path, "error", err)
		return nil, fmt.Errorf("%s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	c.log.Debug("request", "method", method, "path", path, "status", resp.StatusCode,
		"latency_ms", time.Since(start).Milliseconds())

	if err := c.checkVersion(resp.Header.Get(VersionHeader)); err != nil {
		return nil, err
	}

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(raw), Err: ErrUnauthorized}
	}
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &Error{Status: resp.StatusCode, Message: errorMessage(raw)}
	}
	return raw, nil
}

func (c *Client) checkVersion(have string) error {
	want := c.cfg.MinServerVersion
	if want == "" || have == "" {
		return nil
	}
	if !strings.HasPrefix(have, "v") {
		have = "v" + have
	}
	if !semver.IsValid(have) || semver.Compare(have, want) < 0 {
		return &ErrIncompatibleServer{Have: have, Want: want}
	}
	return nil
}

func errorMessage(raw []byte) string {
	var body struct {
		Message string `json:"message"`
		Error   string `json:"error"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Message != "" {
			return body.Message
		}
		return body.Error
	}
	return strings.TrimSpace(string(raw))
}

func decodePath(raw json.RawMessage) (*content.Path, error) {
	doc := unwrapRaw(raw, "path")
	if err := ValidatePath(doc); err != nil {
		return nil, err
	}
	var p content.Path
	if err := json.Unmarshal(doc, &p); err != nil {
		return nil, fmt.Errorf("decode path: %w", err)
	}
	return &p, nil
}

func topicsURL(pathID string) string {
	return "/learning-paths/" + url.PathEscape(pathID) + "/topics"
}

func topicURL(pathID, topicID string) string {
	return topicsURL(pathID) + "/" + url.PathEscape(topicID)
}

func subURL(ref SubmoduleRef) string {
	return topicURL(ref.PathID, ref.TopicID) + "/submodules/" + url.PathEscape(ref.SubID)
}
