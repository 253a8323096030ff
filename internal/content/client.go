// Package content reads organisation files from the hosted content repository.
package content

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/nahidhasan98/orgsync/internal/config"
	"github.com/nahidhasan98/orgsync/internal/errors"
	"github.com/nahidhasan98/orgsync/internal/models"
)

// defaultMaxFileSize is the largest file Fetch accepts
const defaultMaxFileSize = 10 << 20

// Client fetches raw files and directory listings from the content host
type Client struct {
	http    *http.Client
	repo    config.RepositoryConfig
	now     func() time.Time
	maxSize int64
}

// New creates a content client for the configured repository
func New(repo config.RepositoryConfig) *Client {
	return &Client{
		http: &http.Client{Timeout: repo.HTTPTimeout},
		repo:    repo,
		now:     time.Now,
		maxSize: defaultMaxFileSize,
	}
}

// FileURL builds the raw URL of filename on the designated branch.
// The unix timestamp query defeats caching proxies in front of the host.
func (c *Client) FileURL(filename string) string {
	segments := strings.Split(strings.TrimPrefix(filename, "/"), "/")
	for i, s := range segments {
		segments[i] = url.PathEscape(s)
	}

	return fmt.Sprintf("%s/%s/%s/%s?%s",
		c.repo.ContentHost, c.repo.Path, c.repo.Branch,
		strings.Join(segments, "/"), strconv.FormatInt(c.now().Unix(), 10))
}

// Fetch downloads filename. Any status other than 200 is an error, and so is
// a body over the size limit.
func (c *Client) Fetch(ctx context.Context, filename string) ([]byte, error) {
	fileURL := c.FileURL(filename)

	resp, err := c.get(ctx, fileURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, c.maxSize+1))
	if err != nil {
		return nil, errors.Transport(err, fileURL)
	}
	if int64(len(body)) > c.maxSize {
		return nil, errors.FileTooLarge(fileURL, c.maxSize)
	}

	return body, nil
}

// ListJSONFiles lists the repository root and returns the names of entries
// containing ".json"
func (c *Client) ListJSONFiles(ctx context.Context) ([]string, error) {
	listURL := fmt.Sprintf("%s/repos/%s/contents/", c.repo.APIHost, c.repo.Path)

	resp, err := c.get(ctx, listURL)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var entries []models.ContentEntry
	if err := json.NewDecoder(resp.Body).Decode(&entries); err != nil {
		return nil, errors.MalformedPayload(err)
	}

	files := make([]string, 0, len(entries))
	for _, entry := range entries {
		if strings.Contains(entry.Name, ".json") {
			files = append(files, entry.Name)
		}
	}

	return files, nil
}

// get performs a GET with the configured user agent and expects a 200
func (c *Client) get(ctx context.Context, target string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, errors.Transport(err, target)
	}
	req.Header.Set("User-Agent", c.repo.UserAgent)

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, errors.Transport(err, target)
	}

	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, errors.ProtocolStatus(target, resp.StatusCode)
	}

	return resp, nil
}
