package gridfolio

import (
	"bufio"
	"bytes"
	"crypto/sha1"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httputil"
	"os"
	"path/filepath"
	"time"
)

// http utils to deal with remote feeds.

// feedCache caches HTTP responses on disk. Keys include the current day, so
// a cached feed expires at midnight.
type feedCache struct {
	base http.RoundTripper
}

func (c *feedCache) cachePath(req *http.Request) string {
	key := fmt.Sprintf("%s %s %s", time.Now().Format("2006-01-02"), req.Method, req.URL.String())
	return filepath.Join(os.TempDir(), fmt.Sprintf("%x", sha1.Sum([]byte(key))))
}

func (c *feedCache) RoundTrip(req *http.Request) (*http.Response, error) {
	file := c.cachePath(req)
	if content, err := os.ReadFile(file); err == nil {
		return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
	}

	resp, err := c.base.RoundTrip(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode >= 300 {
		return resp, nil
	}

	content, err := httputil.DumpResponse(resp, true)
	if err != nil {
		return resp, err
	}
	if err := os.WriteFile(file, content, 0644); err != nil {
		// a failed cache write is not an error for the caller
		fmt.Fprintf(os.Stderr, "warning: cache write failed: %v\n", err)
	}
	return http.ReadResponse(bufio.NewReader(bytes.NewReader(content)), req)
}

// feedClient returns an http client whose responses are cached for a day.
func feedClient() *http.Client {
	return &http.Client{Transport: &feedCache{http.DefaultTransport}}
}

// getJSON performs an HTTP GET request and unmarshals the JSON response.
func getJSON(client *http.Client, addr string, data any) error {
	resp, err := client.Get(addr)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("cannot http GET %v: %v", addr, resp.Status)
	}
	return json.NewDecoder(resp.Body).Decode(data)
}
