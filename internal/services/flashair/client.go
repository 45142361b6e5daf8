package flashair

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"shutterpro/internal/config"
	"shutterpro/internal/services"
)

const (
	listHeader    = "WLANSD_FILELIST"
	imageRoot     = "/DCIM"
	attrDirectory = 0x10
)

// HTTPDoer describes the HTTP client used by the wireless card service.
type HTTPDoer interface {
	Do(req *http.Request) (*http.Response, error)
}

// FileInfo describes a single remote file as reported by a listing.
type FileInfo struct {
	Name string
	Size int64
}

// Client speaks the wireless SD card's command.cgi listing protocol and
// fetches files over plain HTTP.
type Client struct {
	baseURL      string
	listTimeout  time.Duration
	fetchTimeout time.Duration
	client       HTTPDoer
}

// New constructs a card client from configuration.
func New(cfg *config.Config) *Client {
	return NewWithDoer(cfg, http.DefaultClient)
}

// NewWithDoer constructs a card client with a custom HTTP doer.
func NewWithDoer(cfg *config.Config, doer HTTPDoer) *Client {
	return &Client{
		baseURL:      strings.TrimRight(strings.TrimSpace(cfg.Remote.BaseURL), "/"),
		listTimeout:  time.Duration(cfg.Remote.ListTimeoutSeconds) * time.Second,
		fetchTimeout: time.Duration(cfg.Remote.FetchTimeoutSeconds) * time.Second,
		client:       doer,
	}
}

// Ping checks that the card answers a root listing request.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.ListDirectories(ctx)
	return err
}

// ListDirectories returns the directory names under /DCIM, in listing order.
func (c *Client) ListDirectories(ctx context.Context) ([]string, error) {
	entries, err := c.list(ctx, imageRoot)
	if err != nil {
		return nil, err
	}
	var dirs []string
	for _, entry := range entries {
		if entry.attr&attrDirectory != 0 {
			dirs = append(dirs, entry.name)
		}
	}
	return dirs, nil
}

// ListFiles returns the regular files inside a /DCIM subdirectory.
func (c *Client) ListFiles(ctx context.Context, dir string) ([]FileInfo, error) {
	entries, err := c.list(ctx, imageRoot+"/"+dir)
	if err != nil {
		return nil, err
	}
	var files []FileInfo
	for _, entry := range entries {
		if entry.attr&attrDirectory != 0 {
			continue
		}
		files = append(files, FileInfo{Name: entry.name, Size: entry.size})
	}
	return files, nil
}

// Size reports the currently listed size of a file, relisting its directory.
// A file absent from the listing is reported as size zero.
func (c *Client) Size(ctx context.Context, dir, name string) (int64, error) {
	files, err := c.ListFiles(ctx, dir)
	if err != nil {
		return 0, err
	}
	for _, file := range files {
		if file.Name == name {
			return file.Size, nil
		}
	}
	return 0, nil
}

// Fetch downloads a file's full contents.
func (c *Client) Fetch(ctx context.Context, dir, name string) ([]byte, error) {
	fetchCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	fileURL := fmt.Sprintf("%s%s/%s/%s", c.baseURL, imageRoot, url.PathEscape(dir), url.PathEscape(name))
	req, err := http.NewRequestWithContext(fetchCtx, http.MethodGet, fileURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "flashair", "fetch", "build fetch request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "flashair", "fetch", "fetch "+name, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "flashair", "fetch", fmt.Sprintf("fetch %s returned %d", name, resp.StatusCode), nil)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "flashair", "fetch", "read "+name, err)
	}
	return data, nil
}

type listEntry struct {
	name string
	size int64
	attr int64
}

func (c *Client) list(ctx context.Context, dir string) ([]listEntry, error) {
	listCtx, cancel := context.WithTimeout(ctx, c.listTimeout)
	defer cancel()

	listURL := fmt.Sprintf("%s/command.cgi?op=100&DIR=%s", c.baseURL, url.QueryEscape(dir))
	req, err := http.NewRequestWithContext(listCtx, http.MethodGet, listURL, nil)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "flashair", "list", "build listing request", err)
	}
	resp, err := c.client.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrTransient, "flashair", "list", "list "+dir, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrTransient, "flashair", "list", fmt.Sprintf("list %s returned %d", dir, resp.StatusCode), nil)
	}
	return parseListing(resp.Body), nil
}

// parseListing decodes the card's CSV listing format. Each data line is
// "dir,name,size,attribute,date,time"; malformed lines are skipped.
func parseListing(r io.Reader) []listEntry {
	var entries []listEntry
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || line == listHeader {
			continue
		}
		fields := strings.Split(line, ",")
		if len(fields) < 4 {
			continue
		}
		name := strings.TrimSpace(fields[1])
		if name == "" {
			continue
		}
		size, err := strconv.ParseInt(strings.TrimSpace(fields[2]), 10, 64)
		if err != nil {
			continue
		}
		attr, err := strconv.ParseInt(strings.TrimSpace(fields[3]), 10, 64)
		if err != nil {
			continue
		}
		entries = append(entries, listEntry{name: name, size: size, attr: attr})
	}
	return entries
}
