package api

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
)

type savedCookie struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// SaveSession writes the session cookies held for the API host to path so
// another process (CLI or TUI) can reuse the login.
func (c *Client) SaveSession(path string) error {
	cookies := c.http.Jar.Cookies(c.baseURL)
	saved := make([]savedCookie, 0, len(cookies))
	for _, ck := range cookies {
		saved = append(saved, savedCookie{Name: ck.Name, Value: ck.Value})
	}

	data, err := json.MarshalIndent(saved, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}
	return os.WriteFile(path, data, 0600)
}

// LoadSession restores cookies written by SaveSession. A missing file is not
// an error: the client simply has no session.
func (c *Client) LoadSession(path string) error {
	data, err := os.ReadFile(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return err
	}

	var saved []savedCookie
	if err := json.Unmarshal(data, &saved); err != nil {
		return fmt.Errorf("parse session file: %w", err)
	}

	cookies := make([]*http.Cookie, 0, len(saved))
	for _, s := range saved {
		cookies = append(cookies, &http.Cookie{Name: s.Name, Value: s.Value, Path: "/"})
	}
	c.http.Jar.SetCookies(c.baseURL, cookies)
	return nil
}

// ClearSession removes the session file.
func ClearSession(path string) error {
	err := os.Remove(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
