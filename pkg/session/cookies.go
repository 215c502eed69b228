package session

import (
	"bytes"
	"encoding/gob"
	"net/http"
	"os"
)

// Cookies are persisted gob-encoded so a later run can resume the trusted
// session without logging in again.

func (s *Session) loadCookies() error {
	data, err := os.ReadFile(s.cookieFile)
	if err != nil {
		return err
	}
	var cookies []*http.Cookie
	if err := gob.NewDecoder(bytes.NewReader(data)).Decode(&cookies); err != nil {
		return err
	}
	s.http.GetClient().Jar.SetCookies(s.base, cookies)
	return nil
}

func (s *Session) saveCookies() error {
	cookies := s.http.GetClient().Jar.Cookies(s.base)
	var buf bytes.Buffer
	if err := gob.NewEncoder(&buf).Encode(cookies); err != nil {
		return err
	}
	return os.WriteFile(s.cookieFile, buf.Bytes(), 0o600)
}
