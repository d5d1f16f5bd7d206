package client

import (
	"os"
	"strings"
)

// Session holds the authenticated identity for one user. It is created at
// startup and passed to the client explicitly; there is no package-level
// auth state to mutate from a distance.
type Session struct {
	Token  string
	UserID string
}

func (s *Session) Authenticated() bool {
	return s != nil && s.Token != ""
}

// TokenStore persists a session between runs, e.g. a token file. The
// client calls Clear on logout and on session expiry.
type TokenStore interface {
	Load() (token, userID string, err error)
	Save(token, userID string) error
	Clear() error
}

// Hydrate rebuilds a session from the store. A store with no saved token
// yields a nil session, which the client treats as signed-out.
func Hydrate(store TokenStore) (*Session, error) {
	token, userID, err := store.Load()
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, nil
	}
	return &Session{Token: token, UserID: userID}, nil
}

// FileTokenStore persists the session as a two-line file.
type FileTokenStore struct {
	Path string
}

func (f *FileTokenStore) Load() (string, string, error) {
	data, err := os.ReadFile(f.Path)
	if os.IsNotExist(err) {
		return "", "", nil
	}
	if err != nil {
		return "", "", err
	}
	parts := strings.SplitN(strings.TrimSpace(string(data)), "\n", 2)
	if len(parts) != 2 {
		return "", "", nil
	}
	return parts[0], parts[1], nil
}

func (f *FileTokenStore) Save(token, userID string) error {
	return os.WriteFile(f.Path, []byte(token+"\n"+userID), 0600)
}

func (f *FileTokenStore) Clear() error {
	err := os.Remove(f.Path)
	if os.IsNotExist(err) {
		return nil
	}
	return err
}
