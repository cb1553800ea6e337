package users

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
)

var (
	ErrUserExists     = errors.New("用户名已存在")
	ErrBadCredentials = errors.New("unknown user or wrong password")

	// ErrStorage marks I/O trouble with the users file, as opposed to a
	// validation failure the caller should show the user.
	ErrStorage = errors.New("user store unavailable")
)

// User is one registered account.
type User struct {
	PasswordHash string     `json:"password_hash"`
	CreatedAt    time.Time  `json:"created_at"`
	LastLogin    *time.Time `json:"last_login,omitempty"`
}

// Store keeps accounts in a single users.json under the users folder,
// loaded and rewritten whole on each change like the original system.
// It only vouches for credentials; nothing downstream enforces auth, the
// realtime core trusts whatever display name the client presents.
type Store struct {
	mu   sync.Mutex
	path string
	log  *zap.Logger
}

func NewStore(dir string, log *zap.Logger) (*Store, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create users folder: %w", err)
	}
	return &Store{path: filepath.Join(dir, "users.json"), log: log}, nil
}

// ValidateUsername enforces 3-20 characters of letters, digits and
// underscores.
func ValidateUsername(username string) error {
	username = strings.TrimSpace(username)
	if username == "" {
		return errors.New("用户名不能为空")
	}
	if len([]rune(username)) < 3 {
		return errors.New("用户名至少需要3个字符")
	}
	if len([]rune(username)) > 20 {
		return errors.New("用户名不能超过20个字符")
	}
	for _, r := range username {
		if r != '_' && !isAlnum(r) {
			return errors.New("用户名只能包含字母、数字和下划线")
		}
	}
	return nil
}

// ValidatePassword enforces 6-50 characters.
func ValidatePassword(password string) error {
	if password == "" {
		return errors.New("密码不能为空")
	}
	if len(password) < 6 {
		return errors.New("密码至少需要6个字符")
	}
	if len(password) > 50 {
		return errors.New("密码不能超过50个字符")
	}
	return nil
}

func isAlnum(r rune) bool {
	return (r >= 'a' && r <= 'z') || (r >= 'A' && r <= 'Z') || (r >= '0' && r <= '9')
}

func hashPassword(password string) string {
	sum := sha256.Sum256([]byte(password))
	return hex.EncodeToString(sum[:])
}

// Register creates an account after validating both fields.
func (s *Store) Register(username, password string) error {
	username = strings.TrimSpace(username)
	if err := ValidateUsername(username); err != nil {
		return err
	}
	if err := ValidatePassword(password); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	if _, ok := all[username]; ok {
		return ErrUserExists
	}
	all[username] = &User{
		PasswordHash: hashPassword(password),
		CreatedAt:    time.Now(),
	}
	if err := s.save(all); err != nil {
		return err
	}
	s.log.Info("user registered", zap.String("username", username))
	return nil
}

// Authenticate verifies credentials and records the login time.
func (s *Store) Authenticate(username, password string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.load()
	if err != nil {
		return err
	}
	u, ok := all[strings.TrimSpace(username)]
	if !ok || u.PasswordHash != hashPassword(password) {
		return ErrBadCredentials
	}
	now := time.Now()
	u.LastLogin = &now
	return s.save(all)
}

func (s *Store) load() (map[string]*User, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]*User{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: load: %v", ErrStorage, err)
	}
	all := map[string]*User{}
	if len(data) > 0 {
		if err := json.Unmarshal(data, &all); err != nil {
			return nil, fmt.Errorf("%w: load: %v", ErrStorage, err)
		}
	}
	return all, nil
}

func (s *Store) save(all map[string]*User) error {
	data, err := json.MarshalIndent(all, "", "  ")
	if err != nil {
		return fmt.Errorf("%w: save: %v", ErrStorage, err)
	}
	if err := os.WriteFile(s.path, data, 0o644); err != nil {
		return fmt.Errorf("%w: save: %v", ErrStorage, err)
	}
	return nil
}
