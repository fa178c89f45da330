package server

import (
	"crypto/hmac"
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/wedsmoker/DiaryML/internal/store"
)

const (
	// hashIters is the work factor for stored password hashes.
	hashIters = 100000
	// tokenTTL is how long a mobile bearer token stays valid.
	tokenTTL = 30 * 24 * time.Hour
)

// handleUnlock verifies the password and marks the server unlocked. The
// very first unlock sets the password instead.
func (s *Server) handleUnlock(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}
	if req.Password == "" {
		http.Error(w, `{"error":"password required"}`, http.StatusBadRequest)
		return
	}

	stored, ok, err := s.db.GetMeta(store.MetaPasswordHash)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	firstTime := false
	if !ok {
		hash, err := hashPassword(req.Password)
		if err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		if err := s.db.SetMeta(store.MetaPasswordHash, hash); err != nil {
			http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
			return
		}
		firstTime = true
	} else if !verifyPassword(stored, req.Password) {
		http.Error(w, `{"error":"incorrect password"}`, http.StatusUnauthorized)
		return
	}

	s.authMu.Lock()
	s.unlocked = true
	s.authMu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"success":    true,
		"message":    "Diary unlocked successfully",
		"first_time": firstTime,
	})
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.authMu.Lock()
	unlocked := s.unlocked
	s.authMu.Unlock()

	_, hasPassword, _ := s.db.GetMeta(store.MetaPasswordHash)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"unlocked":  unlocked,
		"ai_loaded": s.currentLLM() != nil,
		"encrypted": hasPassword,
	})
}

// handleMobileLogin verifies the password and returns a signed bearer
// token, so the mobile app never stores the password itself.
func (s *Server) handleMobileLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, `{"error":"invalid json"}`, http.StatusBadRequest)
		return
	}

	stored, ok, err := s.db.GetMeta(store.MetaPasswordHash)
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}
	if !ok || !verifyPassword(stored, req.Password) {
		http.Error(w, `{"error":"incorrect password"}`, http.StatusUnauthorized)
		return
	}

	token, err := s.issueToken()
	if err != nil {
		http.Error(w, `{"error":"`+err.Error()+`"}`, http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"access_token": token,
		"token_type":   "bearer",
		"expires_in":   int(tokenTTL.Seconds()),
	})
}

// requireAuth admits requests while the server is unlocked, or when the
// request carries a valid mobile bearer token.
func (s *Server) requireAuth(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s.authMu.Lock()
		unlocked := s.unlocked
		s.authMu.Unlock()
		if unlocked {
			next.ServeHTTP(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); strings.HasPrefix(auth, "Bearer ") {
			if s.validToken(strings.TrimPrefix(auth, "Bearer ")) {
				next.ServeHTTP(w, r)
				return
			}
		}
		http.Error(w, `{"error":"diary is locked"}`, http.StatusUnauthorized)
	})
}

// issueToken mints "id.expiry.signature" with an HMAC over the first
// two parts. The signing secret lives in meta and is created on first use.
func (s *Server) issueToken() (string, error) {
	secret, err := s.tokenSecret()
	if err != nil {
		return "", err
	}
	payload := fmt.Sprintf("%s.%d", uuid.NewString(), time.Now().Add(tokenTTL).Unix())
	return payload + "." + signPayload(secret, payload), nil
}

func (s *Server) validToken(token string) bool {
	parts := strings.Split(token, ".")
	if len(parts) != 3 {
		return false
	}
	exp, err := strconv.ParseInt(parts[1], 10, 64)
	if err != nil || time.Now().Unix() > exp {
		return false
	}
	secret, err := s.tokenSecret()
	if err != nil {
		return false
	}
	want := signPayload(secret, parts[0]+"."+parts[1])
	return hmac.Equal([]byte(want), []byte(parts[2]))
}

func (s *Server) tokenSecret() ([]byte, error) {
	val, ok, err := s.db.GetMeta(store.MetaTokenSecret)
	if err != nil {
		return nil, fmt.Errorf("token secret: %w", err)
	}
	if !ok {
		buf := make([]byte, 32)
		if _, err := rand.Read(buf); err != nil {
			return nil, fmt.Errorf("token secret: %w", err)
		}
		val = hex.EncodeToString(buf)
		if err := s.db.SetMeta(store.MetaTokenSecret, val); err != nil {
			return nil, fmt.Errorf("token secret: %w", err)
		}
	}
	return []byte(val), nil
}

func signPayload(secret []byte, payload string) string {
	mac := hmac.New(sha256.New, secret)
	mac.Write([]byte(payload))
	return hex.EncodeToString(mac.Sum(nil))
}

// hashPassword derives "sha256:iters:salt:hash" from a fresh random salt.
func hashPassword(password string) (string, error) {
	salt := make([]byte, 16)
	if _, err := rand.Read(salt); err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}
	digest := iteratedHash(salt, password, hashIters)
	return fmt.Sprintf("sha256:%d:%s:%s",
		hashIters, hex.EncodeToString(salt), hex.EncodeToString(digest)), nil
}

func verifyPassword(stored, password string) bool {
	parts := strings.Split(stored, ":")
	if len(parts) != 4 || parts[0] != "sha256" {
		return false
	}
	iters, err := strconv.Atoi(parts[1])
	if err != nil || iters < 1 {
		return false
	}
	salt, err := hex.DecodeString(parts[2])
	if err != nil {
		return false
	}
	want, err := hex.DecodeString(parts[3])
	if err != nil {
		return false
	}
	got := iteratedHash(salt, password, iters)
	return subtle.ConstantTimeCompare(got, want) == 1
}

func iteratedHash(salt []byte, password string, iters int) []byte {
	buf := make([]byte, 0, len(salt)+len(password))
	buf = append(buf, salt...)
	buf = append(buf, password...)
	sum := sha256.Sum256(buf)
	for i := 1; i < iters; i++ {
		sum = sha256.Sum256(sum[:])
	}
	return sum[:]
}
