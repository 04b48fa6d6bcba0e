// Package blogtest runs an in-process fake of the blog API for tests.
// It issues real HS256 JWTs and lets a test expire or reject them on demand.
package blogtest

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Categories accepted when creating or editing a post.
var Categories = []string{"programming", "django", "python", "web", "other"}

// Request is one request the server received.
type Request struct {
	Method        string
	Path          string
	Authorization string
	RefreshCookie string
	RequestID     string
}

// User is a registered account.
type User struct {
	ID       int    `json:"id"`
	Username string `json:"username"`
	Email    string `json:"email"`
	password string
}

// Post mirrors the API's post representation.
type Post struct {
	ID            int    `json:"id"`
	Title         string `json:"title"`
	Content       string `json:"content"`
	Category      string `json:"category"`
	AuthorID      int    `json:"author_id"`
	AuthorName    string `json:"author_name"`
	CreatedAt     string `json:"created_at"`
	CommentsCount int    `json:"comments_count"`
}

// Comment mirrors the API's comment representation.
type Comment struct {
	ID         int    `json:"id"`
	Text       string `json:"text"`
	AuthorID   int    `json:"author_id"`
	AuthorName string `json:"author_name"`
	PostID     int    `json:"post_id"`
	CreatedAt  string `json:"created_at"`
}

type tokenClaims struct {
	Username string `json:"username"`
	Type     string `json:"type"`
	jwt.RegisteredClaims
}

type failure struct {
	status int
	detail string
}

// Server is a fake blog API. Create one with New and Close it when done.
type Server struct {
	*httptest.Server

	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration

	mu           sync.Mutex
	users        map[string]*User
	posts        map[int]*Post
	comments     map[int]*Comment
	access       map[string]int
	refresh      map[string]int
	requests     []Request
	failures     map[string]failure
	failRefresh  bool
	refreshCalls int
	nextUser     int
	nextPost     int
	nextComment  int
}

// New starts a fake API server.
func New() *Server {
	s := &Server{
		secret:     []byte("blogtest-" + uuid.NewString()),
		accessTTL:  15 * time.Minute,
		refreshTTL: 7 * 24 * time.Hour,
		users:      map[string]*User{},
		posts:      map[int]*Post{},
		comments:   map[int]*Comment{},
		access:     map[string]int{},
		refresh:    map[string]int{},
		failures:   map[string]failure{},
	}
	s.Server = httptest.NewServer(s.routes())
	return s
}

func (s *Server) routes() http.Handler {
	r := mux.NewRouter()
	r.Use(s.record)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/login", s.handleLogin).Methods(http.MethodPost)
	api.HandleFunc("/register", s.handleRegister).Methods(http.MethodPost)
	api.HandleFunc("/logout", s.handleLogout).Methods(http.MethodPost)
	api.HandleFunc("/token/refresh", s.handleRefresh).Methods(http.MethodPost)
	api.Handle("/me", s.requireAuth(s.handleMe)).Methods(http.MethodGet)

	r.HandleFunc("/articles/", s.handleListPosts).Methods(http.MethodGet)
	r.Handle("/articles/", s.requireAuth(s.handleCreatePost)).Methods(http.MethodPost)
	r.HandleFunc("/articles/category/{category}", s.handleListByCategory).Methods(http.MethodGet)
	r.HandleFunc("/articles/{id:[0-9]+}", s.handleGetPost).Methods(http.MethodGet)
	r.Handle("/articles/{id:[0-9]+}", s.requireAuth(s.handleUpdatePost)).Methods(http.MethodPut)
	r.Handle("/articles/{id:[0-9]+}", s.requireAuth(s.handleDeletePost)).Methods(http.MethodDelete)
	r.HandleFunc("/articles/{id:[0-9]+}/comments", s.handleListComments).Methods(http.MethodGet)

	r.HandleFunc("/comments/", s.handleAllComments).Methods(http.MethodGet)
	r.Handle("/comments/", s.requireAuth(s.handleCreateComment)).Methods(http.MethodPost)
	r.Handle("/comments/{id:[0-9]+}", s.requireAuth(s.handleUpdateComment)).Methods(http.MethodPut)
	r.Handle("/comments/{id:[0-9]+}", s.requireAuth(s.handleDeleteComment)).Methods(http.MethodDelete)

	r.HandleFunc("/categories/", s.handleCategories).Methods(http.MethodGet)

	r.NotFoundHandler = http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeDetail(w, http.StatusNotFound, "Not Found")
	})
	return r
}

// --- test hooks ---

// AddUser registers an account and returns it.
func (s *Server) AddUser(username, password string) User {
	s.mu.Lock()
	defer s.mu.Unlock()
	return *s.addUserLocked(username, "", password)
}

// AddPost stores a post written by author, who must exist.
func (s *Server) AddPost(author, title, content, category string) Post {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[author]
	if u == nil {
		u = s.addUserLocked(author, "", "password")
	}
	return *s.addPostLocked(u, title, content, category)
}

// AddComment stores a comment on postID written by author.
func (s *Server) AddComment(author string, postID int, text string) Comment {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[author]
	if u == nil {
		u = s.addUserLocked(author, "", "password")
	}
	return *s.addCommentLocked(u, postID, text)
}

// IssueTokens mints a token pair for an existing user, as a login would.
func (s *Server) IssueTokens(username string) (access, refresh string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u := s.users[username]
	if u == nil {
		u = s.addUserLocked(username, "", "password")
	}
	return s.issueLocked(u)
}

// ExpireAccessTokens invalidates every access token issued so far.
func (s *Server) ExpireAccessTokens() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.access = map[string]int{}
}

// FailRefresh makes the refresh endpoint reject every refresh token.
func (s *Server) FailRefresh(fail bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failRefresh = fail
}

// FailPath makes every request to method+path answer with status.
func (s *Server) FailPath(method, path string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[method+" "+path] = failure{status: status, detail: http.StatusText(status)}
}

// RefreshCalls is the number of requests to the refresh endpoint.
func (s *Server) RefreshCalls() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.refreshCalls
}

// Requests returns a copy of every request received so far.
func (s *Server) Requests() []Request {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Request, len(s.requests))
	copy(out, s.requests)
	return out
}

// RequestsTo returns the recorded requests matching method and path.
func (s *Server) RequestsTo(method, path string) []Request {
	var out []Request
	for _, r := range s.Requests() {
		if r.Method == method && r.Path == path {
			out = append(out, r)
		}
	}
	return out
}

// ResetRequests forgets recorded requests and the refresh counter.
func (s *Server) ResetRequests() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.requests = nil
	s.refreshCalls = 0
}

// --- middleware ---

func (s *Server) record(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		rec := Request{
			Method:        r.Method,
			Path:          r.URL.Path,
			Authorization: r.Header.Get("Authorization"),
			RequestID:     r.Header.Get("X-Request-ID"),
		}
		if c, err := r.Cookie("refresh_token"); err == nil {
			rec.RefreshCookie = c.Value
		}
		s.mu.Lock()
		s.requests = append(s.requests, rec)
		if r.URL.Path == "/api/token/refresh" {
			s.refreshCalls++
		}
		f, failing := s.failures[r.Method+" "+r.URL.Path]
		s.mu.Unlock()

		if failing {
			writeDetail(w, f.status, f.detail)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type authedHandler func(w http.ResponseWriter, r *http.Request, u *User)

func (s *Server) requireAuth(h authedHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		raw, ok := strings.CutPrefix(r.Header.Get("Authorization"), "Bearer ")
		if !ok || raw == "" {
			writeDetail(w, http.StatusUnauthorized, "Missing token")
			return
		}
		claims, err := s.parse(raw, "access")
		s.mu.Lock()
		userID, active := s.access[raw]
		u := s.userByIDLocked(userID)
		s.mu.Unlock()
		if err != nil || !active || u == nil || claims.Username != u.Username {
			writeDetail(w, http.StatusUnauthorized, "Invalid or expired token")
			return
		}
		h(w, r, u)
	})
}

// --- auth handlers ---

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if !decode(w, r, &in) {
		return
	}
	s.mu.Lock()
	u := s.users[in.Username]
	if u == nil || u.password != in.Password {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Incorrect username or password")
		return
	}
	access, refresh := s.issueLocked(u)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var in struct {
		Username  string `json:"username"`
		Email     string `json:"email"`
		Password1 string `json:"password1"`
		Password2 string `json:"password2"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Password1 != in.Password2 {
		writeDetail(w, http.StatusBadRequest, "Passwords do not match")
		return
	}
	s.mu.Lock()
	if _, taken := s.users[in.Username]; taken {
		s.mu.Unlock()
		writeDetail(w, http.StatusBadRequest, "Username already registered")
		return
	}
	u := s.addUserLocked(in.Username, in.Email, in.Password1)
	access, refresh := s.issueLocked(u)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) handleLogout(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"message": "Successfully logged out"})
}

func (s *Server) handleRefresh(w http.ResponseWriter, r *http.Request) {
	var raw string
	if c, err := r.Cookie("refresh_token"); err == nil {
		raw = c.Value
	}
	if raw == "" {
		writeDetail(w, http.StatusUnauthorized, "Refresh token missing")
		return
	}
	_, err := s.parse(raw, "refresh")

	s.mu.Lock()
	userID, active := s.refresh[raw]
	u := s.userByIDLocked(userID)
	if err != nil || !active || u == nil || s.failRefresh {
		s.mu.Unlock()
		writeDetail(w, http.StatusUnauthorized, "Invalid or expired refresh token")
		return
	}
	delete(s.refresh, raw)
	access, refresh := s.issueLocked(u)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, map[string]string{"access": access, "refresh": refresh})
}

func (s *Server) handleMe(w http.ResponseWriter, _ *http.Request, u *User) {
	writeJSON(w, http.StatusOK, u)
}

// --- posts ---

func (s *Server) handleListPosts(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := s.postsLocked(func(*Post) bool { return true })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleListByCategory(w http.ResponseWriter, r *http.Request) {
	category := mux.Vars(r)["category"]
	s.mu.Lock()
	out := s.postsLocked(func(p *Post) bool { return p.Category == category })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleGetPost(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	p := s.posts[id]
	var out Post
	if p != nil {
		out = s.viewLocked(p)
	}
	s.mu.Unlock()
	if p == nil {
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreatePost(w http.ResponseWriter, r *http.Request, u *User) {
	var in struct {
		Title    string `json:"title"`
		Content  string `json:"content"`
		Category string `json:"category"`
		AuthorID int    `json:"author_id"`
	}
	if !decode(w, r, &in) {
		return
	}
	if !validCategory(in.Category) {
		writeDetail(w, http.StatusBadRequest, "Invalid category")
		return
	}
	if in.Title == "" || len(in.Title) > 200 || in.Content == "" {
		writeFields(w, map[string]string{"title": "must be 1 to 200 characters", "content": "must not be empty"})
		return
	}
	s.mu.Lock()
	author := u
	if in.AuthorID != 0 {
		if a := s.userByIDLocked(in.AuthorID); a != nil {
			author = a
		}
	}
	p := s.addPostLocked(author, in.Title, in.Content, in.Category)
	out := s.viewLocked(p)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleUpdatePost(w http.ResponseWriter, r *http.Request, _ *User) {
	var in struct {
		Title    *string `json:"title"`
		Content  *string `json:"content"`
		Category *string `json:"category"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Category != nil && !validCategory(*in.Category) {
		writeDetail(w, http.StatusBadRequest, "Invalid category")
		return
	}
	id := pathID(r)
	s.mu.Lock()
	p := s.posts[id]
	if p == nil {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	if in.Title != nil {
		p.Title = *in.Title
	}
	if in.Content != nil {
		p.Content = *in.Content
	}
	if in.Category != nil {
		p.Category = *in.Category
	}
	out := s.viewLocked(p)
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleDeletePost(w http.ResponseWriter, r *http.Request, _ *User) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.posts[id] == nil {
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	delete(s.posts, id)
	for cid, c := range s.comments {
		if c.PostID == id {
			delete(s.comments, cid)
		}
	}
	w.WriteHeader(http.StatusNoContent)
}

// --- comments ---

func (s *Server) handleListComments(w http.ResponseWriter, r *http.Request) {
	id := pathID(r)
	s.mu.Lock()
	if s.posts[id] == nil {
		s.mu.Unlock()
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	out := s.commentsLocked(func(c *Comment) bool { return c.PostID == id })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleAllComments(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	out := s.commentsLocked(func(*Comment) bool { return true })
	s.mu.Unlock()
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleCreateComment(w http.ResponseWriter, r *http.Request, u *User) {
	var in struct {
		Text     string `json:"text"`
		AuthorID int    `json:"author_id"`
		PostID   int    `json:"post_id"`
	}
	if !decode(w, r, &in) {
		return
	}
	if in.Text == "" {
		writeFields(w, map[string]string{"text": "must not be empty"})
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.posts[in.PostID] == nil {
		writeDetail(w, http.StatusNotFound, "Post not found")
		return
	}
	c := s.addCommentLocked(u, in.PostID, in.Text)
	writeJSON(w, http.StatusOK, c)
}

func (s *Server) handleUpdateComment(w http.ResponseWriter, r *http.Request, _ *User) {
	var in struct {
		Text *string `json:"text"`
	}
	if !decode(w, r, &in) {
		return
	}
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	c := s.comments[id]
	if c == nil {
		writeDetail(w, http.StatusNotFound, "Comment not found")
		return
	}
	if in.Text != nil {
		c.Text = *in.Text
	}
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleDeleteComment(w http.ResponseWriter, r *http.Request, _ *User) {
	id := pathID(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.comments[id] == nil {
		writeDetail(w, http.StatusNotFound, "Comment not found")
		return
	}
	delete(s.comments, id)
	writeJSON(w, http.StatusOK, nil)
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	seen := map[string]bool{}
	var out []string
	for _, p := range s.posts {
		if !seen[p.Category] {
			seen[p.Category] = true
			out = append(out, p.Category)
		}
	}
	s.mu.Unlock()
	sort.Strings(out)
	if out == nil {
		out = []string{}
	}
	writeJSON(w, http.StatusOK, out)
}

// --- state helpers (callers hold s.mu) ---

func (s *Server) addUserLocked(username, email, password string) *User {
	s.nextUser++
	u := &User{ID: s.nextUser, Username: username, Email: email, password: password}
	s.users[username] = u
	return u
}

func (s *Server) userByIDLocked(id int) *User {
	for _, u := range s.users {
		if u.ID == id {
			return u
		}
	}
	return nil
}

func (s *Server) addPostLocked(author *User, title, content, category string) *Post {
	s.nextPost++
	p := &Post{
		ID:         s.nextPost,
		Title:      title,
		Content:    content,
		Category:   category,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		CreatedAt:  time.Now().Format("2006-01-02T15:04:05"),
	}
	s.posts[p.ID] = p
	return p
}

func (s *Server) addCommentLocked(author *User, postID int, text string) *Comment {
	s.nextComment++
	c := &Comment{
		ID:         s.nextComment,
		Text:       text,
		AuthorID:   author.ID,
		AuthorName: author.Username,
		PostID:     postID,
		CreatedAt:  time.Now().Format("2006-01-02T15:04:05"),
	}
	s.comments[c.ID] = c
	return c
}

func (s *Server) viewLocked(p *Post) Post {
	out := *p
	for _, c := range s.comments {
		if c.PostID == p.ID {
			out.CommentsCount++
		}
	}
	return out
}

func (s *Server) postsLocked(keep func(*Post) bool) []Post {
	out := []Post{}
	for _, p := range s.posts {
		if keep(p) {
			out = append(out, s.viewLocked(p))
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) commentsLocked(keep func(*Comment) bool) []Comment {
	out := []Comment{}
	for _, c := range s.comments {
		if keep(c) {
			out = append(out, *c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

func (s *Server) issueLocked(u *User) (string, string) {
	access := s.mint(u, "access", s.accessTTL)
	refresh := s.mint(u, "refresh", s.refreshTTL)
	s.access[access] = u.ID
	s.refresh[refresh] = u.ID
	return access, refresh
}

func (s *Server) mint(u *User, kind string, ttl time.Duration) string {
	now := time.Now()
	claims := tokenClaims{
		Username: u.Username,
		Type:     kind,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   strconv.Itoa(u.ID),
			ID:        uuid.NewString(),
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}
	signed, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString(s.secret)
	if err != nil {
		panic(fmt.Sprintf("blogtest: signing token: %v", err))
	}
	return signed
}

func (s *Server) parse(raw, kind string) (*tokenClaims, error) {
	var claims tokenClaims
	_, err := jwt.ParseWithClaims(raw, &claims, func(*jwt.Token) (any, error) { return s.secret, nil },
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return nil, err
	}
	if claims.Type != kind {
		return nil, errors.New("wrong token type")
	}
	return &claims, nil
}

// --- encoding helpers ---

func validCategory(c string) bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

func pathID(r *http.Request) int {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])
	return id
}

func decode(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeDetail(w, http.StatusUnprocessableEntity, "Invalid request body")
		return false
	}
	return true
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeDetail(w http.ResponseWriter, status int, detail string) {
	writeJSON(w, status, map[string]string{"detail": detail})
}

func writeFields(w http.ResponseWriter, fields map[string]string) {
	writeJSON(w, http.StatusUnprocessableEntity, fields)
}
