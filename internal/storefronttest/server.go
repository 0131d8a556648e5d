// Package storefronttest provides an in-memory BookCart storefront for tests.
package storefronttest

import (
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"testing"

	"github.com/samvad-hq/bookcart-smoke/pkg/endpoints"
)

// Paths served by the fake, keyed by operation name.
var Paths = map[string]string{
	"register":          "/User",
	"login":             "/Login",
	"categories":        "/Book/GetCategoriesList",
	"books_by_category": "/Book/category/{categoryId}",
	"book_details":      "/Book/{bookId}",
	"add_to_cart":       "/ShoppingCart/AddToCart",
}

const apiPrefix = "/api"

type Category struct {
	CategoryID   int    `json:"categoryId"`
	CategoryName string `json:"categoryName"`
}

type Book struct {
	BookID   int     `json:"bookId"`
	Title    string  `json:"title"`
	Author   string  `json:"author"`
	Category string  `json:"category"`
	Price    float64 `json:"price"`

	categoryID int
}

type user struct {
	id       int
	username string
	password string
}

// RecordedRequest captures the last request seen for an operation.
type RecordedRequest struct {
	Method string
	Path   string
	Header http.Header
	Body   []byte
}

type failure struct {
	status int
	body   string
}

// Server is a fake storefront backed by httptest.Server.
type Server struct {
	*httptest.Server

	mu              sync.Mutex
	users           map[string]*user
	tokens          map[string]int
	carts           map[int]map[int]int
	categories      []Category
	books           []Book
	failures        map[string]failure
	last            map[string]RecordedRequest
	allowDuplicates bool
	nextUserID      int
}

// NewServer starts a storefront seeded with two categories and three books.
func NewServer() *Server {
	s := &Server{
		users:  make(map[string]*user),
		tokens: make(map[string]int),
		carts:  make(map[int]map[int]int),
		categories: []Category{
			{CategoryID: 1, CategoryName: "Biography"},
			{CategoryID: 2, CategoryName: "Fiction"},
		},
		books: []Book{
			{BookID: 2, Title: "Harry Potter and the Chamber of Secrets", Author: "JKR", Category: "Biography", Price: 236, categoryID: 1},
			{BookID: 3, Title: "Harry Potter and the Prisoner of Azkaban", Author: "JKR", Category: "Fiction", Price: 213, categoryID: 2},
			{BookID: 4, Title: "Slayer", Author: "Kiersten White", Category: "Fiction", Price: 1950, categoryID: 2},
		},
		failures:   make(map[string]failure),
		last:       make(map[string]RecordedRequest),
		nextUserID: 100,
	}

	mux := http.NewServeMux()
	mux.HandleFunc("POST "+apiPrefix+Paths["register"], s.record("register", s.handleRegister))
	mux.HandleFunc("POST "+apiPrefix+Paths["login"], s.record("login", s.handleLogin))
	mux.HandleFunc("GET "+apiPrefix+Paths["categories"], s.record("categories", s.handleCategories))
	mux.HandleFunc("GET "+apiPrefix+Paths["books_by_category"], s.record("books_by_category", s.handleBooksByCategory))
	mux.HandleFunc("GET "+apiPrefix+Paths["book_details"], s.record("book_details", s.handleBookDetails))
	mux.HandleFunc("POST "+apiPrefix+Paths["add_to_cart"], s.record("add_to_cart", s.handleAddToCart))
	mux.HandleFunc("GET /{$}", s.handleIndex)

	s.Server = httptest.NewServer(mux)
	return s
}

// BaseURL is the API root to put in the endpoint config.
func (s *Server) BaseURL() string { return s.URL + apiPrefix }

// Config returns an endpoint config pointing at the fake.
func (s *Server) Config() *endpoints.Config {
	cfg, err := endpoints.New(s.BaseURL(), Paths)
	if err != nil {
		panic(err)
	}
	return cfg
}

// WriteConfig writes a config.json for the fake and returns its path.
func (s *Server) WriteConfig(t testing.TB) string {
	t.Helper()
	raw, err := json.Marshal(map[string]any{"base_url": s.BaseURL(), "api_endpoints": Paths})
	if err != nil {
		t.Fatalf("marshal endpoint config: %v", err)
	}
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		t.Fatalf("write endpoint config: %v", err)
	}
	return path
}

// Fail makes every later call to op answer with status and body.
func (s *Server) Fail(op string, status int, body string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = failure{status: status, body: body}
}

// AllowDuplicateUsers makes registration accept usernames already taken.
func (s *Server) AllowDuplicateUsers() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.allowDuplicates = true
}

// ClearCatalog removes all categories and books.
func (s *Server) ClearCatalog() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.categories = nil
	s.books = nil
}

// LastRequest returns the most recent request for op.
func (s *Server) LastRequest(op string) (RecordedRequest, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	r, ok := s.last[op]
	return r, ok
}

// CartQuantity returns how many copies of bookID sit in userID's cart.
func (s *Server) CartQuantity(userID, bookID int) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.carts[userID][bookID]
}

func (s *Server) record(op string, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		r.Body = io.NopCloser(strings.NewReader(string(body)))

		s.mu.Lock()
		s.last[op] = RecordedRequest{Method: r.Method, Path: r.URL.RequestURI(), Header: r.Header.Clone(), Body: body}
		f, failing := s.failures[op]
		s.mu.Unlock()

		if failing {
			http.Error(w, f.body, f.status)
			return
		}
		next(w, r)
	}
}

func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username  string `json:"username"`
		Password  string `json:"password"`
		FirstName string `json:"firstName"`
		LastName  string `json:"lastName"`
		Gender    string `json:"gender"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Username == "" || req.Password == "" {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid registration payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, taken := s.users[req.Username]; taken && !s.allowDuplicates {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "username is not available"})
		return
	}
	s.nextUserID++
	u := &user{id: s.nextUserID, username: req.Username, password: req.Password}
	s.users[req.Username] = u
	writeJSON(w, http.StatusOK, map[string]any{
		"userId":    u.id,
		"username":  u.username,
		"firstName": req.FirstName,
		"lastName":  req.LastName,
		"gender":    req.Gender,
	})
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Username string `json:"username"`
		Password string `json:"password"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid login payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[req.Username]
	if !ok || u.password != req.Password {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "invalid credentials"})
		return
	}
	token := fmt.Sprintf("token-%d-%d", u.id, len(s.tokens)+1)
	s.tokens[token] = u.id
	writeJSON(w, http.StatusOK, map[string]any{
		"token":       token,
		"userDetails": map[string]any{"userId": u.id, "username": u.username},
	})
}

func (s *Server) handleCategories(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := append([]Category{}, s.categories...)
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBooksByCategory(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("categoryId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid category id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	out := []Book{}
	for _, b := range s.books {
		if b.categoryID == id {
			out = append(out, b)
		}
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) handleBookDetails(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.Atoi(r.PathValue("bookId"))
	if err != nil {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid book id"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, b := range s.books {
		if b.BookID == id {
			writeJSON(w, http.StatusOK, b)
			return
		}
	}
	writeJSON(w, http.StatusNotFound, map[string]string{"message": "book not found"})
}

func (s *Server) handleAddToCart(w http.ResponseWriter, r *http.Request) {
	token := strings.TrimPrefix(r.Header.Get("Authorization"), "Bearer ")

	var req struct {
		UserID   int `json:"userId"`
		BookID   int `json:"bookId"`
		Quantity int `json:"quantity"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil || req.Quantity <= 0 {
		writeJSON(w, http.StatusBadRequest, map[string]string{"message": "invalid cart payload"})
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	owner, ok := s.tokens[token]
	if !ok {
		writeJSON(w, http.StatusUnauthorized, map[string]string{"message": "missing or invalid token"})
		return
	}
	if owner != req.UserID {
		writeJSON(w, http.StatusForbidden, map[string]string{"message": "token does not belong to user"})
		return
	}
	found := false
	for _, b := range s.books {
		if b.BookID == req.BookID {
			found = true
			break
		}
	}
	if !found {
		writeJSON(w, http.StatusNotFound, map[string]string{"message": "book not found"})
		return
	}

	if s.carts[req.UserID] == nil {
		s.carts[req.UserID] = make(map[int]int)
	}
	s.carts[req.UserID][req.BookID] += req.Quantity
	total := 0
	for _, q := range s.carts[req.UserID] {
		total += q
	}
	writeJSON(w, http.StatusOK, total)
}

func (s *Server) handleIndex(w http.ResponseWriter, _ *http.Request) {
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	_, _ = io.WriteString(w, `<!doctype html>
<html lang="en">
<head><meta charset="utf-8"><title>BookCart</title></head>
<body><app-root></app-root></body>
</html>`)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}
