// Package testutil provides an in-process fake of the hosted record store,
// close enough to the real wire contract to exercise the client end to end:
// collection CRUD, password auth, multipart uploads, filter matching, and
// the backend's error body shape.
package testutil

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/m1z23r/drift/pkg/drift"
	"github.com/m1z23r/drift/pkg/middleware"
)

const jwtSecret = "fake-store-secret-for-tests-only"

// Record is a stored record: flat field map including id/created/updated.
type Record map[string]any

type userCred struct {
	id       string
	password string
}

// FakeStore is an in-memory record store served over HTTP.
type FakeStore struct {
	mu          sync.Mutex
	collections map[string][]Record
	users       map[string]userCred
	// RequestCount tracks how many requests hit each "METHOD path" key.
	requestCount map[string]int
	// Latency delays every request, for cancellation tests.
	Latency time.Duration

	handler http.Handler
	server  *httptest.Server
}

// numeric schema the real backend applies per collection; string form values
// are coerced before storage.
var fieldKinds = map[string]map[string]string{
	"catches": {
		"weight":            "float",
		"length":            "float",
		"weight_oz":         "int",
		"featurePhotoIndex": "int",
	},
	"challenges": {
		"completed": "bool",
	},
}

// relation and JSON-object fields arrive as JSON-encoded strings.
var jsonFields = map[string]bool{
	"sharedWithGroups": true,
	"members":          true,
	"admins":           true,
	"participants":     true,
	"target":           true,
	"data":             true,
	"location":         true,
}

func NewFakeStore() *FakeStore {
	s := &FakeStore{
		collections:  make(map[string][]Record),
		users:        make(map[string]userCred),
		requestCount: make(map[string]int),
	}

	app := drift.New()
	app.SetMode(drift.ReleaseMode)
	app.Use(middleware.Recovery())
	app.Use(middleware.BodyParser())

	// The auth endpoint registers on the same :collection wildcard as the
	// record routes; a static "users" segment would conflict with it in the
	// router's tree.
	app.Post("/api/collections/:collection/auth-with-password", s.authWithPassword)
	app.Get("/api/collections/:collection/records", s.list)
	app.Post("/api/collections/:collection/records", s.create)
	app.Get("/api/collections/:collection/records/:id", s.getOne)
	app.Patch("/api/collections/:collection/records/:id", s.update)
	app.Delete("/api/collections/:collection/records/:id", s.remove)

	s.handler = app
	return s
}

// Start serves the fake over a real listener and returns its base URL.
func (s *FakeStore) Start() string {
	s.server = httptest.NewServer(s.handler)
	return s.server.URL
}

func (s *FakeStore) Close() {
	if s.server != nil {
		s.server.Close()
	}
}

// Requests returns how many requests hit "METHOD path".
func (s *FakeStore) Requests(method, path string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.requestCount[method+" "+path]
}

func (s *FakeStore) track(c *drift.Context) {
	s.mu.Lock()
	s.requestCount[c.Request.Method+" "+c.Request.URL.Path]++
	s.mu.Unlock()
	if s.Latency > 0 {
		select {
		case <-time.After(s.Latency):
		case <-c.Request.Context().Done():
		}
	}
}

// AddUser seeds a user account and returns its record.
func (s *FakeStore) AddUser(email, password, name string) Record {
	rec := s.AddRecord("users", Record{"email": email, "name": name})
	s.mu.Lock()
	s.users[email] = userCred{id: rec["id"].(string), password: password}
	s.mu.Unlock()
	return rec
}

// AddRecord seeds a record directly, assigning id and timestamps.
func (s *FakeStore) AddRecord(collection string, fields Record) Record {
	rec := Record{}
	for k, v := range fields {
		rec[k] = v
	}
	stamp(rec)
	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], rec)
	s.mu.Unlock()
	return rec
}

// Get returns a stored record by id, or nil.
func (s *FakeStore) Get(collection, id string) Record {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range s.collections[collection] {
		if rec["id"] == id {
			return rec
		}
	}
	return nil
}

// Token mints a session token the way the real backend does.
func Token(userID string, expiresIn time.Duration) string {
	claims := jwt.RegisteredClaims{
		Subject:   userID,
		IssuedAt:  jwt.NewNumericDate(time.Now()),
		ExpiresAt: jwt.NewNumericDate(time.Now().Add(expiresIn)),
	}
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, _ := token.SignedString([]byte(jwtSecret))
	return signed
}

func stamp(rec Record) {
	if _, ok := rec["id"]; !ok {
		rec["id"] = strings.ReplaceAll(uuid.NewString(), "-", "")[:15]
	}
	now := time.Now().UTC().Format("2006-01-02 15:04:05.000Z")
	if _, ok := rec["created"]; !ok {
		rec["created"] = now
	}
	rec["updated"] = now
}

func errorResponse(c *drift.Context, status int, message string, data map[string][]string) {
	_ = c.JSON(status, map[string]any{
		"code":    status,
		"message": message,
		"data":    data,
	})
}

func (s *FakeStore) authWithPassword(c *drift.Context) {
	s.track(c)
	if c.Param("collection") != "users" {
		errorResponse(c, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	var req struct {
		Identity string `json:"identity"`
		Password string `json:"password"`
	}
	if err := c.BindJSON(&req); err != nil {
		errorResponse(c, http.StatusBadRequest, "Something went wrong while processing your request.", nil)
		return
	}

	s.mu.Lock()
	cred, ok := s.users[req.Identity]
	s.mu.Unlock()
	if !ok || cred.password != req.Password {
		errorResponse(c, http.StatusBadRequest, "Failed to authenticate.", map[string][]string{
			"identity": {"Invalid login credentials."},
		})
		return
	}

	_ = c.JSON(http.StatusOK, map[string]any{
		"token":  Token(cred.id, time.Hour),
		"record": s.Get("users", cred.id),
	})
}

func (s *FakeStore) list(c *drift.Context) {
	s.track(c)
	if c.Request.Context().Err() != nil {
		return
	}
	collection := c.Param("collection")
	page, _ := strconv.Atoi(c.QueryParam("page"))
	perPage, _ := strconv.Atoi(c.QueryParam("perPage"))
	if page < 1 {
		page = 1
	}
	if perPage < 1 {
		perPage = 30
	}
	filter := c.QueryParam("filter")

	s.mu.Lock()
	var matched []Record
	for _, rec := range s.collections[collection] {
		if matchFilter(rec, filter) {
			matched = append(matched, rec)
		}
	}
	s.mu.Unlock()

	if c.QueryParam("sort") == "-created" {
		reversed := make([]Record, len(matched))
		for i, rec := range matched {
			reversed[len(matched)-1-i] = rec
		}
		matched = reversed
	}

	total := len(matched)
	totalPages := (total + perPage - 1) / perPage
	start := (page - 1) * perPage
	if start > total {
		start = total
	}
	end := start + perPage
	if end > total {
		end = total
	}

	_ = c.JSON(http.StatusOK, map[string]any{
		"page":       page,
		"perPage":    perPage,
		"totalItems": total,
		"totalPages": totalPages,
		"items":      matched[start:end],
	})
}

func (s *FakeStore) getOne(c *drift.Context) {
	s.track(c)
	rec := s.Get(c.Param("collection"), c.Param("id"))
	if rec == nil {
		errorResponse(c, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	_ = c.JSON(http.StatusOK, rec)
}

func (s *FakeStore) create(c *drift.Context) {
	s.track(c)
	collection := c.Param("collection")
	fields, err := s.parseBody(c, collection)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Something went wrong while processing your request.", nil)
		return
	}
	if data := validate(collection, fields); len(data) > 0 {
		errorResponse(c, http.StatusBadRequest, "Failed to create record.", data)
		return
	}

	rec := Record(fields)
	password, _ := rec["password"].(string)
	delete(rec, "password")
	delete(rec, "passwordConfirm")
	stamp(rec)
	s.mu.Lock()
	s.collections[collection] = append(s.collections[collection], rec)
	if collection == "users" {
		if email, ok := rec["email"].(string); ok {
			s.users[email] = userCred{id: rec["id"].(string), password: password}
		}
	}
	s.mu.Unlock()
	_ = c.JSON(http.StatusOK, rec)
}

func (s *FakeStore) update(c *drift.Context) {
	s.track(c)
	collection := c.Param("collection")
	rec := s.Get(collection, c.Param("id"))
	if rec == nil {
		errorResponse(c, http.StatusNotFound, "The requested resource wasn't found.", nil)
		return
	}
	fields, err := s.parseBody(c, collection)
	if err != nil {
		errorResponse(c, http.StatusBadRequest, "Something went wrong while processing your request.", nil)
		return
	}

	s.mu.Lock()
	for k, v := range fields {
		rec[k] = v
	}
	rec["updated"] = time.Now().UTC().Format("2006-01-02 15:04:05.000Z")
	s.mu.Unlock()
	_ = c.JSON(http.StatusOK, rec)
}

func (s *FakeStore) remove(c *drift.Context) {
	s.track(c)
	collection := c.Param("collection")
	id := c.Param("id")
	s.mu.Lock()
	defer s.mu.Unlock()
	records := s.collections[collection]
	for i, rec := range records {
		if rec["id"] == id {
			s.collections[collection] = append(records[:i], records[i+1:]...)
			_ = c.JSON(http.StatusNoContent, nil)
			return
		}
	}
	errorResponse(c, http.StatusNotFound, "The requested resource wasn't found.", nil)
}

// parseBody accepts either a JSON object or a multipart form, coercing field
// values the way the real backend's schema does: numeric strings to numbers,
// JSON-encoded relation strings to arrays, uploaded files to filenames.
func (s *FakeStore) parseBody(c *drift.Context, collection string) (map[string]any, error) {
	contentType := c.Request.Header.Get("Content-Type")
	fields := make(map[string]any)

	if strings.HasPrefix(contentType, "multipart/form-data") {
		if err := c.Request.ParseMultipartForm(32 << 20); err != nil {
			return nil, err
		}
		form := c.Request.MultipartForm
		for key, values := range form.Value {
			if len(values) == 1 {
				fields[key] = values[0]
			} else {
				fields[key] = values
			}
		}
		for key, files := range form.File {
			var names []any
			if kept, ok := fields[key].([]string); ok {
				for _, n := range kept {
					names = append(names, n)
				}
			} else if kept, ok := fields[key].(string); ok {
				names = append(names, kept)
			}
			for _, fh := range files {
				names = append(names, fh.Filename)
			}
			fields[key] = names
		}
	} else {
		var body map[string]any
		if err := c.BindJSON(&body); err != nil {
			return nil, err
		}
		fields = body
	}

	coerce(collection, fields)
	return fields, nil
}

func coerce(collection string, fields map[string]any) {
	kinds := fieldKinds[collection]
	for key, value := range fields {
		str, isString := value.(string)
		if !isString {
			continue
		}
		if jsonFields[key] && len(str) > 0 && (str[0] == '[' || str[0] == '{') {
			var decoded any
			if err := json.Unmarshal([]byte(str), &decoded); err == nil {
				fields[key] = decoded
			}
			continue
		}
		switch kinds[key] {
		case "float":
			if f, err := strconv.ParseFloat(str, 64); err == nil {
				fields[key] = f
			}
		case "int":
			if n, err := strconv.Atoi(str); err == nil {
				fields[key] = n
			}
		case "bool":
			if b, err := strconv.ParseBool(str); err == nil {
				fields[key] = b
			}
		}
	}
}

// validate mirrors the backend's required-field rules for the collections
// the tests care about.
func validate(collection string, fields map[string]any) map[string][]string {
	data := make(map[string][]string)
	required := func(key string) {
		v, ok := fields[key]
		if !ok {
			data[key] = append(data[key], "Missing required value.")
			return
		}
		if str, isStr := v.(string); isStr && str == "" {
			data[key] = append(data[key], "Missing required value.")
		}
	}
	switch collection {
	case "catches":
		required("species")
		required("user")
	case "fishing_groups":
		required("name")
	case "comments":
		required("content")
		required("catch")
		required("user")
	case "users":
		required("email")
		required("password")
	}
	if len(data) == 0 {
		return nil
	}
	return data
}

// matchFilter evaluates the subset of the backend filter syntax the client
// generates: `field = "v"`, `field ~ "v"`, joined by && and ||.
func matchFilter(rec Record, filter string) bool {
	filter = strings.TrimSpace(filter)
	if filter == "" {
		return true
	}
	for _, disjunct := range strings.Split(filter, "||") {
		all := true
		for _, conjunct := range strings.Split(disjunct, "&&") {
			if !matchClause(rec, strings.TrimSpace(conjunct)) {
				all = false
				break
			}
		}
		if all {
			return true
		}
	}
	return false
}

func matchClause(rec Record, clause string) bool {
	op := ""
	switch {
	case strings.Contains(clause, " = "):
		op = " = "
	case strings.Contains(clause, " ~ "):
		op = " ~ "
	default:
		return false
	}
	parts := strings.SplitN(clause, op, 2)
	field := strings.TrimSpace(parts[0])
	want := strings.Trim(strings.TrimSpace(parts[1]), `"`)

	value, ok := rec[field]
	if !ok {
		return false
	}
	switch v := value.(type) {
	case string:
		if op == " = " {
			return v == want
		}
		return strings.Contains(v, want)
	case []any:
		for _, item := range v {
			if s, isStr := item.(string); isStr && s == want {
				return true
			}
		}
		return false
	case []string:
		for _, item := range v {
			if item == want {
				return true
			}
		}
		return false
	}
	return fmt.Sprintf("%v", value) == want
}
