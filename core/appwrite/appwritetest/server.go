/*
Package appwritetest provides an in-memory backend speaking the subset of the
Appwrite REST API used by this service. It records every call and supports
failure injection per operation.
*/
package appwritetest

import (
	"bytes"
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"sort"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/appwrite"
)

// Default project and key of a new server
const (
	Project = "test-project"
	Key     = "test-admin-key"
)

// Call is a recorded request
type Call struct {
	Op         string
	Method     string
	Path       string
	Credential appwrite.Credential
	Queries    []string
}

type storedFile struct {
	name        string
	contentType string
	data        []byte
	size        int64
	permissions []string
}

type user struct {
	appwrite.User
	password string
}

type failure struct {
	err       *appwrite.Error
	malformed int
}

// Server is the fake backend
type Server struct {
	*httptest.Server

	mu        sync.Mutex
	documents map[string]map[string]appwrite.Document
	files     map[string]map[string]*storedFile
	users     map[string]*user
	sessions  map[string]string
	calls     []Call
	failures  map[string][]failure
}

// NewServer starts a new fake backend which is closed with the test
func NewServer(t testing.TB) *Server {
	s := &Server{
		documents: map[string]map[string]appwrite.Document{},
		files:     map[string]map[string]*storedFile{},
		users:     map[string]*user{},
		sessions:  map[string]string{},
		failures:  map[string][]failure{},
	}

	router := mux.NewRouter()
	v1 := router.PathPrefix("/v1").Subrouter()
	docs := "/databases/{db}/collections/{col}/documents"
	v1.HandleFunc(docs, s.op("documents.list", s.listDocuments)).Methods(http.MethodGet)
	v1.HandleFunc(docs, s.op("documents.create", s.createDocument)).Methods(http.MethodPost)
	v1.HandleFunc(docs+"/{id}", s.op("documents.get", s.getDocument)).Methods(http.MethodGet)
	v1.HandleFunc(docs+"/{id}", s.op("documents.update", s.updateDocument)).Methods(http.MethodPatch)
	v1.HandleFunc(docs+"/{id}", s.op("documents.delete", s.deleteDocument)).Methods(http.MethodDelete)

	files := "/storage/buckets/{bucket}/files"
	v1.HandleFunc(files, s.op("files.create", s.createFile)).Methods(http.MethodPost)
	v1.HandleFunc(files+"/{id}", s.op("files.delete", s.deleteFile)).Methods(http.MethodDelete)
	v1.HandleFunc(files+"/{id}/view", s.op("files.view", s.getFile)).Methods(http.MethodGet)
	v1.HandleFunc(files+"/{id}/preview", s.op("files.preview", s.getFile)).Methods(http.MethodGet)

	v1.HandleFunc("/account", s.op("account.create", s.createAccount)).Methods(http.MethodPost)
	v1.HandleFunc("/account/sessions/email", s.op("account.createEmailPasswordSession", s.createEmailPasswordSession)).Methods(http.MethodPost)
	v1.HandleFunc("/account/sessions/{id}", s.op("account.deleteSession", s.deleteSession)).Methods(http.MethodDelete)

	v1.HandleFunc("/users/{id}", s.op("users.get", s.getUser)).Methods(http.MethodGet)
	v1.HandleFunc("/users/{id}", s.op("users.delete", s.deleteUser)).Methods(http.MethodDelete)
	v1.HandleFunc("/users/{id}/labels", s.op("users.updateLabels", s.updateLabels)).Methods(http.MethodPut)
	v1.HandleFunc("/users/{id}/sessions", s.op("users.createSession", s.createSession)).Methods(http.MethodPost)

	s.Server = httptest.NewServer(router)
	t.Cleanup(s.Close)
	return s
}

// Endpoint returns the API endpoint including the version path
func (s *Server) Endpoint() string {
	return s.URL + "/v1"
}

// Factory returns a factory talking to this server
func (s *Server) Factory() *appwrite.Factory {
	return appwrite.NewFactory(&appwrite.Builder{
		Endpoint:   s.Endpoint(),
		Project:    Project,
		Key:        Key,
		HTTPClient: s.Client(),
	})
}

// Fail makes the next call to op fail with the given backend error
func (s *Server) Fail(op string, code int, errorType, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], failure{err: &appwrite.Error{
		Message: message,
		Code:    code,
		Type:    errorType,
		Version: "1.6.0",
	}})
}

// FailMalformed makes the next call to op answer with status and a body that is not JSON
func (s *Server) FailMalformed(op string, status int) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failures[op] = append(s.failures[op], failure{malformed: status})
}

// Calls returns all recorded calls
func (s *Server) Calls() []Call {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]Call{}, s.calls...)
}

// CallsTo returns the recorded calls of op
func (s *Server) CallsTo(op string) []Call {
	var calls []Call
	for _, c := range s.Calls() {
		if c.Op == op {
			calls = append(calls, c)
		}
	}
	return calls
}

// SeedDocument stores doc directly. doc must carry an $id.
func (s *Server) SeedDocument(databaseID, collectionID string, doc appwrite.Document) appwrite.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	stored := appwrite.Document{}
	for k, v := range doc {
		stored[k] = v
	}
	now := timestamp()
	stored["$collectionId"] = collectionID
	stored["$databaseId"] = databaseID
	stored["$createdAt"] = now
	stored["$updatedAt"] = now
	s.collection(databaseID, collectionID)[stored.ID()] = stored
	return stored
}

// Document returns a stored document
func (s *Server) Document(databaseID, collectionID, id string) (appwrite.Document, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collection(databaseID, collectionID)[id]
	return doc, ok
}

// Documents returns all documents of a collection
func (s *Server) Documents(databaseID, collectionID string) []appwrite.Document {
	s.mu.Lock()
	defer s.mu.Unlock()
	var docs []appwrite.Document
	for _, doc := range s.collection(databaseID, collectionID) {
		docs = append(docs, doc)
	}
	return docs
}

// File returns the content of a stored file
func (s *Server) File(bucketID, id string) ([]byte, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	f, ok := s.bucket(bucketID)[id]
	if !ok {
		return nil, false
	}
	return f.data, true
}

// FileCount returns the number of files in a bucket
func (s *Server) FileCount(bucketID string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.bucket(bucketID))
}

// SeedUser registers a user with a password
func (s *Server) SeedUser(id, email, password, name string, labels ...string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = &user{
		User:     appwrite.User{ID: id, Email: email, Name: name, Labels: append([]string{}, labels...)},
		password: password,
	}
}

// UserByEmail returns a registered user
func (s *Server) UserByEmail(email string) (appwrite.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == email {
			return u.User, true
		}
	}
	return appwrite.User{}, false
}

// SessionFor mints a session secret for a registered user
func (s *Server) SessionFor(userID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	secret := randomHex(32)
	s.sessions[secret] = userID
	return secret
}

// SessionValid reports whether secret is a live session
func (s *Server) SessionValid(secret string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.sessions[secret]
	return ok
}

func (s *Server) collection(databaseID, collectionID string) map[string]appwrite.Document {
	key := databaseID + "/" + collectionID
	c, ok := s.documents[key]
	if !ok {
		c = map[string]appwrite.Document{}
		s.documents[key] = c
	}
	return c
}

func (s *Server) bucket(bucketID string) map[string]*storedFile {
	b, ok := s.files[bucketID]
	if !ok {
		b = map[string]*storedFile{}
		s.files[bucketID] = b
	}
	return b
}

type credentials struct {
	mode   appwrite.Credential
	userID string
	secret string
}

// op wraps a handler with call recording, project check and failure injection
func (s *Server) op(name string, h func(w http.ResponseWriter, r *http.Request, c credentials)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		c := credentials{}
		if key := r.Header.Get("X-Appwrite-Key"); key != "" {
			c.mode = appwrite.CredentialKey
			c.secret = key
		} else if session := r.Header.Get("X-Appwrite-Session"); session != "" {
			c.mode = appwrite.CredentialSession
			c.secret = session
		}

		s.mu.Lock()
		s.calls = append(s.calls, Call{
			Op:         name,
			Method:     r.Method,
			Path:       r.URL.Path,
			Credential: c.mode,
			Queries:    r.URL.Query()["queries[]"],
		})
		var injected *failure
		if queued := s.failures[name]; len(queued) > 0 {
			injected = &queued[0]
			s.failures[name] = queued[1:]
		}
		if c.mode == appwrite.CredentialSession {
			c.userID = s.sessions[c.secret]
		}
		s.mu.Unlock()

		if r.Header.Get("X-Appwrite-Project") != Project {
			writeError(w, http.StatusNotFound, "project_not_found", "Project with the requested ID could not be found.")
			return
		}
		if injected != nil {
			if injected.malformed != 0 {
				w.Header().Set("Content-Type", "text/html")
				w.WriteHeader(injected.malformed)
				io.WriteString(w, "<html><body>Bad Gateway</body></html>")
				return
			}
			writeJSON(w, injected.err.Code, injected.err)
			return
		}
		if c.mode == appwrite.CredentialKey && c.secret != Key {
			writeError(w, http.StatusUnauthorized, "user_unauthorized", "The current user is not authorized to perform the requested action.")
			return
		}
		if c.mode == appwrite.CredentialSession && c.userID == "" {
			writeError(w, http.StatusUnauthorized, "user_session_not_found", "The current user session could not be found.")
			return
		}
		h(w, r, c)
	}
}

func requireWriter(w http.ResponseWriter, c credentials) bool {
	if c.mode == appwrite.CredentialNone {
		writeError(w, http.StatusUnauthorized, "user_unauthorized", "The current user is not authorized to perform the requested action.")
		return false
	}
	return true
}

func requireKey(w http.ResponseWriter, c credentials) bool {
	if c.mode != appwrite.CredentialKey {
		writeError(w, http.StatusUnauthorized, "general_unauthorized_scope", "User (role: guests) missing scope (users.write)")
		return false
	}
	return true
}

func (s *Server) listDocuments(w http.ResponseWriter, r *http.Request, c credentials) {
	vars := mux.Vars(r)
	var queries []appwrite.ParsedQuery
	for _, raw := range r.URL.Query()["queries[]"] {
		q, err := appwrite.ParseQuery(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "general_query_invalid", "Invalid query: Syntax error")
			return
		}
		queries = append(queries, q)
	}

	s.mu.Lock()
	var docs []appwrite.Document
	for _, doc := range s.collection(vars["db"], vars["col"]) {
		if matches(doc, queries) {
			docs = append(docs, doc)
		}
	}
	s.mu.Unlock()

	sort.Slice(docs, func(i, j int) bool { return docs[i].ID() < docs[j].ID() })
	limit := -1
	var selected []string
	for _, q := range queries {
		switch q.Method {
		case "orderAsc", "orderDesc":
			attr, desc := q.Attribute, q.Method == "orderDesc"
			sort.SliceStable(docs, func(i, j int) bool {
				a, b := fmt.Sprint(docs[i][attr]), fmt.Sprint(docs[j][attr])
				if desc {
					return a > b
				}
				return a < b
			})
		case "limit":
			if len(q.Values) == 1 {
				if n, ok := q.Values[0].(float64); ok {
					limit = int(n)
				}
			}
		case "select":
			for _, v := range q.Values {
				selected = append(selected, fmt.Sprint(v))
			}
		}
	}
	total := len(docs)
	if limit >= 0 && limit < len(docs) {
		docs = docs[:limit]
	}
	out := make([]appwrite.Document, 0, len(docs))
	for _, doc := range docs {
		out = append(out, project(doc, selected))
	}
	writeJSON(w, http.StatusOK, map[string]interface{}{"total": total, "documents": out})
}

func matches(doc appwrite.Document, queries []appwrite.ParsedQuery) bool {
	for _, q := range queries {
		if q.Method != "equal" {
			continue
		}
		value := fmt.Sprint(doc[q.Attribute])
		found := false
		for _, v := range q.Values {
			if fmt.Sprint(v) == value {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func project(doc appwrite.Document, selected []string) appwrite.Document {
	if len(selected) == 0 {
		return doc
	}
	out := appwrite.Document{
		"$collectionId": doc["$collectionId"],
		"$databaseId":   doc["$databaseId"],
	}
	for _, attr := range selected {
		if v, ok := doc[attr]; ok {
			out[attr] = v
		}
	}
	return out
}

func (s *Server) getDocument(w http.ResponseWriter, r *http.Request, c credentials) {
	vars := mux.Vars(r)
	var selected []string
	for _, raw := range r.URL.Query()["queries[]"] {
		if q, err := appwrite.ParseQuery(raw); err == nil && q.Method == "select" {
			for _, v := range q.Values {
				selected = append(selected, fmt.Sprint(v))
			}
		}
	}
	doc, ok := s.Document(vars["db"], vars["col"], vars["id"])
	if !ok {
		writeError(w, http.StatusNotFound, "document_not_found", "Document with the requested ID could not be found.")
		return
	}
	writeJSON(w, http.StatusOK, project(doc, selected))
}

func (s *Server) createDocument(w http.ResponseWriter, r *http.Request, c credentials) {
	if !requireWriter(w, c) {
		return
	}
	var body struct {
		DocumentID  string                 `json:"documentId"`
		Data        map[string]interface{} `json:"data"`
		Permissions []string               `json:"permissions"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.DocumentID == "" || body.Data == nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Param \"data\" is not optional.")
		return
	}
	vars := mux.Vars(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.collection(vars["db"], vars["col"])
	if _, exists := col[body.DocumentID]; exists {
		writeError(w, http.StatusConflict, "document_already_exists", "Document with the requested ID already exists.")
		return
	}
	now := timestamp()
	doc := appwrite.Document{}
	for k, v := range body.Data {
		doc[k] = v
	}
	doc["$id"] = body.DocumentID
	doc["$collectionId"] = vars["col"]
	doc["$databaseId"] = vars["db"]
	doc["$createdAt"] = now
	doc["$updatedAt"] = now
	doc["$permissions"] = body.Permissions
	col[body.DocumentID] = doc
	writeJSON(w, http.StatusCreated, doc)
}

func (s *Server) updateDocument(w http.ResponseWriter, r *http.Request, c credentials) {
	if !requireWriter(w, c) {
		return
	}
	var body struct {
		Data map[string]interface{} `json:"data"`
	}
	if !decode(w, r, &body) {
		return
	}
	vars := mux.Vars(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	doc, ok := s.collection(vars["db"], vars["col"])[vars["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "document_not_found", "Document with the requested ID could not be found.")
		return
	}
	for k, v := range body.Data {
		if strings.HasPrefix(k, "$") {
			continue
		}
		doc[k] = v
	}
	doc["$updatedAt"] = timestamp()
	writeJSON(w, http.StatusOK, doc)
}

func (s *Server) deleteDocument(w http.ResponseWriter, r *http.Request, c credentials) {
	if !requireWriter(w, c) {
		return
	}
	vars := mux.Vars(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	col := s.collection(vars["db"], vars["col"])
	if _, ok := col[vars["id"]]; !ok {
		writeError(w, http.StatusNotFound, "document_not_found", "Document with the requested ID could not be found.")
		return
	}
	delete(col, vars["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) createFile(w http.ResponseWriter, r *http.Request, c credentials) {
	if !requireWriter(w, c) {
		return
	}
	if err := r.ParseMultipartForm(64 << 20); err != nil {
		writeError(w, http.StatusBadRequest, "storage_invalid_file", "Invalid file: "+err.Error())
		return
	}
	fileID := r.FormValue("fileId")
	part, header, err := r.FormFile("file")
	if err != nil || fileID == "" {
		writeError(w, http.StatusBadRequest, "storage_invalid_file", "Param \"file\" is not optional.")
		return
	}
	defer part.Close()
	data, _ := io.ReadAll(part)

	start, total := int64(0), int64(len(data))
	if cr := r.Header.Get("Content-Range"); cr != "" {
		var end int64
		if _, err := fmt.Sscanf(cr, "bytes %d-%d/%d", &start, &end, &total); err != nil {
			writeError(w, http.StatusBadRequest, "storage_invalid_content_range", "Invalid content range.")
			return
		}
	}
	vars := mux.Vars(r)

	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.bucket(vars["bucket"])
	f, exists := bucket[fileID]
	switch {
	case start == 0 && exists:
		writeError(w, http.StatusConflict, "storage_file_already_exists", "A storage file with the requested ID already exists.")
		return
	case start == 0:
		f = &storedFile{
			name:        header.Filename,
			contentType: header.Header.Get("Content-Type"),
			size:        total,
			permissions: r.MultipartForm.Value["permissions[]"],
		}
		bucket[fileID] = f
	case !exists || int64(len(f.data)) != start:
		writeError(w, http.StatusBadRequest, "storage_invalid_content_range", "Chunk does not continue the upload.")
		return
	}
	f.data = append(f.data, data...)
	writeJSON(w, http.StatusCreated, appwrite.File{
		ID:       fileID,
		BucketID: vars["bucket"],
		Name:     f.name,
		MimeType: f.contentType,
		Size:     f.size,
		Perms:    f.permissions,
	})
}

func (s *Server) deleteFile(w http.ResponseWriter, r *http.Request, c credentials) {
	if !requireWriter(w, c) {
		return
	}
	vars := mux.Vars(r)
	s.mu.Lock()
	defer s.mu.Unlock()
	bucket := s.bucket(vars["bucket"])
	if _, ok := bucket[vars["id"]]; !ok {
		writeError(w, http.StatusNotFound, "storage_file_not_found", "The requested file could not be found.")
		return
	}
	delete(bucket, vars["id"])
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getFile(w http.ResponseWriter, r *http.Request, c credentials) {
	vars := mux.Vars(r)
	s.mu.Lock()
	f, ok := s.bucket(vars["bucket"])[vars["id"]]
	s.mu.Unlock()
	if !ok {
		writeError(w, http.StatusNotFound, "storage_file_not_found", "The requested file could not be found.")
		return
	}
	w.Header().Set("Content-Type", f.contentType)
	w.WriteHeader(http.StatusOK)
	io.Copy(w, bytes.NewReader(f.data))
}

func (s *Server) createAccount(w http.ResponseWriter, r *http.Request, c credentials) {
	var body struct {
		UserID   string `json:"userId"`
		Email    string `json:"email"`
		Password string `json:"password"`
		Name     string `json:"name"`
	}
	if !decode(w, r, &body) {
		return
	}
	if body.Email == "" || len(body.Password) < 8 {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid `password` param: Password must be at least 8 characters")
		return
	}
	if body.UserID == "" || body.UserID == "unique()" {
		body.UserID = randomHex(10)
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == body.Email {
			writeError(w, http.StatusConflict, "user_already_exists", "A user with the same id, email, or phone already exists in this project.")
			return
		}
	}
	u := &user{User: appwrite.User{ID: body.UserID, Email: body.Email, Name: body.Name, Labels: []string{}}, password: body.Password}
	s.users[u.ID] = u
	writeJSON(w, http.StatusCreated, u.User)
}

func (s *Server) createEmailPasswordSession(w http.ResponseWriter, r *http.Request, c credentials) {
	var body struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, u := range s.users {
		if u.Email == body.Email && u.password == body.Password {
			secret := randomHex(32)
			s.sessions[secret] = u.ID
			writeJSON(w, http.StatusCreated, appwrite.Session{ID: randomHex(10), UserID: u.ID, Expire: expiry()})
			return
		}
	}
	writeError(w, http.StatusUnauthorized, "user_invalid_credentials", "Invalid credentials. Please check the email and password.")
}

func (s *Server) deleteSession(w http.ResponseWriter, r *http.Request, c credentials) {
	if c.mode != appwrite.CredentialSession {
		writeError(w, http.StatusUnauthorized, "general_unauthorized_scope", "User (role: guests) missing scope (account)")
		return
	}
	s.mu.Lock()
	delete(s.sessions, c.secret)
	s.mu.Unlock()
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) getUser(w http.ResponseWriter, r *http.Request, c credentials) {
	if !requireKey(w, c) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[mux.Vars(r)["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "user_not_found", "User with the requested ID could not be found.")
		return
	}
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) deleteUser(w http.ResponseWriter, r *http.Request, c credentials) {
	if !requireKey(w, c) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := mux.Vars(r)["id"]
	if _, ok := s.users[id]; !ok {
		writeError(w, http.StatusNotFound, "user_not_found", "User with the requested ID could not be found.")
		return
	}
	delete(s.users, id)
	w.WriteHeader(http.StatusNoContent)
}

func (s *Server) updateLabels(w http.ResponseWriter, r *http.Request, c credentials) {
	if !requireKey(w, c) {
		return
	}
	var body struct {
		Labels []string `json:"labels"`
	}
	if !decode(w, r, &body) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.users[mux.Vars(r)["id"]]
	if !ok {
		writeError(w, http.StatusNotFound, "user_not_found", "User with the requested ID could not be found.")
		return
	}
	u.Labels = append([]string{}, body.Labels...)
	writeJSON(w, http.StatusOK, u.User)
}

func (s *Server) createSession(w http.ResponseWriter, r *http.Request, c credentials) {
	if !requireKey(w, c) {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	id := mux.Vars(r)["id"]
	if _, ok := s.users[id]; !ok {
		writeError(w, http.StatusNotFound, "user_not_found", "User with the requested ID could not be found.")
		return
	}
	secret := randomHex(32)
	s.sessions[secret] = id
	writeJSON(w, http.StatusCreated, appwrite.Session{ID: randomHex(10), UserID: id, Secret: secret, Expire: expiry()})
}

func decode(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	decoder := json.NewDecoder(r.Body)
	decoder.UseNumber()
	if err := decoder.Decode(v); err != nil {
		writeError(w, http.StatusBadRequest, "general_argument_invalid", "Invalid JSON body: "+err.Error())
		return false
	}
	return true
}

func writeError(w http.ResponseWriter, code int, errorType, message string) {
	writeJSON(w, code, appwrite.Error{Message: message, Code: code, Type: errorType, Version: "1.6.0"})
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func timestamp() string {
	return time.Now().UTC().Format("2006-01-02T15:04:05.000+00:00")
}

func expiry() string {
	return time.Now().Add(365 * 24 * time.Hour).UTC().Format("2006-01-02T15:04:05.000+00:00")
}

func randomHex(n int) string {
	b := make([]byte, n)
	if _, err := rand.Read(b); err != nil {
		return strconv.FormatInt(time.Now().UnixNano(), 16)
	}
	return hex.EncodeToString(b)
}
