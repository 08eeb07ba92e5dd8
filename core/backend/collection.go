package backend

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"strconv"

	"github.com/goccy/go-json"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/httperr"
	"github.com/relabs-tech/sakamichi/core/logger"
	"github.com/relabs-tech/sakamichi/core/schema"
)

func (b *Backend) createCollectionResource(router *mux.Router, rc collectionConfiguration) {
	resource := rc.Resource
	groupName := group(resource)
	resourcePrefix := prefix(resource)
	collectionID := b.collections[rc.Collection]
	nillog := logger.Default()
	nillog.Debugln("create collection:", resource)

	schemaID := rc.SchemaID
	if schemaID != "" && !b.validator.HasSchema(schemaID) {
		panic("invalid configuration: unknown schema " + schemaID + " for collection " + resource)
	}

	for _, view := range rc.Views {
		nillog.Debugln("  handle view route:", resourcePrefix+view.Route)
		b.handle(router, groupName, resourcePrefix+view.Route, http.MethodGet, b.listDocuments(collectionID, "", view.Key, view.Select, view.Filter))
	}

	if rc.Search != nil {
		nillog.Debugln("  handle search route:", resourcePrefix+rc.Search.Route)
		b.handle(router, groupName, resourcePrefix+rc.Search.Route, http.MethodGet, b.searchDocuments(collectionID, rc.Key, *rc.Search))
	}

	for _, route := range rc.Routes.List {
		nillog.Debugln("  handle collection routes:", resourcePrefix+route, "GET")
		b.handle(router, groupName, resourcePrefix+route, http.MethodGet, b.listDocuments(collectionID, rc.Parent, rc.Key, rc.ListSelect, nil))
	}
	for _, route := range rc.Routes.Get {
		nillog.Debugln("  handle collection routes:", resourcePrefix+route, "GET")
		b.handle(router, groupName, resourcePrefix+route, http.MethodGet, b.getDocument(collectionID, rc.Key, rc.GetSelect))
	}

	create := func(w http.ResponseWriter, r *http.Request) {
		data, err := b.readBody(r, schemaID)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		if len(rc.Fields) > 0 {
			picked := map[string]interface{}{}
			for _, f := range rc.Fields {
				if v, ok := data[f]; ok {
					picked[f] = v
				}
			}
			data = picked
		}
		if parent, ok := mux.Vars(r)["parent"]; ok && rc.Parent != "" {
			data[rc.Parent] = parent
		}

		client, _ := b.session(r.Context())
		doc, err := client.Databases().CreateDocument(r.Context(), b.databaseID, collectionID, appwrite.UniqueID(), data, permissions())
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		writeJSON(w, r, map[string]interface{}{rc.Key: doc})
	}

	update := func(w http.ResponseWriter, r *http.Request) {
		data, err := b.readBody(r, schema.Document)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		client, _ := b.session(r.Context())
		doc, err := client.Databases().UpdateDocument(r.Context(), b.databaseID, collectionID, mux.Vars(r)["id"], data)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		writeJSON(w, r, map[string]interface{}{rc.Key: doc})
	}

	for _, route := range rc.Routes.Create {
		nillog.Debugln("  handle collection routes:", resourcePrefix+route, "POST")
		b.handle(router, groupName, resourcePrefix+route, http.MethodPost, b.gate.RequireFunc(create))
	}
	for _, route := range rc.Routes.Update {
		nillog.Debugln("  handle collection routes:", resourcePrefix+route, "PATCH")
		b.handle(router, groupName, resourcePrefix+route, http.MethodPatch, b.gate.RequireFunc(update))
	}
	for _, route := range rc.Routes.Delete {
		nillog.Debugln("  handle collection routes:", resourcePrefix+route, "DELETE")
		b.handle(router, groupName, resourcePrefix+route, http.MethodDelete, b.gate.RequireFunc(b.deleteDocument(collectionID)))
	}
}

// listDocuments lists the documents of a collection. With a parent field, only
// children of the {parent} path variable are listed.
func (b *Backend) listDocuments(collectionID, parent, key string, selected []string, filter map[string]interface{}) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var queries []appwrite.Query
		if parent != "" {
			queries = append(queries, appwrite.Equal(parent, mux.Vars(r)["parent"]))
		}
		for attribute, value := range filter {
			queries = append(queries, appwrite.Equal(attribute, value))
		}
		if len(selected) > 0 {
			queries = append(queries, appwrite.Select(selected...))
		}

		list, err := b.factory.Public().Databases().ListDocuments(r.Context(), b.databaseID, collectionID, queries...)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		writeJSON(w, r, map[string]interface{}{key: list})
	}
}

// searchDocuments lists documents filtered by an optional query parameter and
// sorted by the order attribute. Sorting is descending only for "desc". The
// query parameter "limit" caps the number of returned documents.
func (b *Backend) searchDocuments(collectionID, key string, sc searchConfiguration) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var queries []appwrite.Query
		if value := r.URL.Query().Get(sc.FilterParameter); value != "" {
			queries = append(queries, appwrite.Equal(sc.FilterAttribute, value))
		}
		if value := r.URL.Query().Get("limit"); value != "" {
			limit, err := strconv.Atoi(value)
			if err != nil || limit < 1 {
				httperr.Write(w, r, httperr.New(http.StatusBadRequest, "limit must be a positive number", "invalid_query"))
				return
			}
			queries = append(queries, appwrite.Limit(limit))
		}
		if r.URL.Query().Get(sc.SortParameter) == "desc" {
			queries = append(queries, appwrite.OrderDesc(sc.OrderAttribute))
		} else {
			queries = append(queries, appwrite.OrderAsc(sc.OrderAttribute))
		}

		list, err := b.factory.Public().Databases().ListDocuments(r.Context(), b.databaseID, collectionID, queries...)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		writeJSON(w, r, map[string]interface{}{key: list})
	}
}

func (b *Backend) getDocument(collectionID, key string, selected []string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var queries []appwrite.Query
		if len(selected) > 0 {
			queries = append(queries, appwrite.Select(selected...))
		}
		doc, err := b.factory.Public().Databases().GetDocument(r.Context(), b.databaseID, collectionID, mux.Vars(r)["id"], queries...)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		writeJSON(w, r, map[string]interface{}{key: doc})
	}
}

func (b *Backend) deleteDocument(collectionID string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		client, _ := b.session(r.Context())
		err := client.Databases().DeleteDocument(r.Context(), b.databaseID, collectionID, mux.Vars(r)["id"])
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		writeDeleted(w, r)
	}
}

// readBody reads a JSON object from the request body and validates it against
// schemaID, if given
func (b *Backend) readBody(r *http.Request, schemaID string) (map[string]interface{}, error) {
	body, err := io.ReadAll(http.MaxBytesReader(nil, r.Body, maxBodySize))
	if err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			return nil, httperr.New(http.StatusRequestEntityTooLarge, "request body is too large", "body_too_large")
		}
		return nil, httperr.Validation("cannot read request body", err)
	}
	if len(bytes.TrimSpace(body)) == 0 {
		return nil, httperr.New(http.StatusBadRequest, "request body is empty", "invalid_body")
	}
	if schemaID != "" {
		if err := b.validator.ValidateBytes(body, schemaID); err != nil {
			return nil, httperr.Validation("Error:S400 invalid request body", err)
		}
	}

	var data map[string]interface{}
	decoder := json.NewDecoder(bytes.NewReader(body))
	decoder.UseNumber()
	if err := decoder.Decode(&data); err != nil {
		return nil, httperr.Validation("request body is not a JSON object", err)
	}
	if data == nil {
		return nil, httperr.New(http.StatusBadRequest, "request body is not a JSON object", "invalid_body")
	}
	return data, nil
}
