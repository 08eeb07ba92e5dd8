package appwrite

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
)

// Document is a document as returned by the backend, including the platform
// attributes such as $id, $createdAt and $updatedAt.
type Document map[string]interface{}

// ID returns the platform id of the document
func (d Document) ID() string {
	id, _ := d["$id"].(string)
	return id
}

// DocumentList is the response of a list call
type DocumentList struct {
	Total     int        `json:"total"`
	Documents []Document `json:"documents"`
}

// Databases is the document database service
type Databases struct {
	client *Client
}

func documentsPath(databaseID, collectionID string) string {
	return fmt.Sprintf("/databases/%s/collections/%s/documents", url.PathEscape(databaseID), url.PathEscape(collectionID))
}

func queryValues(queries []Query) url.Values {
	if len(queries) == 0 {
		return nil
	}
	v := url.Values{}
	for _, q := range queries {
		v.Add("queries[]", string(q))
	}
	return v
}

// ListDocuments lists the documents of a collection matching queries
func (d *Databases) ListDocuments(ctx context.Context, databaseID, collectionID string, queries ...Query) (*DocumentList, error) {
	list := &DocumentList{}
	err := d.client.call(ctx, request{
		method: http.MethodGet,
		path:   documentsPath(databaseID, collectionID),
		query:  queryValues(queries),
	}, list)
	if err != nil {
		return nil, err
	}
	if list.Documents == nil {
		list.Documents = []Document{}
	}
	return list, nil
}

// GetDocument returns a single document. Queries may only contain select queries.
func (d *Databases) GetDocument(ctx context.Context, databaseID, collectionID, documentID string, queries ...Query) (Document, error) {
	doc := Document{}
	err := d.client.call(ctx, request{
		method: http.MethodGet,
		path:   documentsPath(databaseID, collectionID) + "/" + url.PathEscape(documentID),
		query:  queryValues(queries),
	}, &doc)
	return doc, err
}

// CreateDocument creates a document with the given id, data and permissions
func (d *Databases) CreateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]interface{}, permissions []string) (Document, error) {
	body := map[string]interface{}{
		"documentId": documentID,
		"data":       data,
	}
	if permissions != nil {
		body["permissions"] = permissions
	}
	doc := Document{}
	err := d.client.call(ctx, request{
		method: http.MethodPost,
		path:   documentsPath(databaseID, collectionID),
		body:   body,
	}, &doc)
	return doc, err
}

// UpdateDocument merges data into an existing document
func (d *Databases) UpdateDocument(ctx context.Context, databaseID, collectionID, documentID string, data map[string]interface{}) (Document, error) {
	doc := Document{}
	err := d.client.call(ctx, request{
		method: http.MethodPatch,
		path:   documentsPath(databaseID, collectionID) + "/" + url.PathEscape(documentID),
		body:   map[string]interface{}{"data": data},
	}, &doc)
	return doc, err
}

// DeleteDocument deletes a document
func (d *Databases) DeleteDocument(ctx context.Context, databaseID, collectionID, documentID string) error {
	return d.client.call(ctx, request{
		method: http.MethodDelete,
		path:   documentsPath(databaseID, collectionID) + "/" + url.PathEscape(documentID),
	}, nil)
}
