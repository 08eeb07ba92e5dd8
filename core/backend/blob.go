package backend

import (
	"context"
	"mime/multipart"
	"net/http"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/httperr"
	"github.com/relabs-tech/sakamichi/core/logger"
	"github.com/relabs-tech/sakamichi/core/saga"
	"github.com/relabs-tech/sakamichi/core/storage"
)

// imageField is the multipart field carrying the uploaded image
const imageField = "image"

func (b *Backend) createBlobResource(router *mux.Router, rc blobConfiguration) {
	resource := rc.Resource
	groupName := group(resource)
	resourcePrefix := prefix(resource)
	collectionID := b.collections[rc.Collection]
	bucketID := b.buckets.ByName()[rc.Bucket]
	nillog := logger.Default()
	nillog.Debugln("create blob:", resource)

	for _, view := range rc.Views {
		nillog.Debugln("  handle view route:", resourcePrefix+view.Route)
		b.handle(router, groupName, resourcePrefix+view.Route, http.MethodGet, b.listDocuments(collectionID, "", view.Key, view.Select, view.Filter))
	}
	for _, route := range rc.Routes.List {
		nillog.Debugln("  handle blob routes:", resourcePrefix+route, "GET")
		b.handle(router, groupName, resourcePrefix+route, http.MethodGet, b.listDocuments(collectionID, rc.Parent, rc.Key, rc.ListSelect, nil))
	}
	for _, route := range rc.Routes.Get {
		nillog.Debugln("  handle blob routes:", resourcePrefix+route, "GET")
		b.handle(router, groupName, resourcePrefix+route, http.MethodGet, b.getDocument(collectionID, rc.Key, nil))
	}

	create := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			httperr.Write(w, r, httperr.Validation("Error:S400 invalid multipart form", err))
			return
		}
		data, err := formFields(r.MultipartForm, rc.Fields, false)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		file, err := formImage(r.MultipartForm, "")
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		if file == nil {
			httperr.Write(w, r, httperr.New(http.StatusBadRequest, "Error:S400 image is required", "missing_image"))
			return
		}
		defer file.close()

		client, secret := b.session(ctx)
		obj, err := b.storage.Put(ctx, secret, bucketID, file.File)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		parent := mux.Vars(r)["parent"]
		data["url"] = obj.URL
		if rc.Parent != "" {
			data[rc.Parent] = parent
		}

		var doc appwrite.Document
		err = b.runner.Then(ctx,
			saga.Effect{Kind: "file", Resource: bucketID, ID: obj.ID, Detail: "create document in " + rc.Collection},
			func(ctx context.Context) error { return b.storage.Delete(ctx, secret, bucketID, obj.ID) },
			func(ctx context.Context) error {
				var err error
				doc, err = client.Databases().CreateDocument(ctx, b.databaseID, collectionID, appwrite.UniqueID(), data, permissions())
				return err
			})
		if err != nil {
			httperr.Write(w, r, err)
			return
		}

		if p := rc.Profile; p != nil && data[p.Flag] == true {
			err = b.runner.Then(ctx,
				saga.Effect{Kind: "document", Resource: collectionID, ID: doc.ID(), Detail: "set " + p.Attribute + " of " + parent},
				nil,
				func(ctx context.Context) error {
					_, err := client.Databases().UpdateDocument(ctx, b.databaseID, b.collections[p.Collection], parent,
						map[string]interface{}{p.Attribute: obj.URL})
					return err
				})
			if err != nil {
				httperr.Write(w, r, err)
				return
			}
		}
		writeJSON(w, r, map[string]interface{}{rc.Key: doc})
	}

	update := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			httperr.Write(w, r, httperr.Validation("Error:S400 invalid multipart form", err))
			return
		}
		data, err := formFields(r.MultipartForm, rc.Fields, true)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		file, err := formImage(r.MultipartForm, "")
		if err != nil {
			httperr.Write(w, r, err)
			return
		}

		client, secret := b.session(ctx)
		id := mux.Vars(r)["id"]
		var doc appwrite.Document
		updateDocument := func(ctx context.Context) error {
			var err error
			doc, err = client.Databases().UpdateDocument(ctx, b.databaseID, collectionID, id, data)
			return err
		}

		if file == nil {
			err = updateDocument(ctx)
		} else {
			defer file.close()
			var obj storage.Object
			obj, err = b.storage.Put(ctx, secret, bucketID, file.File)
			if err != nil {
				httperr.Write(w, r, err)
				return
			}
			data["url"] = obj.URL
			err = b.runner.Then(ctx,
				saga.Effect{Kind: "file", Resource: bucketID, ID: obj.ID, Detail: "update document " + id + " in " + rc.Collection},
				func(ctx context.Context) error { return b.storage.Delete(ctx, secret, bucketID, obj.ID) },
				updateDocument)
		}
		if err != nil {
			httperr.Write(w, r, err)
			return
		}

		if rc.UpdateKey == "" {
			writeJSON(w, r, map[string]interface{}{rc.Key: doc})
			return
		}
		response := map[string]interface{}{rc.UpdateKey: doc}
		if rc.UpdateSuccess {
			response["success"] = true
		}
		writeJSON(w, r, response)
	}

	for _, route := range rc.Routes.Create {
		nillog.Debugln("  handle blob routes:", resourcePrefix+route, "POST")
		b.handle(router, groupName, resourcePrefix+route, http.MethodPost, b.gate.RequireFunc(create))
	}
	for _, route := range rc.Routes.Update {
		nillog.Debugln("  handle blob routes:", resourcePrefix+route, "PATCH")
		b.handle(router, groupName, resourcePrefix+route, http.MethodPatch, b.gate.RequireFunc(update))
	}
	for _, route := range rc.Routes.Delete {
		nillog.Debugln("  handle blob routes:", resourcePrefix+route, "DELETE")
		b.handle(router, groupName, resourcePrefix+route, http.MethodDelete, b.gate.RequireFunc(b.deleteDocument(collectionID)))
	}
}

// createSingleImageResource handles the artwork of singles. Images are stored
// in their own bucket and are not referenced by a document.
func (b *Backend) createSingleImageResource(router *mux.Router) {
	groupName := "single"
	bucketID := b.buckets.SingleImage
	logger.Default().Debugln("create single image routes in bucket", bucketID)

	upload := func(w http.ResponseWriter, r *http.Request) {
		ctx := r.Context()
		if err := r.ParseMultipartForm(maxMemory); err != nil {
			httperr.Write(w, r, httperr.Validation("Error:S400 invalid multipart form", err))
			return
		}
		file, err := formImage(r.MultipartForm, r.FormValue("filename"))
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		if file == nil {
			httperr.Write(w, r, httperr.New(http.StatusBadRequest, "Error:S400 image is required", "missing_image"))
			return
		}
		defer file.close()

		_, secret := b.session(ctx)
		obj, err := b.storage.Put(ctx, secret, bucketID, file.File)
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		writeJSON(w, r, map[string]string{"urlImage": obj.URL})
	}

	preview := func(w http.ResponseWriter, r *http.Request) {
		_, secret := b.session(r.Context())
		data, _, err := b.storage.Preview(r.Context(), secret, bucketID, mux.Vars(r)["id"])
		if err != nil {
			httperr.Write(w, r, err)
			return
		}
		w.Header().Set("Content-Type", "image/jpeg")
		w.WriteHeader(http.StatusOK)
		w.Write(data)
	}

	b.handle(router, groupName, "/image", http.MethodPost, b.gate.RequireFunc(upload))
	b.handle(router, groupName, "/image/{id}", http.MethodGet, b.gate.RequireFunc(preview))
}

// formFields converts the configured fields of a multipart form into document
// attributes. Only fields present in the form are returned.
func formFields(form *multipart.Form, fields []fieldConfiguration, update bool) (map[string]interface{}, error) {
	data := map[string]interface{}{}
	for _, f := range fields {
		if f.UpdateOnly && !update {
			continue
		}
		values, ok := form.Value[f.Name]
		if !ok || len(values) == 0 {
			continue
		}
		value := values[0]
		switch f.Type {
		case "number":
			n, err := strconv.ParseFloat(value, 64)
			if err != nil {
				return nil, httperr.Validation("Error:S400 "+f.Name+" must be a number", err)
			}
			if n == float64(int64(n)) {
				data[f.Name] = int64(n)
			} else {
				data[f.Name] = n
			}
		case "bool":
			data[f.Name] = value == "true"
		default:
			data[f.Name] = value
		}
	}
	return data, nil
}

type formFile struct {
	storage.File
	close func() error
}

// formImage opens the image of a multipart form. It returns nil if the form has no image.
func formImage(form *multipart.Form, name string) (*formFile, error) {
	headers := form.File[imageField]
	if len(headers) == 0 {
		return nil, nil
	}
	header := headers[0]
	f, err := header.Open()
	if err != nil {
		return nil, httperr.Validation("Error:S400 cannot read image", err)
	}
	if name == "" {
		name = header.Filename
	}
	contentType := header.Header.Get("Content-Type")
	if contentType == "" {
		contentType = "application/octet-stream"
	}
	return &formFile{
		File:  storage.File{Name: name, ContentType: contentType, Size: header.Size, Reader: f},
		close: f.Close,
	}, nil
}
