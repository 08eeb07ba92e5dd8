/*
Package backend implements the configurable REST facade in front of the Appwrite platform

A backend owns no data. Documents live in Appwrite databases, images in Appwrite
buckets (or S3, or the local filesystem) and accounts in Appwrite users. The backend
translates a small REST API into calls against the platform and normalizes the answers.

Configuration

The configuration is done entirely via JSON. It consists of collections and blobs. The
embedded configuration.json describes the Sakamichi resources and is used unless
Builder.Config says otherwise.

Example:
  {
	"collections": [
	  {
		"resource": "single/trivia",
		"collection": "trivias",
		"key": "trivia",
		"parent": "singleId",
		"schema_id": "https://sakamichi.cloud/schemas/trivia.json",
		"fields": ["fact", "number"],
		"routes": {
		  "list": ["/{parent}"],
		  "create": ["/add/{parent}"],
		  "update": ["/update/{id}"],
		  "delete": ["/delete/{id}"]
		}
	  }
	],
	"blobs": [
	  {
		"resource": "single/covers",
		"collection": "covers",
		"key": "cover",
		"parent": "singleId",
		"bucket": "production",
		"fields": [
		  { "name": "name", "type": "string" },
		  { "name": "numberCover", "type": "number" }
		],
		"routes": {
		  "list": ["/{parent}"],
		  "create": ["/add/{parent}"]
		}
	  }
	],
	"cors": ["member"]
  }

The first path segment of a resource is its group, the rest is the route prefix within
the group. "collection" and "bucket" are logical names, Builder.Collections and
Builder.Buckets map them to platform ids. The example creates the following routes
below /api:

	GET    /single/trivia/{parent}
	POST   /single/trivia/add/{parent}
	PATCH  /single/trivia/update/{id}
	DELETE /single/trivia/delete/{id}
	GET    /single/covers/{parent}
	POST   /single/covers/add/{parent}

Responses

Every successful response wraps the platform's answer in an object with the resource key:

	{"trivia": {"total": 1, "documents": [...]}}
	{"trivia": {"$id": "...", "fact": "...", "number": 3, "singleId": "..."}}

Deletes answer with {"status": 200, "message": "..."}. Failures answer with
{"message": "...", "cause": "..."} and the status the platform returned.

Collections

A collection route reads and writes JSON documents. Create bodies are validated
against "schema_id". With "fields" only the listed attributes are stored, and the
{parent} path variable is written into the "parent" attribute. "list_select" and
"get_select" restrict the returned attributes. "views" add further list routes
with a fixed filter and selection, "search" adds a list route filtered and sorted by
query parameters. "limit" caps the number of returned documents:

	GET /single/search?group=nogizaka&sortDate=desc&limit=10

Blobs

A blob route stores an uploaded image together with a document. Requests are
multipart forms with the image in the field "image" and the configured "fields" as
form values. The image is stored first and its URL becomes the "url" attribute of the
document. If the document cannot be stored, the image is orphaned. Orphaned effects are
handed to the saga.Reporter and are removed again when Builder.Compensate is set.

With "profile", a create whose flag field is true also sets the image URL as
attribute of the parent document in another collection.

Authorization

Reads are public. Every create, update and delete requires the session cookie
minted by POST /account/admin/login. Requests without cookie never reach the
platform. Writes happen with the caller's session, the platform decides whether the
session may write. Documents and files are created readable by anyone and writable
by the admin label.
*/
package backend
