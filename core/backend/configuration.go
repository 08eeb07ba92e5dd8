package backend

import (
	_ "embed"
	"fmt"
	"strings"

	"github.com/goccy/go-json"
)

//go:embed configuration.json
var defaultConfiguration string

// Configuration holds a complete backend configuration
type Configuration struct {
	Collections []collectionConfiguration `json:"collections"`
	Blobs       []blobConfiguration       `json:"blobs"`
	// CORS lists the route groups which get CORS headers
	CORS []string `json:"cors"`
}

// routesConfiguration lists the route patterns of a resource relative to its
// group. Patterns may contain {parent} and {id}.
type routesConfiguration struct {
	List   []string `json:"list"`
	Get    []string `json:"get"`
	Create []string `json:"create"`
	Update []string `json:"update"`
	Delete []string `json:"delete"`
}

// viewConfiguration is an additional list route with a fixed projection or filter
type viewConfiguration struct {
	Route  string                 `json:"route"`
	Key    string                 `json:"key"`
	Select []string               `json:"select"`
	Filter map[string]interface{} `json:"filter"`
}

// searchConfiguration is a filtered and sorted list route
type searchConfiguration struct {
	Route           string `json:"route"`
	FilterParameter string `json:"filter_parameter"`
	FilterAttribute string `json:"filter_attribute"`
	SortParameter   string `json:"sort_parameter"`
	OrderAttribute  string `json:"order_attribute"`
}

// collectionConfiguration describes a document collection resource
type collectionConfiguration struct {
	Resource    string `json:"resource"`
	Collection  string `json:"collection"`
	Key         string `json:"key"`
	Parent      string `json:"parent"`
	Description string `json:"description"`
	SchemaID    string `json:"schema_id"`
	// Fields restricts the attributes taken from a create request body
	Fields     []string             `json:"fields"`
	ListSelect []string             `json:"list_select"`
	GetSelect  []string             `json:"get_select"`
	Routes     routesConfiguration  `json:"routes"`
	Views      []viewConfiguration  `json:"views"`
	Search     *searchConfiguration `json:"search"`
}

// fieldConfiguration is a multipart form field stored as document attribute
type fieldConfiguration struct {
	Name string `json:"name"`
	// Type is one of string, number or bool
	Type string `json:"type"`
	// UpdateOnly fields are ignored on create
	UpdateOnly bool `json:"update_only"`
}

// profileConfiguration makes an uploaded image the picture of the parent document
type profileConfiguration struct {
	Flag       string `json:"flag"`
	Collection string `json:"collection"`
	Attribute  string `json:"attribute"`
}

// blobConfiguration describes a collection whose documents reference an uploaded image
type blobConfiguration struct {
	Resource    string                `json:"resource"`
	Collection  string                `json:"collection"`
	Key         string                `json:"key"`
	Parent      string                `json:"parent"`
	Description string                `json:"description"`
	Bucket      string                `json:"bucket"`
	Fields      []fieldConfiguration  `json:"fields"`
	ListSelect  []string              `json:"list_select"`
	Profile     *profileConfiguration `json:"profile"`
	// UpdateKey replaces Key in update responses, UpdateSuccess adds "success": true
	UpdateKey     string              `json:"update_key"`
	UpdateSuccess bool                `json:"update_success"`
	Routes        routesConfiguration `json:"routes"`
	Views         []viewConfiguration `json:"views"`
}

// group returns the route group of a resource, i.e. its first path segment
func group(resource string) string {
	if i := strings.Index(resource, "/"); i >= 0 {
		return resource[:i]
	}
	return resource
}

// prefix returns the route prefix of a resource inside its group
func prefix(resource string) string {
	if i := strings.Index(resource, "/"); i >= 0 {
		return resource[i:]
	}
	return ""
}

// parseConfiguration parses and checks a backend configuration
func parseConfiguration(data string, collections map[string]string, buckets map[string]string) (*Configuration, error) {
	var config Configuration
	if err := json.Unmarshal([]byte(data), &config); err != nil {
		return nil, fmt.Errorf("parse error in backend configuration: %w", err)
	}

	seen := map[string]bool{}
	check := func(resource, collection, key string) error {
		if resource == "" || key == "" {
			return fmt.Errorf("resource '%s' needs a resource name and a key", resource)
		}
		if seen[resource] {
			return fmt.Errorf("resource '%s' is declared twice", resource)
		}
		seen[resource] = true
		if collections[collection] == "" {
			return fmt.Errorf("resource '%s' refers to unknown collection '%s'", resource, collection)
		}
		return nil
	}

	for _, rc := range config.Collections {
		if err := check(rc.Resource, rc.Collection, rc.Key); err != nil {
			return nil, err
		}
	}
	for _, rc := range config.Blobs {
		if err := check(rc.Resource, rc.Collection, rc.Key); err != nil {
			return nil, err
		}
		if buckets[rc.Bucket] == "" {
			return nil, fmt.Errorf("resource '%s' refers to unknown bucket '%s'", rc.Resource, rc.Bucket)
		}
		for _, f := range rc.Fields {
			switch f.Type {
			case "string", "number", "bool":
			default:
				return nil, fmt.Errorf("field '%s' of resource '%s' has unknown type '%s'", f.Name, rc.Resource, f.Type)
			}
		}
		if rc.Profile != nil && collections[rc.Profile.Collection] == "" {
			return nil, fmt.Errorf("profile of resource '%s' refers to unknown collection '%s'", rc.Resource, rc.Profile.Collection)
		}
	}
	return &config, nil
}
