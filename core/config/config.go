// Package config holds the environment configuration of the service.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/joeshaw/envdecode"
)

// Storage driver names accepted in STORAGE_DRIVER
const (
	StorageAppwrite = "appwrite"
	StorageS3       = "s3"
	StorageLocal    = "local"
)

// Collections maps every document kind to its collection id
type Collections struct {
	Singles     string `env:"HONO_SINGLE_COLLECTION_SINGLES_ID,required" description:"collection of singles"`
	Trivias     string `env:"HONO_SINGLE_COLLECTION_TRIVIAS_ID,required" description:"collection of trivia entries"`
	Covers      string `env:"HONO_SINGLE_COLLECTION_COVERS_ID,required" description:"collection of single covers"`
	Positions   string `env:"HONO_SINGLE_COLLECTION_POSITIONS_ID,required" description:"collection of member positions"`
	Members     string `env:"HONO_SINGLE_COLLECTION_MEMBERS_ID,required" description:"collection of members"`
	Gallery     string `env:"HONO_SINGLE_COLLECTION_GALLERY_ID,required" description:"collection of gallery items"`
	SocialMedia string `env:"HONO_SINGLE_COLLECTION_SOCIALMEDIA_ID,required" description:"collection of social media entries"`
	FunFacts    string `env:"HONO_SINGLE_COLLECTION_FUNFACT_ID,required" description:"collection of fun facts"`
}

// ByName returns the collection ids keyed by the names used in the backend configuration
func (c Collections) ByName() map[string]string {
	return map[string]string{
		"singles":     c.Singles,
		"trivias":     c.Trivias,
		"covers":      c.Covers,
		"positions":   c.Positions,
		"members":     c.Members,
		"gallery":     c.Gallery,
		"socialmedia": c.SocialMedia,
		"funfacts":    c.FunFacts,
	}
}

// S3 configures the optional S3 storage driver
type S3 struct {
	Region    string `env:"S3_REGION,default=eu-central-1"`
	AccessID  string `env:"S3_ACCESS_ID"`
	AccessKey string `env:"S3_ACCESS_KEY"`
	Bucket    string `env:"S3_BUCKET"`
	Endpoint  string `env:"S3_ENDPOINT" description:"custom endpoint, e.g. a MinIO server"`
	KeyPrefix string `env:"S3_KEY_PREFIX"`
	PublicURL string `env:"S3_PUBLIC_URL" description:"base URL under which stored objects are publicly readable"`
}

// Config is the complete service configuration
type Config struct {
	Endpoint     string `env:"HONO_API_ENDPOINT,required" description:"the BaaS endpoint including the version path"`
	ProjectID    string `env:"HONO_PROJECT_ID,required"`
	APIKey       string `env:"HONO_API_SECRET_KEY,required" description:"the admin API key"`
	CookieSecret string `env:"COOKIES_SECRET,required" description:"signing secret of the session cookie"`
	DatabaseID   string `env:"HONO_SINGLE_DATABASE_ID,required"`

	Collections Collections

	ProductionBucket  string `env:"HONO_PRODUCTION_BUCKET_ID,required" description:"bucket for gallery and cover images"`
	SingleImageBucket string `env:"HONO_IMAGE_SINGLE_BUCKET_ID,required" description:"bucket for single artwork"`

	Address              string        `env:"ADDRESS,default=:8000"`
	CookieDomain         string        `env:"COOKIE_DOMAIN,default=sakamichi.cloud"`
	MissingSessionStatus int           `env:"MISSING_SESSION_STATUS,default=404" description:"status returned when the session cookie is absent"`
	CORSAllowedOrigins   string        `env:"CORS_ALLOWED_ORIGINS,default=*" description:"comma separated list of origins"`
	LogLevel             string        `env:"LOG_LEVEL,default=info"`
	BackendTimeout       time.Duration `env:"BACKEND_TIMEOUT,default=20s"`

	StorageDriver string `env:"STORAGE_DRIVER,default=appwrite" description:"appwrite, s3 or local"`
	S3            S3

	LocalStoragePath string `env:"LOCAL_STORAGE_PATH,default=./files" description:"folder of the local storage driver"`
	PublicURL        string `env:"PUBLIC_URL,default=http://localhost:8000/" description:"external URL of this service, used for locally stored files"`

	OrphanQueueURL      string `env:"ORPHAN_QUEUE_URL" description:"SQS queue receiving orphaned side effects"`
	CompensateOnFailure bool   `env:"COMPENSATE_ON_FAILURE,default=false" description:"undo the first step of a failed two-step operation"`
}

// Load decodes the configuration from the environment and validates it
func Load() (*Config, error) {
	c := &Config{}
	if err := envdecode.Decode(c); err != nil {
		return nil, fmt.Errorf("cannot decode environment: %w", err)
	}
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

// Validate checks the values envdecode cannot check by itself
func (c *Config) Validate() error {
	u, err := url.Parse(c.Endpoint)
	if err != nil || u.Scheme == "" || u.Host == "" {
		return fmt.Errorf("HONO_API_ENDPOINT '%s' is not an absolute URL", c.Endpoint)
	}
	if c.MissingSessionStatus < http.StatusBadRequest || c.MissingSessionStatus > 499 {
		return fmt.Errorf("MISSING_SESSION_STATUS %d is not a client error status", c.MissingSessionStatus)
	}
	for name, id := range c.Collections.ByName() {
		if id == "" {
			return fmt.Errorf("collection id for %s is empty", name)
		}
	}
	switch c.StorageDriver {
	case StorageAppwrite:
	case StorageS3:
		if c.S3.Bucket == "" {
			return errors.New("S3_BUCKET is required for the s3 storage driver")
		}
		if c.S3.PublicURL == "" {
			return errors.New("S3_PUBLIC_URL is required for the s3 storage driver")
		}
	case StorageLocal:
		if c.LocalStoragePath == "" {
			return errors.New("LOCAL_STORAGE_PATH is required for the local storage driver")
		}
	default:
		return fmt.Errorf("unknown STORAGE_DRIVER '%s'", c.StorageDriver)
	}
	return nil
}

// AllowedOrigins returns CORSAllowedOrigins as a list
func (c *Config) AllowedOrigins() []string {
	var origins []string
	for _, o := range strings.Split(c.CORSAllowedOrigins, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, o)
		}
	}
	return origins
}
