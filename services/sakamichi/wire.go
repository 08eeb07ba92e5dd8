package main

import (
	"context"
	"fmt"
	"net/http"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/sqs"
	"github.com/gorilla/mux"

	"github.com/relabs-tech/sakamichi/core/access"
	"github.com/relabs-tech/sakamichi/core/appwrite"
	"github.com/relabs-tech/sakamichi/core/backend"
	"github.com/relabs-tech/sakamichi/core/config"
	"github.com/relabs-tech/sakamichi/core/logger"
	"github.com/relabs-tech/sakamichi/core/saga"
	"github.com/relabs-tech/sakamichi/core/storage"
)

// newRouter builds the complete service router from cfg
func newRouter(ctx context.Context, cfg *config.Config) (*mux.Router, error) {
	router := mux.NewRouter()
	logger.AddRequestID(router)

	factory := appwrite.NewFactory(&appwrite.Builder{
		Endpoint:   cfg.Endpoint,
		Project:    cfg.ProjectID,
		Key:        cfg.APIKey,
		HTTPClient: &http.Client{Timeout: cfg.BackendTimeout},
	})
	gate := access.NewGate(&access.Builder{
		Secret:        cfg.CookieSecret,
		Domain:        cfg.CookieDomain,
		MissingStatus: cfg.MissingSessionStatus,
	})

	driver, err := newStorage(ctx, cfg, router, factory)
	if err != nil {
		return nil, err
	}
	reporter, err := newReporter(ctx, cfg)
	if err != nil {
		return nil, err
	}

	backend.New(&backend.Builder{
		Router:      router,
		Factory:     factory,
		Gate:        gate,
		Storage:     driver,
		DatabaseID:  cfg.DatabaseID,
		Collections: cfg.Collections.ByName(),
		Buckets: backend.Buckets{
			Production:  cfg.ProductionBucket,
			SingleImage: cfg.SingleImageBucket,
		},
		Reporter:       reporter,
		Compensate:     cfg.CompensateOnFailure,
		AllowedOrigins: cfg.AllowedOrigins(),
	})
	return router, nil
}

func newStorage(ctx context.Context, cfg *config.Config, router *mux.Router, factory *appwrite.Factory) (storage.Driver, error) {
	switch cfg.StorageDriver {
	case config.StorageS3:
		return storage.NewS3(ctx, storage.S3Configuration{
			AWSRegion:     cfg.S3.Region,
			AccessID:      cfg.S3.AccessID,
			AccessKey:     cfg.S3.AccessKey,
			AWSBucketName: cfg.S3.Bucket,
			Endpoint:      cfg.S3.Endpoint,
			KeyPrefix:     cfg.S3.KeyPrefix,
			PublicURL:     cfg.S3.PublicURL,
		})
	case config.StorageLocal:
		return storage.NewLocalFilesystem(router, cfg.LocalStoragePath, cfg.PublicURL)
	case config.StorageAppwrite:
		return storage.NewAppwrite(factory), nil
	}
	return nil, fmt.Errorf("unknown storage driver '%s'", cfg.StorageDriver)
}

func newReporter(ctx context.Context, cfg *config.Config) (saga.Reporter, error) {
	if cfg.OrphanQueueURL == "" {
		return saga.LogReporter{}, nil
	}
	awsCfg, err := awsconfig.LoadDefaultConfig(ctx)
	if err != nil {
		return nil, fmt.Errorf("cannot load AWS configuration for the orphan queue: %w", err)
	}
	logger.Default().Infoln("report orphaned effects to", cfg.OrphanQueueURL)
	return saga.MultiReporter{
		saga.LogReporter{},
		saga.NewSQSReporter(sqs.NewFromConfig(awsCfg), cfg.OrphanQueueURL),
	}, nil
}
