package app

import (
	"context"
	"fmt"
	"net/http"

	"github.com/WebRendHQ/MaclellanFamily.com/cmd/migrate"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/classifier"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/config"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/cursor"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/dispatch"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/encoder"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/lease"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/media"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/origin"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/queue"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/redisholder"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/repository/catalog"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/s3store"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/syncer"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/transport/handler"
	"github.com/WebRendHQ/MaclellanFamily.com/internal/transport/router"
)

type App struct {
	HTTPServer *http.Server
}

func New(cfg *config.Config) (*App, error) {
	ctx := context.Background()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	if err := migrate.Migrate(cfg.Database.DSN, migrate.Migrations); err != nil {
		return nil, err
	}

	repo, err := catalog.New(ctx, cfg.Database.DSN)
	if err != nil {
		return nil, err
	}

	holder, err := redisholder.Build(ctx, cfg)
	if err != nil {
		return nil, err
	}
	rc := holder.Get()

	cursors := cursor.NewStore("mirror:cursor", rc)
	leases := lease.NewManager(rc, cfg.Sync.LeaseTTL)

	store, err := s3store.New(ctx, &cfg.S3)
	if err != nil {
		return nil, err
	}

	dbx := origin.NewDropbox(ctx, &cfg.Dropbox)

	enc, err := encoder.New(ctx, &cfg.MediaConvert)
	if err != nil {
		return nil, err
	}

	worker := media.NewWorker(dbx, store, enc, repo, cfg.MediaConvert.RoleARN)

	var enq dispatch.Enqueuer
	if cfg.Sync.QueueEnabled {
		enq = queue.Init(ctx, rc, cfg.Worker, worker)
	}
	dispatcher := dispatch.New(enq, worker, cfg.Sync.ImageWidths)

	cls := classifier.New(cfg.Sync.RootPrefix)
	sync := syncer.New(dbx, cursors, leases, cls, dispatcher)

	h := handler.New(sync, repo, cfg)
	r := router.NewRouter(h)

	s := &http.Server{
		Handler:      r,
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
	}

	return &App{
		HTTPServer: s,
	}, nil
}

func (a *App) Run() error {
	return a.HTTPServer.ListenAndServe()
}
