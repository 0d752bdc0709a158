package controllers

import (
	"time"

	"go.uber.org/zap"

	auth "github.com/phillip/community-platform-go/auth"
	config "github.com/phillip/community-platform-go/config"
	store "github.com/phillip/community-platform-go/store"
	utils "github.com/phillip/community-platform-go/utils"
)

// Env carries the dependencies every handler needs. Handlers are built as
// methods on it and returned as gin.HandlerFunc.
type Env struct {
	Cfg    *config.Config
	Stores *store.Stores
	Auth   *auth.Service
	Images utils.ImageStore
	Mailer utils.Mailer
	Log    *zap.Logger

	now     func() time.Time
	started time.Time
}

func NewEnv(cfg *config.Config, stores *store.Stores, authSvc *auth.Service, images utils.ImageStore, mailer utils.Mailer, log *zap.Logger) *Env {
	if log == nil {
		log = zap.NewNop()
	}
	if mailer == nil {
		mailer = utils.NopMailer{}
	}
	return &Env{
		Cfg:     cfg,
		Stores:  stores,
		Auth:    authSvc,
		Images:  images,
		Mailer:  mailer,
		Log:     log,
		now:     time.Now,
		started: time.Now(),
	}
}
