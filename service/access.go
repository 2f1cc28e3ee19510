package service

import (
	"context"
	"errors"

	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/db"
	"go.lumeweb.com/passreset/db/models"
	"go.lumeweb.com/passreset/event"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

var _ core.AccessService = (*AccessServiceDefault)(nil)

type AccessServiceDefault struct {
	ctx    core.Context
	db     *gorm.DB
	logger *core.Logger
}

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.ACCESS_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewAccessService()
		},
	})
}

func NewAccessService() (*AccessServiceDefault, []core.ContextBuilderOption, error) {
	service := &AccessServiceDefault{}
	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			service.ctx = ctx
			service.db = ctx.DB()
			service.logger = ctx.Logger()

			return nil
		}),
	)

	return service, opts, nil
}

func (a *AccessServiceDefault) ID() string {
	return core.ACCESS_SERVICE
}

// RevokeAll hard deletes the sessions and API keys of uid in one transaction.
func (a *AccessServiceDefault) RevokeAll(ctx context.Context, uid string) error {
	var sessions, apiKeys int64

	err := db.RetryableTransaction(ctx, a.db, func(tx *gorm.DB) error {
		var user models.User
		if err := tx.Select("id").Where("uid = ?", uid).First(&user).Error; err != nil {
			return err
		}

		res := tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.Session{})
		if res.Error != nil {
			return res.Error
		}
		sessions = res.RowsAffected

		res = tx.Unscoped().Where("user_id = ?", user.ID).Delete(&models.APIKey{})
		if res.Error != nil {
			return res.Error
		}
		apiKeys = res.RowsAffected

		return nil
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return core.NewAccountError(core.ErrKeyUserNotFound, err)
		}
		return core.NewAccountError(core.ErrKeyTransientFailure, err)
	}

	a.logger.Debug("revoked account access", zap.String("uid", uid), zap.Int64("sessions", sessions), zap.Int64("api_keys", apiKeys))

	return event.FireUserAccessRevokedEvent(a.ctx, uid, sessions, apiKeys)
}
