package service

import (
	"context"
	"fmt"
	"net/url"
	"time"

	"github.com/jonboulle/clockwork"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/db"
	"go.lumeweb.com/passreset/db/models"
	"go.lumeweb.com/passreset/event"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	resetPagePath = "/resetpassword.html"
	resetQueryKey = "key"
	sweepJobName  = "password_reset.sweep"
)

var _ core.PasswordResetService = (*PasswordResetServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.PASSWORD_RESET_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewPasswordResetService(clockwork.NewRealClock())
		},
		Depends: []string{core.USER_SERVICE, core.MAILER_SERVICE, core.ACCESS_SERVICE, core.FEDERATED_SERVICE, core.CRON_SERVICE},
	})
}

type PasswordResetServiceDefault struct {
	ctx       core.Context
	db        *gorm.DB
	logger    *core.Logger
	clock     clockwork.Clock
	user      core.UserService
	mailer    core.MailerService
	access    core.AccessService
	federated core.FederatedService

	baseURL     string
	cooldown    time.Duration
	expiry      time.Duration
	deliverLink bool
}

func NewPasswordResetService(clock clockwork.Clock) (*PasswordResetServiceDefault, []core.ContextBuilderOption, error) {
	passwordService := &PasswordResetServiceDefault{
		clock: clock,
	}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			cfg := ctx.Config().Config().Core

			passwordService.ctx = ctx
			passwordService.db = ctx.DB()
			passwordService.logger = ctx.Logger()
			passwordService.user = core.GetService[core.UserService](ctx, core.USER_SERVICE)
			passwordService.mailer = core.GetService[core.MailerService](ctx, core.MAILER_SERVICE)
			passwordService.access = core.GetService[core.AccessService](ctx, core.ACCESS_SERVICE)
			passwordService.federated = core.GetService[core.FederatedService](ctx, core.FEDERATED_SERVICE)

			passwordService.baseURL = cfg.Reset.BaseURL()
			passwordService.cooldown = cfg.Reset.Cooldown
			passwordService.expiry = cfg.Reset.Expiry
			passwordService.deliverLink = cfg.Federated.DeliverLink

			registerAuditListeners(ctx)

			return nil
		}),
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			interval := ctx.Config().Config().Core.Reset.SweepInterval
			if interval <= 0 {
				return nil
			}

			cron := core.GetService[core.CronService](ctx, core.CRON_SERVICE)

			return cron.RegisterJob(sweepJobName, interval, func(ctx context.Context) error {
				_, err := passwordService.SweepExpired(ctx)
				return err
			})
		}),
	)

	return passwordService, opts, nil
}

func (p *PasswordResetServiceDefault) ID() string {
	return core.PASSWORD_RESET_SERVICE
}

func (p *PasswordResetServiceDefault) RequestReset(ctx context.Context, email string) (*core.PasswordResetRequest, error) {
	email = core.NormalizeEmail(email)
	if !core.ValidEmail(email) {
		return nil, core.NewAccountError(core.ErrKeyUserNotFound, nil)
	}

	user, err := p.user.FindByEmail(ctx, email)
	if err != nil {
		return nil, transientError(err)
	}

	if user == nil {
		return p.requestFederatedReset(ctx, email)
	}

	now := p.clock.Now().UTC()

	if user.ResetCoolingDown(now, p.cooldown) {
		return nil, core.NewAccountError(core.ErrKeyResetRateLimited, nil)
	}

	token, err := core.GenerateResetToken()
	if err != nil {
		return nil, core.NewAccountError(core.ErrKeyTransientFailure, err)
	}

	issued, err := p.user.UpdateAccountInfoIf(ctx, user.ID, observedReset(user), map[string]any{
		"reset_token":        token,
		"reset_requested_at": now,
	})
	if err != nil {
		return nil, transientError(err)
	}

	// Another request issued or consumed a token after we read it.
	if !issued {
		return nil, core.NewAccountError(core.ErrKeyResetRateLimited, nil)
	}

	resetURL := p.resetURL(token)

	// The token is committed; delivery and auditing finish even if the caller goes away.
	ctx = context.WithoutCancel(ctx)

	if err := event.FirePasswordResetRequestedEvent(p.ctx, user.UID, user.FederatedLogin); err != nil {
		p.logger.Error("failed to fire event", zap.String("event", event.EVENT_PASSWORD_RESET_REQUESTED), zap.Error(err))
	}

	if err := p.sendResetEmail(ctx, user.Email, resetURL, user.FederatedLogin); err != nil {
		return nil, core.NewAccountError(core.ErrKeyResetDeliveryFailed, err)
	}

	return &core.PasswordResetRequest{URL: resetURL}, nil
}

func (p *PasswordResetServiceDefault) requestFederatedReset(ctx context.Context, email string) (*core.PasswordResetRequest, error) {
	if !p.federated.Enabled() {
		return nil, core.NewAccountError(core.ErrKeyUserNotFound, nil)
	}

	account, err := p.federated.LookupByEmail(ctx, email)
	if err != nil {
		p.logger.Warn("federated lookup failed, treating account as absent", zap.Error(err))
		account = nil
	}

	if account == nil {
		return nil, core.NewAccountError(core.ErrKeyUserNotFound, nil)
	}

	p.logger.Debug("resetting federated account", zap.String("id", account.ID), zap.Strings("providers", account.Providers))

	link, err := p.federated.GenerateResetLink(ctx, email)
	if err != nil {
		return nil, core.NewAccountError(core.ErrKeyTransientFailure, err)
	}

	if err := event.FirePasswordResetFederatedEvent(p.ctx, account.ID); err != nil {
		p.logger.Error("failed to fire event", zap.String("event", event.EVENT_PASSWORD_RESET_FEDERATED), zap.Error(err))
	}

	if p.deliverLink {
		if err := p.sendResetEmail(context.WithoutCancel(ctx), email, link, false); err != nil {
			return nil, core.NewAccountError(core.ErrKeyResetDeliveryFailed, err)
		}
	}

	return &core.PasswordResetRequest{URL: link, Federated: true}, nil
}

func (p *PasswordResetServiceDefault) ConsumeReset(ctx context.Context, token string, password string) (*core.PasswordResetCompletion, error) {
	if token == "" {
		return nil, core.NewAccountError(core.ErrKeySecurityInvalidToken, nil)
	}

	user, err := p.user.FindByResetToken(ctx, token)
	if err != nil {
		return nil, transientError(err)
	}

	if user == nil {
		return nil, core.NewAccountError(core.ErrKeySecurityInvalidToken, nil)
	}

	hadFederatedLogin := user.FederatedLogin
	tokenCondition := map[string]any{"reset_token": token}

	if user.ResetExpired(p.clock.Now().UTC(), p.expiry) {
		cleared, err := p.user.UpdateAccountInfoIf(ctx, user.ID, tokenCondition, map[string]any{"reset_token": nil})
		if err != nil {
			return nil, transientError(err)
		}

		if cleared {
			if err := event.FirePasswordResetExpiredEvent(p.ctx, user.UID); err != nil {
				p.logger.Error("failed to fire event", zap.String("event", event.EVENT_PASSWORD_RESET_EXPIRED), zap.Error(err))
			}
		}

		return nil, core.NewAccountError(core.ErrKeySecurityTokenExpired, nil)
	}

	salt, err := core.GeneratePasswordSalt()
	if err != nil {
		return nil, core.NewAccountError(core.ErrKeyHashingFailed, err)
	}

	hash, err := p.user.HashPassword(password, salt)
	if err != nil {
		if core.IsAccountError(err) {
			return nil, err
		}
		return nil, core.NewAccountError(core.ErrKeyHashingFailed, err)
	}

	consumed, err := p.user.UpdateAccountInfoIf(ctx, user.ID, tokenCondition, map[string]any{
		"password_hash":   hash,
		"password_salt":   salt,
		"reset_token":     nil,
		"federated_login": false,
	})
	if err != nil {
		return nil, transientError(err)
	}

	// A concurrent consumer cleared the token first.
	if !consumed {
		return nil, core.NewAccountError(core.ErrKeySecurityInvalidToken, nil)
	}

	ctx = context.WithoutCancel(ctx)

	if err := p.access.RevokeAll(ctx, user.UID); err != nil {
		p.logger.Error("failed to revoke account access", zap.String("uid", user.UID), zap.Error(err))
	}

	if err := event.FirePasswordResetCompletedEvent(p.ctx, user.UID, hadFederatedLogin); err != nil {
		p.logger.Error("failed to fire event", zap.String("event", event.EVENT_PASSWORD_RESET_COMPLETED), zap.Error(err))
	}

	return &core.PasswordResetCompletion{
		UID:               user.UID,
		HadFederatedLogin: hadFederatedLogin,
	}, nil
}

// SweepExpired clears every token issued before the expiry window. Tokens exactly at the boundary are kept.
func (p *PasswordResetServiceDefault) SweepExpired(ctx context.Context) (int64, error) {
	cutoff := p.clock.Now().UTC().Add(-p.expiry)

	var cleared int64

	err := db.RetryOnLock(p.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		tx := db.Model(&models.User{}).
			Where("reset_token IS NOT NULL").
			Where("reset_requested_at IS NULL OR reset_requested_at < ?", cutoff).
			Update("reset_token", nil)
		cleared = tx.RowsAffected

		return tx
	})
	if err != nil {
		return 0, core.NewAccountError(core.ErrKeyTransientFailure, err)
	}

	if cleared > 0 {
		p.logger.Info("cleared expired reset tokens", zap.Int64("count", cleared))
	}

	return cleared, nil
}

func (p *PasswordResetServiceDefault) resetURL(token string) string {
	return fmt.Sprintf("%s%s?%s=%s", p.baseURL, resetPagePath, resetQueryKey, url.QueryEscape(token))
}

func (p *PasswordResetServiceDefault) sendResetEmail(ctx context.Context, to string, resetURL string, federatedLogin bool) error {
	vars := core.MailerTemplateData{
		"ResetURL":       resetURL,
		"FederatedLogin": federatedLogin,
		"ExpiresIn":      formatWindow(p.expiry),
	}

	return p.mailer.TemplateSend(ctx, core.MAILER_TPL_PASSWORD_RESET, vars, vars, to)
}

// observedReset is the compare part of an issuance: the token and issue time as read, or their absence.
// Consuming a token keeps its issue time, so a read taken before an issue and consume no longer matches.
func observedReset(user *models.User) map[string]any {
	observed := map[string]any{
		"reset_token":        nil,
		"reset_requested_at": nil,
	}

	if user.ResetToken != nil {
		observed["reset_token"] = *user.ResetToken
	}
	if user.ResetRequestedAt != nil {
		observed["reset_requested_at"] = *user.ResetRequestedAt
	}

	return observed
}

func transientError(err error) error {
	if core.IsAccountError(err) {
		return err
	}

	return core.NewAccountError(core.ErrKeyTransientFailure, err)
}

func formatWindow(d time.Duration) string {
	switch {
	case d == time.Hour:
		return "1 hour"
	case d%time.Hour == 0:
		return fmt.Sprintf("%d hours", d/time.Hour)
	case d%time.Minute == 0:
		return fmt.Sprintf("%d minutes", d/time.Minute)
	default:
		return d.String()
	}
}
