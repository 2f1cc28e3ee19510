package service

import (
	"context"
	"crypto/subtle"
	"encoding/hex"
	"errors"

	"github.com/go-sql-driver/mysql"
	"go.lumeweb.com/passreset/core"
	"go.lumeweb.com/passreset/db"
	"go.lumeweb.com/passreset/db/models"
	"golang.org/x/crypto/argon2"
	"gorm.io/gorm"
)

const mysqlErrDuplicateEntry = 1062

var _ core.UserService = (*UserServiceDefault)(nil)

func init() {
	core.RegisterService(core.ServiceInfo{
		ID: core.USER_SERVICE,
		Factory: func() (core.Service, []core.ContextBuilderOption, error) {
			return NewUserService()
		},
	})
}

// PasswordHashParams are the argon2id cost parameters.
type PasswordHashParams struct {
	Time    uint32
	Memory  uint32
	Threads uint8
	KeyLen  uint32
}

var DefaultPasswordHashParams = PasswordHashParams{
	Time:    1,
	Memory:  64 * 1024,
	Threads: 4,
	KeyLen:  32,
}

type UserServiceDefault struct {
	db         *gorm.DB
	hashParams PasswordHashParams
}

func NewUserService() (*UserServiceDefault, []core.ContextBuilderOption, error) {
	user := &UserServiceDefault{
		hashParams: DefaultPasswordHashParams,
	}

	opts := core.ContextOptions(
		core.ContextWithStartupFunc(func(ctx core.Context) error {
			user.db = ctx.DB()
			return nil
		}),
	)

	return user, opts, nil
}

// NewUserServiceWithDB builds a user service bound to gdb, outside of a Context.
func NewUserServiceWithDB(gdb *gorm.DB, params PasswordHashParams) *UserServiceDefault {
	return &UserServiceDefault{
		db:         gdb,
		hashParams: params,
	}
}

func (u *UserServiceDefault) ID() string {
	return core.USER_SERVICE
}

// FindByEmail matches case-insensitively. Rows written by other systems may keep the case they were entered with.
func (u *UserServiceDefault) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	return u.findOne(ctx, "LOWER(email) = ?", core.NormalizeEmail(email))
}

func (u *UserServiceDefault) FindByResetToken(ctx context.Context, token string) (*models.User, error) {
	if token == "" {
		return nil, nil
	}

	return u.findOne(ctx, "reset_token = ?", token)
}

func (u *UserServiceDefault) findOne(ctx context.Context, query string, args ...any) (*models.User, error) {
	var user models.User

	err := db.RetryOnLock(u.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Model(&models.User{}).Where(query, args...).First(&user)
	})

	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}

		return nil, core.NewAccountError(core.ErrKeyTransientFailure, err)
	}

	return &user, nil
}

func (u *UserServiceDefault) UpdateAccountInfoIf(ctx context.Context, userId uint, conditions map[string]any, info map[string]any) (bool, error) {
	var rowsAffected int64

	err := db.RetryOnLock(u.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		tx := db.Model(&models.User{}).Where("id = ?", userId).Where(conditions).Updates(info)
		rowsAffected = tx.RowsAffected

		return tx
	})
	if err != nil {
		return false, core.NewAccountError(core.ErrKeyTransientFailure, err)
	}

	return rowsAffected > 0, nil
}

func (u *UserServiceDefault) HashPassword(password string, salt string) (string, error) {
	if salt == "" {
		return "", core.NewAccountError(core.ErrKeyHashingFailed, errors.New("empty salt"))
	}

	p := u.hashParams
	key := argon2.IDKey([]byte(password), []byte(salt), p.Time, p.Memory, p.Threads, p.KeyLen)

	return hex.EncodeToString(key), nil
}

func (u *UserServiceDefault) VerifyPassword(user *models.User, password string) bool {
	if user == nil || user.PasswordHash == nil || user.PasswordSalt == nil {
		return false
	}

	hash, err := u.HashPassword(password, *user.PasswordSalt)
	if err != nil {
		return false
	}

	return subtle.ConstantTimeCompare([]byte(hash), []byte(*user.PasswordHash)) == 1
}

func (u *UserServiceDefault) CreateAccount(ctx context.Context, email string, password string, federated bool) (*models.User, error) {
	email = core.NormalizeEmail(email)
	if !core.ValidEmail(email) {
		return nil, core.NewAccountError(core.ErrKeyUserNotFound, nil, "Invalid email address.")
	}

	user := models.User{
		Email:          email,
		FederatedLogin: federated,
	}

	if password != "" {
		salt, err := core.GeneratePasswordSalt()
		if err != nil {
			return nil, core.NewAccountError(core.ErrKeyHashingFailed, err)
		}

		hash, err := u.HashPassword(password, salt)
		if err != nil {
			return nil, err
		}

		user.PasswordHash = &hash
		user.PasswordSalt = &salt
	}

	if err := db.RetryOnLock(u.db.WithContext(ctx), func(db *gorm.DB) *gorm.DB {
		return db.Create(&user)
	}); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, core.NewAccountError(core.ErrKeyEmailAlreadyExists, nil)
		}

		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == mysqlErrDuplicateEntry {
			return nil, core.NewAccountError(core.ErrKeyEmailAlreadyExists, nil)
		}

		return nil, core.NewAccountError(core.ErrKeyTransientFailure, err)
	}

	return &user, nil
}
