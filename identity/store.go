package identity

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"
	"gorm.io/gorm"

	"github.com/witcom-dev/ssobridge/apperr"
)

// Store is the identity persistence layer. It owns the one invariant the
// reconciliation provider cannot enforce on its own: the (provider,
// external_id) pair is unique, guarded by the composite unique index on
// external_accounts. The provider's pre-checks are optimizations only.
type Store struct {
	Db     *gorm.DB
	Logger *logrus.Logger
}

// Migrate creates the schema and seeds the role rows.
func (s *Store) Migrate() error {
	if err := s.Db.AutoMigrate(&User{}, &Authority{}, &ExternalAccount{}); err != nil {
		return err
	}
	return s.EnsureDefaultAuthorities()
}

// EnsureDefaultAuthorities makes sure the standard roles exist.
func (s *Store) EnsureDefaultAuthorities() error {
	for _, name := range []string{DefaultAuthority, "ROLE_ADMIN"} {
		authority := Authority{Name: name}
		if err := s.Db.FirstOrCreate(&authority, Authority{Name: name}).Error; err != nil {
			return err
		}
	}
	return nil
}

// FindUserByExternalAccount returns the user linked to (provider,
// externalID), with authorities preloaded, or nil when no link exists.
// The external ID is compared verbatim; subjects are opaque,
// case-sensitive identifiers.
func (s *Store) FindUserByExternalAccount(ctx context.Context, provider Provider, externalID string) (*User, error) {
	var account ExternalAccount
	err := s.Db.WithContext(ctx).
		Where("provider = ? AND external_id = ?", provider.String(), externalID).
		First(&account).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, apperr.Wrap(err, apperr.ErrDatabase, "")
	}

	var user User
	err = s.Db.WithContext(ctx).Preload("Authorities").First(&user, account.UserID).Error
	if err != nil {
		// a link without its user means the store is inconsistent
		return nil, apperr.Wrap(fmt.Errorf("external account %d has no user: %w", account.ID, err), apperr.ErrDatabase, "")
	}
	return &user, nil
}

// CreateUserWithExternalAccount provisions a first-login user together with
// its provider link in a single transaction; either both rows land or
// neither does. A concurrent login for the same identity loses here with
// apperr.ErrAlreadyLinked, raised either by the in-transaction re-check or
// by the unique index itself.
func (s *Store) CreateUserWithExternalAccount(ctx context.Context, user *User, provider Provider, externalID string) (*User, error) {
	err := s.Db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var count int64
		if err := tx.Model(&ExternalAccount{}).
			Where("provider = ? AND external_id = ?", provider.String(), externalID).
			Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return apperr.Wrap(fmt.Errorf("identity %s/%s already linked", provider, externalID), apperr.ErrAlreadyLinked, "")
		}

		login, err := s.uniqueLogin(tx, user.Login)
		if err != nil {
			return err
		}
		user.Login = login

		if len(user.Authorities) == 0 {
			user.Authorities = []Authority{{Name: DefaultAuthority}}
		}
		user.ExternalAccounts = []ExternalAccount{{
			Provider:   provider.String(),
			ExternalID: externalID,
		}}
		return tx.Create(user).Error
	})
	if err != nil {
		return nil, translateCreateErr(err)
	}

	s.Logger.WithFields(logrus.Fields{
		"login":    user.Login,
		"provider": provider.String(),
	}).Info("provisioned user from external account")
	return user, nil
}

// uniqueLogin keeps the requested login when free and otherwise tacks on a
// short random suffix. The login is a local display handle; the external
// identity key is the account link, so renaming is harmless.
func (s *Store) uniqueLogin(tx *gorm.DB, login string) (string, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return "", apperr.Wrap(errors.New("blank login"), apperr.ErrProvisioning, "")
	}
	var count int64
	if err := tx.Model(&User{}).Where("login = ?", login).Count(&count).Error; err != nil {
		return "", err
	}
	if count == 0 {
		return login, nil
	}
	return login + "-" + uuid.NewString()[:8], nil
}

// PurgeUnactivated deletes never-activated accounts older than the cutoff.
// SSO-provisioned users are activated at creation and never match.
func (s *Store) PurgeUnactivated(ctx context.Context, olderThan time.Duration) (int64, error) {
	cutoff := time.Now().Add(-olderThan)
	res := s.Db.WithContext(ctx).Unscoped().
		Where("activated = ? AND created_at < ?", false, cutoff).
		Delete(&User{})
	if res.Error != nil {
		return 0, apperr.Wrap(res.Error, apperr.ErrDatabase, "")
	}
	if res.RowsAffected > 0 {
		s.Logger.WithField("count", res.RowsAffected).Info("purged unactivated users")
	}
	return res.RowsAffected, res.Error
}

func translateCreateErr(err error) error {
	var appErr *apperr.Error
	if errors.As(err, &appErr) {
		return err
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) || strings.Contains(err.Error(), "UNIQUE constraint failed") {
		if strings.Contains(err.Error(), "users.login") {
			return apperr.Wrap(err, apperr.ErrProvisioning, "login already taken")
		}
		return apperr.Wrap(err, apperr.ErrAlreadyLinked, "")
	}
	return apperr.Wrap(err, apperr.ErrProvisioning, "")
}
