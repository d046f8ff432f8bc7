package repositories

import (
	"encoding/json"
	stderrors "errors"
	"time"

	"chitchat/domain"
	"chitchat/errors"

	"github.com/dgraph-io/badger/v4"
	"github.com/google/uuid"
)

// Account is the identity provider's own record of a user. It holds the
// credentials and the provider-side copy of the profile fields, separate
// from the profile document other participants can read.
type Account struct {
	ID           string    `json:"id"`
	Email        string    `json:"email"`
	PasswordHash string    `json:"password_hash"`
	DisplayName  string    `json:"display_name"`
	PhotoURL     string    `json:"photo_url"`
	CreatedAt    time.Time `json:"created_at"`
}

// AccountRepository persists accounts in BadgerDB.
// Primary key: "account:{id}". A secondary index "account_email:{email}"
// maps emails to ids so that login does not need a scan.
type AccountRepository struct {
	db *badger.DB
}

func NewAccountRepository(db *badger.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

// CreateAccount persists a new account with an already-hashed password.
// Returns ErrUserAlreadyExists when the email is taken.
func (r *AccountRepository) CreateAccount(email, hashedPassword, displayName string) (Account, error) {
	account := Account{
		ID:           uuid.NewString(),
		Email:        email,
		PasswordHash: hashedPassword,
		DisplayName:  displayName,
		CreatedAt:    time.Now().UTC(),
	}

	data, err := json.Marshal(account)
	if err != nil {
		return Account{}, err
	}

	err = r.db.Update(func(txn *badger.Txn) error {
		emailKey := []byte("account_email:" + email)
		if _, err := txn.Get(emailKey); err == nil {
			return errors.ErrUserAlreadyExists
		}
		if err := txn.Set(emailKey, []byte(account.ID)); err != nil {
			return err
		}
		return txn.Set([]byte("account:"+account.ID), data)
	})
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

// GetAccountByEmail resolves the email index and loads the account.
func (r *AccountRepository) GetAccountByEmail(email string) (Account, error) {
	var account Account
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("account_email:" + email))
		if err != nil {
			return err
		}
		var id []byte
		if id, err = item.ValueCopy(nil); err != nil {
			return err
		}
		item, err = txn.Get([]byte("account:" + string(id)))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return Account{}, errors.ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

// GetAccount loads an account by its id.
func (r *AccountRepository) GetAccount(id string) (Account, error) {
	var account Account
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte("account:" + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return Account{}, errors.ErrNotFound
	}
	if err != nil {
		return Account{}, err
	}
	return account, nil
}

// UpdateAccountFields applies a partial profile update to the provider's
// record. Nil fields are left untouched. Read-modify-write runs inside a
// single transaction.
func (r *AccountRepository) UpdateAccountFields(id string, fields domain.ProfileFields) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := []byte("account:" + id)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var account Account
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &account)
		}); err != nil {
			return err
		}
		if fields.DisplayName != nil {
			account.DisplayName = *fields.DisplayName
		}
		if fields.PhotoURL != nil {
			account.PhotoURL = *fields.PhotoURL
		}
		data, err := json.Marshal(account)
		if err != nil {
			return err
		}
		return txn.Set(key, data)
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return errors.ErrNotFound
	}
	return err
}
