package repositories

import (
	"encoding/json"
	stderrors "errors"

	"chitchat/domain"
	"chitchat/errors"

	"github.com/dgraph-io/badger/v4"
)

const userKeyPrefix = "user:"

// UserRepository persists the profile documents that make up the roster,
// one per registered user, under "user:{id}". These are the records
// other participants can read; credentials never appear here.
type UserRepository struct {
	db *badger.DB
}

func NewUserRepository(db *badger.DB) *UserRepository {
	return &UserRepository{db: db}
}

// SetUser writes the full profile document, creating or replacing it.
func (r *UserRepository) SetUser(user domain.User) error {
	data, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return r.db.Update(func(txn *badger.Txn) error {
		return txn.Set([]byte(userKeyPrefix+user.ID), data)
	})
}

// GetUser loads one profile document.
func (r *UserRepository) GetUser(id string) (domain.User, error) {
	var user domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		item, err := txn.Get([]byte(userKeyPrefix + id))
		if err != nil {
			return err
		}
		return item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		})
	})
	if stderrors.Is(err, badger.ErrKeyNotFound) {
		return domain.User{}, errors.ErrNotFound
	}
	if err != nil {
		return domain.User{}, err
	}
	return user, nil
}

// UpdateUser applies a partial profile update in a single transaction.
func (r *UserRepository) UpdateUser(id string, fields domain.ProfileFields) error {
	err := r.db.Update(func(txn *badger.Txn) error {
		key := []byte(userKeyPrefix + id)
		item, err := txn.Get(key)
		if err != nil {
			return err
		}
		var user domain.User
		if err = item.Value(func(val []byte) error {
			return json.Unmarshal(val, &user)
		}); err != nil {
			return err
		}
		if fields.DisplayName != nil {
			user.DisplayName = *fields.DisplayName
		}
		if fields.PhotoURL != nil {
			user.PhotoURL = *fields.PhotoURL
		}
		data, err := json.Marshal(user)
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

// ListUsers scans every profile document, skipping excludeID. Ordering
// follows the key scan and is not part of the contract; callers re-sort
// if they care.
func (r *UserRepository) ListUsers(excludeID string) ([]domain.User, error) {
	var users []domain.User
	err := r.db.View(func(txn *badger.Txn) error {
		options := badger.DefaultIteratorOptions
		options.Prefix = []byte(userKeyPrefix)
		it := txn.NewIterator(options)
		defer it.Close()

		for it.Seek(options.Prefix); it.ValidForPrefix(options.Prefix); it.Next() {
			err := it.Item().Value(func(val []byte) error {
				var user domain.User
				if err := json.Unmarshal(val, &user); err != nil {
					return err
				}
				if user.ID != excludeID {
					users = append(users, user)
				}
				return nil
			})
			if err != nil {
				return err
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return users, nil
}
