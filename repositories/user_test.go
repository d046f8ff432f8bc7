package repositories

import (
	"testing"

	"chitchat/domain"
	"chitchat/errors"

	"github.com/stretchr/testify/require"
)

func Test_Set_And_Get_User(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db)

	user := domain.User{ID: "u1", DisplayName: "Alice", Email: "alice@example.com"}
	req.NoError(repository.SetUser(user))

	fetched, err := repository.GetUser("u1")
	req.NoError(err)
	req.Equal(user, fetched)

	_, err = repository.GetUser("u2")
	req.ErrorIs(err, errors.ErrNotFound)
}

func Test_Update_User_Partial(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db)

	user := domain.User{ID: "u1", DisplayName: "Alice", Email: "alice@example.com"}
	req.NoError(repository.SetUser(user))

	name := "Alice in Chains"
	req.NoError(repository.UpdateUser("u1", domain.ProfileFields{DisplayName: &name}))

	fetched, err := repository.GetUser("u1")
	req.NoError(err)
	req.Equal(name, fetched.DisplayName)
	req.Equal("alice@example.com", fetched.Email)
	req.Empty(fetched.PhotoURL)
}

func Test_List_Users_Excludes_Self(t *testing.T) {
	req := require.New(t)
	db := openTestDB(t)
	repository := NewUserRepository(db)

	req.NoError(repository.SetUser(domain.User{ID: "u1", DisplayName: "Alice"}))
	req.NoError(repository.SetUser(domain.User{ID: "u2", DisplayName: "Bob"}))
	req.NoError(repository.SetUser(domain.User{ID: "u3", DisplayName: "Clara"}))

	users, err := repository.ListUsers("u2")
	req.NoError(err)
	req.Len(users, 2)
	for _, u := range users {
		req.NotEqual("u2", u.ID)
	}

	all, err := repository.ListUsers("")
	req.NoError(err)
	req.Len(all, 3)
}
