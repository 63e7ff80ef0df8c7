package user

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"

	"feastly-backend/domain"
	"feastly-backend/entities"
	"feastly-backend/pkg/jwt"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", strings.ReplaceAll(t.Name(), "/", "_"))
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{TranslateError: true})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&entities.User{},
		&entities.Subscription{},
		&entities.Tag{},
		&entities.Ingredient{},
		&entities.Recipe{},
		&entities.RecipeIngredient{},
		&entities.Favorite{},
		&entities.ShoppingCartItem{},
	))
	return db
}

func newTestService(t *testing.T) (UserService, *gorm.DB) {
	t.Helper()

	db := newTestDB(t)
	return NewUserService(NewUserRepository(db), jwt.NewJWTService()), db
}

func registerUser(t *testing.T, service UserService, username string) domain.UserResponse {
	t.Helper()

	res, err := service.Register(context.Background(), domain.RegisterRequest{
		Username:  username,
		Email:     username + "@example.com",
		FirstName: username,
		LastName:  "Tester",
		Password:  "correct horse",
	})
	require.NoError(t, err)
	return res
}

func seedRecipe(t *testing.T, db *gorm.DB, authorID string, name string) {
	t.Helper()

	author, err := uuid.Parse(authorID)
	require.NoError(t, err)

	recipe := &entities.Recipe{
		ID:          uuid.New(),
		AuthorID:    author,
		Name:        name,
		ImageURL:    "https://cdn.test/recipes/" + name + ".png",
		Text:        "some text",
		CookingTime: 10,
		PubDate:     time.Now(),
	}
	require.NoError(t, db.Create(recipe).Error)
}

func TestRegisterAndLogin(t *testing.T) {
	service, _ := newTestService(t)

	created := registerUser(t, service, "alice")
	assert.Equal(t, "alice", created.Username)
	assert.False(t, created.IsSubscribed)

	login, err := service.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	require.NoError(t, err)
	assert.NotEmpty(t, login.Token)
	assert.Equal(t, created.ID, login.User.ID)

	_, err = service.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "wrong",
	})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	service, _ := newTestService(t)

	registerUser(t, service, "alice")

	_, err := service.Register(context.Background(), domain.RegisterRequest{
		Username:  "other",
		Email:     "alice@example.com",
		FirstName: "Other",
		LastName:  "Tester",
		Password:  "correct horse",
	})
	assert.ErrorIs(t, err, domain.ErrEmailAlreadyExists)

	_, err = service.Register(context.Background(), domain.RegisterRequest{
		Username:  "alice",
		Email:     "alice2@example.com",
		FirstName: "Alice",
		LastName:  "Tester",
		Password:  "correct horse",
	})
	assert.ErrorIs(t, err, domain.ErrUsernameAlreadyExists)
}

func TestUpdateUserChangesPassword(t *testing.T) {
	service, _ := newTestService(t)
	created := registerUser(t, service, "alice")

	err := service.UpdateUser(context.Background(), domain.UpdateUserRequest{
		FirstName: "Alicia",
		Password:  "battery staple",
	}, created.ID)
	require.NoError(t, err)

	_, err = service.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "correct horse",
	})
	assert.ErrorIs(t, err, domain.ErrCredentialsInvalid)

	login, err := service.Login(context.Background(), domain.LoginRequest{
		Email:    "alice@example.com",
		Password: "battery staple",
	})
	require.NoError(t, err)
	assert.Equal(t, "Alicia", login.User.FirstName)
}

func TestSubscribeSelf(t *testing.T) {
	service, _ := newTestService(t)
	alice := registerUser(t, service, "alice")

	_, err := service.Subscribe(context.Background(), alice.ID, alice.ID, 0)
	assert.ErrorIs(t, err, domain.ErrSelfSubscription)
}

func TestSubscribeToggle(t *testing.T) {
	service, _ := newTestService(t)
	alice := registerUser(t, service, "alice")
	bob := registerUser(t, service, "bob")

	res, err := service.Subscribe(context.Background(), alice.ID, bob.ID, 0)
	require.NoError(t, err)
	assert.Equal(t, "bob", res.Username)
	assert.True(t, res.IsSubscribed)

	_, err = service.Subscribe(context.Background(), alice.ID, bob.ID, 0)
	assert.ErrorIs(t, err, domain.ErrAlreadySubscribed)

	require.NoError(t, service.Unsubscribe(context.Background(), alice.ID, bob.ID))
	err = service.Unsubscribe(context.Background(), alice.ID, bob.ID)
	assert.ErrorIs(t, err, domain.ErrNotSubscribed)
}

func TestSubscribeUnknownAuthor(t *testing.T) {
	service, _ := newTestService(t)
	alice := registerUser(t, service, "alice")

	_, err := service.Subscribe(context.Background(), alice.ID, uuid.New().String(), 0)
	assert.ErrorIs(t, err, domain.ErrUserNotFound)
}

func TestGetSubscriptionsRecipesLimit(t *testing.T) {
	service, db := newTestService(t)
	alice := registerUser(t, service, "alice")
	bob := registerUser(t, service, "bob")

	for i := 0; i < 3; i++ {
		seedRecipe(t, db, bob.ID, fmt.Sprintf("recipe-%d", i))
	}

	_, err := service.Subscribe(context.Background(), alice.ID, bob.ID, 0)
	require.NoError(t, err)

	// recipes_limit of zero means no cap.
	all, count, err := service.GetSubscriptions(context.Background(), alice.ID, 1, 20, 0)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
	require.Len(t, all, 1)
	assert.Len(t, all[0].Recipes, 3)
	assert.Equal(t, int64(3), all[0].RecipesCount)

	capped, _, err := service.GetSubscriptions(context.Background(), alice.ID, 1, 20, 2)
	require.NoError(t, err)
	require.Len(t, capped, 1)
	assert.Len(t, capped[0].Recipes, 2)
	assert.Equal(t, int64(3), capped[0].RecipesCount)
}

func TestGetUserByIDViewerRelative(t *testing.T) {
	service, _ := newTestService(t)
	alice := registerUser(t, service, "alice")
	bob := registerUser(t, service, "bob")

	_, err := service.Subscribe(context.Background(), alice.ID, bob.ID, 0)
	require.NoError(t, err)

	asAlice, err := service.GetUserByID(context.Background(), bob.ID, alice.ID)
	require.NoError(t, err)
	assert.True(t, asAlice.IsSubscribed)

	anonymous, err := service.GetUserByID(context.Background(), bob.ID, "")
	require.NoError(t, err)
	assert.False(t, anonymous.IsSubscribed)
}

func TestGetUsersPaging(t *testing.T) {
	service, _ := newTestService(t)
	for _, name := range []string{"alice", "bob", "carol"} {
		registerUser(t, service, name)
	}

	page, count, err := service.GetUsers(context.Background(), "", 1, 2)
	require.NoError(t, err)
	assert.Equal(t, int64(3), count)
	assert.Len(t, page, 2)

	rest, _, err := service.GetUsers(context.Background(), "", 2, 2)
	require.NoError(t, err)
	assert.Len(t, rest, 1)
}
