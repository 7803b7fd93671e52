package graph_test

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"testing"
	"time"

	"github.com/bloghub/apiserver/internal/auth"
	"github.com/bloghub/apiserver/internal/graph"
	"github.com/bloghub/apiserver/internal/services"
	"github.com/bloghub/apiserver/internal/store"
	"github.com/bloghub/apiserver/types"
	graphql "github.com/graph-gophers/graphql-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

type fakeUserRepo struct {
	users map[string]types.User
}

func (f *fakeUserRepo) GetByID(ctx context.Context, id string) (types.User, error) {
	user, ok := f.users[id]
	if !ok {
		return types.User{}, store.ErrNotFound
	}
	return user, nil
}

func (f *fakeUserRepo) GetByUsername(ctx context.Context, username string) (types.User, error) {
	for _, user := range f.users {
		if user.Username == username {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) GetByUsernameOrEmail(ctx context.Context, username, email string) (types.User, error) {
	for _, user := range f.users {
		if (username != "" && user.Username == username) || (email != "" && user.Email == email) {
			return user, nil
		}
	}
	return types.User{}, store.ErrNotFound
}

func (f *fakeUserRepo) List(ctx context.Context, limit int64) ([]types.User, error) {
	result := []types.User{}
	for _, user := range f.users {
		if int64(len(result)) == limit {
			break
		}
		result = append(result, user)
	}
	return result, nil
}

func (f *fakeUserRepo) ListByIDs(ctx context.Context, ids []primitive.ObjectID) ([]types.User, error) {
	result := []types.User{}
	for _, id := range ids {
		if user, ok := f.users[id.Hex()]; ok {
			result = append(result, user)
		}
	}
	return result, nil
}

func (f *fakeUserRepo) Create(ctx context.Context, user types.User) (types.User, error) {
	for _, existing := range f.users {
		if existing.Username == user.Username || existing.Email == user.Email {
			return types.User{}, store.ErrConflict
		}
	}
	user.ID = primitive.NewObjectID()
	user.CreatedAt = time.Now()
	f.users[user.ID.Hex()] = user
	return user, nil
}

type fakeBlogRepo struct {
	blogs map[string]types.Blog
}

func (f *fakeBlogRepo) GetByID(ctx context.Context, id string) (types.Blog, error) {
	blog, ok := f.blogs[id]
	if !ok {
		return types.Blog{}, store.ErrNotFound
	}
	return blog, nil
}

func (f *fakeBlogRepo) List(ctx context.Context, limit int64) ([]types.Blog, error) {
	all := f.sorted()
	if int64(len(all)) > limit {
		all = all[:limit]
	}
	return all, nil
}

func (f *fakeBlogRepo) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]types.Blog, error) {
	result := []types.Blog{}
	for _, blog := range f.sorted() {
		if blog.Author == authorID {
			result = append(result, blog)
		}
	}
	return result, nil
}

func (f *fakeBlogRepo) ListFavoritedBy(ctx context.Context, userID primitive.ObjectID) ([]types.Blog, error) {
	result := []types.Blog{}
	for _, blog := range f.sorted() {
		for _, favoriter := range blog.FavoritedBy {
			if favoriter == userID {
				result = append(result, blog)
				break
			}
		}
	}
	return result, nil
}

func (f *fakeBlogRepo) Feed(ctx context.Context, cursor string, limit int64) ([]types.Blog, error) {
	result := []types.Blog{}
	for _, blog := range f.sorted() {
		if cursor != "" && blog.ID.Hex() >= cursor {
			continue
		}
		result = append(result, blog)
		if int64(len(result)) == limit {
			break
		}
	}
	return result, nil
}

func (f *fakeBlogRepo) Create(ctx context.Context, blog types.Blog) (types.Blog, error) {
	now := time.Now()
	blog.ID = primitive.NewObjectID()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	if blog.FavoritedBy == nil {
		blog.FavoritedBy = []primitive.ObjectID{}
	}
	f.blogs[blog.ID.Hex()] = blog
	return blog, nil
}

func (f *fakeBlogRepo) UpdateContent(ctx context.Context, id, content string) (types.Blog, error) {
	blog, ok := f.blogs[id]
	if !ok {
		return types.Blog{}, store.ErrNotFound
	}
	blog.Content = content
	blog.UpdatedAt = time.Now()
	f.blogs[id] = blog
	return blog, nil
}

func (f *fakeBlogRepo) Delete(ctx context.Context, id string) error {
	if _, ok := f.blogs[id]; !ok {
		return store.ErrNotFound
	}
	delete(f.blogs, id)
	return nil
}

func (f *fakeBlogRepo) AddFavorite(ctx context.Context, blogID string, userID primitive.ObjectID) (types.Blog, error) {
	blog, ok := f.blogs[blogID]
	if !ok {
		return types.Blog{}, store.ErrNotFound
	}
	for _, favoriter := range blog.FavoritedBy {
		if favoriter == userID {
			return blog, nil
		}
	}
	blog.FavoritedBy = append(blog.FavoritedBy, userID)
	blog.FavoriteCount++
	f.blogs[blogID] = blog
	return blog, nil
}

func (f *fakeBlogRepo) RemoveFavorite(ctx context.Context, blogID string, userID primitive.ObjectID) (types.Blog, error) {
	blog, ok := f.blogs[blogID]
	if !ok {
		return types.Blog{}, store.ErrNotFound
	}
	kept := blog.FavoritedBy[:0:0]
	for _, favoriter := range blog.FavoritedBy {
		if favoriter != userID {
			kept = append(kept, favoriter)
		}
	}
	if len(kept) < len(blog.FavoritedBy) {
		blog.FavoriteCount--
	}
	blog.FavoritedBy = kept
	f.blogs[blogID] = blog
	return blog, nil
}

func (f *fakeBlogRepo) sorted() []types.Blog {
	all := make([]types.Blog, 0, len(f.blogs))
	for _, blog := range f.blogs {
		all = append(all, blog)
	}
	sort.Slice(all, func(i, j int) bool {
		return all[i].ID.Hex() > all[j].ID.Hex()
	})
	return all
}

type harness struct {
	schema *graphql.Schema
	tokens *auth.Manager
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	userRepo := &fakeUserRepo{users: make(map[string]types.User)}
	blogRepo := &fakeBlogRepo{blogs: make(map[string]types.Blog)}
	tokens := auth.NewManager("test-secret")

	resolver := graph.NewResolver(
		services.NewUserService(userRepo),
		services.NewBlogService(blogRepo),
		tokens,
	)
	return &harness{
		schema: graph.MustParseSchema(resolver),
		tokens: tokens,
	}
}

// exec runs a GraphQL document and decodes the data into out.
func (h *harness) exec(ctx context.Context, t *testing.T, query string, out any) {
	t.Helper()
	resp := h.schema.Exec(ctx, query, "", nil)
	require.Empty(t, resp.Errors, "unexpected GraphQL errors: %v", resp.Errors)
	require.NoError(t, json.Unmarshal(resp.Data, out))
}

// execErr runs a GraphQL document and returns the first error message.
func (h *harness) execErr(ctx context.Context, t *testing.T, query string) string {
	t.Helper()
	resp := h.schema.Exec(ctx, query, "", nil)
	require.NotEmpty(t, resp.Errors, "expected a GraphQL error")
	return resp.Errors[0].Message
}

// signUp registers a user and returns an authenticated context plus the user id.
func (h *harness) signUp(t *testing.T, username, email string) (context.Context, string) {
	t.Helper()

	var out struct{ SignUp string }
	query := fmt.Sprintf(`mutation { signUp(username: %q, email: %q, password: "hunter22") }`, username, email)
	h.exec(context.Background(), t, query, &out)
	require.NotEmpty(t, out.SignUp)

	id, err := h.tokens.Parse(out.SignUp)
	require.NoError(t, err)
	return auth.WithActor(context.Background(), id), id
}

type blogPayload struct {
	ID            string
	Content       string
	FavoriteCount int32
	FavoritedBy   []struct{ ID string }
	Author        struct{ Username string }
}

func (h *harness) postBlog(ctx context.Context, t *testing.T, content string) blogPayload {
	t.Helper()

	var out struct{ PostBlog blogPayload }
	query := fmt.Sprintf(`mutation { postBlog(content: %q) { id content favoriteCount favoritedBy { id } author { username } } }`, content)
	h.exec(ctx, t, query, &out)
	return out.PostBlog
}

func TestSignUpAndSignIn(t *testing.T) {
	h := newHarness(t)
	_, id := h.signUp(t, "alice", "Alice@Example.com")

	var signIn struct{ SignIn string }
	h.exec(context.Background(), t, `mutation { signIn(username: "alice", password: "hunter22") }`, &signIn)
	subject, err := h.tokens.Parse(signIn.SignIn)
	require.NoError(t, err)
	assert.Equal(t, id, subject)

	// Sign-in by normalized email works too.
	h.exec(context.Background(), t, `mutation { signIn(email: "alice@example.com", password: "hunter22") }`, &signIn)
	subject, err = h.tokens.Parse(signIn.SignIn)
	require.NoError(t, err)
	assert.Equal(t, id, subject)

	msg := h.execErr(context.Background(), t, `mutation { signIn(username: "alice", password: "wrong") }`)
	assert.Equal(t, "invalid credentials", msg)
}

func TestSignUpDuplicateEmail(t *testing.T) {
	h := newHarness(t)
	h.signUp(t, "alice", "alice@example.com")

	msg := h.execErr(context.Background(), t, `mutation { signUp(username: "bob", email: "alice@example.com", password: "hunter22") }`)
	assert.Equal(t, "could not create account", msg)
}

func TestMe(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.signUp(t, "alice", "alice@example.com")

	msg := h.execErr(context.Background(), t, `{ me { username } }`)
	assert.Equal(t, "must be signed in", msg)

	var out struct{ Me struct{ Username, Email, Avatar string } }
	h.exec(ctx, t, `{ me { username email avatar } }`, &out)
	assert.Equal(t, "alice", out.Me.Username)
	assert.Equal(t, "alice@example.com", out.Me.Email)
	assert.NotEmpty(t, out.Me.Avatar)
}

func TestBlogLifecycle(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.signUp(t, "alice", "alice@example.com")

	posted := h.postBlog(ctx, t, "hi")
	assert.Equal(t, "hi", posted.Content)
	assert.Equal(t, "alice", posted.Author.Username)
	assert.Equal(t, int32(0), posted.FavoriteCount)
	assert.Empty(t, posted.FavoritedBy)

	var got struct{ GetBlog *blogPayload }
	h.exec(context.Background(), t, fmt.Sprintf(`{ getBlog(id: %q) { id content favoriteCount favoritedBy { id } author { username } } }`, posted.ID), &got)
	require.NotNil(t, got.GetBlog)
	assert.Equal(t, posted.ID, got.GetBlog.ID)

	var updated struct{ UpdateBlog blogPayload }
	h.exec(ctx, t, fmt.Sprintf(`mutation { updateBlog(id: %q, content: "edited") { id content favoriteCount favoritedBy { id } author { username } } }`, posted.ID), &updated)
	assert.Equal(t, "edited", updated.UpdateBlog.Content)

	var deleted struct{ DeleteBlog bool }
	h.exec(ctx, t, fmt.Sprintf(`mutation { deleteBlog(id: %q) }`, posted.ID), &deleted)
	assert.True(t, deleted.DeleteBlog)

	h.exec(context.Background(), t, fmt.Sprintf(`{ getBlog(id: %q) { id } }`, posted.ID), &got)
	assert.Nil(t, got.GetBlog)
}

func TestMutationAuthorization(t *testing.T) {
	h := newHarness(t)
	ownerCtx, _ := h.signUp(t, "alice", "alice@example.com")
	strangerCtx, _ := h.signUp(t, "mallory", "mallory@example.com")

	posted := h.postBlog(ownerCtx, t, "mine")

	msg := h.execErr(context.Background(), t, `mutation { postBlog(content: "nope") { id } }`)
	assert.Equal(t, "must be signed in", msg)

	msg = h.execErr(strangerCtx, t, fmt.Sprintf(`mutation { updateBlog(id: %q, content: "hacked") { id } }`, posted.ID))
	assert.Equal(t, "no permission on this resource", msg)

	msg = h.execErr(strangerCtx, t, fmt.Sprintf(`mutation { deleteBlog(id: %q) }`, posted.ID))
	assert.Equal(t, "no permission on this resource", msg)

	msg = h.execErr(ownerCtx, t, `mutation { updateBlog(id: "missing", content: "x") { id } }`)
	assert.Equal(t, "blog not found", msg)
}

func TestToggleFavoriteRoundTrip(t *testing.T) {
	h := newHarness(t)
	authorCtx, _ := h.signUp(t, "alice", "alice@example.com")
	readerCtx, readerID := h.signUp(t, "bob", "bob@example.com")

	posted := h.postBlog(authorCtx, t, "hi")
	toggle := fmt.Sprintf(`mutation { toggleFavorite(id: %q) { favoriteCount favoritedBy { id } } }`, posted.ID)

	msg := h.execErr(context.Background(), t, toggle)
	assert.Equal(t, "must be signed in", msg)

	var out struct{ ToggleFavorite blogPayload }
	h.exec(readerCtx, t, toggle, &out)
	assert.Equal(t, int32(1), out.ToggleFavorite.FavoriteCount)
	require.Len(t, out.ToggleFavorite.FavoritedBy, 1)
	assert.Equal(t, readerID, out.ToggleFavorite.FavoritedBy[0].ID)

	h.exec(readerCtx, t, toggle, &out)
	assert.Equal(t, int32(0), out.ToggleFavorite.FavoriteCount)
	assert.Empty(t, out.ToggleFavorite.FavoritedBy)

	msg = h.execErr(readerCtx, t, `mutation { toggleFavorite(id: "missing") { id } }`)
	assert.Equal(t, "blog not found", msg)
}

func TestBlogFeedPages(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.signUp(t, "alice", "alice@example.com")

	for i := 0; i < 12; i++ {
		h.postBlog(ctx, t, fmt.Sprintf("post %d", i))
	}

	type feedPayload struct {
		Blogs       []struct{ ID string }
		Cursor      string
		HasNextPage bool
	}

	var first struct{ BlogFeed feedPayload }
	h.exec(context.Background(), t, `{ blogFeed { blogs { id } cursor hasNextPage } }`, &first)
	assert.Len(t, first.BlogFeed.Blogs, 10)
	assert.True(t, first.BlogFeed.HasNextPage)
	require.NotEmpty(t, first.BlogFeed.Cursor)

	var second struct{ BlogFeed feedPayload }
	h.exec(context.Background(), t, fmt.Sprintf(`{ blogFeed(cursor: %q) { blogs { id } cursor hasNextPage } }`, first.BlogFeed.Cursor), &second)
	assert.Len(t, second.BlogFeed.Blogs, 2)
	assert.False(t, second.BlogFeed.HasNextPage)

	seen := map[string]bool{}
	for _, blog := range append(first.BlogFeed.Blogs, second.BlogFeed.Blogs...) {
		assert.False(t, seen[blog.ID])
		seen[blog.ID] = true
	}
	assert.Len(t, seen, 12)

	msg := h.execErr(context.Background(), t, `{ blogFeed(cursor: "not-a-hex-id") { cursor } }`)
	assert.Equal(t, "invalid input", msg)
}

func TestUserFieldResolvers(t *testing.T) {
	h := newHarness(t)
	authorCtx, _ := h.signUp(t, "alice", "alice@example.com")
	readerCtx, _ := h.signUp(t, "bob", "bob@example.com")

	first := h.postBlog(authorCtx, t, "first")
	second := h.postBlog(authorCtx, t, "second")

	toggle := fmt.Sprintf(`mutation { toggleFavorite(id: %q) { id } }`, first.ID)
	var ignored struct {
		ToggleFavorite struct{ ID string }
	}
	h.exec(readerCtx, t, toggle, &ignored)

	var out struct {
		User *struct {
			Blogs     []struct{ ID string }
			Favorites []struct{ ID string }
		}
	}
	h.exec(context.Background(), t, `{ user(username: "alice") { blogs { id } favorites { id } } }`, &out)
	require.NotNil(t, out.User)
	require.Len(t, out.User.Blogs, 2)
	assert.Equal(t, second.ID, out.User.Blogs[0].ID, "own posts are newest first")
	assert.Equal(t, first.ID, out.User.Blogs[1].ID)
	assert.Empty(t, out.User.Favorites)

	h.exec(context.Background(), t, `{ user(username: "bob") { blogs { id } favorites { id } } }`, &out)
	require.NotNil(t, out.User)
	assert.Empty(t, out.User.Blogs)
	require.Len(t, out.User.Favorites, 1)
	assert.Equal(t, first.ID, out.User.Favorites[0].ID)

	h.exec(context.Background(), t, `{ user(username: "nobody") { blogs { id } } }`, &out)
	assert.Nil(t, out.User)
}

func TestUsersAndBlogsLists(t *testing.T) {
	h := newHarness(t)
	ctx, _ := h.signUp(t, "alice", "alice@example.com")
	h.signUp(t, "bob", "bob@example.com")
	h.postBlog(ctx, t, "hi")

	var out struct {
		Users []struct{ Username string }
		Blogs []struct{ Content string }
	}
	h.exec(context.Background(), t, `{ users { username } blogs { content } }`, &out)
	assert.Len(t, out.Users, 2)
	require.Len(t, out.Blogs, 1)
	assert.Equal(t, "hi", out.Blogs[0].Content)
}
