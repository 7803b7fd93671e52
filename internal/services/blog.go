package services

import (
	"context"
	"strings"

	"github.com/bloghub/apiserver/types"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

const (
	// maxListLimit bounds the unpaginated list queries.
	maxListLimit = 100

	// DefaultFeedPageSize is the page size used by the feed resolver.
	DefaultFeedPageSize = 10
)

// BlogRepository defines persistence operations for blog posts.
type BlogRepository interface {
	GetByID(ctx context.Context, id string) (types.Blog, error)
	List(ctx context.Context, limit int64) ([]types.Blog, error)
	ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]types.Blog, error)
	ListFavoritedBy(ctx context.Context, userID primitive.ObjectID) ([]types.Blog, error)
	Feed(ctx context.Context, cursor string, limit int64) ([]types.Blog, error)
	Create(ctx context.Context, blog types.Blog) (types.Blog, error)
	UpdateContent(ctx context.Context, id, content string) (types.Blog, error)
	Delete(ctx context.Context, id string) error

	// AddFavorite and RemoveFavorite adjust membership and counter in one
	// conditional update. When the actor's membership already matches the
	// target state they leave the document untouched and return it as is,
	// so two racing identical toggles cannot move the counter twice.
	AddFavorite(ctx context.Context, blogID string, userID primitive.ObjectID) (types.Blog, error)
	RemoveFavorite(ctx context.Context, blogID string, userID primitive.ObjectID) (types.Blog, error)
}

// FeedPage is one page of the reverse-chronological blog feed.
type FeedPage struct {
	Blogs       []types.Blog
	Cursor      string
	HasNextPage bool
}

// BlogService encapsulates blog use-cases.
type BlogService struct {
	repo BlogRepository
}

func NewBlogService(repo BlogRepository) *BlogService {
	return &BlogService{repo: repo}
}

func (s *BlogService) Get(ctx context.Context, id string) (types.Blog, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *BlogService) List(ctx context.Context) ([]types.Blog, error) {
	return s.repo.List(ctx, maxListLimit)
}

func (s *BlogService) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]types.Blog, error) {
	return s.repo.ListByAuthor(ctx, authorID)
}

func (s *BlogService) ListFavoritedBy(ctx context.Context, userID primitive.ObjectID) ([]types.Blog, error) {
	return s.repo.ListFavoritedBy(ctx, userID)
}

// Feed returns one page of posts, newest first. The cursor is the id of
// the last post on the previous page; an empty cursor starts from the top.
// One extra row is fetched to learn whether another page exists, then
// trimmed before the page is returned. An empty page carries an empty
// cursor instead of faulting.
func (s *BlogService) Feed(ctx context.Context, cursor string, pageSize int64) (FeedPage, error) {
	if cursor != "" {
		if _, err := primitive.ObjectIDFromHex(cursor); err != nil {
			return FeedPage{}, ErrInvalidInput
		}
	}
	if pageSize < 1 {
		pageSize = DefaultFeedPageSize
	}

	blogs, err := s.repo.Feed(ctx, cursor, pageSize+1)
	if err != nil {
		return FeedPage{}, err
	}

	page := FeedPage{Blogs: blogs}
	if int64(len(blogs)) > pageSize {
		page.HasNextPage = true
		page.Blogs = blogs[:pageSize]
	}
	if len(page.Blogs) > 0 {
		page.Cursor = page.Blogs[len(page.Blogs)-1].ID.Hex()
	}
	return page, nil
}

// Post creates a blog authored by the actor.
func (s *BlogService) Post(ctx context.Context, actorID, content string) (types.Blog, error) {
	if err := requireActor(actorID); err != nil {
		return types.Blog{}, err
	}
	if strings.TrimSpace(content) == "" {
		return types.Blog{}, ErrInvalidInput
	}

	author, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return types.Blog{}, ErrUnauthenticated
	}

	return s.repo.Create(ctx, types.Blog{
		Content: content,
		Author:  author,
	})
}

// Update rewrites a blog's content. Only the author may update.
// Authentication is checked before the lookup, so anonymous callers
// learn nothing about which ids exist.
func (s *BlogService) Update(ctx context.Context, actorID, id, content string) (types.Blog, error) {
	if err := requireActor(actorID); err != nil {
		return types.Blog{}, err
	}

	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Blog{}, err
	}
	if err := authorize(actorID, blog.Author); err != nil {
		return types.Blog{}, err
	}

	return s.repo.UpdateContent(ctx, id, content)
}

// Delete removes a blog. Only the author may delete. A store failure
// after the guard passes is reported as false rather than an error, which
// is the contract callers of deleteBlog rely on.
func (s *BlogService) Delete(ctx context.Context, actorID, id string) (bool, error) {
	if err := requireActor(actorID); err != nil {
		return false, err
	}

	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return false, err
	}
	if err := authorize(actorID, blog.Author); err != nil {
		return false, err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return false, nil
	}
	return true, nil
}

// ToggleFavorite flips the actor's membership in the blog's favorited-by
// set. Membership and counter move in one atomic store update.
func (s *BlogService) ToggleFavorite(ctx context.Context, actorID, id string) (types.Blog, error) {
	if err := requireActor(actorID); err != nil {
		return types.Blog{}, err
	}
	actor, err := primitive.ObjectIDFromHex(actorID)
	if err != nil {
		return types.Blog{}, ErrUnauthenticated
	}

	blog, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return types.Blog{}, err
	}

	for _, favoriter := range blog.FavoritedBy {
		if favoriter == actor {
			return s.repo.RemoveFavorite(ctx, id, actor)
		}
	}
	return s.repo.AddFavorite(ctx, id, actor)
}
