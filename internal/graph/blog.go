package graph

import (
	"context"
	"errors"

	"github.com/bloghub/apiserver/internal/services"
	"github.com/bloghub/apiserver/internal/store"
	"github.com/bloghub/apiserver/types"
	graphql "github.com/graph-gophers/graphql-go"
)

type blogResolver struct {
	root *Resolver
	blog types.Blog
}

func (r *Resolver) blogResolvers(blogs []types.Blog) []*blogResolver {
	resolvers := make([]*blogResolver, 0, len(blogs))
	for _, blog := range blogs {
		resolvers = append(resolvers, &blogResolver{root: r, blog: blog})
	}
	return resolvers
}

func (b *blogResolver) ID() graphql.ID {
	return graphql.ID(b.blog.ID.Hex())
}

func (b *blogResolver) Content() string {
	return b.blog.Content
}

func (b *blogResolver) Author(ctx context.Context) (*userResolver, error) {
	user, err := b.root.users.GetByID(ctx, b.blog.Author.Hex())
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return &userResolver{root: b.root, user: user}, nil
}

func (b *blogResolver) CreatedAt() graphql.Time {
	return graphql.Time{Time: b.blog.CreatedAt}
}

func (b *blogResolver) UpdatedAt() graphql.Time {
	return graphql.Time{Time: b.blog.UpdatedAt}
}

func (b *blogResolver) FavoriteCount() int32 {
	return b.blog.FavoriteCount
}

func (b *blogResolver) FavoritedBy(ctx context.Context) ([]*userResolver, error) {
	users, err := b.root.users.ListByIDs(ctx, b.blog.FavoritedBy)
	if err != nil {
		return nil, err
	}
	resolvers := make([]*userResolver, 0, len(users))
	for _, user := range users {
		resolvers = append(resolvers, &userResolver{root: b.root, user: user})
	}
	return resolvers, nil
}

type blogFeedResolver struct {
	root *Resolver
	page services.FeedPage
}

func (f *blogFeedResolver) Blogs() []*blogResolver {
	return f.root.blogResolvers(f.page.Blogs)
}

func (f *blogFeedResolver) Cursor() string {
	return f.page.Cursor
}

func (f *blogFeedResolver) HasNextPage() bool {
	return f.page.HasNextPage
}
