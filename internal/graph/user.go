package graph

import (
	"context"

	"github.com/bloghub/apiserver/types"
	graphql "github.com/graph-gophers/graphql-go"
)

type userResolver struct {
	root *Resolver
	user types.User
}

func (u *userResolver) ID() graphql.ID {
	return graphql.ID(u.user.ID.Hex())
}

func (u *userResolver) Username() string {
	return u.user.Username
}

func (u *userResolver) Email() string {
	return u.user.Email
}

func (u *userResolver) Avatar() string {
	return u.user.Avatar
}

// Blogs resolves the user's own posts, newest first.
func (u *userResolver) Blogs(ctx context.Context) ([]*blogResolver, error) {
	blogs, err := u.root.blogs.ListByAuthor(ctx, u.user.ID)
	if err != nil {
		return nil, err
	}
	return u.root.blogResolvers(blogs), nil
}

// Favorites resolves the posts the user has favorited, newest first.
func (u *userResolver) Favorites(ctx context.Context) ([]*blogResolver, error) {
	blogs, err := u.root.blogs.ListFavoritedBy(ctx, u.user.ID)
	if err != nil {
		return nil, err
	}
	return u.root.blogResolvers(blogs), nil
}
