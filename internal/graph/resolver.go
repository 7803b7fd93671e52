// Package graph exposes the blogging API as a GraphQL resolver surface.
package graph

import (
	"context"
	"errors"

	"github.com/bloghub/apiserver/internal/auth"
	"github.com/bloghub/apiserver/internal/services"
	"github.com/bloghub/apiserver/internal/store"
	graphql "github.com/graph-gophers/graphql-go"
)

var (
	errBlogNotFound    = errors.New("blog not found")
	errUserNotFound    = errors.New("user not found")
	errAccountCreation = errors.New("could not create account")
)

// Resolver is the root resolver. It holds the services the operations
// compose and the token manager used by signUp and signIn.
type Resolver struct {
	users  *services.UserService
	blogs  *services.BlogService
	tokens *auth.Manager
}

func NewResolver(users *services.UserService, blogs *services.BlogService, tokens *auth.Manager) *Resolver {
	return &Resolver{users: users, blogs: blogs, tokens: tokens}
}

// MustParseSchema binds the schema to a root resolver.
func MustParseSchema(resolver *Resolver) *graphql.Schema {
	return graphql.MustParseSchema(Schema, resolver, graphql.UseStringDescriptions())
}

func (r *Resolver) User(ctx context.Context, args struct{ Username string }) (*userResolver, error) {
	user, err := r.users.GetByUsername(ctx, args.Username)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &userResolver{root: r, user: user}, nil
}

func (r *Resolver) Users(ctx context.Context) ([]*userResolver, error) {
	users, err := r.users.List(ctx)
	if err != nil {
		return nil, err
	}
	resolvers := make([]*userResolver, 0, len(users))
	for _, user := range users {
		resolvers = append(resolvers, &userResolver{root: r, user: user})
	}
	return resolvers, nil
}

func (r *Resolver) Me(ctx context.Context) (*userResolver, error) {
	actorID := auth.ActorID(ctx)
	if actorID == "" {
		return nil, services.ErrUnauthenticated
	}

	user, err := r.users.GetByID(ctx, actorID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errUserNotFound
		}
		return nil, err
	}
	return &userResolver{root: r, user: user}, nil
}

func (r *Resolver) Blogs(ctx context.Context) ([]*blogResolver, error) {
	blogs, err := r.blogs.List(ctx)
	if err != nil {
		return nil, err
	}
	return r.blogResolvers(blogs), nil
}

func (r *Resolver) GetBlog(ctx context.Context, args struct{ ID graphql.ID }) (*blogResolver, error) {
	blog, err := r.blogs.Get(ctx, string(args.ID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return &blogResolver{root: r, blog: blog}, nil
}

func (r *Resolver) BlogFeed(ctx context.Context, args struct{ Cursor *string }) (*blogFeedResolver, error) {
	cursor := ""
	if args.Cursor != nil {
		cursor = *args.Cursor
	}

	page, err := r.blogs.Feed(ctx, cursor, services.DefaultFeedPageSize)
	if err != nil {
		return nil, err
	}
	return &blogFeedResolver{root: r, page: page}, nil
}

func (r *Resolver) PostBlog(ctx context.Context, args struct{ Content string }) (*blogResolver, error) {
	blog, err := r.blogs.Post(ctx, auth.ActorID(ctx), args.Content)
	if err != nil {
		return nil, err
	}
	return &blogResolver{root: r, blog: blog}, nil
}

func (r *Resolver) UpdateBlog(ctx context.Context, args struct {
	ID      graphql.ID
	Content string
}) (*blogResolver, error) {
	blog, err := r.blogs.Update(ctx, auth.ActorID(ctx), string(args.ID), args.Content)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errBlogNotFound
		}
		return nil, err
	}
	return &blogResolver{root: r, blog: blog}, nil
}

func (r *Resolver) DeleteBlog(ctx context.Context, args struct{ ID graphql.ID }) (bool, error) {
	deleted, err := r.blogs.Delete(ctx, auth.ActorID(ctx), string(args.ID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return false, errBlogNotFound
		}
		return false, err
	}
	return deleted, nil
}

func (r *Resolver) SignUp(ctx context.Context, args struct {
	Username string
	Email    string
	Password string
}) (string, error) {
	user, err := r.users.SignUp(ctx, args.Username, args.Email, args.Password)
	if err != nil {
		if errors.Is(err, store.ErrConflict) {
			return "", errAccountCreation
		}
		return "", err
	}
	return r.tokens.Issue(user.ID.Hex())
}

func (r *Resolver) SignIn(ctx context.Context, args struct {
	Username *string
	Email    *string
	Password string
}) (string, error) {
	username, email := "", ""
	if args.Username != nil {
		username = *args.Username
	}
	if args.Email != nil {
		email = *args.Email
	}

	user, err := r.users.Authenticate(ctx, username, email, args.Password)
	if err != nil {
		return "", err
	}
	return r.tokens.Issue(user.ID.Hex())
}

func (r *Resolver) ToggleFavorite(ctx context.Context, args struct{ ID graphql.ID }) (*blogResolver, error) {
	blog, err := r.blogs.ToggleFavorite(ctx, auth.ActorID(ctx), string(args.ID))
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			return nil, errBlogNotFound
		}
		return nil, err
	}
	return &blogResolver{root: r, blog: blog}, nil
}
