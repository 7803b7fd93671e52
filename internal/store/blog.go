package store

import (
	"context"
	"errors"
	"time"

	"github.com/bloghub/apiserver/types"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// BlogRepository handles persistence for blog posts.
type BlogRepository struct {
	coll *mongo.Collection
}

func NewBlogRepository(database *mongo.Database) *BlogRepository {
	return &BlogRepository{coll: database.Collection("blogs")}
}

func (r *BlogRepository) GetByID(ctx context.Context, id string) (types.Blog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.Blog{}, ErrNotFound
	}

	var blog types.Blog
	err = r.coll.FindOne(ctx, bson.M{"_id": oid}).Decode(&blog)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Blog{}, ErrNotFound
		}
		return types.Blog{}, err
	}
	return blog, nil
}

func (r *BlogRepository) List(ctx context.Context, limit int64) ([]types.Blog, error) {
	opts := options.Find().SetLimit(limit)
	return r.find(ctx, bson.M{}, opts)
}

// ListByAuthor returns a user's own posts, newest first.
func (r *BlogRepository) ListByAuthor(ctx context.Context, authorID primitive.ObjectID) ([]types.Blog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{"author": authorID}, opts)
}

// ListFavoritedBy returns the posts a user has favorited, newest first.
func (r *BlogRepository) ListFavoritedBy(ctx context.Context, userID primitive.ObjectID) ([]types.Blog, error) {
	opts := options.Find().SetSort(bson.D{{Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{"favorited_by": userID}, opts)
}

// Feed returns up to limit posts with ids strictly below the cursor,
// newest first. An empty cursor starts from the newest post. The caller
// owns trimming and next-cursor computation.
func (r *BlogRepository) Feed(ctx context.Context, cursor string, limit int64) ([]types.Blog, error) {
	filter := bson.M{}
	if cursor != "" {
		oid, err := primitive.ObjectIDFromHex(cursor)
		if err != nil {
			return nil, ErrNotFound
		}
		filter = bson.M{"_id": bson.M{"$lt": oid}}
	}

	opts := options.Find().
		SetSort(bson.D{{Key: "_id", Value: -1}}).
		SetLimit(limit)
	return r.find(ctx, filter, opts)
}

func (r *BlogRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]types.Blog, error) {
	mongoCursor, err := r.coll.Find(ctx, filter, opts)
	if err != nil {
		return nil, err
	}
	defer mongoCursor.Close(ctx)

	blogs := []types.Blog{}
	if err := mongoCursor.All(ctx, &blogs); err != nil {
		return nil, err
	}
	return blogs, nil
}

func (r *BlogRepository) Create(ctx context.Context, blog types.Blog) (types.Blog, error) {
	now := time.Now()
	blog.ID = primitive.NewObjectID()
	blog.CreatedAt = now
	blog.UpdatedAt = now
	if blog.FavoritedBy == nil {
		blog.FavoritedBy = []primitive.ObjectID{}
	}

	if _, err := r.coll.InsertOne(ctx, blog); err != nil {
		return types.Blog{}, err
	}
	return blog, nil
}

func (r *BlogRepository) UpdateContent(ctx context.Context, id, content string) (types.Blog, error) {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return types.Blog{}, ErrNotFound
	}

	update := bson.M{"$set": bson.M{
		"content":    content,
		"updated_at": time.Now(),
	}}
	return r.findOneAndUpdate(ctx, bson.M{"_id": oid}, update)
}

func (r *BlogRepository) Delete(ctx context.Context, id string) error {
	oid, err := primitive.ObjectIDFromHex(id)
	if err != nil {
		return ErrNotFound
	}

	result, err := r.coll.DeleteOne(ctx, bson.M{"_id": oid})
	if err != nil {
		return err
	}
	if result.DeletedCount == 0 {
		return ErrNotFound
	}
	return nil
}

// AddFavorite records userID as a favoriter and bumps the counter in the
// same update, so the count and the set can never drift apart. The
// membership condition is part of the filter: a concurrent identical
// toggle matches no document instead of bumping the counter twice.
func (r *BlogRepository) AddFavorite(ctx context.Context, blogID string, userID primitive.ObjectID) (types.Blog, error) {
	oid, err := primitive.ObjectIDFromHex(blogID)
	if err != nil {
		return types.Blog{}, ErrNotFound
	}

	filter := bson.M{
		"_id":          oid,
		"favorited_by": bson.M{"$ne": userID},
	}
	update := bson.M{
		"$addToSet": bson.M{"favorited_by": userID},
		"$inc":      bson.M{"favorite_count": 1},
	}
	blog, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, ErrNotFound) {
		// Either the blog is gone or the user is already a member
		// because an identical toggle landed first. GetByID tells the
		// two apart and returns the current document for the latter.
		return r.GetByID(ctx, blogID)
	}
	return blog, err
}

// RemoveFavorite is the inverse of AddFavorite.
func (r *BlogRepository) RemoveFavorite(ctx context.Context, blogID string, userID primitive.ObjectID) (types.Blog, error) {
	oid, err := primitive.ObjectIDFromHex(blogID)
	if err != nil {
		return types.Blog{}, ErrNotFound
	}

	filter := bson.M{
		"_id":          oid,
		"favorited_by": userID,
	}
	update := bson.M{
		"$pull": bson.M{"favorited_by": userID},
		"$inc":  bson.M{"favorite_count": -1},
	}
	blog, err := r.findOneAndUpdate(ctx, filter, update)
	if errors.Is(err, ErrNotFound) {
		return r.GetByID(ctx, blogID)
	}
	return blog, err
}

func (r *BlogRepository) findOneAndUpdate(ctx context.Context, filter, update bson.M) (types.Blog, error) {
	opts := options.FindOneAndUpdate().SetReturnDocument(options.After)

	var blog types.Blog
	err := r.coll.FindOneAndUpdate(ctx, filter, update, opts).Decode(&blog)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return types.Blog{}, ErrNotFound
		}
		return types.Blog{}, err
	}
	return blog, nil
}
