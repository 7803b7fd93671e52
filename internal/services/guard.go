package services

import (
	"errors"

	"go.mongodb.org/mongo-driver/bson/primitive"
)

// ErrUnauthenticated is returned when an operation requires a signed-in
// actor and none is present.
var ErrUnauthenticated = errors.New("must be signed in")

// ErrForbidden is returned when the actor is authenticated but does not
// own the target resource.
var ErrForbidden = errors.New("no permission on this resource")

// ErrInvalidCredentials is returned on sign-in failure. Unknown identity
// and wrong password share it so the response reveals neither.
var ErrInvalidCredentials = errors.New("invalid credentials")

// ErrInvalidInput is returned when required arguments are missing or blank.
var ErrInvalidInput = errors.New("invalid input")

func requireActor(actorID string) error {
	if actorID == "" {
		return ErrUnauthenticated
	}
	return nil
}

// authorize decides whether actorID may mutate a resource owned by owner.
func authorize(actorID string, owner primitive.ObjectID) error {
	if err := requireActor(actorID); err != nil {
		return err
	}
	if actorID != owner.Hex() {
		return ErrForbidden
	}
	return nil
}
