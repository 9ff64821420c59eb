package trainer

import "github.com/pkg/errors"

var (
	// ErrInvalidParams marks a structurally invalid training configuration.
	ErrInvalidParams = errors.New("invalid training parameters")
	// ErrUnknownTrainer is returned when the configured algorithm resolves
	// to no registered trainer.
	ErrUnknownTrainer = errors.New("trainer type could not be determined")
	// ErrCategoryMismatch is returned when a trainer is requested as a
	// category it does not belong to.
	ErrCategoryMismatch = errors.New("trainer does not match the requested category")
	// ErrBuiltinName is returned when registering over a built-in trainer.
	ErrBuiltinName = errors.New("name collides with a built-in trainer")
	// ErrAlreadyRegistered is returned when registering a custom name twice.
	ErrAlreadyRegistered = errors.New("trainer name already registered")
	// ErrInvalidTrainer is returned when a factory does not produce a valid
	// trainer for its declared category.
	ErrInvalidTrainer = errors.New("type does not implement a valid trainer contract")
	// ErrAlreadyInitialized is returned by a second Init call.
	ErrAlreadyInitialized = errors.New("trainer already initialized")
	// ErrNotInitialized is returned when a trainer is used before Init.
	ErrNotInitialized = errors.New("trainer not initialized")
	// ErrCanceled is returned when training stops on request.
	ErrCanceled = errors.New("training canceled")
)
