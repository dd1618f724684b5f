package gormstore

import (
	"context"
	"database/sql/driver"
	"errors"
	"fmt"
	"net"

	"gorm.io/gorm"

	"github.com/vsinha/bakeryplan/pkg/domain/entities"
)

// SQLSTATE codes that a retry can resolve
var transientStates = map[string]bool{
	"40001": true, // serialization_failure
	"40P01": true, // deadlock_detected
	"55P03": true, // lock_not_available
	"57P01": true, // admin_shutdown
	"08000": true, // connection_exception
	"08003": true, // connection_does_not_exist
	"08006": true, // connection_failure
}

// sqlStateError is implemented by the postgres driver's error type
type sqlStateError interface {
	SQLState() string
}

// mapError translates store errors into the domain error taxonomy. Errors
// that already carry a domain sentinel are returned unchanged.
func mapError(err error) error {
	if err == nil {
		return nil
	}
	for _, sentinel := range []error{
		entities.ErrNotFound,
		entities.ErrInvalidInput,
		entities.ErrCommitConflict,
		entities.ErrTransientIO,
		entities.ErrInconsistent,
	} {
		if errors.Is(err, sentinel) {
			return err
		}
	}

	switch {
	case errors.Is(err, gorm.ErrRecordNotFound):
		return fmt.Errorf("%w: %v", entities.ErrNotFound, err)
	case errors.Is(err, gorm.ErrDuplicatedKey), errors.Is(err, gorm.ErrForeignKeyViolated):
		return fmt.Errorf("%w: %v", entities.ErrInvalidInput, err)
	case errors.Is(err, context.Canceled):
		return err
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, driver.ErrBadConn):
		return fmt.Errorf("%w: %v", entities.ErrTransientIO, err)
	}

	var stateErr sqlStateError
	if errors.As(err, &stateErr) && transientStates[stateErr.SQLState()] {
		return fmt.Errorf("%w: %v", entities.ErrTransientIO, err)
	}

	var netErr net.Error
	if errors.As(err, &netErr) {
		return fmt.Errorf("%w: %v", entities.ErrTransientIO, err)
	}

	return err
}
