package services

import (
	"context"
	"errors"
	"time"

	"github.com/dmitrijs2005/dormnet/internal/common"
	"github.com/dmitrijs2005/dormnet/internal/logging"
)

// callContext bounds a single store call. A zero timeout leaves ctx as is.
func callContext(ctx context.Context, timeout time.Duration) (context.Context, context.CancelFunc) {
	if timeout <= 0 {
		return context.WithCancel(ctx)
	}
	return context.WithTimeout(ctx, timeout)
}

// storeError converts err with common.Unavailable and logs real outages.
func storeError(ctx context.Context, logger logging.Logger, store string, err error) error {
	err = common.Unavailable(store, err)
	var se *common.StoreError
	if errors.As(err, &se) && se.Store == store {
		logger.Error(ctx, "store unavailable", "store", store, "error", se.Err.Error())
	}
	return err
}
