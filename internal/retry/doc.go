// Package retry retries transient warehouse connection failures with
// exponential backoff.
//
//	executor := retry.NewExecutor(retry.NewPostgreSQLErrorClassifier(), retry.NewExponentialBackoff(3))
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    _, err := manager.Acquire(ctx)
//	    return err
//	})
//
// Authentication and "database does not exist" failures are never retried.
package retry
