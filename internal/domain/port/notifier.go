package port

import "context"

type FailureNotifier interface {
	NotifyFailure(ctx context.Context, userEmail, jobID, query, errorMsg string) error
}
