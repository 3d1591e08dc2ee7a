package transport

import (
	"context"

	"github.com/opsboard/otpgate/model"
)

// Dispatcher is the hosting application's view of the remote dashboard
// backend. Implementations must resolve with the raw decoded reply or reject
// with an error; callers translate rejection into a failed outcome, never a
// retry.
type Dispatcher interface {
	SubmitMutation(ctx context.Context, req *model.MutationRequest) (map[string]any, error)
	ConfirmCode(ctx context.Context, challengeRef string, code string, scopeId string) (map[string]any, error)
}
