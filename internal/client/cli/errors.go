package cli

import (
	"context"

	"github.com/dmitrijs2005/protopass/internal/common"
)

// report shows err to the user and returns it. An invalid or expired
// session logs the user out; a rejected concurrent call stays silent.
func (a *App) report(ctx context.Context, err error) error {
	if err == nil {
		return nil
	}

	kind := common.KindOf(err)
	a.log.Debug(ctx, "command failed", "kind", kind.String(), "error", err)

	switch kind {
	case common.KindConcurrentCallNotAllowed:
		return err
	case common.KindInvalidSession, common.KindSessionExpired:
		if lerr := a.auth.Logout(ctx); lerr != nil {
			a.log.Warn(ctx, "forced logout", "error", lerr)
		}
	}

	a.failure("%s", kind.UserMessage())
	switch kind {
	case common.KindUserProfileNotFound:
		a.hint("Run %s to create your vault", highlight("unlock"))
	case common.KindContainerPasswordInputRequired, common.KindAuthenticationFailure:
		a.hint("Run %s", highlight("unlock"))
	case common.KindInvalidSession, common.KindSessionExpired:
		a.hint("Run %s", highlight("login"))
	}
	return err
}
