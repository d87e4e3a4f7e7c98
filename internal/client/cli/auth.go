package cli

import (
	"context"
	"errors"
	"strings"
)

// getSecret is an indirection over GetSecret for tests.
var getSecret = GetSecret

// Login switches to the user identified by an access token issued by the
// identity provider. The token comes from the arguments or is prompted for
// without echo.
func (a *App) Login(ctx context.Context, args []string) error {
	token := strings.Join(args, "")
	if token == "" {
		var err error
		token, err = getSecret(a.reader, "Access token", a.out)
		if err != nil {
			return err
		}
	}
	if token == "" {
		return errors.New("empty token")
	}
	return a.login(ctx, token)
}

func (a *App) login(ctx context.Context, token string) error {
	user, err := a.auth.Login(ctx, token)
	if err != nil {
		return err
	}
	a.session.SetUser(user)
	a.println("Logged in as", user)
	return nil
}

// Logout forgets the stored token and drops the loaded addresses. Local
// caches and queued edits stay, keyed by user, until that user logs in again.
func (a *App) Logout(ctx context.Context) error {
	if err := a.auth.Logout(ctx); err != nil {
		return err
	}
	a.session.SetUser("")
	a.println("Logged out")
	return nil
}

func (a *App) Whoami() error {
	a.println(a.session.User())
	return nil
}
