/*
Package portalsdk is the client for the research portal API.

A Client keeps the access token in a TokenStore and the refresh credential
in its cookie jar. Authenticated calls go through one pipeline: the stored
token is attached, and a 401 triggers a single refresh followed by one
retry of the same request. When the refresh fails the token is cleared and
the call fails with ErrSessionExpired.

	tokens, err := portalsdk.OpenSQLiteTokenStore(ctx, "portal.db")
	client, err := portalsdk.NewClient("https://portal.example.edu/api", tokens)

	session := portalsdk.NewSession(client)
	_ = session.Init(ctx)

	d := portalsdk.Allow(portalsdk.GuardAdmin, session.State())
	if d.Kind == portalsdk.Redirect {
		// navigate to d.Target
	}

Errors are *APIError values. Match them by kind:

	if errors.Is(err, portalsdk.ErrConflict) { ... }
*/
package portalsdk
