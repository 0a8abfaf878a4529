// Package prefs resolves how a notification reaches a user: the
// immutable notification-type catalog, per-user preference overrides,
// and quiet-hour windows.
//
// Resolution is a pure read over current preference state. A user with
// no preference row gets exactly the catalog defaults; quiet hours
// suppress everything except critical-priority types, including windows
// that wrap past midnight:
//
//	resolver := prefs.NewResolver(catalog, store)
//	policy, err := resolver.Resolve(userID, "price_alert", time.Now())
//	if policy.Enabled {
//	    router.Dispatch(ctx, n, policy)
//	}
package prefs
