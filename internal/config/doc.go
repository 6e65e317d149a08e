// Package config loads, normalizes, and validates voiceforge-desktop
// configuration data.
//
// It supplies repository defaults for the daemon endpoint identity, call and
// export timeouts, the signal subscription set, and logging. TOML files are
// read from the usual XDG location, user paths (including tilde shortcuts)
// are expanded, and environment fallbacks such as VOICEFORGE_DBUS_NAME are
// honoured so the endpoint can be redirected without editing files.
//
// The resulting Config is treated as immutable once Load returns: callers
// derive the endpoint identity from it at startup and pass values, not the
// Config pointer, into long-lived components.
package config
