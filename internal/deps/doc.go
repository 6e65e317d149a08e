// Package deps checks the external binaries the desktop bridge shells out to,
// reporting resolved paths and, when asked, their self-reported versions.
package deps
