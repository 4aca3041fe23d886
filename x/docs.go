/*
Package x contains the extensions that are combined into the bridge
application.

Sub-packages implement Handlers and Decorators. This package holds the
pieces shared between them, mostly the authentication contract that
every handler receives in its constructor.
*/
package x
