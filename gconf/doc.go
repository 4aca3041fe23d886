/*
Package gconf implements a configuration store intended to be used as a global,
in-database configuration.

Each extension keeps a single configuration object under the "_c:<pkg>" key.
Configuration can be loaded from a genesis file with InitConfig, or written
by the extension itself with Save. It is part of the state, so a change
written inside a failed operation is rolled back with everything else.
*/
package gconf
