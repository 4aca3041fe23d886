/*
Package app glues the extensions together into a runnable bridge
application.

Router dispatches a transaction to the Handler registered for its message
path, ChainDecorators wraps that Handler with the common decorators, and
Application runs the result against a CommitKVStore one block at a time.
*/
package app
