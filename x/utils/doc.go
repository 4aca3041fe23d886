/*
Package utils contains decorators and helpers shared by the bridge
handlers: savepoints, panic recovery and request logging.
*/
package utils
