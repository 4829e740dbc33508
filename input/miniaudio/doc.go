// Package miniaudio captures through the native audio API of the platform
// using miniaudio. It needs cgo; without it the backend is not registered.
package miniaudio
