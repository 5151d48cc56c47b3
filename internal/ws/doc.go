// Package ws pushes the latest observation to dashboard clients over
// WebSocket. Every connected client receives the full status on connect and
// on every broadcast tick.
package ws
