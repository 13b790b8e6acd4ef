// Package domain contains core concepts of the realtime chat system.
// No runtime, network, or UI logic should be added here.
package domain

// User is the durable identity of an authenticated account. It is issued by
// the authentication subsystem and never derived from a connection.
type User struct {
	ID   string `json:"_id"`
	Name string `json:"name"`
}
