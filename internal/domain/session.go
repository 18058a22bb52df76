package domain

import "time"

// Session liga un cliente con el subject emitido por el proveedor de identidad.
// Es un valor inmutable: se pasa explicitamente a cada operacion sobre items.
type Session struct {
	ID        string    `json:"id"`
	Subject   string    `json:"subject"`
	IssuedAt  time.Time `json:"issued_at"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Expired indica si la sesion ya vencio respecto de now.
func (s Session) Expired(now time.Time) bool {
	return !s.ExpiresAt.IsZero() && !now.Before(s.ExpiresAt)
}
