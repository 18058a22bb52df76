package domain

// Identity contiene los claims verificados del ID token del proveedor.
type Identity struct {
	Issuer        string
	Subject       string
	Email         string
	EmailVerified bool
}
