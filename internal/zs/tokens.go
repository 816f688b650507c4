package zs

// TokenStore keeps the remote access token encrypted at rest.
type TokenStore interface {
	// Save encrypts token with passphrase and writes it out.
	Save(token, passphrase string) error

	// Load decrypts the stored token with passphrase.
	Load(passphrase string) (string, error)

	// Exists reports whether a token has been saved.
	Exists() bool
}
