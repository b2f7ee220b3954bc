package auth

// TokenStore defines the interface for token storage operations
// This allows us to swap the keyring out in tests
type TokenStore interface {
	SaveToken(serverURL, token string) error
	LoadToken(serverURL string) (string, error)
	DeleteToken(serverURL string) error
}

// keyringTokenStore implements TokenStore using the OS keyring
type keyringTokenStore struct{}

var Default TokenStore = &keyringTokenStore{}

func (keyringTokenStore) SaveToken(serverURL, token string) error {
	return SaveToken(serverURL, token)
}

func (keyringTokenStore) LoadToken(serverURL string) (string, error) {
	return LoadToken(serverURL)
}

func (keyringTokenStore) DeleteToken(serverURL string) error {
	return DeleteToken(serverURL)
}
