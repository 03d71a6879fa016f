package ports

// SecretStore retrieves credentials by name. Used once at startup; the core
// never touches secrets afterwards.
type SecretStore interface {
	// Get returns the named secret's value or an error when it is absent.
	Get(name string) (string, error)
}
