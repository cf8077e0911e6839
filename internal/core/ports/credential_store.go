package ports

// CredentialStore is the key-value storage the login flow persists the
// session into. Readers only ever call Get.
type CredentialStore interface {
	Get(key string) (string, bool)
	Set(key, value string)
	Remove(key string)
}
