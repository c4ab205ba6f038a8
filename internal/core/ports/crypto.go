package ports

// CodeCipher protects verification codes at rest.
// Decrypt(Encrypt(x)) == x for every non-empty x.
type CodeCipher interface {
	Encrypt(code string) (string, error)
	Decrypt(ciphertext string) (string, error)
}
