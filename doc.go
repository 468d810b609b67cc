// Package saltedfs reads and writes the OpenSSL "salted" container format,
// the layout produced by `openssl enc -aes-256-cbc`.
//
// # Overview
//
// A container is the 8-byte magic "Salted__", an 8-byte random salt and the
// AES-CBC ciphertext of the plaintext with PKCS#7 padding. Key and IV are
// derived from a passphrase and the salt, so the salt is all a reader needs
// besides the passphrase.
//
// # Supported Algorithms
//
//   - aes-256-cbc (AES256CBC, the default)
//   - aes-128-cbc (AES128CBC)
//
// Key derivation follows `openssl enc`:
//   - EVP_BytesToKey with SHA-256 (OpenSSL 1.1.0 and later) or MD5 (earlier)
//   - PBKDF2-HMAC (`-pbkdf2`, 10000 iterations by default)
//   - a fixed two-round MD5 scheme for older AES-256 artifacts
//
// # Streaming
//
//	config := &saltedfs.Config{
//	    Cipher: saltedfs.AES256CBC,
//	    KeyProvider: saltedfs.NewPassphraseKeyProvider(
//	        []byte("my-secure-password"),
//	        saltedfs.BytesToKeyParams{Digest: saltedfs.DigestSHA256},
//	    ),
//	}
//
//	factory, err := saltedfs.NewStreamFactory(config)
//	if err != nil {
//	    panic(err)
//	}
//
//	w, _, _ := factory.EncryptWriter(file)
//	w.Write([]byte("This will be encrypted"))
//	w.Close() // writes the final padded block and closes file
//
// Readers and Writers are not safe for concurrent use. A StreamFactory holds
// no mutable state and may be shared.
//
// # One-shot Commands
//
// CryptCommand encrypts or decrypts a whole payload held in a CryptContext.
// A context that reaches Decrypt with exactly 16 bytes yields an empty
// plaintext; fewer bytes fail with ErrTruncatedInput.
//
// # Archives
//
// ArchiveWriter and ArchiveReader put a ZIP archive inside one container.
// Reading needs random access, so the decrypted archive is spooled to a
// file on an absfs.FileSystem (an in-memory memfs by default) and removed
// on Close.
//
// # Security Considerations
//
// CBC with PKCS#7 is not authenticated. A wrong passphrase is usually, but
// not always, reported as ErrInvalidPadding; tampered ciphertext may decrypt
// to garbage without any error. Use this format for compatibility with
// existing OpenSSL artifacts, not for new designs that need integrity.
//
// EVP_BytesToKey with a single round is a weak password hash. Prefer PBKDF2
// when both sides support it.
package saltedfs
