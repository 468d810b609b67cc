package saltedfs

import "crypto/subtle"

// pkcs7Pad appends 1..blockSize bytes of value n so len(out) is a block multiple
func pkcs7Pad(dst, src []byte, blockSize int) []byte {
	pad := blockSize - len(src)%blockSize
	dst = append(dst, src...)
	for i := 0; i < pad; i++ {
		dst = append(dst, byte(pad))
	}
	return dst
}

// pkcs7Unpad strips the padding of a block-aligned buffer
func pkcs7Unpad(buf []byte, blockSize int) ([]byte, error) {
	if len(buf) == 0 || len(buf)%blockSize != 0 {
		return nil, ErrInvalidCiphertext
	}
	pad := int(buf[len(buf)-1])
	if pad == 0 || pad > blockSize {
		return nil, ErrInvalidPadding
	}
	want := make([]byte, pad)
	for i := range want {
		want[i] = byte(pad)
	}
	if subtle.ConstantTimeCompare(buf[len(buf)-pad:], want) != 1 {
		return nil, ErrInvalidPadding
	}
	return buf[:len(buf)-pad], nil
}
