package idgen

// alphabet holds the 62 characters generated codes are drawn from.
const alphabet = "abcdefghijklmnopqrstuvwxyzABCDEFGHIJKLMNOPQRSTUVWXYZ0123456789"

// inAlphabet maps each byte to whether it belongs to the alphabet.
var inAlphabet [256]bool

func init() {
	for i := 0; i < len(alphabet); i++ {
		inAlphabet[alphabet[i]] = true
	}
}

// Alphabet returns the generator alphabet.
func Alphabet() string { return alphabet }

// IsValid checks if a string is non-empty and uses only alphabet characters.
func IsValid(s string) bool {
	if len(s) == 0 {
		return false
	}
	for i := 0; i < len(s); i++ {
		if !inAlphabet[s[i]] {
			return false
		}
	}
	return true
}
