// Command keygen prints a freshly generated field-encryption key for
// provisioning via the CIPHER_KEY environment variable.
package main

import (
	"fmt"
	"os"

	"github.com/mlozan/finrecord/internal/fieldcrypt"
)

func main() {
	key, err := fieldcrypt.GenerateKey()
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to generate key: %v\n", err)
		os.Exit(1)
	}

	fmt.Fprintln(os.Stderr, "Store this key securely: replacing it makes previously encrypted data unrecoverable.")
	fmt.Println(key)
}
