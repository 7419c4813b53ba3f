// Command passwd hashes an admin password for the PASSWORD_HASH setting.
package main

import (
	"bufio"
	"fmt"
	"os"
	"strings"

	"github.com/unrelentingtech/sellout/internal/auth"
)

func main() {
	fmt.Fprint(os.Stderr, "Password: ")
	line, err := bufio.NewReader(os.Stdin).ReadString('\n')
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to read password:", err)
		os.Exit(1)
	}

	hash, err := auth.HashPassword(auth.DefaultArgon2idParams, strings.TrimRight(line, "\r\n"))
	if err != nil {
		fmt.Fprintln(os.Stderr, "failed to hash password:", err)
		os.Exit(1)
	}

	fmt.Println(hash)
}
