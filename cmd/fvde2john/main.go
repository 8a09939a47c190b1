// Command fvde2john extracts a crackable hash line from an fvde volume
// image, in the style of John the Ripper jumbo's *2john family: it never
// decrypts the volume, only prints enough of the header (KDF parameters
// and a tag over the wrapped key) for an offline password-recovery tool
// to attack.
package main

import (
	"encoding/hex"
	"flag"
	"fmt"
	"log"
	"os"

	"github.com/kholia/fvde2john"
)

func main() {
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "usage: %s <volume-image> [volume-image ...]\n", os.Args[0])
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	status := 0
	for _, path := range flag.Args() {
		line, err := hashLine(path)
		if err != nil {
			log.Printf("%s: %v", path, err)
			status = 1
			continue
		}
		fmt.Println(line)
	}
	os.Exit(status)
}

// hashLine reads the volume header from path and formats it as the
// filename, a colon, and a "$fvde$" record whose "$"-separated fields are
// the numeric kdf kind, kdf parameters, salt, wrap nonce, wrapped key, and
// integrity tag, all hex-encoded where binary.
func hashLine(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open volume image: %w", err)
	}
	defer f.Close()

	var header fvde.VolumeHeader
	if _, err := header.ReadFrom(f); err != nil {
		return "", fmt.Errorf("failed to read volume header: %w", err)
	}

	var kdfParams string
	switch header.KDF.Kind {
	case fvde.KDFArgon2id:
		kdfParams = fmt.Sprintf("m=%d,t=%d,p=%d", header.KDF.Memory, header.KDF.Time, header.KDF.Parallelism)
	case fvde.KDFPBKDF2:
		kdfParams = fmt.Sprintf("i=%d", header.KDF.Iterations)
	default:
		return "", fmt.Errorf("unrecognized kdf kind %d", header.KDF.Kind)
	}

	return fmt.Sprintf("%s:$fvde$%d$%s$%s$%s$%s$%s",
		path,
		header.KDF.Kind,
		kdfParams,
		hex.EncodeToString(header.KDF.Salt),
		hex.EncodeToString(header.WrapNonce),
		hex.EncodeToString(header.WrapKey),
		hex.EncodeToString(header.Tag),
	), nil
}
