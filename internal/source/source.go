// Package source reads documents from files, standard input or HTTP and
// hands them to the parser as UTF-8.
package source

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"

	"github.com/muzzletov/mendxml"
)

// Stdin is the location that reads standard input.
const Stdin = "-"

// Decode converts data to UTF-8. A byte order mark selects UTF-8 or UTF-16
// and is dropped; without one the data is taken as UTF-8 and invalid
// sequences become U+FFFD.
func Decode(data []byte) ([]byte, error) {
	decoder := unicode.BOMOverride(unicode.UTF8.NewDecoder())

	out, _, err := transform.Bytes(decoder, data)
	if err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}

	return out, nil
}

// IsRemote reports whether location is an http or https URL.
func IsRemote(location string) bool {
	return strings.HasPrefix(location, "http://") || strings.HasPrefix(location, "https://")
}

type Loader struct {
	Client *mendxml.WebClient
	Stdin  io.Reader
}

func NewLoader(client *mendxml.WebClient) *Loader {
	return &Loader{Client: client, Stdin: os.Stdin}
}

// Load reads location, which is a path, a URL or "-" for standard input.
func (l *Loader) Load(ctx context.Context, location string) ([]byte, error) {
	var data []byte
	var err error

	switch {
	case location == Stdin:
		data, err = io.ReadAll(l.Stdin)
	case IsRemote(location):
		if l.Client == nil {
			l.Client = mendxml.NewClient()
		}
		data, err = l.Client.Fetch(ctx, location)
	default:
		data, err = os.ReadFile(location)
	}

	if err != nil {
		return nil, fmt.Errorf("read %s: %w", location, err)
	}

	return Decode(data)
}
