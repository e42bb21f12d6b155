// Package linkcodec encodes file ids and optional passwords into the start
// parameter of a bot deep link and decodes them back from arbitrary text.
package linkcodec

import (
	"fmt"
	"net/url"
	"regexp"
	"strconv"
	"strings"
)

const (
	filePrefix     = "file_"
	passwordPrefix = "pwd_"
	separator      = "&"
)

var (
	fileRe     = regexp.MustCompile(`file_(\d+)`)
	passwordRe = regexp.MustCompile(`pwd_([^_\s]+)`)
)

// Params is what Decode could find in a raw string.
type Params struct {
	FileID  int64
	HasFile bool
	// Password is empty when no pwd_ token was present.
	Password string
}

// Encode builds the start parameter for a file id and optional password.
func Encode(id int64, password string) string {
	s := filePrefix + strconv.FormatInt(id, 10)
	if password != "" {
		s += separator + passwordPrefix + password
	}
	return s
}

// Decode extracts a file id and password from raw. Both patterns are matched
// independently and anywhere in the input. Decode never fails: a missing or
// unparsable token just leaves the matching field unset.
func Decode(raw string) Params {
	var p Params

	if m := fileRe.FindStringSubmatch(raw); m != nil {
		if id, err := strconv.ParseInt(m[1], 10, 64); err == nil {
			p.FileID = id
			p.HasFile = true
		}
	}

	if m := passwordRe.FindStringSubmatch(raw); m != nil {
		p.Password = m[1]
	}

	return p
}

// DeepLink returns https://t.me/<bot>?start=<Encode(id, password)>.
func DeepLink(botUsername string, id int64, password string) string {
	bot := strings.TrimPrefix(botUsername, "@")
	return fmt.Sprintf("https://t.me/%s?start=%s", url.PathEscape(bot), Encode(id, password))
}

// RoundTripSafe reports whether Decode(Encode(id, password)) gives password back.
// Passwords containing '_' or whitespace are truncated by the decoder.
func RoundTripSafe(password string) bool {
	if password == "" {
		return true
	}
	return !strings.ContainsAny(password, "_ \t\r\n\v\f") && Decode(Encode(1, password)).Password == password
}
