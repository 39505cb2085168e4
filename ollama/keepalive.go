package ollama

import (
	"encoding/json"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/ollama/ollama/api"
)

// ParseKeepAlive converts a user supplied keep-alive ("-1", "5m", "0", "300")
// into the daemon's own Duration type. The value is decoded exactly the way
// the daemon decodes its JSON field, so "-1" stays -1 on the wire and bare
// numbers are seconds. An empty string yields nil, leaving the daemon default.
// Anything else, such as "forever", fails with ErrInvalidKeepAlive.
func ParseKeepAlive(s string) (*api.Duration, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}

	raw := []byte(s)
	if _, err := strconv.ParseFloat(s, 64); err != nil {
		raw, _ = json.Marshal(s)
	}

	d := &api.Duration{}
	if err := d.UnmarshalJSON(raw); err != nil {
		return nil, fmt.Errorf("%w %q: %v", ErrInvalidKeepAlive, s, err)
	}
	if d.Duration == time.Duration(math.MaxInt64) {
		d.Duration = -1
	}
	return d, nil
}
