package validators

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/google/uuid"

	pkgerrors "github.com/rafaelortiz/tradeyard-backend/pkg/errors"
)

// ParseQueryInt reads an integer query parameter, falling back to def when
// absent and clamping against [min, max].
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}

	value, err := strconv.Atoi(raw)
	if err != nil {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "query parameter "+key+" must be an integer")
	}
	if value < min {
		value = min
	}
	if value > max {
		value = max
	}
	return value, nil
}

// ParseUUIDParam validates a path or query value as a UUID.
func ParseUUIDParam(name, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(strings.TrimSpace(raw))
	if err != nil {
		return uuid.Nil, pkgerrors.New(pkgerrors.CodeValidation, name+" must be a valid uuid")
	}
	return id, nil
}
