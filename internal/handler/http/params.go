package http

import (
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"github.com/utafrali/discovery/internal/domain"
	apperrors "github.com/utafrali/discovery/pkg/errors"
)

// queryInt parses an optional integer parameter. Absent means zero.
func queryInt(q url.Values, name string) (int, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, apperrors.InvalidParameter(name, "must be a valid integer")
	}
	return n, nil
}

// queryInt64Ptr parses an optional integer parameter. Absent means nil.
func queryInt64Ptr(q url.Values, name string) (*int64, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return nil, nil
	}
	n, err := strconv.ParseInt(v, 10, 64)
	if err != nil {
		return nil, apperrors.InvalidParameter(name, "must be a valid integer")
	}
	return &n, nil
}

// queryBool parses an optional boolean parameter. Absent means false.
func queryBool(q url.Values, name string) (bool, error) {
	v := strings.TrimSpace(q.Get(name))
	if v == "" {
		return false, nil
	}
	b, err := strconv.ParseBool(v)
	if err != nil {
		return false, apperrors.InvalidParameter(name, "must be true or false")
	}
	return b, nil
}

// clientInfo extracts the metadata stored with a history entry. RemoteAddr
// has already been rewritten by the RealIP middleware when a proxy header
// was present.
func clientInfo(r *http.Request) domain.ClientInfo {
	ip := r.RemoteAddr
	if host, _, err := net.SplitHostPort(ip); err == nil {
		ip = host
	}
	return domain.ClientInfo{
		IPAddress: ip,
		UserAgent: r.UserAgent(),
	}
}
