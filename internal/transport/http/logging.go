package http

import (
	"encoding/json"
	"log/slog"
	"net/url"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

const (
	requestBodyLogKey  = "http.request.body.summary"
	responseBodyLogKey = "http.response.body.summary"
	maxLoggedBody      = 2048
	redacted           = "redacted"
)

// registerLogging emits one structured line per request. Bodies are logged
// only after passwords and tokens have been redacted.
func registerLogging(e *echo.Echo, logger *slog.Logger) {
	if logger == nil {
		logger = slog.Default()
	}
	e.Use(middleware.RequestLoggerWithConfig(middleware.RequestLoggerConfig{
		LogURI:       true,
		LogStatus:    true,
		LogMethod:    true,
		LogLatency:   true,
		LogError:     true,
		LogRequestID: true,
		LogRemoteIP:  true,
		HandleError:  true,
		LogValuesFunc: func(c echo.Context, v middleware.RequestLoggerValues) error {
			attrs := []any{
				"request_id", v.RequestID,
				"remote_ip", v.RemoteIP,
				"latency_ms", v.Latency.Milliseconds(),
				slog.Group("request",
					"method", v.Method,
					"uri", sanitizeURI(v.URI),
					"body", c.Get(requestBodyLogKey),
				),
				slog.Group("response",
					"status", v.Status,
					"body", c.Get(responseBodyLogKey),
				),
			}
			level := slog.LevelInfo
			if v.Error != nil {
				attrs = append(attrs, "error", v.Error.Error())
				level = slog.LevelError
			} else if v.Status >= 500 {
				level = slog.LevelError
			}
			logger.Log(c.Request().Context(), level, "http request", attrs...)
			return nil
		},
	}))

	e.Use(middleware.BodyDump(func(c echo.Context, reqBody, resBody []byte) {
		if summary := sanitizeBody(reqBody, c.Request().Header.Get(echo.HeaderContentType)); summary != nil {
			c.Set(requestBodyLogKey, summary)
		}
		if summary := sanitizeBody(resBody, c.Response().Header().Get(echo.HeaderContentType)); summary != nil {
			c.Set(responseBodyLogKey, summary)
		}
	}))
}

func isSecretKey(key string) bool {
	key = strings.ToLower(key)
	return strings.Contains(key, "password") || strings.Contains(key, "token")
}

// sanitizeURI hides secret query parameters such as ?token= on the reset page.
func sanitizeURI(uri string) string {
	u, err := url.Parse(uri)
	if err != nil || u.RawQuery == "" {
		return uri
	}
	q := u.Query()
	changed := false
	for key := range q {
		if isSecretKey(key) {
			q.Set(key, redacted)
			changed = true
		}
	}
	if !changed {
		return uri
	}
	u.RawQuery = q.Encode()
	return u.String()
}

func sanitizeBody(body []byte, contentType string) interface{} {
	if len(body) == 0 {
		return nil
	}

	loweredType := strings.ToLower(strings.TrimSpace(contentType))

	if strings.HasPrefix(loweredType, "application/json") || json.Valid(body) {
		var data interface{}
		if err := json.Unmarshal(body, &data); err == nil {
			return limitJSONSize(sanitizeJSON(data, ""))
		}
	}

	if strings.HasPrefix(loweredType, "application/x-www-form-urlencoded") {
		if values, err := url.ParseQuery(string(body)); err == nil {
			sanitized := make(map[string]interface{}, len(values))
			for key, vals := range values {
				if isSecretKey(key) {
					sanitized[key] = redacted
					continue
				}
				sanitized[key] = clampString(strings.Join(vals, ","))
			}
			if len(sanitized) > 0 {
				return limitJSONSize(sanitized)
			}
		}
	}

	if containsBinaryBytes(body) {
		return "binary"
	}
	text := string(body)
	lowered := strings.ToLower(text)
	if strings.Contains(lowered, "password") || strings.Contains(lowered, "token") {
		return redacted
	}
	return clampString(text)
}

func sanitizeJSON(value interface{}, keyHint string) interface{} {
	switch v := value.(type) {
	case map[string]interface{}:
		result := make(map[string]interface{}, len(v))
		for key, val := range v {
			if isSecretKey(key) {
				result[key] = redacted
				continue
			}
			result[key] = sanitizeJSON(val, key)
		}
		return result
	case []interface{}:
		result := make([]interface{}, len(v))
		for i, item := range v {
			result[i] = sanitizeJSON(item, keyHint)
		}
		return result
	case string:
		if keyHint != "" && isSecretKey(keyHint) {
			return redacted
		}
		if containsBinaryBytes([]byte(v)) {
			return "binary"
		}
		return clampString(v)
	default:
		return v
	}
}

func limitJSONSize(value interface{}) interface{} {
	buf, err := json.Marshal(value)
	if err != nil || len(buf) <= maxLoggedBody {
		return value
	}
	return map[string]interface{}{"_truncated": true, "_bytes": len(buf)}
}

func containsBinaryBytes(data []byte) bool {
	for len(data) > 0 {
		r, size := utf8.DecodeRune(data)
		if r == utf8.RuneError && size == 1 {
			return true
		}
		if !unicode.IsPrint(r) && !unicode.IsSpace(r) {
			return true
		}
		data = data[size:]
	}
	return false
}

func clampString(value string) string {
	if len(value) <= maxLoggedBody {
		return value
	}
	truncated := value[:maxLoggedBody]
	for !utf8.ValidString(truncated) && len(truncated) > 0 {
		truncated = truncated[:len(truncated)-1]
	}
	return truncated + "...(truncated)"
}
