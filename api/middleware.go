package api

import (
	"compress/gzip"
	"errors"
	"io"
	"net/http"
	"strings"

	"github.com/bytedance/sonic"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
)

// maxBody caps task payloads after any gzip inflation.
const maxBody = "64K"

// bodyMiddleware prepares request bodies for the board routes: gzip bodies are
// inflated first so the size cap applies to the JSON the handlers decode.
func bodyMiddleware() []echo.MiddlewareFunc {
	return []echo.MiddlewareFunc{inflateGzip, middleware.BodyLimit(maxBody)}
}

// inflateGzip swaps a gzip-encoded body for its inflated stream. An
// unreadable gzip header is rejected with 400 before the handler runs.
func inflateGzip(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		req := c.Request()
		if !gzipEncoded(req.Header.Get(echo.HeaderContentEncoding)) {
			return next(c)
		}
		zr, err := gzip.NewReader(req.Body)
		if err != nil {
			_ = req.Body.Close()
			return echo.NewHTTPError(http.StatusBadRequest, "invalid gzip body")
		}
		req.Body = inflated{Reader: zr, raw: req.Body}
		req.ContentLength = -1
		req.Header.Del(echo.HeaderContentEncoding)
		req.Header.Del(echo.HeaderContentLength)
		return next(c)
	}
}

func gzipEncoded(header string) bool {
	for _, coding := range strings.Split(header, ",") {
		if strings.EqualFold(strings.TrimSpace(coding), "gzip") {
			return true
		}
	}
	return false
}

type inflated struct {
	*gzip.Reader
	raw io.ReadCloser
}

func (b inflated) Close() error {
	return errors.Join(b.Reader.Close(), b.raw.Close())
}

// decodeBody decodes the JSON request body into v, rejecting unknown fields.
func decodeBody(c echo.Context, v any) error {
	dec := sonic.ConfigStd.NewDecoder(c.Request().Body)
	dec.DisallowUnknownFields()
	return dec.Decode(v)
}

// badBody is the response for a body decodeBody rejected.
func badBody(m *requestMetrics, err error) (int, any) {
	m.SetErrorStage("decode")
	if errors.Is(err, echo.ErrStatusRequestEntityTooLarge) {
		return http.StatusRequestEntityTooLarge, "request body too large"
	}
	return http.StatusBadRequest, "invalid body"
}
